package domain

import (
	"errors"
	"fmt"
)

// Per-file error kinds. None of these may terminate the watch loop; the
// intake coordinator treats all of them as recoverable conditions.
var (
	ErrRead      = errors.New("read failure")
	ErrLLMCall   = errors.New("llm call failure")
	ErrPlace     = errors.New("placement failure")
	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
