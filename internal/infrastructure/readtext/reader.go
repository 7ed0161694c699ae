package readtext

import (
	"context"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/fodder-io/masticator/internal/core/domain"
)

// Reader loads file content as text. Valid UTF-8 passes through untouched;
// anything else is decoded as Latin-1, which maps every byte to a rune and
// therefore always yields some string.
type Reader struct{}

func New() *Reader {
	return &Reader{}
}

func (r *Reader) Read(_ context.Context, path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrRead, "read source file", err)
	}

	if utf8.Valid(raw) {
		return string(raw), nil
	}

	text, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", domain.WrapError(domain.ErrRead, "decode source file", err)
	}
	return string(text), nil
}
