package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/fodder-io/masticator/internal/core/domain"
)

func TestClassifyNATSErrorRetryableConnectionFailures(t *testing.T) {
	for _, err := range []error{nats.ErrNoServers, nats.ErrTimeout, nats.ErrConnectionClosed, nats.ErrDisconnected} {
		class := classifyNATSError(err)
		if !class.Retryable || !class.RecordFailure {
			t.Fatalf("classify(%v) = %+v, want retryable+recorded", err, class)
		}
	}
}

func TestClassifyNATSErrorContextCancellation(t *testing.T) {
	class := classifyNATSError(context.Canceled)
	if class.Retryable || class.RecordFailure {
		t.Fatalf("cancellation must be neither retried nor recorded, got %+v", class)
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	wrapped := wrapTemporaryIfNeeded(nats.ErrTimeout)
	if !domain.IsKind(wrapped, domain.ErrTemporary) {
		t.Fatalf("timeout should wrap as temporary, got %v", wrapped)
	}

	permanent := errors.New("bad subject")
	if domain.IsKind(wrapTemporaryIfNeeded(permanent), domain.ErrTemporary) {
		t.Fatalf("permanent error must not be marked temporary")
	}

	if wrapTemporaryIfNeeded(nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
}
