package ports

import (
	"context"
	"time"

	"github.com/fodder-io/masticator/internal/core/domain"
)

// ContentReader loads file bytes and decodes them to text, falling back to a
// permissive single-byte decode for non-UTF-8 input.
type ContentReader interface {
	Read(ctx context.Context, path string) (string, error)
}

// Completer sends one file's content to the LLM endpoint and returns the
// first-choice completion text. Prompt construction is the adapter's concern
// so the core never touches wire-level message types.
type Completer interface {
	Complete(ctx context.Context, content, filename string) (string, error)
}

// ArtifactPlacer writes classification results or raw text into the
// category- and date-partitioned output tree.
type ArtifactPlacer interface {
	PlaceClassification(ctx context.Context, cls domain.Classification) (domain.Placement, error)
	PlaceText(ctx context.Context, text string) (domain.Placement, error)
}

// Notifier reports per-file progress to an external chat platform. All
// implementations are best-effort: a notifier error never fails the file.
// NotifySuccess receives nil for non-classification responses.
type Notifier interface {
	NotifyStarted(ctx context.Context, filename string) error
	NotifySuccess(ctx context.Context, filename string, cls *domain.Classification) error
	NotifyFailure(ctx context.Context, filename string, cause error) error
}

// ProcessedLedger persists which source paths were already handled across
// restarts. The in-memory dedup set remains authoritative within a run.
type ProcessedLedger interface {
	Seen(ctx context.Context, path string) (bool, error)
	Record(ctx context.Context, path string) error
}

// ResultPublisher announces placed artifacts to downstream consumers.
type ResultPublisher interface {
	PublishPlaced(ctx context.Context, placed domain.PlacedArtifact) error
}

// IntakeHandler is the inbound contract the filesystem watcher drives.
type IntakeHandler interface {
	HandleEvent(ctx context.Context, event domain.FileEvent)
}

// Skip reasons reported to the PipelineObserver.
const (
	SkipReasonExtension = "extension"
	SkipReasonSize      = "size"
	SkipReasonDuplicate = "duplicate"
	SkipReasonLedger    = "ledger"
	SkipReasonExists    = "exists"
)

// PipelineObserver receives intake lifecycle signals for instrumentation.
type PipelineObserver interface {
	FileStarted()
	FileFinished(duration time.Duration, err error)
	FileSkipped(reason string)
}
