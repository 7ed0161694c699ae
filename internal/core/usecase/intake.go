package usecase

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fodder-io/masticator/internal/core/domain"
	"github.com/fodder-io/masticator/internal/core/ports"
)

type IntakeConfig struct {
	AllowedExtensions     []string
	MaxFileSize           int64
	DeleteAfterProcessing bool
	Profile               domain.PromptProfile
}

// IntakeUseCase coordinates one file's journey from filesystem event to
// placed artifact. Each event is handled to completion before the next; no
// per-file failure may stop the watch loop.
type IntakeUseCase struct {
	cfg       IntakeConfig
	reader    ports.ContentReader
	completer ports.Completer
	placer    ports.ArtifactPlacer
	notifier  ports.Notifier         // optional
	ledger    ports.ProcessedLedger  // optional
	publisher ports.ResultPublisher  // optional
	observer  ports.PipelineObserver // optional
	logger    *slog.Logger

	// seen holds every path handled during this run. Checked and inserted
	// under the lock as a single step so overlapping create+move events for
	// one path cannot both proceed.
	mu   sync.Mutex
	seen map[string]struct{}
}

type IntakeOption func(*IntakeUseCase)

func WithNotifier(n ports.Notifier) IntakeOption {
	return func(u *IntakeUseCase) { u.notifier = n }
}

func WithLedger(l ports.ProcessedLedger) IntakeOption {
	return func(u *IntakeUseCase) { u.ledger = l }
}

func WithPublisher(p ports.ResultPublisher) IntakeOption {
	return func(u *IntakeUseCase) { u.publisher = p }
}

func WithObserver(o ports.PipelineObserver) IntakeOption {
	return func(u *IntakeUseCase) { u.observer = o }
}

func NewIntakeUseCase(
	cfg IntakeConfig,
	reader ports.ContentReader,
	completer ports.Completer,
	placer ports.ArtifactPlacer,
	logger *slog.Logger,
	opts ...IntakeOption,
) *IntakeUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	uc := &IntakeUseCase{
		cfg:       cfg,
		reader:    reader,
		completer: completer,
		placer:    placer,
		logger:    logger,
		seen:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (u *IntakeUseCase) HandleEvent(ctx context.Context, event domain.FileEvent) {
	log := u.logger.With(
		"process_id", uuid.NewString(),
		"path", event.Path,
		"event", string(event.Kind),
	)

	info, err := os.Stat(event.Path)
	if err != nil {
		log.Warn("stat failed, skipping", "error", err)
		return
	}
	if info.IsDir() {
		return
	}
	fodder := domain.NewFodder(event.Path, info.Size(), time.Now())

	if reason, ok := u.shouldProcess(fodder); !ok {
		u.skipped(reason)
		log.Debug("filtered out", "reason", reason, "size", fodder.Size, "extension", fodder.Extension)
		return
	}

	if !u.markSeen(fodder.Path) {
		u.skipped(ports.SkipReasonDuplicate)
		log.Debug("already seen this run, skipping")
		return
	}

	if u.ledger != nil {
		seen, err := u.ledger.Seen(ctx, fodder.Path)
		if err != nil {
			log.Warn("ledger lookup failed", "error", err)
		} else if seen {
			u.skipped(ports.SkipReasonLedger)
			log.Info("already processed in a previous run, skipping")
			return
		}
	}

	log.Info("processing file")
	if u.observer != nil {
		u.observer.FileStarted()
	}
	start := time.Now()
	err = u.process(ctx, fodder, log)
	if u.observer != nil {
		u.observer.FileFinished(time.Since(start), err)
	}
	if err != nil {
		log.Error("processing failed", "error", err)
	}
}

// shouldProcess applies the extension allow-list and size cap. Oversized
// files are rejected outright, never partially read.
func (u *IntakeUseCase) shouldProcess(fodder domain.Fodder) (string, bool) {
	allowed := false
	for _, ext := range u.cfg.AllowedExtensions {
		if fodder.Extension == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return ports.SkipReasonExtension, false
	}
	if u.cfg.MaxFileSize > 0 && fodder.Size > u.cfg.MaxFileSize {
		return ports.SkipReasonSize, false
	}
	return "", true
}

func (u *IntakeUseCase) markSeen(path string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.seen[path]; ok {
		return false
	}
	u.seen[path] = struct{}{}
	return true
}

// ResetSeen clears the in-run dedup set. Intended for tests.
func (u *IntakeUseCase) ResetSeen() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.seen = make(map[string]struct{})
}

func (u *IntakeUseCase) process(ctx context.Context, fodder domain.Fodder, log *slog.Logger) error {
	u.notifyStarted(ctx, fodder, log)

	content, err := u.reader.Read(ctx, fodder.Path)
	if err != nil {
		u.notifyFailure(ctx, fodder, err, log)
		return err
	}

	raw, err := u.completer.Complete(ctx, content, fodder.Filename())
	if err != nil {
		// The file stays on disk and no artifact is produced; the watch
		// loop keeps going.
		u.notifyFailure(ctx, fodder, err, log)
		return err
	}

	var (
		placement domain.Placement
		result    *domain.Classification
	)
	if u.cfg.Profile.Mode == domain.ModeClassification {
		cls, parseErr := domain.ParseClassification(raw, u.cfg.Profile.Categories)
		if parseErr != nil {
			log.Error("classification parse failed", "error", parseErr, "raw_response", raw)
		}
		cls.InputFilename = fodder.Filename()
		result = &cls
		placement, err = u.placer.PlaceClassification(ctx, cls)
	} else {
		placement, err = u.placer.PlaceText(ctx, raw)
	}
	if err != nil {
		u.notifyFailure(ctx, fodder, err, log)
		return err
	}

	if placement.Skipped {
		// Deletion is gated on a successful write; a skipped write keeps
		// the source file.
		u.skipped(ports.SkipReasonExists)
		log.Info("output artifact already exists, source retained", "artifact", placement.Path)
		return nil
	}

	log.Info("saved response", "artifact", placement.Path)

	u.publishPlaced(ctx, fodder, placement, result, log)
	u.recordProcessed(ctx, fodder, log)

	if u.cfg.DeleteAfterProcessing {
		if err := os.Remove(fodder.Path); err != nil {
			log.Warn("delete input file failed", "error", err)
		} else {
			log.Info("deleted input file")
		}
	}

	u.notifySuccess(ctx, fodder, result, log)
	return nil
}

func (u *IntakeUseCase) publishPlaced(
	ctx context.Context,
	fodder domain.Fodder,
	placement domain.Placement,
	result *domain.Classification,
	log *slog.Logger,
) {
	if u.publisher == nil {
		return
	}
	placed := domain.PlacedArtifact{
		SourcePath:   fodder.Path,
		ArtifactPath: placement.Path,
		Category:     domain.FallbackCategory,
	}
	if result != nil {
		placed.Category = result.Category
		placed.Confidence = result.Confidence
	}
	if err := u.publisher.PublishPlaced(ctx, placed); err != nil {
		log.Warn("publish placed artifact failed", "error", err)
	}
}

func (u *IntakeUseCase) recordProcessed(ctx context.Context, fodder domain.Fodder, log *slog.Logger) {
	if u.ledger == nil {
		return
	}
	if err := u.ledger.Record(ctx, fodder.Path); err != nil {
		log.Warn("ledger record failed", "error", err)
	}
}

func (u *IntakeUseCase) skipped(reason string) {
	if u.observer != nil {
		u.observer.FileSkipped(reason)
	}
}

func (u *IntakeUseCase) notifyStarted(ctx context.Context, fodder domain.Fodder, log *slog.Logger) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.NotifyStarted(ctx, fodder.Filename()); err != nil {
		log.Warn("notify started failed", "error", err)
	}
}

func (u *IntakeUseCase) notifySuccess(ctx context.Context, fodder domain.Fodder, result *domain.Classification, log *slog.Logger) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.NotifySuccess(ctx, fodder.Filename(), result); err != nil {
		log.Warn("notify success failed", "error", err)
	}
}

func (u *IntakeUseCase) notifyFailure(ctx context.Context, fodder domain.Fodder, cause error, log *slog.Logger) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.NotifyFailure(ctx, fodder.Filename(), cause); err != nil {
		log.Warn("notify failure failed", "error", err)
	}
}
