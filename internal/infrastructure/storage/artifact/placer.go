// Package artifact writes pipeline results into the category- and
// date-partitioned output tree.
package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fodder-io/masticator/internal/core/domain"
)

type Placer struct {
	root       string
	categories []string
	overwrite  bool
	now        func() time.Time
	logger     *slog.Logger
}

func New(root string, categories []string, overwrite bool, logger *slog.Logger) (*Placer, error) {
	if root == "" {
		return nil, fmt.Errorf("output root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Placer{
		root:       root,
		categories: categories,
		overwrite:  overwrite,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// WithClock replaces the wall clock, for tests.
func (p *Placer) WithClock(now func() time.Time) *Placer {
	p.now = now
	return p
}

// PlaceClassification serializes the result under its category partition.
// An out-of-list category is downgraded to the fallback with a warning
// rather than failing the file.
func (p *Placer) PlaceClassification(_ context.Context, cls domain.Classification) (domain.Placement, error) {
	category := cls.Category
	if category != domain.FallbackCategory && !domain.CategoryAllowed(category, p.categories) {
		p.logger.Warn("invalid category, defaulting to fallback",
			"category", category, "fallback", domain.FallbackCategory)
		category = domain.FallbackCategory
	}

	target := p.outputPath(category, ".json")
	if skipped, err := p.prepareTarget(target); err != nil || skipped {
		return domain.Placement{Path: target, Skipped: skipped}, err
	}

	f, err := os.Create(target)
	if err != nil {
		return domain.Placement{}, domain.WrapError(domain.ErrPlace, "create artifact", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cls); err != nil {
		return domain.Placement{}, domain.WrapError(domain.ErrPlace, "encode artifact", err)
	}
	return domain.Placement{Path: target}, nil
}

// PlaceText writes a non-structured response verbatim under the fallback
// category.
func (p *Placer) PlaceText(_ context.Context, text string) (domain.Placement, error) {
	target := p.outputPath(domain.FallbackCategory, ".txt")
	if skipped, err := p.prepareTarget(target); err != nil || skipped {
		return domain.Placement{Path: target, Skipped: skipped}, err
	}

	if err := os.WriteFile(target, []byte(text), 0o644); err != nil {
		return domain.Placement{}, domain.WrapError(domain.ErrPlace, "write artifact", err)
	}
	return domain.Placement{Path: target}, nil
}

// prepareTarget enforces the idempotency rule and creates the partition
// directories. Reports skipped=true when the target exists and overwriting
// is disabled; the caller must then leave the source file alone.
func (p *Placer) prepareTarget(target string) (bool, error) {
	if _, err := os.Stat(target); err == nil && !p.overwrite {
		p.logger.Info("output artifact already exists, skipping", "path", target)
		return true, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return false, domain.WrapError(domain.ErrPlace, "create artifact dir", err)
	}
	return false, nil
}

// outputPath is a pure function of category and wall-clock time:
// root/category/YYYY/MM/DD/<unix-seconds><ext>.
func (p *Placer) outputPath(category, ext string) string {
	now := p.now()
	return filepath.Join(
		p.root,
		category,
		fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", int(now.Month())),
		fmt.Sprintf("%02d", now.Day()),
		strconv.FormatInt(now.Unix(), 10)+ext,
	)
}
