// Package watch turns raw fsnotify events into intake events. It watches
// the input directory recursively and lets rapid write bursts settle before
// dispatching, so half-written files are not read mid-flight.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fodder-io/masticator/internal/core/domain"
	"github.com/fodder-io/masticator/internal/core/ports"
)

const tickInterval = 100 * time.Millisecond

type pendingEvent struct {
	kind domain.EventKind
	at   time.Time
}

type Watcher struct {
	fsw     *fsnotify.Watcher
	root    string
	settle  time.Duration
	handler ports.IntakeHandler
	logger  *slog.Logger

	// pending tracks paths whose events have not settled yet. Only touched
	// from the Run loop goroutine.
	pending map[string]pendingEvent
}

func New(root string, settle time.Duration, handler ports.IntakeHandler, logger *slog.Logger) (*Watcher, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fsw:     fsw,
		root:    root,
		settle:  settle,
		handler: handler,
		logger:  logger,
		pending: make(map[string]pendingEvent),
	}, nil
}

// Run blocks until ctx is cancelled. Events are dispatched serially: a slow
// pipeline delays the next dispatch but never loses queued events.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	w.logger.Info("started monitoring directory", "dir", w.root)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping watcher")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)

		case <-ticker.C:
			w.dispatchSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Op.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// New subdirectory: watch it and pick up anything moved in
			// along with it.
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("watch new directory failed", "dir", event.Name, "error", err)
			}
			return
		}
		kind := domain.EventCreated
		if prev, ok := w.pending[event.Name]; ok {
			kind = prev.kind
		}
		w.pending[event.Name] = pendingEvent{kind: kind, at: time.Now()}

	case event.Op.Has(fsnotify.Rename):
		// A rename into the watched tree surfaces as Create for the new
		// name; the old name just disappears from our bookkeeping.
		delete(w.pending, event.Name)

	case event.Op.Has(fsnotify.Write):
		// Refresh the settle window while the file is still being written.
		if prev, ok := w.pending[event.Name]; ok {
			prev.at = time.Now()
			w.pending[event.Name] = prev
		}

	case event.Op.Has(fsnotify.Remove):
		delete(w.pending, event.Name)
	}
}

func (w *Watcher) dispatchSettled(ctx context.Context) {
	now := time.Now()
	for path, ev := range w.pending {
		if now.Sub(ev.at) < w.settle {
			continue
		}
		delete(w.pending, path)
		w.handler.HandleEvent(ctx, domain.FileEvent{Kind: ev.kind, Path: path})
	}
}

// addRecursive watches dir and every subdirectory below it, and enqueues
// files already present so a directory moved into the tree is fully
// processed.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return w.fsw.Add(path)
		}
		if dir != w.root {
			w.pending[path] = pendingEvent{kind: domain.EventMoved, at: time.Now()}
		}
		return nil
	})
}
