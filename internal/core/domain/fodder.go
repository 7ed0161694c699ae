package domain

import (
	"path/filepath"
	"strings"
	"time"
)

type EventKind string

const (
	EventCreated EventKind = "created"
	EventMoved   EventKind = "moved"
)

// FileEvent is what the filesystem watcher delivers to the intake
// coordinator. It is ephemeral and never persisted.
type FileEvent struct {
	Kind EventKind
	Path string
}

// Fodder is an inbound file awaiting processing.
type Fodder struct {
	Path         string
	Extension    string
	Size         int64
	DiscoveredAt time.Time
}

func NewFodder(path string, size int64, now time.Time) Fodder {
	return Fodder{
		Path:         path,
		Extension:    strings.ToLower(filepath.Ext(path)),
		Size:         size,
		DiscoveredAt: now,
	}
}

func (f Fodder) Filename() string {
	return filepath.Base(f.Path)
}
