// Package store persists the per-kind profile collections. Two
// backends implement the same interface: hand-editable YAML files (the
// default) and a single SQLite database.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xlttj/stassh/pkg/profile"
)

// Sentinel error for a backing record that exists but cannot be parsed
// as a profile collection at all.
var ErrCorruptStore = errors.New("profile store is corrupt")

// SkippedRecord reports a single persisted record that could not be
// loaded. The rest of the collection loads normally.
type SkippedRecord struct {
	Kind   profile.Kind
	Index  int
	Reason string
}

// Store is the persistence boundary for profile collections. All disk
// I/O of the application is confined to implementations of this
// interface.
type Store interface {
	// Load returns the persisted collection for a kind in insertion
	// order. A missing backing record yields an empty collection.
	Load(kind profile.Kind) ([]profile.Profile, []SkippedRecord, error)

	// Save atomically replaces the persisted collection for a kind.
	// On failure the previous on-disk content is left untouched.
	Save(kind profile.Kind, profiles []profile.Profile) error

	// NextID returns an identifier not present in the currently
	// persisted collection of the kind.
	NextID(kind profile.Kind) string

	Close() error
}

// New creates a store for the given backend ("file" or "sqlite") rooted
// at dir. An empty dir selects the per-OS default config directory.
func New(backend, dir string) (Store, error) {
	switch backend {
	case "", "file":
		return NewFileStore(dir)
	case "sqlite":
		return NewSQLiteStore(dir)
	}
	return nil, fmt.Errorf("unknown store backend %q", backend)
}

// DefaultDir returns the per-OS configuration directory for the
// application, creating it if necessary.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	dir := filepath.Join(base, "stassh")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}
