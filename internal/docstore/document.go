// Package docstore persists whole collections as single JSON documents.
// Every save rewrites the entire file; there is no incremental update.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

const lockTimeout = 3 * time.Second

// envelope is the on-disk layout.
type envelope[T any] struct {
	SavedAt time.Time `json:"saved_at"`
	Count   int       `json:"count"`
	Items   []T       `json:"items"`
}

// Document is one JSON file holding a collection of T.
type Document[T any] struct {
	fs     afero.Fs
	path   string
	locker Locker
}

// Open binds a document to path on the OS filesystem with a flock guard.
func Open[T any](path string) *Document[T] {
	return New[T](afero.NewOsFs(), path, FlockLocker(path+".lock"))
}

// New binds a document to path on fs. A nil locker disables locking.
func New[T any](fs afero.Fs, path string, locker Locker) *Document[T] {
	if locker == nil {
		locker = NopLocker()
	}
	return &Document[T]{fs: fs, path: path, locker: locker}
}

func (d *Document[T]) Path() string {
	return d.path
}

// SaveAll overwrites the document with items.
func (d *Document[T]) SaveAll(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(envelope[T]{
		SavedAt: time.Now().UTC(),
		Count:   len(items),
		Items:   items,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(d.path), err)
	}

	unlock, err := d.lock()
	if err != nil {
		return err
	}
	defer unlock()

	tmp := d.path + ".tmp"
	if err := afero.WriteFile(d.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := d.fs.Rename(tmp, d.path); err != nil {
		_ = d.fs.Remove(tmp)
		return fmt.Errorf("replace %s: %w", filepath.Base(d.path), err)
	}
	return nil
}

// LoadAll returns the stored items. A missing, empty or unreadable document
// yields an empty collection.
func (d *Document[T]) LoadAll() []T {
	empty := []T{}

	unlock, err := d.lock()
	if err != nil {
		slog.Warn("document lock failed", "path", d.path, "error", err)
		return empty
	}
	defer unlock()

	data, err := afero.ReadFile(d.fs, d.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("document read failed", "path", d.path, "error", err)
		}
		return empty
	}
	if len(data) == 0 {
		return empty
	}

	var env envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("document corrupt, starting empty", "path", d.path, "error", err)
		return empty
	}
	if env.Items == nil {
		return empty
	}
	return env.Items
}

func (d *Document[T]) lock() (func(), error) {
	if err := d.fs.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := d.locker.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return nil, errors.New("could not acquire file lock")
	}
	return func() { _ = d.locker.Unlock() }, nil
}
