package docstore

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// Locker guards a document against concurrent writers in other processes.
type Locker interface {
	TryLockContext(ctx context.Context, retryDelay time.Duration) (bool, error)
	Unlock() error
}

// FlockLocker returns a Locker backed by an OS file lock at path.
func FlockLocker(path string) Locker {
	return flock.New(path)
}

type nopLocker struct{}

func (nopLocker) TryLockContext(context.Context, time.Duration) (bool, error) { return true, nil }
func (nopLocker) Unlock() error                                              { return nil }

// NopLocker is used with in-memory filesystems.
func NopLocker() Locker {
	return nopLocker{}
}
