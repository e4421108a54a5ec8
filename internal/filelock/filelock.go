// Package filelock guards writes into the local repository across
// processes. It is independent from the in-memory resolution cache.
package filelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockSuffix    = ".lock"
	retryInterval = 50 * time.Millisecond
	dirFileMode   = 0o755
)

// Lock is a held lock on a local repository path.
type Lock struct {
	flock *flock.Flock
}

// Acquire blocks until the exclusive lock of "<path>.lock" is held or the
// context is done.
func Acquire(ctx context.Context, path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirFileMode); err != nil {
		return nil, fmt.Errorf("failed to create directory of %s: %w", path, err)
	}

	fileLock := flock.New(path + lockSuffix)
	locked, err := fileLock.TryLockContext(ctx, retryInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock %s: %w", path, ctx.Err())
	}
	return &Lock{flock: fileLock}, nil
}

// Release unlocks the path. The lock file stays on disk so other processes
// keep contending on the same inode.
func (it *Lock) Release() error {
	if err := it.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", it.flock.Path(), err)
	}
	return nil
}
