//go:build unit

package filelock_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/malaclypse/internal/filelock"
)

func TestAcquire(t *testing.T) {
	t.Parallel()

	t.Run("should create the parent directory and lock the path", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "com", "acme", "core", "1.0", "core-1.0.jar")

		// when
		lock, err := filelock.Acquire(context.Background(), path)

		// then
		require.NoError(t, err)
		assert.FileExists(t, path+".lock")
		require.NoError(t, lock.Release())
	})

	t.Run("should wait for the holder until the context expires", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "core-1.0.jar")
		held, err := filelock.Acquire(context.Background(), path)
		require.NoError(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		defer cancel()

		// when
		_, contendedErr := filelock.Acquire(ctx, path)
		require.NoError(t, held.Release())
		again, againErr := filelock.Acquire(context.Background(), path)

		// then
		require.Error(t, contendedErr)
		require.NoError(t, againErr)
		require.NoError(t, again.Release())
	})
}
