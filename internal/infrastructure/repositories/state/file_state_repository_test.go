//go:build unit

package state_test

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/repositories/state"
)

func TestFileStateRepository(t *testing.T) {
	t.Parallel()

	id := entities.ArtifactIdentity{GroupID: "com.acme", ArtifactID: "lib"}

	t.Run("should persist watermarks across instances", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		checkedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		require.NoError(t, state.NewFileStateRepository(root).SaveWatermark(entities.Watermark{
			Repository: "central", Group: "com.acme", Token: "rev-1", CheckedAt: checkedAt,
		}))

		// when
		watermark, found, err := state.NewFileStateRepository(root).LoadWatermark("central", "com.acme")

		// then
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "rev-1", watermark.Token)
		assert.True(t, checkedAt.Equal(watermark.CheckedAt))
	})

	t.Run("should report a missing watermark without error", func(t *testing.T) {
		t.Parallel()

		// when
		_, found, err := state.NewFileStateRepository(t.TempDir()).LoadWatermark("central", "com.acme")

		// then
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("should persist listings with their token", func(t *testing.T) {
		t.Parallel()

		// given
		repo := state.NewFileStateRepository(t.TempDir())
		listing := entities.NewListing(id, "central", []entities.Version{
			entities.ParseVersion("1.5"), entities.ParseVersion("1.0"),
		})
		listing.Token = "rev-2"

		// when
		require.NoError(t, repo.SaveListing(listing))
		loaded, found, err := repo.LoadListing("central", id)

		// then
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []string{"1.0", "1.5"}, loaded.VersionStrings())
		assert.Equal(t, "rev-2", loaded.Token)
		assert.Equal(t, "central", loaded.Repository)
	})

	t.Run("should leave no temporary file behind", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		repo := state.NewFileStateRepository(root)

		// when
		require.NoError(t, repo.SaveWatermark(entities.Watermark{Repository: "central", Group: "com.acme"}))

		// then
		dir := filepath.Join(root, ".ravenhurst", "central", "watermarks")
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "com.acme.yaml", entries[0].Name())
	})

	t.Run("should keep state readable when instances write concurrently", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		const writers = 8
		errs := make([]error, writers)

		// when
		var wg sync.WaitGroup
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = state.NewFileStateRepository(root).SaveWatermark(entities.Watermark{
					Repository: "central", Group: "com.acme", Token: fmt.Sprintf("rev-%d", i),
				})
			}()
		}
		wg.Wait()

		// then
		for i := range writers {
			require.NoError(t, errs[i])
		}
		watermark, found, err := state.NewFileStateRepository(root).LoadWatermark("central", "com.acme")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Regexp(t, `^rev-\d$`, watermark.Token)
		entries, err := os.ReadDir(filepath.Join(root, ".ravenhurst", "central", "watermarks"))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "com.acme.yaml", entries[0].Name())
	})

	t.Run("should fail on a corrupt state file", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		path := filepath.Join(root, ".ravenhurst", "central", "watermarks", "com.acme.yaml")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("checked_at: [not a time"), 0o600))

		// when
		_, _, err := state.NewFileStateRepository(root).LoadWatermark("central", "com.acme")

		// then
		require.Error(t, err)
	})

	t.Run("should forget only the named repository", func(t *testing.T) {
		t.Parallel()

		// given
		repo := state.NewFileStateRepository(t.TempDir())
		require.NoError(t, repo.SaveWatermark(entities.Watermark{Repository: "central", Group: "com.acme"}))
		require.NoError(t, repo.SaveWatermark(entities.Watermark{Repository: "mirror", Group: "com.acme"}))

		// when
		require.NoError(t, repo.Forget("central"))

		// then
		_, centralFound, err := repo.LoadWatermark("central", "com.acme")
		require.NoError(t, err)
		_, mirrorFound, err := repo.LoadWatermark("mirror", "com.acme")
		require.NoError(t, err)
		assert.False(t, centralFound)
		assert.True(t, mirrorFound)
	})

	t.Run("should forget everything without a name", func(t *testing.T) {
		t.Parallel()

		// given
		repo := state.NewFileStateRepository(t.TempDir())
		require.NoError(t, repo.SaveWatermark(entities.Watermark{Repository: "mirror", Group: "com.acme"}))

		// when
		require.NoError(t, repo.Forget(""))

		// then
		_, found, err := repo.LoadWatermark("mirror", "com.acme")
		require.NoError(t, err)
		assert.False(t, found)
	})
}
