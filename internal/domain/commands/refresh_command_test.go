//go:build unit

package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/malaclypse/internal/domain/commands"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/repositories/state"
)

func TestRefreshCommand(t *testing.T) {
	t.Parallel()

	t.Run("should forget watermarks and resolve from the remote again", func(t *testing.T) {
		t.Parallel()

		// given
		w := newWorld(t)
		w.remote.WithArtifact("com.acme:core:1.8")
		resolver, _ := w.resolver(dep("com.acme:core", "[1.0,2.0)"))
		_, err := resolver.Execute(context.Background(), w.settings, commands.ResolveOptions{SkipDownload: true})
		require.NoError(t, err)
		store := state.NewFileStateRepository(w.settings.LocalRepository)
		_, found, err := store.LoadWatermark("central", "com.acme")
		require.NoError(t, err)
		require.True(t, found)

		// when
		refreshErr := commands.NewRefreshCommand(w.engines).
			Execute(context.Background(), w.settings, commands.RefreshOptions{Repository: "central"})
		_, resolveErr := resolver.Execute(context.Background(), w.settings, commands.ResolveOptions{SkipDownload: true})

		// then
		require.NoError(t, refreshErr)
		require.NoError(t, resolveErr)
		assert.Equal(t, 2, w.remote.ProbeCount())
	})

	t.Run("should clear the state of every repository", func(t *testing.T) {
		t.Parallel()

		// given
		w := newWorld(t)
		w.remote.WithArtifact("com.acme:core:1.8")
		resolver, _ := w.resolver(dep("com.acme:core", "[1.0,2.0)"))
		_, err := resolver.Execute(context.Background(), w.settings, commands.ResolveOptions{SkipDownload: true})
		require.NoError(t, err)

		// when
		err = commands.NewRefreshCommand(w.engines).
			Execute(context.Background(), w.settings, commands.RefreshOptions{})

		// then
		require.NoError(t, err)
		_, found, loadErr := state.NewFileStateRepository(w.settings.LocalRepository).LoadWatermark("central", "com.acme")
		require.NoError(t, loadErr)
		assert.False(t, found)
	})

	t.Run("should reject an unknown repository", func(t *testing.T) {
		t.Parallel()

		// given
		w := newWorld(t)

		// when
		err := commands.NewRefreshCommand(w.engines).
			Execute(context.Background(), w.settings, commands.RefreshOptions{Repository: "mirror"})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown repository "mirror"`)
	})
}
