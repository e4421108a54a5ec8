//go:build unit

package codebase_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/domain/repositories"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/repositories/codebase"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "core", "artifact.yaml"), "group: com.acme\nartifact: core\nversion: 1.5.0\n")
	writeFile(t, filepath.Join(root, "core", "target", "core-1.5.0.jar"), "built core")
	writeFile(t, filepath.Join(root, "api", "artifact.yaml"), "group: com.acme\nartifact: api\nversion: 2.0.0\n")
	writeFile(t, filepath.Join(root, "core", "target", "nested", "artifact.yaml"),
		"group: com.acme\nartifact: ghost\nversion: 9.9\n")
	writeFile(t, filepath.Join(root, "broken", "artifact.yaml"), "version: [")
	return root
}

func newProbe(t *testing.T, root string) repositories.ProbeRepository {
	t.Helper()
	probe, err := codebase.NewCodebaseProbeRepository(entities.RepositoryDescriptor{
		Name: "workspace", Kind: entities.KindCodebaseScan, Location: root,
	})
	require.NoError(t, err)
	return probe
}

func TestCodebaseProbe(t *testing.T) {
	t.Parallel()

	t.Run("should list the versions built by the workspace", func(t *testing.T) {
		t.Parallel()

		// given
		probe := newProbe(t, newWorkspace(t))

		// when
		listing, err := probe.Probe(context.Background(), entities.ArtifactIdentity{GroupID: "com.acme", ArtifactID: "core"})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"1.5.0"}, listing.VersionStrings())
		assert.False(t, probe.IsRemote())
	})

	t.Run("should skip descriptors inside output directories", func(t *testing.T) {
		t.Parallel()

		// given
		probe := newProbe(t, newWorkspace(t))

		// when
		_, err := probe.Probe(context.Background(), entities.ArtifactIdentity{GroupID: "com.acme", ArtifactID: "ghost"})

		// then
		require.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("should fail for a missing workspace", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := codebase.NewCodebaseProbeRepository(entities.RepositoryDescriptor{
			Name: "workspace", Location: filepath.Join(t.TempDir(), "missing"),
		})

		// then
		require.Error(t, err)
	})
}

func TestCodebaseFetch(t *testing.T) {
	t.Parallel()

	t.Run("should serve the descriptor from the project file", func(t *testing.T) {
		t.Parallel()

		// given
		probe := newProbe(t, newWorkspace(t))

		// when
		reader, err := probe.Fetch(context.Background(),
			entities.NewCoordinate("com.acme", "core", "1.5.0"), entities.DescriptorSpec())
		require.NoError(t, err)
		defer reader.Close()
		content, readErr := io.ReadAll(reader)

		// then
		require.NoError(t, readErr)
		assert.Contains(t, string(content), "artifact: core")
	})

	t.Run("should serve binaries from the output directory", func(t *testing.T) {
		t.Parallel()

		// given
		probe := newProbe(t, newWorkspace(t))

		// when
		reader, err := probe.Fetch(context.Background(),
			entities.NewCoordinate("com.acme", "core", "1.5.0"), entities.PartSpec{Kind: entities.PartBinary, Type: "jar"})
		require.NoError(t, err)
		defer reader.Close()
		content, readErr := io.ReadAll(reader)

		// then
		require.NoError(t, readErr)
		assert.Equal(t, "built core", string(content))
	})

	t.Run("should report an unbuilt project as not found", func(t *testing.T) {
		t.Parallel()

		// given
		probe := newProbe(t, newWorkspace(t))

		// when
		_, err := probe.Fetch(context.Background(),
			entities.NewCoordinate("com.acme", "api", "2.0.0"), entities.PartSpec{Kind: entities.PartBinary, Type: "jar"})

		// then
		require.ErrorIs(t, err, entities.ErrNotFound)
	})
}
