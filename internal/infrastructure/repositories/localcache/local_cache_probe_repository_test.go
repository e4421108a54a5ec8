//go:build unit

package localcache_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/repositories/localcache"
)

func writePart(t *testing.T, root, relative, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relative))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newProbe(t *testing.T, root string) *localcache.LocalCacheProbeRepository {
	t.Helper()
	probe, err := localcache.NewLocalCacheProbeRepository(entities.RepositoryDescriptor{
		Name: "local", Kind: entities.KindLocalCache, Location: root,
	})
	require.NoError(t, err)
	return probe.(*localcache.LocalCacheProbeRepository)
}

func TestLocalCacheProbe(t *testing.T) {
	t.Parallel()

	id := entities.ArtifactIdentity{GroupID: "com.acme", ArtifactID: "lib"}

	t.Run("should list only versions with a complete part", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writePart(t, root, "com/acme/lib/1.0/lib-1.0.jar", "a")
		writePart(t, root, "com/acme/lib/1.5/lib-1.5.pom", "b")
		writePart(t, root, "com/acme/lib/2.0/lib-2.0.jar.part.tmp", "partial")
		writePart(t, root, "com/acme/lib/2.0/lib-2.0.jar.lock", "")
		writePart(t, root, "com/acme/lib/2.0/lib-2.0.jar.sha256", "abc")
		writePart(t, root, "com/acme/lib/3.0/other-3.0.jar", "foreign")
		probe := newProbe(t, root)

		// when
		listing, err := probe.Probe(context.Background(), id)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"1.0", "1.5"}, listing.VersionStrings())
		assert.Equal(t, "local", listing.Repository)
		assert.False(t, probe.IsRemote())
	})

	t.Run("should report an unknown identity as not found", func(t *testing.T) {
		t.Parallel()

		// given
		probe := newProbe(t, t.TempDir())

		// when
		_, err := probe.Probe(context.Background(), id)

		// then
		require.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("should report a directory without complete parts as not found", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writePart(t, root, "com/acme/lib/1.0/lib-1.0.jar.part.tmp", "partial")
		probe := newProbe(t, root)

		// when
		_, err := probe.Probe(context.Background(), id)

		// then
		require.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("should require a location", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := localcache.NewLocalCacheProbeRepository(entities.RepositoryDescriptor{Name: "local"})

		// then
		require.Error(t, err)
	})
}

func TestLocalCacheFetch(t *testing.T) {
	t.Parallel()

	coordinate := entities.NewCoordinate("com.acme", "lib", "1.0")
	spec := entities.PartSpec{Kind: entities.PartBinary, Type: "jar"}

	t.Run("should open a stored part and its digest", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writePart(t, root, "com/acme/lib/1.0/lib-1.0.jar", "payload")
		expected := digest.FromString("payload")
		require.NoError(t, localcache.WriteDigestFile(entities.LocalPartPath(root, coordinate, spec), expected))
		probe := newProbe(t, root)

		// when
		reader, err := probe.Fetch(context.Background(), coordinate, spec)
		require.NoError(t, err)
		defer reader.Close()
		content, readErr := io.ReadAll(reader)
		checksum, sumErr := probe.Checksum(context.Background(), coordinate, spec)

		// then
		require.NoError(t, readErr)
		require.NoError(t, sumErr)
		assert.Equal(t, "payload", string(content))
		assert.Equal(t, expected, checksum)
	})

	t.Run("should return not found for a missing part and an empty digest", func(t *testing.T) {
		t.Parallel()

		// given
		probe := newProbe(t, t.TempDir())

		// when
		_, err := probe.Fetch(context.Background(), coordinate, spec)
		checksum, sumErr := probe.Checksum(context.Background(), coordinate, spec)

		// then
		require.ErrorIs(t, err, entities.ErrNotFound)
		require.NoError(t, sumErr)
		assert.Empty(t, checksum)
	})
}

func TestParseDigest(t *testing.T) {
	t.Parallel()

	sum := digest.FromString("payload")
	hex := sum.Encoded()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "algorithm prefixed", raw: sum.String()},
		{name: "bare hex", raw: hex},
		{name: "upper case hex", raw: "  " + strings.ToUpper(hex) + "\n"},
		{name: "sha256sum output", raw: hex + "  lib-1.0.jar\n"},
	}

	for _, tt := range tests {
		t.Run("should accept "+tt.name, func(t *testing.T) {
			t.Parallel()

			// when
			parsed, err := localcache.ParseDigest(tt.raw)

			// then
			require.NoError(t, err)
			assert.Equal(t, sum, parsed)
		})
	}

	t.Run("should return an empty digest for blank input", func(t *testing.T) {
		t.Parallel()

		// when
		parsed, err := localcache.ParseDigest("   \n")

		// then
		require.NoError(t, err)
		assert.Empty(t, parsed)
	})

	t.Run("should reject malformed sums", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := localcache.ParseDigest("not-a-digest")

		// then
		require.Error(t, err)
	})
}
