//go:build unit

package remoteindex_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/domain/repositories"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/repositories/remoteindex"
)

func newServer(t *testing.T, files map[string]string, token string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := files[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func newProbe(t *testing.T, location, credentials string) *remoteindex.RemoteIndexProbeRepository {
	t.Helper()
	probe, err := remoteindex.NewRemoteIndexProbeRepository(entities.RepositoryDescriptor{
		Name:        "central",
		Kind:        entities.KindRemoteIndex,
		Location:    location,
		Credentials: credentials,
	})
	require.NoError(t, err)
	return probe.(*remoteindex.RemoteIndexProbeRepository)
}

func TestRemoteIndexProbe(t *testing.T) {
	t.Parallel()

	id := entities.ArtifactIdentity{GroupID: "com.acme", ArtifactID: "lib"}

	t.Run("should list the versions of the index", func(t *testing.T) {
		t.Parallel()

		// given
		server := newServer(t, map[string]string{
			"/artifacts/com/acme/lib/index.json": `{"versions":["1.8","1.0","1.5"]}`,
		}, "")
		probe := newProbe(t, server.URL+"/artifacts", "")

		// when
		listing, err := probe.Probe(context.Background(), id)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"1.0", "1.5", "1.8"}, listing.VersionStrings())
		assert.True(t, probe.IsRemote())
	})

	t.Run("should map a missing index to not found", func(t *testing.T) {
		t.Parallel()

		// given
		server := newServer(t, map[string]string{}, "")
		probe := newProbe(t, server.URL, "")

		// when
		_, err := probe.Probe(context.Background(), id)

		// then
		require.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("should send credentials as a bearer token", func(t *testing.T) {
		t.Parallel()

		// given
		server := newServer(t, map[string]string{
			"/com/acme/lib/index.json": `{"versions":["2.0"]}`,
		}, "s3cr3t")

		// when
		_, anonymousErr := newProbe(t, server.URL, "").Probe(context.Background(), id)
		listing, err := newProbe(t, server.URL, "s3cr3t").Probe(context.Background(), id)

		// then
		require.Error(t, anonymousErr)
		assert.NotErrorIs(t, anonymousErr, entities.ErrNotFound)
		require.NoError(t, err)
		assert.Equal(t, []string{"2.0"}, listing.VersionStrings())
	})

	t.Run("should fail on a malformed index", func(t *testing.T) {
		t.Parallel()

		// given
		server := newServer(t, map[string]string{"/com/acme/lib/index.json": `not json`}, "")

		// when
		_, err := newProbe(t, server.URL, "").Probe(context.Background(), id)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse index")
	})
}

func TestRemoteIndexChangeToken(t *testing.T) {
	t.Parallel()

	t.Run("should read the trimmed group token", func(t *testing.T) {
		t.Parallel()

		// given
		server := newServer(t, map[string]string{"/com/acme/.ravenhurst": "  rev-42\n"}, "")
		var probe repositories.ChangeTokenRepository = newProbe(t, server.URL, "")

		// when
		token, err := probe.ChangeToken(context.Background(), "com.acme")

		// then
		require.NoError(t, err)
		assert.Equal(t, "rev-42", token)
	})
}

func TestRemoteIndexFetch(t *testing.T) {
	t.Parallel()

	coordinate := entities.NewCoordinate("com.acme", "lib", "1.0")
	spec := entities.PartSpec{Kind: entities.PartBinary, Type: "jar"}

	t.Run("should stream a part and parse its published checksum", func(t *testing.T) {
		t.Parallel()

		// given
		sum := digest.FromString("payload")
		server := newServer(t, map[string]string{
			"/com/acme/lib/1.0/lib-1.0.jar":        "payload",
			"/com/acme/lib/1.0/lib-1.0.jar.sha256": sum.Encoded() + "  lib-1.0.jar\n",
		}, "")
		probe := newProbe(t, server.URL, "")

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
		assert.Equal(t, sum, checksum)
	})

	t.Run("should return an empty checksum when none is published", func(t *testing.T) {
		t.Parallel()

		// given
		server := newServer(t, map[string]string{"/com/acme/lib/1.0/lib-1.0.jar": "payload"}, "")

		// when
		checksum, err := newProbe(t, server.URL, "").Checksum(context.Background(), coordinate, spec)

		// then
		require.NoError(t, err)
		assert.Empty(t, checksum)
	})
}

func TestNewRemoteIndexProbeRepository(t *testing.T) {
	t.Parallel()

	t.Run("should reject a non HTTP location", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := remoteindex.NewRemoteIndexProbeRepository(entities.RepositoryDescriptor{
			Name: "central", Location: "ftp://example.com/repo",
		})

		// then
		require.Error(t, err)
	})
}
