//go:build unit

package commands_test

import (
	"testing"
	"time"

	"github.com/rios0rios0/malaclypse/internal/domain/commands"
	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	domainRepos "github.com/rios0rios0/malaclypse/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/malaclypse/internal/infrastructure/repositories"
	"github.com/rios0rios0/malaclypse/internal/metrics"
	"github.com/rios0rios0/malaclypse/test/domain/entitybuilders"
	"github.com/rios0rios0/malaclypse/test/infrastructure/repositorydoubles"
)

var coreID = entities.ArtifactIdentity{GroupID: "com.acme", ArtifactID: "core"} //nolint:gochecknoglobals // test fixture

// world is a two-repository chain: a local cache in front of a remote
// index publishing change tokens.
type world struct {
	local    *repositorydoubles.SpyProbeRepository
	remote   *repositorydoubles.SpyTokenProbeRepository
	settings *entities.Settings
	engines  *commands.Engines
}

func newWorld(t *testing.T) *world {
	t.Helper()
	local := repositorydoubles.NewSpyProbeRepository("local", false)
	remote := repositorydoubles.NewSpyTokenProbeRepository("central")
	remote.Tokens["com.acme"] = "rev-1"

	registry := infraRepos.NewProbeRegistry(metrics.New())
	registry.Register(entities.KindLocalCache,
		func(entities.RepositoryDescriptor) (domainRepos.ProbeRepository, error) { return local, nil })
	registry.Register(entities.KindRemoteIndex,
		func(entities.RepositoryDescriptor) (domainRepos.ProbeRepository, error) { return remote, nil })

	settings := &entities.Settings{
		LocalRepository: t.TempDir(),
		Repositories: []entities.RepositoryDescriptor{
			{Name: "local", Kind: entities.KindLocalCache, Location: t.TempDir()},
			{
				Name: "central", Kind: entities.KindRemoteIndex, Location: "https://repo.example.com",
				Staleness: entities.StalenessSettings{Policy: entities.StalenessAlways},
			},
		},
		Resolution: entities.ResolutionSettings{
			Policy:    entities.PolicyNearestWins,
			Workers:   2,
			QueueSize: 8,
			CacheTTL:  time.Hour,
			CacheSize: 64,
			Retry: entities.RetrySettings{
				MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2,
			},
		},
	}

	return &world{
		local:    local,
		remote:   remote,
		settings: settings,
		engines:  commands.NewEngines(registry, metrics.New()),
	}
}

func (w *world) resolver(
	dependencies ...entities.Dependency,
) (*commands.ResolveCommand, *repositorydoubles.StubProjectRepository) {
	builder := entitybuilders.NewDeclaredArtifactBuilder()
	for _, d := range dependencies {
		builder.WithDependency(d)
	}
	projects := &repositorydoubles.StubProjectRepository{Project: builder.BuildDeclaredArtifact()}
	return commands.NewResolveCommand(w.engines, projects), projects
}

func dep(id, versions string) entities.Dependency {
	return entitybuilders.NewDependencyBuilder().WithID(id).WithRange(versions).BuildDependency()
}
