package repositories

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/repositories/codebase"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/repositories/descriptor"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/repositories/localcache"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/repositories/remoteindex"
	"github.com/rios0rios0/malaclypse/internal/metrics"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(metrics.New); err != nil {
		return err
	}

	// Register probe registry with all repository kinds
	if err := container.Provide(func(m *metrics.Metrics) *ProbeRegistry {
		reg := NewProbeRegistry(m)
		reg.Register(entities.KindLocalCache, localcache.NewLocalCacheProbeRepository)
		reg.Register(entities.KindRemoteIndex, remoteindex.NewRemoteIndexProbeRepository)
		reg.Register(entities.KindCodebaseScan, codebase.NewCodebaseProbeRepository)
		return reg
	}); err != nil {
		return err
	}

	if err := container.Provide(descriptor.NewFileProjectRepository); err != nil {
		return err
	}

	return nil
}
