package commands

import (
	"go.uber.org/dig"
)

// RegisterProviders registers all command providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(NewEngines); err != nil {
		return err
	}

	// Register command constructors
	if err := container.Provide(NewResolveCommand); err != nil {
		return err
	}
	if err := container.Provide(NewVersionsCommand); err != nil {
		return err
	}
	if err := container.Provide(NewRefreshCommand); err != nil {
		return err
	}

	// Bind interfaces to implementations
	if err := container.Provide(func(impl *ResolveCommand) Resolve {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *VersionsCommand) Versions {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *RefreshCommand) Refresh {
		return impl
	}); err != nil {
		return err
	}

	return nil
}
