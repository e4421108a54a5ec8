package controllers

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

// RegisterProviders registers all controller providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register controller constructors
	if err := container.Provide(NewResolveController); err != nil {
		return err
	}
	if err := container.Provide(NewVersionsController); err != nil {
		return err
	}
	if err := container.Provide(NewRefreshController); err != nil {
		return err
	}
	if err := container.Provide(NewControllers); err != nil {
		return err
	}

	return nil
}

// NewControllers aggregates all controllers into a slice for the AppInternal.
func NewControllers(
	resolveController *ResolveController,
	versionsController *VersionsController,
	refreshController *RefreshController,
) *[]entities.Controller {
	return &[]entities.Controller{
		resolveController,
		versionsController,
		refreshController,
	}
}
