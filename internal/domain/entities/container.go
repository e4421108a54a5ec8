package entities

import (
	"go.uber.org/dig"
)

// RegisterProviders registers all entity providers with the DIG container.
// Settings and ResolutionContext depend on flags parsed at run time, so the
// controllers build them and nothing is registered here.
func RegisterProviders(_ *dig.Container) error {
	return nil
}
