//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/malaclypse/internal/domain/commands"
	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

// StubResolveCommand is a stub implementation of commands.Resolve.
type StubResolveCommand struct {
	ExecuteCallCount int
	Result           *commands.ResolveResult
	ExecuteErr       error
	LastSettings     *entities.Settings
	LastOpts         commands.ResolveOptions
}

var _ commands.Resolve = (*StubResolveCommand)(nil)

func (s *StubResolveCommand) Execute(
	_ context.Context,
	settings *entities.Settings,
	opts commands.ResolveOptions,
) (*commands.ResolveResult, error) {
	s.ExecuteCallCount++
	s.LastSettings = settings
	s.LastOpts = opts
	return s.Result, s.ExecuteErr
}

// StubVersionsCommand is a stub implementation of commands.Versions.
type StubVersionsCommand struct {
	ExecuteCallCount int
	Reports          []commands.RepositoryVersions
	ExecuteErr       error
	LastOpts         commands.VersionsOptions
}

var _ commands.Versions = (*StubVersionsCommand)(nil)

func (s *StubVersionsCommand) Execute(
	_ context.Context,
	_ *entities.Settings,
	opts commands.VersionsOptions,
) ([]commands.RepositoryVersions, error) {
	s.ExecuteCallCount++
	s.LastOpts = opts
	return s.Reports, s.ExecuteErr
}

// StubRefreshCommand is a stub implementation of commands.Refresh.
type StubRefreshCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	LastOpts         commands.RefreshOptions
}

var _ commands.Refresh = (*StubRefreshCommand)(nil)

func (s *StubRefreshCommand) Execute(
	_ context.Context,
	_ *entities.Settings,
	opts commands.RefreshOptions,
) error {
	s.ExecuteCallCount++
	s.LastOpts = opts
	return s.ExecuteErr
}
