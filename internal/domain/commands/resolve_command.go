package commands

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/domain/repositories"
)

// Resolve is the interface for the resolve command.
type Resolve interface {
	Execute(ctx context.Context, settings *entities.Settings, opts ResolveOptions) (*ResolveResult, error)
}

// ResolveOptions holds the per-request overrides of the configured defaults.
type ResolveOptions struct {
	ProjectPath  string
	Offline      bool
	Strict       bool                    // Fail on any unresolved non-optional node
	Policy       entities.ConflictPolicy // Empty keeps the configured policy
	Scopes       []entities.Scope
	Exclusions   []entities.Exclusion
	Parts        []entities.PartKind // Added to the configured optional parts
	SkipDownload bool
	Workers      int // Zero keeps the configured worker count
}

// ClasspathEntry is one resolved artifact in classpath order.
type ClasspathEntry struct {
	Coordinate entities.Coordinate
	Scope      entities.Scope
	Repository string
	Path       string
}

// ResolveResult is everything a resolution produced, also when it failed.
type ResolveResult struct {
	SessionID   string
	Project     entities.Coordinate
	Graph       *entities.Graph
	Diagnostics entities.Diagnostics
	Classpath   []ClasspathEntry
}

// ResolveCommand loads a project, resolves its transitive dependencies
// through the repository chain, and materializes their parts locally.
type ResolveCommand struct {
	engines  *Engines
	projects repositories.ProjectRepository
}

// NewResolveCommand creates a new ResolveCommand.
func NewResolveCommand(engines *Engines, projects repositories.ProjectRepository) *ResolveCommand {
	return &ResolveCommand{engines: engines, projects: projects}
}

// Execute resolves the project. The result is returned together with the
// error so callers can still report the diagnostics of a failed run.
func (it *ResolveCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts ResolveOptions,
) (*ResolveResult, error) {
	project, err := it.projects.LoadProject(ctx, opts.ProjectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	eng, err := it.engines.get(settings)
	if err != nil {
		return nil, err
	}

	rc := newResolutionContext(settings, opts)
	log := logger.WithFields(logger.Fields{"session": rc.SessionID, "project": project.Coordinate.String()})
	log.Infof("Resolving %d declared dependencies with %s", len(project.Dependencies), rc.Policy)

	result := &ResolveResult{SessionID: rc.SessionID, Project: project.Coordinate}
	graph, err := eng.resolve(ctx, rc, project, opts.SkipDownload)
	result.Graph = graph
	if graph != nil {
		result.Diagnostics = entities.BuildDiagnostics(graph)
		result.Classpath = buildClasspath(graph, settings.LocalRepository, rc)
	}
	if err != nil {
		log.Warnf("Resolution interrupted: %v", err)
		return result, err
	}

	for _, warning := range result.Diagnostics.Warnings {
		log.Warnf("%s: %v", warning.Identity, warning.Reason)
	}
	for _, unresolved := range result.Diagnostics.Unresolved {
		log.Errorf("%s %s unresolved: %v", unresolved.Identity, unresolved.Range, unresolved.Reason)
	}
	log.Infof("Resolved %d artifact(s), %d unresolved", len(result.Classpath), len(result.Diagnostics.Unresolved))

	switch {
	case result.Diagnostics.HasRootFailure():
		return result, fmt.Errorf("%w: %d unresolved node(s)", entities.ErrRootUnresolved, len(result.Diagnostics.Unresolved))
	case rc.Strict && result.Diagnostics.HasRequiredFailure():
		return result, fmt.Errorf("%w: %d unresolved node(s)", entities.ErrStrictUnresolved, len(result.Diagnostics.Unresolved))
	}
	return result, nil
}

func newResolutionContext(settings *entities.Settings, opts ResolveOptions) entities.ResolutionContext {
	rc := entities.NewResolutionContext(settings)
	rc.Offline = opts.Offline
	rc.Strict = opts.Strict
	rc.Scopes = opts.Scopes
	rc.Exclusions = opts.Exclusions
	if opts.Policy != "" {
		rc.Policy = opts.Policy
	}
	if opts.Workers > 0 {
		rc.Workers = opts.Workers
	}
	for _, kind := range opts.Parts {
		if !containsPart(rc.Parts, kind) {
			rc.Parts = append(rc.Parts, kind)
		}
	}
	return rc
}

// buildClasspath lists one entry per identity in graph order, so nearer
// artifacts come first. The entry carries the widest scope the identity is
// reached through.
func buildClasspath(
	graph *entities.Graph, root string, rc entities.ResolutionContext,
) []ClasspathEntry {
	seen := make(map[entities.ArtifactIdentity]int)
	var entries []ClasspathEntry
	for _, node := range graph.Live() {
		if i, ok := seen[node.Identity()]; ok {
			entries[i].Scope = entities.WidestScope(entries[i].Scope, node.Scope)
			continue
		}
		seen[node.Identity()] = len(entries)

		solution := node.Solution
		spec := rc.PartSpecs(node.Dependency)[0]
		path := entities.LocalPartPath(root, solution.Coordinate, spec)
		if part, ok := solution.Part(entities.PartBinary); ok {
			path = part.LocalPath
		}
		entries = append(entries, ClasspathEntry{
			Coordinate: solution.Coordinate,
			Scope:      node.Scope,
			Repository: solution.Repository,
			Path:       path,
		})
	}
	return entries
}

func containsPart(parts []entities.PartKind, kind entities.PartKind) bool {
	for _, p := range parts {
		if p == kind {
			return true
		}
	}
	return false
}
