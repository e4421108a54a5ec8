// Package graph expands a declared model into the full dependency graph.
//
// Expansion is level by level (breadth first), so a node's depth is the
// length of the shortest path from the project. All nodes of one level are
// resolved concurrently, bounded by the worker count, while the children of
// the level are created sequentially in declaration order. The graph shape
// therefore never depends on goroutine scheduling.
package graph

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rios0rios0/malaclypse/internal/cache"
	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

// Source resolves dependencies and loads the models of resolved artifacts.
// The resolution cache implements it.
type Source interface {
	Resolve(
		ctx context.Context,
		rc entities.ResolutionContext,
		id entities.ArtifactIdentity,
		versionRange entities.VersionRange,
	) (*cache.Resolution, error)
	Model(ctx context.Context, solution *entities.Solution) (*entities.DeclaredArtifact, error)
}

// Pins force the version of identities regardless of the declared ranges.
// The conflict resolver produces them when it re-picks a version.
type Pins map[entities.ArtifactIdentity]entities.Version

// Builder expands declared models into graphs.
type Builder struct {
	source Source
}

// NewBuilder creates a builder over the given source.
func NewBuilder(source Source) *Builder {
	return &Builder{source: source}
}

// expansion carries the per-build state that is only touched by the
// coordinating goroutine.
type expansion struct {
	rc       entities.ResolutionContext
	graph    *entities.Graph
	pins     Pins
	expanded map[string]*entities.GraphNode
}

// Build resolves the project and every transitive dependency. Per-node
// failures are recorded on the nodes; the only error returned is a
// cancellation, together with the partial graph.
func (it *Builder) Build(
	ctx context.Context,
	rc entities.ResolutionContext,
	project *entities.DeclaredArtifact,
	pins Pins,
) (*entities.Graph, error) {
	state := &expansion{
		rc:       rc,
		graph:    entities.NewGraph(project.Coordinate),
		pins:     pins,
		expanded: make(map[string]*entities.GraphNode),
	}
	state.graph.Root.Exclusions = entities.NewExclusionSet(rc.Exclusions...)

	level := state.addChildren(state.graph.Root, project.Dependencies)
	for len(level) > 0 {
		if err := ctx.Err(); err != nil {
			cancelPending(level, err)
			return state.graph, fmt.Errorf("%w: %w", entities.ErrCancelled, err)
		}

		models := it.resolveLevel(ctx, rc, state.pins, level)

		var next []*entities.GraphNode
		for i, node := range level {
			if node.Status != entities.StatusResolved || models[i] == nil {
				continue
			}
			key := node.Solution.Coordinate.Key() + "|" + string(node.Scope) + "|" + node.Exclusions.Key()
			if first, seen := state.expanded[key]; seen {
				node.ReusedFrom = first
				continue
			}
			state.expanded[key] = node
			next = append(next, state.addChildren(node, models[i].Dependencies)...)
		}
		level = next
	}

	if err := ctx.Err(); err != nil {
		return state.graph, fmt.Errorf("%w: %w", entities.ErrCancelled, err)
	}
	logger.Debugf("[graph] Built %d node(s) for %s", len(state.graph.Nodes), project.Coordinate)
	return state.graph, nil
}

// addChildren creates the nodes of the declared dependencies under parent.
// Excluded, out of scope and cyclic dependencies are settled here without
// ever being probed.
func (it *expansion) addChildren(
	parent *entities.GraphNode, dependencies []entities.Dependency,
) []*entities.GraphNode {
	var pending []*entities.GraphNode
	for _, dep := range dependencies {
		// optional dependencies are only honored when the project declares them
		if dep.Optional && !parent.IsRoot() {
			continue
		}

		scope := dep.Scope
		if !parent.IsRoot() {
			propagated, transitive := entities.PropagateScope(parent.Scope, dep.Scope)
			if !transitive {
				continue
			}
			scope = propagated
		}
		if !it.rc.WantsScope(scope) {
			continue
		}

		node := it.graph.Add(&entities.GraphNode{
			Dependency: dep,
			Scope:      scope,
			Status:     entities.StatusPending,
			Parent:     parent,
			Parents:    []*entities.GraphNode{parent},
			Depth:      parent.Depth + 1,
			Exclusions: parent.Exclusions.With(dep.Exclusions...),
		})
		parent.Children = append(parent.Children, node)

		if parent.Exclusions.Excludes(dep.Identity) {
			node.Status = entities.StatusExcludedOut
			continue
		}
		if ancestor := findAncestor(parent, dep.Identity); ancestor != nil {
			node.Shortcut = ancestor
			node.Status = entities.StatusShortcut
			node.Solution = ancestor.Solution
			node.Note(entities.NewReason(entities.ReasonCycleShortcut,
				"%s loops back to %s at depth %d", dep.Identity, ancestor, ancestor.Depth))
			continue
		}
		if dep.Range.IsEmpty() {
			node.Fail(entities.NewReason(entities.ReasonRangeConflict,
				"declared range of %s admits no version", dep.Identity))
			continue
		}
		pending = append(pending, node)
	}
	return pending
}

// resolveLevel resolves every pending node of the level concurrently and
// returns the loaded models by position.
func (it *Builder) resolveLevel(
	ctx context.Context,
	rc entities.ResolutionContext,
	pins Pins,
	level []*entities.GraphNode,
) []*entities.DeclaredArtifact {
	models := make([]*entities.DeclaredArtifact, len(level))

	group := &errgroup.Group{}
	if rc.Workers > 0 {
		group.SetLimit(rc.Workers)
	}
	for i, node := range level {
		node.Status = entities.StatusProbing
		versionRange := node.Dependency.Range
		if pinned, ok := pins[node.Identity()]; ok {
			versionRange = entities.PinnedRange(pinned)
		}
		group.Go(func() error {
			models[i] = it.resolveNode(ctx, rc, node, versionRange)
			return nil
		})
	}
	_ = group.Wait()
	return models
}

func (it *Builder) resolveNode(
	ctx context.Context,
	rc entities.ResolutionContext,
	node *entities.GraphNode,
	versionRange entities.VersionRange,
) *entities.DeclaredArtifact {
	if err := ctx.Err(); err != nil {
		node.Fail(&entities.Reason{Kind: entities.ReasonCancelled, Cause: err})
		return nil
	}

	resolution, err := it.source.Resolve(ctx, rc, node.Identity(), versionRange)
	if err != nil {
		node.Fail(asReason(err))
		return nil
	}
	node.Status = entities.StatusResolved
	node.Solution = resolution.Solution
	if resolution.Listing != nil {
		node.Candidates = resolution.Listing.Versions
	}

	model, err := it.source.Model(ctx, resolution.Solution)
	if err != nil {
		logger.Warnf("[graph] %s resolved without a model, treating it as a leaf: %v", resolution.Solution.Coordinate, err)
		node.Note(&entities.Reason{Kind: entities.ReasonModelUnavailable, Cause: err})
		return &entities.DeclaredArtifact{Coordinate: resolution.Solution.Coordinate}
	}
	return model
}

// findAncestor walks the shortest-path parents looking for the identity.
func findAncestor(from *entities.GraphNode, id entities.ArtifactIdentity) *entities.GraphNode {
	for n := from; n != nil; n = n.Parent {
		if n.Identity() == id {
			return n
		}
	}
	return nil
}

func cancelPending(level []*entities.GraphNode, cause error) {
	for _, node := range level {
		if node.Status == entities.StatusPending || node.Status == entities.StatusProbing {
			node.Fail(&entities.Reason{Kind: entities.ReasonCancelled, Cause: cause})
		}
	}
}

func asReason(err error) *entities.Reason {
	var reason *entities.Reason
	if errors.As(err, &reason) {
		return reason
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &entities.Reason{Kind: entities.ReasonCancelled, Cause: err}
	}
	return &entities.Reason{Kind: entities.ReasonProbeFailure, Cause: err}
}
