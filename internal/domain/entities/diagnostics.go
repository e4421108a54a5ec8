package entities

import (
	"errors"
	"sort"
)

// Diagnostic reports one node that failed or produced a warning, with the
// chain of artifacts that led to it.
type Diagnostic struct {
	Identity ArtifactIdentity
	Range    VersionRange
	Reason   *Reason
	Path     []string
	Optional bool
}

// Diagnostics is the failure report of a resolution.
type Diagnostics struct {
	Unresolved []Diagnostic
	Warnings   []Diagnostic
}

// BuildDiagnostics collects unresolved nodes and soft failures from the
// graph in a deterministic order: by identity, then by insertion order.
func BuildDiagnostics(graph *Graph) Diagnostics {
	var out Diagnostics
	for _, node := range graph.Nodes[1:] {
		if node.Omitted {
			continue
		}
		if node.Status == StatusUnresolved {
			out.Unresolved = append(out.Unresolved, newDiagnostic(node, node.Reason))
		}
		for _, note := range node.Notes {
			if note.Kind == ReasonCycleShortcut {
				continue
			}
			out.Warnings = append(out.Warnings, newDiagnostic(node, note))
		}
	}
	sortDiagnostics(out.Unresolved)
	sortDiagnostics(out.Warnings)
	return out
}

// HasRootFailure reports whether a direct dependency of the project failed.
func (it Diagnostics) HasRootFailure() bool {
	for _, d := range it.Unresolved {
		if len(d.Path) == 2 && !d.Optional { //nolint:mnd // project plus the direct dependency
			return true
		}
	}
	return false
}

// HasRequiredFailure reports whether any non-optional node failed.
func (it Diagnostics) HasRequiredFailure() bool {
	for _, d := range it.Unresolved {
		if !d.Optional {
			return true
		}
	}
	return false
}

// Count returns how many unresolved nodes match the sentinel.
func (it Diagnostics) Count(target error) int {
	count := 0
	for _, d := range it.Unresolved {
		if d.Reason != nil && errors.Is(d.Reason, target) {
			count++
		}
	}
	return count
}

func newDiagnostic(node *GraphNode, reason *Reason) Diagnostic {
	path := node.Path()
	names := make([]string, len(path))
	for i, n := range path {
		names[i] = n.String()
	}
	return Diagnostic{
		Identity: node.Identity(),
		Range:    node.Dependency.Range,
		Reason:   reason,
		Path:     names,
		Optional: node.Dependency.Optional,
	}
}

func sortDiagnostics(items []Diagnostic) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Identity.String() < items[j].Identity.String()
	})
}
