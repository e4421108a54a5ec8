// Package conflict reduces a dependency graph to one version per identity.
package conflict

import (
	"sort"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

const maxLivenessRounds = 8

// Outcome summarizes a conflict resolution pass.
type Outcome struct {
	// Repicks are identities whose policy pick fell outside the intersection
	// of all ranges and for which a listed version inside it exists. The
	// graph must be rebuilt with these versions pinned.
	Repicks map[entities.ArtifactIdentity]entities.Version
	// Conflicts counts nodes marked with a range or version conflict.
	Conflicts int
}

// Resolve applies the policy to every identity with more than one live
// node. When allowRepick is false, a pick outside the intersection is kept
// and the violating nodes are flagged instead of asking for a rebuild.
func Resolve(graph *entities.Graph, policy entities.ConflictPolicy, allowRepick bool) Outcome {
	r := &resolver{
		graph:      graph,
		policy:     policy,
		conflicted: make(map[*entities.GraphNode]bool),
	}

	var outcome Outcome
	omitted := make(map[*entities.GraphNode]bool)
	for range maxLivenessRounds {
		r.reset(omitted)
		outcome = r.assign(allowRepick)
		if len(outcome.Repicks) > 0 {
			return outcome
		}
		next := r.liveness()
		if sameSet(next, omitted) {
			break
		}
		omitted = next
	}
	r.applyOmitted(omitted)
	return outcome
}

type resolver struct {
	graph      *entities.Graph
	policy     entities.ConflictPolicy
	conflicted map[*entities.GraphNode]bool
}

// reset undoes the previous round so the next one starts from the built graph.
func (it *resolver) reset(omitted map[*entities.GraphNode]bool) {
	for _, node := range it.graph.Nodes {
		if node.Replaced != nil {
			node.Solution = node.Replaced
			node.Replaced = nil
		}
		if it.conflicted[node] {
			node.Status = entities.StatusResolved
			node.Reason = nil
		}
		node.Winner = nil
		node.Omitted = omitted[node]
	}
	it.conflicted = make(map[*entities.GraphNode]bool)
}

func (it *resolver) assign(allowRepick bool) Outcome {
	outcome := Outcome{Repicks: make(map[entities.ArtifactIdentity]entities.Version)}

	for _, group := range it.groups() {
		intersection := entities.AnyVersion()
		for _, node := range group {
			intersection = intersection.Intersect(node.Dependency.Range)
		}

		winner := it.pickWinner(group, intersection)
		chosen := winner.Solution.Coordinate.Version
		if !intersection.IsEmpty() && !intersection.Contains(chosen) {
			if better, ok := highestCandidate(group, intersection); ok && allowRepick {
				logger.Debugf("[conflict] %s: re-picking %s inside %s", winner.Identity(), better, intersection)
				outcome.Repicks[winner.Identity()] = better
				continue
			}
		}

		for _, node := range group {
			if node == winner {
				continue
			}
			node.Winner = winner
			if !node.Dependency.Range.Contains(chosen) {
				kind := entities.ReasonVersionConflict
				if intersection.IsEmpty() {
					kind = entities.ReasonRangeConflict
				}
				node.Replaced = node.Solution
				node.Solution = nil
				node.Fail(entities.NewReason(kind, "%s requires %s but %s was selected via %s",
					node.Identity(), node.Dependency.Range, chosen, pathString(winner)))
				it.conflicted[node] = true
				outcome.Conflicts++
				continue
			}
			if node.Solution != winner.Solution {
				node.Replaced = node.Solution
				node.Solution = winner.Solution
			}
		}
	}
	return outcome
}

// groups returns the live nodes by identity, identities ordered by their
// first appearance.
func (it *resolver) groups() [][]*entities.GraphNode {
	index := make(map[entities.ArtifactIdentity]int)
	var groups [][]*entities.GraphNode
	for _, node := range it.graph.Nodes[1:] {
		if node.Omitted || node.Shortcut != nil || node.Status != entities.StatusResolved {
			continue
		}
		i, ok := index[node.Identity()]
		if !ok {
			i = len(groups)
			index[node.Identity()] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], node)
	}
	return groups
}

func (it *resolver) pickWinner(
	group []*entities.GraphNode, intersection entities.VersionRange,
) *entities.GraphNode {
	candidates := append([]*entities.GraphNode(nil), group...)
	switch it.policy {
	case entities.PolicyHighestVersionWins:
		inside := candidates[:0:0]
		for _, node := range candidates {
			if intersection.Contains(node.Solution.Coordinate.Version) {
				inside = append(inside, node)
			}
		}
		if len(inside) > 0 {
			candidates = inside
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			if c := compareNodeVersions(candidates[i], candidates[j]); c != 0 {
				return c > 0
			}
			if candidates[i].Depth != candidates[j].Depth {
				return candidates[i].Depth < candidates[j].Depth
			}
			return candidates[i].ID < candidates[j].ID
		})
	default:
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].Depth != candidates[j].Depth {
				return candidates[i].Depth < candidates[j].Depth
			}
			if c := compareNodeVersions(candidates[i], candidates[j]); c != 0 {
				return c > 0
			}
			return candidates[i].ID < candidates[j].ID
		})
	}
	return candidates[0]
}

// liveness returns the nodes that can no longer be reached from the project
// through supporting nodes. A node supports its children when it is
// resolved and still holds the solution its children were expanded for.
// Children of a shared expansion stay alive as long as any node reusing it
// is alive.
func (it *resolver) liveness() map[*entities.GraphNode]bool {
	reusers := make(map[*entities.GraphNode][]*entities.GraphNode)
	for _, node := range it.graph.Nodes {
		if node.ReusedFrom != nil {
			reusers[node.ReusedFrom] = append(reusers[node.ReusedFrom], node)
		}
	}

	omitted := make(map[*entities.GraphNode]bool)
	supports := func(n *entities.GraphNode) bool {
		if n.IsRoot() {
			return true
		}
		return !omitted[n] && n.Status == entities.StatusResolved && n.Replaced == nil
	}

	for changed := true; changed; {
		changed = false
		for _, node := range it.graph.Nodes[1:] {
			if omitted[node] {
				continue
			}
			alive := supports(node.Parent)
			for _, reuser := range reusers[node.Parent] {
				alive = alive || supports(reuser)
			}
			if !alive {
				omitted[node] = true
				changed = true
			}
		}
	}
	return omitted
}

func (it *resolver) applyOmitted(omitted map[*entities.GraphNode]bool) {
	for _, node := range it.graph.Nodes {
		node.Omitted = omitted[node]
	}
}

// highestCandidate returns the greatest listed version of the group that
// lies inside the range.
func highestCandidate(group []*entities.GraphNode, versionRange entities.VersionRange) (entities.Version, bool) {
	var best entities.Version
	found := false
	for _, node := range group {
		for _, v := range node.Candidates {
			if versionRange.Contains(v) && (!found || entities.CompareVersions(v, best) > 0) {
				best, found = v, true
			}
		}
	}
	return best, found
}

func compareNodeVersions(a, b *entities.GraphNode) int {
	return entities.CompareVersions(a.Solution.Coordinate.Version, b.Solution.Coordinate.Version)
}

func pathString(node *entities.GraphNode) string {
	path := node.Path()
	out := ""
	for i, n := range path[1:] {
		if i > 0 {
			out += " -> "
		}
		out += n.String()
	}
	return out
}

func sameSet(a, b map[*entities.GraphNode]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
