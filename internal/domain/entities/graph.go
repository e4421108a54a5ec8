package entities

import (
	"fmt"
	"strings"
)

// NodeStatus is the lifecycle of a graph node:
// Pending -> Probing -> Resolved | Unresolved | ExcludedOut. A node that
// closes a cycle goes straight to Shortcut and is never probed.
type NodeStatus int

const (
	StatusPending NodeStatus = iota
	StatusProbing
	StatusResolved
	StatusUnresolved
	StatusExcludedOut
	StatusShortcut
)

func (it NodeStatus) String() string {
	switch it {
	case StatusPending:
		return "pending"
	case StatusProbing:
		return "probing"
	case StatusResolved:
		return "resolved"
	case StatusUnresolved:
		return "unresolved"
	case StatusExcludedOut:
		return "excluded"
	case StatusShortcut:
		return "shortcut"
	default:
		return fmt.Sprintf("status(%d)", int(it))
	}
}

// ReasonKind classifies why a node did not resolve cleanly.
type ReasonKind int

const (
	ReasonRangeConflict ReasonKind = iota + 1
	ReasonProbeFailure
	ReasonVersionConflict
	ReasonPartUnavailable
	ReasonCycleShortcut
	ReasonNoMatchingVersion
	ReasonInvalidRange
	ReasonModelUnavailable
	ReasonCancelled
)

var reasonSentinels = map[ReasonKind]error{ //nolint:gochecknoglobals // static lookup table
	ReasonRangeConflict:     ErrRangeConflict,
	ReasonProbeFailure:      ErrProbeFailure,
	ReasonVersionConflict:   ErrVersionConflict,
	ReasonPartUnavailable:   ErrPartUnavailable,
	ReasonCycleShortcut:     ErrCycleShortcut,
	ReasonNoMatchingVersion: ErrNoMatchingVersion,
	ReasonInvalidRange:      ErrInvalidRange,
	ReasonModelUnavailable:  ErrModelUnavailable,
	ReasonCancelled:         ErrCancelled,
}

func (it ReasonKind) String() string {
	if err, ok := reasonSentinels[it]; ok {
		return err.Error()
	}
	return fmt.Sprintf("reason(%d)", int(it))
}

// Reason explains a node failure or an informational event such as a cycle
// shortcut. It implements error and unwraps to the matching sentinel, so
// errors.Is(reason, ErrRangeConflict) works.
type Reason struct {
	Kind         ReasonKind
	Message      string
	Repositories []string // Repositories consulted, in chain order
	Cause        error
}

// NewReason builds a reason with a formatted message.
func NewReason(kind ReasonKind, format string, args ...any) *Reason {
	return &Reason{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (it *Reason) Error() string {
	var sb strings.Builder
	sb.WriteString(it.Kind.String())
	if it.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(it.Message)
	}
	if len(it.Repositories) > 0 {
		sb.WriteString(" (tried ")
		sb.WriteString(strings.Join(it.Repositories, ", "))
		sb.WriteString(")")
	}
	if it.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(it.Cause.Error())
	}
	return sb.String()
}

// Unwrap exposes both the sentinel of the kind and the underlying cause.
func (it *Reason) Unwrap() []error {
	errs := make([]error, 0, 2) //nolint:mnd // sentinel plus cause
	if sentinel, ok := reasonSentinels[it.Kind]; ok {
		errs = append(errs, sentinel)
	}
	if it.Cause != nil {
		errs = append(errs, it.Cause)
	}
	return errs
}

// GraphNode is one occurrence of a dependency in the resolution graph. The
// same identity may appear in several nodes; the conflict resolver picks a
// winner among them.
type GraphNode struct {
	ID         int // Insertion order, stable across runs
	Dependency Dependency
	Scope      Scope // Effective scope after propagation
	Status     NodeStatus
	Solution   *Solution
	Reason     *Reason
	Notes      []*Reason // Informational events and soft failures

	Parent     *GraphNode // Parent on the shortest path
	Parents    []*GraphNode
	Children   []*GraphNode
	Depth      int
	Exclusions ExclusionSet // Exclusions in force below this node

	Shortcut   *GraphNode // Ancestor this node loops back to
	ReusedFrom *GraphNode // Node whose expansion this node shares
	Candidates []Version  // Versions of the listing the node was resolved from

	Winner   *GraphNode // Set when another node won the conflict for this identity
	Replaced *Solution  // Solution held before the conflict resolver replaced it
	Omitted  bool       // Reachable only through losing nodes
}

// Identity is a shortcut for the dependency identity.
func (it *GraphNode) Identity() ArtifactIdentity { return it.Dependency.Identity }

// Coordinate returns the resolved coordinate, if any.
func (it *GraphNode) Coordinate() (Coordinate, bool) {
	if it.Solution == nil {
		return Coordinate{}, false
	}
	return it.Solution.Coordinate, true
}

// IsRoot reports whether the node stands for the project itself.
func (it *GraphNode) IsRoot() bool { return it.Depth == 0 }

// IsLive reports whether the node takes part in the final result.
func (it *GraphNode) IsLive() bool {
	return it.Status == StatusResolved && !it.Omitted && it.Shortcut == nil
}

// Fail marks the node unresolved.
func (it *GraphNode) Fail(reason *Reason) {
	it.Status = StatusUnresolved
	it.Reason = reason
}

// Note records an informational reason.
func (it *GraphNode) Note(reason *Reason) {
	it.Notes = append(it.Notes, reason)
}

// Path returns the nodes from the root down to this node following the
// shortest-path parents.
func (it *GraphNode) Path() []*GraphNode {
	var path []*GraphNode
	for n := it; n != nil; n = n.Parent {
		path = append([]*GraphNode{n}, path...)
	}
	return path
}

func (it *GraphNode) String() string {
	if c, ok := it.Coordinate(); ok {
		return c.String()
	}
	return it.Dependency.String()
}

// Graph is the result of one resolution. Nodes are kept in insertion order,
// the root (the project itself) first.
type Graph struct {
	Root  *GraphNode
	Nodes []*GraphNode
}

// NewGraph creates a graph whose root is already resolved to the project.
func NewGraph(project Coordinate) *Graph {
	root := &GraphNode{
		Dependency: Dependency{Identity: project.Identity, Range: PinnedRange(project.Version), Scope: ScopeCompile},
		Scope:      ScopeCompile,
		Status:     StatusResolved,
		Solution:   &Solution{Coordinate: project},
	}
	return &Graph{Root: root, Nodes: []*GraphNode{root}}
}

// Add appends a node and assigns its insertion order.
func (it *Graph) Add(node *GraphNode) *GraphNode {
	node.ID = len(it.Nodes)
	it.Nodes = append(it.Nodes, node)
	return node
}

// Live returns the resolved, non-omitted nodes, root excluded.
func (it *Graph) Live() []*GraphNode {
	var out []*GraphNode
	for _, n := range it.Nodes[1:] {
		if n.IsLive() {
			out = append(out, n)
		}
	}
	return out
}

// Unresolved returns nodes that failed, root excluded.
func (it *Graph) Unresolved() []*GraphNode {
	var out []*GraphNode
	for _, n := range it.Nodes[1:] {
		if n.Status == StatusUnresolved && !n.Omitted {
			out = append(out, n)
		}
	}
	return out
}

// Find returns the nodes carrying the identity, in insertion order.
func (it *Graph) Find(id ArtifactIdentity) []*GraphNode {
	var out []*GraphNode
	for _, n := range it.Nodes[1:] {
		if n.Identity() == id {
			out = append(out, n)
		}
	}
	return out
}
