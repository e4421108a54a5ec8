package entities

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Exclusion removes matching artifacts from the subtree below the
// dependency that declares it. Both fields accept glob patterns.
type Exclusion struct {
	GroupID    string
	ArtifactID string

	group    glob.Glob
	artifact glob.Glob
}

// NewExclusion compiles the patterns of an exclusion.
func NewExclusion(group, artifact string) (Exclusion, error) {
	if group == "" {
		group = "*"
	}
	if artifact == "" {
		artifact = "*"
	}
	groupGlob, err := glob.Compile(group)
	if err != nil {
		return Exclusion{}, fmt.Errorf("invalid exclusion group pattern %q: %w", group, err)
	}
	artifactGlob, err := glob.Compile(artifact)
	if err != nil {
		return Exclusion{}, fmt.Errorf("invalid exclusion artifact pattern %q: %w", artifact, err)
	}
	return Exclusion{GroupID: group, ArtifactID: artifact, group: groupGlob, artifact: artifactGlob}, nil
}

// ParseExclusion parses "group:artifact"; a bare group excludes all its artifacts.
func ParseExclusion(raw string) (Exclusion, error) {
	group, artifact, _ := strings.Cut(strings.TrimSpace(raw), ":")
	return NewExclusion(group, artifact)
}

// Matches reports whether the identity falls under the exclusion.
func (it Exclusion) Matches(id ArtifactIdentity) bool {
	if it.group == nil || it.artifact == nil {
		return it.GroupID == id.GroupID && it.ArtifactID == id.ArtifactID
	}
	return it.group.Match(id.GroupID) && it.artifact.Match(id.ArtifactID)
}

func (it Exclusion) String() string {
	return it.GroupID + ":" + it.ArtifactID
}

// ExclusionSet is an immutable, deduplicated set of exclusions. Sets only
// grow along a path in the graph.
type ExclusionSet struct {
	entries []Exclusion
	key     string
}

// NewExclusionSet builds a set from the given exclusions.
func NewExclusionSet(exclusions ...Exclusion) ExclusionSet {
	return ExclusionSet{}.With(exclusions...)
}

// With returns the union of the set and the given exclusions.
func (it ExclusionSet) With(exclusions ...Exclusion) ExclusionSet {
	if len(exclusions) == 0 {
		return it
	}
	seen := make(map[string]struct{}, len(it.entries)+len(exclusions))
	merged := make([]Exclusion, 0, len(it.entries)+len(exclusions))
	for _, e := range append(append([]Exclusion{}, it.entries...), exclusions...) {
		if _, ok := seen[e.String()]; ok {
			continue
		}
		seen[e.String()] = struct{}{}
		merged = append(merged, e)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].String() < merged[j].String() })

	keys := make([]string, len(merged))
	for i, e := range merged {
		keys[i] = e.String()
	}
	return ExclusionSet{entries: merged, key: strings.Join(keys, ",")}
}

// Excludes reports whether any exclusion matches the identity.
func (it ExclusionSet) Excludes(id ArtifactIdentity) bool {
	for _, e := range it.entries {
		if e.Matches(id) {
			return true
		}
	}
	return false
}

// Key identifies the set contents; equal sets share a key.
func (it ExclusionSet) Key() string { return it.key }

// Len returns the number of distinct exclusions.
func (it ExclusionSet) Len() int { return len(it.entries) }

// Entries returns a copy of the exclusions.
func (it ExclusionSet) Entries() []Exclusion {
	return append([]Exclusion(nil), it.entries...)
}
