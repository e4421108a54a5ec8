package entities

import (
	"fmt"

	"github.com/opencontainers/go-digest"
)

// PartKind is the role of a physical file of an artifact.
type PartKind string

const (
	PartBinary     PartKind = "binary"
	PartSources    PartKind = "sources"
	PartJavadoc    PartKind = "javadoc"
	PartDescriptor PartKind = "descriptor"
)

// ParsePartKind validates a part kind name.
func ParsePartKind(raw string) (PartKind, error) {
	switch PartKind(raw) {
	case PartBinary, PartSources, PartJavadoc, PartDescriptor:
		return PartKind(raw), nil
	default:
		return "", fmt.Errorf("unknown part kind %q", raw)
	}
}

// PartSpec locates a part relative to a coordinate.
type PartSpec struct {
	Kind       PartKind
	Classifier string
	Type       string
}

// DescriptorSpec is the metadata part every artifact carries.
func DescriptorSpec() PartSpec {
	return PartSpec{Kind: PartDescriptor, Type: "pom"}
}

// SourcesSpec is the optional sources archive.
func SourcesSpec() PartSpec {
	return PartSpec{Kind: PartSources, Classifier: "sources", Type: defaultArtifactType}
}

// JavadocSpec is the optional documentation archive.
func JavadocSpec() PartSpec {
	return PartSpec{Kind: PartJavadoc, Classifier: "javadoc", Type: defaultArtifactType}
}

// SpecFor returns the spec of an optional part kind.
func SpecFor(kind PartKind) (PartSpec, bool) {
	switch kind {
	case PartSources:
		return SourcesSpec(), true
	case PartJavadoc:
		return JavadocSpec(), true
	case PartDescriptor:
		return DescriptorSpec(), true
	case PartBinary:
	}
	return PartSpec{}, false
}

// Required reports whether a missing part makes the node unusable.
func (it PartSpec) Required() bool {
	return it.Kind == PartBinary || it.Kind == PartDescriptor
}

// FileName is "<artifactId>-<version>[-<classifier>].<type>".
func (it PartSpec) FileName(coordinate Coordinate) string {
	name := coordinate.Identity.ArtifactID + "-" + coordinate.Version.String()
	if it.Classifier != "" {
		name += "-" + it.Classifier
	}
	return name + "." + it.Type
}

// Part is a physical file of a resolved artifact.
type Part struct {
	Spec       PartSpec
	Checksum   digest.Digest // Empty when the repository supplies none
	LocalPath  string        // Empty until materialized
	Repository string
}

// Solution is the outcome of resolving a coordinate. It is created once and
// never mutated; materializing parts produces a new Solution.
type Solution struct {
	Coordinate Coordinate
	Repository string
	Parts      []Part
	Generation uint64
}

// WithParts returns a copy carrying the given parts under a new generation.
func (it *Solution) WithParts(parts []Part, generation uint64) *Solution {
	return &Solution{
		Coordinate: it.Coordinate,
		Repository: it.Repository,
		Parts:      append([]Part(nil), parts...),
		Generation: generation,
	}
}

// Part returns the part of the given kind.
func (it *Solution) Part(kind PartKind) (Part, bool) {
	for _, p := range it.Parts {
		if p.Spec.Kind == kind {
			return p, true
		}
	}
	return Part{}, false
}
