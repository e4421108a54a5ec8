package entities

import (
	"fmt"
	"strings"
)

// ArtifactIdentity names an artifact independently of its version.
type ArtifactIdentity struct {
	GroupID    string `yaml:"group"`
	ArtifactID string `yaml:"artifact"`
}

// ParseIdentity parses "group:artifact".
func ParseIdentity(raw string) (ArtifactIdentity, error) {
	group, artifact, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || group == "" || artifact == "" || strings.Contains(artifact, ":") {
		return ArtifactIdentity{}, fmt.Errorf("invalid artifact identity %q, expected group:artifact", raw)
	}
	return ArtifactIdentity{GroupID: group, ArtifactID: artifact}, nil
}

func (it ArtifactIdentity) String() string {
	return it.GroupID + ":" + it.ArtifactID
}

// GroupPath turns the dotted group into a slash separated path.
func (it ArtifactIdentity) GroupPath() string {
	return strings.ReplaceAll(it.GroupID, ".", "/")
}

// Coordinate is an identity at a concrete version.
type Coordinate struct {
	Identity ArtifactIdentity
	Version  Version
}

// NewCoordinate builds a coordinate from its textual parts.
func NewCoordinate(group, artifact, version string) Coordinate {
	return Coordinate{
		Identity: ArtifactIdentity{GroupID: group, ArtifactID: artifact},
		Version:  ParseVersion(version),
	}
}

// ParseCoordinate parses "group:artifact:version".
func ParseCoordinate(raw string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q, expected group:artifact:version", raw)
	}
	return NewCoordinate(parts[0], parts[1], parts[2]), nil
}

func (it Coordinate) String() string {
	return it.Identity.String() + ":" + it.Version.String()
}

// Key is a canonical map key; "1.5" and "1.5.0" share it.
func (it Coordinate) Key() string {
	return it.Identity.String() + ":" + it.Version.Canonical()
}
