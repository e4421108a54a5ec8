package entities

import (
	"path"
	"path/filepath"
)

// RelativeArtifactDir is "<group/path>/<artifactId>" with forward slashes.
func RelativeArtifactDir(id ArtifactIdentity) string {
	return path.Join(id.GroupPath(), id.ArtifactID)
}

// RelativePartPath is the repository layout shared by local caches and
// remote indexes:
// <group/path>/<artifactId>/<version>/<artifactId>-<version>[-<classifier>].<type>.
func RelativePartPath(coordinate Coordinate, spec PartSpec) string {
	return path.Join(
		RelativeArtifactDir(coordinate.Identity),
		coordinate.Version.String(),
		spec.FileName(coordinate),
	)
}

// LocalPartPath places a part under a local repository root.
func LocalPartPath(root string, coordinate Coordinate, spec PartSpec) string {
	return filepath.Join(root, filepath.FromSlash(RelativePartPath(coordinate, spec)))
}
