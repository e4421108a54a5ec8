package entities

const defaultArtifactType = "jar"

// Dependency is a declared edge of the model: who is needed, in which
// version range, on which classpath, and which transitive artifacts to cut.
type Dependency struct {
	Identity   ArtifactIdentity
	Range      VersionRange
	Scope      Scope
	Classifier string // Optional classifier of the binary part
	Type       string // Packaging of the binary part, "jar" when empty
	Exclusions []Exclusion
	Optional   bool
}

// BinarySpec describes the binary part this dependency asks for.
func (it Dependency) BinarySpec() PartSpec {
	kind := it.Type
	if kind == "" {
		kind = defaultArtifactType
	}
	return PartSpec{Kind: PartBinary, Classifier: it.Classifier, Type: kind}
}

func (it Dependency) String() string {
	return it.Identity.String() + ":" + it.Range.String()
}

// DeclaredArtifact is the pre-parsed model of one artifact: its coordinate
// and its direct dependencies in declaration order.
type DeclaredArtifact struct {
	Coordinate   Coordinate
	Dependencies []Dependency
}
