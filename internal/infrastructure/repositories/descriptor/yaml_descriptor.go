package descriptor

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

// artifactDocument is the on-disk shape of an artifact descriptor and of a
// YAML project file.
type artifactDocument struct {
	Group        string               `yaml:"group"`
	Artifact     string               `yaml:"artifact"`
	Version      string               `yaml:"version"`
	Dependencies []dependencyDocument `yaml:"dependencies,omitempty"`
}

type dependencyDocument struct {
	ID         string   `yaml:"id,omitempty"` // group:artifact, alternative to group + artifact
	Group      string   `yaml:"group,omitempty"`
	Artifact   string   `yaml:"artifact,omitempty"`
	Version    string   `yaml:"version,omitempty"`
	Scope      string   `yaml:"scope,omitempty"`
	Classifier string   `yaml:"classifier,omitempty"`
	Type       string   `yaml:"type,omitempty"`
	Optional   bool     `yaml:"optional,omitempty"`
	Exclusions []string `yaml:"exclusions,omitempty"`
}

// DecodeYAML parses a YAML descriptor.
func DecodeYAML(data []byte) (*entities.DeclaredArtifact, error) {
	var doc artifactDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor: %w", err)
	}
	return doc.toEntity()
}

// EncodeYAML renders a declared artifact in the descriptor format.
func EncodeYAML(artifact *entities.DeclaredArtifact) ([]byte, error) {
	doc := artifactDocument{
		Group:    artifact.Coordinate.Identity.GroupID,
		Artifact: artifact.Coordinate.Identity.ArtifactID,
		Version:  artifact.Coordinate.Version.String(),
	}
	for _, d := range artifact.Dependencies {
		dep := dependencyDocument{
			ID:         d.Identity.String(),
			Classifier: d.Classifier,
			Type:       d.Type,
			Optional:   d.Optional,
		}
		if !d.Range.IsAny() {
			dep.Version = d.Range.String()
		}
		if d.Scope != entities.ScopeCompile {
			dep.Scope = string(d.Scope)
		}
		for _, e := range d.Exclusions {
			dep.Exclusions = append(dep.Exclusions, e.String())
		}
		doc.Dependencies = append(doc.Dependencies, dep)
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render descriptor: %w", err)
	}
	return data, nil
}

func (it artifactDocument) toEntity() (*entities.DeclaredArtifact, error) {
	if it.Group == "" || it.Artifact == "" {
		return nil, errors.New("descriptor must declare group and artifact")
	}
	artifact := &entities.DeclaredArtifact{
		Coordinate: entities.NewCoordinate(it.Group, it.Artifact, it.Version),
	}
	for i, d := range it.Dependencies {
		dep, err := d.toEntity()
		if err != nil {
			return nil, fmt.Errorf("dependencies[%d]: %w", i, err)
		}
		artifact.Dependencies = append(artifact.Dependencies, dep)
	}
	return artifact, nil
}

func (it dependencyDocument) toEntity() (entities.Dependency, error) {
	id := entities.ArtifactIdentity{GroupID: it.Group, ArtifactID: it.Artifact}
	if it.ID != "" {
		parsed, err := entities.ParseIdentity(it.ID)
		if err != nil {
			return entities.Dependency{}, err
		}
		id = parsed
	}
	if id.GroupID == "" || id.ArtifactID == "" {
		return entities.Dependency{}, errors.New("dependency must declare id or group and artifact")
	}

	versionRange, err := entities.ParseRange(it.Version)
	if err != nil {
		return entities.Dependency{}, err
	}
	scope, err := entities.ParseScope(strings.TrimSpace(it.Scope))
	if err != nil {
		return entities.Dependency{}, err
	}

	dep := entities.Dependency{
		Identity:   id,
		Range:      versionRange,
		Scope:      scope,
		Classifier: it.Classifier,
		Type:       it.Type,
		Optional:   it.Optional,
	}
	for _, raw := range it.Exclusions {
		exclusion, exclErr := entities.ParseExclusion(raw)
		if exclErr != nil {
			return entities.Dependency{}, exclErr
		}
		dep.Exclusions = append(dep.Exclusions, exclusion)
	}
	return dep, nil
}
