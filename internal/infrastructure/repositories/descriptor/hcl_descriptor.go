package descriptor

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

// DecodeHCL parses an HCL project file:
//
//	artifact "com.acme:app" {
//	  version = "1.0.0"
//	}
//
//	dependency "org.slf4j:slf4j-api" {
//	  version    = "[1.7,2.0)"
//	  scope      = "compile"
//	  exclusions = ["commons-logging:*"]
//	}
func DecodeHCL(content []byte, filePath string) (*entities.DeclaredArtifact, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(content, filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, diags)
	}

	bodyContent, diags := file.Body.Content(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "artifact", LabelNames: []string{"id"}},
			{Type: "dependency", LabelNames: []string{"id"}},
		},
	})
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid project file %s: %w", filePath, diags)
	}

	var doc artifactDocument
	seenArtifact := false
	for _, block := range bodyContent.Blocks {
		attrs, attrDiags := block.Body.JustAttributes()
		if attrDiags.HasErrors() {
			return nil, fmt.Errorf("%s: %w", block.DefRange, attrDiags)
		}

		switch block.Type {
		case "artifact":
			if seenArtifact {
				return nil, fmt.Errorf("%s: only one artifact block is allowed", block.DefRange)
			}
			seenArtifact = true
			id, err := entities.ParseIdentity(block.Labels[0])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", block.DefRange, err)
			}
			doc.Group, doc.Artifact = id.GroupID, id.ArtifactID
			if doc.Version, err = stringAttribute(attrs, "version"); err != nil {
				return nil, err
			}
		case "dependency":
			dep, err := decodeDependencyBlock(block, attrs)
			if err != nil {
				return nil, err
			}
			doc.Dependencies = append(doc.Dependencies, dep)
		}
	}
	if !seenArtifact {
		return nil, fmt.Errorf("%s: missing artifact block", filePath)
	}

	return doc.toEntity()
}

func decodeDependencyBlock(block *hcl.Block, attrs hcl.Attributes) (dependencyDocument, error) {
	dep := dependencyDocument{ID: block.Labels[0]}
	var err error
	if dep.Version, err = stringAttribute(attrs, "version"); err != nil {
		return dep, err
	}
	if dep.Scope, err = stringAttribute(attrs, "scope"); err != nil {
		return dep, err
	}
	if dep.Classifier, err = stringAttribute(attrs, "classifier"); err != nil {
		return dep, err
	}
	if dep.Type, err = stringAttribute(attrs, "type"); err != nil {
		return dep, err
	}
	if dep.Optional, err = boolAttribute(attrs, "optional"); err != nil {
		return dep, err
	}
	if dep.Exclusions, err = stringListAttribute(attrs, "exclusions"); err != nil {
		return dep, err
	}
	return dep, nil
}

func attributeValue(attrs hcl.Attributes, name string) (cty.Value, bool, error) {
	attr, ok := attrs[name]
	if !ok {
		return cty.NilVal, false, nil
	}
	value, diags := attr.Expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() {
		return cty.NilVal, false, fmt.Errorf("%s: %w", attr.Range, diags)
	}
	if value.IsNull() {
		return cty.NilVal, false, nil
	}
	return value, true, nil
}

func stringAttribute(attrs hcl.Attributes, name string) (string, error) {
	value, ok, err := attributeValue(attrs, name)
	if err != nil || !ok {
		return "", err
	}
	if value.Type() != cty.String {
		return "", fmt.Errorf("%s: %s must be a string", attrs[name].Range, name)
	}
	return value.AsString(), nil
}

func boolAttribute(attrs hcl.Attributes, name string) (bool, error) {
	value, ok, err := attributeValue(attrs, name)
	if err != nil || !ok {
		return false, err
	}
	if value.Type() != cty.Bool {
		return false, fmt.Errorf("%s: %s must be a bool", attrs[name].Range, name)
	}
	return value.True(), nil
}

func stringListAttribute(attrs hcl.Attributes, name string) ([]string, error) {
	value, ok, err := attributeValue(attrs, name)
	if err != nil || !ok {
		return nil, err
	}
	if !value.Type().IsTupleType() && !value.Type().IsListType() {
		return nil, fmt.Errorf("%s: %s must be a list of strings", attrs[name].Range, name)
	}
	var out []string
	for it := value.ElementIterator(); it.Next(); {
		_, element := it.Element()
		if element.Type() != cty.String {
			return nil, errors.New(name + " entries must be strings")
		}
		out = append(out, element.AsString())
	}
	return out, nil
}
