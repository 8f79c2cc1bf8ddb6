package document

//go:generate go run ../../scripts/gen-schema.go ../../jsonschema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

const schemaBaseURL = "https://github.com/ormasoftchile/mcpstd/schemas/"

func reflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		// Documents routinely carry keys the validator does not interpret.
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
}

// GenerateJSONSchema produces the JSON Schema (Draft 2020-12) describing the
// container shape of a schema or context document. The schema never requires
// a field; presence rules belong to the validators.
func GenerateJSONSchema(kind Kind) ([]byte, error) {
	r := reflector()

	var s *jsonschema.Schema
	switch kind {
	case KindSchema:
		s = r.Reflect(&SchemaDocument{})
		s.Title = "mcpstd schema document"
		s.Description = "Shape of YAML files under schemas/"
	case KindContext:
		s = r.Reflect(&ContextDocument{})
		s.Title = "mcpstd context document"
		s.Description = "Shape of YAML files under contexts/"
	default:
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}
	s.ID = jsonschema.ID(schemaBaseURL + string(kind) + "-document.json")

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s schema: %w", kind, err)
	}
	return data, nil
}

// ParseKind accepts "schema" or "context".
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindSchema, KindContext:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown document kind %q (want schema or context)", s)
}
