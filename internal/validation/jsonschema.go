package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/rendis/remap/pkg/schema"
)

// documentSchemaJSON describes the outer shape of a remapper document: a
// literal, a single-key step, or a pipeline of steps nested to any depth.
// Operator arguments are not constrained here.
const documentSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://remap.dev/schemas/remapper.json",
  "anyOf": [
    { "type": ["null", "boolean", "number", "string"] },
    { "$ref": "#/$defs/step" },
    { "$ref": "#/$defs/pipeline" }
  ],
  "$defs": {
    "step": {
      "type": "object",
      "minProperties": 1,
      "maxProperties": 1,
      "propertyNames": { "minLength": 1 }
    },
    "pipeline": {
      "type": "array",
      "items": {
        "anyOf": [
          { "$ref": "#/$defs/step" },
          { "$ref": "#/$defs/pipeline" }
        ]
      }
    }
  }
}`

const documentSchemaURL = "https://remap.dev/schemas/remapper.json"

// shapeValidator checks documents against the remapper JSON Schema. It is
// safe for concurrent use.
type shapeValidator struct {
	schema *jsonschema.Schema
}

func newShapeValidator() (*shapeValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(documentSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal remapper schema: %w", err)
	}
	if err := c.AddResource(documentSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add remapper schema resource: %w", err)
	}
	compiled, err := c.Compile(documentSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile remapper schema: %w", err)
	}
	return &shapeValidator{schema: compiled}, nil
}

// validate adds one MALFORMED_REMAPPER issue per offending location. anyOf
// reports a failure for every branch, so only the deepest locations are kept.
func (v *shapeValidator) validate(doc any, result *schema.ValidationResult) {
	value, err := toJSONValue(doc)
	if err != nil {
		result.AddError("/", schema.ErrCodeDocument, "document is not JSON-compatible: "+err.Error())
		return
	}
	err = v.schema.Validate(value)
	if err == nil {
		return
	}
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		result.AddError("/", schema.ErrCodeMalformedRemapper, err.Error())
		return
	}
	for _, path := range deepest(collectViolations(verr)) {
		result.AddError(path, schema.ErrCodeMalformedRemapper,
			"remapper must be a literal, an object with exactly one operator or a list of such objects")
	}
}

// deepest returns the sorted violation paths that are not an ancestor of
// another violation path.
func deepest(violations []violation) []string {
	paths := make(map[string]struct{}, len(violations))
	for _, v := range violations {
		paths[v.path] = struct{}{}
	}
	var out []string
	for p := range paths {
		ancestor := false
		for other := range paths {
			if other != p && isAncestor(p, other) {
				ancestor = true
				break
			}
		}
		if !ancestor {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func isAncestor(p, other string) bool {
	if p == "/" {
		return true
	}
	return strings.HasPrefix(other, p+"/")
}

// toJSONValue round-trips a Go value through JSON encoding/decoding so that
// numeric values become json.Number (required by the jsonschema library).
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

type violation struct {
	path    string
	message string
}

// collectViolations walks a ValidationError tree and collects leaf error
// messages with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []violation {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []violation{{path: loc, message: verr.Error()}}
	}

	var out []violation
	for _, cause := range verr.Causes {
		out = append(out, collectViolations(cause)...)
	}
	return out
}
