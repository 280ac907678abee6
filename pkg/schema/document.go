package schema

import (
	"bytes"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// ParseDocument decodes a remapper document, an input value or a context file.
// YAML is accepted as well as JSON (JSON being a subset of YAML). Numbers are
// normalized to float64 and mapping keys to strings, so decoded values have the
// same shape as values produced by encoding/json.
func ParseDocument(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, NewError(ErrCodeDocument, "cannot decode document").WithCause(err)
	}
	return Normalize(doc), nil
}

// Normalize converts decoder-specific Go values into the generic value model:
// nil, bool, float64, string, []any and map[string]any.
func Normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	default:
		return v
	}
}
