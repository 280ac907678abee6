package remap

import (
	"sort"
	"strings"

	"github.com/rendis/remap/pkg/schema"
)

// Evaluate applies a remapper document to input.
//
// A literal document (string, number, boolean, nil) evaluates to itself. A
// mapping with a single operator name is one step. A list is a pipeline: it is
// flattened to any depth and its steps run left to right, each step's output
// feeding the next. An empty pipeline returns input unchanged.
//
// Evaluate returns an *schema.Error with code MALFORMED_REMAPPER when a step
// does not have exactly one key and UNKNOWN_OPERATOR when a step names an
// operator that does not exist. The ics operator may also fail with
// EVENT_ERROR. All other anomalies degrade inside the operators.
func Evaluate(remapper, input any, ctx *Context) (any, error) {
	if ctx == nil {
		ctx = &Context{}
	}
	if isLiteral(remapper) {
		return remapper, nil
	}

	steps := flatten(remapper, nil)
	if len(steps) == 0 {
		return input, nil
	}

	stepCtx := ctx.withRoot(input)
	result := input
	for _, step := range steps {
		name, arg, err := splitStep(step)
		if err != nil {
			return nil, err
		}
		def, ok := registry[name]
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeUnknownOperator, "remapper %q doesn't exist", name).
				WithDetails(map[string]any{"operator": name})
		}
		result, err = def.Run(arg, result, stepCtx)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// isLiteral reports whether a document is neither a mapping nor a list.
func isLiteral(remapper any) bool {
	switch remapper.(type) {
	case map[string]any, []any:
		return false
	}
	return true
}

// flatten appends the steps of a possibly nested pipeline to dst.
func flatten(remapper any, dst []any) []any {
	list, ok := remapper.([]any)
	if !ok {
		return append(dst, remapper)
	}
	for _, item := range list {
		dst = flatten(item, dst)
	}
	return dst
}

func splitStep(step any) (string, any, error) {
	m, ok := step.(map[string]any)
	if !ok {
		return "", nil, schema.NewErrorf(schema.ErrCodeMalformedRemapper,
			"remapper step must be an object with one key, got %s", typeName(step))
	}
	if len(m) != 1 {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", nil, schema.NewErrorf(schema.ErrCodeMalformedRemapper,
			"remapper has %d keys: %s", len(m), strings.Join(keys, ", ")).
			WithDetails(map[string]any{"keys": keys})
	}
	for name, arg := range m {
		return name, arg, nil
	}
	return "", nil, nil
}
