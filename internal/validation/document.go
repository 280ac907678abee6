package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rendis/remap/internal/remap"
	"github.com/rendis/remap/pkg/schema"
)

// DefaultMaxDepth bounds operator nesting when no limit is configured.
const DefaultMaxDepth = 64

// Options configures document validation.
type Options struct {
	// MaxDepth is the deepest allowed chain of nested operators. Zero means
	// unlimited.
	MaxDepth int
}

// DocumentValidator runs the two validation stages:
// 1. Shape (JSON Schema of the outer document)
// 2. Operators (names, nested remappers, depth, argument checks)
type DocumentValidator struct {
	shape *shapeValidator
	opts  Options
}

// NewDocumentValidator creates a DocumentValidator.
func NewDocumentValidator(opts Options) (*DocumentValidator, error) {
	shape, err := newShapeValidator()
	if err != nil {
		return nil, err
	}
	return &DocumentValidator{shape: shape, opts: opts}, nil
}

// Validate checks doc and returns every issue found. Shape errors
// short-circuit: the operator stage is skipped.
func (v *DocumentValidator) Validate(doc any) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	v.shape.validate(doc, result)
	if !result.Valid() {
		return result
	}
	w := walker{maxDepth: v.opts.MaxDepth, result: result}
	w.remapper(doc, "", 0)
	return result
}

// ValidateDocument validates doc with a freshly built validator.
func ValidateDocument(doc any, opts Options) (*schema.ValidationResult, error) {
	v, err := NewDocumentValidator(opts)
	if err != nil {
		return nil, err
	}
	return v.Validate(doc), nil
}

type walker struct {
	maxDepth int
	result   *schema.ValidationResult
}

// remapper walks one remapper found at path. depth counts the operators
// entered so far; pipelines do not add to it.
func (w *walker) remapper(doc any, path string, depth int) {
	switch v := doc.(type) {
	case []any:
		for i, item := range v {
			w.step(item, path+"/"+strconv.Itoa(i), depth)
		}
	case map[string]any:
		w.step(v, path, depth)
	}
}

func (w *walker) step(step any, path string, depth int) {
	switch v := step.(type) {
	case []any:
		w.remapper(v, path, depth)
		return
	case map[string]any:
		if len(v) != 1 {
			w.result.AddError(pointer(path), schema.ErrCodeMalformedRemapper,
				fmt.Sprintf("remapper step must have exactly one key, got %d", len(v)))
			return
		}
	default:
		w.result.AddError(pointer(path), schema.ErrCodeMalformedRemapper,
			fmt.Sprintf("remapper step must be an object with one key, got %T", step))
		return
	}

	for name, arg := range step.(map[string]any) {
		opPath := path + "/" + escape(name)
		def, ok := remap.Lookup(name)
		if !ok {
			w.result.AddError(opPath, schema.ErrCodeUnknownOperator,
				fmt.Sprintf("remapper %q doesn't exist", name))
			return
		}
		depth++
		if w.maxDepth > 0 && depth > w.maxDepth {
			w.result.AddError(opPath, schema.ErrCodeMaxDepth,
				fmt.Sprintf("operators nest deeper than %d", w.maxDepth))
			return
		}
		if def.Check != nil {
			if err := def.Check(arg); err != nil {
				w.result.AddWarning(opPath, checkCode(err), err.Error())
			}
		}
		if def.Nested == nil {
			return
		}
		for _, nested := range def.Nested(arg) {
			nestedPath := opPath
			if nested.Path != "" {
				nestedPath += "/" + nested.Path
			}
			w.remapper(nested.Remapper, nestedPath, depth)
		}
	}
}

func checkCode(err error) string {
	var serr *schema.Error
	if errors.As(err, &serr) {
		return serr.Code
	}
	return schema.ErrCodeValidation
}

func pointer(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

func escape(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}
