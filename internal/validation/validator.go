package validation

import "github.com/rendis/remap/pkg/schema"

// Validator checks remapper documents before evaluation.
type Validator interface {
	Validate(doc any) *schema.ValidationResult
}
