package expressions

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rendis/remap/pkg/schema"
)

// CELEngine evaluates Common Expression Language expressions. Every variable
// (input, root, context, array, history) is declared dyn.
type CELEngine struct {
	env   *cel.Env
	cache *programCache[cel.Program]
}

// NewCELEngine creates a new CEL expression engine.
func NewCELEngine() (*CELEngine, error) {
	opts := make([]cel.EnvOption, 0, len(variables)+1)
	for _, name := range variables {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}
	opts = append(opts, cel.CrossTypeNumericComparisons(true))

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	return &CELEngine{env: env, cache: newProgramCache[cel.Program]()}, nil
}

// Name returns the engine identifier.
func (e *CELEngine) Name() string {
	return "cel"
}

// Compile type-checks and caches expression without running it.
func (e *CELEngine) Compile(expression string) error {
	if expression == "" {
		return schema.NewError(schema.ErrCodeExpression, "empty CEL expression")
	}
	_, err := e.cache.getOrCompile(expression, e.compile)
	return err
}

// Evaluate compiles (or retrieves from cache) a CEL expression and evaluates
// it. Missing variables are bound to null.
func (e *CELEngine) Evaluate(_ context.Context, expression string, data map[string]any) (any, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeExpression, "empty CEL expression")
	}
	prg, err := e.cache.getOrCompile(expression, e.compile)
	if err != nil {
		return nil, err
	}

	activation := make(map[string]any, len(variables))
	for _, name := range variables {
		activation[name] = data[name]
	}
	out, _, err := prg.Eval(activation)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeExpression,
			"CEL evaluation failed for %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}
	return nativeValue(out), nil
}

func (e *CELEngine) compile(expression string) (cel.Program, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, schema.NewErrorf(schema.ErrCodeExpression,
			"CEL compile error in %q: %s", expression, issues.Err().Error()).
			WithCause(issues.Err()).
			WithDetails(map[string]any{"expression": expression})
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeExpression,
			"CEL program error for %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}
	return prg, nil
}

var structValueType = reflect.TypeOf(&structpb.Value{})

// nativeValue converts a CEL result to plain JSON-like Go values. CEL lists
// and maps built inside the expression are not Go slices and maps until
// converted.
func nativeValue(v ref.Val) any {
	if native, err := v.ConvertToNative(structValueType); err == nil {
		if pb, ok := native.(*structpb.Value); ok {
			return pb.AsInterface()
		}
	}
	return v.Value()
}

var _ Engine = (*CELEngine)(nil)
