package remap

import (
	"context"
	"sync"

	"github.com/rendis/remap/internal/expressions"
	"github.com/rendis/remap/pkg/schema"
)

var (
	jqEngine   = expressions.NewGoJQEngine()
	exprEngine = expressions.NewExprEngine()

	celOnce   sync.Once
	celEngine expressions.Engine
	celErr    error
)

func expressionOperators() []Definition {
	return []Definition{
		{Name: "jq", Family: "expression", Description: "Run a jq program on the input", Run: expressionOperator(loadJQ), Check: checkExpression(loadJQ)},
		{Name: "expr", Family: "expression", Description: "Evaluate an expr-lang expression", Run: expressionOperator(loadExpr), Check: checkExpression(loadExpr)},
		{Name: "cel", Family: "expression", Description: "Evaluate a CEL expression", Run: expressionOperator(loadCEL), Check: checkExpression(loadCEL)},
	}
}

func loadJQ() (expressions.Engine, error)   { return jqEngine, nil }
func loadExpr() (expressions.Engine, error) { return exprEngine, nil }

func loadCEL() (expressions.Engine, error) {
	celOnce.Do(func() {
		celEngine, celErr = expressions.NewCELEngine()
	})
	return celEngine, celErr
}

// expressionOperator adapts an engine to an operator. The argument is the
// expression source. Failures are logged and yield nil.
func expressionOperator(engine func() (expressions.Engine, error)) Operator {
	return func(arg, input any, ctx *Context) (any, error) {
		source, _ := arg.(string)
		e, err := engine()
		if err != nil {
			ctx.logger().Error("expression engine is unavailable", "error", err)
			return nil, nil
		}
		out, err := e.Evaluate(context.Background(), source, expressionData(input, ctx))
		if err != nil {
			ctx.logger().Warn("expression failed", "engine", e.Name(), "expression", source, "error", err)
			return nil, nil
		}
		return schema.Normalize(out), nil
	}
}

func checkExpression(engine func() (expressions.Engine, error)) func(arg any) error {
	return func(arg any) error {
		source, ok := arg.(string)
		if !ok {
			return schema.NewErrorf(schema.ErrCodeExpression, "expression must be a string, got %s", typeName(arg))
		}
		e, err := engine()
		if err != nil {
			return err
		}
		return e.Compile(source)
	}
}

func expressionData(input any, ctx *Context) map[string]any {
	var array any
	if f := ctx.Array(); f != nil {
		array = map[string]any{
			"index":    float64(f.Index),
			"length":   float64(f.Length),
			"item":     f.Item,
			"prevItem": f.PrevItem,
			"nextItem": f.NextItem,
		}
	}
	history := make([]any, len(ctx.History))
	copy(history, ctx.History)
	return map[string]any{
		expressions.VarInput:   input,
		expressions.VarRoot:    ctx.Root(),
		expressions.VarContext: ctx.Context,
		expressions.VarArray:   array,
		expressions.VarHistory: history,
	}
}
