package remap

import "math"

// mathsError is returned by maths for non-numeric operands and division by
// zero. It cannot be told apart from a genuine -1 result.
const mathsError = -1.0

func logicOperators() []Definition {
	return []Definition{
		{Name: "equals", Family: "logic", Description: "True if all operands equal the first", Run: opEquals, Nested: nestedList},
		{Name: "not", Family: "logic", Description: "Negation of equals; negates a single operand", Run: opNot, Nested: nestedList},
		{Name: "or", Family: "logic", Description: "True if any operand is truthy", Run: opOr, Nested: nestedList},
		{Name: "and", Family: "logic", Description: "True if every operand is truthy", Run: opAnd, Nested: nestedList},
		{Name: "gt", Family: "logic", Description: "True if the left operand is greater than the right", Run: opGt, Nested: nestedList},
		{Name: "lt", Family: "logic", Description: "True if the left operand is less than the right", Run: opLt, Nested: nestedList},
		{Name: "defined", Family: "logic", Description: "True if the operand is not null", Run: opDefined, Nested: nestedSelf},
		{Name: "maths", Family: "logic", Description: "add, subtract, multiply, divide or mod two numbers", Run: opMaths, Nested: nestedFields("a", "b")},
		{Name: "if", Family: "logic", Description: "Evaluate then or else depending on condition", Run: opIf, Nested: nestedFields("condition", "then", "else")},
		{Name: "match", Family: "logic", Description: "Evaluate the value of the first case that is truthy", Run: opMatch, Nested: nestedMatch},
		{Name: "null.strip", Family: "logic", Description: "Remove null values from the input recursively", Run: opNullStrip},
	}
}

func evaluateAll(remappers []any, input any, ctx *Context) ([]any, error) {
	out := make([]any, len(remappers))
	for i, r := range remappers {
		v, err := Evaluate(r, input, ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func allEqual(values []any) bool {
	for _, v := range values[1:] {
		if !Equal(values[0], v) {
			return false
		}
	}
	return true
}

func opEquals(arg, input any, ctx *Context) (any, error) {
	operands := asList(arg)
	if len(operands) < 2 {
		return true, nil
	}
	values, err := evaluateAll(operands, input, ctx)
	if err != nil {
		return nil, err
	}
	return allEqual(values), nil
}

func opNot(arg, input any, ctx *Context) (any, error) {
	operands := asList(arg)
	if len(operands) == 0 {
		return true, nil
	}
	values, err := evaluateAll(operands, input, ctx)
	if err != nil {
		return nil, err
	}
	if len(values) == 1 {
		return !truthy(values[0]), nil
	}
	return !allEqual(values), nil
}

func opOr(arg, input any, ctx *Context) (any, error) {
	operands := asList(arg)
	if len(operands) == 0 {
		return true, nil
	}
	values, err := evaluateAll(operands, input, ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		if truthy(v) {
			return true, nil
		}
	}
	return false, nil
}

func opAnd(arg, input any, ctx *Context) (any, error) {
	values, err := evaluateAll(asList(arg), input, ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		if !truthy(v) {
			return false, nil
		}
	}
	return true, nil
}

func evaluatePair(arg, input any, ctx *Context) (any, any, error) {
	operands := asList(arg)
	var left, right any
	var err error
	if len(operands) > 0 {
		if left, err = Evaluate(operands[0], input, ctx); err != nil {
			return nil, nil, err
		}
	}
	if len(operands) > 1 {
		if right, err = Evaluate(operands[1], input, ctx); err != nil {
			return nil, nil, err
		}
	}
	return left, right, nil
}

func opGt(arg, input any, ctx *Context) (any, error) {
	left, right, err := evaluatePair(arg, input, ctx)
	if err != nil {
		return nil, err
	}
	c, ok := compare(left, right)
	return ok && c > 0, nil
}

func opLt(arg, input any, ctx *Context) (any, error) {
	left, right, err := evaluatePair(arg, input, ctx)
	if err != nil {
		return nil, err
	}
	c, ok := compare(left, right)
	return ok && c < 0, nil
}

func opDefined(arg, input any, ctx *Context) (any, error) {
	v, err := Evaluate(arg, input, ctx)
	if err != nil {
		return nil, err
	}
	return v != nil, nil
}

func opMaths(arg, input any, ctx *Context) (any, error) {
	m, _ := arg.(map[string]any)
	a, err := Evaluate(m["a"], input, ctx)
	if err != nil {
		return nil, err
	}
	b, err := Evaluate(m["b"], input, ctx)
	if err != nil {
		return nil, err
	}

	x, okA := toNumber(a)
	y, okB := toNumber(b)
	if !okA || !okB {
		return mathsError, nil
	}

	op, _ := m["operation"].(string)
	switch op {
	case "add":
		return x + y, nil
	case "subtract":
		return x - y, nil
	case "multiply":
		return x * y, nil
	case "divide":
		if y == 0 {
			return mathsError, nil
		}
		return x / y, nil
	case "mod":
		if y == 0 {
			return mathsError, nil
		}
		return math.Mod(x, y), nil
	}
	return mathsError, nil
}

func opIf(arg, input any, ctx *Context) (any, error) {
	m, _ := arg.(map[string]any)
	cond, err := Evaluate(m["condition"], input, ctx)
	if err != nil {
		return nil, err
	}
	if truthy(cond) {
		return Evaluate(m["then"], input, ctx)
	}
	return Evaluate(m["else"], input, ctx)
}

func opMatch(arg, input any, ctx *Context) (any, error) {
	for _, c := range asList(arg) {
		m, ok := c.(map[string]any)
		if !ok {
			continue
		}
		cond, err := Evaluate(m["case"], input, ctx)
		if err != nil {
			return nil, err
		}
		if truthy(cond) {
			return Evaluate(m["value"], input, ctx)
		}
	}
	return nil, nil
}

func nestedMatch(arg any) []Nested {
	var out []Nested
	for _, n := range nestedList(arg) {
		for _, f := range nestedFields("case", "value")(n.Remapper) {
			out = append(out, Nested{Path: n.Path + "/" + f.Path, Remapper: f.Remapper})
		}
	}
	return out
}

func opNullStrip(arg, input any, _ *Context) (any, error) {
	depth := -1
	if m, ok := arg.(map[string]any); ok {
		if d, ok := toInt(m["depth"]); ok && d >= 0 {
			depth = d
		}
	}
	return stripNulls(input, depth), nil
}

func stripNulls(v any, depth int) any {
	if depth == 0 {
		return v
	}
	switch val := v.(type) {
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			if item != nil {
				out = append(out, stripNulls(item, depth-1))
			}
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if item != nil {
				out[k] = stripNulls(item, depth-1)
			}
		}
		return out
	}
	return v
}
