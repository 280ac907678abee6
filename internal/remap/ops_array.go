package remap

import "strings"

func arrayOperators() []Definition {
	return []Definition{
		{Name: "array.map", Family: "array", Description: "Evaluate a remapper for each element", Run: opArrayMap, Nested: nestedSelf},
		{Name: "array.filter", Family: "array", Description: "Keep elements for which the remapper is truthy", Run: opArrayFilter, Nested: nestedSelf},
		{Name: "array.find", Family: "array", Description: "Return the first element matching the remapper", Run: opArrayFind, Nested: nestedSelf},
		{Name: "array.unique", Family: "array", Description: "Drop elements whose (optionally remapped) value was seen before", Run: opArrayUnique, Nested: nestedSelf},
		{Name: "array.range", Family: "array", Description: "Build the list 0..count-1", Run: opArrayRange, Nested: nestedSelf},
		{Name: "array.contains", Family: "array", Description: "True if an element equals the remapped value", Run: opArrayContains, Nested: nestedSelf},
		{Name: "array.append", Family: "array", Description: "Append remapped values to the input list", Run: opArrayAppend, Nested: nestedList},
		{Name: "array.omit", Family: "array", Description: "Drop elements at the remapped indexes", Run: opArrayOmit, Nested: nestedList},
		{Name: "array.flatten", Family: "array", Description: "Flatten nested lists to a depth", Run: opArrayFlatten, Nested: nestedSelf},
		{Name: "array.from", Family: "array", Description: "Build a list from remappers evaluated against the input", Run: opArrayFrom, Nested: nestedList},
		{Name: "array.join", Family: "array", Description: "Join list elements with a separator", Run: opArrayJoin, Nested: nestedSelf},
	}
}

// eachItem evaluates remapper once per element with that element's array frame.
func eachItem(remapper any, items []any, ctx *Context, fn func(i int, v any) bool) error {
	for i := range items {
		v, err := Evaluate(remapper, items[i], ctx.withArray(newFrame(items, i)))
		if err != nil {
			return err
		}
		if !fn(i, v) {
			return nil
		}
	}
	return nil
}

func opArrayMap(arg, input any, ctx *Context) (any, error) {
	items, ok := input.([]any)
	if !ok {
		return []any{}, nil
	}
	out := make([]any, len(items))
	err := eachItem(arg, items, ctx, func(i int, v any) bool {
		out[i] = v
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func opArrayFilter(arg, input any, ctx *Context) (any, error) {
	items, ok := input.([]any)
	if !ok {
		ctx.logger().Error("array.filter input is not an array", "type", typeName(input))
		return nil, nil
	}
	out := make([]any, 0, len(items))
	err := eachItem(arg, items, ctx, func(i int, v any) bool {
		if truthy(v) {
			out = append(out, items[i])
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// opArrayFind treats a boolean result as the match decision. Any other result
// matches when it equals the element itself.
func opArrayFind(arg, input any, ctx *Context) (any, error) {
	items, ok := input.([]any)
	if !ok {
		return nil, nil
	}
	var found any
	err := eachItem(arg, items, ctx, func(i int, v any) bool {
		match, isBool := v.(bool)
		if !isBool {
			match = Equal(v, items[i])
		}
		if match {
			found = items[i]
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func opArrayUnique(arg, input any, ctx *Context) (any, error) {
	items, ok := input.([]any)
	if !ok {
		return input, nil
	}
	keys := items
	if arg != nil {
		keys = make([]any, len(items))
		err := eachItem(arg, items, ctx, func(i int, v any) bool {
			keys[i] = v
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	out := make([]any, 0, len(items))
	seen := make([]any, 0, len(items))
	for i, item := range items {
		dup := false
		for _, k := range seen {
			if Equal(k, keys[i]) {
				dup = true
				break
			}
		}
		if !dup {
			seen = append(seen, keys[i])
			out = append(out, item)
		}
	}
	return out, nil
}

func opArrayRange(arg, input any, ctx *Context) (any, error) {
	v, err := Evaluate(arg, input, ctx)
	if err != nil {
		return nil, err
	}
	n, ok := toInt(v)
	if !ok || n < 0 {
		return []any{}, nil
	}
	out := make([]any, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out, nil
}

func opArrayContains(arg, input any, ctx *Context) (any, error) {
	items, ok := input.([]any)
	if !ok {
		return false, nil
	}
	want, err := Evaluate(arg, input, ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if Equal(item, want) {
			return true, nil
		}
	}
	return false, nil
}

func opArrayAppend(arg, input any, ctx *Context) (any, error) {
	items, ok := input.([]any)
	if !ok {
		return []any{}, nil
	}
	values, err := evaluateAll(asList(arg), input, ctx)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(items)+len(values))
	out = append(out, items...)
	for _, v := range values {
		if list, isList := v.([]any); isList {
			out = append(out, list...)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func opArrayOmit(arg, input any, ctx *Context) (any, error) {
	items, ok := input.([]any)
	if !ok {
		return input, nil
	}
	values, err := evaluateAll(asList(arg), input, ctx)
	if err != nil {
		return nil, err
	}
	drop := make(map[int]struct{})
	for _, v := range values {
		for _, candidate := range asList(v) {
			if i, ok := toInt(candidate); ok {
				drop[i] = struct{}{}
			}
		}
	}
	out := make([]any, 0, len(items))
	for i, item := range items {
		if _, skip := drop[i]; !skip {
			out = append(out, item)
		}
	}
	return out, nil
}

func opArrayFlatten(arg, input any, ctx *Context) (any, error) {
	items, ok := input.([]any)
	if !ok {
		return input, nil
	}
	v, err := Evaluate(arg, input, ctx)
	if err != nil {
		return nil, err
	}
	depth := -1
	if n, ok := truncInt(v); ok {
		depth = max(n, 0)
	}
	return flattenDepth(items, depth, make([]any, 0, len(items))), nil
}

func flattenDepth(items []any, depth int, dst []any) []any {
	for _, item := range items {
		if nested, ok := item.([]any); ok && depth != 0 {
			dst = flattenDepth(nested, depth-1, dst)
			continue
		}
		dst = append(dst, item)
	}
	return dst
}

func opArrayFrom(arg, input any, ctx *Context) (any, error) {
	values, err := evaluateAll(asList(arg), input, ctx)
	if err != nil {
		return nil, err
	}
	if values == nil {
		return []any{}, nil
	}
	return values, nil
}

func opArrayJoin(arg, input any, ctx *Context) (any, error) {
	items, ok := input.([]any)
	if !ok {
		return input, nil
	}
	sep := ""
	if arg != nil {
		v, err := Evaluate(arg, input, ctx)
		if err != nil {
			return nil, err
		}
		if s, isString := v.(string); isString {
			sep = s
		}
	}
	parts := make([]string, len(items))
	for i, item := range items {
		if item != nil {
			parts[i] = stringify(item)
		}
	}
	return strings.Join(parts, sep), nil
}
