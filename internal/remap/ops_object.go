package remap

func objectOperators() []Definition {
	return []Definition{
		{Name: "object.from", Family: "object", Description: "Build an object from named remappers", Run: opObjectFrom, Nested: nestedMap},
		{Name: "object.assign", Family: "object", Description: "Merge named remappers into the input object", Run: opObjectAssign, Nested: nestedMap},
		{Name: "object.omit", Family: "object", Description: "Remove keys or key paths from the input object", Run: opObjectOmit},
		{Name: "object.explode", Family: "object", Description: "Produce one object per element of a list property", Run: opObjectExplode},
		{Name: "object.compare", Family: "object", Description: "Diff two objects into added, removed and changed records", Run: opObjectCompare, Nested: nestedList},
	}
}

func evaluateProps(arg, input any, ctx *Context) (map[string]any, error) {
	props, _ := arg.(map[string]any)
	out := make(map[string]any, len(props))
	for k, remapper := range props {
		v, err := Evaluate(remapper, input, ctx)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func opObjectFrom(arg, input any, ctx *Context) (any, error) {
	return evaluateProps(arg, input, ctx)
}

func opObjectAssign(arg, input any, ctx *Context) (any, error) {
	props, err := evaluateProps(arg, input, ctx)
	if err != nil {
		return nil, err
	}
	base, _ := input.(map[string]any)
	out := copyMap(base)
	for k, v := range props {
		out[k] = v
	}
	return out, nil
}

func opObjectOmit(arg, input any, _ *Context) (any, error) {
	m, ok := input.(map[string]any)
	if !ok {
		return input, nil
	}
	return omitKeys(m, asList(arg)), nil
}

// omitKeys removes keys from a copy of m. A key given as a list is a path:
// intermediate objects are copied and only the final segment is removed.
func omitKeys(m map[string]any, keys []any) map[string]any {
	out := copyMap(m)
	for _, key := range keys {
		switch k := key.(type) {
		case string:
			delete(out, k)
		case []any:
			path := make([]string, 0, len(k))
			for _, segment := range k {
				path = append(path, stringify(segment))
			}
			out = omitPath(out, path)
		}
	}
	return out
}

// omitPath returns m without the value at path. m itself is owned by the
// caller and already copied; nested objects on the path are copied here.
func omitPath(m map[string]any, path []string) map[string]any {
	if len(path) == 0 {
		return m
	}
	if len(path) == 1 {
		delete(m, path[0])
		return m
	}
	nested, ok := m[path[0]].(map[string]any)
	if !ok {
		return m
	}
	m[path[0]] = omitPath(copyMap(nested), path[1:])
	return m
}

func opObjectExplode(arg, input any, _ *Context) (any, error) {
	property, _ := arg.(string)
	m, ok := input.(map[string]any)
	if !ok {
		return []any{}, nil
	}
	list, ok := m[property].([]any)
	if !ok {
		return []any{}, nil
	}

	base := copyMap(m)
	delete(base, property)

	out := make([]any, len(list))
	for i, element := range list {
		merged := copyMap(base)
		if fields, isMap := element.(map[string]any); isMap {
			for k, v := range fields {
				merged[k] = v
			}
		}
		out[i] = merged
	}
	return out, nil
}

type compareFrame struct {
	path []any
	a, b map[string]any
}

// opObjectCompare diffs two objects without recursion. Nested objects are
// walked; lists are compared as a whole.
func opObjectCompare(arg, input any, ctx *Context) (any, error) {
	left, right, err := evaluatePair(arg, input, ctx)
	if err != nil {
		return nil, err
	}
	a, okA := left.(map[string]any)
	b, okB := right.(map[string]any)
	if !okA || !okB {
		return []any{}, nil
	}

	diffs := make([]any, 0)
	stack := []compareFrame{{path: []any{}, a: a, b: b}}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var nested []compareFrame
		for _, key := range unionKeys(frame.a, frame.b) {
			path := append(append(make([]any, 0, len(frame.path)+1), frame.path...), key)
			av, inA := frame.a[key]
			bv, inB := frame.b[key]

			switch {
			case !inA:
				diffs = append(diffs, map[string]any{"path": path, "type": "added", "value": bv})
			case !inB:
				diffs = append(diffs, map[string]any{"path": path, "type": "removed", "value": av})
			default:
				am, aIsMap := av.(map[string]any)
				bm, bIsMap := bv.(map[string]any)
				if aIsMap && bIsMap {
					nested = append(nested, compareFrame{path: path, a: am, b: bm})
					continue
				}
				if !Equal(av, bv) {
					diffs = append(diffs, map[string]any{"path": path, "type": "changed", "from": av, "to": bv})
				}
			}
		}
		for i := len(nested) - 1; i >= 0; i-- {
			stack = append(stack, nested[i])
		}
	}
	return diffs, nil
}

func unionKeys(a, b map[string]any) []string {
	keys := sortedKeys(a)
	for _, k := range sortedKeys(b) {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}
