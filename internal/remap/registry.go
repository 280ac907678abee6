package remap

import (
	"sort"
	"strconv"
)

// Operator is the implementation of one named remapper. arg is the value the
// document associates with the operator name, input the current value.
type Operator func(arg, input any, ctx *Context) (any, error)

// Nested is a remapper found inside an operator argument. Path is relative to
// the argument, in JSON pointer form without the leading slash.
type Nested struct {
	Path     string
	Remapper any
}

// Definition describes one operator.
type Definition struct {
	Name        string
	Family      string
	Description string
	Run         Operator

	// Nested lists the remappers held by an argument, for static validation.
	// Nil means the argument is configuration only.
	Nested func(arg any) []Nested

	// Check reports an argument the operator would reject at run time, where
	// it degrades instead of failing.
	Check func(arg any) error
}

// registry is populated in init; operators call Evaluate, which reads it.
var registry map[string]Definition

func init() {
	defs := make([]Definition, 0, 96)
	defs = append(defs, navigationOperators()...)
	defs = append(defs, logicOperators()...)
	defs = append(defs, arrayOperators()...)
	defs = append(defs, objectOperators()...)
	defs = append(defs, stringOperators()...)
	defs = append(defs, dateOperators()...)
	defs = append(defs, randomOperators()...)
	defs = append(defs, generatorOperators()...)
	defs = append(defs, expressionOperators()...)

	registry = make(map[string]Definition, len(defs))
	for _, def := range defs {
		if _, exists := registry[def.Name]; exists {
			panic("remap: operator " + strconv.Quote(def.Name) + " registered twice")
		}
		registry[def.Name] = def
	}
}

// Lookup returns the definition of a named operator.
func Lookup(name string) (Definition, bool) {
	def, ok := registry[name]
	return def, ok
}

// Definitions returns all operators sorted by name.
func Definitions() []Definition {
	out := make([]Definition, 0, len(registry))
	for _, def := range registry {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// --- Nested helpers ---

func nestedSelf(arg any) []Nested {
	return []Nested{{Remapper: arg}}
}

func nestedList(arg any) []Nested {
	list, ok := arg.([]any)
	if !ok {
		return nestedSelf(arg)
	}
	out := make([]Nested, len(list))
	for i, item := range list {
		out[i] = Nested{Path: strconv.Itoa(i), Remapper: item}
	}
	return out
}

func nestedMap(arg any) []Nested {
	m, ok := arg.(map[string]any)
	if !ok {
		return nil
	}
	out := make([]Nested, 0, len(m))
	for _, k := range sortedKeys(m) {
		out = append(out, Nested{Path: escapePointer(k), Remapper: m[k]})
	}
	return out
}

func nestedFields(fields ...string) func(arg any) []Nested {
	return func(arg any) []Nested {
		m, ok := arg.(map[string]any)
		if !ok {
			return nil
		}
		var out []Nested
		for _, f := range fields {
			if v, ok := m[f]; ok {
				out = append(out, Nested{Path: f, Remapper: v})
			}
		}
		return out
	}
}

func nestedMapField(field string) func(arg any) []Nested {
	return func(arg any) []Nested {
		m, ok := arg.(map[string]any)
		if !ok {
			return nil
		}
		out := nestedMap(m[field])
		for i := range out {
			out[i].Path = field + "/" + out[i].Path
		}
		return out
	}
}

func escapePointer(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '~':
			out = append(out, '~', '0')
		case '/':
			out = append(out, '~', '1')
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
