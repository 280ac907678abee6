package remap

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

func navigationOperators() []Definition {
	return []Definition{
		{Name: "app", Family: "navigation", Description: "Read app metadata: id, locale, url or member", Run: opApp},
		{Name: "page", Family: "navigation", Description: "Read page metadata: data, url or name", Run: opPage},
		{Name: "context", Family: "navigation", Description: "Read a dotted path from the caller context", Run: opContext},
		{Name: "variable", Family: "navigation", Description: "Read a named variable", Run: opVariable},
		{Name: "step", Family: "navigation", Description: "Read the current flow step or one of its fields", Run: opStep},
		{Name: "tab", Family: "navigation", Description: "Read the current tab or one of its fields", Run: opTab},
		{Name: "root", Family: "navigation", Description: "Return the input of the enclosing evaluation", Run: opRoot},
		{Name: "array", Family: "navigation", Description: "Read index, length, item, prevItem or nextItem of the array frame", Run: opArray},
		{Name: "history", Family: "navigation", Description: "Return a value from history by index", Run: opHistory},
		{
			Name: "from.history", Family: "navigation",
			Description: "Build an object from remappers evaluated against a history value",
			Run:         opFromHistory, Nested: nestedMapField("props"),
		},
		{
			Name: "assign.history", Family: "navigation",
			Description: "Merge remappers evaluated against a history value into the input",
			Run:         opAssignHistory, Nested: nestedMapField("props"),
		},
		{Name: "omit.history", Family: "navigation", Description: "Return a history value without the given keys", Run: opOmitHistory},
		{Name: "app.member", Family: "navigation", Description: "Read a field of the calling app member", Run: opAppMember},
		{Name: "group.member", Family: "navigation", Description: "Read a field of the selected group", Run: opGroupMember},
		{Name: "static", Family: "navigation", Description: "Return the argument without evaluating it", Run: opStatic},
		{Name: "prop", Family: "navigation", Description: "Read a property or a path of properties from the input", Run: opProp, Nested: nestedProp},
		{Name: "len", Family: "navigation", Description: "Return the length of a string or list", Run: opLen},
		{Name: "type", Family: "navigation", Description: "Return the type name of the input", Run: opType},
	}
}

func opApp(arg, _ any, ctx *Context) (any, error) {
	name, _ := arg.(string)
	switch name {
	case "id":
		return float64(ctx.AppID), nil
	case "locale":
		return ctx.Locale, nil
	case "url":
		return ctx.AppURL, nil
	case "member":
		if ctx.Member == nil {
			return nil, nil
		}
		return ctx.Member, nil
	}
	return nil, nil
}

func opPage(arg, _ any, ctx *Context) (any, error) {
	name, _ := arg.(string)
	switch name {
	case "data":
		return ctx.PageData, nil
	case "url":
		return ctx.URL, nil
	case "name":
		return ctx.PageName, nil
	}
	return nil, nil
}

func opContext(arg, _ any, ctx *Context) (any, error) {
	path, _ := arg.(string)
	if ctx.Context == nil {
		return nil, nil
	}
	var current any = ctx.Context
	for _, segment := range strings.Split(path, ".") {
		current = child(current, segment)
		if current == nil {
			return nil, nil
		}
	}
	return current, nil
}

func opVariable(arg, _ any, ctx *Context) (any, error) {
	name, _ := arg.(string)
	if ctx.GetVariable == nil {
		return map[string]any{"variable": name}, nil
	}
	return ctx.GetVariable(name), nil
}

func opStep(arg, _ any, ctx *Context) (any, error) {
	return cellField(ctx.Step, arg), nil
}

func opTab(arg, _ any, ctx *Context) (any, error) {
	return cellField(ctx.Tab, arg), nil
}

func cellField(cell *Cell, arg any) any {
	value := cell.Load()
	name, _ := arg.(string)
	if name == "" {
		return value
	}
	return child(value, name)
}

func opRoot(_, _ any, ctx *Context) (any, error) {
	return ctx.root, nil
}

func opArray(arg, _ any, ctx *Context) (any, error) {
	name, _ := arg.(string)
	return ctx.array.Field(name), nil
}

func historyAt(ctx *Context, index any) any {
	i, ok := toInt(index)
	if !ok || i < 0 || i >= len(ctx.History) {
		return nil
	}
	return ctx.History[i]
}

func opHistory(arg, _ any, ctx *Context) (any, error) {
	return historyAt(ctx, arg), nil
}

func historyProps(arg any, ctx *Context) (map[string]any, error) {
	m, _ := arg.(map[string]any)
	value := historyAt(ctx, m["index"])
	props, _ := m["props"].(map[string]any)
	out := make(map[string]any, len(props))
	for k, remapper := range props {
		v, err := Evaluate(remapper, value, ctx)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func opFromHistory(arg, _ any, ctx *Context) (any, error) {
	return historyProps(arg, ctx)
}

func opAssignHistory(arg, input any, ctx *Context) (any, error) {
	props, err := historyProps(arg, ctx)
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

func opOmitHistory(arg, _ any, ctx *Context) (any, error) {
	m, _ := arg.(map[string]any)
	value, ok := historyAt(ctx, m["index"]).(map[string]any)
	if !ok {
		return historyAt(ctx, m["index"]), nil
	}
	return omitKeys(value, asList(m["keys"])), nil
}

func opAppMember(arg, _ any, ctx *Context) (any, error) {
	name, _ := arg.(string)
	if ctx.Member == nil {
		return nil, nil
	}
	return ctx.Member[name], nil
}

func opGroupMember(arg, _ any, ctx *Context) (any, error) {
	name, _ := arg.(string)
	if ctx.Group == nil {
		return nil, nil
	}
	return ctx.Group[name], nil
}

func opStatic(arg, _ any, _ *Context) (any, error) {
	return arg, nil
}

func opLen(_, input any, _ *Context) (any, error) {
	switch v := input.(type) {
	case string:
		return float64(utf8.RuneCountInString(v)), nil
	case []any:
		return float64(len(v)), nil
	}
	return nil, nil
}

func opType(_, input any, _ *Context) (any, error) {
	return typeName(input), nil
}

// --- prop ---

type propKind int

const (
	propKeys propKind = iota
	propRemappers
	propRemapper
)

// propArg is the decoded argument of the prop operator. A key or list of keys
// is a literal path; a list holding remappers is a path whose segments are
// computed; a single mapping is a remapper computing one key.
type propArg struct {
	kind  propKind
	items []any
}

func parsePropArg(arg any) propArg {
	switch v := arg.(type) {
	case []any:
		for _, item := range v {
			if !isLiteral(item) {
				return propArg{kind: propRemappers, items: v}
			}
		}
		return propArg{kind: propKeys, items: v}
	case map[string]any:
		return propArg{kind: propRemapper, items: []any{v}}
	}
	return propArg{kind: propKeys, items: []any{arg}}
}

func nestedProp(arg any) []Nested {
	p := parsePropArg(arg)
	switch p.kind {
	case propRemapper:
		return nestedSelf(arg)
	case propRemappers:
		var out []Nested
		for i, item := range p.items {
			if !isLiteral(item) {
				out = append(out, Nested{Path: strconv.Itoa(i), Remapper: item})
			}
		}
		return out
	}
	return nil
}

func opProp(arg, input any, ctx *Context) (any, error) {
	p := parsePropArg(arg)
	keys := p.items
	if p.kind != propKeys {
		keys = make([]any, len(p.items))
		for i, item := range p.items {
			k, err := Evaluate(item, input, ctx)
			if err != nil {
				return nil, err
			}
			keys[i] = k
		}
	}

	current := input
	for _, key := range keys {
		current = child(current, key)
		if current == nil {
			return nil, nil
		}
	}
	return current, nil
}

// child reads a property of a mapping or an element of a list. List indexes
// may be negative to count from the end.
func child(value, key any) any {
	switch v := value.(type) {
	case map[string]any:
		if s, ok := key.(string); ok {
			return v[s]
		}
		if n, ok := toNumber(key); ok {
			return v[formatNumber(n)]
		}
	case []any:
		i, ok := toInt(key)
		if !ok {
			s, isString := key.(string)
			if !isString {
				return nil
			}
			if s == "length" {
				return float64(len(v))
			}
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil
			}
			i = n
		}
		if i < 0 {
			i += len(v)
		}
		if i < 0 || i >= len(v) {
			return nil
		}
		return v[i]
	case string:
		if s, ok := key.(string); ok && s == "length" {
			return float64(utf8.RuneCountInString(v))
		}
	}
	return nil
}
