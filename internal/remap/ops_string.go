package remap

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

func stringOperators() []Definition {
	return []Definition{
		{Name: "string.case", Family: "string", Description: "Convert the input to upper or lower case", Run: opStringCase},
		{Name: "string.contains", Family: "string", Description: "True if the input contains a substring", Run: opStringContains},
		{Name: "string.startsWith", Family: "string", Description: "True if the input starts with a substring", Run: opStringStartsWith},
		{Name: "string.endsWith", Family: "string", Description: "True if the input ends with a substring", Run: opStringEndsWith},
		{Name: "slice", Family: "string", Description: "Slice a string or list by index or [start, end)", Run: opSlice},
		{Name: "string.replace", Family: "string", Description: "Replace all matches of a regular expression", Run: opStringReplace, Check: checkReplace},
		{Name: "string.format", Family: "string", Description: "Format a translated message with remapped values", Run: opStringFormat, Nested: nestedMapField("values")},
		{Name: "translate", Family: "string", Description: "Return a translated message", Run: opTranslate},
	}
}

func opStringCase(arg, input any, _ *Context) (any, error) {
	s, ok := input.(string)
	if !ok {
		return input, nil
	}
	switch arg {
	case "upper":
		return strings.ToUpper(s), nil
	case "lower":
		return strings.ToLower(s), nil
	}
	return input, nil
}

// substringMatch applies match to the stringified input. The argument is
// either the substring or {substring, strict}; strict false ignores case.
func substringMatch(arg, input any, match func(s, sub string) bool) bool {
	var sub string
	strict := true
	switch v := arg.(type) {
	case string:
		sub = v
	case map[string]any:
		sub, _ = v["substring"].(string)
		if s, ok := v["strict"].(bool); ok {
			strict = s
		}
	default:
		return false
	}
	s := stringify(input)
	if !strict {
		s, sub = strings.ToLower(s), strings.ToLower(sub)
	}
	return match(s, sub)
}

func opStringContains(arg, input any, _ *Context) (any, error) {
	return substringMatch(arg, input, strings.Contains), nil
}

func opStringStartsWith(arg, input any, _ *Context) (any, error) {
	return substringMatch(arg, input, strings.HasPrefix), nil
}

func opStringEndsWith(arg, input any, _ *Context) (any, error) {
	return substringMatch(arg, input, strings.HasSuffix), nil
}

func opSlice(arg, input any, _ *Context) (any, error) {
	var startArg, endArg any
	hasEnd := false
	if pair, ok := arg.([]any); ok {
		if len(pair) == 0 || len(pair) > 2 {
			return nil, nil
		}
		startArg = pair[0]
		if len(pair) == 2 {
			endArg, hasEnd = pair[1], true
		}
	} else {
		startArg = arg
	}

	start, ok := truncInt(startArg)
	if !ok {
		return nil, nil
	}

	var length int
	switch v := input.(type) {
	case string:
		length = utf8.RuneCountInString(v)
	case []any:
		length = len(v)
	default:
		return nil, nil
	}

	end := length
	if hasEnd {
		if end, ok = truncInt(endArg); !ok {
			return nil, nil
		}
	}
	from, to := clampIndex(start, length), clampIndex(end, length)
	if to < from {
		to = from
	}

	switch v := input.(type) {
	case string:
		return string([]rune(v)[from:to]), nil
	case []any:
		return append([]any{}, v[from:to]...), nil
	}
	return nil, nil
}

// clampIndex resolves a possibly negative index into [0, length].
func clampIndex(i, length int) int {
	if i < 0 {
		i += length
	}
	return min(max(i, 0), length)
}

var replacementRef = regexp.MustCompile(`\$(\$|&|\d{1,2}|<[A-Za-z_][A-Za-z0-9_]*>)`)

// goReplacement rewrites a replacement string using $1, $& and $<name>
// references into the ${1} form regexp.Expand understands.
func goReplacement(s string) string {
	var b strings.Builder
	last := 0
	for _, loc := range replacementRef.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(strings.ReplaceAll(s[last:loc[0]], "$", "$$"))
		ref := s[loc[2]:loc[3]]
		switch {
		case ref == "$":
			b.WriteString("$$")
		case ref == "&":
			b.WriteString("${0}")
		case ref[0] == '<':
			b.WriteString("${" + ref[1:len(ref)-1] + "}")
		default:
			b.WriteString("${" + ref + "}")
		}
		last = loc[1]
	}
	b.WriteString(strings.ReplaceAll(s[last:], "$", "$$"))
	return b.String()
}

func opStringReplace(arg, input any, ctx *Context) (any, error) {
	pairs, ok := arg.(map[string]any)
	if !ok || len(pairs) != 1 {
		ctx.logger().Warn("string.replace expects exactly one pattern", "patterns", len(pairs))
		return input, nil
	}
	for pattern, replacement := range pairs {
		re, err := regexp.Compile("(?m)" + pattern)
		if err != nil {
			ctx.logger().Warn("string.replace pattern is invalid", "pattern", pattern, "error", err)
			return input, nil
		}
		repl, _ := replacement.(string)
		return re.ReplaceAllString(stringify(input), goReplacement(repl)), nil
	}
	return input, nil
}

func checkReplace(arg any) error {
	pairs, ok := arg.(map[string]any)
	if !ok || len(pairs) != 1 {
		return fmt.Errorf("string.replace expects exactly one pattern, got %d", len(pairs))
	}
	for pattern := range pairs {
		if _, err := regexp.Compile("(?m)" + pattern); err != nil {
			return err
		}
	}
	return nil
}

var errNoMessages = errors.New("message lookup is not configured")

func formatMessage(ctx *Context, id, template string, values map[string]any) (string, error) {
	if ctx.GetMessage == nil {
		return "", errNoMessages
	}
	msg, err := ctx.GetMessage(id, template)
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", errors.New("message " + id + " not found")
	}
	return msg.Format(values)
}

func opStringFormat(arg, input any, ctx *Context) (any, error) {
	m, _ := arg.(map[string]any)
	id, _ := m["messageId"].(string)
	template, _ := m["template"].(string)

	var values map[string]any
	if _, ok := m["values"]; ok {
		var err error
		if values, err = evaluateProps(m["values"], input, ctx); err != nil {
			return nil, err
		}
	}

	out, err := formatMessage(ctx, id, template, values)
	if err != nil {
		if id != "" {
			return "{" + id + "}", nil
		}
		return err.Error(), nil
	}
	return out, nil
}

func opTranslate(arg, _ any, ctx *Context) (any, error) {
	id, _ := arg.(string)
	out, err := formatMessage(ctx, id, "", nil)
	if err != nil || out == "" {
		return "{" + id + "}", nil
	}
	return out, nil
}
