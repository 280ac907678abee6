package remap

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// templateMessage replaces {name} placeholders; a missing value is an error.
type templateMessage string

func (m templateMessage) Format(values map[string]any) (string, error) {
	out := string(m)
	for k, v := range values {
		out = strings.ReplaceAll(out, "{"+k+"}", stringify(v))
	}
	if strings.Contains(out, "{") {
		return "", fmt.Errorf("unresolved placeholder in %q", out)
	}
	return out, nil
}

func messageContext() *Context {
	messages := map[string]string{
		"greeting": "Hello {name}",
		"title":    "Welcome",
		"empty":    "",
	}
	return &Context{GetMessage: func(id, defaultMessage string) (Message, error) {
		if msg, ok := messages[id]; ok {
			return templateMessage(msg), nil
		}
		if defaultMessage != "" {
			return templateMessage(defaultMessage), nil
		}
		return nil, errors.New("unknown message " + id)
	}}
}

func TestString_Case(t *testing.T) {
	assert.Equal(t, "ABC", run(t, map[string]any{"string.case": "upper"}, "aBc", nil))
	assert.Equal(t, "abc", run(t, map[string]any{"string.case": "lower"}, "aBc", nil))
	assert.Equal(t, "aBc", run(t, map[string]any{"string.case": "title"}, "aBc", nil))
	assert.Equal(t, 1.0, run(t, map[string]any{"string.case": "upper"}, 1.0, nil))
}

func TestString_Matching(t *testing.T) {
	tests := []struct {
		op   string
		arg  any
		in   any
		want bool
	}{
		{"string.contains", "lo W", "Hello World", true},
		{"string.contains", "lo w", "Hello World", false},
		{"string.contains", map[string]any{"substring": "lo w", "strict": false}, "Hello World", true},
		{"string.contains", map[string]any{"substring": "lo w"}, "Hello World", false},
		{"string.startsWith", "He", "Hello", true},
		{"string.startsWith", map[string]any{"substring": "he", "strict": false}, "Hello", true},
		{"string.endsWith", "lo", "Hello", true},
		{"string.endsWith", "LO", "Hello", false},
		{"string.contains", "23", 1234.0, true},
		{"string.contains", 3.0, "123", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, run(t, map[string]any{tc.op: tc.arg}, tc.in, nil), "%s %v %v", tc.op, tc.arg, tc.in)
	}
}

func TestString_Slice(t *testing.T) {
	tests := []struct {
		arg  any
		in   any
		want any
	}{
		{2.0, "héllo", "llo"},
		{[]any{1.0, 3.0}, "héllo", "él"},
		{[]any{-3.0, -1.0}, "hello", "ll"},
		{[]any{3.0, 1.0}, "hello", ""},
		{[]any{1.0}, []any{1.0, 2.0, 3.0}, []any{2.0, 3.0}},
		{"x", "hello", nil},
		{[]any{}, "hello", nil},
		{1.0, 42.0, nil},
		{1.7, "hello", "ello"},
		{[]any{0.0, 2.9}, "hello", "he"},
		{[]any{-1.5, 5.0}, "hello", "o"},
		{math.NaN(), "hello", "hello"},
		{[]any{math.Inf(-1), math.Inf(1)}, "abc", "abc"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, run(t, map[string]any{"slice": tc.arg}, tc.in, nil), "slice %v of %v", tc.arg, tc.in)
	}
}

func TestString_Replace(t *testing.T) {
	tests := []struct {
		pattern, replacement string
		in, want             any
	}{
		{"o", "0", "foo boo", "f00 b00"},
		{`(\w+)@(\w+)`, "$2 at $1", "me@home", "home at me"},
		{`(?P<word>b\w+)`, "[$<word>]", "a bat", "a [bat]"},
		{`\d+`, "<$&>", "a1b22", "a<1>b<22>"},
		{`x`, "$$", "axb", "a$b"},
		{`^`, "> ", "one\ntwo", "> one\n> two"},
		{`0`, "zero", 10.0, "1zero"},
	}
	for _, tc := range tests {
		doc := map[string]any{"string.replace": map[string]any{tc.pattern: tc.replacement}}
		assert.Equal(t, tc.want, run(t, doc, tc.in, nil), tc.pattern)
	}
}

func TestString_ReplaceNeedsOnePair(t *testing.T) {
	ctx, logs := captureLogs()
	doc := map[string]any{"string.replace": map[string]any{"a": "b", "c": "d"}}
	assert.Equal(t, "ac", run(t, doc, "ac", ctx))
	assert.Contains(t, logs.String(), "exactly one pattern")

	doc = map[string]any{"string.replace": map[string]any{"(": "x"}}
	assert.Equal(t, "ac", run(t, doc, "ac", ctx))
}

func TestString_Format(t *testing.T) {
	ctx := messageContext()
	doc := map[string]any{"string.format": map[string]any{
		"messageId": "greeting",
		"values":    map[string]any{"name": map[string]any{"prop": "user"}},
	}}
	assert.Equal(t, "Hello Ada", run(t, doc, map[string]any{"user": "Ada"}, ctx))

	doc = map[string]any{"string.format": map[string]any{
		"template": "{count} items",
		"values":   map[string]any{"count": map[string]any{"len": nil}},
	}}
	assert.Equal(t, "3 items", run(t, doc, []any{1.0, 2.0, 3.0}, ctx))
}

func TestString_FormatFailures(t *testing.T) {
	ctx := messageContext()

	doc := map[string]any{"string.format": map[string]any{"messageId": "greeting"}}
	assert.Equal(t, "{greeting}", run(t, doc, nil, ctx))

	doc = map[string]any{"string.format": map[string]any{"messageId": "missing"}}
	assert.Equal(t, "{missing}", run(t, doc, nil, ctx))

	doc = map[string]any{"string.format": map[string]any{"template": ""}}
	assert.Equal(t, "unknown message ", run(t, doc, nil, ctx))

	doc = map[string]any{"string.format": map[string]any{"messageId": "greeting"}}
	assert.Equal(t, "{greeting}", run(t, doc, nil, nil))
}

func TestString_FormatPropagatesFatalErrors(t *testing.T) {
	doc := map[string]any{"string.format": map[string]any{
		"messageId": "greeting",
		"values":    map[string]any{"name": map[string]any{"nope": nil}},
	}}
	_, err := Evaluate(doc, nil, messageContext())
	assert.Error(t, err)
}

func TestString_Translate(t *testing.T) {
	ctx := messageContext()
	assert.Equal(t, "Welcome", run(t, map[string]any{"translate": "title"}, nil, ctx))
	assert.Equal(t, "{empty}", run(t, map[string]any{"translate": "empty"}, nil, ctx))
	assert.Equal(t, "{missing}", run(t, map[string]any{"translate": "missing"}, nil, ctx))
	assert.Equal(t, "{title}", run(t, map[string]any{"translate": "title"}, nil, nil))
}

func TestGoReplacement(t *testing.T) {
	assert.Equal(t, "${1}-${0}-${name}-$$-$$x", goReplacement("$1-$&-$<name>-$$-$x"))
}
