package remap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func static(v any) map[string]any {
	return map[string]any{"static": v}
}

func TestLogic_Equals(t *testing.T) {
	tests := []struct {
		name     string
		operands []any
		want     bool
	}{
		{"equal scalars", []any{static(1.0), static(1.0)}, true},
		{"different scalars", []any{static(1.0), static(2.0)}, false},
		{"single operand", []any{static(1.0)}, true},
		{"no operands", []any{}, true},
		{"deep objects", []any{
			static(map[string]any{"a": []any{1.0, map[string]any{"b": "c"}}}),
			static(map[string]any{"a": []any{1.0, map[string]any{"b": "c"}}}),
		}, true},
		{"objects differ", []any{static(map[string]any{"a": 1.0}), static(map[string]any{"a": 1.0, "b": 2.0})}, false},
		{"all equal to first", []any{static("x"), static("x"), static("y")}, false},
		{"number vs string", []any{static(1.0), static("1")}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, run(t, map[string]any{"equals": tc.operands}, nil, nil))
		})
	}
}

func TestLogic_Not(t *testing.T) {
	assert.Equal(t, true, run(t, map[string]any{"not": []any{}}, nil, nil))
	assert.Equal(t, false, run(t, map[string]any{"not": []any{static(true)}}, nil, nil))
	assert.Equal(t, true, run(t, map[string]any{"not": []any{static(0.0)}}, nil, nil))
	assert.Equal(t, true, run(t, map[string]any{"not": []any{static(1.0), static(2.0)}}, nil, nil))
	assert.Equal(t, false, run(t, map[string]any{"not": []any{static(1.0), static(1.0)}}, nil, nil))
}

func TestLogic_OrAnd(t *testing.T) {
	assert.Equal(t, true, run(t, map[string]any{"or": []any{}}, nil, nil))
	assert.Equal(t, true, run(t, map[string]any{"or": []any{static(false), static("x")}}, nil, nil))
	assert.Equal(t, false, run(t, map[string]any{"or": []any{static(false), static("")}}, nil, nil))

	assert.Equal(t, true, run(t, map[string]any{"and": []any{}}, nil, nil))
	assert.Equal(t, true, run(t, map[string]any{"and": []any{static(1.0), static([]any{})}}, nil, nil))
	assert.Equal(t, false, run(t, map[string]any{"and": []any{static(1.0), static(nil)}}, nil, nil))
}

func TestLogic_GtLt(t *testing.T) {
	tests := []struct {
		op          string
		left, right any
		want        bool
	}{
		{"gt", 2.0, 1.0, true},
		{"gt", 1.0, 2.0, false},
		{"lt", 1.0, 2.0, true},
		{"gt", "b", "a", true},
		{"lt", "10", "9", true},
		{"gt", "10", 9.0, true},
		{"gt", true, 0.0, true},
		{"lt", "abc", 1.0, false},
		{"gt", "abc", 1.0, false},
	}
	for _, tc := range tests {
		doc := map[string]any{tc.op: []any{static(tc.left), static(tc.right)}}
		assert.Equal(t, tc.want, run(t, doc, nil, nil), "%s %v %v", tc.op, tc.left, tc.right)
	}
}

func TestLogic_Defined(t *testing.T) {
	input := map[string]any{"a": 0.0}
	assert.Equal(t, true, run(t, map[string]any{"defined": map[string]any{"prop": "a"}}, input, nil))
	assert.Equal(t, false, run(t, map[string]any{"defined": map[string]any{"prop": "b"}}, input, nil))
}

func TestLogic_Maths(t *testing.T) {
	tests := []struct {
		name      string
		a, b      any
		operation string
		want      float64
	}{
		{"add", 1.0, 2.0, "add", 3},
		{"subtract", 5.0, 2.0, "subtract", 3},
		{"multiply", 4.0, 2.5, "multiply", 10},
		{"divide", 9.0, 3.0, "divide", 3},
		{"mod", 9.0, 4.0, "mod", 1},
		{"divide by zero", 1.0, 0.0, "divide", -1},
		{"mod by zero", 1.0, 0.0, "mod", -1},
		{"non-numeric", "1", 2.0, "add", -1},
		{"unknown operation", 1.0, 2.0, "pow", -1},
		{"genuine minus one", 1.0, 2.0, "subtract", -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := map[string]any{"maths": map[string]any{"a": static(tc.a), "b": static(tc.b), "operation": tc.operation}}
			assert.Equal(t, tc.want, run(t, doc, nil, nil))
		})
	}
}

func TestLogic_IfAndMatch(t *testing.T) {
	ifDoc := map[string]any{"if": map[string]any{
		"condition": map[string]any{"prop": "ok"},
		"then":      static("yes"),
		"else":      static("no"),
	}}
	assert.Equal(t, "yes", run(t, ifDoc, map[string]any{"ok": true}, nil))
	assert.Equal(t, "no", run(t, ifDoc, map[string]any{"ok": false}, nil))

	matchDoc := map[string]any{"match": []any{
		map[string]any{"case": map[string]any{"equals": []any{map[string]any{"prop": "n"}, static(1.0)}}, "value": static("one")},
		map[string]any{"case": map[string]any{"equals": []any{map[string]any{"prop": "n"}, static(2.0)}}, "value": static("two")},
	}}
	assert.Equal(t, "two", run(t, matchDoc, map[string]any{"n": 2.0}, nil))
	assert.Nil(t, run(t, matchDoc, map[string]any{"n": 3.0}, nil))
}

func TestLogic_NullStrip(t *testing.T) {
	input := map[string]any{
		"a": nil,
		"b": map[string]any{"c": nil, "d": 1.0},
		"e": []any{nil, 2.0},
	}
	assert.Equal(t,
		map[string]any{"b": map[string]any{"d": 1.0}, "e": []any{2.0}},
		run(t, map[string]any{"null.strip": nil}, input, nil))
	assert.Equal(t,
		map[string]any{"b": map[string]any{"c": nil, "d": 1.0}, "e": []any{nil, 2.0}},
		run(t, map[string]any{"null.strip": map[string]any{"depth": 1.0}}, input, nil))
}
