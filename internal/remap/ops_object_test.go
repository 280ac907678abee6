package remap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObject_From(t *testing.T) {
	doc := map[string]any{"object.from": map[string]any{"a": static(1.0), "b": static(2.0)}}
	assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0}, run(t, doc, "ignored", nil))

	doc = map[string]any{"object.from": map[string]any{"name": map[string]any{"prop": "n"}}}
	assert.Equal(t, map[string]any{"name": "x"}, run(t, doc, map[string]any{"n": "x"}, nil))
}

func TestObject_Assign(t *testing.T) {
	input := map[string]any{"a": 1.0, "b": 2.0}
	doc := map[string]any{"object.assign": map[string]any{"b": static(3.0), "c": map[string]any{"prop": "a"}}}
	assert.Equal(t, map[string]any{"a": 1.0, "b": 3.0, "c": 1.0}, run(t, doc, input, nil))
	assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0}, input)

	assert.Equal(t, map[string]any{"b": 3.0, "c": nil}, run(t, doc, "not an object", nil))
}

func TestObject_Omit(t *testing.T) {
	assert.Equal(t, map[string]any{"a": 1.0}, run(t, map[string]any{"object.omit": []any{"b"}}, map[string]any{"a": 1.0, "b": 2.0}, nil))

	input := map[string]any{
		"a": 1.0,
		"b": map[string]any{"c": map[string]any{"d": 1.0, "e": 2.0}, "f": 3.0},
	}
	out := run(t, map[string]any{"object.omit": []any{"a", []any{"b", "c", "d"}, []any{"x", "y"}}}, input, nil)
	assert.Equal(t, map[string]any{"b": map[string]any{"c": map[string]any{"e": 2.0}, "f": 3.0}}, out)
	assert.Equal(t, 1.0, input["b"].(map[string]any)["c"].(map[string]any)["d"])

	assert.Equal(t, "text", run(t, map[string]any{"object.omit": []any{"a"}}, "text", nil))
}

func TestObject_Explode(t *testing.T) {
	input := map[string]any{
		"owner": "Ada",
		"kind":  "pet",
		"pets": []any{
			map[string]any{"name": "Rex", "kind": "dog"},
			map[string]any{"name": "Tom"},
		},
	}
	assert.Equal(t, []any{
		map[string]any{"owner": "Ada", "kind": "dog", "name": "Rex"},
		map[string]any{"owner": "Ada", "kind": "pet", "name": "Tom"},
	}, run(t, map[string]any{"object.explode": "pets"}, input, nil))

	assert.Equal(t, []any{}, run(t, map[string]any{"object.explode": "owner"}, input, nil))
	assert.Equal(t, []any{}, run(t, map[string]any{"object.explode": "pets"}, []any{}, nil))
}

func TestObject_Compare(t *testing.T) {
	left := map[string]any{
		"same":    1.0,
		"changed": "a",
		"removed": true,
		"nested":  map[string]any{"x": 1.0, "y": 2.0},
		"list":    []any{1.0, 2.0},
	}
	right := map[string]any{
		"same":    1.0,
		"changed": "b",
		"added":   nil,
		"nested":  map[string]any{"x": 1.0, "y": 3.0, "z": 4.0},
		"list":    []any{1.0, 2.0, 3.0},
	}
	doc := map[string]any{"object.compare": []any{static(left), static(right)}}

	assert.Equal(t, []any{
		map[string]any{"path": []any{"changed"}, "type": "changed", "from": "a", "to": "b"},
		map[string]any{"path": []any{"list"}, "type": "changed", "from": []any{1.0, 2.0}, "to": []any{1.0, 2.0, 3.0}},
		map[string]any{"path": []any{"removed"}, "type": "removed", "value": true},
		map[string]any{"path": []any{"added"}, "type": "added", "value": nil},
		map[string]any{"path": []any{"nested", "y"}, "type": "changed", "from": 2.0, "to": 3.0},
		map[string]any{"path": []any{"nested", "z"}, "type": "added", "value": 4.0},
	}, run(t, doc, nil, nil))
}

func TestObject_CompareNonObjects(t *testing.T) {
	doc := map[string]any{"object.compare": []any{static(map[string]any{}), static([]any{})}}
	assert.Equal(t, []any{}, run(t, doc, nil, nil))
}

func TestObject_CompareDeepNesting(t *testing.T) {
	build := func(leaf float64) map[string]any {
		m := map[string]any{"leaf": leaf}
		for i := 0; i < 5000; i++ {
			m = map[string]any{"n": m}
		}
		return m
	}
	doc := map[string]any{"object.compare": []any{static(build(1)), static(build(2))}}
	out := run(t, doc, nil, nil).([]any)
	assert.Len(t, out, 1)
	assert.Len(t, out[0].(map[string]any)["path"], 5001)
}
