package expressions

import (
	"context"
	"sync"
)

// Variables exposed to every engine. The jq engine runs on "input" and binds
// the others as $root, $context, $array and $history.
const (
	VarInput   = "input"
	VarRoot    = "root"
	VarContext = "context"
	VarArray   = "array"
	VarHistory = "history"
)

var variables = []string{VarInput, VarRoot, VarContext, VarArray, VarHistory}

// Engine evaluates an expression against the remapper evaluation state.
// Three implementations: jq (gojq), expr (expr-lang) and CEL (cel-go).
type Engine interface {
	Name() string
	Compile(expression string) error
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// programCache holds compiled programs keyed by expression source.
// Compiled programs are immutable and safe to share across goroutines.
type programCache[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

func newProgramCache[T any]() *programCache[T] {
	return &programCache[T]{items: make(map[string]T)}
}

func (c *programCache[T]) getOrCompile(expression string, compile func(string) (T, error)) (T, error) {
	c.mu.RLock()
	if prg, ok := c.items[expression]; ok {
		c.mu.RUnlock()
		return prg, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock.
	if prg, ok := c.items[expression]; ok {
		return prg, nil
	}
	prg, err := compile(expression)
	if err != nil {
		var zero T
		return zero, err
	}
	c.items[expression] = prg
	return prg, nil
}

func (c *programCache[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
