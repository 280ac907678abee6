package remap

import (
	"log/slog"
	"sync"
	"time"
)

// Message renders a resolved message template with named values.
type Message interface {
	Format(values map[string]any) (string, error)
}

// MessageLookup resolves a message by id. defaultMessage is the literal
// template to fall back to when the id is unknown; it may be empty.
type MessageLookup func(id, defaultMessage string) (Message, error)

// VariableLookup returns the current value of a named variable.
type VariableLookup func(name string) any

// Cell is a value owned by the caller that outlives a single evaluation. The
// engine only reads it; the caller may update it between or during calls.
type Cell struct {
	mu    sync.RWMutex
	value any
}

// NewCell creates a Cell holding v.
func NewCell(v any) *Cell {
	return &Cell{value: v}
}

// Load returns the current value, or nil for a nil Cell.
func (c *Cell) Load() any {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Store replaces the current value.
func (c *Cell) Store(v any) {
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
}

// ArrayFrame is the iteration state visible while an array operator evaluates
// its callback for one element.
type ArrayFrame struct {
	Index    int
	Length   int
	Item     any
	PrevItem any
	NextItem any
}

// Field returns one named field of the frame, as read by the "array" operator.
func (f *ArrayFrame) Field(name string) any {
	if f == nil {
		return nil
	}
	switch name {
	case "index":
		return float64(f.Index)
	case "length":
		return float64(f.Length)
	case "item":
		return f.Item
	case "prevItem":
		return f.PrevItem
	case "nextItem":
		return f.NextItem
	}
	return nil
}

func newFrame(items []any, i int) *ArrayFrame {
	f := &ArrayFrame{Index: i, Length: len(items), Item: items[i]}
	if i > 0 {
		f.PrevItem = items[i-1]
	}
	if i < len(items)-1 {
		f.NextItem = items[i+1]
	}
	return f
}

// Context is the read-only environment threaded through an evaluation.
// Operators never modify a Context; extension copies the struct and overrides
// the internal fields.
type Context struct {
	AppID    int64
	AppURL   string
	URL      string
	Locale   string
	PageName string
	PageData any

	// Member describes the calling app member; Group the selected group.
	Member map[string]any
	Group  map[string]any

	// Context is free-form data supplied by the caller.
	Context map[string]any

	GetMessage  MessageLookup
	GetVariable VariableLookup

	History []any
	Step    *Cell
	Tab     *Cell

	// TimeZone is used when rendering dates with a pattern. Defaults to UTC.
	TimeZone *time.Location
	Logger   *slog.Logger
	Now      func() time.Time

	root  any
	array *ArrayFrame
}

// Root returns the input of the nearest enclosing evaluation call.
func (c *Context) Root() any {
	return c.root
}

// Array returns the current array frame, or nil outside array operators.
func (c *Context) Array() *ArrayFrame {
	return c.array
}

func (c *Context) withRoot(root any) *Context {
	cp := *c
	cp.root = root
	return &cp
}

func (c *Context) withArray(frame *ArrayFrame) *Context {
	cp := *c
	cp.array = frame
	return &cp
}

func (c *Context) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Context) location() *time.Location {
	if c.TimeZone != nil {
		return c.TimeZone
	}
	return time.UTC
}

// describe renders the context for diagnostics.
func (c *Context) describe() map[string]any {
	out := map[string]any{
		"appId":    c.AppID,
		"appUrl":   c.AppURL,
		"url":      c.URL,
		"locale":   c.Locale,
		"pageName": c.PageName,
		"context":  c.Context,
		"history":  len(c.History),
		"root":     c.root,
	}
	if c.array != nil {
		out["array"] = map[string]any{
			"index":    c.array.Index,
			"length":   c.array.Length,
			"item":     c.array.Item,
			"prevItem": c.array.PrevItem,
			"nextItem": c.array.NextItem,
		}
	}
	return out
}
