// Package odata builds OData $filter and $orderby query expressions.
package odata

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Comparator is a filter operation between a field and a literal.
type Comparator string

const (
	Eq         Comparator = "eq"
	Ne         Comparator = "ne"
	Gt         Comparator = "gt"
	Ge         Comparator = "ge"
	Lt         Comparator = "lt"
	Le         Comparator = "le"
	Contains   Comparator = "contains"
	StartsWith Comparator = "startswith"
	EndsWith   Comparator = "endswith"
)

// ParseComparator accepts the canonical names case-insensitively.
func ParseComparator(s string) (Comparator, bool) {
	c := Comparator(strings.ToLower(s))
	switch c {
	case Eq, Ne, Gt, Ge, Lt, Le, Contains, StartsWith, EndsWith:
		return c, true
	}
	return "", false
}

func (c Comparator) function() bool {
	return c == Contains || c == StartsWith || c == EndsWith
}

// Condition is one field comparison of a filter.
type Condition struct {
	Field      string
	Comparator Comparator
	// Type selects the literal encoding: String, Number, Boolean, Date or Guid.
	// Anything else is rendered as a string literal.
	Type  string
	Value any
}

// Literal encodes value as an OData literal of the given type.
func Literal(typ string, value any) (string, error) {
	if value == nil {
		return "null", nil
	}
	switch strings.ToLower(typ) {
	case "number", "int", "integer", "decimal", "double", "float":
		n, ok := number(value)
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
			return "", fmt.Errorf("value %v is not a number", value)
		}
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	case "boolean", "bool":
		b, ok := value.(bool)
		if !ok {
			return "", fmt.Errorf("value %v is not a boolean", value)
		}
		return strconv.FormatBool(b), nil
	case "date", "datetime", "datetimeoffset":
		if t, ok := value.(time.Time); ok {
			return t.UTC().Format("2006-01-02T15:04:05.000Z"), nil
		}
		return fmt.Sprint(value), nil
	case "guid":
		return fmt.Sprint(value), nil
	}
	return quote(fmt.Sprint(value)), nil
}

var quoter = strings.NewReplacer(`\`, `\\`, `'`, `''`)

func quote(s string) string {
	return "'" + quoter.Replace(s) + "'"
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// Clause renders a single condition.
func (c Condition) Clause() (string, error) {
	if c.Field == "" {
		return "", fmt.Errorf("condition has no field")
	}
	lit, err := Literal(c.Type, c.Value)
	if err != nil {
		return "", fmt.Errorf("field %s: %w", c.Field, err)
	}
	if c.Comparator.function() {
		return fmt.Sprintf("%s(%s,%s)", c.Comparator, c.Field, lit), nil
	}
	return fmt.Sprintf("%s %s %s", c.Field, c.Comparator, lit), nil
}

// Filter joins conditions with "and". The result has no "$filter=" prefix.
func Filter(conditions []Condition) (string, error) {
	clauses := make([]string, 0, len(conditions))
	for _, c := range conditions {
		clause, err := c.Clause()
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	return strings.Join(clauses, " and "), nil
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts asc/desc and ascending/descending.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(s) {
	case "asc", "ascending":
		return Asc, true
	case "desc", "descending":
		return Desc, true
	}
	return "", false
}

// Order is one sort key.
type Order struct {
	Field     string
	Direction Direction
}

// OrderBy renders sort keys in order. The result has no "$orderby=" prefix.
func OrderBy(orders []Order) string {
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		parts = append(parts, o.Field+" "+string(o.Direction))
	}
	return strings.Join(parts, ",")
}
