package remap

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Equal reports structural equality: mappings compare key-wise, lists
// index-wise, numbers by value regardless of their Go type.
func Equal(a, b any) bool {
	if na, ok := toNumber(a); ok {
		nb, ok := toNumber(b)
		return ok && na == nb
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, exists := bv[k]
			if !exists || !Equal(v, w) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// truthy follows the boolean coercion of the document language: nil, false,
// zero, NaN and the empty string are false; everything else, including empty
// lists and mappings, is true.
func truthy(v any) bool {
	if n, ok := toNumber(v); ok {
		return n != 0 && !math.IsNaN(n)
	}
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	}
	return true
}

// toNumber converts Go numeric kinds to float64.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// toInt converts a whole number to int.
func toInt(v any) (int, bool) {
	n, ok := toNumber(v)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
		return 0, false
	}
	return int(n), true
}

// truncInt converts any number to int by truncating toward zero. NaN is 0
// and magnitudes beyond math.MaxInt32 saturate, so infinities act as
// "everything". ok is false only for non-numbers.
func truncInt(v any) (int, bool) {
	n, ok := toNumber(v)
	if !ok {
		return 0, false
	}
	switch {
	case math.IsNaN(n):
		return 0, true
	case n > math.MaxInt32:
		return math.MaxInt32, true
	case n < math.MinInt32:
		return math.MinInt32, true
	}
	return int(math.Trunc(n)), true
}

// coerceNumber converts a value to a number the way relational comparison
// does: booleans become 0/1, nil 0, numeric strings their value, dates their
// epoch milliseconds. Anything else is NaN.
func coerceNumber(v any) float64 {
	if n, ok := toNumber(v); ok {
		return n
	}
	switch val := v.(type) {
	case nil:
		return 0
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case time.Time:
		return float64(val.UnixMilli())
	}
	return math.NaN()
}

// compare orders two values. Two strings compare lexically, anything else
// numerically after coercion. ok is false when the values are unordered.
func compare(a, b any) (int, bool) {
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs), true
		}
	}
	x, y := coerceNumber(a), coerceNumber(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}

// stringify renders a value as text.
func stringify(v any) string {
	if n, ok := toNumber(v); ok {
		return formatNumber(n)
	}
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return formatISO(val)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			if item != nil {
				parts[i] = stringify(item)
			}
		}
		return strings.Join(parts, ",")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// formatISO renders an instant as an ISO 8601 UTC timestamp with milliseconds.
func formatISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// typeName names the kind of a value.
func typeName(v any) string {
	if _, ok := toNumber(v); ok {
		return "number"
	}
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case time.Time:
		return "date"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return reflect.TypeOf(v).String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// asList treats a non-list argument as a list of one, and nil as empty.
func asList(arg any) []any {
	switch val := arg.(type) {
	case nil:
		return nil
	case []any:
		return val
	}
	return []any{arg}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// maxEpochMillis bounds epoch-millisecond timestamps to ±100,000,000 days
// around 1970, the range of an ECMAScript Date.
const maxEpochMillis = 8.64e15

// toTime converts a date, an epoch-milliseconds number or an ISO 8601 string
// to an instant.
func toTime(v any) (time.Time, bool) {
	if n, ok := toNumber(v); ok {
		if math.IsNaN(n) || math.Abs(n) > maxEpochMillis {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(n)).UTC(), true
	}
	switch val := v.(type) {
	case time.Time:
		return val, !val.IsZero()
	case string:
		return parseISO(val)
	}
	return time.Time{}, false
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
	"2006-01",
}

// parseISO parses ISO 8601 timestamps. Values without an offset are UTC.
func parseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
