// Package duration parses human duration expressions such as "1h30m",
// "2 days", "1.5 hours" or "1 week 2d". A bare number counts milliseconds.
package duration

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	day   = 24 * time.Hour
	week  = 7 * day
	year  = time.Duration(365.25 * float64(day))
	month = year / 12
)

var units = map[string]time.Duration{
	"":            time.Millisecond,
	"ns":          time.Nanosecond,
	"nanosecond":  time.Nanosecond,
	"us":          time.Microsecond,
	"µs":          time.Microsecond,
	"microsecond": time.Microsecond,
	"ms":          time.Millisecond,
	"msec":        time.Millisecond,
	"millisecond": time.Millisecond,
	"s":           time.Second,
	"sec":         time.Second,
	"second":      time.Second,
	"m":           time.Minute,
	"min":         time.Minute,
	"minute":      time.Minute,
	"h":           time.Hour,
	"hr":          time.Hour,
	"hour":        time.Hour,
	"d":           day,
	"day":         day,
	"w":           week,
	"wk":          week,
	"week":        week,
	"mo":          month,
	"month":       month,
	"y":           year,
	"yr":          year,
	"year":        year,
}

var tokenRE = regexp.MustCompile(`(?i)(-?(?:\d+\.?\d*|\.\d+)(?:e[-+]?\d+)?)\s*([a-zµ]*)`)

// Parse returns the duration described by s. ok is false when s holds no
// number, an unknown unit, or a total that does not fit a time.Duration.
func Parse(s string) (time.Duration, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}

	matches := tokenRE.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return 0, false
	}

	var total float64
	last := 0
	for _, m := range matches {
		if strings.TrimSpace(s[last:m[0]]) != "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s[m[2]:m[3]], 64)
		if err != nil {
			return 0, false
		}
		unit, ok := lookupUnit(strings.ToLower(s[m[4]:m[5]]))
		if !ok {
			return 0, false
		}
		term := n * float64(unit)
		if !inRange(term) {
			return 0, false
		}
		total += term
		if !inRange(total) {
			return 0, false
		}
		last = m[1]
	}
	if strings.TrimSpace(s[last:]) != "" {
		return 0, false
	}
	return time.Duration(total), true
}

// inRange reports whether ns nanoseconds fit a time.Duration. The
// float64 nearest math.MaxInt64 is 2^63, which itself overflows.
func inRange(ns float64) bool {
	return !math.IsNaN(ns) && ns > math.MinInt64 && ns < math.MaxInt64
}

func lookupUnit(name string) (time.Duration, bool) {
	if d, ok := units[name]; ok {
		return d, true
	}
	// Plural forms: "days", "hours", "mins".
	if strings.HasSuffix(name, "s") {
		d, ok := units[strings.TrimSuffix(name, "s")]
		return d, ok
	}
	return 0, false
}
