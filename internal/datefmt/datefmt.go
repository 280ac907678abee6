// Package datefmt formats and parses dates with Unicode style patterns such as
// "yyyy-MM-dd HH:mm" or "EEEE d MMMM". Text between single quotes is literal
// and two single quotes produce one.
package datefmt

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type token struct {
	letter  byte
	count   int
	literal string
}

func isPatternLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func tokenize(pattern string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch {
		case c == '\'':
			if i+1 < len(pattern) && pattern[i+1] == '\'' {
				tokens = append(tokens, token{literal: "'"})
				i += 2
				continue
			}
			end := strings.IndexByte(pattern[i+1:], '\'')
			if end < 0 {
				return nil, fmt.Errorf("unterminated quote at %d", i)
			}
			tokens = append(tokens, token{literal: strings.ReplaceAll(pattern[i+1:i+1+end], "''", "'")})
			i += end + 2
		case isPatternLetter(c):
			j := i
			for j < len(pattern) && pattern[j] == c {
				j++
			}
			tokens = append(tokens, token{letter: c, count: j - i})
			i = j
		default:
			j := i
			for j < len(pattern) && pattern[j] != '\'' && !isPatternLetter(pattern[j]) {
				j++
			}
			tokens = append(tokens, token{literal: pattern[i:j]})
			i = j
		}
	}
	return tokens, nil
}

func pad(n, width int) string {
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// Format renders t with pattern.
func Format(t time.Time, pattern string) (string, error) {
	tokens, err := tokenize(pattern)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, tok := range tokens {
		if tok.letter == 0 {
			b.WriteString(tok.literal)
			continue
		}
		s, err := formatToken(t, tok)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func formatToken(t time.Time, tok token) (string, error) {
	n := tok.count
	switch tok.letter {
	case 'y':
		if n == 2 {
			return pad(t.Year()%100, 2), nil
		}
		return pad(t.Year(), n), nil
	case 'M', 'L':
		switch {
		case n >= 4:
			return t.Month().String(), nil
		case n == 3:
			return t.Month().String()[:3], nil
		}
		return pad(int(t.Month()), n), nil
	case 'd':
		return pad(t.Day(), n), nil
	case 'D':
		return pad(t.YearDay(), n), nil
	case 'E':
		if n >= 4 {
			return t.Weekday().String(), nil
		}
		return t.Weekday().String()[:3], nil
	case 'H':
		return pad(t.Hour(), n), nil
	case 'h':
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		return pad(h, n), nil
	case 'm':
		return pad(t.Minute(), n), nil
	case 's':
		return pad(t.Second(), n), nil
	case 'S':
		frac := pad(t.Nanosecond(), 9)
		if n > 9 {
			n = 9
		}
		return frac[:n], nil
	case 'a':
		if t.Hour() < 12 {
			return "AM", nil
		}
		return "PM", nil
	case 'X':
		if _, offset := t.Zone(); offset == 0 {
			return "Z", nil
		}
		fallthrough
	case 'x':
		switch n {
		case 1:
			return t.Format("-07"), nil
		case 2:
			return t.Format("-0700"), nil
		}
		return t.Format("-07:00"), nil
	case 'T':
		return strconv.FormatInt(t.UnixMilli(), 10), nil
	case 't':
		return strconv.FormatInt(t.Unix(), 10), nil
	}
	return "", fmt.Errorf("unsupported pattern letter %q", string(tok.letter))
}

// scanner reads a value against pattern tokens. Literals match verbatim, so
// text in them never acts as a field.
type scanner struct {
	value string
	pos   int
}

func (sc *scanner) literal(lit string) error {
	if !strings.HasPrefix(sc.value[sc.pos:], lit) {
		return fmt.Errorf("expected %q at %d", lit, sc.pos)
	}
	sc.pos += len(lit)
	return nil
}

// number reads between lo and hi decimal digits.
func (sc *scanner) number(lo, hi int) (int, error) {
	end := sc.pos
	for end < len(sc.value) && end-sc.pos < hi && sc.value[end] >= '0' && sc.value[end] <= '9' {
		end++
	}
	if end-sc.pos < lo {
		return 0, fmt.Errorf("expected %d digits at %d", lo, sc.pos)
	}
	n, err := strconv.Atoi(sc.value[sc.pos:end])
	if err != nil {
		return 0, err
	}
	sc.pos = end
	return n, nil
}

// name matches the longest candidate case-insensitively and returns its index.
func (sc *scanner) name(candidates []string) (int, error) {
	best, bestLen := -1, 0
	rest := sc.value[sc.pos:]
	for i, c := range candidates {
		if len(c) > bestLen && len(rest) >= len(c) && strings.EqualFold(rest[:len(c)], c) {
			best, bestLen = i, len(c)
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("unexpected text at %d", sc.pos)
	}
	sc.pos += bestLen
	return best, nil
}

// offset reads +HH, +HHMM or +HH:MM. allowZ accepts "Z" for UTC.
func (sc *scanner) offset(allowZ bool) (*time.Location, error) {
	if allowZ && sc.pos < len(sc.value) && (sc.value[sc.pos] == 'Z' || sc.value[sc.pos] == 'z') {
		sc.pos++
		return time.UTC, nil
	}
	if sc.pos >= len(sc.value) || (sc.value[sc.pos] != '+' && sc.value[sc.pos] != '-') {
		return nil, fmt.Errorf("expected offset at %d", sc.pos)
	}
	sign := 1
	if sc.value[sc.pos] == '-' {
		sign = -1
	}
	sc.pos++
	hours, err := sc.number(2, 2)
	if err != nil {
		return nil, err
	}
	minutes := 0
	if sc.pos < len(sc.value) && sc.value[sc.pos] == ':' {
		sc.pos++
		if minutes, err = sc.number(2, 2); err != nil {
			return nil, err
		}
	} else if sc.pos+1 < len(sc.value) && isDigit(sc.value[sc.pos]) && isDigit(sc.value[sc.pos+1]) {
		if minutes, err = sc.number(2, 2); err != nil {
			return nil, err
		}
	}
	if hours > 23 || minutes > 59 {
		return nil, fmt.Errorf("offset out of range")
	}
	secs := sign * (hours*3600 + minutes*60)
	if secs == 0 {
		return time.UTC, nil
	}
	return time.FixedZone("", secs), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

var (
	monthNames     = []string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}
	monthShort     = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	weekdayNames   = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	meridiemLabels = []string{"AM", "PM"}
)

// width returns the digit bounds of a numeric field: one letter reads one
// or two digits, more letters read exactly that many.
func width(n int) (int, int) {
	if n == 1 {
		return 1, 2
	}
	return n, n
}

// Parse parses value with pattern. Values without an offset are read in loc.
func Parse(pattern, value string, loc *time.Location) (time.Time, error) {
	tokens, err := tokenize(pattern)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}

	year, month, day := 1970, 1, 1
	var hour, minute, second, nsec int
	meridiem := -1
	twelveHour := false
	zone := loc

	sc := &scanner{value: value}
	for _, tok := range tokens {
		if tok.letter == 0 {
			if err := sc.literal(tok.literal); err != nil {
				return time.Time{}, err
			}
			continue
		}
		n := tok.count
		switch tok.letter {
		case 'y':
			if n == 2 {
				yy, err := sc.number(2, 2)
				if err != nil {
					return time.Time{}, err
				}
				year = 2000 + yy
				if yy >= 69 {
					year = 1900 + yy
				}
				break
			}
			year, err = sc.number(max(n, 4), max(n, 4))
		case 'M', 'L':
			switch {
			case n >= 4:
				var i int
				i, err = sc.name(monthNames)
				month = i + 1
			case n == 3:
				var i int
				i, err = sc.name(monthShort)
				month = i + 1
			default:
				month, err = sc.number(width(n))
			}
		case 'd':
			day, err = sc.number(width(n))
		case 'E':
			_, err = sc.name(weekdayNames)
		case 'H':
			hour, err = sc.number(width(n))
		case 'h':
			twelveHour = true
			hour, err = sc.number(width(n))
		case 'm':
			minute, err = sc.number(width(n))
		case 's':
			second, err = sc.number(width(n))
		case 'S':
			digits := min(n, 9)
			var frac int
			frac, err = sc.number(digits, digits)
			for i := digits; i < 9; i++ {
				frac *= 10
			}
			nsec = frac
		case 'a':
			meridiem, err = sc.name(meridiemLabels)
		case 'X':
			zone, err = sc.offset(true)
		case 'x':
			zone, err = sc.offset(false)
		default:
			return time.Time{}, fmt.Errorf("unsupported pattern letter %q", string(tok.letter))
		}
		if err != nil {
			return time.Time{}, err
		}
	}
	if sc.pos != len(value) {
		return time.Time{}, fmt.Errorf("extra text %q", value[sc.pos:])
	}

	if twelveHour {
		if hour < 1 || hour > 12 {
			return time.Time{}, fmt.Errorf("hour %d out of range", hour)
		}
		hour %= 12
	}
	if meridiem == 1 && hour < 12 {
		hour += 12
	}
	if month < 1 || month > 12 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("date field out of range")
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, nsec, zone)
	if day < 1 || t.Day() != day {
		return time.Time{}, fmt.Errorf("day %d out of range", day)
	}
	return t, nil
}
