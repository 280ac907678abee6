package i18n

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/rendis/remap/internal/datefmt"
)

// Template is a compiled message in ICU MessageFormat syntax. Supported
// arguments: {name}, {name, number[, integer|percent]}, {name, date[, style]},
// {name, time[, style]}, {name, plural, ...} and {name, select, ...}.
type Template struct {
	source string
	tag    language.Tag
	parts  []part
}

// Compile parses source for the given locale.
func Compile(tag language.Tag, source string) (*Template, error) {
	p := &parser{src: source}
	parts, err := p.message(false)
	if err != nil {
		return nil, fmt.Errorf("message %q: %w", source, err)
	}
	return &Template{source: source, tag: tag, parts: parts}, nil
}

// Source returns the uncompiled message.
func (t *Template) Source() string {
	return t.source
}

// Format renders the template. A referenced value missing from values is an
// error.
func (t *Template) Format(values map[string]any) (string, error) {
	r := &renderer{printer: message.NewPrinter(t.tag), tag: t.tag, values: values}
	var b strings.Builder
	if err := r.render(&b, t.parts, nil); err != nil {
		return "", err
	}
	return b.String(), nil
}

// --- AST ---

type partKind int

const (
	partText partKind = iota
	partArg
	partPound
	partChoice
)

type part struct {
	kind    partKind
	text    string
	name    string
	format  string
	style   string
	options []option
}

type option struct {
	key   string
	parts []part
}

// --- Parser ---

type parser struct {
	src    string
	pos    int
	plural int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) message(nested bool) ([]part, error) {
	var parts []part
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			parts = append(parts, part{kind: partText, text: text.String()})
			text.Reset()
		}
	}

	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == '{':
			flush()
			arg, err := p.argument()
			if err != nil {
				return nil, err
			}
			parts = append(parts, arg)
		case c == '}':
			if !nested {
				return nil, fmt.Errorf("unexpected '}' at %d", p.pos)
			}
			flush()
			return parts, nil
		case c == '#' && p.plural > 0:
			flush()
			parts = append(parts, part{kind: partPound})
			p.pos++
		case c == '\'':
			text.WriteString(p.quoted())
		default:
			text.WriteByte(c)
			p.pos++
		}
	}
	if nested {
		return nil, errors.New("unterminated option message")
	}
	flush()
	return parts, nil
}

// quoted consumes an apostrophe sequence: ” is one apostrophe and a quote
// before a syntax character starts literal text up to the next apostrophe.
func (p *parser) quoted() string {
	p.pos++
	if p.eof() {
		return "'"
	}
	switch p.src[p.pos] {
	case '\'':
		p.pos++
		return "'"
	case '{', '}', '#':
		end := strings.IndexByte(p.src[p.pos:], '\'')
		if end < 0 {
			s := p.src[p.pos:]
			p.pos = len(p.src)
			return s
		}
		s := p.src[p.pos : p.pos+end]
		p.pos += end + 1
		return s
	}
	return "'"
}

func (p *parser) skipSpace() {
	for !p.eof() && strings.IndexByte(" \t\r\n", p.src[p.pos]) >= 0 {
		p.pos++
	}
}

// word reads up to the next delimiter in stops, trimmed.
func (p *parser) word(stops string) string {
	start := p.pos
	for !p.eof() && strings.IndexByte(stops, p.src[p.pos]) < 0 {
		p.pos++
	}
	return strings.TrimSpace(p.src[start:p.pos])
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.eof() || p.src[p.pos] != c {
		return fmt.Errorf("expected %q at %d", c, p.pos)
	}
	p.pos++
	return nil
}

func (p *parser) argument() (part, error) {
	start := p.pos
	p.pos++ // {
	name := p.word(",}")
	if name == "" {
		return part{}, fmt.Errorf("empty argument at %d", start)
	}
	if p.eof() {
		return part{}, fmt.Errorf("unterminated argument at %d", start)
	}
	if p.src[p.pos] == '}' {
		p.pos++
		return part{kind: partArg, name: name}, nil
	}
	p.pos++ // ,

	format := p.word(",}")
	if p.eof() {
		return part{}, fmt.Errorf("unterminated argument at %d", start)
	}
	switch format {
	case "plural", "select":
		if err := p.expect(','); err != nil {
			return part{}, err
		}
		options, err := p.options(format == "plural")
		if err != nil {
			return part{}, err
		}
		return part{kind: partChoice, name: name, format: format, options: options}, nil
	case "number", "date", "time":
	default:
		return part{}, fmt.Errorf("unsupported argument type %q", format)
	}

	var style string
	if p.src[p.pos] == ',' {
		p.pos++
		style = p.word("}")
	}
	if err := p.expect('}'); err != nil {
		return part{}, err
	}
	return part{kind: partArg, name: name, format: format, style: style}, nil
}

func (p *parser) options(isPlural bool) ([]option, error) {
	var options []option
	for {
		p.skipSpace()
		if p.eof() {
			return nil, errors.New("unterminated choice argument")
		}
		if p.src[p.pos] == '}' {
			p.pos++
			break
		}
		key := p.word(" \t\r\n{}")
		if key == "" {
			return nil, fmt.Errorf("missing option key at %d", p.pos)
		}
		if err := p.expect('{'); err != nil {
			return nil, err
		}
		if isPlural {
			p.plural++
		}
		parts, err := p.message(true)
		if isPlural {
			p.plural--
		}
		if err != nil {
			return nil, err
		}
		p.pos++ // }
		options = append(options, option{key: key, parts: parts})
	}
	for _, o := range options {
		if o.key == "other" {
			return options, nil
		}
	}
	return nil, errors.New("choice argument needs an \"other\" option")
}

// --- Rendering ---

type renderer struct {
	printer *message.Printer
	tag     language.Tag
	values  map[string]any
}

func (r *renderer) value(name string) (any, error) {
	v, ok := r.values[name]
	if !ok {
		return nil, fmt.Errorf("missing value for %q", name)
	}
	return v, nil
}

func (r *renderer) render(b *strings.Builder, parts []part, pound *float64) error {
	for _, p := range parts {
		switch p.kind {
		case partText:
			b.WriteString(p.text)
		case partPound:
			if pound != nil {
				b.WriteString(r.printer.Sprint(number.Decimal(*pound)))
			}
		case partArg:
			v, err := r.value(p.name)
			if err != nil {
				return err
			}
			s, err := r.argument(v, p.format, p.style)
			if err != nil {
				return fmt.Errorf("argument %q: %w", p.name, err)
			}
			b.WriteString(s)
		case partChoice:
			v, err := r.value(p.name)
			if err != nil {
				return err
			}
			if err := r.choice(b, p, v, pound); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *renderer) argument(v any, format, style string) (string, error) {
	switch format {
	case "number":
		n, ok := toFloat(v)
		if !ok {
			return "", fmt.Errorf("%v is not a number", v)
		}
		switch style {
		case "integer":
			return r.printer.Sprint(number.Decimal(math.Round(n), number.MaxFractionDigits(0))), nil
		case "percent":
			return r.printer.Sprint(number.Percent(n)), nil
		}
		return r.printer.Sprint(number.Decimal(n)), nil
	case "date", "time":
		t, ok := toTime(v)
		if !ok {
			return "", fmt.Errorf("%v is not a date", v)
		}
		return datefmt.Format(t, datePattern(format, style))
	}

	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case time.Time:
		return val.Format(time.RFC3339), nil
	}
	if n, ok := toFloat(v); ok {
		return r.printer.Sprint(number.Decimal(n)), nil
	}
	return fmt.Sprint(v), nil
}

var dateStyles = map[string]string{
	"date:":       "yyyy-MM-dd",
	"date:short":  "yyyy-MM-dd",
	"date:medium": "d MMM yyyy",
	"date:long":   "d MMMM yyyy",
	"date:full":   "EEEE d MMMM yyyy",
	"time:":       "HH:mm",
	"time:short":  "HH:mm",
	"time:medium": "HH:mm:ss",
	"time:long":   "HH:mm:ss X",
	"time:full":   "HH:mm:ss X",
}

// datePattern maps a named style to a pattern. Any other style is used as a
// pattern itself.
func datePattern(format, style string) string {
	if pattern, ok := dateStyles[format+":"+style]; ok {
		return pattern
	}
	return style
}

func (r *renderer) choice(b *strings.Builder, p part, v any, pound *float64) error {
	if p.format == "select" {
		key := fmt.Sprint(v)
		if s, ok := v.(string); ok {
			key = s
		}
		return r.render(b, pick(p.options, key, ""), pound)
	}

	n, ok := toFloat(v)
	if !ok {
		return fmt.Errorf("argument %q: %v is not a number", p.name, v)
	}
	exact := "=" + strconv.FormatFloat(n, 'f', -1, 64)
	return r.render(b, pick(p.options, exact, pluralCategory(r.tag, n)), &n)
}

// pick returns the option matching key, then fallback, then "other".
func pick(options []option, key, fallback string) []part {
	var other []part
	var fallbackParts []part
	for _, o := range options {
		switch o.key {
		case key:
			return o.parts
		case fallback:
			fallbackParts = o.parts
		}
		if o.key == "other" {
			other = o.parts
		}
	}
	if fallbackParts != nil {
		return fallbackParts
	}
	return other
}

var pluralForms = map[plural.Form]string{
	plural.Zero: "zero",
	plural.One:  "one",
	plural.Two:  "two",
	plural.Few:  "few",
	plural.Many: "many",
}

// pluralCategory selects the CLDR cardinal category of n for the locale.
func pluralCategory(tag language.Tag, n float64) string {
	s := strconv.FormatFloat(math.Abs(n), 'f', -1, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	i, _ := strconv.Atoi(intPart)
	f, _ := strconv.Atoi("0" + frac)
	trimmed := strings.TrimRight(frac, "0")
	t, _ := strconv.Atoi("0" + trimmed)

	form := plural.Cardinal.MatchPlural(tag, i, len(frac), len(trimmed), f, t)
	if name, ok := pluralForms[form]; ok {
		return name
	}
	return "other"
}

func toFloat(v any) (float64, bool) {
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

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", t)
		}
		return parsed, err == nil
	}
	if n, ok := toFloat(v); ok {
		return time.UnixMilli(int64(n)).UTC(), true
	}
	return time.Time{}, false
}
