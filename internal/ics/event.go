// Package ics builds single-event iCalendar documents.
package ics

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DateTime is a UTC date as year, month, day, hour, minute.
type DateTime [5]int

// DateTimeOf returns the UTC fields of t.
func DateTimeOf(t time.Time) DateTime {
	u := t.UTC()
	return DateTime{u.Year(), int(u.Month()), u.Day(), u.Hour(), u.Minute()}
}

// Time converts the fields back to an instant.
func (d DateTime) Time() time.Time {
	return time.Date(d[0], time.Month(d[1]), d[2], d[3], d[4], 0, 0, time.UTC)
}

func (d DateTime) valid() bool {
	return d[1] >= 1 && d[1] <= 12 &&
		d[2] >= 1 && d[2] <= 31 &&
		d[3] >= 0 && d[3] <= 23 &&
		d[4] >= 0 && d[4] <= 59 &&
		d.Time().Day() == d[2]
}

// Geo is a latitude/longitude pair.
type Geo struct {
	Lat float64
	Lon float64
}

// Event is one calendar event. Exactly one of End and Duration must be set.
type Event struct {
	UID         string
	Stamp       time.Time
	Title       string
	Start       *DateTime
	End         *DateTime
	Duration    time.Duration
	Description string
	URL         string
	Location    string
	Geo         *Geo
}

// FieldError is one invalid field of an Event.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every invalid field of an Event.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return "invalid event: " + strings.Join(parts, "; ")
}

// Validate checks the event and returns a *ValidationError when invalid.
func (e *Event) Validate() error {
	var errs []FieldError
	add := func(field, msg string) {
		errs = append(errs, FieldError{Field: field, Message: msg})
	}

	if strings.TrimSpace(e.Title) == "" {
		add("title", "is required")
	}
	switch {
	case e.Start == nil:
		add("start", "is required")
	case !e.Start.valid():
		add("start", "is not a valid date")
	}
	switch {
	case e.End != nil && e.Duration != 0:
		add("end", "cannot be combined with duration")
	case e.End == nil && e.Duration == 0:
		add("end", "or duration is required")
	case e.End != nil && !e.End.valid():
		add("end", "is not a valid date")
	case e.End != nil && e.Start != nil && e.Start.valid() && e.End.Time().Before(e.Start.Time()):
		add("end", "is before start")
	case e.Duration < 0:
		add("duration", "must be positive")
	}
	if e.URL != "" {
		if u, err := url.Parse(e.URL); err != nil || u.Scheme == "" || u.Host == "" {
			add("url", "must be an absolute URL")
		}
	}
	if e.Geo != nil {
		if e.Geo.Lat < -90 || e.Geo.Lat > 90 {
			add("geo.lat", "must be between -90 and 90")
		}
		if e.Geo.Lon < -180 || e.Geo.Lon > 180 {
			add("geo.lon", "must be between -180 and 180")
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

const productID = "-//rendis//remap//EN"

// Render validates the event and returns it as an iCalendar document.
func Render(e *Event) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	var w writer
	w.line("BEGIN", "VCALENDAR")
	w.line("VERSION", "2.0")
	w.line("CALSCALE", "GREGORIAN")
	w.line("PRODID", productID)
	w.line("METHOD", "PUBLISH")
	w.line("X-PUBLISHED-TTL", "PT1H")
	w.line("BEGIN", "VEVENT")
	if e.UID != "" {
		w.line("UID", e.UID)
	}
	w.line("SUMMARY", escapeText(e.Title))
	if !e.Stamp.IsZero() {
		w.line("DTSTAMP", formatUTC(e.Stamp))
	}
	w.line("DTSTART", formatUTC(e.Start.Time()))
	if e.End != nil {
		w.line("DTEND", formatUTC(e.End.Time()))
	} else {
		w.line("DURATION", formatDuration(e.Duration))
	}
	if e.Description != "" {
		w.line("DESCRIPTION", escapeText(e.Description))
	}
	if e.URL != "" {
		w.line("URL", e.URL)
	}
	if e.Geo != nil {
		w.line("GEO", strconv.FormatFloat(e.Geo.Lat, 'f', -1, 64)+";"+strconv.FormatFloat(e.Geo.Lon, 'f', -1, 64))
	}
	if e.Location != "" {
		w.line("LOCATION", escapeText(e.Location))
	}
	w.line("END", "VEVENT")
	w.line("END", "VCALENDAR")
	return w.String(), nil
}

func formatUTC(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// formatDuration renders a positive duration in the iCalendar form PT1H30M.
func formatDuration(d time.Duration) string {
	total := int64(d / time.Minute)
	days := total / (24 * 60)
	hours := total % (24 * 60) / 60
	minutes := total % 60

	var b strings.Builder
	b.WriteString("P")
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if hours > 0 || minutes > 0 || days == 0 {
		b.WriteString("T")
		if hours > 0 {
			fmt.Fprintf(&b, "%dH", hours)
		}
		if minutes > 0 || hours == 0 {
			fmt.Fprintf(&b, "%dM", minutes)
		}
	}
	return b.String()
}

var textEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// writer emits CRLF-terminated content lines folded at 75 octets.
type writer struct {
	strings.Builder
}

func (w *writer) line(name, value string) {
	content := name + ":" + value
	for len(content) > 75 {
		cut := 75
		for cut > 0 && !isRuneStart(content[cut]) {
			cut--
		}
		w.WriteString(content[:cut])
		w.WriteString("\r\n ")
		content = content[cut:]
	}
	w.WriteString(content)
	w.WriteString("\r\n")
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
