package remap

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rendis/remap/internal/duration"
	"github.com/rendis/remap/internal/ics"
	"github.com/rendis/remap/internal/odata"
	"github.com/rendis/remap/internal/xmltree"
	"github.com/rendis/remap/pkg/schema"
)

// ContainerNamespace is the cluster namespace companion containers run in.
const ContainerNamespace = "companion-containers"

func generatorOperators() []Definition {
	return []Definition{
		{Name: "ics", Family: "generator", Description: "Build an iCalendar event from remapped fields", Run: opICS,
			Nested: nestedFields("start", "end", "duration", "title", "description", "url", "location", "coordinates")},
		{Name: "filter.from", Family: "generator", Description: "Build an OData $filter expression", Run: opFilterFrom, Nested: nestedFilter},
		{Name: "order.from", Family: "generator", Description: "Build an OData $orderby expression", Run: opOrderFrom},
		{Name: "xml.parse", Family: "generator", Description: "Parse an XML string into an object", Run: opXMLParse, Nested: nestedSelf},
		{Name: "container", Family: "generator", Description: "Internal URL of an app companion container", Run: opContainer},
		{Name: "log", Family: "generator", Description: "Log the input and context, then return the input", Run: opLog},
	}
}

// --- ics ---

func opICS(arg, input any, ctx *Context) (any, error) {
	fields, _ := arg.(map[string]any)
	values, err := evaluateProps(fields, input, ctx)
	if err != nil {
		return nil, err
	}

	event := &ics.Event{
		UID:         uuid.NewString(),
		Stamp:       ctx.now(),
		Title:       optionalString(values["title"]),
		Description: optionalString(values["description"]),
		URL:         optionalString(values["url"]),
		Location:    optionalString(values["location"]),
		Geo:         parseCoordinates(values["coordinates"]),
	}
	if t, ok := toTime(values["start"]); ok {
		start := ics.DateTimeOf(t)
		event.Start = &start
	}
	if v, ok := values["end"]; ok && v != nil {
		end := ics.DateTime{}
		if t, ok := toTime(v); ok {
			end = ics.DateTimeOf(t)
		}
		event.End = &end
	}
	if v, ok := values["duration"]; ok && v != nil {
		event.Duration = parseEventDuration(v)
	}

	out, err := ics.Render(event)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeEvent, err.Error()).WithCause(err)
	}
	return out, nil
}

func optionalString(v any) string {
	if v == nil {
		return ""
	}
	return stringify(v)
}

// parseEventDuration reads a duration expression, or a number of
// milliseconds. Anything unreadable is -1ns so that validation rejects it.
func parseEventDuration(v any) time.Duration {
	if n, ok := toNumber(v); ok {
		return time.Duration(n * float64(time.Millisecond))
	}
	if s, ok := v.(string); ok {
		if d, ok := duration.Parse(s); ok {
			return d
		}
	}
	return -1
}

// parseCoordinates accepts {lat, lng}, {lat, lon}, [lat, lng] or "lat,lng".
func parseCoordinates(v any) *ics.Geo {
	var lat, lon any
	switch c := v.(type) {
	case map[string]any:
		lat = c["lat"]
		if lon = c["lng"]; lon == nil {
			lon = c["lon"]
		}
	case []any:
		if len(c) != 2 {
			return nil
		}
		lat, lon = c[0], c[1]
	case string:
		parts := strings.Split(c, ",")
		if len(parts) != 2 {
			return nil
		}
		lat, lon = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	default:
		return nil
	}
	la, okLat := coordinate(lat)
	lo, okLon := coordinate(lon)
	if !okLat || !okLon {
		return nil
	}
	return &ics.Geo{Lat: la, Lon: lo}
}

func coordinate(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return toNumber(v)
}

// --- filter.from / order.from ---

func nestedFilter(arg any) []Nested {
	m, ok := arg.(map[string]any)
	if !ok {
		return nil
	}
	var out []Nested
	for _, field := range sortedKeys(m) {
		if opts, ok := m[field].(map[string]any); ok {
			if v, ok := opts["value"]; ok {
				out = append(out, Nested{Path: escapePointer(field) + "/value", Remapper: v})
			}
		}
	}
	return out
}

// opFilterFrom renders one clause per field in field name order. Fields with
// an unknown comparator or a value that does not fit its type are skipped.
func opFilterFrom(arg, input any, ctx *Context) (any, error) {
	m, _ := arg.(map[string]any)
	conditions := make([]odata.Condition, 0, len(m))
	for _, field := range sortedKeys(m) {
		opts, _ := m[field].(map[string]any)
		name, _ := opts["comparator"].(string)
		if name == "" {
			name = string(odata.Eq)
		}
		comparator, ok := odata.ParseComparator(name)
		if !ok {
			ctx.logger().Warn("filter.from comparator is unknown", "field", field, "comparator", name)
			continue
		}
		value, err := Evaluate(opts["value"], input, ctx)
		if err != nil {
			return nil, err
		}
		typ, _ := opts["type"].(string)
		cond := odata.Condition{Field: field, Comparator: comparator, Type: typ, Value: value}
		if _, err := cond.Clause(); err != nil {
			ctx.logger().Warn("filter.from value is invalid", "field", field, "error", err)
			continue
		}
		conditions = append(conditions, cond)
	}
	out, err := odata.Filter(conditions)
	if err != nil {
		return "", nil
	}
	return out, nil
}

// opOrderFrom accepts {field: direction} rendered in field name order, or a
// list of such mappings to control priority.
func opOrderFrom(arg, _ any, ctx *Context) (any, error) {
	var entries []map[string]any
	switch v := arg.(type) {
	case map[string]any:
		entries = append(entries, v)
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				entries = append(entries, m)
			}
		}
	}

	var orders []odata.Order
	for _, entry := range entries {
		for _, field := range sortedKeys(entry) {
			name, _ := entry[field].(string)
			dir, ok := odata.ParseDirection(name)
			if !ok {
				ctx.logger().Warn("order.from direction is unknown", "field", field, "direction", name)
				continue
			}
			orders = append(orders, odata.Order{Field: field, Direction: dir})
		}
	}
	return odata.OrderBy(orders), nil
}

// --- xml.parse ---

func opXMLParse(arg, input any, ctx *Context) (any, error) {
	v, err := Evaluate(arg, input, ctx)
	if err != nil {
		return nil, err
	}
	doc, ok := v.(string)
	if !ok {
		ctx.logger().Error("xml.parse input is not a string", "type", typeName(v))
		return map[string]any{}, nil
	}
	tree, err := xmltree.Parse(doc)
	if err != nil {
		ctx.logger().Error("xml.parse failed", "error", err)
		return map[string]any{}, nil
	}
	return tree, nil
}

// --- container ---

func opContainer(arg, _ any, ctx *Context) (any, error) {
	definition, _ := arg.(string)
	segment, rest, _ := strings.Cut(definition, "/")

	host := ctx.AppURL
	if _, after, found := strings.Cut(host, "://"); found {
		host = after
	}
	appName, _, _ := strings.Cut(host, ".")

	service := segment + "-" + appName + "-" + strconv.FormatInt(ctx.AppID, 10)
	service = strings.ReplaceAll(strings.ToLower(service), " ", "-")
	return "http://" + service + "." + ContainerNamespace + ".svc.cluster.local/" + rest, nil
}

// --- log ---

func opLog(arg, input any, ctx *Context) (any, error) {
	level := slog.LevelInfo
	switch arg {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	ctx.logger().Log(context.Background(), level, "remapper log",
		slog.Any("input", input),
		slog.Any("context", ctx.describe()),
	)
	return input, nil
}
