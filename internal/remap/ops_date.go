package remap

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rendis/remap/internal/datefmt"
	"github.com/rendis/remap/internal/duration"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func dateOperators() []Definition {
	return []Definition{
		{Name: "date.now", Family: "date", Description: "Return the current instant", Run: opDateNow},
		{Name: "date.parse", Family: "date", Description: "Parse the input with a pattern or as ISO 8601", Run: opDateParse},
		{Name: "date.add", Family: "date", Description: "Add a duration expression to the input date", Run: opDateAdd, Nested: nestedSelf},
		{Name: "date.format", Family: "date", Description: "Render the input date with a pattern or as ISO 8601", Run: opDateFormat},
		{Name: "date.next", Family: "date", Description: "Next occurrence of a cron schedule after the input date", Run: opDateNext, Check: checkSchedule},
	}
}

func opDateNow(_, _ any, ctx *Context) (any, error) {
	return ctx.now(), nil
}

func opDateParse(arg, input any, ctx *Context) (any, error) {
	if t, ok := input.(time.Time); ok {
		return t, nil
	}
	s, ok := input.(string)
	if !ok {
		return nil, nil
	}
	pattern, _ := arg.(string)
	if pattern == "" {
		t, ok := parseISO(s)
		if !ok {
			return nil, nil
		}
		return t, nil
	}
	t, err := datefmt.Parse(pattern, s, ctx.location())
	if err != nil {
		return nil, nil
	}
	return t, nil
}

func opDateAdd(arg, input any, ctx *Context) (any, error) {
	expr, err := Evaluate(arg, input, ctx)
	if err != nil {
		return nil, err
	}
	s, ok := expr.(string)
	if !ok {
		return input, nil
	}
	d, ok := duration.Parse(s)
	if !ok || d == 0 {
		return input, nil
	}
	t, ok := toTime(input)
	if !ok {
		return input, nil
	}
	return t.Add(d), nil
}

func opDateFormat(arg, input any, ctx *Context) (any, error) {
	t, ok := toTime(input)
	if !ok {
		return nil, nil
	}
	pattern, _ := arg.(string)
	if pattern == "" {
		return formatISO(t), nil
	}
	out, err := datefmt.Format(t.In(ctx.location()), pattern)
	if err != nil {
		ctx.logger().Warn("date.format pattern is invalid", "pattern", pattern, "error", err)
		return nil, nil
	}
	return out, nil
}

func checkSchedule(arg any) error {
	expr, _ := arg.(string)
	_, err := cronParser.Parse(expr)
	return err
}

func opDateNext(arg, input any, ctx *Context) (any, error) {
	expr, _ := arg.(string)
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		ctx.logger().Warn("date.next schedule is invalid", "schedule", expr, "error", err)
		return nil, nil
	}
	from, ok := toTime(input)
	if !ok {
		from = ctx.now()
	}
	next := schedule.Next(from.In(ctx.location()))
	if next.IsZero() {
		return nil, nil
	}
	return next, nil
}
