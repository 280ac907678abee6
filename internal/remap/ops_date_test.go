package remap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

func clockContext() *Context {
	return &Context{Now: func() time.Time { return fixedNow }}
}

func TestDate_Now(t *testing.T) {
	assert.Equal(t, fixedNow, run(t, map[string]any{"date.now": nil}, nil, clockContext()))

	out := run(t, map[string]any{"date.now": nil}, nil, nil)
	assert.WithinDuration(t, time.Now(), out.(time.Time), time.Minute)
}

func TestDate_Parse(t *testing.T) {
	ctx := clockContext()
	tests := []struct {
		name string
		arg  any
		in   any
		want any
	}{
		{"iso", nil, "2024-03-15T10:30:00Z", fixedNow},
		{"iso with offset", "", "2024-03-15T12:30:00+02:00", fixedNow},
		{"iso date only", nil, "2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"pattern", "dd/MM/yyyy HH:mm", "15/03/2024 10:30", fixedNow},
		{"date passes through", nil, fixedNow, fixedNow},
		{"invalid", nil, "not a date", nil},
		{"pattern mismatch", "yyyy-MM-dd", "15/03/2024", nil},
		{"number", nil, 12.0, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := run(t, map[string]any{"date.parse": tc.arg}, tc.in, ctx)
			if tc.want == nil {
				assert.Nil(t, out)
				return
			}
			require.IsType(t, time.Time{}, out)
			assert.True(t, tc.want.(time.Time).Equal(out.(time.Time)), "got %v", out)
		})
	}
}

func TestDate_ParseInTimeZone(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	out := run(t, map[string]any{"date.parse": "yyyy-MM-dd HH:mm"}, "2024-03-15 12:30", &Context{TimeZone: loc})
	assert.True(t, fixedNow.Equal(out.(time.Time)))
}

func TestDate_Add(t *testing.T) {
	ctx := clockContext()
	tests := []struct {
		name string
		arg  any
		in   any
		want any
	}{
		{"hours", "2h", fixedNow, fixedNow.Add(2 * time.Hour)},
		{"days", "1 day", fixedNow, fixedNow.Add(24 * time.Hour)},
		{"negative", "-30m", fixedNow, fixedNow.Add(-30 * time.Minute)},
		{"epoch millis", "1s", 0.0, time.UnixMilli(1000).UTC()},
		{"iso string", "1h", "2024-03-15T10:30:00Z", fixedNow.Add(time.Hour)},
		{"computed duration on non-date", map[string]any{"prop": "d"}, map[string]any{"d": "1h"}, map[string]any{"d": "1h"}},
		{"invalid duration", "soon", fixedNow, fixedNow},
		{"invalid date", "1h", "never", "never"},
		{"epoch millis out of range", "1h", 1e300, 1e300},
		{"epoch millis beyond date limit", "1h", -8.7e15, -8.7e15},
		{"duration overflow", "1000000000 years", fixedNow, fixedNow},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, run(t, map[string]any{"date.add": tc.arg}, tc.in, ctx))
		})
	}
}

func TestDate_Format(t *testing.T) {
	tests := []struct {
		name string
		arg  any
		in   any
		ctx  *Context
		want any
	}{
		{"iso", nil, fixedNow, nil, "2024-03-15T10:30:00.000Z"},
		{"pattern", "yyyy-MM-dd HH:mm", fixedNow, nil, "2024-03-15 10:30"},
		{"names", "EEEE d MMMM", fixedNow, nil, "Friday 15 March"},
		{"quoted", "HH'h'mm", fixedNow, nil, "10h30"},
		{"epoch millis", "yyyy", 0.0, nil, "1970"},
		{"string input", nil, "2024-03-15T12:30:00+02:00", nil, "2024-03-15T10:30:00.000Z"},
		{"time zone", "HH:mm", fixedNow, &Context{TimeZone: time.FixedZone("UTC+2", 2*3600)}, "12:30"},
		{"invalid input", nil, "nope", nil, nil},
		{"epoch millis out of range", "yyyy", 1e300, nil, nil},
		{"epoch millis at date limit", "yyyy", 8.64e15, nil, "275760"},
		{"invalid pattern", "qqq", fixedNow, nil, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, run(t, map[string]any{"date.format": tc.arg}, tc.in, tc.ctx))
		})
	}
}

func TestDate_Next(t *testing.T) {
	ctx := clockContext()

	out := run(t, map[string]any{"date.next": "0 9 * * *"}, fixedNow, ctx)
	assert.WithinDuration(t, time.Date(2024, time.March, 16, 9, 0, 0, 0, time.UTC), out.(time.Time), 0)

	out = run(t, map[string]any{"date.next": "@hourly"}, nil, ctx)
	assert.WithinDuration(t, time.Date(2024, time.March, 15, 11, 0, 0, 0, time.UTC), out.(time.Time), 0)

	logCtx, logs := captureLogs()
	assert.Nil(t, run(t, map[string]any{"date.next": "not cron"}, fixedNow, logCtx))
	assert.Contains(t, logs.String(), "date.next schedule is invalid")
}
