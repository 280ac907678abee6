package remap

import (
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata" // IANA zones for TimeZone on hosts without zoneinfo

	"github.com/rendis/remap/pkg/schema"
)

// Environment is the serializable part of a Context, as supplied by the CLI
// and MCP surfaces in a JSON or YAML file.
type Environment struct {
	AppID     int64          `json:"appId,omitempty" yaml:"appId"`
	AppURL    string         `json:"appUrl,omitempty" yaml:"appUrl"`
	URL       string         `json:"url,omitempty" yaml:"url"`
	Locale    string         `json:"locale,omitempty" yaml:"locale"`
	PageName  string         `json:"pageName,omitempty" yaml:"pageName"`
	PageData  any            `json:"pageData,omitempty" yaml:"pageData"`
	Member    map[string]any `json:"member,omitempty" yaml:"member"`
	Group     map[string]any `json:"group,omitempty" yaml:"group"`
	Context   map[string]any `json:"context,omitempty" yaml:"context"`
	History   []any          `json:"history,omitempty" yaml:"history"`
	Variables map[string]any `json:"variables,omitempty" yaml:"variables"`
	Step      any            `json:"step,omitempty" yaml:"step"`
	Tab       any            `json:"tab,omitempty" yaml:"tab"`
	TimeZone  string         `json:"timeZone,omitempty" yaml:"timeZone"`
}

// NewContext builds an evaluation Context from env. messages may be nil.
func NewContext(env Environment, messages MessageLookup, logger *slog.Logger) (*Context, error) {
	ctx := &Context{
		AppID:      env.AppID,
		AppURL:     env.AppURL,
		URL:        env.URL,
		Locale:     env.Locale,
		PageName:   env.PageName,
		PageData:   schema.Normalize(env.PageData),
		Member:     normalizeMap(env.Member),
		Group:      normalizeMap(env.Group),
		Context:    normalizeMap(env.Context),
		GetMessage: messages,
		Step:       NewCell(schema.Normalize(env.Step)),
		Tab:        NewCell(schema.Normalize(env.Tab)),
		Logger:     logger,
	}
	if env.History != nil {
		ctx.History, _ = schema.Normalize(env.History).([]any)
	}
	if env.Variables != nil {
		vars := normalizeMap(env.Variables)
		ctx.GetVariable = func(name string) any { return vars[name] }
	}
	if env.TimeZone != "" {
		loc, err := time.LoadLocation(env.TimeZone)
		if err != nil {
			return nil, schema.NewError(schema.ErrCodeDocument, fmt.Sprintf("unknown time zone %q", env.TimeZone)).WithCause(err)
		}
		ctx.TimeZone = loc
	}
	return ctx, nil
}

func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out, _ := schema.Normalize(m).(map[string]any)
	return out
}
