package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/remap/internal/engine"
	"github.com/rendis/remap/internal/i18n"
	"github.com/rendis/remap/internal/logging"
	"github.com/rendis/remap/internal/remap"
)

func newExecutor(t *testing.T) engine.Executor {
	t.Helper()
	catalog, err := i18n.Load([]byte("en:\n  hi: \"Hello {name}\"\n"), "en")
	require.NoError(t, err)
	exec, err := engine.NewExecutor(engine.Config{
		Catalog:  catalog,
		MaxDepth: 8,
		Defaults: remap.Environment{AppID: 5, AppURL: "https://demo.example.com"},
	})
	require.NoError(t, err)
	t.Cleanup(exec.Close)
	return exec
}

func newServer(t *testing.T) (*RemapServer, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewRemapServer(RemapServerDeps{
		Executor: newExecutor(t),
		Logger:   logging.New(&buf, slog.LevelDebug, false),
	}), &buf
}

// --- Helper ---

func buildRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: args,
		},
	}
}

// --- remap.evaluate ---

func TestEvaluateTool(t *testing.T) {
	s, _ := newServer(t)

	req := buildRequest("remap.evaluate", map[string]any{
		"remapper": "- prop: user\n- object.from:\n    name: {prop: name}\n    app: {app: id}\n",
		"input":    `{"user": {"name": "Ada", "password": "x"}}`,
	})

	result, err := s.handleEvaluate(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))

	var got struct {
		EvaluationID string         `json:"evaluation_id"`
		Output       map[string]any `json:"output"`
	}
	unmarshalResult(t, result, &got)
	assert.NotEmpty(t, got.EvaluationID)
	assert.Equal(t, map[string]any{"name": "Ada", "app": 5.0}, got.Output)
}

func TestEvaluateToolContextAndMessages(t *testing.T) {
	s, _ := newServer(t)

	req := buildRequest("remap.evaluate", map[string]any{
		"remapper": `[{"string.format": {"messageId": "hi", "values": {"name": {"context": "who"}}}}]`,
		"context":  map[string]any{"appId": 9, "context": map[string]any{"who": "Grace"}},
		"locale":   "nl",
		"messages": map[string]any{"hi": "Hallo {name}"},
	})

	result, err := s.handleEvaluate(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))

	var got map[string]any
	unmarshalResult(t, result, &got)
	assert.Equal(t, "Hallo Grace", got["output"])
}

func TestEvaluateToolInputs(t *testing.T) {
	s, _ := newServer(t)

	req := buildRequest("remap.evaluate", map[string]any{
		"remapper": `{"string.case": "upper"}`,
		"inputs":   `["a", "b", 3]`,
	})

	result, err := s.handleEvaluate(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))

	var got struct {
		Results []struct {
			Output any `json:"output"`
		} `json:"results"`
	}
	unmarshalResult(t, result, &got)
	require.Len(t, got.Results, 3)
	assert.Equal(t, "A", got.Results[0].Output)
	assert.Equal(t, "B", got.Results[1].Output)
	assert.Equal(t, 3.0, got.Results[2].Output)
}

func TestEvaluateToolErrors(t *testing.T) {
	s, logs := newServer(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing remapper", map[string]any{}, "remapper is required"},
		{"bad remapper", map[string]any{"remapper": "{"}, "invalid remapper"},
		{"bad input", map[string]any{"remapper": "x", "input": "{"}, "invalid input"},
		{"inputs not a list", map[string]any{"remapper": "x", "inputs": `{"a": 1}`}, "inputs must be a list"},
		{"bad messages", map[string]any{"remapper": "x", "messages": map[string]any{"hi": 3}}, "invalid messages"},
		{"unknown operator", map[string]any{"remapper": `{"nope": 1}`}, "UNKNOWN_OPERATOR"},
		{"too deep", map[string]any{"remapper": `{"array.map": {"array.map": {"array.map": {"array.map": {"array.map": {"array.map": {"array.map": {"array.map": {"prop": "x"}}}}}}}}}`}, "MAX_DEPTH"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := s.handleEvaluate(context.Background(), buildRequest("remap.evaluate", tc.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractText(t, result), tc.want)
		})
	}
	assert.Contains(t, logs.String(), "remap.evaluate failed")
}

// --- remap.validate ---

func TestValidateTool(t *testing.T) {
	s, _ := newServer(t)

	result, err := s.handleValidate(context.Background(), buildRequest("remap.validate", map[string]any{
		"remapper": `[{"prop": "a"}, {"nope": 1}, {"jq": ".a |||"}]`,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var got struct {
		Valid    bool             `json:"valid"`
		Errors   []map[string]any `json:"errors"`
		Warnings []map[string]any `json:"warnings"`
	}
	unmarshalResult(t, result, &got)
	assert.False(t, got.Valid)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, "UNKNOWN_OPERATOR", got.Errors[0]["code"])
	assert.Equal(t, "/1/nope", got.Errors[0]["path"])
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, "EXPRESSION_ERROR", got.Warnings[0]["code"])
}

func TestValidateToolValid(t *testing.T) {
	s, _ := newServer(t)

	result, err := s.handleValidate(context.Background(), buildRequest("remap.validate", map[string]any{
		"remapper": "prop: a",
	}))
	require.NoError(t, err)

	var got map[string]any
	unmarshalResult(t, result, &got)
	assert.Equal(t, true, got["valid"])
	assert.Equal(t, []any{}, got["errors"])
}

func TestValidateToolMissingRemapper(t *testing.T) {
	s, _ := newServer(t)
	result, err := s.handleValidate(context.Background(), buildRequest("remap.validate", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// --- remap.operators ---

func TestOperatorsTool(t *testing.T) {
	s, _ := newServer(t)

	result, err := s.handleOperators(context.Background(), buildRequest("remap.operators", nil))
	require.NoError(t, err)

	var all struct {
		Count     int            `json:"count"`
		Operators []operatorInfo `json:"operators"`
	}
	unmarshalResult(t, result, &all)
	assert.Equal(t, len(remap.Definitions()), all.Count)

	result, err = s.handleOperators(context.Background(), buildRequest("remap.operators", map[string]any{"family": "expression"}))
	require.NoError(t, err)

	var exprs struct {
		Operators []operatorInfo `json:"operators"`
	}
	unmarshalResult(t, result, &exprs)
	names := make([]string, 0, len(exprs.Operators))
	for _, op := range exprs.Operators {
		names = append(names, op.Name)
	}
	assert.Equal(t, []string{"cel", "expr", "jq"}, names)
}

func TestParseEnvironment(t *testing.T) {
	env, err := parseEnvironment(map[string]any{"appId": 3, "locale": "fr", "history": []any{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), env.AppID)
	assert.Equal(t, "fr", env.Locale)
	assert.Len(t, env.History, 2)

	_, err = parseEnvironment(map[string]any{"appId": "three"})
	assert.Error(t, err)
}

// --- Test helpers ---

func extractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	return mcp.GetTextFromContent(result.Content[0])
}

func unmarshalResult(t *testing.T, result *mcp.CallToolResult, target any) {
	t.Helper()
	text := extractText(t, result)
	require.NoError(t, json.Unmarshal([]byte(text), target))
}
