package engine

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/remap/internal/i18n"
	"github.com/rendis/remap/internal/logging"
	"github.com/rendis/remap/internal/remap"
	"github.com/rendis/remap/pkg/schema"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func newTestExecutor(t *testing.T, cfg Config) Executor {
	t.Helper()
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return fixedNow }
	}
	exec, err := NewExecutor(cfg)
	require.NoError(t, err)
	t.Cleanup(exec.Close)
	return exec
}

func doc(t *testing.T, src string) any {
	t.Helper()
	v, err := schema.ParseDocument([]byte(src))
	require.NoError(t, err)
	return v
}

// --- Evaluate ---

func TestEvaluate_Pipeline(t *testing.T) {
	exec := newTestExecutor(t, Config{})

	result, err := exec.Evaluate(context.Background(), Request{
		Remapper: doc(t, `[{"prop": "items"}, {"array.map": {"prop": "name"}}, {"array.join": ", "}]`),
		Input:    map[string]any{"items": []any{map[string]any{"name": "a"}, map[string]any{"name": "b"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "a, b", result.Output)
	assert.NotEmpty(t, result.EvaluationID)
	assert.Nil(t, result.Error)
}

func TestEvaluate_NormalizesInput(t *testing.T) {
	exec := newTestExecutor(t, Config{})

	result, err := exec.Evaluate(context.Background(), Request{
		Remapper: doc(t, `{"maths": {"a": {"prop": "n"}, "b": 2, "operation": "add"}}`),
		Input:    map[string]any{"n": 40},
	})
	require.NoError(t, err)
	assert.Equal(t, 42.0, result.Output)
}

func TestEvaluate_Defaults(t *testing.T) {
	exec := newTestExecutor(t, Config{Defaults: remap.Environment{AppID: 7, AppURL: "https://demo.example.com", Locale: "nl"}})

	result, err := exec.Evaluate(context.Background(), Request{
		Remapper: doc(t, `{"array.from": [{"app": "id"}, {"app": "url"}, {"app": "locale"}, {"date.now": null}]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []any{7.0, "https://demo.example.com", "nl", fixedNow}, result.Output)

	result, err = exec.Evaluate(context.Background(), Request{
		Remapper: doc(t, `{"app": "id"}`),
		Env:      remap.Environment{AppID: 9},
	})
	require.NoError(t, err)
	assert.Equal(t, 9.0, result.Output)
}

func TestEvaluate_RejectsInvalidDocuments(t *testing.T) {
	exec := newTestExecutor(t, Config{MaxDepth: 2})

	_, err := exec.Evaluate(context.Background(), Request{Remapper: doc(t, `{"nope": 1}`)})
	assert.True(t, schema.IsCode(err, schema.ErrCodeUnknownOperator))

	_, err = exec.Evaluate(context.Background(), Request{
		Remapper: doc(t, `{"array.map": {"array.map": {"prop": "x"}}}`),
	})
	assert.True(t, schema.IsCode(err, schema.ErrCodeMaxDepth))
}

func TestEvaluate_RejectsUnknownTimeZone(t *testing.T) {
	exec := newTestExecutor(t, Config{})

	_, err := exec.Evaluate(context.Background(), Request{
		Remapper: "x",
		Env:      remap.Environment{TimeZone: "Mars/Olympus"},
	})
	assert.True(t, schema.IsCode(err, schema.ErrCodeDocument))
}

func TestEvaluate_EventErrorIsReturned(t *testing.T) {
	exec := newTestExecutor(t, Config{})

	result, err := exec.Evaluate(context.Background(), Request{
		Remapper: doc(t, `{"ics": {"title": "Standup", "start": "2024-03-15T09:00:00Z"}}`),
	})
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeEvent))
	require.NotNil(t, result)
	assert.Equal(t, schema.ErrCodeEvent, result.Error.Code)
}

func TestEvaluate_CancelledContext(t *testing.T) {
	exec := newTestExecutor(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Evaluate(ctx, Request{Remapper: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

// --- Messages ---

func TestEvaluate_CatalogAndOverrides(t *testing.T) {
	catalog, err := i18n.Load([]byte("en:\n  hi: \"Hello {name}\"\nnl:\n  hi: \"Hallo {name}\"\n"), "en")
	require.NoError(t, err)
	exec := newTestExecutor(t, Config{Catalog: catalog})

	remapper := doc(t, `{"string.format": {"messageId": "hi", "values": {"name": {"prop": "name"}}}}`)
	input := map[string]any{"name": "Ada"}

	result, err := exec.Evaluate(context.Background(), Request{Remapper: remapper, Input: input})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada", result.Output)

	result, err = exec.Evaluate(context.Background(), Request{Remapper: remapper, Input: input, Env: remap.Environment{Locale: "nl-BE"}})
	require.NoError(t, err)
	assert.Equal(t, "Hallo Ada", result.Output)

	result, err = exec.Evaluate(context.Background(), Request{
		Remapper: remapper,
		Input:    input,
		Env:      remap.Environment{Locale: "nl"},
		Messages: map[string]string{"hi": "Dag {name}"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dag Ada", result.Output)

	// The override did not leak into the shared catalog.
	tpl, ok := catalog.Message("nl", "hi")
	require.True(t, ok)
	assert.Equal(t, "Hallo {name}", tpl.Source())
}

func TestEvaluate_InvalidOverride(t *testing.T) {
	exec := newTestExecutor(t, Config{})

	_, err := exec.Evaluate(context.Background(), Request{
		Remapper: doc(t, `{"translate": "hi"}`),
		Messages: map[string]string{"hi": "{name"},
	})
	assert.True(t, schema.IsCode(err, schema.ErrCodeDocument))
}

// --- Logging ---

func TestEvaluate_LogsWithCorrelationIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelDebug, false)
	exec := newTestExecutor(t, Config{Logger: logger, Defaults: remap.Environment{AppID: 3}})

	result, err := exec.Evaluate(context.Background(), Request{
		Remapper: doc(t, `{"log": "info"}`),
		Input:    "payload",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "remapper log")
	assert.Contains(t, out, "evaluation_id="+result.EvaluationID)
	assert.Contains(t, out, "app_id=3")
}

func TestEvaluate_LogsValidationWarnings(t *testing.T) {
	var buf bytes.Buffer
	exec := newTestExecutor(t, Config{Logger: logging.New(&buf, slog.LevelInfo, false)})

	result, err := exec.Evaluate(context.Background(), Request{Remapper: doc(t, `{"jq": ".a |||"}`)})
	require.NoError(t, err)
	assert.Nil(t, result.Output)
	assert.Contains(t, buf.String(), "remapper validation warning")
}

// --- EvaluateEach ---

func TestEvaluateEach(t *testing.T) {
	exec := newTestExecutor(t, Config{PoolSize: 3})

	inputs := make([]any, 20)
	for i := range inputs {
		inputs[i] = map[string]any{"n": float64(i)}
	}
	results, err := exec.EvaluateEach(context.Background(), Request{
		Remapper: doc(t, `{"maths": {"a": {"prop": "n"}, "b": 2, "operation": "multiply"}}`),
	}, inputs)
	require.NoError(t, err)
	require.Len(t, results, 20)

	ids := make(map[string]struct{})
	for i, r := range results {
		require.Nil(t, r.Error, "input %d", i)
		assert.Equal(t, float64(i*2), r.Output)
		ids[r.EvaluationID] = struct{}{}
	}
	assert.Len(t, ids, 20)
}

func TestEvaluateEach_PerInputErrors(t *testing.T) {
	exec := newTestExecutor(t, Config{})

	results, err := exec.EvaluateEach(context.Background(), Request{
		Remapper: doc(t, `{"ics": {"title": {"prop": "title"}, "start": "2024-03-15T09:00:00Z", "duration": "1h"}}`),
	}, []any{map[string]any{"title": "ok"}, map[string]any{}})
	require.NoError(t, err)

	assert.Nil(t, results[0].Error)
	assert.Contains(t, results[0].Output, "SUMMARY:ok")
	require.NotNil(t, results[1].Error)
	assert.Equal(t, schema.ErrCodeEvent, results[1].Error.Code)
}

func TestEvaluateEach_InvalidDocument(t *testing.T) {
	exec := newTestExecutor(t, Config{})

	results, err := exec.EvaluateEach(context.Background(), Request{Remapper: doc(t, `{}`)}, []any{1.0})
	assert.True(t, schema.IsCode(err, schema.ErrCodeMalformedRemapper))
	assert.Nil(t, results)
}

func TestEvaluateEach_AfterClose(t *testing.T) {
	exec, err := NewExecutor(Config{})
	require.NoError(t, err)
	exec.Close()

	results, err := exec.EvaluateEach(context.Background(), Request{Remapper: "x"}, []any{1.0, 2.0})
	require.NoError(t, err)
	for _, r := range results {
		require.NotNil(t, r.Error)
		assert.Equal(t, schema.ErrCodeCancelled, r.Error.Code)
	}
}

func TestValidate(t *testing.T) {
	exec := newTestExecutor(t, Config{})
	assert.True(t, exec.Validate(doc(t, `{"prop": "a"}`)).Valid())
	assert.False(t, exec.Validate(doc(t, `[{"prop": "a"}, {"x": 1}]`)).Valid())
}
