// Package engine runs remapper evaluations for the CLI and MCP surfaces:
// validation, context assembly, message catalogs, correlation logging and
// bounded concurrent batches.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rendis/remap/internal/i18n"
	"github.com/rendis/remap/internal/logging"
	"github.com/rendis/remap/internal/remap"
	"github.com/rendis/remap/internal/validation"
	"github.com/rendis/remap/pkg/schema"
)

// Executor evaluates remapper documents.
type Executor interface {
	// Evaluate validates req.Remapper and applies it to req.Input.
	Evaluate(ctx context.Context, req Request) (*Result, error)

	// EvaluateEach applies req.Remapper to every input concurrently. The
	// document is validated once; per-input failures are reported in the
	// corresponding Result.
	EvaluateEach(ctx context.Context, req Request, inputs []any) ([]*Result, error)

	// Validate checks a document without evaluating it.
	Validate(doc any) *schema.ValidationResult

	// Close waits for running evaluations and rejects new ones.
	Close()
}

// Request is one evaluation.
type Request struct {
	Remapper any
	Input    any
	Env      remap.Environment

	// Messages adds or overrides catalog messages for Env.Locale in this
	// request only.
	Messages map[string]string
}

// Result is the outcome of one evaluation.
type Result struct {
	EvaluationID string        `json:"evaluation_id"`
	Output       any           `json:"output"`
	Error        *schema.Error `json:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	DurationMs   int64         `json:"duration_ms"`
}

// DefaultPoolSize is the default number of concurrent evaluations per batch.
const DefaultPoolSize = 8

// Config holds configuration for the executor.
type Config struct {
	PoolSize int
	MaxDepth int // 0 = unlimited

	// Defaults fills the app id, app url, locale and time zone of requests
	// that leave them empty.
	Defaults remap.Environment

	Catalog *i18n.Catalog // nil = empty catalog in Defaults.Locale
	Logger  *slog.Logger
	Now     func() time.Time
}

type executorImpl struct {
	config    Config
	validator *validation.DocumentValidator
	catalog   *i18n.Catalog
	locale    string
	pool      *Pool
	logger    *slog.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(cfg Config) (Executor, error) {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	locale := cfg.Defaults.Locale
	if locale == "" {
		locale = i18n.DefaultLocale
	}
	catalog := cfg.Catalog
	if catalog == nil {
		var err error
		if catalog, err = i18n.NewCatalog(locale); err != nil {
			return nil, err
		}
	}
	validator, err := validation.NewDocumentValidator(validation.Options{MaxDepth: cfg.MaxDepth})
	if err != nil {
		return nil, fmt.Errorf("create document validator: %w", err)
	}

	return &executorImpl{
		config:    cfg,
		validator: validator,
		catalog:   catalog,
		locale:    locale,
		pool:      NewPool(cfg.PoolSize),
		logger:    logger,
	}, nil
}

func (e *executorImpl) Validate(doc any) *schema.ValidationResult {
	return e.validator.Validate(doc)
}

func (e *executorImpl) Close() {
	e.pool.Shutdown()
}

func (e *executorImpl) Evaluate(ctx context.Context, req Request) (*Result, error) {
	env := e.environment(req.Env)
	if err := e.prepare(ctx, req.Remapper, env); err != nil {
		return nil, err
	}
	messages, err := e.messages(env.Locale, req.Messages)
	if err != nil {
		return nil, err
	}
	result := e.run(ctx, req.Remapper, req.Input, env, messages)
	if result.Error != nil {
		return result, result.Error
	}
	return result, nil
}

func (e *executorImpl) EvaluateEach(ctx context.Context, req Request, inputs []any) ([]*Result, error) {
	env := e.environment(req.Env)
	if err := e.prepare(ctx, req.Remapper, env); err != nil {
		return nil, err
	}
	messages, err := e.messages(env.Locale, req.Messages)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(inputs))
	tasks := make([]func(ctx context.Context) error, len(inputs))
	for i, input := range inputs {
		tasks[i] = func(ctx context.Context) error {
			results[i] = e.run(ctx, req.Remapper, input, env, messages)
			if results[i].Error != nil {
				return results[i].Error
			}
			return nil
		}
	}

	for i, err := range e.pool.Run(ctx, tasks) {
		if err == nil || results[i] != nil {
			continue
		}
		// The task panicked or never started.
		results[i] = &Result{Error: toSchemaError(err)}
	}
	return results, nil
}

// prepare rejects invalid documents and contexts before any evaluation runs.
func (e *executorImpl) prepare(ctx context.Context, doc any, env remap.Environment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result := e.validator.Validate(doc)
	for _, w := range result.Warnings {
		e.logger.WarnContext(ctx, "remapper validation warning", "path", w.Path, "code", w.Code, "message", w.Message)
	}
	if err := result.ToError(); err != nil {
		return err
	}
	// Surface context errors (unknown time zone) once per request.
	_, err := remap.NewContext(env, nil, e.logger)
	return err
}

// run evaluates one input under its own evaluation id.
func (e *executorImpl) run(ctx context.Context, doc, input any, env remap.Environment, messages remap.MessageLookup) *Result {
	id := uuid.NewString()
	ctx = logging.WithEvaluationID(ctx, id)
	if env.AppID != 0 {
		ctx = logging.WithAppID(ctx, env.AppID)
	}
	logger := logging.LogWith(ctx, e.logger)

	result := &Result{EvaluationID: id, StartedAt: time.Now().UTC()}
	rctx, err := remap.NewContext(env, messages, logger)
	if err != nil {
		result.Error = toSchemaError(err)
		return result
	}
	rctx.Now = e.config.Now

	out, err := remap.Evaluate(doc, schema.Normalize(input), rctx)
	result.DurationMs = time.Since(result.StartedAt).Milliseconds()
	if err != nil {
		result.Error = toSchemaError(err)
		logger.Warn("evaluation failed", "code", result.Error.Code, "error", result.Error.Message)
		return result
	}
	result.Output = out
	logger.Debug("evaluation finished", "duration_ms", result.DurationMs)
	return result
}

// environment fills request gaps from the configured defaults.
func (e *executorImpl) environment(env remap.Environment) remap.Environment {
	d := e.config.Defaults
	if env.AppID == 0 {
		env.AppID = d.AppID
	}
	if env.AppURL == "" {
		env.AppURL = d.AppURL
	}
	if env.Locale == "" {
		env.Locale = e.locale
	}
	if env.TimeZone == "" {
		env.TimeZone = d.TimeZone
	}
	return env
}

func (e *executorImpl) messages(locale string, overrides map[string]string) (remap.MessageLookup, error) {
	catalog := e.catalog
	if len(overrides) > 0 {
		catalog = catalog.Clone()
		if err := catalog.Add(locale, overrides); err != nil {
			return nil, schema.NewError(schema.ErrCodeDocument, "invalid request messages").WithCause(err)
		}
	}
	return catalog.Lookup(locale), nil
}

func toSchemaError(err error) *schema.Error {
	var serr *schema.Error
	switch {
	case errors.As(err, &serr):
		return serr
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrPoolShutdown):
		return schema.NewError(schema.ErrCodeCancelled, err.Error()).WithCause(err)
	}
	return schema.NewError(schema.ErrCodeExecution, err.Error()).WithCause(err)
}
