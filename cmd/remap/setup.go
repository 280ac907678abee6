package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rendis/remap/internal/engine"
	"github.com/rendis/remap/internal/i18n"
	"github.com/rendis/remap/internal/logging"
	"github.com/rendis/remap/internal/remap"
	"github.com/rendis/remap/pkg/schema"
)

func newLogger(cfg Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(w, level, cfg.LogJSON), nil
}

// newExecutor wires the catalog and defaults from cfg into an engine.
func newExecutor(cfg Config, logger *slog.Logger) (engine.Executor, error) {
	var catalog *i18n.Catalog
	if cfg.Messages != "" {
		var err error
		if catalog, err = i18n.LoadFile(cfg.Messages, cfg.Locale); err != nil {
			return nil, err
		}
	}
	return engine.NewExecutor(engine.Config{
		PoolSize: cfg.PoolSize,
		MaxDepth: cfg.MaxDepth,
		Defaults: remap.Environment{
			AppID:    cfg.AppID,
			AppURL:   cfg.AppURL,
			Locale:   cfg.Locale,
			TimeZone: cfg.TimeZone,
		},
		Catalog: catalog,
		Logger:  logger,
	})
}

// readFile reads path, or stdin when path is "-".
func readFile(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// readDocument reads and decodes a JSON or YAML file.
func readDocument(path string, stdin io.Reader) (any, error) {
	data, err := readFile(path, stdin)
	if err != nil {
		return nil, err
	}
	doc, err := schema.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
