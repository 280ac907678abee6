package main

import (
	"context"
	"flag"
	"io"

	"github.com/rendis/remap/pkg/mcp"
)

// runServe serves the MCP tools over stdio. Logs go to stderr so they never
// mix with the protocol stream.
func runServe(ctx context.Context, cfg Config, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	logLevel := fs.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	messages := fs.String("messages", cfg.Messages, "message catalog {locale: {id: template}}")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.LogLevel = *logLevel
	cfg.Messages = *messages

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	exec, err := newExecutor(cfg, logger)
	if err != nil {
		return err
	}
	defer exec.Close()

	srv := mcp.NewRemapServer(mcp.RemapServerDeps{
		Executor: exec,
		Logger:   logger,
		Version:  version,
	})
	logger.Info("serving remap MCP tools on stdio", "version", version)
	return srv.Serve(ctx)
}
