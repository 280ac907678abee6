package main

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rendis/remap/internal/logging"
)

// runInit writes settings.json from flags. Existing settings are replaced.
func runInit(args []string, stdout, stderr io.Writer) error {
	def := defaultConfig()
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	logLevel := fs.String("log-level", def.LogLevel, "log level: debug, info, warn, error")
	logJSON := fs.Bool("log-json", false, "write JSON log records")
	locale := fs.String("locale", def.Locale, "default locale")
	appID := fs.Int64("app-id", 0, "default app id")
	appURL := fs.String("app-url", "", "default app url")
	timeZone := fs.String("time-zone", "", "default IANA time zone for date patterns")
	maxDepth := fs.Int("max-depth", def.MaxDepth, "deepest allowed operator nesting (0 = unlimited)")
	poolSize := fs.Int("pool-size", def.PoolSize, "concurrent evaluations for eval -each")
	messages := fs.String("messages", "", "message catalog file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(*logLevel); err != nil {
		return err
	}

	cfg := Config{
		LogLevel: *logLevel,
		LogJSON:  *logJSON,
		Locale:   *locale,
		AppID:    *appID,
		AppURL:   *appURL,
		TimeZone: *timeZone,
		MaxDepth: *maxDepth,
		PoolSize: *poolSize,
	}
	if *messages != "" {
		abs, err := filepath.Abs(*messages)
		if err != nil {
			return err
		}
		cfg.Messages = abs
	}

	path, err := saveConfig(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Config written to %s\n", path)
	return nil
}
