package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/rendis/remap/internal/engine"
	"github.com/rendis/remap/internal/validation"
)

// Config holds the CLI configuration.
// Priority: flags > env vars > settings.json > defaults.
type Config struct {
	LogLevel string `json:"log_level" env:"REMAP_LOG_LEVEL"`
	LogJSON  bool   `json:"log_json" env:"REMAP_LOG_JSON"`
	Locale   string `json:"locale" env:"REMAP_LOCALE"`
	AppID    int64  `json:"app_id" env:"REMAP_APP_ID"`
	AppURL   string `json:"app_url" env:"REMAP_APP_URL"`
	TimeZone string `json:"time_zone" env:"REMAP_TIME_ZONE"`
	MaxDepth int    `json:"max_depth" env:"REMAP_MAX_DEPTH"`
	PoolSize int    `json:"pool_size" env:"REMAP_POOL_SIZE"`
	Messages string `json:"messages,omitempty" env:"REMAP_MESSAGES"`
}

func defaultConfig() Config {
	return Config{
		LogLevel: "warn",
		Locale:   "en",
		MaxDepth: validation.DefaultMaxDepth,
		PoolSize: engine.DefaultPoolSize,
	}
}

func remapDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".remap"
	}
	return filepath.Join(home, ".remap")
}

func settingsPath() string {
	return filepath.Join(remapDir(), "settings.json")
}

func loadConfig() (Config, error) {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	data, err := os.ReadFile(settingsPath())
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", settingsPath(), err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return cfg, fmt.Errorf("read %s: %w", settingsPath(), err)
	}

	// Layer 3: env vars override. Unset variables leave fields untouched.
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// saveConfig writes cfg to settings.json, creating the directory.
func saveConfig(cfg Config) (string, error) {
	dir := remapDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", err
	}
	path := settingsPath()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
