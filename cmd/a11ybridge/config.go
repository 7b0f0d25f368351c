package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/a11ybridge/internal/inspect"
	"github.com/danmuck/a11ybridge/internal/logging"
	"github.com/rs/zerolog"
)

// runtimeConfig holds process settings that sit beside the bridge file.
type runtimeConfig struct {
	LogLevel        zerolog.Level
	LogLevelSet     bool
	Reconnect       bool
	ShutdownTimeout time.Duration
	TraceNodes      bool
	LogFile         string
	LogMaxSizeMB    int
	LogMaxBackups   int
}

type runtimeFile struct {
	LogLevel        string `toml:"log_level"`
	Reconnect       bool   `toml:"reconnect"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	TraceNodes      bool   `toml:"trace_nodes"`
	LogFile         string `toml:"log_file"`
	LogMaxSizeMB    int    `toml:"log_max_size_mb"`
	LogMaxBackups   int    `toml:"log_max_backups"`
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{
		LogLevel:        zerolog.InfoLevel,
		Reconnect:       true,
		ShutdownTimeout: inspect.DefaultShutdownTimeout,
		LogMaxSizeMB:    logging.DefaultFileMaxSizeMB,
		LogMaxBackups:   logging.DefaultFileMaxBackups,
	}
}

func loadRuntimeConfig(path string) (runtimeConfig, error) {
	cfg := defaultRuntimeConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw runtimeFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runtimeConfig{}, fmt.Errorf("load runtime config: %w", err)
	}

	if meta.IsDefined("log_level") {
		lvl, ok := logging.ParseLevel(raw.LogLevel)
		if !ok {
			return runtimeConfig{}, fmt.Errorf("parse log_level: unknown level %q", raw.LogLevel)
		}
		cfg.LogLevel = lvl
		cfg.LogLevelSet = true
	}

	if meta.IsDefined("reconnect") {
		cfg.Reconnect = raw.Reconnect
	}

	if meta.IsDefined("shutdown_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ShutdownTimeout))
		if err != nil {
			return runtimeConfig{}, fmt.Errorf("parse shutdown_timeout: %w", err)
		}
		if d <= 0 {
			return runtimeConfig{}, fmt.Errorf("parse shutdown_timeout: must be positive, got %v", d)
		}
		cfg.ShutdownTimeout = d
	}

	if meta.IsDefined("trace_nodes") {
		cfg.TraceNodes = raw.TraceNodes
	}

	if meta.IsDefined("log_file") {
		cfg.LogFile = strings.TrimSpace(raw.LogFile)
	}

	if meta.IsDefined("log_max_size_mb") {
		if raw.LogMaxSizeMB <= 0 {
			return runtimeConfig{}, fmt.Errorf("parse log_max_size_mb: must be positive, got %d", raw.LogMaxSizeMB)
		}
		cfg.LogMaxSizeMB = raw.LogMaxSizeMB
	}

	if meta.IsDefined("log_max_backups") {
		if raw.LogMaxBackups < 0 {
			return runtimeConfig{}, fmt.Errorf("parse log_max_backups: negative value %d", raw.LogMaxBackups)
		}
		cfg.LogMaxBackups = raw.LogMaxBackups
	}

	return cfg, nil
}
