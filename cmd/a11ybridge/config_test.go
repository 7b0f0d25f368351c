package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/a11ybridge/internal/config"
	"github.com/danmuck/a11ybridge/internal/logging"
	"github.com/danmuck/a11ybridge/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

func writeRuntime(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runtime.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write runtime config: %v", err)
	}
	return path
}

func TestLoadRuntimeConfigExample(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadRuntimeConfig("ex.runtime.toml")
	if err != nil {
		t.Fatalf("load runtime config: %v", err)
	}
	if !cfg.LogLevelSet || cfg.LogLevel != zerolog.DebugLevel {
		t.Fatalf("unexpected log level: %v set=%v", cfg.LogLevel, cfg.LogLevelSet)
	}
	if cfg.Reconnect {
		t.Fatalf("expected reconnect disabled")
	}
	if cfg.ShutdownTimeout != 2*time.Second {
		t.Fatalf("unexpected shutdown timeout: %v", cfg.ShutdownTimeout)
	}
	if !cfg.TraceNodes {
		t.Fatalf("expected trace_nodes enabled")
	}
	if cfg.LogFile != "" || cfg.LogMaxBackups != 5 {
		t.Fatalf("unexpected log file settings: %q backups=%d", cfg.LogFile, cfg.LogMaxBackups)
	}
}

func TestLoadRuntimeConfigLogFile(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadRuntimeConfig(writeRuntime(t, "log_file = \" logs/bridge.log \"\nlog_max_size_mb = 10\n"))
	if err != nil {
		t.Fatalf("load runtime config: %v", err)
	}
	if cfg.LogFile != "logs/bridge.log" || cfg.LogMaxSizeMB != 10 {
		t.Fatalf("unexpected log file settings: %+v", cfg)
	}
	if cfg.LogMaxBackups != logging.DefaultFileMaxBackups {
		t.Fatalf("absent log_max_backups should keep default, got %d", cfg.LogMaxBackups)
	}
}

func TestLoadRuntimeConfigAbsentKeysKeepDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadRuntimeConfig(writeRuntime(t, "trace_nodes = false\n"))
	if err != nil {
		t.Fatalf("load runtime config: %v", err)
	}
	if cfg != defaultRuntimeConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if !cfg.Reconnect || cfg.LogLevelSet {
		t.Fatalf("reconnect should default on and log level unset: %+v", cfg)
	}

	empty, err := loadRuntimeConfig("")
	if err != nil || empty != defaultRuntimeConfig() {
		t.Fatalf("empty path should give defaults, got %+v err=%v", empty, err)
	}
}

func TestLoadRuntimeConfigRejectsBadValues(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"bad level":     `log_level = "loud"`,
		"bad duration":  `shutdown_timeout = "soon"`,
		"zero duration": `shutdown_timeout = "0s"`,
		"bad toml":      `reconnect = `,
		"zero log size": `log_max_size_mb = 0`,
		"neg backups":   `log_max_backups = -1`,
	}
	for name, content := range cases {
		if _, err := loadRuntimeConfig(writeRuntime(t, content+"\n")); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := loadRuntimeConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadBridgeConfigExample(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadBridgeConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load bridge config: %v", err)
	}
	if cfg.Name != "a11ybridge.local" || cfg.MaxConnectAttempts != 5 {
		t.Fatalf("unexpected bridge config: %+v", cfg)
	}
	defaults, err := loadBridgeConfig("")
	if err != nil || defaults.Channel != "flutter/accessibility" {
		t.Fatalf("unexpected defaults %+v err=%v", defaults, err)
	}
}

func TestRuntimeTemplateLoads(t *testing.T) {
	testlog.Start(t)
	tmpl, err := config.Template("runtime")
	if err != nil {
		t.Fatalf("runtime template: %v", err)
	}
	cfg, err := loadRuntimeConfig(writeRuntime(t, tmpl))
	if err != nil {
		t.Fatalf("load runtime template: %v", err)
	}
	if !cfg.Reconnect || cfg.LogLevel != zerolog.InfoLevel || cfg.LogFile != "" {
		t.Fatalf("unexpected template config %+v", cfg)
	}
}
