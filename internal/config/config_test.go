package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/a11ybridge/internal/testutil/testlog"
)

func TestParseBridgeConfigAppliesDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := ParseBridgeConfig([]byte(`engine_address = "10.0.0.2:7500"`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Name != DefaultName || cfg.Channel != DefaultChannel {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.EngineAddress != "10.0.0.2:7500" {
		t.Fatalf("engine address not read: %q", cfg.EngineAddress)
	}
	if !cfg.Backoff.Jitter || cfg.Backoff.InitialMS != 250 {
		t.Fatalf("backoff defaults lost: %+v", cfg.Backoff)
	}
}

func TestParseBridgeConfigPartialTable(t *testing.T) {
	testlog.Start(t)
	cfg, err := ParseBridgeConfig([]byte(`
channel = " custom/a11y "
cors_origins = ["", " http://a "]

[backoff]
max_ms = 900
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Channel != "custom/a11y" {
		t.Fatalf("channel not trimmed: %q", cfg.Channel)
	}
	if len(cfg.CorsOrigins) != 1 || cfg.CorsOrigins[0] != "http://a" {
		t.Fatalf("origins not normalized: %v", cfg.CorsOrigins)
	}
	if cfg.Backoff.MaxMS != 900 || cfg.Backoff.InitialMS != 250 || cfg.Backoff.Multiplier != 2 {
		t.Fatalf("partial backoff table merged wrong: %+v", cfg.Backoff)
	}
}

func TestValidateBridgeConfig(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"bad engine address": `engine_address = "nohostport"`,
		"empty channel":      `channel = "  "`,
		"bad inspect addr":   `inspect_addr = "9400"`,
		"zero payload limit": `max_payload_bytes = 0`,
		"negative attempts":  `max_connect_attempts = -1`,
		"multiplier below 1": "[backoff]\nmultiplier = 0.5",
		"max below initial":  "[backoff]\ninitial_ms = 500\nmax_ms = 100",
	}
	for name, doc := range cases {
		if _, err := ParseBridgeConfig([]byte(doc)); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
	if _, err := ParseBridgeConfig([]byte(`name = [`)); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTemplateLoadsAndConvertsToLinkConfig(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "bridge.toml")
	if err := WriteTemplate(path, "bridge", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, "bridge", false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	cfg, err := LoadBridgeConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.InspectAddr != "127.0.0.1:9400" {
		t.Fatalf("unexpected inspect addr %q", cfg.InspectAddr)
	}
	lc := cfg.LinkConfig()
	if lc.Backoff.InitialDelay != 250*time.Millisecond || lc.Backoff.MaxDelay != 5*time.Second || !lc.Backoff.Jitter {
		t.Fatalf("unexpected backoff %+v", lc.Backoff)
	}
	if lc.Limits.MaxPayloadBytes != DefaultMaxPayloadBytes || lc.ReadTimeout != 0 {
		t.Fatalf("unexpected link limits %+v", lc)
	}
}

func TestLoadBridgeConfigMissingFile(t *testing.T) {
	testlog.Start(t)
	_, err := LoadBridgeConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestTemplateUnknownKind(t *testing.T) {
	testlog.Start(t)
	if _, err := Template("engine"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
	if _, err := Template(" Runtime "); err != nil {
		t.Fatalf("runtime template: %v", err)
	}
}
