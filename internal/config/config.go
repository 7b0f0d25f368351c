package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultName            = "a11ybridge"
	DefaultChannel         = "flutter/accessibility"
	DefaultEngineAddress   = "127.0.0.1:7400"
	DefaultMaxPayloadBytes = 8 * 1024 * 1024
)

var ErrInvalidConfig = errors.New("config: invalid bridge config")

// BridgeConfig is the on-disk bridge configuration.
type BridgeConfig struct {
	Name               string        `toml:"name"`
	EngineAddress      string        `toml:"engine_address"`
	Channel            string        `toml:"channel"`
	InspectAddr        string        `toml:"inspect_addr"`
	InspectToken       string        `toml:"inspect_token"`
	CorsOrigins        []string      `toml:"cors_origins"`
	MaxPayloadBytes    uint64        `toml:"max_payload_bytes"`
	MaxConnectAttempts int           `toml:"max_connect_attempts"`
	ReadTimeoutMS      int64         `toml:"read_timeout_ms"`
	Backoff            BackoffConfig `toml:"backoff"`
	TLS                TLSConfig     `toml:"tls"`
}

type BackoffConfig struct {
	InitialMS  int64   `toml:"initial_ms"`
	Multiplier float64 `toml:"multiplier"`
	MaxMS      int64   `toml:"max_ms"`
	Jitter     bool    `toml:"jitter"`
}

type TLSConfig struct {
	Enabled            bool   `toml:"enabled"`
	Mutual             bool   `toml:"mutual"`
	CAFile             string `toml:"ca_file"`
	CertFile           string `toml:"cert_file"`
	KeyFile            string `toml:"key_file"`
	ServerName         string `toml:"server_name"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// Defaults returns the configuration used for keys a file leaves unset.
func Defaults() BridgeConfig {
	return BridgeConfig{
		Name:            DefaultName,
		EngineAddress:   DefaultEngineAddress,
		Channel:         DefaultChannel,
		MaxPayloadBytes: DefaultMaxPayloadBytes,
		Backoff: BackoffConfig{
			InitialMS:  250,
			Multiplier: 2.0,
			MaxMS:      5000,
			Jitter:     true,
		},
	}
}

// LoadBridgeConfig reads path over Defaults and validates the result.
func LoadBridgeConfig(path string) (BridgeConfig, error) {
	cfg := Defaults()
	if err := loadToml(path, &cfg); err != nil {
		return BridgeConfig{}, err
	}
	cfg = cfg.normalized()
	if err := ValidateBridgeConfig(cfg); err != nil {
		return BridgeConfig{}, err
	}
	return cfg, nil
}

// ParseBridgeConfig is LoadBridgeConfig for in-memory TOML.
func ParseBridgeConfig(data []byte) (BridgeConfig, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return BridgeConfig{}, fmt.Errorf("config parse failed: %w", err)
	}
	cfg = cfg.normalized()
	if err := ValidateBridgeConfig(cfg); err != nil {
		return BridgeConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func (c BridgeConfig) normalized() BridgeConfig {
	c.Name = strings.TrimSpace(c.Name)
	c.EngineAddress = strings.TrimSpace(c.EngineAddress)
	c.Channel = strings.TrimSpace(c.Channel)
	c.InspectAddr = strings.TrimSpace(c.InspectAddr)
	c.InspectToken = strings.TrimSpace(c.InspectToken)
	origins := make([]string, 0, len(c.CorsOrigins))
	for _, o := range c.CorsOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CorsOrigins = origins
	return c
}

func ValidateBridgeConfig(cfg BridgeConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidConfig)
	}
	if cfg.Channel == "" {
		return fmt.Errorf("%w: missing channel", ErrInvalidConfig)
	}
	if _, _, err := net.SplitHostPort(cfg.EngineAddress); err != nil {
		return fmt.Errorf("%w: engine_address %q: %v", ErrInvalidConfig, cfg.EngineAddress, err)
	}
	if cfg.InspectAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.InspectAddr); err != nil {
			return fmt.Errorf("%w: inspect_addr %q: %v", ErrInvalidConfig, cfg.InspectAddr, err)
		}
	}
	if cfg.MaxPayloadBytes == 0 {
		return fmt.Errorf("%w: max_payload_bytes must be positive", ErrInvalidConfig)
	}
	if cfg.MaxConnectAttempts < 0 || cfg.ReadTimeoutMS < 0 {
		return fmt.Errorf("%w: negative attempts or timeout", ErrInvalidConfig)
	}
	if cfg.Backoff.InitialMS <= 0 || cfg.Backoff.Multiplier < 1 {
		return fmt.Errorf("%w: backoff needs initial_ms > 0 and multiplier >= 1", ErrInvalidConfig)
	}
	if cfg.Backoff.MaxMS > 0 && cfg.Backoff.MaxMS < cfg.Backoff.InitialMS {
		return fmt.Errorf("%w: backoff max_ms below initial_ms", ErrInvalidConfig)
	}
	return nil
}
