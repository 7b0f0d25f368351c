package config

import (
	"time"

	"github.com/danmuck/a11ybridge/internal/protocol/frame"
	"github.com/danmuck/a11ybridge/internal/protocol/link"
)

// LinkConfig maps the file settings onto the engine link.
func (c BridgeConfig) LinkConfig() link.Config {
	cfg := link.DefaultConfig()
	cfg.ReadTimeout = time.Duration(c.ReadTimeoutMS) * time.Millisecond
	cfg.MaxConnectAttempts = c.MaxConnectAttempts
	cfg.Limits = frame.Limits{
		MaxExtensionBytes: frame.DefaultLimits().MaxExtensionBytes,
		MaxPayloadBytes:   c.MaxPayloadBytes,
	}
	cfg.Backoff = link.BackoffConfig{
		InitialDelay: time.Duration(c.Backoff.InitialMS) * time.Millisecond,
		Multiplier:   c.Backoff.Multiplier,
		MaxDelay:     time.Duration(c.Backoff.MaxMS) * time.Millisecond,
		Jitter:       c.Backoff.Jitter,
	}
	cfg.TLS = link.TLSConfig{
		Enabled:            c.TLS.Enabled,
		Mutual:             c.TLS.Mutual,
		CAFile:             c.TLS.CAFile,
		CertFile:           c.TLS.CertFile,
		KeyFile:            c.TLS.KeyFile,
		ServerName:         c.TLS.ServerName,
		InsecureSkipVerify: c.TLS.InsecureSkipVerify,
	}
	return cfg
}
