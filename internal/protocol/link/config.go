package link

import (
	"errors"
	"strings"
	"time"

	"github.com/danmuck/a11ybridge/internal/protocol/frame"
)

var (
	ErrTLSCAFileRequired   = errors.New("link: tls ca file required")
	ErrTLSCertFileRequired = errors.New("link: tls cert file required")
	ErrTLSKeyFileRequired  = errors.New("link: tls key file required")
)

// TLSConfig enables TLS toward the engine. Mutual adds a client certificate.
type TLSConfig struct {
	Enabled            bool
	Mutual             bool
	CAFile             string
	CertFile           string
	KeyFile            string
	ServerName         string
	InsecureSkipVerify bool
}

// Config defines link timeouts, frame limits and reconnect behavior.
// ReadTimeout zero waits indefinitely for the next frame.
type Config struct {
	ConnectTimeout     time.Duration
	HandshakeTimeout   time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	MaxConnectAttempts int
	Limits             frame.Limits
	Backoff            BackoffConfig
	TLS                TLSConfig
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout:   5 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     5 * time.Second,
		Limits:           frame.DefaultLimits(),
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// WithDefaults fills zero values from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.Limits.MaxPayloadBytes == 0 {
		c.Limits.MaxPayloadBytes = d.Limits.MaxPayloadBytes
	}
	if c.Limits.MaxExtensionBytes == 0 {
		c.Limits.MaxExtensionBytes = d.Limits.MaxExtensionBytes
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff = d.Backoff
	}
	return c
}

// ValidateTLS checks that the files a TLS mode needs are named.
func (c Config) ValidateTLS() error {
	if !c.TLS.Enabled {
		return nil
	}
	if strings.TrimSpace(c.TLS.CAFile) == "" && !c.TLS.InsecureSkipVerify {
		return ErrTLSCAFileRequired
	}
	if c.TLS.Mutual {
		if strings.TrimSpace(c.TLS.CertFile) == "" {
			return ErrTLSCertFileRequired
		}
		if strings.TrimSpace(c.TLS.KeyFile) == "" {
			return ErrTLSKeyFileRequired
		}
	}
	return nil
}
