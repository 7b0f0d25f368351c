package link

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrAddressRequired = errors.New("link: engine address required")

type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Dialer opens engine links. TLS material is loaded once by NewDialer, so a
// missing or unreadable file fails at startup rather than on every attempt.
type Dialer struct {
	address string
	cfg     Config
	tls     *tls.Config
	rng     *rand.Rand
	dialFn  dialFunc
}

func NewDialer(address string, cfg Config) (*Dialer, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrAddressRequired
	}
	cfg = cfg.WithDefaults()
	if err := cfg.ValidateTLS(); err != nil {
		return nil, err
	}
	d := &Dialer{
		address: address,
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		dialFn:  (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
	}
	if cfg.TLS.Enabled {
		tlsCfg, err := cfg.TLS.clientConfig(address)
		if err != nil {
			return nil, err
		}
		d.tls = tlsCfg
	}
	return d, nil
}

// Connect dials until one attempt succeeds, MaxConnectAttempts runs out or
// ctx is done. The last dial error is wrapped in the returned error.
func (d *Dialer) Connect(ctx context.Context) (*Link, error) {
	logger := log.With().Str("component", "link").Str("addr", d.address).Logger()
	for attempt := 1; ; attempt++ {
		conn, err := d.dialOnce(ctx)
		if err == nil {
			logger.Info().Int("attempt", attempt).Bool("tls", d.tls != nil).Msg("link: connected")
			return New(conn, d.cfg), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn().Err(err).Int("attempt", attempt).Msg("link: dial failed")
		if limit := d.cfg.MaxConnectAttempts; limit > 0 && attempt >= limit {
			return nil, fmt.Errorf("link: gave up after %d attempts: %w", attempt, err)
		}
		if err := d.cfg.Backoff.Wait(ctx, attempt, d.rng); err != nil {
			return nil, err
		}
	}
}

func (d *Dialer) dialOnce(ctx context.Context) (net.Conn, error) {
	raw, err := d.dialFn(ctx, "tcp", d.address)
	if err != nil || d.tls == nil {
		return raw, err
	}
	conn := tls.Client(raw, d.tls)
	hsCtx, cancel := context.WithTimeout(ctx, d.cfg.HandshakeTimeout)
	defer cancel()
	if err := conn.HandshakeContext(hsCtx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("link: tls handshake: %w", err)
	}
	return conn, nil
}
