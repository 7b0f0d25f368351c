package main

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/a11ybridge/internal/auth"
	"github.com/danmuck/a11ybridge/internal/bridge"
	"github.com/danmuck/a11ybridge/internal/config"
	"github.com/danmuck/a11ybridge/internal/inspect"
	"github.com/danmuck/a11ybridge/internal/observability"
	"github.com/danmuck/a11ybridge/internal/protocol/link"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type connectFunc func(ctx context.Context) (*link.Link, error)

// service supervises one bridge: the engine link with reconnects and the
// optional inspect server.
type service struct {
	cfg     config.BridgeConfig
	rt      runtimeConfig
	linkCfg link.Config
	log     zerolog.Logger

	bridge  *bridge.Bridge
	inspect *inspect.Server
	connect connectFunc
}

func newService(cfg config.BridgeConfig, rt runtimeConfig) (*service, error) {
	linkCfg := cfg.LinkConfig().WithDefaults()
	dialer, err := link.NewDialer(cfg.EngineAddress, linkCfg)
	if err != nil {
		return nil, err
	}

	bridgeLog := observability.Logger(cfg.Name, "bridge")
	if rt.TraceNodes {
		bridgeLog = bridgeLog.Level(zerolog.TraceLevel)
	}
	b := bridge.New(cfg.Name, cfg.Channel, bridge.WithLogger(bridgeLog))

	s := &service{
		cfg:     cfg,
		rt:      rt,
		linkCfg: linkCfg,
		log:     observability.Logger(cfg.Name, "service"),
		bridge:  b,
		connect: dialer.Connect,
	}
	if strings.TrimSpace(cfg.InspectAddr) != "" {
		var opts []inspect.Option
		if cfg.InspectToken != "" {
			opts = append(opts, inspect.WithValidator(auth.StaticToken{Token: cfg.InspectToken}))
		}
		s.inspect = inspect.New(b, cfg.InspectAddr, cfg.CorsOrigins, opts...)
		s.inspect.ShutdownTimeout = rt.ShutdownTimeout
	}
	return s, nil
}

// Run blocks until SIGINT/SIGTERM or until the link ends with reconnect
// disabled.
func (s *service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.serve(ctx)
}

func (s *service) serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.bridge.Close()

	g, gctx := errgroup.WithContext(ctx)
	if s.inspect != nil {
		g.Go(func() error {
			return s.inspect.Serve(gctx)
		})
	}
	g.Go(func() error {
		defer cancel()
		return s.runLinkLoop(gctx)
	})

	err := g.Wait()
	s.log.Info().Msg("service: shutdown")
	return err
}

// runLinkLoop connects, serves the link until it ends, then reconnects when
// enabled. A canceled ctx ends the loop without error.
func (s *service) runLinkLoop(ctx context.Context) error {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		l, err := s.connect(ctx)
		if err != nil {
			observability.RecordLinkConnect(s.cfg.Name, false)
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		observability.RecordLinkConnect(s.cfg.Name, true)
		sessionLog := s.log.With().Str("session", uuid.NewString()).Logger()
		s.bridge.Attach(l)
		sessionLog.Info().
			Str("engine", s.cfg.EngineAddress).
			Str("channel", s.cfg.Channel).
			Msg("service: engine link attached")

		err = l.Serve(ctx)
		s.bridge.Detach()
		_ = l.Close()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			sessionLog.Warn().Err(err).Uint64("frames", l.FramesRead()).Msg("service: engine link lost")
		} else {
			sessionLog.Info().Uint64("frames", l.FramesRead()).Msg("service: engine closed link")
		}
		if !s.rt.Reconnect {
			return err
		}

		attempt++
		if err := s.waitReconnectBackoff(ctx, attempt); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

func (s *service) waitReconnectBackoff(ctx context.Context, attempt int) error {
	return s.linkCfg.Backoff.Wait(ctx, attempt, nil)
}
