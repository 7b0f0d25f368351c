// Package inspect serves a read-only HTTP view of one bridge: health,
// readiness, Prometheus metrics and the current node registry.
package inspect

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/a11ybridge/internal/auth"
	"github.com/danmuck/a11ybridge/internal/bridge"
	"github.com/danmuck/a11ybridge/internal/observability"
	"github.com/danmuck/a11ybridge/internal/semantics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const DefaultShutdownTimeout = 5 * time.Second

// NodeList is the /nodes response body.
type NodeList struct {
	Bridge      string  `json:"bridge"`
	Generations uint64  `json:"generations"`
	Count       int     `json:"count"`
	IDs         []int32 `json:"ids"`
}

type Option func(*Server)

// WithValidator requires a bearer token on the /nodes routes.
func WithValidator(v auth.Validator) Option {
	return func(s *Server) {
		s.validator = v
	}
}

type Server struct {
	Addr            string
	Appeared        time.Time
	ShutdownTimeout time.Duration

	bridge    *bridge.Bridge
	router    *gin.Engine
	log       zerolog.Logger
	validator auth.Validator
}

// New builds the inspect router for b. Routes are registered immediately.
func New(b *bridge.Bridge, addr string, corsOrigins []string, opts ...Option) *Server {
	observability.RegisterMetrics()
	logger := observability.Logger(b.Name(), "inspect")
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.Instrument(b.Name(), logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		Addr:            addr,
		Appeared:        time.Now(),
		ShutdownTimeout: DefaultShutdownTimeout,
		bridge:          b,
		router:          r,
		log:             logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

// Ready reports whether the bridge is attached to an engine or has completed
// at least one generation.
func (s *Server) Ready() bool {
	return s.bridge.Attached() || s.bridge.Registry().Generations() > 0
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"bridge":  s.bridge.Name(),
			"channel": s.bridge.ChannelName(),
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		status := http.StatusOK
		if !s.Ready() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":       status == http.StatusOK,
			"attached":    s.bridge.Attached(),
			"generations": s.bridge.Registry().Generations(),
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	nodes := s.router.Group("/nodes")
	if s.validator != nil {
		nodes.Use(auth.Require(s.validator))
	}

	nodes.GET("", func(c *gin.Context) {
		reg := s.bridge.Registry()
		ids := reg.IDs()
		c.JSON(http.StatusOK, NodeList{
			Bridge:      s.bridge.Name(),
			Generations: reg.Generations(),
			Count:       len(ids),
			IDs:         ids,
		})
	})

	nodes.GET("/:id", func(c *gin.Context) {
		node, ok := s.lookup(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, node)
	})

	nodes.GET("/:id/dump", func(c *gin.Context) {
		node, ok := s.lookup(c)
		if !ok {
			return
		}
		var buf bytes.Buffer
		semantics.Dump(&buf, node)
		c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
	})
}

func (s *Server) lookup(c *gin.Context) (semantics.Node, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil || int32(id) == semantics.BatchEndID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return semantics.Node{}, false
	}
	node, ok := s.bridge.Registry().Get(int32(id))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "node not found"})
		return semantics.Node{}, false
	}
	return node, true
}

// Serve listens on Addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.Addr).Msg("inspect: listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
