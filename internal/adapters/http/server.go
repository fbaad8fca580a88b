// Package http serves the quote pipeline from a local Gin engine.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/stock-quote/internal/platform/config"
)

// Server binds the Gin engine to a local address.
type Server struct {
	engine *gin.Engine
	srv    *http.Server
	cfg    *config.ServerConfig
	logger *slog.Logger
}

// New builds a Server whose engine caps request bodies at cfg.MaxRequestSize.
func New(cfg *config.ServerConfig, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(limitBody(cfg.MaxRequestSize))

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		cfg:    cfg,
		logger: logger,
	}
}

// Engine exposes the engine for route registration.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Listen binds the configured address. Port 0 picks a free port, which
// Addr then reports.
func (s *Server) Listen() (net.Listener, error) {
	var lc net.ListenConfig

	ln, err := lc.Listen(context.Background(), "tcp", s.srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	s.srv.Addr = ln.Addr().String()

	return ln, nil
}

// Addr is the configured address, or the bound one after Listen.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Serve handles requests on ln until ctx is done, then drains in-flight
// requests for at most ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("local quote server listening",
			slog.String("addr", s.srv.Addr),
			slog.String("endpoint", "http://"+s.srv.Addr+"/api/v1/quote"),
		)

		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		drain, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()

		s.logger.Info("draining local quote server", slog.Duration("timeout", s.cfg.ShutdownTimeout))

		if err := s.srv.Shutdown(drain); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info("local quote server stopped")

	return nil
}

// Run is Listen followed by Serve.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}

	return s.Serve(ctx, ln)
}

// limitBody caps request bodies; quote envelopes are tiny.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
