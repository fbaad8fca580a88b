package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/stock-quote/internal/adapters/http/dto"
	"github.com/jsamuelsen/stock-quote/internal/adapters/http/handlers"
	"github.com/jsamuelsen/stock-quote/internal/adapters/http/middleware"
	"github.com/jsamuelsen/stock-quote/internal/platform/config"
	"github.com/jsamuelsen/stock-quote/internal/platform/telemetry"
)

// DefaultRequestTimeout bounds a quote request when none is configured.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig wires handlers into SetupRouter. Nil handlers leave their
// routes unregistered.
type RouterConfig struct {
	// Logger seeds every request context.
	Logger *slog.Logger
	// AppConfig names the service in spans.
	AppConfig *config.AppConfig

	HealthHandler *handlers.HealthHandler
	QuoteHandler  *handlers.QuoteHandler

	// Timeout bounds each API request. Zero disables it.
	Timeout time.Duration
}

// SetupRouter installs the middleware chain and routes on engine.
//
// Every request passes Recovery, RequestID, CorrelationID, tracing, HTTP
// metrics and AccessLog, in that order. Health checks, build info and Prometheus
// metrics live under /-/; the quote API lives under /api/v1 behind CORS and
// a per-request deadline.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	name := "stock-quote"
	if cfg.AppConfig != nil && cfg.AppConfig.Name != "" {
		name = cfg.AppConfig.Name
	}

	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(name),
		telemetry.Middleware(),
		middleware.AccessLog(cfg.Logger),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	api := engine.Group("/api/v1", middleware.CORS(), middleware.Deadline(cfg.Timeout))
	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterQuoteRoutes(api)
	}

	engine.NoRoute(func(c *gin.Context) {
		dto.AbortWithErrorCode(c, dto.ErrorCodeNotFound, "route not found")
	})
}

// NewDefaultRouterConfig derives a RouterConfig from loaded configuration.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	quoteHandler *handlers.QuoteHandler,
) RouterConfig {
	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return RouterConfig{
		Logger:        logger,
		AppConfig:     &cfg.App,
		HealthHandler: healthHandler,
		QuoteHandler:  quoteHandler,
		Timeout:       timeout,
	}
}
