package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/stock-quote/internal/adapters/http/dto"
	"github.com/jsamuelsen/stock-quote/internal/adapters/http/handlers"
	"github.com/jsamuelsen/stock-quote/internal/domain"
	"github.com/jsamuelsen/stock-quote/internal/mocks"
	"github.com/jsamuelsen/stock-quote/internal/platform/config"
	"github.com/jsamuelsen/stock-quote/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     30 * time.Second,
		ShutdownTimeout: 2 * time.Second,
		MaxRequestSize:  64,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestServer_Addr(t *testing.T) {
	cfg := testServerConfig()
	cfg.Host = "0.0.0.0"
	cfg.Port = 8080

	assert.Equal(t, "0.0.0.0:8080", New(cfg, discardLogger()).Addr())

	cfg.Host = "::1"
	assert.Equal(t, "[::1]:8080", New(cfg, discardLogger()).Addr())
}

func TestServer_ServeUntilCancelled(t *testing.T) {
	srv := New(testServerConfig(), discardLogger())
	srv.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	ln, err := srv.Listen()
	require.NoError(t, err)
	assert.NotEqual(t, "127.0.0.1:0", srv.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + srv.Addr() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "pong", string(body))

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunFailsOnBusyPort(t *testing.T) {
	first := New(testServerConfig(), discardLogger())
	ln, err := first.Listen()
	require.NoError(t, err)
	defer ln.Close()

	cfg := testServerConfig()
	_, port, _ := strings.Cut(first.Addr(), ":")
	cfg.Port, _ = strconv.Atoi(port)

	err = New(cfg, discardLogger()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listening on")
}

func TestServer_LimitsBody(t *testing.T) {
	srv := New(testServerConfig(), discardLogger())
	srv.Engine().POST("/echo", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, "%d", len(body))
	})

	for _, tt := range []struct {
		size int
		want int
	}{
		{size: 32, want: http.StatusOK},
		{size: 65, want: http.StatusRequestEntityTooLarge},
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", tt.size)))
		srv.Engine().ServeHTTP(w, req)

		assert.Equal(t, tt.want, w.Code, "size %d", tt.size)
	}
}

// TestNewDefaultRouterConfig tests building the router configuration from loaded config.
func TestNewDefaultRouterConfig(t *testing.T) {
	logger := discardLogger()
	cfg := &config.Config{
		App:    config.AppConfig{Name: "stock-quote", Environment: "test", Version: "1.0.0"},
		Server: config.ServerConfig{RequestTimeout: 12 * time.Second},
	}
	healthHandler := handlers.NewHealthHandler(handlers.HealthHandlerConfig{})

	routerCfg := NewDefaultRouterConfig(logger, cfg, healthHandler, nil)

	assert.Equal(t, logger, routerCfg.Logger)
	assert.Equal(t, &cfg.App, routerCfg.AppConfig)
	assert.Equal(t, healthHandler, routerCfg.HealthHandler)
	assert.Equal(t, 12*time.Second, routerCfg.Timeout)
	assert.Nil(t, routerCfg.QuoteHandler)

	cfg.Server.RequestTimeout = 0
	assert.Equal(t, DefaultRequestTimeout, NewDefaultRouterConfig(logger, cfg, nil, nil).Timeout)
}

// setupQuoteEngine builds a fully wired engine over a mock quote service.
func setupQuoteEngine(t *testing.T, setupMock func(*mocks.MockQuoteService)) *gin.Engine {
	t.Helper()

	service := mocks.NewMockQuoteService(t)
	if setupMock != nil {
		setupMock(service)
	}

	registry := mocks.NewMockHealthRegistry(t)
	registry.EXPECT().CheckAll(mock.Anything).Return(&ports.HealthResult{
		Status: ports.HealthStatusHealthy,
		Checks: map[string]*ports.CheckResult{},
	}).Maybe()

	engine := gin.New()
	SetupRouter(engine, RouterConfig{
		Logger:        discardLogger(),
		AppConfig:     &config.AppConfig{Name: "stock-quote"},
		HealthHandler: handlers.NewHealthHandler(handlers.HealthHandlerConfig{Registry: registry}),
		QuoteHandler:  handlers.NewQuoteHandler(service, "AAPL"),
		Timeout:       5 * time.Second,
	})

	return engine
}

// TestSetupRouter tests that health and quote routes are registered.
func TestSetupRouter(t *testing.T) {
	engine := setupQuoteEngine(t, nil)

	routeMap := make(map[string]bool)
	for _, r := range engine.Routes() {
		routeMap[r.Method+" "+r.Path] = true
	}

	for _, expected := range []string{
		"GET /-/live",
		"GET /-/ready",
		"GET /api/v1/quote",
		"POST /api/v1/quote",
		"OPTIONS /api/v1/quote",
		"GET /api/v1/quote/:symbol",
	} {
		assert.True(t, routeMap[expected], "missing route: %s", expected)
	}
}

// TestSetupRouter_QuoteSuccess tests the full middleware chain on a successful quote.
func TestSetupRouter_QuoteSuccess(t *testing.T) {
	engine := setupQuoteEngine(t, func(m *mocks.MockQuoteService) {
		m.EXPECT().GetQuote(mock.Anything, "msft").Return(&domain.NormalizedQuote{
			Symbol:       "MSFT",
			CurrentPrice: 410.5,
		}, nil).Once()
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quote?symbol=msft", nil)
	req.Header.Set("X-Request-ID", "req-123")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	var body domain.NormalizedQuote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.Symbol("MSFT"), body.Symbol)
	assert.InDelta(t, 410.5, body.CurrentPrice, 1e-9)
}

// TestSetupRouter_QuoteError tests that errors keep the CORS headers.
func TestSetupRouter_QuoteError(t *testing.T) {
	engine := setupQuoteEngine(t, func(m *mocks.MockQuoteService) {
		m.EXPECT().GetQuote(mock.Anything, "").
			Return(nil, domain.NewCircuitOpenError("finnhub")).Once()
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/quote", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrorCodeUnavailable, resp.Error.Code)
	assert.Equal(t, "AAPL", resp.Symbol)
}

// TestSetupRouter_Preflight tests that CORS answers OPTIONS without calling the service.
func TestSetupRouter_Preflight(t *testing.T) {
	engine := setupQuoteEngine(t, nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/quote", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
}

// TestSetupRouter_NoRoute tests the not-found envelope.
func TestSetupRouter_NoRoute(t *testing.T) {
	engine := setupQuoteEngine(t, nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/quote", nil))

	require.Equal(t, http.StatusNotFound, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrorCodeNotFound, resp.Error.Code)
}

// TestSetupRouterWithNilHandlers tests router setup without handlers.
func TestSetupRouterWithNilHandlers(t *testing.T) {
	engine := gin.New()

	require.NotPanics(t, func() {
		SetupRouter(engine, RouterConfig{
			Logger:  discardLogger(),
			Timeout: 0,
		})
	})
}
