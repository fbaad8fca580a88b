package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/stock-quote/internal/mocks"
	"github.com/jsamuelsen/stock-quote/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingChecker struct {
	name string
	err  error
}

func (f failingChecker) Name() string                { return f.name }
func (f failingChecker) Check(context.Context) error { return f.err }

func healthRouter(t *testing.T, source string, checkers ...ports.HealthChecker) *gin.Engine {
	t.Helper()

	registry := ports.NewHealthRegistry()
	for _, c := range checkers {
		require.NoError(t, registry.Register(c))
	}

	router := gin.New()
	NewHealthHandler(HealthHandlerConfig{
		Registry:         registry,
		BuildInfo:        NewBuildInfo("1.4.0", "9f1c2ab", "2024-06-01T12:00:00Z"),
		CredentialSource: source,
	}).RegisterHealthRoutesOnEngine(router)

	return router
}

func TestNewBuildInfo(t *testing.T) {
	info := NewBuildInfo("1.4.0", "9f1c2ab", "2024-06-01T12:00:00Z")

	assert.Equal(t, BuildInfo{
		Version:   "1.4.0",
		Commit:    "9f1c2ab",
		BuildTime: "2024-06-01T12:00:00Z",
		GoVersion: runtime.Version(),
	}, info)
}

func TestLiveness_IgnoresChecks(t *testing.T) {
	router := healthRouter(t, "not_configured", failingChecker{"credentials", errors.New("no API key source configured")})

	w := serve(router, http.MethodGet, "/-/live", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		checkers   []ports.HealthChecker
		wantStatus int
		wantHealth string
		wantFailed map[string]string
	}{
		{
			name:       "key from environment",
			source:     "environment",
			checkers:   []ports.HealthChecker{passingChecker{"credentials"}, passingChecker{"finnhub"}},
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
		},
		{
			name:   "circuit open",
			source: "secrets_manager",
			checkers: []ports.HealthChecker{
				passingChecker{"credentials"},
				failingChecker{"finnhub", errors.New("circuit breaker open, retry in 42s")},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
			wantFailed: map[string]string{"finnhub": "circuit breaker open, retry in 42s"},
		},
		{
			name:   "no key source",
			source: "not_configured",
			checkers: []ports.HealthChecker{
				failingChecker{"credentials", errors.New("no API key source configured")},
				passingChecker{"finnhub"},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
			wantFailed: map[string]string{"credentials": "no API key source configured"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(healthRouter(t, tt.source, tt.checkers...), http.MethodGet, "/-/ready", "")
			require.Equal(t, tt.wantStatus, w.Code)

			var body readinessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

			assert.Equal(t, tt.wantHealth, body.Status)
			assert.Equal(t, tt.source, body.CredentialSource)
			assert.False(t, body.Timestamp.IsZero())
			require.Len(t, body.Checks, len(tt.checkers))

			for name, msg := range tt.wantFailed {
				assert.Equal(t, ports.HealthStatusUnhealthy, body.Checks[name].Status)
				assert.Equal(t, msg, body.Checks[name].Message)
			}
		})
	}
}

func TestReadiness_UsesRegistry(t *testing.T) {
	registry := mocks.NewMockHealthRegistry(t)
	registry.EXPECT().CheckAll(mock.Anything).Return(&ports.HealthResult{
		Status: ports.HealthStatusHealthy,
	}).Once()

	router := gin.New()
	NewHealthHandler(HealthHandlerConfig{Registry: registry}).RegisterHealthRoutesOnEngine(router)

	w := serve(router, http.MethodGet, "/-/ready", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "credentialSource")
}

func TestBuildInfoRoute(t *testing.T) {
	w := serve(healthRouter(t, "environment"), http.MethodGet, "/-/build", "")
	require.Equal(t, http.StatusOK, w.Code)

	var info BuildInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "1.4.0", info.Version)
	assert.Equal(t, "9f1c2ab", info.Commit)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}

func TestMetricsRoute(t *testing.T) {
	w := serve(healthRouter(t, "environment"), http.MethodGet, "/-/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `stock_quote_build_info{commit="9f1c2ab",goversion="`+runtime.Version()+`",version="1.4.0"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsRegistry_Isolated(t *testing.T) {
	a := NewMetricsRegistry(NewBuildInfo("1", "a", ""))
	b := NewMetricsRegistry(NewBuildInfo("2", "b", ""))

	families, err := a.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	assert.NotSame(t, a, b)
}
