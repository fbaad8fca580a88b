// Package handlers provides HTTP request handlers for the local quote server.
package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/stock-quote/internal/ports"
)

// BuildInfo contains build-time information, injected with ldflags.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// NewBuildInfo creates a BuildInfo with the Go version automatically set.
func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// HealthHandlerConfig contains the dependencies of HealthHandler.
type HealthHandlerConfig struct {
	// Registry runs the credential and provider checks.
	Registry ports.HealthRegistry

	// BuildInfo is served on /-/build and exported as a metric.
	BuildInfo BuildInfo

	// CredentialSource is reported on /-/ready: environment, secrets_manager or not_configured.
	CredentialSource string
}

// HealthHandler serves the /-/ operational endpoints.
type HealthHandler struct {
	registry         ports.HealthRegistry
	buildInfo        BuildInfo
	credentialSource string
	metrics          http.Handler
}

// NewHealthHandler creates a new health handler with its own metrics registry.
func NewHealthHandler(cfg HealthHandlerConfig) *HealthHandler {
	return &HealthHandler{
		registry:         cfg.Registry,
		buildInfo:        cfg.BuildInfo,
		credentialSource: cfg.CredentialSource,
		metrics:          MetricsHandler(NewMetricsRegistry(cfg.BuildInfo)),
	}
}

type livenessResponse struct {
	Status string `json:"status"`
}

// Liveness handles /-/live. It never checks dependencies.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, livenessResponse{
		Status: "ok",
	})
}

type readinessResponse struct {
	Status           string                        `json:"status"`
	CredentialSource string                        `json:"credentialSource,omitempty"`
	Checks           map[string]*ports.CheckResult `json:"checks,omitempty"`
	Timestamp        time.Time                     `json:"timestamp"`
}

// Readiness handles /-/ready.
// Returns 503 when the key cannot be resolved or the provider circuit is open.
func (h *HealthHandler) Readiness(c *gin.Context) {
	result := h.registry.CheckAll(c.Request.Context())

	resp := readinessResponse{
		Status:           string(result.Status),
		CredentialSource: h.credentialSource,
		Checks:           result.Checks,
		Timestamp:        result.Timestamp,
	}

	status := http.StatusOK
	if result.Status == ports.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, resp)
}

// BuildInfoHandler handles /-/build.
func (h *HealthHandler) BuildInfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildInfo)
}

// NewMetricsRegistry returns a Prometheus registry holding the Go runtime
// and process collectors plus a stock_quote_build_info gauge.
func NewMetricsRegistry(info BuildInfo) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stock_quote_build_info",
		Help: "Build metadata of the running quote server.",
	}, []string{"version", "commit", "goversion"})
	buildInfo.WithLabelValues(info.Version, info.Commit, info.GoVersion).Set(1)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		buildInfo,
	)

	return reg
}

// MetricsHandler exposes gatherer in the Prometheus text format.
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RegisterHealthRoutes registers the operational routes on rg:
//   - GET /live
//   - GET /ready
//   - GET /build
//   - GET /metrics
func (h *HealthHandler) RegisterHealthRoutes(rg *gin.RouterGroup) {
	rg.GET("/live", h.Liveness)
	rg.GET("/ready", h.Readiness)
	rg.GET("/build", h.BuildInfoHandler)
	rg.GET("/metrics", gin.WrapH(h.metrics))
}

// RegisterHealthRoutesOnEngine registers the routes under /-/.
func (h *HealthHandler) RegisterHealthRoutesOnEngine(engine *gin.Engine) {
	h.RegisterHealthRoutes(engine.Group("/-"))
}
