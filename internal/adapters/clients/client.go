package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/stock-quote/internal/adapters/http/middleware"
	"github.com/jsamuelsen/stock-quote/internal/platform/config"
	"github.com/jsamuelsen/stock-quote/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/stock-quote/internal/adapters/clients"

	defaultTimeout = 5 * time.Second
)

// Config configures a provider client.
type Config struct {
	// BaseURL is prefixed to every request path, e.g. "https://finnhub.io/api/v1".
	BaseURL string

	// ServiceName names the provider in logs, spans and health output.
	ServiceName string

	UserAgent string

	// Timeout bounds each attempt, including the body read.
	Timeout time.Duration

	// Retry.MaxAttempts of 1 disables retry.
	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	Logger *slog.Logger

	// HTTPClient replaces the pooled client built from Timeout and Transport.
	HTTPClient *http.Client
}

// Client calls the quote provider with retry, a circuit breaker, tracing,
// metrics and request/correlation ID propagation. It never logs or traces
// the query string, which carries the API key.
type Client struct {
	http    *http.Client
	baseURL string
	name    string
	agent   string
	retry   config.RetryConfig
	breaker *breaker
	logger  *slog.Logger
	tracer  trace.Tracer

	duration metric.Float64Histogram
	requests metric.Int64Counter
}

// New builds a Client. Zero Timeout and MaxAttempts fall back to defaults.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "clients.Client"), slog.String("downstream", cfg.ServiceName))

	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram("http.client.request.duration",
		metric.WithDescription("Duration of quote provider requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requests, err := meter.Int64Counter("http.client.request.total",
		metric.WithDescription("Quote provider requests by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        cfg.Transport.MaxIdleConns,
				MaxIdleConnsPerHost: cfg.Transport.MaxIdleConnsPerHost,
				IdleConnTimeout:     cfg.Transport.IdleConnTimeout,
			},
		}
	}

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		name:    cfg.ServiceName,
		agent:   cfg.UserAgent,
		retry:   cfg.Retry,
		breaker: newBreaker(cfg.Circuit, func(from, to State) {
			logger.Warn("circuit breaker state changed",
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		}),
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		duration: duration,
		requests: requests,
	}, nil
}

// Get sends a GET for path with query appended.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	return c.Do(ctx, req)
}

// Do sends req. Any HTTP response, 4xx and 5xx included, is returned for the
// caller to interpret. Failures are ErrCircuitOpen or wrap ErrRequestFailed.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("downstream", c.name),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if err := c.breaker.acquire(); err != nil {
		c.record(ctx, req.Method, 0, time.Since(start), "circuit_open")
		logger.Warn("request blocked by circuit breaker")

		return nil, err
	}

	c.setHeaders(ctx, req)

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", withoutQuery(req.URL)),
			attribute.String("peer.service", c.name),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.send(ctx, req, logger)
	elapsed := time.Since(start)

	if err != nil {
		// Caller cancellation says nothing about provider health.
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			c.breaker.release()
		} else {
			c.breaker.failure()
		}

		span.SetStatus(codes.Error, "request failed")
		span.RecordError(err)
		c.record(ctx, req.Method, 0, elapsed, "error")
		logger.Warn("request failed", slog.Duration("duration", elapsed), slog.Bool("timeout", IsTimeout(err)))

		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	// 429 and 5xx count against the breaker; other 4xx prove the provider is answering.
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		c.breaker.failure()
	} else {
		c.breaker.success()
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}

	c.record(ctx, req.Method, resp.StatusCode, elapsed, fmt.Sprintf("%dxx", resp.StatusCode/100))
	logger.Debug("request completed", slog.Int("status", resp.StatusCode), slog.Duration("duration", elapsed))

	return resp, nil
}

// CircuitState reports the breaker position.
func (c *Client) CircuitState() State {
	state, _ := c.breaker.current()
	return state
}

// Name implements ports.HealthChecker.
func (c *Client) Name() string {
	return c.name
}

// Check implements ports.HealthChecker without calling the provider: it
// fails only while the circuit is open.
func (c *Client) Check(_ context.Context) error {
	if state, wait := c.breaker.current(); state == StateOpen {
		return fmt.Errorf("%w, retry in %s", ErrCircuitOpen, wait.Round(time.Second))
	}

	return nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request) {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}

	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}
}

func (c *Client) record(ctx context.Context, method string, status int, elapsed time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.name),
		attribute.String("result", result),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	set := metric.WithAttributes(attrs...)
	c.duration.Record(ctx, elapsed.Seconds(), set)
	c.requests.Add(ctx, 1, set)
}
