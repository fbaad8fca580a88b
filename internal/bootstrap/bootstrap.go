// Package bootstrap wires configuration, logging, telemetry and the quote
// pipeline for the command entry points.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/m-mizutani/masq"

	"github.com/jsamuelsen/stock-quote/internal/adapters/clients"
	"github.com/jsamuelsen/stock-quote/internal/adapters/clients/acl"
	"github.com/jsamuelsen/stock-quote/internal/adapters/secrets"
	"github.com/jsamuelsen/stock-quote/internal/app"
	"github.com/jsamuelsen/stock-quote/internal/domain"
	"github.com/jsamuelsen/stock-quote/internal/platform/config"
	"github.com/jsamuelsen/stock-quote/internal/platform/logging"
	"github.com/jsamuelsen/stock-quote/internal/platform/telemetry"
	"github.com/jsamuelsen/stock-quote/internal/ports"
)

// Options customizes New. The zero value suits production.
type Options struct {
	// Version is reported in logs, telemetry and the provider User-Agent.
	Version string

	// Logger overrides the logger built from configuration.
	Logger *slog.Logger

	// LogWriter receives log output when Logger is nil. Defaults to stdout.
	LogWriter io.Writer

	// Store overrides the managed secret store. When nil and the
	// configuration selects managed mode, an AWS Secrets Manager store is built.
	Store ports.SecretStore
}

// Runtime holds the wired pipeline and the resources that need shutting down.
type Runtime struct {
	Config      *config.Config
	Logger      *slog.Logger
	Credentials *app.CredentialResolver
	Provider    *acl.FinnhubClient
	Service     *app.QuoteService
	Health      *ports.DefaultHealthRegistry

	telemetry *telemetry.Provider
}

// LoadConfig reads .env, then layered configuration for profile, and validates it.
func LoadConfig(profile string) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Profile returns the configuration profile named by APP_ENVIRONMENT, or "local".
func Profile() string {
	if profile := os.Getenv("APP_ENVIRONMENT"); profile != "" {
		return profile
	}

	return "local"
}

// NewLogger builds the process logger. Credential values are redacted by type.
func NewLogger(cfg *config.Config, version string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	if version == "" {
		version = cfg.App.Version
	}

	return logging.NewWithWriter(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
		Redact: []masq.Option{masq.WithType[domain.Credential]()},
	}, w)
}

// New wires the quote pipeline from cfg.
//
// No secret is fetched here: a missing or unreachable key surfaces on the
// first request as a typed error, so the process starts in every configuration.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(cfg, opts.Version, opts.LogWriter)
	}

	version := opts.Version
	if version == "" {
		version = cfg.App.Version
	}

	unknownCheck, err := domain.ParseUnknownSymbolCheck(cfg.Provider.UnknownSymbolCheck)
	if err != nil {
		return nil, fmt.Errorf("provider.unknown_symbol_check: %w", err)
	}

	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     !cfg.App.IsProduction(),
	})
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	store := opts.Store
	if store == nil && cfg.Credentials.ManagedMode() {
		store, err = secrets.NewAWSStoreForRegion(ctx, cfg.Credentials.Region)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("creating secret store: %w", err), telProvider.Shutdown(ctx))
		}
	}

	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Provider.BaseURL,
		ServiceName: cfg.Provider.Name,
		UserAgent:   userAgent(cfg, version),
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("creating provider client: %w", err), telProvider.Shutdown(ctx))
	}

	provider := acl.NewFinnhubClient(acl.FinnhubClientConfig{
		Client:             httpClient,
		QuotePath:          cfg.Provider.QuotePath,
		UnknownSymbolCheck: unknownCheck,
		Logger:             logger,
	})

	credentials := app.NewCredentialResolver(app.CredentialResolverConfig{
		Credentials: cfg.Credentials,
		Store:       store,
		Logger:      logger,
	})

	metrics, err := telemetry.NewQuoteMetrics()
	if err != nil {
		logger.Warn("quote metrics disabled", slog.String("error", err.Error()))
	}

	service := app.NewQuoteService(app.QuoteServiceConfig{
		Provider:      provider,
		Credentials:   credentials,
		DefaultSymbol: domain.Symbol(cfg.Provider.DefaultSymbol),
		Metrics:       metrics,
	})

	health := ports.NewHealthRegistry()
	for _, checker := range []ports.HealthChecker{credentials, provider} {
		if err := health.Register(checker); err != nil {
			return nil, errors.Join(fmt.Errorf("registering health check: %w", err), telProvider.Shutdown(ctx))
		}
	}

	logger.Debug("quote pipeline wired",
		slog.String("provider", cfg.Provider.Name),
		slog.String("credential_source", credentials.Source()),
		slog.Int("max_attempts", cfg.Client.Retry.MaxAttempts),
	)

	return &Runtime{
		Config:      cfg,
		Logger:      logger,
		Credentials: credentials,
		Provider:    provider,
		Service:     service,
		Health:      health,
		telemetry:   telProvider,
	}, nil
}

// Flush exports buffered telemetry. Serverless invocations call it before
// the runtime freezes the process.
func (r *Runtime) Flush(ctx context.Context) error {
	return r.telemetry.ForceFlush(ctx)
}

// Shutdown flushes and stops telemetry.
func (r *Runtime) Shutdown(ctx context.Context) error {
	return r.telemetry.Shutdown(ctx)
}

// userAgent prefers the configured value unless it still carries the
// placeholder version.
func userAgent(cfg *config.Config, version string) string {
	if cfg.Provider.UserAgent != "" && cfg.Provider.UserAgent != "stock-quote/dev" {
		return cfg.Provider.UserAgent
	}

	return "stock-quote/" + version
}
