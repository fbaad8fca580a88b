// Package main runs the quote pipeline as a local HTTP service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jsamuelsen/stock-quote/internal/adapters/http"
	"github.com/jsamuelsen/stock-quote/internal/adapters/http/handlers"
	"github.com/jsamuelsen/stock-quote/internal/bootstrap"
	"github.com/jsamuelsen/stock-quote/internal/domain"
	"github.com/jsamuelsen/stock-quote/internal/platform/logging"
)

// Set with -ldflags "-X main.Version=... -X main.Commit=... -X main.BuildTime=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "stock-quote service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := bootstrap.LoadConfig(bootstrap.Profile())
	if err != nil {
		return err
	}

	rt, err := bootstrap.New(ctx, cfg, bootstrap.Options{Version: Version})
	if err != nil {
		return err
	}

	logger := rt.Logger
	logging.SetDefault(logger)

	defer func() {
		if shutdownErr := rt.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	server := http.New(&cfg.Server, logger)

	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	healthHandler := handlers.NewHealthHandler(handlers.HealthHandlerConfig{
		Registry:         rt.Health,
		BuildInfo:        buildInfo,
		CredentialSource: rt.Credentials.Source(),
	})
	quoteHandler := handlers.NewQuoteHandler(rt.Service, domain.Symbol(cfg.Provider.DefaultSymbol))
	http.SetupRouter(server.Engine(), http.NewDefaultRouterConfig(logger, cfg, healthHandler, quoteHandler))

	logger.Info("serving quotes",
		slog.String("addr", server.Addr()),
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("credential_source", rt.Credentials.Source()),
	)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(sigCtx); err != nil {
		return fmt.Errorf("local server: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
