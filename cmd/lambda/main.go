// Package main runs the quote pipeline on AWS Lambda behind API Gateway.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/jsamuelsen/stock-quote/internal/adapters/lambda"
	"github.com/jsamuelsen/stock-quote/internal/bootstrap"
	"github.com/jsamuelsen/stock-quote/internal/domain"
	"github.com/jsamuelsen/stock-quote/internal/platform/logging"
)

// Version is injected via ldflags.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
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

	logging.SetDefault(rt.Logger)

	rt.Logger.Info("cold start",
		slog.String("version", Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("credential_source", rt.Credentials.Source()),
	)

	handler := lambda.NewHandler(lambda.HandlerConfig{
		Service:       rt.Service,
		DefaultSymbol: domain.Symbol(cfg.Provider.DefaultSymbol),
		Logger:        rt.Logger,
	})

	awslambda.StartWithOptions(&flushingHandler{handler: handler, runtime: rt},
		awslambda.WithEnableSIGTERM(func() {
			if err := rt.Shutdown(context.Background()); err != nil {
				rt.Logger.Error("telemetry shutdown error", slog.Any("error", err))
			}
		}),
	)

	return nil
}

// flushingHandler exports telemetry after every invocation; the sandbox may
// be frozen as soon as the response is returned.
type flushingHandler struct {
	handler *lambda.Handler
	runtime *bootstrap.Runtime
}

func (f *flushingHandler) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	resp, err := f.handler.Invoke(ctx, payload)

	if flushErr := f.runtime.Flush(ctx); flushErr != nil {
		f.runtime.Logger.WarnContext(ctx, "telemetry flush failed", slog.Any("error", flushErr))
	}

	return resp, err
}
