// Package app contains application services that orchestrate use cases.
// It depends on port interfaces only; adapters are injected at startup.
package app

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jsamuelsen/stock-quote/internal/domain"
	"github.com/jsamuelsen/stock-quote/internal/platform/logging"
	"github.com/jsamuelsen/stock-quote/internal/platform/telemetry"
	"github.com/jsamuelsen/stock-quote/internal/ports"
)

const tracerName = "github.com/jsamuelsen/stock-quote/internal/app"

// outcomeOK is the metrics outcome for a successful retrieval.
const outcomeOK = "ok"

// QuoteService runs the quote pipeline: resolve key, fetch, normalize.
// It holds no per-request state and is safe for concurrent use.
type QuoteService struct {
	provider      ports.QuoteProvider
	credentials   ports.CredentialResolver
	defaultSymbol domain.Symbol
	metrics       *telemetry.QuoteMetrics
}

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	Provider    ports.QuoteProvider
	Credentials ports.CredentialResolver

	// DefaultSymbol is used for blank requests. Defaults to domain.DefaultSymbol.
	DefaultSymbol domain.Symbol

	// Metrics is optional.
	Metrics *telemetry.QuoteMetrics
}

// NewQuoteService creates a new quote service with the provided dependencies.
// Panics if Provider or Credentials is nil.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Provider == nil {
		panic("QuoteService: Provider is required")
	}

	if cfg.Credentials == nil {
		panic("QuoteService: Credentials is required")
	}

	return &QuoteService{
		provider:      cfg.Provider,
		credentials:   cfg.Credentials,
		defaultSymbol: domain.ParseSymbol(string(cfg.DefaultSymbol), domain.DefaultSymbol),
		metrics:       cfg.Metrics,
	}
}

// GetQuote returns the normalized quote for symbol. Blank input selects the
// default symbol. Errors are the typed domain errors, returned unchanged.
// Implements ports.QuoteService.
func (s *QuoteService) GetQuote(ctx context.Context, symbol string) (*domain.NormalizedQuote, error) {
	sym := domain.ParseSymbol(symbol, s.defaultSymbol)
	start := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "QuoteService.GetQuote")
	defer span.End()

	span.SetAttributes(attribute.String("quote.symbol", sym.String()))

	logger := logging.FromContext(ctx).With(slog.String("symbol", sym.String()))
	logger.DebugContext(ctx, "fetching quote", slog.String("credential_source", s.credentials.Source()))

	quote, err := s.run(ctx, sym)

	elapsed := time.Since(start)
	if err != nil {
		kind := domain.KindOf(err)

		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		s.metrics.Record(ctx, kind, elapsed)

		logger.ErrorContext(ctx, "quote retrieval failed",
			slog.String("error_kind", kind),
			slog.Any("error", err),
			slog.Duration("elapsed", elapsed),
		)

		return nil, err
	}

	s.metrics.Record(ctx, outcomeOK, elapsed)

	logger.InfoContext(ctx, "quote retrieved",
		slog.Float64("current_price", quote.CurrentPrice),
		slog.Duration("elapsed", elapsed),
	)

	return quote, nil
}

func (s *QuoteService) run(ctx context.Context, sym domain.Symbol) (*domain.NormalizedQuote, error) {
	key, err := s.credentials.Resolve(ctx)
	if err != nil {
		if domain.IsSecretAccess(err) {
			s.credentials.Invalidate()
		}

		return nil, err
	}

	raw, err := s.provider.FetchQuote(ctx, sym, key)
	if err != nil {
		if domain.IsAuthentication(err) {
			// The key may have been rotated; look it up again next time.
			s.credentials.Invalidate()
		}

		return nil, err
	}

	return domain.Normalize(sym, raw)
}
