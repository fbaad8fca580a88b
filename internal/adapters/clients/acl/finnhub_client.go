package acl

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/jsamuelsen/stock-quote/internal/adapters/clients"
	"github.com/jsamuelsen/stock-quote/internal/domain"
	"github.com/jsamuelsen/stock-quote/internal/platform/logging"
)

// DefaultQuotePath is the provider's quote endpoint relative to its base URL.
const DefaultQuotePath = "/quote"

// FinnhubClientConfig contains configuration for the Finnhub quote adapter.
type FinnhubClientConfig struct {
	// Client is the HTTP client to use for requests.
	// The client's BaseURL should point at the provider API root.
	Client *clients.Client

	// QuotePath defaults to DefaultQuotePath.
	QuotePath string

	// UnknownSymbolCheck selects how zeroed payloads are classified.
	UnknownSymbolCheck domain.UnknownSymbolCheck

	// Logger is the structured logger.
	Logger *slog.Logger
}

// FinnhubClient implements ports.QuoteProvider against the Finnhub REST API.
type FinnhubClient struct {
	BaseAdapter

	quotePath string
	check     domain.UnknownSymbolCheck
	logger    *slog.Logger
}

// NewFinnhubClient creates a new quote adapter.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewFinnhubClient(cfg FinnhubClientConfig) *FinnhubClient {
	if cfg.Client == nil {
		panic("FinnhubClient: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	quotePath := cfg.QuotePath
	if quotePath == "" {
		quotePath = DefaultQuotePath
	}

	check := cfg.UnknownSymbolCheck
	if check == "" {
		check = domain.CheckAllZero
	}

	return &FinnhubClient{
		BaseAdapter: NewBaseAdapter(cfg.Client, cfg.Client.Name()),
		quotePath:   quotePath,
		check:       check,
		logger:      logger,
	}
}

// FetchQuote retrieves the raw quote for symbol. The key travels only in the
// query string and never appears in logs or errors.
// Implements ports.QuoteProvider.
func (c *FinnhubClient) FetchQuote(ctx context.Context, symbol domain.Symbol, key domain.Credential) (domain.RawQuote, error) {
	logger := logging.FromContext(ctx)
	logger.Log(ctx, logging.LevelTrace, "requesting quote",
		slog.String("downstream", c.ServiceName()),
		slog.String("symbol", string(symbol)),
	)

	query := url.Values{}
	query.Set("symbol", string(symbol))
	query.Set("token", key.Reveal())

	body, errResp, err := c.Get(ctx, c.quotePath, query)
	if err != nil {
		attrs := []any{
			slog.String("symbol", string(symbol)),
			slog.String("error_kind", domain.KindOf(err)),
			slog.String("circuit", c.Client().CircuitState().String()),
		}
		if errResp != nil {
			attrs = append(attrs, slog.String("provider_message", errResp.Redacted(key.Reveal())))
		}

		logger.WarnContext(ctx, "quote request failed", attrs...)

		return nil, err
	}

	logger.Log(ctx, logging.LevelTrace, "quote payload received",
		slog.String("symbol", string(symbol)),
		slog.Int("bytes", len(body)),
	)

	obj, err := DecodeObject(body)
	if err != nil {
		return nil, err
	}

	raw := domain.RawQuote(obj)

	if c.check.IsUnknown(raw) {
		logger.DebugContext(ctx, "provider returned zeroed quote",
			slog.String("symbol", string(symbol)),
			slog.String("check", string(c.check)),
		)

		return nil, domain.NewUnknownSymbolError(symbol)
	}

	return raw, nil
}

// Name returns the health check name for this adapter.
// Implements ports.HealthChecker.
func (c *FinnhubClient) Name() string {
	return c.ServiceName()
}

// Check reports the provider unhealthy while its circuit is open.
// No request is made, so no API quota is spent.
// Implements ports.HealthChecker.
func (c *FinnhubClient) Check(ctx context.Context) error {
	return c.Client().Check(ctx)
}
