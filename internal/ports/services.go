// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNetwork, ErrSecretNotFound, etc.)
//   - Keep interfaces small and focused
package ports

import (
	"context"

	"github.com/jsamuelsen/stock-quote/internal/domain"
)

// QuoteProvider fetches a raw quote from the market-data provider.
//
// Implementations map transport and HTTP failures to domain errors:
//   - domain.ErrNetwork for DNS, refused connections, timeouts, open circuit
//   - domain.ErrAuthentication for 401/403
//   - domain.ErrRateLimit for 429
//   - domain.ErrProviderHTTP for any other non-2xx status
//   - domain.ErrMalformedResponse for an undecodable body
//   - domain.ErrUnknownSymbol when the payload describes no known symbol
type QuoteProvider interface {
	FetchQuote(ctx context.Context, symbol domain.Symbol, key domain.Credential) (domain.RawQuote, error)
}

// SecretStore reads secret strings from a managed secret store.
//
// Returns domain.ErrSecretNotFound when the id does not exist,
// domain.ErrSecretAccess when the store refuses or cannot be reached, and
// domain.ErrSecretFormat when the secret has no string payload.
type SecretStore interface {
	GetSecretString(ctx context.Context, secretID string) (string, error)
}

// CredentialResolver produces the provider API key.
type CredentialResolver interface {
	// Resolve returns the key, from explicit configuration or the secret store.
	Resolve(ctx context.Context) (domain.Credential, error)

	// Invalidate drops any memoized key so the next Resolve fetches again.
	Invalidate()

	// Source names where the key comes from without revealing it.
	Source() string
}

// QuoteService is the inbound port used by the HTTP, serverless and CLI adapters.
type QuoteService interface {
	// GetQuote normalizes symbol, resolves the key and returns the normalized quote.
	// An empty symbol selects the configured default.
	GetQuote(ctx context.Context, symbol string) (*domain.NormalizedQuote, error)
}
