package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrConfiguration,
		ErrSecretNotFound,
		ErrSecretAccess,
		ErrSecretFormat,
		ErrNetwork,
		ErrAuthentication,
		ErrRateLimit,
		ErrProviderHTTP,
		ErrMalformedResponse,
		ErrUnknownSymbol,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b,
					"sentinels should be distinct: %v vs %v", a, b)
			}
		}
	}
}

func TestConfigurationError(t *testing.T) {
	tests := []struct {
		name        string
		setting     string
		reason      string
		expectedMsg string
	}{
		{
			name:        "with setting",
			setting:     "credentials.region",
			reason:      "is required in managed mode",
			expectedMsg: "configuration error: credentials.region: is required in managed mode",
		},
		{
			name:        "without setting",
			reason:      "no api key source configured",
			expectedMsg: "configuration error: no api key source configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfigurationError(tt.setting, tt.reason)

			assert.Equal(t, tt.expectedMsg, err.Error())
			require.ErrorIs(t, err, ErrConfiguration)

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.setting, cfgErr.Setting)
		})
	}
}

func TestSecretErrors(t *testing.T) {
	cause := errors.New("AccessDeniedException")

	notFound := NewSecretNotFoundError("prod/finnhub/api_key")
	assert.Equal(t, `secret "prod/finnhub/api_key" not found`, notFound.Error())
	require.ErrorIs(t, notFound, ErrSecretNotFound)

	access := NewSecretAccessError("prod/finnhub/api_key", cause)
	require.ErrorIs(t, access, ErrSecretAccess)
	require.ErrorIs(t, access, cause)
	assert.Contains(t, access.Error(), "AccessDeniedException")

	format := NewSecretFormatError("prod/finnhub/api_key", "FINNHUB_API_KEY", "is required")
	assert.Equal(t, `secret "prod/finnhub/api_key": field FINNHUB_API_KEY: is required`, format.Error())
	require.ErrorIs(t, format, ErrSecretFormat)
}

func TestNetworkError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		timeout     bool
		circuitOpen bool
		expectedMsg string
	}{
		{
			name:        "timeout",
			err:         NewNetworkError("finnhub", true, context.DeadlineExceeded),
			timeout:     true,
			expectedMsg: `service "finnhub" timed out`,
		},
		{
			name:        "connection refused",
			err:         NewNetworkError("finnhub", false, errors.New("connection refused")),
			expectedMsg: `service "finnhub" unreachable: connection refused`,
		},
		{
			name:        "circuit open",
			err:         NewCircuitOpenError("finnhub"),
			circuitOpen: true,
			expectedMsg: `service "finnhub" unavailable: circuit breaker open`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedMsg, tt.err.Error())
			require.ErrorIs(t, tt.err, ErrNetwork)

			var netErr *NetworkError
			require.ErrorAs(t, tt.err, &netErr)
			assert.Equal(t, tt.timeout, netErr.Timeout)
			assert.Equal(t, tt.circuitOpen, netErr.CircuitOpen)
		})
	}
}

func TestAuthenticationError_NormalizesStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected int
	}{
		{"unauthorized", http.StatusUnauthorized, http.StatusUnauthorized},
		{"forbidden", http.StatusForbidden, http.StatusForbidden},
		{"other status becomes unauthorized", http.StatusTeapot, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAuthenticationError("finnhub", tt.status)

			var authErr *AuthenticationError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.expected, authErr.StatusCode)
			assert.True(t, IsAuthentication(err))
		})
	}
}

func TestMalformedResponseError(t *testing.T) {
	fieldErr := NewMalformedResponseError("c", "missing or not numeric")
	assert.Equal(t, "malformed quote response: field c: missing or not numeric", fieldErr.Error())
	require.ErrorIs(t, fieldErr, ErrMalformedResponse)

	cause := errors.New("unexpected EOF")
	decodeErr := NewDecodeError(cause)
	require.ErrorIs(t, decodeErr, ErrMalformedResponse)
	require.ErrorIs(t, decodeErr, cause)
	assert.Equal(t, "malformed quote response: decoding body: unexpected EOF", decodeErr.Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"configuration", NewConfigurationError("", "missing"), KindConfiguration},
		{"secret not found", NewSecretNotFoundError("id"), KindSecretNotFound},
		{"secret access", NewSecretAccessError("id", nil), KindSecretAccess},
		{"secret format", NewSecretFormatError("id", "", "bad json"), KindSecretFormat},
		{"network", NewNetworkError("finnhub", false, nil), KindNetwork},
		{"authentication", NewAuthenticationError("finnhub", 401), KindAuthentication},
		{"rate limit", NewRateLimitError("finnhub"), KindRateLimit},
		{"provider http", NewProviderHTTPError("finnhub", 500), KindProviderHTTP},
		{"malformed", NewMalformedResponseError("h", "missing"), KindMalformedResponse},
		{"unknown symbol", NewUnknownSymbolError("ZZZZ"), KindUnknownSymbol},
		{"wrapped", fmt.Errorf("fetching: %w", NewRateLimitError("finnhub")), KindRateLimit},
		{"uncategorized", errors.New("boom"), KindInternal},
		{"nil", nil, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func TestErrorWrappingChain(t *testing.T) {
	original := NewUnknownSymbolError("ZZZZ")
	wrapped := fmt.Errorf("layer2: %w", fmt.Errorf("layer1: %w", original))

	assert.True(t, IsUnknownSymbol(wrapped))

	var unknown *UnknownSymbolError
	require.ErrorAs(t, wrapped, &unknown)
	assert.Equal(t, Symbol("ZZZZ"), unknown.Symbol)
}
