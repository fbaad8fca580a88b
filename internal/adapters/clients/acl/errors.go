package acl

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/jsamuelsen/stock-quote/internal/adapters/clients"
	"github.com/jsamuelsen/stock-quote/internal/domain"
)

const (
	// maxErrorBody bounds how much of an error body is read for logging.
	maxErrorBody = 4 << 10

	// maxLoggedMessage bounds the provider message written to logs.
	maxLoggedMessage = 120
)

// ErrorResponse is the provider's error body, e.g. {"error":"Invalid API key."}.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ParseErrorResponse attempts to parse an error response body.
// Returns nil if the body is empty, unparsable or carries no message.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.Error == "" {
		return nil
	}

	return &errResp
}

// Redacted returns the provider message safe for logging: every occurrence
// of secret is masked and the result is cut to maxLoggedMessage bytes.
// Providers may echo the rejected key back in the message.
func (e *ErrorResponse) Redacted(secret string) string {
	msg := e.Error
	if secret != "" {
		msg = strings.ReplaceAll(msg, secret, "[REDACTED]")
	}

	if len(msg) > maxLoggedMessage {
		cut := maxLoggedMessage
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "..."
	}

	return msg
}

// MapHTTPError maps a failed exchange with the provider to a domain error.
//
// Parameters:
//   - resp: The HTTP response (nil when clientErr is set)
//   - clientErr: Any error from the HTTP client (may be nil)
//   - serviceName: Name of the provider for error context
//
// Returns nil for 2xx responses.
func MapHTTPError(resp *http.Response, clientErr error, serviceName string) error {
	if clientErr != nil {
		return mapClientError(clientErr, serviceName)
	}

	if resp == nil {
		return domain.NewNetworkError(serviceName, false, errors.New("no response received"))
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	return mapStatusCode(resp.StatusCode, serviceName)
}

// mapClientError translates client-level errors to domain errors.
func mapClientError(err error, serviceName string) error {
	if errors.Is(err, clients.ErrCircuitOpen) {
		return domain.NewCircuitOpenError(serviceName)
	}

	return domain.NewNetworkError(serviceName, clients.IsTimeout(err), err)
}

// mapStatusCode translates non-2xx HTTP status codes to domain errors.
func mapStatusCode(status int, serviceName string) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.NewAuthenticationError(serviceName, status)
	case http.StatusTooManyRequests:
		return domain.NewRateLimitError(serviceName)
	default:
		return domain.NewProviderHTTPError(serviceName, status)
	}
}
