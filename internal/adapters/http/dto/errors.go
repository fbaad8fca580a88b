// Package dto provides Data Transfer Objects for HTTP request/response handling.
// The same envelopes are used by the serverless adapter.
package dto

import (
	"errors"
	"net/http"

	"github.com/jsamuelsen/stock-quote/internal/domain"
)

// ErrorResponse is the standard error envelope for all error responses.
// It never carries credential material or internal error text.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	Symbol  string      `json:"symbol,omitempty"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	// Code is a machine-readable error code (e.g., "UNKNOWN_SYMBOL", "RATE_LIMITED").
	Code string `json:"code"`

	// Message is a fixed human-readable message for the code.
	Message string `json:"message"`

	// Details provides field-level messages for request validation errors.
	Details map[string]string `json:"details,omitempty"`
}

// Error codes for machine-readable error identification.
const (
	ErrorCodeConfiguration = "CONFIGURATION_ERROR"
	ErrorCodeSecretMissing = "SECRET_NOT_FOUND"
	ErrorCodeSecretAccess  = "SECRET_ACCESS_ERROR"
	ErrorCodeSecretFormat  = "SECRET_FORMAT_ERROR"
	ErrorCodeUnauthorized  = "UNAUTHORIZED"
	ErrorCodeForbidden     = "FORBIDDEN"
	ErrorCodeRateLimited   = "RATE_LIMITED"
	ErrorCodeUnknownSymbol = "UNKNOWN_SYMBOL"
	ErrorCodeMalformed     = "MALFORMED_RESPONSE"
	ErrorCodeUpstream      = "UPSTREAM_ERROR"
	ErrorCodeNetwork       = "NETWORK_ERROR"
	ErrorCodeTimeout       = "TIMEOUT"
	ErrorCodeUnavailable   = "SERVICE_UNAVAILABLE"
	ErrorCodeValidation    = "VALIDATION_ERROR"
	ErrorCodeBadRequest    = "BAD_REQUEST"
	ErrorCodeNotFound      = "NOT_FOUND"
	ErrorCodeInternal      = "INTERNAL_ERROR"
)

// NewErrorResponse creates a new error response with the given code and message.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithDetails creates an error response with additional details.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// WithTraceID adds a trace ID to the error response.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// WithSymbol records the requested symbol on the error response.
func (e *ErrorResponse) WithSymbol(symbol string) *ErrorResponse {
	e.Symbol = symbol
	return e
}

// FromDomainError maps an error from the quote pipeline to an HTTP status and
// error envelope. Messages are fixed per code; err.Error() is never exposed.
// Unknown errors map to 500 with a generic message.
func FromDomainError(err error) (int, *ErrorResponse) {
	switch {
	case err == nil:
		return http.StatusOK, nil

	case domain.IsConfiguration(err):
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeConfiguration, "service credentials are not configured")

	case domain.IsSecretNotFound(err):
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeSecretMissing, "service credentials could not be found")

	case domain.IsSecretAccess(err):
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeSecretAccess, "service credentials could not be retrieved")

	case domain.IsSecretFormat(err):
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeSecretFormat, "service credentials are malformed")

	case domain.IsAuthentication(err):
		var authErr *domain.AuthenticationError
		if errors.As(err, &authErr) && authErr.StatusCode == http.StatusForbidden {
			return http.StatusForbidden, NewErrorResponse(ErrorCodeForbidden, "market data provider denied access")
		}

		return http.StatusUnauthorized, NewErrorResponse(ErrorCodeUnauthorized, "market data provider rejected the API key")

	case domain.IsRateLimit(err):
		return http.StatusTooManyRequests, NewErrorResponse(ErrorCodeRateLimited, "market data provider rate limit exceeded")

	case domain.IsUnknownSymbol(err):
		return http.StatusBadRequest, NewErrorResponse(ErrorCodeUnknownSymbol, "symbol is not recognized by the market data provider")

	case domain.IsMalformedResponse(err):
		return http.StatusBadGateway, NewErrorResponse(ErrorCodeMalformed, "market data provider returned an unusable response")

	case domain.IsProviderHTTP(err):
		return http.StatusBadGateway, NewErrorResponse(ErrorCodeUpstream, "market data provider returned an error")

	case domain.IsNetwork(err):
		return networkError(err)

	default:
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, "an internal error occurred")
	}
}

func networkError(err error) (int, *ErrorResponse) {
	var netErr *domain.NetworkError
	if errors.As(err, &netErr) {
		switch {
		case netErr.CircuitOpen:
			return http.StatusServiceUnavailable, NewErrorResponse(ErrorCodeUnavailable, "market data provider temporarily unavailable")
		case netErr.Timeout:
			return http.StatusGatewayTimeout, NewErrorResponse(ErrorCodeTimeout, "market data provider timed out")
		}
	}

	return http.StatusBadGateway, NewErrorResponse(ErrorCodeNetwork, "market data provider unreachable")
}

// HTTPStatusFromCode maps adapter-level error codes to HTTP status codes.
func HTTPStatusFromCode(code string) int {
	switch code {
	case ErrorCodeValidation, ErrorCodeBadRequest, ErrorCodeUnknownSymbol:
		return http.StatusBadRequest
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeForbidden:
		return http.StatusForbidden
	case ErrorCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrorCodeUpstream, ErrorCodeMalformed, ErrorCodeNetwork:
		return http.StatusBadGateway
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
