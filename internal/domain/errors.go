// Package domain contains business logic types and errors.
// Domain errors represent business-level failures, NOT HTTP errors.
// They are infrastructure-agnostic and can be mapped to HTTP/Lambda responses by adapters.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrConfiguration indicates neither an explicit key nor a complete
	// managed-store configuration is available.
	ErrConfiguration = errors.New("configuration error")

	// ErrSecretNotFound indicates the secret store has no secret with the configured id.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrSecretAccess indicates the secret store is unreachable or refused access.
	ErrSecretAccess = errors.New("secret access denied")

	// ErrSecretFormat indicates the secret payload is unparsable or lacks the key field.
	ErrSecretFormat = errors.New("secret format invalid")

	// ErrNetwork indicates the provider could not be reached (DNS, refused, timeout).
	ErrNetwork = errors.New("network error")

	// ErrAuthentication indicates the provider rejected the API key.
	ErrAuthentication = errors.New("authentication failed")

	// ErrRateLimit indicates the provider throttled the request.
	ErrRateLimit = errors.New("rate limited")

	// ErrProviderHTTP indicates any other non-2xx provider status.
	ErrProviderHTTP = errors.New("provider http error")

	// ErrMalformedResponse indicates the provider payload could not be used.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrUnknownSymbol indicates the provider does not recognize the symbol.
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// ConfigurationError provides context for configuration errors.
type ConfigurationError struct {
	Setting string
	Reason  string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Setting != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
	}

	return "configuration error: " + e.Reason
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// NewConfigurationError creates a configuration error with context.
func NewConfigurationError(setting, reason string) error {
	return &ConfigurationError{Setting: setting, Reason: reason}
}

// SecretNotFoundError provides context for a missing secret.
type SecretNotFoundError struct {
	SecretID string
}

// Error implements the error interface.
func (e *SecretNotFoundError) Error() string {
	return fmt.Sprintf("secret %q not found", e.SecretID)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *SecretNotFoundError) Unwrap() error {
	return ErrSecretNotFound
}

// NewSecretNotFoundError creates a secret not found error.
func NewSecretNotFoundError(secretID string) error {
	return &SecretNotFoundError{SecretID: secretID}
}

// SecretAccessError provides context for secret store access failures.
type SecretAccessError struct {
	SecretID string
	Cause    error
}

// Error implements the error interface.
func (e *SecretAccessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("accessing secret %q: %v", e.SecretID, e.Cause)
	}

	return fmt.Sprintf("accessing secret %q failed", e.SecretID)
}

// Unwrap returns the sentinel and the cause.
func (e *SecretAccessError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrSecretAccess}
	}

	return []error{ErrSecretAccess, e.Cause}
}

// NewSecretAccessError creates a secret access error wrapping cause.
func NewSecretAccessError(secretID string, cause error) error {
	return &SecretAccessError{SecretID: secretID, Cause: cause}
}

// SecretFormatError provides context for an unusable secret payload.
type SecretFormatError struct {
	SecretID string
	Field    string
	Reason   string
}

// Error implements the error interface.
func (e *SecretFormatError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("secret %q: field %s: %s", e.SecretID, e.Field, e.Reason)
	}

	return fmt.Sprintf("secret %q: %s", e.SecretID, e.Reason)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *SecretFormatError) Unwrap() error {
	return ErrSecretFormat
}

// NewSecretFormatError creates a secret format error.
func NewSecretFormatError(secretID, field, reason string) error {
	return &SecretFormatError{SecretID: secretID, Field: field, Reason: reason}
}

// NetworkError provides context for transport failures.
type NetworkError struct {
	Service string

	// Timeout is set when the bounded request deadline elapsed.
	Timeout bool

	// CircuitOpen is set when the request was refused locally by the circuit breaker.
	CircuitOpen bool

	Cause error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	switch {
	case e.CircuitOpen:
		return fmt.Sprintf("service %q unavailable: circuit breaker open", e.Service)
	case e.Timeout:
		return fmt.Sprintf("service %q timed out", e.Service)
	case e.Cause != nil:
		return fmt.Sprintf("service %q unreachable: %v", e.Service, e.Cause)
	default:
		return fmt.Sprintf("service %q unreachable", e.Service)
	}
}

// Unwrap returns the sentinel and the cause.
func (e *NetworkError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrNetwork}
	}

	return []error{ErrNetwork, e.Cause}
}

// NewNetworkError creates a network error wrapping cause.
func NewNetworkError(service string, timeout bool, cause error) error {
	return &NetworkError{Service: service, Timeout: timeout, Cause: cause}
}

// NewCircuitOpenError creates a network error for a locally refused request.
func NewCircuitOpenError(service string) error {
	return &NetworkError{Service: service, CircuitOpen: true}
}

// AuthenticationError provides context for a rejected API key.
type AuthenticationError struct {
	Service    string
	StatusCode int
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("service %q rejected credentials (HTTP %d)", e.Service, e.StatusCode)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *AuthenticationError) Unwrap() error {
	return ErrAuthentication
}

// NewAuthenticationError creates an authentication error. Status is 401 or 403.
func NewAuthenticationError(service string, status int) error {
	if status != http.StatusForbidden {
		status = http.StatusUnauthorized
	}

	return &AuthenticationError{Service: service, StatusCode: status}
}

// RateLimitError provides context for throttled requests.
type RateLimitError struct {
	Service string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("service %q rate limit exceeded", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimit
}

// NewRateLimitError creates a rate limit error.
func NewRateLimitError(service string) error {
	return &RateLimitError{Service: service}
}

// ProviderHTTPError provides context for other non-2xx provider answers.
type ProviderHTTPError struct {
	Service    string
	StatusCode int
}

// Error implements the error interface.
func (e *ProviderHTTPError) Error() string {
	return fmt.Sprintf("service %q returned HTTP %d", e.Service, e.StatusCode)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ProviderHTTPError) Unwrap() error {
	return ErrProviderHTTP
}

// NewProviderHTTPError creates a provider HTTP error.
func NewProviderHTTPError(service string, status int) error {
	return &ProviderHTTPError{Service: service, StatusCode: status}
}

// MalformedResponseError provides context for unusable provider payloads.
type MalformedResponseError struct {
	Field  string
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	msg := "malformed quote response"
	if e.Field != "" {
		msg += ": field " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the sentinel and the cause.
func (e *MalformedResponseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrMalformedResponse}
	}

	return []error{ErrMalformedResponse, e.Cause}
}

// NewMalformedResponseError creates a malformed response error for a field.
func NewMalformedResponseError(field, reason string) error {
	return &MalformedResponseError{Field: field, Reason: reason}
}

// NewDecodeError creates a malformed response error for an undecodable body.
func NewDecodeError(cause error) error {
	return &MalformedResponseError{Reason: "decoding body", Cause: cause}
}

// UnknownSymbolError provides context for symbols the provider does not know.
type UnknownSymbolError struct {
	Symbol Symbol
}

// Error implements the error interface.
func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol %q", string(e.Symbol))
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnknownSymbolError) Unwrap() error {
	return ErrUnknownSymbol
}

// NewUnknownSymbolError creates an unknown symbol error.
func NewUnknownSymbolError(symbol Symbol) error {
	return &UnknownSymbolError{Symbol: symbol}
}

// IsConfiguration checks if an error is a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsSecretNotFound checks if an error is a secret not found error.
func IsSecretNotFound(err error) bool {
	return errors.Is(err, ErrSecretNotFound)
}

// IsSecretAccess checks if an error is a secret access error.
func IsSecretAccess(err error) bool {
	return errors.Is(err, ErrSecretAccess)
}

// IsSecretFormat checks if an error is a secret format error.
func IsSecretFormat(err error) bool {
	return errors.Is(err, ErrSecretFormat)
}

// IsNetwork checks if an error is a network error.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsAuthentication checks if an error is an authentication error.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsRateLimit checks if an error is a rate limit error.
func IsRateLimit(err error) bool {
	return errors.Is(err, ErrRateLimit)
}

// IsProviderHTTP checks if an error is a provider HTTP error.
func IsProviderHTTP(err error) bool {
	return errors.Is(err, ErrProviderHTTP)
}

// IsMalformedResponse checks if an error is a malformed response error.
func IsMalformedResponse(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}

// IsUnknownSymbol checks if an error is an unknown symbol error.
func IsUnknownSymbol(err error) bool {
	return errors.Is(err, ErrUnknownSymbol)
}

// Kind names used in logs.
const (
	KindConfiguration     = "configuration_error"
	KindSecretNotFound    = "secret_not_found"
	KindSecretAccess      = "secret_access_error"
	KindSecretFormat      = "secret_format_error"
	KindNetwork           = "network_error"
	KindAuthentication    = "authentication_error"
	KindRateLimit         = "rate_limit_error"
	KindProviderHTTP      = "provider_http_error"
	KindMalformedResponse = "malformed_response"
	KindUnknownSymbol     = "unknown_symbol"
	KindInternal          = "internal_error"
)

// KindOf returns the stable kind name for err, or KindInternal.
func KindOf(err error) string {
	switch {
	case IsConfiguration(err):
		return KindConfiguration
	case IsSecretNotFound(err):
		return KindSecretNotFound
	case IsSecretAccess(err):
		return KindSecretAccess
	case IsSecretFormat(err):
		return KindSecretFormat
	case IsNetwork(err):
		return KindNetwork
	case IsAuthentication(err):
		return KindAuthentication
	case IsRateLimit(err):
		return KindRateLimit
	case IsProviderHTTP(err):
		return KindProviderHTTP
	case IsMalformedResponse(err):
		return KindMalformedResponse
	case IsUnknownSymbol(err):
		return KindUnknownSymbol
	default:
		return KindInternal
	}
}
