// Package clients is the instrumented HTTP transport to the quote provider.
package clients

import "errors"

// Transport failures. The acl package maps them onto domain errors.
var (
	// ErrCircuitOpen means the request was refused locally and never sent.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrRequestFailed wraps the error of the last attempt. IsTimeout tells
	// deadline expiry apart from other failures.
	ErrRequestFailed = errors.New("request failed")
)
