// Package domain contains core business entities and rules.
package domain

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// DefaultSymbol is used when a caller does not name a ticker.
const DefaultSymbol Symbol = "AAPL"

// Provider field names of a quote payload.
const (
	FieldCurrent       = "c"
	FieldChange        = "d"
	FieldPercentChange = "dp"
	FieldHigh          = "h"
	FieldLow           = "l"
	FieldOpen          = "o"
	FieldPreviousClose = "pc"
)

// RequiredFields lists the provider fields every quote must carry.
var RequiredFields = []string{
	FieldCurrent,
	FieldChange,
	FieldPercentChange,
	FieldHigh,
	FieldLow,
	FieldOpen,
	FieldPreviousClose,
}

// Symbol is a trimmed, upper-cased ticker such as "AAPL".
// It is not checked against any list of known securities.
type Symbol string

// ParseSymbol normalizes raw input into a Symbol.
// Blank input yields fallback; a blank fallback yields DefaultSymbol.
func ParseSymbol(raw string, fallback Symbol) Symbol {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s != "" {
		return Symbol(s)
	}

	if fallback != "" {
		return Symbol(strings.ToUpper(strings.TrimSpace(string(fallback))))
	}

	return DefaultSymbol
}

// String returns the ticker text.
func (s Symbol) String() string {
	return string(s)
}

// Credential is the provider API key. It lives only for one invocation
// (or one warm process when memoized) and must never be logged.
type Credential string

// String hides the key from fmt verbs.
func (Credential) String() string {
	return "[REDACTED]"
}

// LogValue hides the key from slog.
func (Credential) LogValue() slog.Value {
	return slog.StringValue("[REDACTED]")
}

// Reveal returns the raw key for placing it on an outbound request.
func (c Credential) Reveal() string {
	return string(c)
}

// RawQuote is the provider payload exactly as decoded.
// Numbers are kept as json.Number so re-encoding reproduces the provider text.
type RawQuote map[string]any

// Float returns the numeric value of a field.
// ok is false when the field is absent, null, or not a number.
func (r RawQuote) Float(field string) (value float64, ok bool) {
	v, exists := r[field]
	if !exists || v == nil {
		return 0, false
	}

	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// NormalizedQuote is the stable output contract.
type NormalizedQuote struct {
	Symbol        Symbol   `json:"symbol"`
	CurrentPrice  float64  `json:"current_price"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"change_percent"`
	HighPrice     float64  `json:"high_price"`
	LowPrice      float64  `json:"low_price"`
	OpenPrice     float64  `json:"open_price"`
	PreviousClose float64  `json:"previous_close"`
	QuoteData     RawQuote `json:"quote_data"`
}

// Normalize maps provider fields onto a NormalizedQuote.
// It performs no I/O and fails with a MalformedResponseError if any
// required field is missing or not numeric; partial quotes are never returned.
func Normalize(symbol Symbol, raw RawQuote) (*NormalizedQuote, error) {
	if raw == nil {
		return nil, NewMalformedResponseError("", "quote payload is empty")
	}

	values := make(map[string]float64, len(RequiredFields))
	for _, field := range RequiredFields {
		v, ok := raw.Float(field)
		if !ok {
			return nil, NewMalformedResponseError(field, "missing or not numeric")
		}
		values[field] = v
	}

	return &NormalizedQuote{
		Symbol:        symbol,
		CurrentPrice:  values[FieldCurrent],
		Change:        values[FieldChange],
		ChangePercent: values[FieldPercentChange],
		HighPrice:     values[FieldHigh],
		LowPrice:      values[FieldLow],
		OpenPrice:     values[FieldOpen],
		PreviousClose: values[FieldPreviousClose],
		QuoteData:     raw,
	}, nil
}
