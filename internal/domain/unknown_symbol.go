package domain

import "fmt"

// UnknownSymbolCheck decides whether a successful provider payload actually
// describes a symbol the provider does not recognize.
//
// The provider answers unknown tickers with HTTP 200 and zeroed prices, which
// is indistinguishable from a halted or never-traded security. Every check
// except CheckDisabled can therefore misclassify a real symbol.
type UnknownSymbolCheck string

const (
	// CheckAllZero flags the quote when current, high, low and open are all exactly 0.
	CheckAllZero UnknownSymbolCheck = "all_zero"

	// CheckAllFieldsZero additionally requires change, percent change and
	// previous close to be 0 or null.
	CheckAllFieldsZero UnknownSymbolCheck = "all_fields_zero"

	// CheckDisabled never flags a quote.
	CheckDisabled UnknownSymbolCheck = "disabled"
)

// ParseUnknownSymbolCheck converts a configuration value into a check.
// Empty input selects CheckAllZero.
func ParseUnknownSymbolCheck(s string) (UnknownSymbolCheck, error) {
	switch UnknownSymbolCheck(s) {
	case "", CheckAllZero:
		return CheckAllZero, nil
	case CheckAllFieldsZero:
		return CheckAllFieldsZero, nil
	case CheckDisabled:
		return CheckDisabled, nil
	default:
		return "", fmt.Errorf("unknown symbol check %q", s)
	}
}

// IsUnknown reports whether raw looks like the provider's answer for an
// unrecognized symbol.
func (c UnknownSymbolCheck) IsUnknown(raw RawQuote) bool {
	switch c {
	case CheckDisabled:
		return false
	case CheckAllFieldsZero:
		return allExactlyZero(raw, FieldCurrent, FieldHigh, FieldLow, FieldOpen) &&
			zeroOrNull(raw, FieldChange, FieldPercentChange, FieldPreviousClose)
	default:
		return allExactlyZero(raw, FieldCurrent, FieldHigh, FieldLow, FieldOpen)
	}
}

func allExactlyZero(raw RawQuote, fields ...string) bool {
	for _, f := range fields {
		v, ok := raw.Float(f)
		if !ok || v != 0 {
			return false
		}
	}

	return true
}

func zeroOrNull(raw RawQuote, fields ...string) bool {
	for _, f := range fields {
		v, present := raw[f]
		if !present || v == nil {
			continue
		}

		n, ok := raw.Float(f)
		if !ok || n != 0 {
			return false
		}
	}

	return true
}
