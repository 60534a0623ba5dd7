package rates

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Limits for user-supplied amounts and thresholds.
const (
	MaxInputLen = 32
	MinExponent = -8
	MaxExponent = 12
)

// MaxValue is the largest accepted user-supplied number.
var MaxValue = decimal.New(1, MaxExponent)

// ParseBounded parses a positive decimal typed by a user. A comma decimal
// separator is allowed. Inputs longer than MaxInputLen, with more than
// -MinExponent fractional digits, or above MaxValue are rejected.
func ParseBounded(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || len(s) > MaxInputLen {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, InBounds(d)
}

// InBounds reports whether d is positive and within the user input limits.
// The exponent is checked first so that comparisons never rescale huge values.
func InBounds(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp < MinExponent || exp > MaxExponent {
		return false
	}
	return d.IsPositive() && d.LessThanOrEqual(MaxValue)
}
