package rates

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code of a tracked foreign currency.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	CNY Currency = "CNY"
	JPY Currency = "JPY"
	BYN Currency = "BYN"
	GBP Currency = "GBP"

	// RUB is the local currency every rate is quoted in.
	RUB Currency = "RUB"
)

// All lists the tracked currencies in report order.
var All = []Currency{USD, EUR, CNY, JPY, BYN, GBP}

// ParseCurrency maps a user-supplied code to a tracked currency.
func ParseCurrency(s string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range All {
		if t == c {
			return c, true
		}
	}
	return "", false
}

// Select validates codes and returns them in report order. Empty input selects All.
func Select(codes []string) ([]Currency, error) {
	if len(codes) == 0 {
		return append([]Currency(nil), All...), nil
	}

	want := make(map[Currency]bool, len(codes))
	for _, code := range codes {
		c, ok := ParseCurrency(code)
		if !ok {
			return nil, fmt.Errorf("unsupported currency %q", code)
		}
		want[c] = true
	}

	out := make([]Currency, 0, len(want))
	for _, c := range All {
		if want[c] {
			out = append(out, c)
		}
	}
	return out, nil
}

// RateSet maps a currency to roubles per one unit. Absent entries are unavailable.
type RateSet map[Currency]decimal.Decimal

// Get returns the rate for c when it is known and positive.
func (s RateSet) Get(c Currency) (decimal.Decimal, bool) {
	r, ok := s[c]
	if !ok || !r.IsPositive() {
		return decimal.Zero, false
	}
	return r, true
}

func (s RateSet) Clone() RateSet {
	out := make(RateSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
