package convert

import (
	"errors"
	"fmt"
	"strings"

	"ratebot/internal/rates"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned for malformed, non-positive or out of range amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrAmountTooSmall is returned when the result rounds to zero.
	ErrAmountTooSmall = fmt.Errorf("%w: result is below 0.01", ErrInvalidAmount)
	// ErrUnsupportedCurrency is returned for codes that are neither tracked nor RUB.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	// ErrRateUnavailable is returned when a required rate is missing from the RateSet.
	ErrRateUnavailable = errors.New("rate unavailable")
	// ErrUsage is returned when a conversion request cannot be parsed.
	ErrUsage = errors.New("usage: /convert <amount> <code> to <code>")
)

// Places is the precision of converted amounts.
const Places = 2

// Conversion describes one completed conversion.
type Conversion struct {
	Amount    decimal.Decimal
	From      rates.Currency
	Converted decimal.Decimal
	To        rates.Currency
	Rate      decimal.Decimal // units of To per one unit of From, 4 places
}

func (c Conversion) String() string {
	return fmt.Sprintf("%s %s = %s %s",
		c.Amount.StringFixed(Places), c.From, c.Converted.StringFixed(Places), c.To)
}

// Convert converts amount between a tracked currency and RUB, or between two
// tracked currencies through their rouble rates. The result is rounded to 2 places.
func Convert(amount decimal.Decimal, from, to string, rs rates.RateSet) (Conversion, error) {
	if !rates.InBounds(amount) {
		return Conversion{}, ErrInvalidAmount
	}

	src, err := parseCode(from)
	if err != nil {
		return Conversion{}, err
	}
	dst, err := parseCode(to)
	if err != nil {
		return Conversion{}, err
	}

	fromRate, err := roubles(rs, src)
	if err != nil {
		return Conversion{}, err
	}
	toRate, err := roubles(rs, dst)
	if err != nil {
		return Conversion{}, err
	}

	converted := amount.Mul(fromRate).Div(toRate).Round(Places)
	if !converted.IsPositive() {
		return Conversion{}, fmt.Errorf("%w: %s %s to %s", ErrAmountTooSmall, amount, src, dst)
	}

	return Conversion{
		Amount:    amount,
		From:      src,
		Converted: converted,
		To:        dst,
		Rate:      fromRate.Div(toRate).Round(4),
	}, nil
}

// ParseAmount accepts a positive decimal number no greater than 10^12 with at most
// 8 fractional digits; a comma decimal separator is allowed.
func ParseAmount(s string) (decimal.Decimal, error) {
	a, ok := rates.ParseBounded(s)
	if !ok {
		return decimal.Zero, ErrInvalidAmount
	}
	return a, nil
}

// Request is a parsed "<amount> <code> to <code>" command argument.
type Request struct {
	Amount decimal.Decimal
	From   string
	To     string
}

// ParseRequest parses "<amount> <code> to <code>". The "to" keyword is optional.
func ParseRequest(args string) (Request, error) {
	fields := strings.Fields(args)
	if len(fields) == 4 && strings.EqualFold(fields[2], "to") {
		fields = append(fields[:2], fields[3])
	}
	if len(fields) != 3 {
		return Request{}, ErrUsage
	}

	a, err := ParseAmount(fields[0])
	if err != nil {
		return Request{}, err
	}
	return Request{
		Amount: a,
		From:   strings.ToUpper(fields[1]),
		To:     strings.ToUpper(fields[2]),
	}, nil
}

func parseCode(s string) (rates.Currency, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if rates.Currency(code) == rates.RUB {
		return rates.RUB, nil
	}
	c, ok := rates.ParseCurrency(code)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, s)
	}
	return c, nil
}

// roubles returns the rouble value of one unit of c.
func roubles(rs rates.RateSet, c rates.Currency) (decimal.Decimal, error) {
	if c == rates.RUB {
		return decimal.NewFromInt(1), nil
	}
	r, ok := rs.Get(c)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrRateUnavailable, c)
	}
	return r, nil
}
