package alerts

import (
	"errors"
	"fmt"
	"strings"

	"ratebot/internal/rates"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidOperator     = errors.New("invalid operator")
	ErrInvalidThreshold    = errors.New("invalid threshold")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrUsage               = errors.New("usage: /alert <code> <op> <threshold>")
)

// Op is a threshold comparison.
type Op string

const (
	Above        Op = ">"
	Below        Op = "<"
	AboveOrEqual Op = ">="
	BelowOrEqual Op = "<="
)

// ParseOp accepts ">", "<", ">=" and "<=".
func ParseOp(s string) (Op, error) {
	switch op := Op(strings.TrimSpace(s)); op {
	case Above, Below, AboveOrEqual, BelowOrEqual:
		return op, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOperator, s)
	}
}

// Holds reports whether rate op threshold is true.
func (o Op) Holds(rate, threshold decimal.Decimal) bool {
	switch o {
	case Above:
		return rate.GreaterThan(threshold)
	case Below:
		return rate.LessThan(threshold)
	case AboveOrEqual:
		return rate.GreaterThanOrEqual(threshold)
	case BelowOrEqual:
		return rate.LessThanOrEqual(threshold)
	default:
		return false
	}
}

// Spec is a parsed "<code> <op> <threshold>" request.
type Spec struct {
	Currency  rates.Currency
	Op        Op
	Threshold decimal.Decimal
}

func (s Spec) String() string {
	return fmt.Sprintf("%s %s %s", s.Currency, s.Op, s.Threshold.StringFixed(4))
}

// ParseSpec parses "<code> <op> <threshold>". Operator and threshold may be
// written without a space, e.g. "USD >100".
func ParseSpec(args string) (Spec, error) {
	fields := strings.Fields(args)
	if len(fields) == 2 {
		op, rest := splitOp(fields[1])
		if op == "" || rest == "" {
			return Spec{}, ErrUsage
		}
		fields = []string{fields[0], op, rest}
	}
	if len(fields) != 3 {
		return Spec{}, ErrUsage
	}

	c, ok := rates.ParseCurrency(fields[0])
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, fields[0])
	}

	op, err := ParseOp(fields[1])
	if err != nil {
		return Spec{}, err
	}

	thr, ok := rates.ParseBounded(fields[2])
	if !ok {
		return Spec{}, ErrInvalidThreshold
	}

	return Spec{Currency: c, Op: op, Threshold: thr}, nil
}

func splitOp(s string) (string, string) {
	for _, op := range []Op{AboveOrEqual, BelowOrEqual, Above, Below} {
		if strings.HasPrefix(s, string(op)) {
			return string(op), s[len(op):]
		}
	}
	return "", ""
}
