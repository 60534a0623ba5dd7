package format

import "github.com/shopspring/decimal"

// Trend is the direction of a rate against its previous observation.
type Trend int

const (
	Neutral Trend = iota
	Rise
	StrongRise
	Fall
	StrongFall
)

var (
	strongMove = decimal.RequireFromString("2.5")
	move       = decimal.RequireFromString("0.5")
	hundred    = decimal.NewFromInt(100)
)

// Symbol is the indicator appended to a report line.
func (t Trend) Symbol() string {
	switch t {
	case StrongRise:
		return "⏫"
	case Rise:
		return "🔼"
	case StrongFall:
		return "⏬"
	case Fall:
		return "🔽"
	default:
		return "⏺"
	}
}

func (t Trend) String() string {
	switch t {
	case StrongRise:
		return "strong rise"
	case Rise:
		return "rise"
	case StrongFall:
		return "strong fall"
	case Fall:
		return "fall"
	default:
		return "neutral"
	}
}

// Classify compares cur to prev by percentage change:
// above 2.5% strong rise, above 0.5% rise, below -2.5% strong fall,
// below -0.5% fall, otherwise neutral.
func Classify(prev, cur decimal.Decimal) Trend {
	if !prev.IsPositive() {
		return Neutral
	}

	pct := cur.Sub(prev).Div(prev).Mul(hundred)
	switch {
	case pct.GreaterThan(strongMove):
		return StrongRise
	case pct.GreaterThan(move):
		return Rise
	case pct.LessThan(strongMove.Neg()):
		return StrongFall
	case pct.LessThan(move.Neg()):
		return Fall
	default:
		return Neutral
	}
}
