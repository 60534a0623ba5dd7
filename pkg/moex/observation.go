package moex

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Observations indexes the marketdata rows of board by SECID. Rows quoted on other
// boards are dropped. The listing status comes from the securities block.
func (r *SecuritiesResponse) Observations(board string) map[string]PriceObservation {
	out := make(map[string]PriceObservation)

	for _, row := range r.Marketdata.Rows() {
		secID := row.String(ColSecID)
		if secID == "" || !onBoard(row, board) {
			continue
		}

		fields := make(map[string]any, len(r.Marketdata.Columns))
		for _, c := range r.Marketdata.Columns {
			fields[strings.ToUpper(c)] = row.Value(c)
		}

		out[secID] = PriceObservation{
			SecID:         secID,
			BoardID:       row.String(ColBoardID),
			TradingStatus: row.String(ColTradingStatus),
			Fields:        fields,
		}
	}

	for _, row := range r.Securities.Rows() {
		secID := row.String(ColSecID)
		obs, ok := out[secID]
		if !ok || !onBoard(row, board) {
			continue
		}
		obs.ListingStatus = row.String(ColStatus)
		out[secID] = obs
	}

	return out
}

func onBoard(row Row, board string) bool {
	if board == "" {
		return true
	}
	id := row.String(ColBoardID)
	// Payloads without a BOARDID column are already board-scoped.
	return id == "" || strings.EqualFold(id, board)
}

// maxPriceExponent bounds the decimal exponent of a price cell; arithmetic on
// values such as 1e50000000 would allocate the full expansion.
const maxPriceExponent = 16

// ParsePrice converts a raw ISS cell into a price. It accepts JSON numbers and
// numeric strings, and rejects nulls, garbage, NaN/Inf, non-positive values and
// exponents beyond ±16.
func ParsePrice(v any) (decimal.Decimal, bool) {
	var (
		d   decimal.Decimal
		err error
	)

	switch x := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(x.String())
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		d = decimal.NewFromFloat(x)
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(x))
	default:
		return decimal.Zero, false
	}

	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > maxPriceExponent || exp < -maxPriceExponent {
		return decimal.Zero, false
	}
	if !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}
