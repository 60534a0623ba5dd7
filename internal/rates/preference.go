package rates

import (
	"ratebot/pkg/moex"

	"github.com/shopspring/decimal"
)

// Preference describes where a currency is quoted on the primary feed and which
// price field wins. SecIDs and Fields are tried in order.
type Preference struct {
	Currency Currency
	SecIDs   []string
	Fields   []string
	Divisor  decimal.Decimal // quote units per 1 unit of currency
}

var (
	tradeFirst      = []string{moex.ColLast, moex.ColWAPrice, moex.ColMarketPrice}
	indicativeFirst = []string{moex.ColMarketPrice, moex.ColWAPrice, moex.ColLast}

	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// DefaultPreferences is the table for the MOEX selt market, CETS board.
// JPY is quoted per 100 yen. BYN prefers the indicative price.
var DefaultPreferences = []Preference{
	{Currency: USD, SecIDs: []string{"USD000UTSTOM"}, Fields: tradeFirst, Divisor: one},
	{Currency: EUR, SecIDs: []string{"EUR_RUB__TOM"}, Fields: tradeFirst, Divisor: one},
	{Currency: CNY, SecIDs: []string{"CNYRUB_TOM"}, Fields: tradeFirst, Divisor: one},
	{Currency: JPY, SecIDs: []string{"JPYRUB_TOM", "JPYRUB_TOD"}, Fields: tradeFirst, Divisor: hundred},
	{Currency: BYN, SecIDs: []string{"BYNRUB_TOM", "BYNRUB_TOD"}, Fields: indicativeFirst, Divisor: one},
	{Currency: GBP, SecIDs: []string{"GBPRUB_TOM"}, Fields: tradeFirst, Divisor: one},
}

// PreferencesFor returns the rows of table for currencies, in table order.
func PreferencesFor(table []Preference, currencies []Currency) []Preference {
	want := make(map[Currency]bool, len(currencies))
	for _, c := range currencies {
		want[c] = true
	}

	out := make([]Preference, 0, len(currencies))
	for _, p := range table {
		if want[p.Currency] {
			out = append(out, p)
		}
	}
	return out
}

// SecIDs flattens every security id of table, in order.
func SecIDs(table []Preference) []string {
	var ids []string
	for _, p := range table {
		ids = append(ids, p.SecIDs...)
	}
	return ids
}

// Pick applies p to the board observations and returns the normalized rate.
// Inactive securities and unusable fields are skipped.
func (p Preference) Pick(obs map[string]moex.PriceObservation) (decimal.Decimal, bool) {
	divisor := p.Divisor
	if !divisor.IsPositive() {
		divisor = one
	}

	for _, id := range p.SecIDs {
		o, ok := obs[id]
		if !ok || !o.Active() {
			continue
		}
		for _, field := range p.Fields {
			price, ok := moex.ParsePrice(o.Fields[field])
			if !ok {
				continue
			}
			rate := price.Div(divisor).Round(4)
			if rate.IsPositive() {
				return rate, true
			}
		}
	}
	return decimal.Zero, false
}
