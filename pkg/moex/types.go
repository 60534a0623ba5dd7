package moex

import "strings"

// ISS column names used by the currency market.
const (
	ColSecID         = "SECID"
	ColBoardID       = "BOARDID"
	ColTradingStatus = "TRADINGSTATUS" // marketdata: "T" while the instrument trades
	ColStatus        = "STATUS"        // securities: "A" for an active listing

	ColLast        = "LAST"        // last trade price
	ColWAPrice     = "WAPRICE"     // weighted-average price
	ColMarketPrice = "MARKETPRICE" // indicative market price
)

// SecuritiesResponse is the ISS securities.json envelope restricted by iss.only=marketdata,securities.
type SecuritiesResponse struct {
	Securities Table `json:"securities"`
	Marketdata Table `json:"marketdata"`
}

// Table is the ISS columnar block. Column order is not stable across requests,
// so values must be looked up by name.
type Table struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

// Index returns the position of column name, or -1.
func (t Table) Index(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// Rows returns every data row as a name-addressable Row.
func (t Table) Rows() []Row {
	idx := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		idx[strings.ToUpper(c)] = i
	}

	rows := make([]Row, 0, len(t.Data))
	for _, r := range t.Data {
		rows = append(rows, Row{index: idx, values: r})
	}
	return rows
}

// Row is one ISS data row.
type Row struct {
	index  map[string]int
	values []any
}

// Value returns the raw cell for column name. Missing columns and short rows yield nil.
func (r Row) Value(name string) any {
	i, ok := r.index[strings.ToUpper(name)]
	if !ok || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

// String returns the cell as a string, or "" if it is not one.
func (r Row) String(name string) string {
	s, _ := r.Value(name).(string)
	return s
}

// PriceObservation is one security quote read from the primary feed.
type PriceObservation struct {
	SecID         string
	BoardID       string
	TradingStatus string
	ListingStatus string
	Fields        map[string]any
}

// Active reports whether the security is trading. Absent statuses count as active.
func (o PriceObservation) Active() bool {
	if o.TradingStatus != "" && o.TradingStatus != "T" {
		return false
	}
	if o.ListingStatus != "" && o.ListingStatus != "A" {
		return false
	}
	return true
}
