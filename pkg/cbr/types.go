package cbr

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DailyResponse is the cbr-xml-daily.ru daily_json.js document.
// Valute entries are kept raw so that one malformed entry does not spoil the rest.
type DailyResponse struct {
	Date         time.Time                  `json:"Date"`
	PreviousDate time.Time                  `json:"PreviousDate"`
	Timestamp    time.Time                  `json:"Timestamp"`
	Valute       map[string]json.RawMessage `json:"Valute"`
}

// Valute is one reference quote: Value roubles per Nominal units.
type Valute struct {
	ID       string          `json:"ID"`
	NumCode  string          `json:"NumCode"`
	CharCode string          `json:"CharCode"`
	Nominal  decimal.Decimal `json:"Nominal"`
	Name     string          `json:"Name"`
	Value    decimal.Decimal `json:"Value"`
	Previous decimal.Decimal `json:"Previous"`
}

// Snapshot is the parsed per-unit reference rates of one publication.
type Snapshot struct {
	Date      time.Time
	FetchedAt time.Time
	Rates     map[string]decimal.Decimal // char code -> roubles per 1 unit, 4 places
}

// Rate returns the reference rate for code, if published.
func (s *Snapshot) Rate(code string) (decimal.Decimal, bool) {
	if s == nil {
		return decimal.Zero, false
	}
	r, ok := s.Rates[code]
	return r, ok
}
