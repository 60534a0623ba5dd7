package format

import (
	"fmt"
	"strings"
	"time"

	"ratebot/internal/rates"

	"github.com/shopspring/decimal"
)

const (
	// UnavailableMessage is returned when no rate could be resolved at all.
	UnavailableMessage = "Sorry, unable to fetch currency rates at the moment."
	Attribution        = "(Indicative rates from Moscow Exchange)"

	dateLayout = "02.01.2006"
)

// Memory remembers the last reported rate per currency code.
type Memory interface {
	Swap(code string, rate decimal.Decimal) (decimal.Decimal, bool)
}

// Formatter renders RateSets as chat messages.
type Formatter struct {
	currencies []rates.Currency
	memory     Memory
	now        func() time.Time
	loc        *time.Location
}

type Option func(*Formatter)

// WithMemory enables trend indicators backed by m.
func WithMemory(m Memory) Option {
	return func(f *Formatter) { f.memory = m }
}

func WithClock(now func() time.Time) Option {
	return func(f *Formatter) { f.now = now }
}

// WithLocation sets the zone the header date is rendered in.
func WithLocation(loc *time.Location) Option {
	return func(f *Formatter) { f.loc = loc }
}

// New returns a Formatter reporting currencies in the given order. Empty means rates.All.
func New(currencies []rates.Currency, opts ...Option) *Formatter {
	if len(currencies) == 0 {
		currencies = rates.All
	}
	f := &Formatter{
		currencies: currencies,
		now:        time.Now,
		loc:        time.Local,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format renders the full report.
func (f *Formatter) Format(rs rates.RateSet) string {
	if len(rs) == 0 {
		return UnavailableMessage
	}
	return f.render(rs, f.currencies)
}

// FormatCurrency renders a report for a single currency.
func (f *Formatter) FormatCurrency(rs rates.RateSet, c rates.Currency) string {
	if _, ok := rs.Get(c); !ok {
		return fmt.Sprintf("Sorry, unable to fetch %s rate at the moment.", c)
	}
	return f.render(rs, []rates.Currency{c})
}

func (f *Formatter) render(rs rates.RateSet, currencies []rates.Currency) string {
	lines := make([]string, 0, len(currencies)+2)
	lines = append(lines,
		"CURRENT DATE: "+f.now().In(f.loc).Format(dateLayout),
		Attribution,
	)

	for _, c := range currencies {
		lines = append(lines, f.line(rs, c))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) line(rs rates.RateSet, c rates.Currency) string {
	rate, ok := rs.Get(c)
	if !ok {
		return fmt.Sprintf("%s rate unavailable", c)
	}

	line := fmt.Sprintf("1%s = %s ROUBLES", c, rate.StringFixed(4))
	if f.memory == nil {
		return line
	}

	trend := Neutral
	if prev, seen := f.memory.Swap(string(c), rate); seen {
		trend = Classify(prev, rate)
	}
	return line + " " + trend.Symbol()
}
