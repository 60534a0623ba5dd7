package format

import (
	"strings"
	"testing"
	"time"

	"ratebot/internal/memorystore"
	"ratebot/internal/rates"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC) }

func rateSet(kv map[rates.Currency]string) rates.RateSet {
	rs := rates.RateSet{}
	for k, v := range kv {
		rs[k] = decimal.RequireFromString(v)
	}
	return rs
}

func TestFormatEmpty(t *testing.T) {
	f := New(nil, WithClock(fixedNow))
	assert.Equal(t, UnavailableMessage, f.Format(nil))
	assert.Equal(t, UnavailableMessage, f.Format(rates.RateSet{}))
}

// go test -v --run TestFormatReport
func TestFormatReport(t *testing.T) {
	f := New(nil, WithClock(fixedNow), WithLocation(time.UTC))

	got := f.Format(rateSet(map[rates.Currency]string{"USD": "90.1234"}))

	want := strings.Join([]string{
		"CURRENT DATE: 07.03.2024",
		"(Indicative rates from Moscow Exchange)",
		"1USD = 90.1234 ROUBLES",
		"EUR rate unavailable",
		"CNY rate unavailable",
		"JPY rate unavailable",
		"BYN rate unavailable",
		"GBP rate unavailable",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestFormatPadsToFourPlaces(t *testing.T) {
	f := New([]rates.Currency{rates.JPY, rates.CNY}, WithClock(fixedNow), WithLocation(time.UTC))

	got := f.Format(rateSet(map[rates.Currency]string{"JPY": "0.6", "CNY": "12.3"}))
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "1JPY = 0.6000 ROUBLES", lines[2])
	assert.Equal(t, "1CNY = 12.3000 ROUBLES", lines[3])
}

func TestFormatCurrency(t *testing.T) {
	f := New(nil, WithClock(fixedNow), WithLocation(time.UTC))
	rs := rateSet(map[rates.Currency]string{"EUR": "98.5"})

	assert.Equal(t,
		"CURRENT DATE: 07.03.2024\n(Indicative rates from Moscow Exchange)\n1EUR = 98.5000 ROUBLES",
		f.FormatCurrency(rs, rates.EUR))
	assert.Equal(t, "Sorry, unable to fetch USD rate at the moment.", f.FormatCurrency(rs, rates.USD))
}

// go test -v --run TestFormatTrend
func TestFormatTrend(t *testing.T) {
	cases := []struct {
		name   string
		second string
		want   Trend
	}{
		{"strong rise", "103", StrongRise},
		{"rise", "101", Rise},
		{"flat", "100", Neutral},
		{"small move", "100.4", Neutral},
		{"fall", "99", Fall},
		{"strong fall", "97", StrongFall},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mem := memorystore.NewRateMemory()
			f := New([]rates.Currency{rates.USD}, WithClock(fixedNow), WithMemory(mem))

			first := f.Format(rateSet(map[rates.Currency]string{"USD": "100"}))
			assert.True(t, strings.HasSuffix(first, "1USD = 100.0000 ROUBLES "+Neutral.Symbol()), "first observation is neutral")

			second := f.Format(rateSet(map[rates.Currency]string{"USD": tc.second}))
			assert.True(t, strings.HasSuffix(second, " "+tc.want.Symbol()), "got %q", second)

			last, ok := mem.Swap("USD", decimal.Zero)
			require.True(t, ok)
			assert.Equal(t, tc.second, last.String())
		})
	}
}

func TestFormatTrendSkipsUnavailable(t *testing.T) {
	mem := memorystore.NewRateMemory()
	f := New(nil, WithClock(fixedNow), WithMemory(mem))

	got := f.Format(rateSet(map[rates.Currency]string{"USD": "90"}))
	assert.Contains(t, got, "EUR rate unavailable\n")
	_, ok := mem.Swap("EUR", decimal.Zero)
	assert.False(t, ok, "unavailable rates are not remembered")
	_, ok = mem.Swap("USD", decimal.Zero)
	assert.True(t, ok)
}

func TestClassify(t *testing.T) {
	d := decimal.RequireFromString
	assert.Equal(t, StrongRise, Classify(d("100"), d("102.6")))
	assert.Equal(t, Rise, Classify(d("100"), d("102.5")), "2.5% is not strictly above")
	assert.Equal(t, Neutral, Classify(d("100"), d("100.5")))
	assert.Equal(t, Fall, Classify(d("100"), d("99.4")))
	assert.Equal(t, StrongFall, Classify(d("100"), d("97.4")))
	assert.Equal(t, Neutral, Classify(decimal.Zero, d("1")))
	assert.Equal(t, "strong rise", StrongRise.String())
}
