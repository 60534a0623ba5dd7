package cbr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dailyPayload = `{
  "Date": "2024-05-15T11:30:00+03:00",
  "PreviousDate": "2024-05-14T11:30:00+03:00",
  "Timestamp": "2024-05-14T20:00:00+03:00",
  "Valute": {
    "USD": {"ID": "R01235", "NumCode": "840", "CharCode": "USD", "Nominal": 1, "Name": "US Dollar", "Value": 91.2464, "Previous": 91.7791},
    "JPY": {"ID": "R01820", "NumCode": "392", "CharCode": "JPY", "Nominal": 100, "Name": "Yen", "Value": 58.6112, "Previous": 58.9},
    "BYN": {"ID": "R01090B", "NumCode": "933", "CharCode": "BYN", "Nominal": 1, "Name": "Belarusian Ruble", "Value": 27.89555, "Previous": 28.0},
    "EUR": {"ID": "R01239", "NumCode": "978", "CharCode": "EUR", "Nominal": 1, "Name": "Euro", "Value": "oops", "Previous": 99.0},
    "GBP": {"ID": "R01035", "NumCode": "826", "CharCode": "GBP", "Nominal": 0, "Name": "Pound", "Value": 114.0, "Previous": 114.0}
  }
}`

// go test -v --run TestGetDaily
func TestGetDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write([]byte(dailyPayload))
	}))
	defer srv.Close()

	fixed := time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)
	client := NewRESTClient(srv.URL, 2*time.Second)
	client.now = func() time.Time { return fixed }

	snap, err := client.GetDaily(context.Background())
	require.NoError(t, err)

	assert.Equal(t, fixed, snap.FetchedAt)
	assert.Equal(t, 2024, snap.Date.Year())

	usd, ok := snap.Rate("USD")
	require.True(t, ok)
	assert.Equal(t, "91.2464", usd.StringFixed(4))

	jpy, ok := snap.Rate("JPY")
	require.True(t, ok)
	assert.Equal(t, "0.5861", jpy.StringFixed(4), "value is quoted per 100 yen")

	byn, ok := snap.Rate("BYN")
	require.True(t, ok)
	assert.Equal(t, "27.8956", byn.StringFixed(4), "rounded to 4 places")

	_, ok = snap.Rate("EUR")
	assert.False(t, ok, "malformed entry is skipped")
	_, ok = snap.Rate("GBP")
	assert.False(t, ok, "zero nominal is skipped")
	_, ok = snap.Rate("CNY")
	assert.False(t, ok)
}

func TestGetDailyErrors(t *testing.T) {
	for name, h := range map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusBadGateway)
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Valute": [`))
		},
		"no valute": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Date": "2024-05-15T11:30:00+03:00"}`))
		},
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := NewRESTClient(srv.URL, time.Second).GetDaily(context.Background())
			require.Error(t, err)
		})
	}
}

func TestParseValutesExponentLimits(t *testing.T) {
	got := ParseValutes(map[string]json.RawMessage{
		"USD": json.RawMessage(`{"CharCode": "USD", "Nominal": 1, "Value": 1e50000000}`),
		"EUR": json.RawMessage(`{"CharCode": "EUR", "Nominal": 1e-50000000, "Value": 99}`),
		"CNY": json.RawMessage(`{"CharCode": "CNY", "Nominal": 10, "Value": 123.5}`),
	})

	assert.Len(t, got, 1)
	assert.Equal(t, "12.35", got["CNY"].String())
}

func TestSnapshotRateNil(t *testing.T) {
	var s *Snapshot
	_, ok := s.Rate("USD")
	assert.False(t, ok)
}
