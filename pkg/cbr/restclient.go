package cbr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RESTClient reads the central bank daily reference rates.
type RESTClient struct {
	url        string
	httpClient *http.Client
	now        func() time.Time
}

func NewRESTClient(url string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// GetDaily fetches and parses the daily publication.
func (c *RESTClient) GetDaily(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("cbr status %d: %s", resp.StatusCode, body)
	}

	var raw DailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if raw.Valute == nil {
		return nil, fmt.Errorf("response has no Valute section")
	}

	return &Snapshot{
		Date:      raw.Date,
		FetchedAt: c.now(),
		Rates:     ParseValutes(raw.Valute),
	}, nil
}

const maxExponent = 16

// ParseValutes turns raw Valute entries into per-unit rates rounded to 4 places.
// Entries that fail to decode, carry a non-positive Value or Nominal, or an
// exponent beyond ±16 are skipped.
func ParseValutes(valutes map[string]json.RawMessage) map[string]decimal.Decimal {
	rates := make(map[string]decimal.Decimal, len(valutes))

	for key, msg := range valutes {
		var v Valute
		if err := json.Unmarshal(msg, &v); err != nil {
			continue
		}
		if !plausible(v.Value) || !plausible(v.Nominal) {
			continue
		}

		code := strings.ToUpper(v.CharCode)
		if code == "" {
			code = strings.ToUpper(key)
		}
		rates[code] = v.Value.Div(v.Nominal).Round(4)
	}

	return rates
}

func plausible(d decimal.Decimal) bool {
	exp := d.Exponent()
	return exp <= maxExponent && exp >= -maxExponent && d.IsPositive()
}
