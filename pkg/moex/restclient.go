package moex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const securitiesPath = "/iss/engines/currency/markets/selt/securities.json"

// RESTClient reads currency market snapshots from the MOEX ISS API.
type RESTClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetSecurities fetches the marketdata and securities blocks for the given SECIDs.
func (c *RESTClient) GetSecurities(ctx context.Context, secIDs []string) (*SecuritiesResponse, error) {
	q := url.Values{}
	q.Set("iss.meta", "off")
	q.Set("iss.only", "marketdata,securities")
	q.Set("lang", "en")
	if len(secIDs) > 0 {
		q.Set("securities", strings.Join(secIDs, ","))
	}
	endpoint := c.baseURL + securitiesPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
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
		return nil, fmt.Errorf("moex iss status %d: %s", resp.StatusCode, body)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var out SecuritiesResponse
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if out.Marketdata.Index(ColSecID) < 0 {
		return nil, fmt.Errorf("marketdata block has no %s column", ColSecID)
	}

	return &out, nil
}
