package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ratebot/config"
	"ratebot/internal/rates"
	"ratebot/pkg/storage/postgres"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const moexPayload = `{
  "securities": {"columns": ["SECID", "BOARDID", "STATUS"], "data": [["USD000UTSTOM", "CETS", "A"]]},
  "marketdata": {
    "columns": ["BOARDID", "SECID", "LAST", "WAPRICE", "MARKETPRICE", "TRADINGSTATUS"],
    "data": [["CETS", "USD000UTSTOM", 90.1234, null, null, "T"]]
  }
}`

const cbrPayload = `{
  "Date": "2024-05-15T11:30:00+03:00",
  "Valute": {
    "USD": {"CharCode": "USD", "Nominal": 1, "Value": 91.0},
    "GBP": {"CharCode": "GBP", "Nominal": 1, "Value": 114.5}
  }
}`

type chatClient struct {
	updates chan tgbotapi.Update

	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (c *chatClient) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return c.updates }
func (c *chatClient) StopReceivingUpdates()                                       {}

func (c *chatClient) Send(m tgbotapi.Chattable) (tgbotapi.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, m.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (c *chatClient) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	for i, m := range c.sent {
		out[i] = m.Text
	}
	return out
}

func command(chatID int64, text string) tgbotapi.Update {
	name := strings.SplitN(text, " ", 2)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	moexSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(moexPayload))
	}))
	cbrSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(cbrPayload))
	}))
	t.Cleanup(moexSrv.Close)
	t.Cleanup(cbrSrv.Close)

	cfg, err := config.Decode(config.New())
	require.NoError(t, err)

	cfg.MOEX.BaseURL = moexSrv.URL
	cfg.CBR.URL = cbrSrv.URL
	cfg.Alerts.CheckInterval = 20 * time.Millisecond
	cfg.Report.Trend = false
	cfg.Report.Timezone = "UTC"
	cfg.Metrics.Addr = ""
	return cfg
}

// go test -v --run TestAppRun
func TestAppRun(t *testing.T) {
	cfg := testConfig(t)
	client := &chatClient{updates: make(chan tgbotapi.Update, 4)}

	a, err := New(cfg, zap.NewNop(), WithTelegramClient(client))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	client.updates <- command(1, "/allrates")
	client.updates <- command(2, "/alert usd > 50")

	require.Eventually(t, func() bool { return len(client.texts()) >= 3 }, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	all := strings.Join(client.texts(), "\n---\n")
	assert.Contains(t, all, "1USD = 90.1234 ROUBLES", "primary feed wins")
	assert.Contains(t, all, "1GBP = 114.5000 ROUBLES", "secondary fills the gap")
	assert.Contains(t, all, "EUR rate unavailable")
	assert.Contains(t, all, "Alert set: USD > 50.0000")
	assert.Contains(t, all, "ALERT: 1USD = 90.1234 ROUBLES (USD > 50.0000)")
	assert.Equal(t, 0, a.Registry.Len(), "alert fired once")
}

type historyFake struct {
	down    bool
	mu      sync.Mutex
	records []rates.Resolution
	prunes  []time.Time
	closed  bool
}

func (h *historyFake) RecordResolution(_ context.Context, res rates.Resolution) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, res)
	return nil
}

func (h *historyFake) GetHistory(context.Context, string, time.Time, time.Time) ([]postgres.RateRecord, error) {
	return nil, nil
}

func (h *historyFake) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prunes = append(h.prunes, before)
	return 3, nil
}

func (h *historyFake) IsHealthy(context.Context) bool { return !h.down }

func (h *historyFake) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *historyFake) pruneCalls() []time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]time.Time(nil), h.prunes...)
}

// go test -v --run TestAppRunPrunesHistory
func TestAppRunPrunesHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Alerts.CheckInterval = 0
	cfg.Postgres.Retention = 48 * time.Hour
	cfg.Postgres.PruneInterval = 10 * time.Millisecond
	client := &chatClient{updates: make(chan tgbotapi.Update)}

	a, err := New(cfg, zap.NewNop(), WithTelegramClient(client))
	require.NoError(t, err)

	store := &historyFake{}
	a.history = store
	a.Handler.EnableHistory(store, 3, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return len(store.pruneCalls()) >= 2 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	cutoff := store.pruneCalls()[0]
	assert.WithinDuration(t, time.Now().Add(-48*time.Hour), cutoff, time.Minute)
	assert.True(t, store.closed)
}

func TestAppRunWithoutRetentionKeepsHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Alerts.CheckInterval = 0
	cfg.Postgres.Retention = 0
	cfg.Postgres.PruneInterval = 10 * time.Millisecond
	client := &chatClient{updates: make(chan tgbotapi.Update)}

	a, err := New(cfg, zap.NewNop(), WithTelegramClient(client))
	require.NoError(t, err)
	store := &historyFake{}
	a.history = store

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, a.Run(ctx))

	assert.Empty(t, store.pruneCalls())
}

// go test -v --run TestRoutes
func TestRoutes(t *testing.T) {
	a, err := New(testConfig(t), zap.NewNop(), WithTelegramClient(&chatClient{}))
	require.NoError(t, err)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, get("/healthz").Code, "no history database")
	assert.Contains(t, get("/metrics").Body.String(), "ratebot_")

	store := &historyFake{}
	a.history = store
	assert.Equal(t, http.StatusOK, get("/healthz").Code)

	store.down = true
	assert.Equal(t, http.StatusServiceUnavailable, get("/healthz").Code)
}

func TestNewRejectsUnknownCurrency(t *testing.T) {
	cfg := testConfig(t)
	cfg.Report.Currencies = []string{"USD", "XYZ"}

	_, err := New(cfg, zap.NewNop(), WithTelegramClient(&chatClient{}))
	assert.Error(t, err)
}
