package config_test

import (
	"strings"
	"testing"
	"time"

	"ratebot/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -v --run TestDecodeDefaults
func TestDecodeDefaults(t *testing.T) {
	cfg, err := config.Decode(config.New())
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "CETS", cfg.MOEX.Board)
	assert.Equal(t, 10*time.Second, cfg.MOEX.Timeout)
	assert.Equal(t, 6*time.Hour, cfg.CBR.RefreshInterval)
	assert.Equal(t, "Europe/Moscow", cfg.CBR.Timezone)
	assert.Equal(t, 5*time.Minute, cfg.Alerts.CheckInterval)
	assert.Equal(t, 5, cfg.Telegram.Workers)
	assert.True(t, cfg.Report.Trend)
	assert.False(t, cfg.Postgres.Enabled)
	assert.Equal(t, 720*time.Hour, cfg.Postgres.Retention)
	assert.Equal(t, 6*time.Hour, cfg.Postgres.PruneInterval)
	assert.Equal(t, 7, cfg.Postgres.HistoryDays)
}

// go test -v --run TestDecodeYAMLAndEnv
func TestDecodeYAMLAndEnv(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("MOEX_BOARD", "CNGD")

	v := config.New()
	require.NoError(t, v.ReadConfig(strings.NewReader(`
alerts:
  check_interval: 30s
report:
  currencies: [USD, JPY]
  trend: false
`)))

	cfg, err := config.Decode(v)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "123:abc", cfg.TelegramToken())
	assert.Equal(t, "CNGD", cfg.MOEX.Board)
	assert.Equal(t, 30*time.Second, cfg.Alerts.CheckInterval)
	assert.Equal(t, []string{"USD", "JPY"}, cfg.Report.Currencies)
	assert.False(t, cfg.Report.Trend)
}

// go test -v --run TestPostgresDSN
func TestPostgresDSN(t *testing.T) {
	cfg := config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "yourpw",
		DBName:   "ratebot",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=yourpw dbname=ratebot sslmode=disable TimeZone=UTC",
		cfg.DSN("dev"))
	assert.Contains(t, cfg.ServerDSN("dev"), "dbname=postgres")
	assert.Equal(t, "ratebot", cfg.DBName)
}

func TestParameterOrEmptyName(t *testing.T) {
	assert.Equal(t, "fallback", config.ParameterOr("", "fallback"))
}
