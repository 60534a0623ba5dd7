package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env      string         `mapstructure:"env"` // "dev" or "prod"
	MOEX     MOEXConfig     `mapstructure:"moex"`
	CBR      CBRConfig      `mapstructure:"cbr"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Report   ReportConfig   `mapstructure:"report"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// MOEXConfig points at the ISS currency market endpoint (primary feed).
type MOEXConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Board   string        `mapstructure:"board"` // authoritative trading board, e.g. "CETS"
	Timeout time.Duration `mapstructure:"timeout"`
}

// CBRConfig points at the central bank daily JSON (secondary feed).
type CBRConfig struct {
	URL             string        `mapstructure:"url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	RefreshHour     int           `mapstructure:"refresh_hour"` // daily reload at this hour in Timezone
	Timezone        string        `mapstructure:"timezone"`
}

type TelegramConfig struct {
	Token          string `mapstructure:"token"`
	TokenParameter string `mapstructure:"token_parameter"` // SSM parameter name used when env is "prod"
	PollTimeout    int    `mapstructure:"poll_timeout"`    // seconds
	Workers        int    `mapstructure:"workers"`
	Debug          bool   `mapstructure:"debug"`
}

type AlertsConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

type ReportConfig struct {
	Currencies []string `mapstructure:"currencies"` // subset of the tracked codes, empty means all
	Trend      bool     `mapstructure:"trend"`      // append directional indicators
	Timezone   string   `mapstructure:"timezone"`   // zone of the CURRENT DATE header
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the /metrics listener
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load() *Config {
	v := New()

	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}
	if p := os.Getenv("RATEBOT_CONFIG_DIR"); p != "" {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		log.Printf("config file not read, using defaults and env: %v", err)
	}

	cfg, err := Decode(v)
	if err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	return cfg
}

// New returns a viper instance with defaults and env overrides (e.g. TELEGRAM_TOKEN) set up.
func New() *viper.Viper {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Decode unmarshals v into a Config.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("moex.base_url", "https://iss.moex.com")
	v.SetDefault("moex.board", "CETS")
	v.SetDefault("moex.timeout", 10*time.Second)

	v.SetDefault("cbr.url", "https://www.cbr-xml-daily.ru/daily_json.js")
	v.SetDefault("cbr.timeout", 10*time.Second)
	v.SetDefault("cbr.refresh_interval", 6*time.Hour)
	v.SetDefault("cbr.refresh_hour", 0)
	v.SetDefault("cbr.timezone", "Europe/Moscow")

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.token_parameter", "")
	v.SetDefault("telegram.poll_timeout", 60)
	v.SetDefault("telegram.workers", 5)

	v.SetDefault("alerts.check_interval", 5*time.Minute)

	v.SetDefault("report.currencies", []string{})
	v.SetDefault("report.trend", true)
	v.SetDefault("report.timezone", "Europe/Moscow")

	v.SetDefault("metrics.addr", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.retention", 30*24*time.Hour)
	v.SetDefault("postgres.prune_interval", 6*time.Hour)
	v.SetDefault("postgres.history_days", 7)
}
