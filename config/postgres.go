package config

import (
	"fmt"
	"time"
)

// PostgresConfig defines the configuration for the optional rate history database.
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`

	// Parameter Store names read when env is "prod".
	HostParameter     string `mapstructure:"host_parameter"`
	UserParameter     string `mapstructure:"user_parameter"`
	PasswordParameter string `mapstructure:"password_parameter"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`

	// Rows resolved longer than Retention ago are deleted every PruneInterval.
	// Zero retention keeps everything.
	Retention     time.Duration `mapstructure:"retention"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
	// HistoryDays is the window answered by /history.
	HistoryDays int `mapstructure:"history_days"`
}

// DSN builds the connection string. In prod the host and credentials are taken
// from SSM Parameter Store.
func (cfg *PostgresConfig) DSN(env string) string {
	host, user, password := cfg.Host, cfg.User, cfg.Password
	if env == "prod" {
		host = ParameterOr(cfg.HostParameter, host)
		user = ParameterOr(cfg.UserParameter, user)
		password = ParameterOr(cfg.PasswordParameter, password)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, cfg.Port, user, password, cfg.DBName, cfg.SSLMode,
	)

	if cfg.TimeZone != "" {
		dsn += fmt.Sprintf(" TimeZone=%s", cfg.TimeZone)
	}

	return dsn
}

// ServerDSN is DSN pointed at the maintenance "postgres" database, used to create DBName.
func (cfg *PostgresConfig) ServerDSN(env string) string {
	c := *cfg
	c.DBName = "postgres"
	return c.DSN(env)
}
