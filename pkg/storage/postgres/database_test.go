package postgres_test

import (
	"os"
	"testing"

	"ratebot/config"
	"ratebot/pkg/storage/postgres"
)

// go test -v --run TestCreateDatabase
func TestCreateDatabase(t *testing.T) {
	if os.Getenv("RATEBOT_TEST_POSTGRES_DSN") == "" {
		t.Skip("RATEBOT_TEST_POSTGRES_DSN not set")
	}

	cfg := config.PostgresConfig{
		Host:     envOr("PGHOST", "localhost"),
		Port:     5432,
		User:     envOr("PGUSER", "postgres"),
		Password: os.Getenv("PGPASSWORD"),
		DBName:   "ratebot_test_create",
		SSLMode:  "disable",
	}

	// Running twice covers the already-exists path.
	for i := 0; i < 2; i++ {
		if err := postgres.CreateDatabase(cfg, "dev"); err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
