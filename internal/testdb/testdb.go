// Package testdb opens the integration-test PostgreSQL database.
package testdb

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/furnibot/core/database"
	"github.com/m3rciful/furnibot/migrations"
)

// Config reads POSTGRES_* variables with defaults for a local PostgreSQL.
func Config() database.Config {
	cfg := database.Config{
		Host:     envOr("POSTGRES_HOST", "localhost"),
		Port:     envOr("POSTGRES_PORT", "5432"),
		User:     envOr("POSTGRES_USER", "furnibot"),
		Password: envOr("POSTGRES_PASSWORD", "furnibot"),
		Name:     envOr("POSTGRES_DB", "furnibot_test"),
	}
	cfg.Normalize()
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Open connects and migrates the test database, skipping the test when
// PostgreSQL is not reachable.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()
	cfg := Config()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.RunMigrations(ctx, cfg, migrations.FS); err != nil {
		_ = db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Suffix returns a value unique to this test run for slugs and names.
func Suffix() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}
