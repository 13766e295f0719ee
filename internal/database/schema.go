package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS user_profiles (
		login_token TEXT PRIMARY KEY,
		color_r     REAL NOT NULL DEFAULT 1,
		color_g     REAL NOT NULL DEFAULT 1,
		color_b     REAL NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS lobby_activity (
		id          BIGSERIAL PRIMARY KEY,
		kind        TEXT NOT NULL,
		lobby_code  TEXT NOT NULL,
		event_type  TEXT,
		external_id TEXT,
		players     INTEGER NOT NULL DEFAULT 0,
		occurred_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS lobby_activity_code_idx ON lobby_activity (lobby_code, occurred_at)`,
}

// EnsureSchema creates the tables this service reads and writes if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
