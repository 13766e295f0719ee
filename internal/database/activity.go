package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jason-s-yu/picturepoker/internal/models"
)

// ActivityStore writes lobby activity records to lobby_activity.
type ActivityStore struct {
	Pool *pgxpool.Pool
}

// SaveActivity inserts records in a single transaction.
func (s ActivityStore) SaveActivity(ctx context.Context, records []models.ActivityRecord) error {
	q := `INSERT INTO lobby_activity (kind, lobby_code, event_type, external_id, players, occurred_at)
	      VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6)`

	err := pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if _, err := tx.Exec(ctx, q,
				rec.Kind, rec.LobbyCode, rec.EventType, rec.ExternalID, rec.Players, rec.Timestamp,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// CountActivity returns how many records are stored for a lobby.
func CountActivity(ctx context.Context, pool *pgxpool.Pool, lobbyCode string) (int, error) {
	var n int
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM lobby_activity WHERE lobby_code = $1`, lobbyCode).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count activity: %w", err)
	}
	return n, nil
}
