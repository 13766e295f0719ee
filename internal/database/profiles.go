package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jason-s-yu/picturepoker/internal/models"
)

// LoadProfiles reads every stored color preference.
func LoadProfiles(ctx context.Context, pool *pgxpool.Pool) ([]models.UserProfile, error) {
	rows, err := pool.Query(ctx, `SELECT login_token, color_r, color_g, color_b FROM user_profiles`)
	if err != nil {
		return nil, fmt.Errorf("failed to query user_profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.UserProfile
	for rows.Next() {
		var p models.UserProfile
		if err := rows.Scan(&p.LoginToken, &p.Color.R, &p.Color.G, &p.Color.B); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// UpsertProfiles writes profiles in one transaction, replacing existing colors.
func UpsertProfiles(ctx context.Context, pool *pgxpool.Pool, profiles []models.UserProfile) error {
	q := `INSERT INTO user_profiles (login_token, color_r, color_g, color_b)
	      VALUES ($1, $2, $3, $4)
	      ON CONFLICT (login_token) DO UPDATE
	      SET color_r = EXCLUDED.color_r, color_g = EXCLUDED.color_g, color_b = EXCLUDED.color_b`

	err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range profiles {
			batch.Queue(q, p.LoginToken, p.Color.R, p.Color.G, p.Color.B)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to upsert profiles: %w", err)
	}
	return nil
}
