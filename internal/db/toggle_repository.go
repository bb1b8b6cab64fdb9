package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresToggleRepository stores sound opt-outs in PostgreSQL.
type PostgresToggleRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresToggleRepository creates a new toggle repository.
func NewPostgresToggleRepository(pool *pgxpool.Pool) *PostgresToggleRepository {
	return &PostgresToggleRepository{pool: pool}
}

// LoadOptedOut returns every listener that opted out of sounds.
func (r *PostgresToggleRepository) LoadOptedOut(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT listener FROM sound_toggles WHERE opted_out`)
	if err != nil {
		return nil, fmt.Errorf("loading sound toggles: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning sound toggle row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sound toggle rows: %w", err)
	}
	return ids, nil
}

// SetOptedOut upserts the toggle state of listener.
func (r *PostgresToggleRepository) SetOptedOut(ctx context.Context, listener uuid.UUID, optedOut bool) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sound_toggles (listener, opted_out, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (listener) DO UPDATE SET opted_out = EXCLUDED.opted_out, updated_at = EXCLUDED.updated_at`,
		listener, optedOut, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("saving sound toggle for %s: %w", listener, err)
	}
	return nil
}
