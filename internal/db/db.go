// Package db persists regions and sound toggles in PostgreSQL (pgx) or in an
// embedded SQLite file (modernc), with goose migrations for both.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/soundzones/internal/model"
)

// ErrNotFound is returned when a row to update or delete does not exist.
var ErrNotFound = errors.New("not found")

// RegionRepository is the region persistence contract shared by both drivers.
type RegionRepository interface {
	LoadAll(ctx context.Context) ([]*model.Region, error)
	Save(ctx context.Context, r *model.Region) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ToggleRepository persists per-listener sound opt-outs.
type ToggleRepository interface {
	LoadOptedOut(ctx context.Context) ([]uuid.UUID, error)
	SetOptedOut(ctx context.Context, listener uuid.UUID, optedOut bool) error
}

// DB wraps a pgx connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a DB handle.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{pool: pool}, nil
}

// Close closes the database connection pool.
func (d *DB) Close() {
	d.pool.Close()
}

// Pool returns the underlying pgx pool.
func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}
