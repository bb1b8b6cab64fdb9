package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/soundzones/internal/model"
)

// PostgresRegionRepository handles region CRUD operations in PostgreSQL.
type PostgresRegionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRegionRepository creates a new region repository.
func NewPostgresRegionRepository(pool *pgxpool.Pool) *PostgresRegionRepository {
	return &PostgresRegionRepository{pool: pool}
}

// LoadAll loads all regions from database.
func (r *PostgresRegionRepository) LoadAll(ctx context.Context) ([]*model.Region, error) {
	query := `
		SELECT id, name, world, min_x, min_y, min_z, max_x, max_y, max_z,
		       creator, description, created_at
		FROM regions
		ORDER BY created_at, name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("loading all regions: %w", err)
	}
	defer rows.Close()

	regions := make([]*model.Region, 0, 32)
	for rows.Next() {
		var (
			reg     model.Region
			creator *uuid.UUID
		)
		b := &reg.Box
		if err := rows.Scan(
			&reg.ID, &reg.Name, &b.World,
			&b.Min.X, &b.Min.Y, &b.Min.Z,
			&b.Max.X, &b.Max.Y, &b.Max.Z,
			&creator, &reg.Description, &reg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning region row: %w", err)
		}
		reg.Creator = creator
		regions = append(regions, &reg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating region rows: %w", err)
	}

	return regions, nil
}

// Save inserts a region or updates it when the id already exists.
func (r *PostgresRegionRepository) Save(ctx context.Context, reg *model.Region) error {
	query := `
		INSERT INTO regions (id, name, world, min_x, min_y, min_z, max_x, max_y, max_z,
		                     creator, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description
	`

	b := reg.Box
	_, err := r.pool.Exec(ctx, query,
		reg.ID, reg.Name, b.World,
		b.Min.X, b.Min.Y, b.Min.Z,
		b.Max.X, b.Max.Y, b.Max.Z,
		reg.Creator, reg.Description, reg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving region %q: %w", reg.Name, err)
	}
	return nil
}

// Delete removes a region. Returns ErrNotFound if nothing was deleted.
func (r *PostgresRegionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM regions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting region %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting region %s: %w", id, ErrNotFound)
	}
	return nil
}
