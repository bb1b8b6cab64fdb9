package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/soundzones/internal/config"
	"github.com/udisondev/soundzones/internal/model"
)

// SQLite is an embedded single-file store. One connection: SQLite
// serializes writers anyway and ":memory:" databases are per-connection.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens dsn and applies migrations.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	sqlDB, err := sql.Open(sqlDriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", dsn, err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging sqlite %s: %w", dsn, err)
	}
	if err := Migrate(ctx, sqlDB, config.DriverSQLite); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &SQLite{db: sqlDB}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Regions returns the region repository backed by s.
func (s *SQLite) Regions() *SQLiteRegionRepository {
	return &SQLiteRegionRepository{db: s.db}
}

// Toggles returns the toggle repository backed by s.
func (s *SQLite) Toggles() *SQLiteToggleRepository {
	return &SQLiteToggleRepository{db: s.db}
}

// SQLiteRegionRepository handles region CRUD operations in SQLite.
type SQLiteRegionRepository struct {
	db *sql.DB
}

// LoadAll loads all regions from database.
func (r *SQLiteRegionRepository) LoadAll(ctx context.Context) ([]*model.Region, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, world, min_x, min_y, min_z, max_x, max_y, max_z,
		       creator, description, created_at
		FROM regions
		ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("loading all regions: %w", err)
	}
	defer rows.Close()

	var regions []*model.Region
	for rows.Next() {
		var (
			reg       model.Region
			creator   sql.NullString
			createdAt int64
		)
		b := &reg.Box
		if err := rows.Scan(
			&reg.ID, &reg.Name, &b.World,
			&b.Min.X, &b.Min.Y, &b.Min.Z,
			&b.Max.X, &b.Max.Y, &b.Max.Z,
			&creator, &reg.Description, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning region row: %w", err)
		}
		if creator.Valid {
			id, err := uuid.Parse(creator.String)
			if err != nil {
				return nil, fmt.Errorf("parsing creator of region %q: %w", reg.Name, err)
			}
			reg.Creator = &id
		}
		reg.CreatedAt = time.UnixMilli(createdAt).UTC()
		regions = append(regions, &reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating region rows: %w", err)
	}
	return regions, nil
}

// Save inserts a region or updates it when the id already exists.
func (r *SQLiteRegionRepository) Save(ctx context.Context, reg *model.Region) error {
	var creator sql.NullString
	if reg.Creator != nil {
		creator = sql.NullString{String: reg.Creator.String(), Valid: true}
	}

	b := reg.Box
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO regions (id, name, world, min_x, min_y, min_z, max_x, max_y, max_z,
		                     creator, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description`,
		reg.ID.String(), reg.Name, b.World,
		b.Min.X, b.Min.Y, b.Min.Z,
		b.Max.X, b.Max.Y, b.Max.Z,
		creator, reg.Description, reg.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving region %q: %w", reg.Name, err)
	}
	return nil
}

// Delete removes a region. Returns ErrNotFound if nothing was deleted.
func (r *SQLiteRegionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM regions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("deleting region %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting region %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("deleting region %s: %w", id, ErrNotFound)
	}
	return nil
}

// SQLiteToggleRepository stores sound opt-outs in SQLite.
type SQLiteToggleRepository struct {
	db *sql.DB
}

// LoadOptedOut returns every listener that opted out of sounds.
func (r *SQLiteToggleRepository) LoadOptedOut(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT listener FROM sound_toggles WHERE opted_out = 1`)
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
func (r *SQLiteToggleRepository) SetOptedOut(ctx context.Context, listener uuid.UUID, optedOut bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sound_toggles (listener, opted_out, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (listener) DO UPDATE SET opted_out = excluded.opted_out, updated_at = excluded.updated_at`,
		listener.String(), optedOut, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving sound toggle for %s: %w", listener, err)
	}
	return nil
}
