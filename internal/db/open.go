package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/soundzones/internal/config"
	"github.com/udisondev/soundzones/internal/model"
)

// Stores bundles the repositories of the configured driver.
type Stores struct {
	Regions RegionRepository
	Toggles ToggleRepository

	close func()
}

// Open connects to the configured database, applies migrations and returns
// its repositories.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Stores, error) {
	dsn := cfg.DSN()

	switch cfg.Driver {
	case config.DriverPostgres:
		if err := RunMigrations(ctx, cfg.Driver, dsn); err != nil {
			return nil, err
		}
		pg, err := New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		slog.Info("database connected", "driver", cfg.Driver, "host", cfg.Host, "db", cfg.DBName)
		return &Stores{
			Regions: NewPostgresRegionRepository(pg.Pool()),
			Toggles: NewPostgresToggleRepository(pg.Pool()),
			close:   pg.Close,
		}, nil

	case config.DriverSQLite:
		lite, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		slog.Info("database opened", "driver", cfg.Driver, "path", cfg.SQLitePath)
		return &Stores{
			Regions: lite.Regions(),
			Toggles: lite.Toggles(),
			close: func() {
				if err := lite.Close(); err != nil {
					slog.Error("closing sqlite", "err", err)
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// Close releases the underlying connection.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// State is everything persisted that the engine needs at start-up.
type State struct {
	Regions  []*model.Region
	OptedOut []uuid.UUID
}

// LoadState loads regions and toggles concurrently.
func (s *Stores) LoadState(ctx context.Context) (State, error) {
	var st State

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		regions, err := s.Regions.LoadAll(gctx)
		if err != nil {
			return err
		}
		st.Regions = regions
		return nil
	})
	g.Go(func() error {
		ids, err := s.Toggles.LoadOptedOut(gctx)
		if err != nil {
			return err
		}
		st.OptedOut = ids
		return nil
	})

	if err := g.Wait(); err != nil {
		return State{}, fmt.Errorf("loading persisted state: %w", err)
	}
	return st, nil
}
