package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/udisondev/soundzones/internal/config"
	"github.com/udisondev/soundzones/internal/db/migrations"
)

// database/sql driver names registered by the blank imports above.
const (
	sqlDriverPostgres = "pgx"
	sqlDriverSQLite   = "sqlite"
)

// RunMigrations runs goose migrations on the given DSN.
func RunMigrations(ctx context.Context, driver, dsn string) error {
	sqlName, err := sqlDriverName(driver)
	if err != nil {
		return err
	}

	sqlDB, err := sql.Open(sqlName, dsn)
	if err != nil {
		return fmt.Errorf("opening sql connection for migrations: %w", err)
	}
	defer sqlDB.Close()

	return Migrate(ctx, sqlDB, driver)
}

// Migrate applies embedded migrations of driver's dialect to an open *sql.DB.
func Migrate(ctx context.Context, sqlDB *sql.DB, driver string) error {
	var dialect, dir string
	switch driver {
	case config.DriverPostgres:
		dialect, dir = "postgres", migrations.PostgresDir
	case config.DriverSQLite:
		dialect, dir = "sqlite3", migrations.SQLiteDir
	default:
		return fmt.Errorf("unknown database driver %q", driver)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func sqlDriverName(driver string) (string, error) {
	switch driver {
	case config.DriverPostgres:
		return sqlDriverPostgres, nil
	case config.DriverSQLite:
		return sqlDriverSQLite, nil
	default:
		return "", fmt.Errorf("unknown database driver %q", driver)
	}
}
