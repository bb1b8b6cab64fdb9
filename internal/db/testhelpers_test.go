package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/udisondev/soundzones/internal/config"
)

// testPool — shared PostgreSQL pool; nil when Docker is unavailable.
var testPool *pgxpool.Pool

// TestMain поднимает PostgreSQL testcontainer для postgres-тестов.
// SQLite-тесты работают и без Docker.
func TestMain(m *testing.M) {
	ctx := context.Background()

	container, dsn, err := startPostgres(ctx)
	if err != nil {
		log.Printf("postgres tests disabled: %v", err)
		os.Exit(m.Run())
	}

	testPool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		terminateOnError(container, err)
		log.Fatalf("connecting to test db: %v", err)
	}

	if err := RunMigrations(ctx, config.DriverPostgres, dsn); err != nil {
		testPool.Close()
		terminateOnError(container, err)
		log.Fatalf("running migrations: %v", err)
	}

	code := m.Run()

	testPool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func startPostgres(ctx context.Context) (c testcontainers.Container, dsn string, err error) {
	// testcontainers паникует, если docker host не найден
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("docker unavailable: %v", r)
		}
		c = terminateOnError(c, err)
	}()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}

	// GenericContainer может вернуть контейнер вместе с ошибкой, его тоже надо остановить
	c, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return c, "", fmt.Errorf("starting postgres container: %w", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		return c, "", fmt.Errorf("getting container host: %w", err)
	}
	port, err := c.MappedPort(ctx, "5432")
	if err != nil {
		return c, "", fmt.Errorf("getting container port: %w", err)
	}
	return c, fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()), nil
}

// terminateOnError останавливает контейнер, если его настройка не удалась,
// и возвращает nil. При err == nil контейнер возвращается как есть.
func terminateOnError(c testcontainers.Container, err error) testcontainers.Container {
	if err == nil {
		return c
	}
	if tcErr := testcontainers.TerminateContainer(c); tcErr != nil {
		log.Printf("terminating postgres container: %v", tcErr)
	}
	return nil
}

// setupPostgres возвращает shared pool с очищенными таблицами.
func setupPostgres(tb testing.TB) *pgxpool.Pool {
	tb.Helper()
	if testPool == nil {
		tb.Skip("docker unavailable")
	}

	ctx := context.Background()
	for _, q := range []string{"TRUNCATE regions", "TRUNCATE sound_toggles"} {
		if _, err := testPool.Exec(ctx, q); err != nil {
			tb.Logf("cleanup warning: %v", err) // non-fatal
		}
	}
	return testPool
}

// setupSQLite opens a fresh migrated database file.
func setupSQLite(tb testing.TB) *SQLite {
	tb.Helper()
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: tb.TempDir() + "/test.db"}
	lite, err := OpenSQLite(context.Background(), cfg.DSN())
	if err != nil {
		tb.Fatalf("opening sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = lite.Close() })
	return lite
}
