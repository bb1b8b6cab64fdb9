package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/soundzones/internal/config"
	"github.com/udisondev/soundzones/internal/model"
	"github.com/udisondev/soundzones/internal/testutil"
)

func sampleRegion(name string, creator *uuid.UUID) *model.Region {
	return &model.Region{
		ID:   uuid.New(),
		Name: name,
		Box: model.NormalizeBox("world",
			model.BlockPos{X: -10, Y: 0, Z: 5},
			model.BlockPos{X: 10, Y: 64, Z: -5}),
		Creator:     creator,
		Description: "desc " + name,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
}

func testRegionRepository(t *testing.T, repo RegionRepository) {
	ctx := testutil.Context(t)
	owner := uuid.New()

	spawn := sampleRegion("spawn", nil)
	market := sampleRegion("market", &owner)
	market.CreatedAt = spawn.CreatedAt.Add(time.Second)

	require.NoError(t, repo.Save(ctx, spawn))
	require.NoError(t, repo.Save(ctx, market))

	all, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	got := all[0]
	assert.Equal(t, spawn.ID, got.ID)
	assert.Equal(t, spawn.Name, got.Name)
	assert.Equal(t, spawn.Box, got.Box)
	assert.Nil(t, got.Creator)
	assert.Equal(t, spawn.Description, got.Description)
	assert.True(t, spawn.CreatedAt.Equal(got.CreatedAt))

	require.NotNil(t, all[1].Creator)
	assert.Equal(t, owner, *all[1].Creator)

	// upsert: rename + describe
	require.NoError(t, repo.Save(ctx, market.WithName("bazaar").WithDescription("new")))
	all, err = repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "bazaar", all[1].Name)
	assert.Equal(t, "new", all[1].Description)

	// имена уникальны без учёта регистра
	assert.Error(t, repo.Save(ctx, sampleRegion("SPAWN", nil)))

	require.NoError(t, repo.Delete(ctx, spawn.ID))
	assert.ErrorIs(t, repo.Delete(ctx, spawn.ID), ErrNotFound)

	all, err = repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testToggleRepository(t *testing.T, repo ToggleRepository) {
	ctx := testutil.Context(t)
	a, b := uuid.New(), uuid.New()

	ids, err := repo.LoadOptedOut(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, repo.SetOptedOut(ctx, a, true))
	require.NoError(t, repo.SetOptedOut(ctx, b, true))
	require.NoError(t, repo.SetOptedOut(ctx, b, false))

	ids, err = repo.LoadOptedOut(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a}, ids)
}

func TestSQLiteRegionRepository(t *testing.T) {
	testRegionRepository(t, setupSQLite(t).Regions())
}

func TestSQLiteToggleRepository(t *testing.T) {
	testToggleRepository(t, setupSQLite(t).Toggles())
}

func TestPostgresRegionRepository(t *testing.T) {
	testRegionRepository(t, NewPostgresRegionRepository(setupPostgres(t)))
}

func TestPostgresToggleRepository(t *testing.T) {
	testToggleRepository(t, NewPostgresToggleRepository(setupPostgres(t)))
}

func TestOpen_SQLite(t *testing.T) {
	ctx := testutil.Context(t)
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: t.TempDir() + "/open.db"}

	stores, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer stores.Close()

	id := uuid.New()
	require.NoError(t, stores.Regions.Save(ctx, sampleRegion("spawn", nil)))
	require.NoError(t, stores.Toggles.SetOptedOut(ctx, id, true))

	st, err := stores.LoadState(ctx)
	require.NoError(t, err)
	assert.Len(t, st.Regions, 1)
	assert.Equal(t, []uuid.UUID{id}, st.OptedOut)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(testutil.Context(t), config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	lite := setupSQLite(t)
	assert.NoError(t, Migrate(testutil.Context(t), lite.db, config.DriverSQLite))
}
