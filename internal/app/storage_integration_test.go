//go:build integration

package app

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/config"
	"github.com/Freeeeeet/wellness_hub/internal/model"
	"github.com/Freeeeeet/wellness_hub/internal/testinfra"
)

func TestOpenPostgresStorageMigrates(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		StorageDriver: config.StorageDriverPostgres,
		DBDSN:         testinfra.StartPostgres(t),
		MigrationsDir: "../../migrations",
	}

	st, err := OpenStorage(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()

	u := &model.User{AnonID: "a", Email: "ann@campus.test", PasswordHash: "x", DisplayName: "ann", Role: model.RoleStudent}
	require.NoError(t, st.Users.Create(ctx, u))

	// второй запуск ничего не применяет
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	require.NoError(t, err)
	defer pool.Close()

	mg, err := NewMigrator(pool, cfg.MigrationsDir, zap.NewNop())
	require.NoError(t, err)
	defer mg.Close()

	require.NoError(t, mg.Run(ctx))
	version, err := mg.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)
}

func TestNewMigratorMissingDir(t *testing.T) {
	pool, err := pgxpool.New(context.Background(), testinfra.StartPostgres(t))
	require.NoError(t, err)
	defer pool.Close()

	_, err = NewMigrator(pool, "does-not-exist", zap.NewNop())
	assert.Error(t, err)
}
