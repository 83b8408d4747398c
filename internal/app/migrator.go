package app

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrator применяет SQL миграции из каталога через goose.Provider
type Migrator struct {
	provider       *goose.Provider
	migrationsPath string
	logger         *zap.Logger
}

// NewMigrator создаёт мигратор поверх пула; sql.DB закрывается в Close, пул остаётся открытым
func NewMigrator(pool *pgxpool.Pool, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	if _, err := os.Stat(migrationsPath); err != nil {
		return nil, fmt.Errorf("migrations dir %q: %w", migrationsPath, err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, stdlib.OpenDBFromPool(pool), os.DirFS(migrationsPath))
	if err != nil {
		return nil, fmt.Errorf("create goose provider: %w", err)
	}

	return &Migrator{
		provider:       provider,
		migrationsPath: migrationsPath,
		logger:         logger,
	}, nil
}

// Run применяет все pending миграции и логирует каждую
func (mg *Migrator) Run(ctx context.Context) error {
	pending, err := mg.provider.HasPending(ctx)
	if err != nil {
		return fmt.Errorf("check pending migrations: %w", err)
	}
	if !pending {
		version, err := mg.Version(ctx)
		if err != nil {
			return err
		}
		mg.logger.Info("Database schema is up to date", zap.Int64("version", version))
		return nil
	}

	mg.logger.Info("Applying database migrations", zap.String("path", mg.migrationsPath))

	results, err := mg.provider.Up(ctx)
	for _, r := range results {
		mg.logger.Info("Migration applied",
			zap.Int64("version", r.Source.Version),
			zap.String("file", r.Source.Path),
			zap.Duration("took", r.Duration),
		)
	}
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := mg.Version(ctx)
	if err != nil {
		return err
	}

	mg.logger.Info("Migrations applied", zap.Int64("version", version), zap.Int("count", len(results)))
	return nil
}

// Version показывает текущую версию схемы
func (mg *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := mg.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Close закрывает sql.DB мигратора
func (mg *Migrator) Close() error {
	return mg.provider.Close()
}
