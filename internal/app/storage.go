package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/config"
	"github.com/Freeeeeet/wellness_hub/internal/repository"
	"github.com/Freeeeeet/wellness_hub/internal/repository/base"
	"github.com/Freeeeeet/wellness_hub/internal/repository/memory"
	"github.com/Freeeeeet/wellness_hub/internal/service"
)

// Storage набор хранилищ для сервисов, собранный по STORAGE_DRIVER
type Storage struct {
	Users          service.UserStore
	FollowRequests service.FollowRequestStore
	Connections    service.ConnectionStore
	Messages       service.MessageStore
	Posts          service.PostStore
	Grades         service.GradeStore
	Moods          service.MoodStore
	Groups         service.GroupStore

	pool *pgxpool.Pool
}

// OpenStorage открывает пул и применяет миграции либо собирает хранилище в памяти
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return MemoryStorage(memory.NewStores(memory.NewDB())), nil
	}

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	migrator, err := NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	db := base.NewRepository(pool)
	return &Storage{
		Users:          repository.NewUserRepository(db),
		FollowRequests: repository.NewFollowRequestRepository(db),
		Connections:    repository.NewConnectionRepository(db),
		Messages:       repository.NewMessageRepository(db),
		Posts:          repository.NewPostRepository(db),
		Grades:         repository.NewGradeRepository(db),
		Moods:          repository.NewMoodRepository(db),
		Groups:         repository.NewGroupRepository(db),
		pool:           pool,
	}, nil
}

func MemoryStorage(s *memory.Stores) *Storage {
	return &Storage{
		Users:          s.Users,
		FollowRequests: s.FollowRequests,
		Connections:    s.Connections,
		Messages:       s.Messages,
		Posts:          s.Posts,
		Grades:         s.Grades,
		Moods:          s.Moods,
		Groups:         s.Groups,
	}
}

// Close закрывает пул, если он есть
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
