package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RequestExpirer переводит просроченные заявки в expired
type RequestExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// DefaultExpiryInterval как часто проверяются просроченные заявки
const DefaultExpiryInterval = time.Hour

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	expirer  RequestExpirer
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	done     sync.WaitGroup
}

// NewScheduler создаёт новый планировщик
func NewScheduler(expirer RequestExpirer, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultExpiryInterval
	}
	return &Scheduler{
		expirer:  expirer,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	s.done.Add(1)
	go s.runExpiryTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.done.Wait()
}

// runExpiryTask периодически закрывает просроченные заявки в друзья
func (s *Scheduler) runExpiryTask(ctx context.Context) {
	defer s.done.Done()

	// Первый запуск сразу при старте
	s.expireRequests(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireRequests(ctx)
		case <-s.stopChan:
			s.logger.Info("Request expiry task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Request expiry task cancelled")
			return
		}
	}
}

func (s *Scheduler) expireRequests(ctx context.Context) {
	n, err := s.expirer.ExpireStale(ctx)
	if err != nil {
		s.logger.Error("Failed to expire follow requests", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Expired stale follow requests", zap.Int64("count", n))
	}
}
