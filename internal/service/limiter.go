package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SendLimiter ограничивает частоту отправки сообщений на пользователя
type SendLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*limiterEntry
	rps      rate.Limit
	burst    int
	idle     time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewSendLimiter(perSecond float64, burst int) *SendLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &SendLimiter{
		limiters: make(map[int64]*limiterEntry),
		rps:      rate.Limit(perSecond),
		burst:    burst,
		idle:     10 * time.Minute,
	}
}

// Allow расходует один токен пользователя
func (l *SendLimiter) Allow(userID int64) bool {
	if l == nil || l.rps <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	e, ok := l.limiters[userID]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[userID] = e
		l.sweepLocked(now)
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// sweepLocked удаляет лимитеры неактивных пользователей
func (l *SendLimiter) sweepLocked(now time.Time) {
	if len(l.limiters) < 1024 {
		return
	}
	for id, e := range l.limiters {
		if now.Sub(e.lastSeen) > l.idle {
			delete(l.limiters, id)
		}
	}
}
