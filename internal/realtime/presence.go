package realtime

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tracker считает открытые сокеты пользователя. Онлайн тот, у кого есть хотя бы один.
type Tracker interface {
	Connect(ctx context.Context, userID int64) error
	Disconnect(ctx context.Context, userID int64) error
	Refresh(ctx context.Context, userID int64) error
	OnlineUsers(ctx context.Context, userIDs []int64) (map[int64]bool, error)
}

// MemoryPresence трекер одного узла
type MemoryPresence struct {
	mu      sync.Mutex
	sockets map[int64]int
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{sockets: make(map[int64]int)}
}

func (p *MemoryPresence) Connect(_ context.Context, userID int64) error {
	p.mu.Lock()
	p.sockets[userID]++
	p.mu.Unlock()
	return nil
}

func (p *MemoryPresence) Disconnect(_ context.Context, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sockets[userID] <= 1 {
		delete(p.sockets, userID)
		return nil
	}
	p.sockets[userID]--
	return nil
}

func (p *MemoryPresence) Refresh(context.Context, int64) error { return nil }

func (p *MemoryPresence) OnlineUsers(_ context.Context, userIDs []int64) (map[int64]bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	online := make(map[int64]bool, len(userIDs))
	for _, id := range userIDs {
		online[id] = p.sockets[id] > 0
	}
	return online, nil
}

// DefaultPresenceTTL время жизни счётчика без пинга; узел мог упасть не уменьшив его
const DefaultPresenceTTL = 2 * time.Minute

// RedisPresence общий для всех узлов трекер.
// presence:<user_id> хранит число сокетов, TTL продлевается пингом.
type RedisPresence struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisPresence(rdb *redis.Client, ttl time.Duration) *RedisPresence {
	if ttl <= 0 {
		ttl = DefaultPresenceTTL
	}
	return &RedisPresence{rdb: rdb, ttl: ttl}
}

func presenceKey(userID int64) string {
	return "presence:" + strconv.FormatInt(userID, 10)
}

func (p *RedisPresence) Connect(ctx context.Context, userID int64) error {
	key := presenceKey(userID)
	pipe := p.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("presence connect: %w", err)
	}
	return nil
}

func (p *RedisPresence) Disconnect(ctx context.Context, userID int64) error {
	key := presenceKey(userID)
	left, err := p.rdb.Decr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("presence disconnect: %w", err)
	}
	if left <= 0 {
		if err := p.rdb.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("presence disconnect: %w", err)
		}
	}
	return nil
}

func (p *RedisPresence) Refresh(ctx context.Context, userID int64) error {
	if err := p.rdb.Expire(ctx, presenceKey(userID), p.ttl).Err(); err != nil {
		return fmt.Errorf("presence refresh: %w", err)
	}
	return nil
}

func (p *RedisPresence) OnlineUsers(ctx context.Context, userIDs []int64) (map[int64]bool, error) {
	online := make(map[int64]bool, len(userIDs))
	if len(userIDs) == 0 {
		return online, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = presenceKey(id)
	}

	vals, err := p.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("presence lookup: %w", err)
	}

	for i, id := range userIDs {
		online[id] = false
		s, ok := vals[i].(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil && n > 0 {
			online[id] = true
		}
	}
	return online, nil
}
