package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/metrics"
)

// Broker разносит кадры между узлами. Каждый узел доставляет в свои сокеты.
type Broker interface {
	Publish(ctx context.Context, userID int64, payload []byte) error
	Subscribe(deliver func(userID int64, payload []byte)) error
	Close() error
}

// Hub держит комнаты: по одной на пользователя, в комнате все его сокеты
type Hub struct {
	mu       sync.RWMutex
	rooms    map[int64]map[*Client]struct{}
	broker   Broker
	presence Tracker
	logger   *zap.Logger
}

func NewHub(broker Broker, presence Tracker, logger *zap.Logger) *Hub {
	if presence == nil {
		presence = NewMemoryPresence()
	}
	return &Hub{
		rooms:    make(map[int64]map[*Client]struct{}),
		broker:   broker,
		presence: presence,
		logger:   logger,
	}
}

// Start подписывает hub на брокер; без брокера доставка идёт внутри процесса
func (h *Hub) Start() error {
	if h.broker == nil {
		return nil
	}
	return h.broker.Subscribe(h.Deliver)
}

// Presence возвращает трекер присутствия
func (h *Hub) Presence() Tracker {
	return h.presence
}

// Publish отправляет событие во все сокеты пользователя на всех узлах
func (h *Hub) Publish(ctx context.Context, userID int64, event string, data any) error {
	payload, err := EncodeFrame(event, data)
	if err != nil {
		return err
	}

	if h.broker != nil {
		return h.broker.Publish(ctx, userID, payload)
	}

	h.Deliver(userID, payload)
	return nil
}

// Deliver кладёт кадр в очереди локальных сокетов пользователя.
// Сокет с переполненной очередью отключается.
func (h *Hub) Deliver(userID int64, payload []byte) {
	h.mu.RLock()
	var slow []*Client
	for c := range h.rooms[userID] {
		if !c.enqueue(payload) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Dropping slow websocket client",
			zap.Int64("user_id", userID),
			zap.Uint64("client_id", c.id),
		)
		metrics.RealtimeDropped.Inc()
		h.leave(c)
	}
}

// join добавляет сокет в комнату пользователя
func (h *Hub) join(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.userID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.userID] = room
	}
	room[c] = struct{}{}
	sockets := len(room)
	h.mu.Unlock()

	metrics.WebSocketConnections.Inc()
	if err := h.presence.Connect(context.Background(), c.userID); err != nil {
		h.logger.Warn("Presence connect failed", zap.Int64("user_id", c.userID), zap.Error(err))
	}

	h.logger.Debug("Websocket joined",
		zap.Int64("user_id", c.userID),
		zap.Int("user_sockets", sockets),
	)
}

// leave убирает сокет из комнаты и закрывает его очередь; повторный вызов безопасен
func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.userID]
	_, member := room[c]
	if ok && member {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.userID)
		}
	}
	h.mu.Unlock()

	c.closeSend()

	if !member {
		return
	}

	metrics.WebSocketConnections.Dec()
	if err := h.presence.Disconnect(context.Background(), c.userID); err != nil {
		h.logger.Warn("Presence disconnect failed", zap.Int64("user_id", c.userID), zap.Error(err))
	}

	h.logger.Debug("Websocket left", zap.Int64("user_id", c.userID))
}

// SocketCount число локальных сокетов пользователя
func (h *Hub) SocketCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// Close закрывает все сокеты и брокер
func (h *Hub) Close() error {
	h.mu.Lock()
	var all []*Client
	for _, room := range h.rooms {
		for c := range room {
			all = append(all, c)
		}
	}
	h.mu.Unlock()

	for _, c := range all {
		h.leave(c)
	}

	if h.broker != nil {
		return h.broker.Close()
	}
	return nil
}
