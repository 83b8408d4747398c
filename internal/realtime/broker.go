package realtime

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const userSubjectPrefix = "campus.user."

// NATSBroker публикует кадры в subject campus.user.<id>, все узлы подписаны на campus.user.*
type NATSBroker struct {
	nc     *nats.Conn
	logger *zap.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// ConnectNATS подключается к NATS с бесконечным переподключением
func ConnectNATS(url, name string, logger *zap.Logger) (*NATSBroker, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(500*time.Millisecond),
		nats.Timeout(3*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSBroker{nc: nc, logger: logger}, nil
}

func UserSubject(userID int64) string {
	return userSubjectPrefix + strconv.FormatInt(userID, 10)
}

func (b *NATSBroker) Publish(_ context.Context, userID int64, payload []byte) error {
	if err := b.nc.Publish(UserSubject(userID), payload); err != nil {
		return fmt.Errorf("publish to user %d: %w", userID, err)
	}
	return nil
}

func (b *NATSBroker) Subscribe(deliver func(userID int64, payload []byte)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != nil {
		return fmt.Errorf("broker already subscribed")
	}

	sub, err := b.nc.Subscribe(userSubjectPrefix+"*", func(m *nats.Msg) {
		id, err := strconv.ParseInt(strings.TrimPrefix(m.Subject, userSubjectPrefix), 10, 64)
		if err != nil {
			b.logger.Warn("Bad realtime subject", zap.String("subject", m.Subject))
			return
		}
		deliver(id, m.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe realtime: %w", err)
	}

	// подписка должна дойти до сервера раньше первых публикаций
	if err := b.nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("flush subscription: %w", err)
	}

	b.sub = sub
	return nil
}

func (b *NATSBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != nil {
		_ = b.sub.Drain()
		b.sub = nil
	}
	return b.nc.Drain()
}
