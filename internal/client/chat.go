package client

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
	"github.com/Freeeeeet/wellness_hub/internal/service"
)

const (
	historyPage = service.MaxHistoryLimit
	joinTimeout = 10 * time.Second
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ChatSession переписка с одним собеседником. Порядок по seq, дубли по id отброшены.
type ChatSession struct {
	api       *API
	selfID    int64
	partnerID int64

	mu       sync.Mutex
	conn     *websocket.Conn
	messages []*model.Message
	seen     map[int64]struct{}
	closed   bool
	updates  chan struct{}
}

// OpenChat подключается к realtime каналу и только после join загружает историю,
// чтобы не потерять сообщения, пришедшие между ними
func OpenChat(ctx context.Context, api *API, partnerID int64) (*ChatSession, error) {
	s := &ChatSession{
		api:       api,
		selfID:    api.Session().UserID,
		partnerID: partnerID,
		seen:      make(map[int64]struct{}),
		updates:   make(chan struct{}, 1),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	if err := s.sync(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Updates сигналит, что в ленте появились сообщения
func (s *ChatSession) Updates() <-chan struct{} {
	return s.updates
}

// Messages копия ленты по возрастанию seq
func (s *ChatSession) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = *m
	}
	return out
}

// Send сохраняет сообщение через REST и добавляет ответ сервера в ленту
func (s *ChatSession) Send(ctx context.Context, text string) (*model.Message, error) {
	msg, err := s.api.Send(ctx, service.SendInput{
		ReceiverID:  s.partnerID,
		Text:        text,
		ClientMsgID: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}
	s.add(msg)
	return msg, nil
}

// Reconnect заново подключается и догружает всё после последнего непрерывного seq
func (s *ChatSession) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errs.New(errs.KindConflict, "chat session closed")
	}
	old := s.conn
	s.conn = nil
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	if err := s.connect(ctx); err != nil {
		return err
	}
	return s.sync(ctx)
}

// Close закрывает сокет; повторный вызов безопасен
func (s *ChatSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// connect открывает сокет, проходит join и запускает чтение
func (s *ChatSession) connect(ctx context.Context) error {
	conn, err := s.api.DialRealtime(ctx)
	if err != nil {
		return err
	}

	if err := join(conn, s.api.Session().Token); err != nil {
		_ = conn.Close()
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return errs.New(errs.KindConflict, "chat session closed")
	}
	s.conn = conn
	s.mu.Unlock()

	go s.readLoop(conn)
	return nil
}

func join(conn *websocket.Conn, token string) error {
	data, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return err
	}
	payload, err := json.Marshal(frame{Type: model.EventJoin, Data: data})
	if err != nil {
		return err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(joinTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return errs.Wrap(errs.KindUnavailable, err, "send join")
	}

	_ = conn.SetReadDeadline(time.Now().Add(joinTimeout))
	defer conn.SetReadDeadline(time.Time{}) //nolint:errcheck

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return errs.Wrap(errs.KindUnavailable, err, "await joined")
		}
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}
		switch f.Type {
		case model.EventJoined:
			return nil
		case model.EventError:
			var e struct {
				Kind    errs.Kind `json:"kind"`
				Message string    `json:"message"`
			}
			_ = json.Unmarshal(f.Data, &e)
			return errs.New(e.Kind, e.Message)
		}
	}
}

func (s *ChatSession) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil || f.Type != model.EventReceiveMessage {
			continue
		}

		var msg model.Message
		if err := json.Unmarshal(f.Data, &msg); err != nil {
			continue
		}
		if msg.Involves(s.selfID, s.partnerID) {
			s.add(&msg)
		}
	}
}

// sync догружает историю постранично после последнего непрерывного seq
func (s *ChatSession) sync(ctx context.Context) error {
	after := s.contiguousSeq()
	for {
		page, err := s.api.History(ctx, s.partnerID, after, historyPage)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		for _, m := range page {
			s.add(m)
			if m.Seq > after {
				after = m.Seq
			}
		}
		if len(page) < historyPage {
			return nil
		}
	}
}

func (s *ChatSession) add(msg *model.Message) {
	s.mu.Lock()
	if _, ok := s.seen[msg.ID]; ok {
		s.mu.Unlock()
		return
	}
	s.seen[msg.ID] = struct{}{}

	i := sort.Search(len(s.messages), func(i int) bool { return s.messages[i].Seq > msg.Seq })
	s.messages = append(s.messages, nil)
	copy(s.messages[i+1:], s.messages[i:])
	s.messages[i] = msg
	s.mu.Unlock()

	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// contiguousSeq наибольший k, для которого в ленте есть все seq 1..k
func (s *ChatSession) contiguousSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var k int64
	for _, m := range s.messages {
		if m.Seq == k+1 {
			k = m.Seq
		} else if m.Seq > k+1 {
			break
		}
	}
	return k
}
