package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
	"github.com/Freeeeeet/wellness_hub/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	joinWait       = 15 * time.Second
	maxMessageSize = 64 * 1024
	sendQueueSize  = 64
	requestTimeout = 10 * time.Second
)

var clientIDCounter atomic.Uint64

// Authenticator проверяет токен из кадра join
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// MessageSender сохраняет сообщение, пришедшее по сокету
type MessageSender interface {
	Send(ctx context.Context, senderID int64, in service.SendInput) (*model.Message, error)
}

// Client один сокет. Писатель один: writePump; остальные кладут кадры в send.
type Client struct {
	id     uint64
	hub    *Hub
	conn   *websocket.Conn
	auth   Authenticator
	chat   MessageSender
	logger *zap.Logger

	userID int64

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, auth Authenticator, chat MessageSender, logger *zap.Logger) *Client {
	return &Client{
		id:     clientIDCounter.Add(1),
		hub:    hub,
		conn:   conn,
		auth:   auth,
		chat:   chat,
		logger: logger,
		send:   make(chan []byte, sendQueueSize),
	}
}

// enqueue кладёт кадр в очередь без блокировки; false если очередь полна
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) reply(event string, data any) {
	payload, err := EncodeFrame(event, data)
	if err != nil {
		c.logger.Error("Encode frame failed", zap.String("type", event), zap.Error(err))
		return
	}
	if !c.enqueue(payload) {
		c.hub.leave(c)
	}
}

func (c *Client) replyError(err error, clientMsgID string) {
	c.reply(model.EventError, ErrorData{
		Kind:        string(errs.KindOf(err)),
		Message:     errs.Message(err),
		ClientMsgID: clientMsgID,
	})
}

// Start запускает насосы чтения и записи
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump читает кадры клиента до ошибки или закрытия.
// Сокет закрывает writePump, дописав очередь.
func (c *Client) readPump() {
	defer c.hub.leave(c)

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(joinWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		if c.userID != 0 {
			_ = c.hub.presence.Refresh(context.Background(), c.userID)
		}
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("Unexpected websocket close", zap.Int64("user_id", c.userID), zap.Error(err))
			}
			return
		}

		frame, err := DecodeFrame(data)
		if err != nil {
			c.replyError(errs.Wrap(errs.KindValidation, err, "malformed frame"), "")
			continue
		}

		if !c.handle(frame) {
			return
		}
	}
}

// handle обрабатывает один кадр; false закрывает сокет
func (c *Client) handle(frame *Frame) bool {
	switch frame.Type {
	case model.EventPing:
		if c.userID != 0 {
			_ = c.hub.presence.Refresh(context.Background(), c.userID)
		}
		c.reply(model.EventPong, nil)
		return true

	case model.EventJoin:
		return c.handleJoin(frame)
	}

	if c.userID == 0 {
		c.replyError(errs.New(errs.KindUnauthorized, "join first"), "")
		return true
	}

	switch frame.Type {
	case model.EventSendMessage:
		c.handleSend(frame)
	default:
		c.replyError(errs.Newf(errs.KindValidation, "unknown event %q", frame.Type), "")
	}
	return true
}

func (c *Client) handleJoin(frame *Frame) bool {
	if c.userID != 0 {
		c.replyError(errs.New(errs.KindConflict, "already joined"), "")
		return true
	}

	var data JoinData
	if err := json.Unmarshal(frame.Data, &data); err != nil || data.Token == "" {
		c.replyError(errs.New(errs.KindUnauthorized, "token required"), "")
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	user, err := c.auth.Authenticate(ctx, data.Token)
	if err != nil {
		c.replyError(err, "")
		return false
	}

	c.userID = user.ID
	c.hub.join(c)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

	c.reply(model.EventJoined, JoinedData{UserID: user.ID})
	return true
}

func (c *Client) handleSend(frame *Frame) {
	var in service.SendInput
	if err := json.Unmarshal(frame.Data, &in); err != nil {
		c.replyError(errs.Wrap(errs.KindValidation, err, "malformed send_message"), "")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	msg, err := c.chat.Send(ctx, c.userID, in)
	if err != nil {
		if errs.KindOf(err) == errs.KindInternal {
			c.logger.Error("Send over websocket failed", zap.Int64("user_id", c.userID), zap.Error(err))
		}
		c.replyError(err, in.ClientMsgID)
		return
	}

	c.reply(model.EventMessageAck, msg)
}

// writePump единственный писатель в сокет
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
