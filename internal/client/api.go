// Package client клиент API кампуса: типизированные REST вызовы, список контактов
// с оптимистичными обновлениями и сессия чата поверх WebSocket.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
	"github.com/Freeeeeet/wellness_hub/internal/service"
)

// Session явное состояние входа вместо глобального токена
type Session struct {
	BaseURL string
	Token   string
	UserID  int64
}

const (
	defaultTimeout = 10 * time.Second
	maxRetries     = 3
	retryBase      = 100 * time.Millisecond
)

type API struct {
	session Session
	http    *http.Client
	backoff func() retry.Backoff
	dialer  *websocket.Dialer
}

type Option func(*API)

// WithHTTPClient подменяет http.Client (тесты, прокси)
func WithHTTPClient(c *http.Client) Option {
	return func(a *API) { a.http = c }
}

// WithBackoff задаёт стратегию повторов для временных ошибок
func WithBackoff(b func() retry.Backoff) Option {
	return func(a *API) { a.backoff = b }
}

func NewAPI(session Session, opts ...Option) *API {
	a := &API{
		session: session,
		http:    &http.Client{Timeout: defaultTimeout},
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(maxRetries, retry.NewExponential(retryBase))
		},
		dialer: websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *API) Session() Session {
	return a.session
}

// ============ Вход ============

// Login входит и возвращает API с заполненной сессией
func Login(ctx context.Context, baseURL, email, password string, opts ...Option) (*API, error) {
	return authenticate(ctx, baseURL, "/api/auth/login", service.LoginInput{Email: email, Password: password}, opts)
}

// Register регистрирует пользователя и возвращает API с заполненной сессией
func Register(ctx context.Context, baseURL string, in service.RegisterInput, opts ...Option) (*API, error) {
	return authenticate(ctx, baseURL, "/api/auth/register", in, opts)
}

func authenticate(ctx context.Context, baseURL, path string, body any, opts []Option) (*API, error) {
	anon := NewAPI(Session{BaseURL: strings.TrimRight(baseURL, "/")}, opts...)

	var res service.AuthResult
	if err := anon.do(ctx, http.MethodPost, path, body, &res); err != nil {
		return nil, err
	}

	anon.session.Token = res.Token
	anon.session.UserID = res.User.ID
	return anon, nil
}

// ============ Контакты ============

func (a *API) Suggestions(ctx context.Context) ([]model.Suggestion, error) {
	var out []model.Suggestion
	return out, a.do(ctx, http.MethodGet, "/api/chat/suggestions", nil, &out)
}

func (a *API) Pending(ctx context.Context) ([]model.PendingRequest, error) {
	var out []model.PendingRequest
	return out, a.do(ctx, http.MethodGet, "/api/chat/pending", nil, &out)
}

func (a *API) Outgoing(ctx context.Context) ([]model.OutgoingRequest, error) {
	var out []model.OutgoingRequest
	return out, a.do(ctx, http.MethodGet, "/api/chat/outgoing", nil, &out)
}

func (a *API) Connections(ctx context.Context) ([]model.ConnectionView, error) {
	var out []model.ConnectionView
	return out, a.do(ctx, http.MethodGet, "/api/chat/connections", nil, &out)
}

func (a *API) Follow(ctx context.Context, userID int64) (*model.FollowResult, error) {
	var out model.FollowResult
	if err := a.do(ctx, http.MethodPost, "/api/chat/follow", map[string]int64{"user_id": userID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Accept(ctx context.Context, requestID int64) (*model.Connection, error) {
	var out model.Connection
	if err := a.do(ctx, http.MethodPost, "/api/chat/accept", map[string]int64{"request_id": requestID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Reject(ctx context.Context, requestID int64) error {
	return a.do(ctx, http.MethodPost, "/api/chat/reject", map[string]int64{"request_id": requestID}, nil)
}

func (a *API) Cancel(ctx context.Context, requestID int64) error {
	return a.do(ctx, http.MethodPost, "/api/chat/cancel", map[string]int64{"request_id": requestID}, nil)
}

// ============ Чат ============

// Send повторяет отправку при временных ошибках; client_msg_id делает повтор безопасным
func (a *API) Send(ctx context.Context, in service.SendInput) (*model.Message, error) {
	var out model.Message
	if err := a.do(ctx, http.MethodPost, "/api/chat/send", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) History(ctx context.Context, partnerID, afterSeq int64, limit int) ([]*model.Message, error) {
	q := url.Values{}
	q.Set("after_seq", strconv.FormatInt(afterSeq, 10))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out []*model.Message
	path := "/api/chat/messages/" + strconv.FormatInt(partnerID, 10) + "?" + q.Encode()
	return out, a.do(ctx, http.MethodGet, path, nil, &out)
}

// DialRealtime открывает WebSocket на /ws; join делает вызывающий
func (a *API) DialRealtime(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(a.session.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"

	conn, _, err := a.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindUnavailable, err, "realtime unavailable")
	}
	return conn, nil
}

// ============ Транспорт ============

type errorBody struct {
	Error struct {
		Kind    errs.Kind `json:"kind"`
		Message string    `json:"message"`
	} `json:"error"`
}

// do выполняет запрос с повторами временных ошибок и разбирает ответ в out
func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	return retry.Do(ctx, a.backoff(), func(ctx context.Context) error {
		err := a.once(ctx, method, path, payload, out)
		if err != nil && errs.IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (a *API) once(ctx context.Context, method, path string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.session.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.session.Token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return errs.Wrap(errs.KindUnavailable, err, "server unreachable")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.KindUnavailable, err, "read response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError восстанавливает вид и текст ошибки сервера
func decodeError(status int, data []byte) error {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Kind != "" {
		return errs.New(body.Error.Kind, body.Error.Message)
	}
	return errs.Newf(errs.FromHTTPStatus(status), "unexpected status %d", status)
}
