// Package realtime реализует канал реального времени поверх WebSocket:
// комнаты по пользователю, рукопожатие join и доставку событий между узлами.
package realtime

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Frame единица обмена по сокету: {"type": "...", "data": {...}}
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type JoinData struct {
	Token string `json:"token"`
}

type JoinedData struct {
	UserID int64 `json:"user_id"`
}

type ErrorData struct {
	Kind        string `json:"kind"`
	Message     string `json:"message"`
	ClientMsgID string `json:"client_msg_id,omitempty"`
}

// EncodeFrame сериализует событие в готовый к отправке кадр
func EncodeFrame(event string, data any) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", event, err)
		}
		raw = b
	}
	return json.Marshal(Frame{Type: event, Data: raw})
}

// DecodeFrame разбирает входящий кадр
func DecodeFrame(b []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("decode frame: missing type")
	}
	return &f, nil
}
