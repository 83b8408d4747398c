package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/model"
)

type sentMessage struct {
	chatID string
	text   string
}

// fakeTelegram отвечает на sendMessage как Bot API
type fakeTelegram struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if strings.HasSuffix(r.URL.Path, "/sendMessage") {
		f.mu.Lock()
		f.sent = append(f.sent, sentMessage{chatID: r.FormValue("chat_id"), text: r.FormValue("text")})
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
}

func (f *fakeTelegram) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func newTestBot(t *testing.T) (*bot.Bot, *fakeTelegram) {
	t.Helper()
	fake := &fakeTelegram{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	b, err := bot.New("123:test", bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	require.NoError(t, err)
	return b, fake
}

func TestNotifySendsToLinkedChat(t *testing.T) {
	b, fake := newTestBot(t)
	n := NewTelegramNotifier(b, zap.NewNop())

	chatID := int64(4242)
	err := n.Notify(context.Background(), &model.User{ID: 1, TelegramChatID: &chatID}, "ann wants to connect with you")
	require.NoError(t, err)

	sent := fake.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "4242", sent[0].chatID)
	assert.Equal(t, "ann wants to connect with you", sent[0].text)
}

func TestNotifySkipsUnlinkedUser(t *testing.T) {
	b, fake := newTestBot(t)
	n := NewTelegramNotifier(b, zap.NewNop())

	require.NoError(t, n.Notify(context.Background(), &model.User{ID: 1}, "hi"))
	require.NoError(t, n.Notify(context.Background(), nil, "hi"))
	assert.Empty(t, fake.messages())
}

func TestStartCommandRepliesWithChatID(t *testing.T) {
	b, fake := newTestBot(t)
	c := NewBotController(b, zap.NewNop())
	require.NoError(t, c.RegisterHandlers(context.Background()))

	c.handleStart(context.Background(), b, &models.Update{
		Message: &models.Message{Chat: models.Chat{ID: 77}, Text: "/start"},
	})

	sent := fake.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "77", sent[0].chatID)
	assert.Equal(t, StartText(77), sent[0].text)
}
