package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/auth"
	"github.com/Freeeeeet/wellness_hub/internal/model"
	"github.com/Freeeeeet/wellness_hub/internal/repository/memory"
)

type published struct {
	userID int64
	event  string
	data   any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, userID int64, event string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{userID: userID, event: event, data: data})
	return nil
}

func (p *recordingPublisher) to(userID int64, event string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.events {
		if e.userID == userID && e.event == event {
			out = append(out, e)
		}
	}
	return out
}

type recordingNotifier struct {
	mu    sync.Mutex
	texts map[int64][]string
}

func (n *recordingNotifier) Notify(_ context.Context, user *model.User, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.texts == nil {
		n.texts = make(map[int64][]string)
	}
	n.texts[user.ID] = append(n.texts[user.ID], text)
	return nil
}

type staticPresence map[int64]bool

func (p staticPresence) OnlineUsers(_ context.Context, ids []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = p[id]
	}
	return out, nil
}

type fixture struct {
	db        *memory.DB
	stores    *memory.Stores
	publisher *recordingPublisher
	notifier  *recordingNotifier
	users     *UserService
	conns     *ConnectionService
	chat      *ChatService
	community *CommunityService
	grades    *GradeService
	wellness  *WellnessService
	groups    *GroupService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	db := memory.NewDB()
	stores := memory.NewStores(db)
	pub := &recordingPublisher{}
	notifier := &recordingNotifier{}

	return &fixture{
		db:        db,
		stores:    stores,
		publisher: pub,
		notifier:  notifier,
		users:     NewUserService(stores.Users, auth.NewTokenManager("test", time.Hour), logger),
		conns: NewConnectionService(stores.Users, stores.FollowRequests, stores.Connections, ConnectionOptions{
			Publisher: pub,
			Presence:  staticPresence{},
			Notifier:  notifier,
		}, logger),
		chat:      NewChatService(stores.Messages, stores.Connections, pub, NewSendLimiter(1000, 1000), logger),
		community: NewCommunityService(stores.Posts, stores.Users, logger),
		grades:    NewGradeService(stores.Grades, stores.Users, logger),
		wellness:  NewWellnessService(stores.Moods, logger),
		groups:    NewGroupService(stores.Groups, stores.Connections, stores.Users, logger),
	}
}

func (f *fixture) user(t *testing.T, name, role string) *model.User {
	t.Helper()
	res, err := f.users.Register(context.Background(), RegisterInput{
		Email:       name + "@campus.test",
		Password:    "password123",
		DisplayName: name,
		Role:        role,
	})
	require.NoError(t, err)
	return res.User
}

func (f *fixture) connect(t *testing.T, a, b *model.User) {
	t.Helper()
	ctx := context.Background()
	res, err := f.conns.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = f.conns.Accept(ctx, b.ID, res.Request.ID)
	require.NoError(t, err)
}
