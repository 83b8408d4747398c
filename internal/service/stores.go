package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/wellness_hub/internal/model"
)

// Хранилища. Реализации: internal/repository (postgres) и internal/repository/memory.

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error)
	ListExcept(ctx context.Context, exclude []int64, limit int) ([]*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type FollowRequestStore interface {
	Create(ctx context.Context, req *model.FollowRequest) error
	GetByID(ctx context.Context, id int64) (*model.FollowRequest, error)
	ListPendingTo(ctx context.Context, userID int64) ([]*model.FollowRequest, error)
	ListPendingFrom(ctx context.Context, userID int64) ([]*model.FollowRequest, error)
	UpdateStatus(ctx context.Context, id int64, from, to string) error
	Accept(ctx context.Context, id int64) (*model.Connection, error)
	// Open атомарно по паре создаёт заявку или принимает встречную (accepted != nil)
	Open(ctx context.Context, req *model.FollowRequest) (accepted *model.FollowRequest, conn *model.Connection, err error)
	ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type ConnectionStore interface {
	Exists(ctx context.Context, a, b int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Connection, error)
	Delete(ctx context.Context, a, b int64) error
}

type MessageStore interface {
	Append(ctx context.Context, msg *model.Message) (bool, error)
	GetByClientID(ctx context.Context, senderID int64, clientMsgID string) (*model.Message, error)
	ListBetween(ctx context.Context, a, b, afterSeq int64, limit int) ([]*model.Message, error)
}

type PostStore interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id int64) (*model.Post, error)
	List(ctx context.Context, limit, offset int) ([]*model.Post, error)
	CreateAnswer(ctx context.Context, answer *model.Answer) error
	GetAnswer(ctx context.Context, id int64) (*model.Answer, error)
	ListAnswers(ctx context.Context, postID int64) ([]*model.Answer, error)
	AcceptAnswer(ctx context.Context, postID, answerID int64) error
}

type GradeStore interface {
	UpsertBatch(ctx context.Context, grades []*model.Grade) error
	ListByStudent(ctx context.Context, studentID int64) ([]*model.Grade, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]*model.Grade, error)
}

type MoodStore interface {
	Create(ctx context.Context, entry *model.MoodEntry) error
	ListSince(ctx context.Context, userID int64, since time.Time) ([]*model.MoodEntry, error)
}

type GroupStore interface {
	Create(ctx context.Context, group *model.Group, memberIDs []int64) error
	GetByID(ctx context.Context, id int64) (*model.Group, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Group, error)
	AddMember(ctx context.Context, groupID, userID int64) error
	RemoveMember(ctx context.Context, groupID, userID int64) error
	ListMembers(ctx context.Context, groupID int64) ([]*model.GroupMember, error)
}

// Publisher доставляет событие во все сокеты пользователя
type Publisher interface {
	Publish(ctx context.Context, userID int64, event string, data any) error
}

// Presence отвечает, кто сейчас онлайн
type Presence interface {
	OnlineUsers(ctx context.Context, userIDs []int64) (map[int64]bool, error)
}

// Notifier отправляет уведомление вне приложения (Telegram)
type Notifier interface {
	Notify(ctx context.Context, user *model.User, text string) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, int64, string, any) error { return nil }

type nopPresence struct{}

func (nopPresence) OnlineUsers(context.Context, []int64) (map[int64]bool, error) {
	return map[int64]bool{}, nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, *model.User, string) error { return nil }
