package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
)

func newUser(t *testing.T, s *Stores, email, name string) *model.User {
	t.Helper()
	u := &model.User{Email: email, DisplayName: name, Role: model.RoleStudent}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func TestUsersUniqueEmail(t *testing.T) {
	s := NewStores(NewDB())
	newUser(t, s, "a@x.io", "A")

	err := s.Users.Create(context.Background(), &model.User{Email: "a@x.io"})
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestListExceptOrdersByName(t *testing.T) {
	s := NewStores(NewDB())
	c := newUser(t, s, "c@x.io", "Carol")
	a := newUser(t, s, "a@x.io", "Alice")
	b := newUser(t, s, "b@x.io", "Bob")

	users, err := s.Users.ListExcept(context.Background(), []int64{b.ID}, 10)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, a.ID, users[0].ID)
	assert.Equal(t, c.ID, users[1].ID)
}

func TestFollowRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStores(NewDB())
	a := newUser(t, s, "a@x.io", "A")
	b := newUser(t, s, "b@x.io", "B")

	req := &model.FollowRequest{FromUserID: a.ID, ToUserID: b.ID, Status: model.RequestStatusPending}
	require.NoError(t, s.FollowRequests.Create(ctx, req))

	dup := &model.FollowRequest{FromUserID: a.ID, ToUserID: b.ID, Status: model.RequestStatusPending}
	assert.ErrorIs(t, s.FollowRequests.Create(ctx, dup), errs.ErrConflict)

	conn, err := s.FollowRequests.Accept(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, conn.UserLo)
	assert.Equal(t, b.ID, conn.UserHi)

	_, err = s.FollowRequests.Accept(ctx, req.ID)
	assert.ErrorIs(t, err, errs.ErrConflict)

	ok, err := s.Connections.Exists(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Connections.Delete(ctx, b.ID, a.ID))
	assert.ErrorIs(t, s.Connections.Delete(ctx, a.ID, b.ID), errs.ErrNotFound)
}

func TestExpireBefore(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	s := NewStores(db)
	a := newUser(t, s, "a@x.io", "A")
	b := newUser(t, s, "b@x.io", "B")

	old := time.Now().Add(-10 * 24 * time.Hour)
	db.Now = func() time.Time { return old }
	stale := &model.FollowRequest{FromUserID: a.ID, ToUserID: b.ID, Status: model.RequestStatusPending}
	require.NoError(t, s.FollowRequests.Create(ctx, stale))
	db.Now = time.Now

	fresh := &model.FollowRequest{FromUserID: b.ID, ToUserID: a.ID, Status: model.RequestStatusPending}
	require.NoError(t, s.FollowRequests.Create(ctx, fresh))

	n, err := s.FollowRequests.ExpireBefore(ctx, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := s.FollowRequests.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusExpired, got.Status)
}

func TestMessageAppendIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStores(NewDB())

	first := &model.Message{SenderID: 1, ReceiverID: 2, ClientMsgID: "c1", Text: "hi"}
	created, err := s.Messages.Append(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.EqualValues(t, 1, first.Seq)

	retry := &model.Message{SenderID: 1, ReceiverID: 2, ClientMsgID: "c1", Text: "hi"}
	created, err = s.Messages.Append(ctx, retry)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, retry.ID)

	reply := &model.Message{SenderID: 2, ReceiverID: 1, ClientMsgID: "c1", Text: "hey"}
	_, err = s.Messages.Append(ctx, reply)
	require.NoError(t, err)
	assert.EqualValues(t, 2, reply.Seq)
	assert.Equal(t, first.ConversationID, reply.ConversationID)

	history, err := s.Messages.ListBetween(ctx, 2, 1, 0, 50)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[0].ID)

	after, err := s.Messages.ListBetween(ctx, 1, 2, 1, 50)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, reply.ID, after[0].ID)
}

func TestOpenAcceptsReverseRequest(t *testing.T) {
	ctx := context.Background()
	s := NewStores(NewDB())
	a := newUser(t, s, "a@x.io", "A")
	b := newUser(t, s, "b@x.io", "B")

	first := &model.FollowRequest{FromUserID: a.ID, ToUserID: b.ID, Status: model.RequestStatusPending}
	accepted, conn, err := s.FollowRequests.Open(ctx, first)
	require.NoError(t, err)
	assert.Nil(t, accepted)
	assert.Nil(t, conn)
	assert.NotZero(t, first.ID)

	back := &model.FollowRequest{FromUserID: b.ID, ToUserID: a.ID, Status: model.RequestStatusPending}
	accepted, conn, err = s.FollowRequests.Open(ctx, back)
	require.NoError(t, err)
	require.NotNil(t, accepted)
	assert.Equal(t, first.ID, accepted.ID)
	assert.Equal(t, model.RequestStatusAccepted, accepted.Status)
	require.NotNil(t, conn)
	assert.Zero(t, back.ID)

	_, _, err = s.FollowRequests.Open(ctx, &model.FollowRequest{FromUserID: a.ID, ToUserID: b.ID, Status: model.RequestStatusPending})
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestAcceptAnswerCreditsAuthorOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStores(NewDB())
	asker := newUser(t, s, "a@x.io", "A")
	helper := newUser(t, s, "b@x.io", "B")

	post := &model.Post{AuthorID: asker.ID, Title: "t", Body: "b", CreditPoints: 7}
	require.NoError(t, s.Posts.Create(ctx, post))
	ans1 := &model.Answer{PostID: post.ID, AuthorID: helper.ID, Body: "one"}
	ans2 := &model.Answer{PostID: post.ID, AuthorID: helper.ID, Body: "two"}
	require.NoError(t, s.Posts.CreateAnswer(ctx, ans1))
	require.NoError(t, s.Posts.CreateAnswer(ctx, ans2))

	require.NoError(t, s.Posts.AcceptAnswer(ctx, post.ID, ans2.ID))
	assert.ErrorIs(t, s.Posts.AcceptAnswer(ctx, post.ID, ans1.ID), errs.ErrConflict)

	u, err := s.Users.GetByID(ctx, helper.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, u.Credits)

	answers, err := s.Posts.ListAnswers(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, ans2.ID, answers[0].ID)
	assert.True(t, answers[0].IsAccepted)

	got, err := s.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AnswerCount)
}

func TestGradeUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewStores(NewDB())

	require.NoError(t, s.Grades.UpsertBatch(ctx, []*model.Grade{
		{StudentID: 1, TeacherID: 9, Subject: "math", Term: "2024-1", Score: 60},
	}))
	require.NoError(t, s.Grades.UpsertBatch(ctx, []*model.Grade{
		{StudentID: 1, TeacherID: 9, Subject: "math", Term: "2024-1", Score: 85},
	}))

	grades, err := s.Grades.ListByStudent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, 85.0, grades[0].Score)
	assert.NotNil(t, grades[0].UpdatedAt)
}

func TestGroupMembership(t *testing.T) {
	ctx := context.Background()
	s := NewStores(NewDB())

	g := &model.Group{Name: "study", OwnerID: 1}
	require.NoError(t, s.Groups.Create(ctx, g, []int64{2, 2, 3}))
	assert.Equal(t, 3, g.MemberCount)

	assert.ErrorIs(t, s.Groups.AddMember(ctx, g.ID, 2), errs.ErrConflict)
	require.NoError(t, s.Groups.RemoveMember(ctx, g.ID, 3))

	groups, err := s.Groups.ListByUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].MemberCount)

	members, err := s.Groups.ListMembers(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
}
