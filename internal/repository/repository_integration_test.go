//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
	"github.com/Freeeeeet/wellness_hub/internal/repository/base"
	"github.com/Freeeeeet/wellness_hub/internal/testinfra"
)

func newDB(t *testing.T) *base.Repository {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, testinfra.StartPostgres(t))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, goose.SetDialect("postgres"))
	sqlDB := stdlib.OpenDBFromPool(pool)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, goose.UpContext(ctx, sqlDB, "../../migrations"))

	return base.NewRepository(pool)
}

func createUser(t *testing.T, repo *UserRepository, email, role string) *model.User {
	t.Helper()
	u := &model.User{
		AnonID:       email + "-anon",
		Email:        email,
		PasswordHash: "x",
		DisplayName:  email,
		Role:         role,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestPostgresRepositories(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	users := NewUserRepository(db)
	requests := NewFollowRequestRepository(db)
	conns := NewConnectionRepository(db)
	messages := NewMessageRepository(db)
	posts := NewPostRepository(db)
	grades := NewGradeRepository(db)
	groups := NewGroupRepository(db)

	ann := createUser(t, users, "ann@campus.test", model.RoleStudent)
	bob := createUser(t, users, "bob@campus.test", model.RoleTeacher)

	t.Run("users", func(t *testing.T) {
		dup := &model.User{AnonID: "z", Email: ann.Email, PasswordHash: "x", DisplayName: "x", Role: model.RoleStudent}
		assert.ErrorIs(t, users.Create(ctx, dup), errs.ErrConflict)

		got, err := users.GetByEmail(ctx, "ann@campus.test")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, ann.ID, got.ID)

		missing, err := users.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("follow and accept", func(t *testing.T) {
		req := &model.FollowRequest{FromUserID: ann.ID, ToUserID: bob.ID, Status: model.RequestStatusPending}
		require.NoError(t, requests.Create(ctx, req))

		again := &model.FollowRequest{FromUserID: ann.ID, ToUserID: bob.ID, Status: model.RequestStatusPending}
		assert.ErrorIs(t, requests.Create(ctx, again), errs.ErrConflict)

		conn, err := requests.Accept(ctx, req.ID)
		require.NoError(t, err)
		lo, hi := model.PairKey(ann.ID, bob.ID)
		assert.Equal(t, lo, conn.UserLo)
		assert.Equal(t, hi, conn.UserHi)

		_, err = requests.Accept(ctx, req.ID)
		assert.ErrorIs(t, err, errs.ErrConflict)

		ok, err := conns.Exists(ctx, bob.ID, ann.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("messages", func(t *testing.T) {
		first := &model.Message{SenderID: ann.ID, ReceiverID: bob.ID, ClientMsgID: "c1", Text: "hi"}
		created, err := messages.Append(ctx, first)
		require.NoError(t, err)
		assert.True(t, created)
		assert.EqualValues(t, 1, first.Seq)

		retry := &model.Message{SenderID: ann.ID, ReceiverID: bob.ID, ClientMsgID: "c1", Text: "hi"}
		created, err = messages.Append(ctx, retry)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, retry.ID)

		reply := &model.Message{SenderID: bob.ID, ReceiverID: ann.ID, ClientMsgID: "c1", Text: "hey"}
		_, err = messages.Append(ctx, reply)
		require.NoError(t, err)
		assert.EqualValues(t, 2, reply.Seq)

		history, err := messages.ListBetween(ctx, bob.ID, ann.ID, 1, 50)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "hey", history[0].Text)
	})

	t.Run("accept answer credits author once", func(t *testing.T) {
		post := &model.Post{AuthorID: ann.ID, Title: "q", Body: "b", CreditPoints: 7}
		require.NoError(t, posts.Create(ctx, post))
		answer := &model.Answer{PostID: post.ID, AuthorID: bob.ID, Body: "a"}
		require.NoError(t, posts.CreateAnswer(ctx, answer))

		require.NoError(t, posts.AcceptAnswer(ctx, post.ID, answer.ID))
		assert.ErrorIs(t, posts.AcceptAnswer(ctx, post.ID, answer.ID), errs.ErrConflict)

		credited, err := users.GetByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, credited.Credits)

		got, err := posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.AnswerCount)
		require.NotNil(t, got.AcceptedAnswerID)
	})

	t.Run("grades upsert", func(t *testing.T) {
		batch := []*model.Grade{
			{StudentID: ann.ID, TeacherID: bob.ID, Subject: "math", Term: "T1", Score: 60},
			{StudentID: ann.ID, TeacherID: bob.ID, Subject: "art", Term: "T1", Score: 80},
		}
		require.NoError(t, grades.UpsertBatch(ctx, batch))
		require.NoError(t, grades.UpsertBatch(ctx, []*model.Grade{
			{StudentID: ann.ID, TeacherID: bob.ID, Subject: "math", Term: "T1", Score: 95},
		}))

		list, err := grades.ListByStudent(ctx, ann.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		for _, g := range list {
			if g.Subject == "math" {
				assert.Equal(t, 95.0, g.Score)
			}
		}
	})

	t.Run("groups", func(t *testing.T) {
		g := &model.Group{Name: "study", OwnerID: ann.ID}
		require.NoError(t, groups.Create(ctx, g, []int64{bob.ID, bob.ID}))
		assert.Equal(t, 2, g.MemberCount)

		assert.ErrorIs(t, groups.AddMember(ctx, g.ID, bob.ID), errs.ErrConflict)
		require.NoError(t, groups.RemoveMember(ctx, g.ID, bob.ID))
		assert.ErrorIs(t, groups.RemoveMember(ctx, g.ID, bob.ID), errs.ErrNotFound)
	})

	t.Run("open accepts reverse request", func(t *testing.T) {
		dan := createUser(t, users, "dan@campus.test", model.RoleStudent)
		eve := createUser(t, users, "eve@campus.test", model.RoleStudent)

		first := &model.FollowRequest{FromUserID: dan.ID, ToUserID: eve.ID, Status: model.RequestStatusPending}
		accepted, conn, err := requests.Open(ctx, first)
		require.NoError(t, err)
		assert.Nil(t, accepted)
		assert.Nil(t, conn)
		assert.NotZero(t, first.ID)

		back := &model.FollowRequest{FromUserID: eve.ID, ToUserID: dan.ID, Status: model.RequestStatusPending}
		accepted, conn, err = requests.Open(ctx, back)
		require.NoError(t, err)
		require.NotNil(t, accepted)
		assert.Equal(t, first.ID, accepted.ID)
		assert.Equal(t, model.RequestStatusAccepted, accepted.Status)
		require.NotNil(t, conn)
		assert.Zero(t, back.ID)

		_, _, err = requests.Open(ctx, &model.FollowRequest{FromUserID: dan.ID, ToUserID: eve.ID, Status: model.RequestStatusPending})
		assert.ErrorIs(t, err, errs.ErrConflict)
	})

	t.Run("expire", func(t *testing.T) {
		cat := createUser(t, users, "cat@campus.test", model.RoleStudent)
		req := &model.FollowRequest{FromUserID: cat.ID, ToUserID: ann.ID, Status: model.RequestStatusPending}
		require.NoError(t, requests.Create(ctx, req))

		n, err := requests.ExpireBefore(ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		got, err := requests.GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RequestStatusExpired, got.Status)
	})
}
