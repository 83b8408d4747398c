package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
)

func TestSendRequiresConnection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann", model.RoleStudent)
	bob := f.user(t, "bob", model.RoleStudent)

	_, err := f.chat.Send(ctx, ann.ID, SendInput{ReceiverID: bob.ID, Text: "hi"})
	assert.ErrorIs(t, err, errs.ErrForbidden)

	f.connect(t, ann, bob)

	msg, err := f.chat.Send(ctx, ann.ID, SendInput{ReceiverID: bob.ID, Text: "  hi  "})
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Text)
	assert.NotEmpty(t, msg.ClientMsgID)
	assert.EqualValues(t, 1, msg.Seq)

	assert.Len(t, f.publisher.to(bob.ID, model.EventReceiveMessage), 1)
	assert.Len(t, f.publisher.to(ann.ID, model.EventReceiveMessage), 1)
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann", model.RoleStudent)
	bob := f.user(t, "bob", model.RoleStudent)
	f.connect(t, ann, bob)

	_, err := f.chat.Send(ctx, ann.ID, SendInput{ReceiverID: bob.ID, Text: "   "})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.chat.Send(ctx, ann.ID, SendInput{ReceiverID: bob.ID, Text: strings.Repeat("я", 4001)})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.chat.Send(ctx, ann.ID, SendInput{ReceiverID: bob.ID, Text: strings.Repeat("я", 4000)})
	assert.NoError(t, err)

	_, err = f.chat.Send(ctx, ann.ID, SendInput{ReceiverID: ann.ID, Text: "me"})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestSendIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann", model.RoleStudent)
	bob := f.user(t, "bob", model.RoleStudent)
	f.connect(t, ann, bob)

	in := SendInput{ReceiverID: bob.ID, Text: "once", ClientMsgID: "c-1"}
	first, err := f.chat.Send(ctx, ann.ID, in)
	require.NoError(t, err)
	second, err := f.chat.Send(ctx, ann.ID, in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.publisher.to(bob.ID, model.EventReceiveMessage), 1)

	history, err := f.chat.History(ctx, bob.ID, ann.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSendRateLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann", model.RoleStudent)
	bob := f.user(t, "bob", model.RoleStudent)
	f.connect(t, ann, bob)
	f.chat.limiter = NewSendLimiter(0.001, 2)

	for i := 0; i < 2; i++ {
		_, err := f.chat.Send(ctx, ann.ID, SendInput{ReceiverID: bob.ID, Text: "x"})
		require.NoError(t, err)
	}
	_, err := f.chat.Send(ctx, ann.ID, SendInput{ReceiverID: bob.ID, Text: "x"})
	assert.ErrorIs(t, err, errs.ErrRateLimited)
	assert.True(t, errs.IsTransient(err))

	// лимит у каждого свой
	_, err = f.chat.Send(ctx, bob.ID, SendInput{ReceiverID: ann.ID, Text: "x"})
	assert.NoError(t, err)
}

func TestResendSkipsRateLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann", model.RoleStudent)
	bob := f.user(t, "bob", model.RoleStudent)
	f.connect(t, ann, bob)
	f.chat.limiter = NewSendLimiter(0.001, 1)

	in := SendInput{ReceiverID: bob.ID, Text: "once", ClientMsgID: "c-retry"}
	first, err := f.chat.Send(ctx, ann.ID, in)
	require.NoError(t, err)

	// лимит исчерпан, но повтор той же отправки возвращает сохранённое сообщение
	for i := 0; i < 3; i++ {
		again, err := f.chat.Send(ctx, ann.ID, in)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	}

	_, err = f.chat.Send(ctx, ann.ID, SendInput{ReceiverID: bob.ID, Text: "new", ClientMsgID: "c-new"})
	assert.ErrorIs(t, err, errs.ErrRateLimited)
	assert.Len(t, f.publisher.to(bob.ID, model.EventReceiveMessage), 1)
}

func TestHistoryAfterSeq(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann", model.RoleStudent)
	bob := f.user(t, "bob", model.RoleStudent)
	eve := f.user(t, "eve", model.RoleStudent)
	f.connect(t, ann, bob)

	for _, text := range []string{"a", "b", "c"} {
		_, err := f.chat.Send(ctx, ann.ID, SendInput{ReceiverID: bob.ID, Text: text})
		require.NoError(t, err)
	}

	tail, err := f.chat.History(ctx, bob.ID, ann.ID, 1, 0)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "b", tail[0].Text)
	assert.EqualValues(t, 3, tail[1].Seq)

	_, err = f.chat.History(ctx, eve.ID, ann.ID, 0, 0)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.chat.History(ctx, ann.ID, bob.ID, -1, 0)
	assert.ErrorIs(t, err, errs.ErrValidation)
}
