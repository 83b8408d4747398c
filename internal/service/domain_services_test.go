package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
)

func score(v float64) *float64 { return &v }

func TestCommunityAcceptAnswer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann", model.RoleStudent)
	bob := f.user(t, "bob", model.RoleTeacher)
	eve := f.user(t, "eve", model.RoleStudent)

	post, err := f.community.CreatePost(ctx, ann.ID, PostInput{Title: "Calculus?", Body: "help", CreditPoints: 10})
	require.NoError(t, err)

	own, err := f.community.Answer(ctx, ann.ID, post.ID, AnswerInput{Body: "self answer"})
	require.NoError(t, err)
	good, err := f.community.Answer(ctx, bob.ID, post.ID, AnswerInput{Body: "use limits"})
	require.NoError(t, err)

	_, err = f.community.AcceptAnswer(ctx, eve.ID, good.ID)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.community.AcceptAnswer(ctx, ann.ID, own.ID)
	assert.ErrorIs(t, err, errs.ErrValidation)

	accepted, err := f.community.AcceptAnswer(ctx, ann.ID, good.ID)
	require.NoError(t, err)
	assert.True(t, accepted.IsAccepted)

	_, err = f.community.AcceptAnswer(ctx, ann.ID, good.ID)
	assert.ErrorIs(t, err, errs.ErrConflict)

	credited, err := f.users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, credited.Credits)

	details, err := f.community.GetPost(ctx, eve.ID, post.ID)
	require.NoError(t, err)
	require.Len(t, details.Answers, 2)
	assert.Equal(t, good.ID, details.Answers[0].ID)
	assert.Equal(t, 2, details.AnswerCount)
}

func TestCommunityValidationAndAnonymity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann", model.RoleStudent)
	bob := f.user(t, "bob", model.RoleStudent)

	_, err := f.community.CreatePost(ctx, ann.ID, PostInput{Title: "t", Body: "b", CreditPoints: 101})
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = f.community.CreatePost(ctx, ann.ID, PostInput{Title: " ", Body: "b"})
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = f.community.Answer(ctx, bob.ID, 999, AnswerInput{Body: "x"})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	anon := true
	_, err = f.users.UpdateProfile(ctx, ann.ID, ProfileInput{Anonymous: &anon})
	require.NoError(t, err)

	_, err = f.community.CreatePost(ctx, ann.ID, PostInput{Title: "private", Body: "q"})
	require.NoError(t, err)

	feed, err := f.community.ListPosts(ctx, bob.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "Anonymous Student", feed[0].Author.DisplayName)

	_, err = f.community.ListPosts(ctx, bob.ID, 10, -1)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestUploadGrades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teacher := f.user(t, "tina", model.RoleTeacher)
	ann := f.user(t, "ann", model.RoleStudent)
	other := f.user(t, "oleg", model.RoleOther)

	_, err := f.grades.Upload(ctx, ann, UploadGradesInput{Grades: []GradeInput{
		{StudentID: ann.ID, Subject: "math", Term: "T1", Score: score(90)},
	}})
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.grades.Upload(ctx, teacher, UploadGradesInput{})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.grades.Upload(ctx, teacher, UploadGradesInput{Grades: []GradeInput{
		{StudentID: ann.ID, Subject: "math", Term: "T1", Score: score(101)},
	}})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.grades.Upload(ctx, teacher, UploadGradesInput{Grades: []GradeInput{
		{StudentID: ann.ID, Subject: "math", Term: "T1", Score: score(80)},
		{StudentID: other.ID, Subject: "math", Term: "T1", Score: score(80)},
	}})
	assert.ErrorIs(t, err, errs.ErrValidation)

	mine, err := f.grades.StudentGrades(ctx, ann.ID)
	require.NoError(t, err)
	assert.Empty(t, mine.Grades, "failed batch must not write anything")

	_, err = f.grades.Upload(ctx, teacher, UploadGradesInput{Grades: []GradeInput{
		{StudentID: ann.ID, Subject: "math", Term: "T1", Score: score(0)},
		{StudentID: ann.ID, Subject: "art", Term: "T1", Score: score(75)},
		{StudentID: ann.ID, Subject: "math", Term: "T2", Score: score(90)},
	}})
	require.NoError(t, err)

	_, err = f.grades.Upload(ctx, teacher, UploadGradesInput{Grades: []GradeInput{
		{StudentID: ann.ID, Subject: "math", Term: "T1", Score: score(70)},
	}})
	require.NoError(t, err)

	mine, err = f.grades.StudentGrades(ctx, ann.ID)
	require.NoError(t, err)
	require.Len(t, mine.Grades, 3)
	require.Len(t, mine.Summary, 2)
	assert.Equal(t, model.TermSummary{Term: "T1", Count: 2, Average: 72.5}, mine.Summary[0])
	assert.Equal(t, model.TermSummary{Term: "T2", Count: 1, Average: 90}, mine.Summary[1])

	uploaded, err := f.grades.TeacherGrades(ctx, teacher)
	require.NoError(t, err)
	assert.Len(t, uploaded, 3)

	_, err = f.grades.TeacherGrades(ctx, ann)
	assert.ErrorIs(t, err, errs.ErrForbidden)
}

func TestUploadGradesRowLimit(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(t, "tina", model.RoleTeacher)

	rows := make([]GradeInput, 501)
	for i := range rows {
		rows[i] = GradeInput{StudentID: 1, Subject: "s", Term: "t", Score: score(1)}
	}
	_, err := f.grades.Upload(context.Background(), teacher, UploadGradesInput{Grades: rows})
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Contains(t, errs.Message(err), "at most 500")
}

func TestMoodHistoryAndStreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann", model.RoleStudent)

	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	f.wellness.now = func() time.Time { return now }

	logAt := func(at time.Time, mood string) {
		f.db.Now = func() time.Time { return at }
		_, err := f.wellness.LogMood(ctx, ann.ID, MoodInput{Mood: mood})
		require.NoError(t, err)
	}
	logAt(now.AddDate(0, 0, -5), model.MoodBad)
	logAt(now.AddDate(0, 0, -2), model.MoodOkay)
	logAt(now.AddDate(0, 0, -1), model.MoodGood)
	logAt(now.Add(-time.Hour), model.MoodGreat)
	logAt(now, model.MoodLow)

	hist, err := f.wellness.History(ctx, ann.ID, 0)
	require.NoError(t, err)
	require.Len(t, hist.Entries, 5)
	assert.Equal(t, model.MoodLow, hist.Entries[0].Mood)
	assert.Equal(t, 5, hist.Summary.Count)
	assert.Equal(t, 3.0, hist.Summary.Average)
	assert.Equal(t, 3, hist.Summary.StreakDays)

	short, err := f.wellness.History(ctx, ann.ID, 2)
	require.NoError(t, err)
	assert.Len(t, short.Entries, 3)

	_, err = f.wellness.History(ctx, ann.ID, 366)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestLogMoodValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.wellness.LogMood(ctx, 1, MoodInput{Mood: "ecstatic"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	long := make([]rune, 501)
	for i := range long {
		long[i] = 'n'
	}
	_, err = f.wellness.LogMood(ctx, 1, MoodInput{Mood: "good", Note: string(long)})
	assert.ErrorIs(t, err, errs.ErrValidation)

	entry, err := f.wellness.LogMood(ctx, 1, MoodInput{Mood: " Great "})
	require.NoError(t, err)
	assert.Equal(t, 5, entry.Score)
}

func TestMoodStreakZeroWithoutToday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	f.wellness.now = func() time.Time { return now }
	f.db.Now = func() time.Time { return now.AddDate(0, 0, -1) }

	_, err := f.wellness.LogMood(ctx, 1, MoodInput{Mood: "good"})
	require.NoError(t, err)

	hist, err := f.wellness.History(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, hist.Summary.Count)
	assert.Equal(t, 0, hist.Summary.StreakDays)
}

func TestGroups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann", model.RoleStudent)
	bob := f.user(t, "bob", model.RoleStudent)
	cat := f.user(t, "cat", model.RoleStudent)
	eve := f.user(t, "eve", model.RoleStudent)
	f.connect(t, ann, bob)
	f.connect(t, cat, ann)

	_, err := f.groups.Create(ctx, ann.ID, GroupInput{Name: "study", MemberIDs: []int64{bob.ID, eve.ID}})
	assert.ErrorIs(t, err, errs.ErrValidation)

	g, err := f.groups.Create(ctx, ann.ID, GroupInput{Name: " study ", MemberIDs: []int64{bob.ID, bob.ID, ann.ID}})
	require.NoError(t, err)
	assert.Equal(t, "study", g.Name)
	assert.Equal(t, 2, g.MemberCount)

	assert.ErrorIs(t, f.groups.AddMember(ctx, bob.ID, g.ID, cat.ID), errs.ErrForbidden)
	assert.ErrorIs(t, f.groups.AddMember(ctx, ann.ID, g.ID, eve.ID), errs.ErrValidation)
	require.NoError(t, f.groups.AddMember(ctx, ann.ID, g.ID, cat.ID))
	assert.ErrorIs(t, f.groups.AddMember(ctx, ann.ID, g.ID, cat.ID), errs.ErrConflict)

	members, err := f.groups.Members(ctx, cat.ID, g.ID)
	require.NoError(t, err)
	assert.Len(t, members, 3)
	_, err = f.groups.Members(ctx, eve.ID, g.ID)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	assert.ErrorIs(t, f.groups.Leave(ctx, ann.ID, g.ID), errs.ErrValidation)
	require.NoError(t, f.groups.Leave(ctx, bob.ID, g.ID))
	assert.ErrorIs(t, f.groups.Leave(ctx, bob.ID, g.ID), errs.ErrNotFound)

	list, err := f.groups.List(ctx, ann.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].MemberCount)

	_, err = f.groups.Members(ctx, ann.ID, 999)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
