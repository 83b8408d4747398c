package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Freeeeeet/wellness_hub/internal/model"
)

type GradeRepository struct {
	db *DB
}

func NewGradeRepository(db *DB) *GradeRepository {
	return &GradeRepository{db: db}
}

func copyGrade(g *model.Grade) *model.Grade {
	c := *g
	if g.UpdatedAt != nil {
		t := *g.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

func (r *GradeRepository) UpsertBatch(ctx context.Context, grades []*model.Grade) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.now()
	for _, g := range grades {
		key := gradeKey{studentID: g.StudentID, subject: g.Subject, term: g.Term}
		if stored, ok := r.db.grades[key]; ok {
			stored.Score = g.Score
			stored.TeacherID = g.TeacherID
			stored.UpdatedAt = &now
			g.ID = stored.ID
			g.CreatedAt = stored.CreatedAt
			g.UpdatedAt = stored.UpdatedAt
			continue
		}

		g.ID = r.db.nextID()
		g.CreatedAt = now
		g.UpdatedAt = nil
		r.db.grades[key] = copyGrade(g)
	}
	return nil
}

func (r *GradeRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.Grade, error) {
	return r.list(func(g *model.Grade) bool { return g.StudentID == studentID }), nil
}

func (r *GradeRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]*model.Grade, error) {
	return r.list(func(g *model.Grade) bool { return g.TeacherID == teacherID }), nil
}

func (r *GradeRepository) list(match func(*model.Grade) bool) []*model.Grade {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []*model.Grade{}
	for _, g := range r.db.grades {
		if match(g) {
			out = append(out, copyGrade(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Term != out[j].Term {
			return out[i].Term < out[j].Term
		}
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out
}

type MoodRepository struct {
	db *DB
}

func NewMoodRepository(db *DB) *MoodRepository {
	return &MoodRepository{db: db}
}

func (r *MoodRepository) Create(ctx context.Context, entry *model.MoodEntry) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	entry.ID = r.db.nextID()
	entry.CreatedAt = r.db.now()
	stored := *entry
	r.db.moods[entry.ID] = &stored
	return nil
}

func (r *MoodRepository) ListSince(ctx context.Context, userID int64, since time.Time) ([]*model.MoodEntry, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []*model.MoodEntry{}
	for _, e := range r.db.moods {
		if e.UserID == userID && !e.CreatedAt.Before(since) {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
