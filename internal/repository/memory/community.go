package memory

import (
	"context"
	"sort"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
)

type PostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

// postLocked копирует вопрос и досчитывает число ответов; вызывать под mu
func (r *PostRepository) postLocked(p *model.Post) *model.Post {
	c := *p
	if p.AcceptedAnswerID != nil {
		id := *p.AcceptedAnswerID
		c.AcceptedAnswerID = &id
	}
	c.AnswerCount = 0
	for _, a := range r.db.answers {
		if a.PostID == p.ID {
			c.AnswerCount++
		}
	}
	return &c
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	post.ID = r.db.nextID()
	post.CreatedAt = r.db.now()
	post.AcceptedAnswerID = nil
	stored := *post
	r.db.posts[post.ID] = &stored
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.posts[id]
	if !ok {
		return nil, nil
	}
	return r.postLocked(p), nil
}

func (r *PostRepository) List(ctx context.Context, limit, offset int) ([]*model.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	all := make([]*model.Post, 0, len(r.db.posts))
	for _, p := range r.db.posts {
		all = append(all, r.postLocked(p))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if offset >= len(all) {
		return []*model.Post{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *PostRepository) CreateAnswer(ctx context.Context, answer *model.Answer) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.posts[answer.PostID]; !ok {
		return errs.New(errs.KindNotFound, "post not found")
	}

	answer.ID = r.db.nextID()
	answer.CreatedAt = r.db.now()
	answer.IsAccepted = false
	stored := *answer
	r.db.answers[answer.ID] = &stored
	return nil
}

func (r *PostRepository) GetAnswer(ctx context.Context, id int64) (*model.Answer, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	a, ok := r.db.answers[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (r *PostRepository) ListAnswers(ctx context.Context, postID int64) ([]*model.Answer, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []*model.Answer{}
	for _, a := range r.db.answers {
		if a.PostID == postID {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsAccepted != out[j].IsAccepted {
			return out[i].IsAccepted
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *PostRepository) AcceptAnswer(ctx context.Context, postID, answerID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	post, ok := r.db.posts[postID]
	if !ok || post.AcceptedAnswerID != nil {
		return errs.New(errs.KindConflict, "post already has an accepted answer")
	}
	answer, ok := r.db.answers[answerID]
	if !ok || answer.PostID != postID {
		return errs.New(errs.KindNotFound, "answer not found")
	}

	id := answerID
	post.AcceptedAnswerID = &id
	answer.IsAccepted = true
	if author, ok := r.db.users[answer.AuthorID]; ok {
		author.Credits += post.CreditPoints
	}
	return nil
}
