package memory

import (
	"context"
	"sort"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func copyUser(u *model.User) *model.User {
	c := *u
	if u.TelegramChatID != nil {
		id := *u.TelegramChatID
		c.TelegramChatID = &id
	}
	if u.UpdatedAt != nil {
		t := *u.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

func sortUsers(users []*model.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].DisplayName != users[j].DisplayName {
			return users[i].DisplayName < users[j].DisplayName
		}
		return users[i].ID < users[j].ID
	})
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Email == user.Email {
			return errs.New(errs.KindConflict, "email already registered")
		}
	}

	user.ID = r.db.nextID()
	user.CreatedAt = r.db.now()
	r.db.users[user.ID] = copyUser(user)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	users := []*model.User{}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, ok := r.db.users[id]; ok {
			users = append(users, copyUser(u))
		}
	}
	sortUsers(users)
	return users, nil
}

func (r *UserRepository) ListExcept(ctx context.Context, exclude []int64, limit int) ([]*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	skip := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	users := []*model.User{}
	for id, u := range r.db.users {
		if !skip[id] {
			users = append(users, copyUser(u))
		}
	}
	sortUsers(users)
	if limit >= 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.users[user.ID]
	if !ok {
		return errs.New(errs.KindNotFound, "user not found")
	}

	now := r.db.now()
	user.UpdatedAt = &now

	stored.DisplayName = user.DisplayName
	stored.Bio = user.Bio
	stored.Anonymous = user.Anonymous
	stored.TelegramChatID = copyUser(user).TelegramChatID
	stored.UpdatedAt = &now
	return nil
}
