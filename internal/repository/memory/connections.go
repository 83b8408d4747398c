package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
)

type FollowRequestRepository struct {
	db *DB
}

func NewFollowRequestRepository(db *DB) *FollowRequestRepository {
	return &FollowRequestRepository{db: db}
}

func copyRequest(r *model.FollowRequest) *model.FollowRequest {
	c := *r
	if r.UpdatedAt != nil {
		t := *r.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

func (r *FollowRequestRepository) Create(ctx context.Context, req *model.FollowRequest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	return r.createLocked(req)
}

func (r *FollowRequestRepository) createLocked(req *model.FollowRequest) error {
	if req.Status == model.RequestStatusPending && r.pendingLocked(req.FromUserID, req.ToUserID) != nil {
		return errs.New(errs.KindConflict, "follow request already pending")
	}

	req.ID = r.db.nextID()
	req.CreatedAt = r.db.now()
	r.db.followRequests[req.ID] = copyRequest(req)
	return nil
}

func (r *FollowRequestRepository) GetByID(ctx context.Context, id int64) (*model.FollowRequest, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	req, ok := r.db.followRequests[id]
	if !ok {
		return nil, nil
	}
	return copyRequest(req), nil
}

func (r *FollowRequestRepository) pendingLocked(fromID, toID int64) *model.FollowRequest {
	for _, req := range r.db.followRequests {
		if req.FromUserID == fromID && req.ToUserID == toID && req.IsPending() {
			return req
		}
	}
	return nil
}

func (r *FollowRequestRepository) ListPendingTo(ctx context.Context, userID int64) ([]*model.FollowRequest, error) {
	return r.list(func(req *model.FollowRequest) bool {
		return req.ToUserID == userID && req.IsPending()
	}), nil
}

func (r *FollowRequestRepository) ListPendingFrom(ctx context.Context, userID int64) ([]*model.FollowRequest, error) {
	return r.list(func(req *model.FollowRequest) bool {
		return req.FromUserID == userID && req.IsPending()
	}), nil
}

func (r *FollowRequestRepository) list(match func(*model.FollowRequest) bool) []*model.FollowRequest {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*model.FollowRequest
	for _, req := range r.db.followRequests {
		if match(req) {
			out = append(out, copyRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *FollowRequestRepository) UpdateStatus(ctx context.Context, id int64, from, to string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	req, err := r.transitionLocked(id, from)
	if err != nil {
		return err
	}
	now := r.db.now()
	req.Status = to
	req.UpdatedAt = &now
	return nil
}

func (r *FollowRequestRepository) Accept(ctx context.Context, id int64) (*model.Connection, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	req, err := r.transitionLocked(id, model.RequestStatusPending)
	if err != nil {
		return nil, err
	}
	return r.acceptLocked(req), nil
}

// Open создаёт заявку или принимает встречную; проверка и запись под одним локом
func (r *FollowRequestRepository) Open(ctx context.Context, req *model.FollowRequest) (*model.FollowRequest, *model.Connection, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.connections[pairOf(req.FromUserID, req.ToUserID)]; ok {
		return nil, nil, errs.New(errs.KindConflict, "already connected")
	}

	if reverse := r.pendingLocked(req.ToUserID, req.FromUserID); reverse != nil {
		conn := r.acceptLocked(reverse)
		return copyRequest(reverse), conn, nil
	}

	if err := r.createLocked(req); err != nil {
		return nil, nil, err
	}
	return nil, nil, nil
}

func (r *FollowRequestRepository) acceptLocked(req *model.FollowRequest) *model.Connection {
	now := r.db.now()
	req.Status = model.RequestStatusAccepted
	req.UpdatedAt = &now

	key := pairOf(req.FromUserID, req.ToUserID)
	conn, ok := r.db.connections[key]
	if !ok {
		reqID := req.ID
		conn = &model.Connection{
			ID:        r.db.nextID(),
			UserLo:    key.lo,
			UserHi:    key.hi,
			RequestID: &reqID,
			CreatedAt: now,
		}
		r.db.connections[key] = conn
	}

	c := *conn
	return &c
}

func (r *FollowRequestRepository) transitionLocked(id int64, from string) (*model.FollowRequest, error) {
	req, ok := r.db.followRequests[id]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "request not found")
	}
	if req.Status != from {
		return nil, errs.Newf(errs.KindConflict, "request is %s", req.Status)
	}
	return req, nil
}

func (r *FollowRequestRepository) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	now := r.db.now()
	for _, req := range r.db.followRequests {
		if req.IsPending() && req.CreatedAt.Before(cutoff) {
			req.Status = model.RequestStatusExpired
			req.UpdatedAt = &now
			n++
		}
	}
	return n, nil
}

type ConnectionRepository struct {
	db *DB
}

func NewConnectionRepository(db *DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

func (r *ConnectionRepository) Exists(ctx context.Context, a, b int64) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	_, ok := r.db.connections[pairOf(a, b)]
	return ok, nil
}

func (r *ConnectionRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Connection, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*model.Connection
	for key, conn := range r.db.connections {
		if key.lo == userID || key.hi == userID {
			c := *conn
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

func (r *ConnectionRepository) Delete(ctx context.Context, a, b int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := pairOf(a, b)
	if _, ok := r.db.connections[key]; !ok {
		return errs.New(errs.KindNotFound, "connection not found")
	}
	delete(r.db.connections, key)
	return nil
}
