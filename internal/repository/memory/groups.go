package memory

import (
	"context"
	"sort"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
)

type GroupRepository struct {
	db *DB
}

func NewGroupRepository(db *DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) groupLocked(g *model.Group) *model.Group {
	c := *g
	c.MemberCount = len(r.db.groupMembers[g.ID])
	return &c
}

func (r *GroupRepository) Create(ctx context.Context, group *model.Group, memberIDs []int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.now()
	group.ID = r.db.nextID()
	group.CreatedAt = now

	members := map[int64]*model.GroupMember{
		group.OwnerID: {GroupID: group.ID, UserID: group.OwnerID, Role: model.GroupRoleOwner, JoinedAt: now},
	}
	for _, id := range memberIDs {
		if _, ok := members[id]; ok {
			continue
		}
		members[id] = &model.GroupMember{GroupID: group.ID, UserID: id, Role: model.GroupRoleMember, JoinedAt: now}
	}

	group.MemberCount = len(members)
	stored := *group
	r.db.groups[group.ID] = &stored
	r.db.groupMembers[group.ID] = members
	return nil
}

func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	g, ok := r.db.groups[id]
	if !ok {
		return nil, nil
	}
	return r.groupLocked(g), nil
}

func (r *GroupRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Group, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []*model.Group{}
	for id, members := range r.db.groupMembers {
		if _, ok := members[userID]; ok {
			out = append(out, r.groupLocked(r.db.groups[id]))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	members, ok := r.db.groupMembers[groupID]
	if !ok {
		return errs.New(errs.KindNotFound, "group not found")
	}
	if _, ok := members[userID]; ok {
		return errs.New(errs.KindConflict, "user is already a member")
	}
	members[userID] = &model.GroupMember{
		GroupID:  groupID,
		UserID:   userID,
		Role:     model.GroupRoleMember,
		JoinedAt: r.db.now(),
	}
	return nil
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	members := r.db.groupMembers[groupID]
	if _, ok := members[userID]; !ok {
		return errs.New(errs.KindNotFound, "membership not found")
	}
	delete(members, userID)
	return nil
}

func (r *GroupRepository) ListMembers(ctx context.Context, groupID int64) ([]*model.GroupMember, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []*model.GroupMember{}
	for _, m := range r.db.groupMembers[groupID] {
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}
