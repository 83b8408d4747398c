package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
)

type GroupInput struct {
	Name      string  `json:"name" validate:"required,max=80"`
	MemberIDs []int64 `json:"member_ids" validate:"max=100,dive,gt=0"`
}

type GroupMemberView struct {
	User     model.UserView `json:"user"`
	Role     string         `json:"role"`
	JoinedAt time.Time      `json:"joined_at"`
}

type GroupService struct {
	groupRepo      GroupStore
	connectionRepo ConnectionStore
	userRepo       UserStore
	logger         *zap.Logger
}

func NewGroupService(groupRepo GroupStore, connectionRepo ConnectionStore, userRepo UserStore, logger *zap.Logger) *GroupService {
	return &GroupService{
		groupRepo:      groupRepo,
		connectionRepo: connectionRepo,
		userRepo:       userRepo,
		logger:         logger,
	}
}

// Create создаёт группу; участниками могут быть только связи создателя
func (s *GroupService) Create(ctx context.Context, ownerID int64, in GroupInput) (*model.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	members := make([]int64, 0, len(in.MemberIDs))
	seen := map[int64]bool{ownerID: true}
	for _, id := range in.MemberIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := s.requireConnection(ctx, ownerID, id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}

	group := &model.Group{Name: in.Name, OwnerID: ownerID}
	if err := s.groupRepo.Create(ctx, group, members); err != nil {
		return nil, err
	}

	s.logger.Info("Group created",
		zap.Int64("group_id", group.ID),
		zap.Int64("owner_id", ownerID),
		zap.Int("members", group.MemberCount),
	)
	return group, nil
}

// List получает группы пользователя
func (s *GroupService) List(ctx context.Context, userID int64) ([]*model.Group, error) {
	return s.groupRepo.ListByUser(ctx, userID)
}

// Members получает участников; смотреть могут только участники
func (s *GroupService) Members(ctx context.Context, viewerID, groupID int64) ([]GroupMemberView, error) {
	if _, err := s.getGroup(ctx, groupID); err != nil {
		return nil, err
	}

	members, err := s.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	isMember := false
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
		if m.UserID == viewerID {
			isMember = true
		}
	}
	if !isMember {
		return nil, errs.New(errs.KindForbidden, "not a member of this group")
	}

	people, err := views(ctx, s.userRepo, viewerID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]GroupMemberView, 0, len(members))
	for _, m := range members {
		out = append(out, GroupMemberView{
			User:     people[m.UserID],
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}
	return out, nil
}

// AddMember добавляет участника; только владелец
func (s *GroupService) AddMember(ctx context.Context, ownerID, groupID, userID int64) error {
	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID != ownerID {
		return errs.New(errs.KindForbidden, "only the group owner can add members")
	}
	if userID == ownerID {
		return errs.New(errs.KindConflict, "user is already a member")
	}
	if err := s.requireConnection(ctx, ownerID, userID); err != nil {
		return err
	}

	if err := s.groupRepo.AddMember(ctx, groupID, userID); err != nil {
		return err
	}

	s.logger.Info("Group member added",
		zap.Int64("group_id", groupID),
		zap.Int64("user_id", userID),
	)
	return nil
}

// Leave выходит из группы; владелец выйти не может
func (s *GroupService) Leave(ctx context.Context, userID, groupID int64) error {
	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID == userID {
		return errs.New(errs.KindValidation, "the owner cannot leave the group")
	}

	if err := s.groupRepo.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}

	s.logger.Info("Group member left",
		zap.Int64("group_id", groupID),
		zap.Int64("user_id", userID),
	)
	return nil
}

func (s *GroupService) requireConnection(ctx context.Context, ownerID, userID int64) error {
	ok, err := s.connectionRepo.Exists(ctx, ownerID, userID)
	if err != nil {
		return fmt.Errorf("check connection: %w", err)
	}
	if !ok {
		return errs.Newf(errs.KindValidation, "user %d is not one of your connections", userID)
	}
	return nil
}

func (s *GroupService) getGroup(ctx context.Context, id int64) (*model.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	if group == nil {
		return nil, errs.New(errs.KindNotFound, "group not found")
	}
	return group, nil
}
