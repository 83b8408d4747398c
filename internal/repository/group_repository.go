package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
	"github.com/Freeeeeet/wellness_hub/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const groupColumns = `g.id, g.name, g.owner_id, g.created_at,
	(SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = g.id)`

type GroupRepository struct {
	db *base.Repository
}

func NewGroupRepository(db *base.Repository) *GroupRepository {
	return &GroupRepository{db: db}
}

func scanGroup(row pgx.Row) (*model.Group, error) {
	var g model.Group
	if err := row.Scan(&g.ID, &g.Name, &g.OwnerID, &g.CreatedAt, &g.MemberCount); err != nil {
		return nil, err
	}
	return &g, nil
}

// Create создаёт группу; владелец и участники добавляются в той же транзакции
func (r *GroupRepository) Create(ctx context.Context, group *model.Group, memberIDs []int64) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO groups (name, owner_id)
			VALUES ($1, $2)
			RETURNING id, created_at
		`, group.Name, group.OwnerID).Scan(&group.ID, &group.CreatedAt)
		if err != nil {
			return fmt.Errorf("create group: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)
		`, group.ID, group.OwnerID, model.GroupRoleOwner)
		if err != nil {
			return fmt.Errorf("add owner: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO group_members (group_id, user_id, role)
			SELECT $1, unnest($2::bigint[]), $3
			ON CONFLICT DO NOTHING
		`, group.ID, memberIDs, model.GroupRoleMember)
		if err != nil {
			return fmt.Errorf("add members: %w", err)
		}

		return tx.QueryRow(ctx, `SELECT COUNT(*) FROM group_members WHERE group_id = $1`, group.ID).
			Scan(&group.MemberCount)
	})
}

// GetByID получает группу по ID
func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups g WHERE g.id = $1`

	g, err := scanGroup(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get group: %w", err)
	}

	return g, nil
}

// ListByUser получает группы, в которых состоит пользователь
func (r *GroupRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Group, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.name, g.id
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := []*model.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	return groups, nil
}

// AddMember добавляет участника
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID int64) error {
	query := `INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)`

	_, err := r.db.Exec(ctx, query, groupID, userID, model.GroupRoleMember)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return errs.New(errs.KindConflict, "user is already a member")
		}
		return fmt.Errorf("add member: %w", err)
	}

	return nil
}

// RemoveMember удаляет участника
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID int64) error {
	query := `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`

	affected, err := r.db.ExecAffected(ctx, query, groupID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	if affected == 0 {
		return errs.New(errs.KindNotFound, "membership not found")
	}

	return nil
}

// ListMembers получает участников группы
func (r *GroupRepository) ListMembers(ctx context.Context, groupID int64) ([]*model.GroupMember, error) {
	query := `
		SELECT group_id, user_id, role, joined_at
		FROM group_members
		WHERE group_id = $1
		ORDER BY joined_at, user_id
	`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []*model.GroupMember{}
	for rows.Next() {
		var m model.GroupMember
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	return members, nil
}
