package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
	"github.com/Freeeeeet/wellness_hub/internal/repository/base"
)

type ConnectionRepository struct {
	db *base.Repository
}

func NewConnectionRepository(db *base.Repository) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// Exists проверяет, связаны ли два пользователя
func (r *ConnectionRepository) Exists(ctx context.Context, a, b int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM connections
			WHERE user_lo = $1 AND user_hi = $2
		)
	`

	lo, hi := model.PairKey(a, b)

	var exists bool
	err := r.db.QueryRow(ctx, query, lo, hi).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check connection: %w", err)
	}

	return exists, nil
}

// ListByUser получает все связи пользователя
func (r *ConnectionRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Connection, error) {
	query := `
		SELECT id, user_lo, user_hi, request_id, created_at
		FROM connections
		WHERE user_lo = $1 OR user_hi = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get user connections: %w", err)
	}
	defer rows.Close()

	var connections []*model.Connection
	for rows.Next() {
		var conn model.Connection
		err := rows.Scan(
			&conn.ID,
			&conn.UserLo,
			&conn.UserHi,
			&conn.RequestID,
			&conn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		connections = append(connections, &conn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}

	return connections, nil
}

// Delete удаляет связь между пользователями
func (r *ConnectionRepository) Delete(ctx context.Context, a, b int64) error {
	query := `
		DELETE FROM connections
		WHERE user_lo = $1 AND user_hi = $2
	`

	lo, hi := model.PairKey(a, b)

	affected, err := r.db.ExecAffected(ctx, query, lo, hi)
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}

	if affected == 0 {
		return errs.New(errs.KindNotFound, "connection not found")
	}

	return nil
}
