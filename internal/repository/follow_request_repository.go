package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
	"github.com/Freeeeeet/wellness_hub/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const followRequestColumns = `id, from_user_id, to_user_id, status, created_at, updated_at`

type FollowRequestRepository struct {
	db *base.Repository
}

func NewFollowRequestRepository(db *base.Repository) *FollowRequestRepository {
	return &FollowRequestRepository{db: db}
}

func scanFollowRequest(row pgx.Row) (*model.FollowRequest, error) {
	var req model.FollowRequest
	err := row.Scan(
		&req.ID,
		&req.FromUserID,
		&req.ToUserID,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *FollowRequestRepository) list(ctx context.Context, query string, args ...any) ([]*model.FollowRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query follow requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.FollowRequest
	for rows.Next() {
		req, err := scanFollowRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan follow request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	return requests, nil
}

// Create создает заявку; повторная pending заявка в том же направлении даёт конфликт
func (r *FollowRequestRepository) Create(ctx context.Context, req *model.FollowRequest) error {
	return insertRequest(ctx, r.db, req)
}

// GetByID получает заявку по ID
func (r *FollowRequestRepository) GetByID(ctx context.Context, id int64) (*model.FollowRequest, error) {
	query := `SELECT ` + followRequestColumns + ` FROM follow_requests WHERE id = $1`

	req, err := scanFollowRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get follow request: %w", err)
	}

	return req, nil
}

// ListPendingTo получает входящие pending заявки
func (r *FollowRequestRepository) ListPendingTo(ctx context.Context, userID int64) ([]*model.FollowRequest, error) {
	query := `
		SELECT ` + followRequestColumns + `
		FROM follow_requests
		WHERE to_user_id = $1 AND status = $2
		ORDER BY created_at ASC, id ASC
	`
	return r.list(ctx, query, userID, model.RequestStatusPending)
}

// ListPendingFrom получает исходящие pending заявки
func (r *FollowRequestRepository) ListPendingFrom(ctx context.Context, userID int64) ([]*model.FollowRequest, error) {
	query := `
		SELECT ` + followRequestColumns + `
		FROM follow_requests
		WHERE from_user_id = $1 AND status = $2
		ORDER BY created_at ASC, id ASC
	`
	return r.list(ctx, query, userID, model.RequestStatusPending)
}

// UpdateStatus переводит заявку из статуса from в статус to
func (r *FollowRequestRepository) UpdateStatus(ctx context.Context, id int64, from, to string) error {
	query := `
		UPDATE follow_requests
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	affected, err := r.db.ExecAffected(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}

	if affected == 0 {
		return r.missOrConflict(ctx, id)
	}

	return nil
}

// Accept принимает заявку и создаёт связь в одной транзакции
func (r *FollowRequestRepository) Accept(ctx context.Context, id int64) (*model.Connection, error) {
	var conn *model.Connection

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		fromID, toID, err := markAccepted(ctx, tx, id)
		if err != nil {
			if base.IsNotFound(err) {
				return r.missOrConflict(ctx, id)
			}
			return fmt.Errorf("accept request: %w", err)
		}

		conn, err = insertConnection(ctx, tx, fromID, toID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return conn, nil
}

// Open создаёт заявку req либо принимает встречную pending заявку.
// Пара пользователей блокируется advisory lock, поэтому встречные follow не расходятся.
// Если встречная заявка была принята, она возвращается вместе со связью.
func (r *FollowRequestRepository) Open(ctx context.Context, req *model.FollowRequest) (*model.FollowRequest, *model.Connection, error) {
	var (
		accepted *model.FollowRequest
		conn     *model.Connection
	)

	lo, hi := model.PairKey(req.FromUserID, req.ToUserID)
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
			fmt.Sprintf("follow:%d:%d", lo, hi)); err != nil {
			return fmt.Errorf("lock pair: %w", err)
		}

		var connected bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM connections WHERE user_lo = $1 AND user_hi = $2)
		`, lo, hi).Scan(&connected)
		if err != nil {
			return fmt.Errorf("check connection: %w", err)
		}
		if connected {
			return errs.New(errs.KindConflict, "already connected")
		}

		reverse, err := scanFollowRequest(tx.QueryRow(ctx, `
			UPDATE follow_requests
			SET status = $1, updated_at = NOW()
			WHERE from_user_id = $2 AND to_user_id = $3 AND status = $4
			RETURNING `+followRequestColumns,
			model.RequestStatusAccepted, req.ToUserID, req.FromUserID, model.RequestStatusPending))
		switch {
		case err == nil:
			accepted = reverse
			conn, err = insertConnection(ctx, tx, reverse.FromUserID, reverse.ToUserID, reverse.ID)
			return err
		case !base.IsNotFound(err):
			return fmt.Errorf("accept reverse request: %w", err)
		}

		return insertRequest(ctx, tx, req)
	})
	if err != nil {
		return nil, nil, err
	}

	return accepted, conn, nil
}

func insertRequest(ctx context.Context, q base.Querier, req *model.FollowRequest) error {
	err := q.QueryRow(ctx, `
		INSERT INTO follow_requests (from_user_id, to_user_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, req.FromUserID, req.ToUserID, req.Status).Scan(&req.ID, &req.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return errs.New(errs.KindConflict, "follow request already pending")
		}
		return fmt.Errorf("create follow request: %w", err)
	}
	return nil
}

// markAccepted переводит pending заявку в accepted; pgx.ErrNoRows если она не pending
func markAccepted(ctx context.Context, q base.Querier, id int64) (fromID, toID int64, err error) {
	err = q.QueryRow(ctx, `
		UPDATE follow_requests
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING from_user_id, to_user_id
	`, model.RequestStatusAccepted, id, model.RequestStatusPending).Scan(&fromID, &toID)
	return fromID, toID, err
}

func insertConnection(ctx context.Context, q base.Querier, fromID, toID, requestID int64) (*model.Connection, error) {
	var conn model.Connection
	lo, hi := model.PairKey(fromID, toID)
	err := q.QueryRow(ctx, `
		INSERT INTO connections (user_lo, user_hi, request_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_lo, user_hi) DO UPDATE SET user_lo = EXCLUDED.user_lo
		RETURNING id, user_lo, user_hi, request_id, created_at
	`, lo, hi, requestID).Scan(&conn.ID, &conn.UserLo, &conn.UserHi, &conn.RequestID, &conn.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create connection: %w", err)
	}
	return &conn, nil
}

// ExpireBefore помечает устаревшие pending заявки как expired
func (r *FollowRequestRepository) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE follow_requests
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND created_at < $3
	`

	affected, err := r.db.ExecAffected(ctx, query, model.RequestStatusExpired, model.RequestStatusPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire requests: %w", err)
	}

	return affected, nil
}

func (r *FollowRequestRepository) missOrConflict(ctx context.Context, id int64) error {
	req, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if req == nil {
		return errs.New(errs.KindNotFound, "request not found")
	}
	return errs.Newf(errs.KindConflict, "request is %s", req.Status)
}
