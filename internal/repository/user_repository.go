package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
	"github.com/Freeeeeet/wellness_hub/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, anon_id, email, password_hash, display_name, role, bio, anonymous, telegram_chat_id, credits, created_at, updated_at`

type UserRepository struct {
	db *base.Repository
}

func NewUserRepository(db *base.Repository) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.AnonID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Role,
		&user.Bio,
		&user.Anonymous,
		&user.TelegramChatID,
		&user.Credits,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func collectUsers(rows pgx.Rows) ([]*model.User, error) {
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Create создаёт нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (anon_id, email, password_hash, display_name, role, bio, anonymous)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		user.AnonID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.Role,
		user.Bio,
		user.Anonymous,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return errs.New(errs.KindConflict, "email already registered")
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

// GetByEmail получает пользователя по email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return user, nil
}

// GetByIDs получает пользователей по списку ID
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = ANY($1)
		ORDER BY display_name, id
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}

	return collectUsers(rows)
}

// ListExcept получает пользователей, кроме перечисленных
func (r *UserRepository) ListExcept(ctx context.Context, exclude []int64, limit int) ([]*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE NOT (id = ANY($1))
		ORDER BY display_name, id
		LIMIT $2
	`

	if exclude == nil {
		exclude = []int64{}
	}

	rows, err := r.db.Query(ctx, query, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return collectUsers(rows)
}

// Update обновляет профиль пользователя
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET display_name = $1, bio = $2, anonymous = $3, telegram_chat_id = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		user.DisplayName,
		user.Bio,
		user.Anonymous,
		user.TelegramChatID,
		user.ID,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return errs.New(errs.KindNotFound, "user not found")
		}
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}
