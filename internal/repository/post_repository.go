package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
	"github.com/Freeeeeet/wellness_hub/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const postColumns = `p.id, p.author_id, p.title, p.body, p.credit_points, p.accepted_answer_id, p.created_at,
	(SELECT COUNT(*) FROM answers a WHERE a.post_id = p.id)`

type PostRepository struct {
	db *base.Repository
}

func NewPostRepository(db *base.Repository) *PostRepository {
	return &PostRepository{db: db}
}

func scanPost(row pgx.Row) (*model.Post, error) {
	var post model.Post
	err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.Title,
		&post.Body,
		&post.CreditPoints,
		&post.AcceptedAnswerID,
		&post.CreatedAt,
		&post.AnswerCount,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Create создаёт вопрос
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	query := `
		INSERT INTO posts (author_id, title, body, credit_points)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, post.AuthorID, post.Title, post.Body, post.CreditPoints).
		Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	return nil
}

// GetByID получает вопрос по ID
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.id = $1`

	post, err := scanPost(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get post: %w", err)
	}

	return post, nil
}

// List получает ленту вопросов, новые первыми
func (r *PostRepository) List(ctx context.Context, limit, offset int) ([]*model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []*model.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

// CreateAnswer добавляет ответ к вопросу
func (r *PostRepository) CreateAnswer(ctx context.Context, answer *model.Answer) error {
	query := `
		INSERT INTO answers (post_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, answer.PostID, answer.AuthorID, answer.Body).
		Scan(&answer.ID, &answer.CreatedAt)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}

	return nil
}

// GetAnswer получает ответ по ID
func (r *PostRepository) GetAnswer(ctx context.Context, id int64) (*model.Answer, error) {
	query := `
		SELECT id, post_id, author_id, body, is_accepted, created_at
		FROM answers
		WHERE id = $1
	`

	var answer model.Answer
	err := r.db.QueryRow(ctx, query, id).Scan(
		&answer.ID,
		&answer.PostID,
		&answer.AuthorID,
		&answer.Body,
		&answer.IsAccepted,
		&answer.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get answer: %w", err)
	}

	return &answer, nil
}

// ListAnswers получает ответы: принятый первым, затем по времени
func (r *PostRepository) ListAnswers(ctx context.Context, postID int64) ([]*model.Answer, error) {
	query := `
		SELECT id, post_id, author_id, body, is_accepted, created_at
		FROM answers
		WHERE post_id = $1
		ORDER BY is_accepted DESC, created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	answers := []*model.Answer{}
	for rows.Next() {
		var answer model.Answer
		err := rows.Scan(
			&answer.ID,
			&answer.PostID,
			&answer.AuthorID,
			&answer.Body,
			&answer.IsAccepted,
			&answer.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, &answer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}

	return answers, nil
}

// AcceptAnswer помечает ответ принятым и начисляет баллы автору ответа
func (r *PostRepository) AcceptAnswer(ctx context.Context, postID, answerID int64) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var points int
		err := tx.QueryRow(ctx, `
			UPDATE posts
			SET accepted_answer_id = $1
			WHERE id = $2 AND accepted_answer_id IS NULL
			RETURNING credit_points
		`, answerID, postID).Scan(&points)
		if err != nil {
			if base.IsNotFound(err) {
				return errs.New(errs.KindConflict, "post already has an accepted answer")
			}
			return fmt.Errorf("mark post answered: %w", err)
		}

		var authorID int64
		err = tx.QueryRow(ctx, `
			UPDATE answers
			SET is_accepted = TRUE
			WHERE id = $1 AND post_id = $2
			RETURNING author_id
		`, answerID, postID).Scan(&authorID)
		if err != nil {
			if base.IsNotFound(err) {
				return errs.New(errs.KindNotFound, "answer not found")
			}
			if base.IsUniqueViolation(err) {
				return errs.New(errs.KindConflict, "post already has an accepted answer")
			}
			return fmt.Errorf("accept answer: %w", err)
		}

		if points > 0 {
			_, err = tx.Exec(ctx, `UPDATE users SET credits = credits + $1 WHERE id = $2`, points, authorID)
			if err != nil {
				return fmt.Errorf("credit author: %w", err)
			}
		}

		return nil
	})
}
