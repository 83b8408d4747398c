package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/wellness_hub/internal/model"
	"github.com/Freeeeeet/wellness_hub/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const gradeColumns = `id, student_id, teacher_id, subject, term, score, created_at, updated_at`

type GradeRepository struct {
	db *base.Repository
}

func NewGradeRepository(db *base.Repository) *GradeRepository {
	return &GradeRepository{db: db}
}

// UpsertBatch сохраняет оценки одной транзакцией: всё или ничего
func (r *GradeRepository) UpsertBatch(ctx context.Context, grades []*model.Grade) error {
	query := `
		INSERT INTO grades (student_id, teacher_id, subject, term, score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (student_id, subject, term)
		DO UPDATE SET score = EXCLUDED.score, teacher_id = EXCLUDED.teacher_id, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, g := range grades {
			batch.Queue(query, g.StudentID, g.TeacherID, g.Subject, g.Term, g.Score)
		}

		results := tx.SendBatch(ctx, batch)
		for _, g := range grades {
			if err := results.QueryRow().Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt); err != nil {
				_ = results.Close()
				return fmt.Errorf("upsert grade: %w", err)
			}
		}

		if err := results.Close(); err != nil {
			return fmt.Errorf("close batch: %w", err)
		}
		return nil
	})
}

// ListByStudent получает оценки студента
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.Grade, error) {
	query := `
		SELECT ` + gradeColumns + `
		FROM grades
		WHERE student_id = $1
		ORDER BY term, subject
	`
	return r.list(ctx, query, studentID)
}

// ListByTeacher получает оценки, выставленные учителем
func (r *GradeRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]*model.Grade, error) {
	query := `
		SELECT ` + gradeColumns + `
		FROM grades
		WHERE teacher_id = $1
		ORDER BY term, subject, student_id
	`
	return r.list(ctx, query, teacherID)
}

func (r *GradeRepository) list(ctx context.Context, query string, args ...any) ([]*model.Grade, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get grades: %w", err)
	}
	defer rows.Close()

	grades := []*model.Grade{}
	for rows.Next() {
		var g model.Grade
		err := rows.Scan(
			&g.ID,
			&g.StudentID,
			&g.TeacherID,
			&g.Subject,
			&g.Term,
			&g.Score,
			&g.CreatedAt,
			&g.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan grade: %w", err)
		}
		grades = append(grades, &g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grades: %w", err)
	}

	return grades, nil
}
