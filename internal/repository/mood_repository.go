package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/wellness_hub/internal/model"
	"github.com/Freeeeeet/wellness_hub/internal/repository/base"
)

type MoodRepository struct {
	db *base.Repository
}

func NewMoodRepository(db *base.Repository) *MoodRepository {
	return &MoodRepository{db: db}
}

// Create сохраняет запись настроения
func (r *MoodRepository) Create(ctx context.Context, entry *model.MoodEntry) error {
	query := `
		INSERT INTO moods (user_id, mood, score, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, entry.UserID, entry.Mood, entry.Score, entry.Note).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("create mood entry: %w", err)
	}

	return nil
}

// ListSince получает записи начиная с since, новые первыми
func (r *MoodRepository) ListSince(ctx context.Context, userID int64, since time.Time) ([]*model.MoodEntry, error) {
	query := `
		SELECT id, user_id, mood, score, note, created_at
		FROM moods
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("get mood entries: %w", err)
	}
	defer rows.Close()

	entries := []*model.MoodEntry{}
	for rows.Next() {
		var e model.MoodEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Mood, &e.Score, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan mood entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mood entries: %w", err)
	}

	return entries, nil
}
