package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
)

const (
	DefaultMoodDays = 30
	MaxMoodDays     = 365
)

type MoodInput struct {
	Mood string `json:"mood" validate:"required,oneof=great good okay low bad"`
	Note string `json:"note" validate:"max=500"`
}

type WellnessService struct {
	moodRepo MoodStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewWellnessService(moodRepo MoodStore, logger *zap.Logger) *WellnessService {
	return &WellnessService{
		moodRepo: moodRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// LogMood сохраняет запись настроения
func (s *WellnessService) LogMood(ctx context.Context, userID int64, in MoodInput) (*model.MoodEntry, error) {
	in.Mood = strings.ToLower(strings.TrimSpace(in.Mood))
	in.Note = strings.TrimSpace(in.Note)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	score, _ := model.MoodScore(in.Mood)
	entry := &model.MoodEntry{
		UserID: userID,
		Mood:   in.Mood,
		Score:  score,
		Note:   in.Note,
	}
	if err := s.moodRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Mood logged",
		zap.Int64("user_id", userID),
		zap.Int("score", score),
	)
	return entry, nil
}

// History получает записи за последние days дней и сводку
func (s *WellnessService) History(ctx context.Context, userID int64, days int) (*model.MoodHistory, error) {
	if days == 0 {
		days = DefaultMoodDays
	}
	if days < 1 || days > MaxMoodDays {
		return nil, errs.Newf(errs.KindValidation, "days must be between 1 and %d", MaxMoodDays)
	}

	today := startOfDay(s.now())
	since := today.AddDate(0, 0, -(days - 1))

	entries, err := s.moodRepo.ListSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	return &model.MoodHistory{Entries: entries, Summary: summarizeMood(entries, today)}, nil
}

// summarizeMood считает сводку; entries отсортированы от новых к старым
func summarizeMood(entries []*model.MoodEntry, today time.Time) model.MoodSummary {
	summary := model.MoodSummary{Count: len(entries)}
	if len(entries) == 0 {
		return summary
	}

	total := 0
	logged := make(map[time.Time]bool, len(entries))
	for _, e := range entries {
		total += e.Score
		logged[startOfDay(e.CreatedAt)] = true
	}
	summary.Average = round2(float64(total) / float64(len(entries)))

	for day := today; logged[day]; day = day.AddDate(0, 0, -1) {
		summary.StreakDays++
	}
	return summary
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
