package model

import "time"

type MoodEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Mood      string    `json:"mood"`
	Score     int       `json:"score"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// Mood labels
const (
	MoodGreat = "great"
	MoodGood  = "good"
	MoodOkay  = "okay"
	MoodLow   = "low"
	MoodBad   = "bad"
)

// MoodScore maps a label to 5..1; ok is false for unknown labels.
func MoodScore(mood string) (int, bool) {
	switch mood {
	case MoodGreat:
		return 5, true
	case MoodGood:
		return 4, true
	case MoodOkay:
		return 3, true
	case MoodLow:
		return 2, true
	case MoodBad:
		return 1, true
	}
	return 0, false
}

type MoodSummary struct {
	Count      int     `json:"count"`
	Average    float64 `json:"average"`
	StreakDays int     `json:"streak_days"`
}

type MoodHistory struct {
	Entries []*MoodEntry `json:"entries"`
	Summary MoodSummary  `json:"summary"`
}
