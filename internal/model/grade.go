package model

import "time"

type Grade struct {
	ID        int64      `json:"id"`
	StudentID int64      `json:"student_id"`
	TeacherID int64      `json:"teacher_id"`
	Subject   string     `json:"subject"`
	Term      string     `json:"term"`
	Score     float64    `json:"score"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

const (
	MinScore         = 0
	MaxScore         = 100
	MaxGradesPerLoad = 500
)

// TermSummary is the average score of one term.
type TermSummary struct {
	Term    string  `json:"term"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

type StudentGrades struct {
	Grades  []*Grade      `json:"grades"`
	Summary []TermSummary `json:"summary"`
}
