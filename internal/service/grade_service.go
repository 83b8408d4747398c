package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
)

type GradeInput struct {
	StudentID int64    `json:"student_id" validate:"required,gt=0"`
	Subject   string   `json:"subject" validate:"required,max=100"`
	Term      string   `json:"term" validate:"required,max=40"`
	Score     *float64 `json:"score" validate:"required,gte=0,lte=100"`
}

type UploadGradesInput struct {
	Grades []GradeInput `json:"grades" validate:"required,min=1,max=500,dive"`
}

type GradeService struct {
	gradeRepo GradeStore
	userRepo  UserStore
	logger    *zap.Logger
}

func NewGradeService(gradeRepo GradeStore, userRepo UserStore, logger *zap.Logger) *GradeService {
	return &GradeService{
		gradeRepo: gradeRepo,
		userRepo:  userRepo,
		logger:    logger,
	}
}

// Upload загружает оценки учителя: все строки или ни одной
func (s *GradeService) Upload(ctx context.Context, teacher *model.User, in UploadGradesInput) ([]*model.Grade, error) {
	if !teacher.IsTeacher() {
		return nil, errs.New(errs.KindForbidden, "only teachers can upload grades")
	}

	for i := range in.Grades {
		in.Grades[i].Subject = strings.TrimSpace(in.Grades[i].Subject)
		in.Grades[i].Term = strings.TrimSpace(in.Grades[i].Term)
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(in.Grades))
	for _, g := range in.Grades {
		ids = append(ids, g.StudentID)
	}
	students, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get students: %w", err)
	}
	known := make(map[int64]bool, len(students))
	for _, u := range students {
		if u.IsStudent() {
			known[u.ID] = true
		}
	}

	grades := make([]*model.Grade, 0, len(in.Grades))
	for i, g := range in.Grades {
		if !known[g.StudentID] {
			return nil, errs.Newf(errs.KindValidation, "grades[%d]: user %d is not a student", i, g.StudentID)
		}
		grades = append(grades, &model.Grade{
			StudentID: g.StudentID,
			TeacherID: teacher.ID,
			Subject:   g.Subject,
			Term:      g.Term,
			Score:     *g.Score,
		})
	}

	if err := s.gradeRepo.UpsertBatch(ctx, grades); err != nil {
		return nil, err
	}

	s.logger.Info("Grades uploaded",
		zap.Int64("teacher_id", teacher.ID),
		zap.Int("rows", len(grades)),
	)

	return grades, nil
}

// StudentGrades получает оценки студента со средним по семестрам
func (s *GradeService) StudentGrades(ctx context.Context, studentID int64) (*model.StudentGrades, error) {
	grades, err := s.gradeRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &model.StudentGrades{Grades: grades, Summary: summarizeTerms(grades)}, nil
}

// TeacherGrades получает оценки, выставленные учителем
func (s *GradeService) TeacherGrades(ctx context.Context, teacher *model.User) ([]*model.Grade, error) {
	if !teacher.IsTeacher() {
		return nil, errs.New(errs.KindForbidden, "only teachers can view uploaded grades")
	}
	return s.gradeRepo.ListByTeacher(ctx, teacher.ID)
}

func summarizeTerms(grades []*model.Grade) []model.TermSummary {
	type acc struct {
		count int
		sum   float64
	}
	byTerm := make(map[string]*acc)
	for _, g := range grades {
		a, ok := byTerm[g.Term]
		if !ok {
			a = &acc{}
			byTerm[g.Term] = a
		}
		a.count++
		a.sum += g.Score
	}

	out := make([]model.TermSummary, 0, len(byTerm))
	for term, a := range byTerm {
		out = append(out, model.TermSummary{
			Term:    term,
			Count:   a.count,
			Average: round2(a.sum / float64(a.count)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
