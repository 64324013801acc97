package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/azinedine/school-manager-api/internal/models"
	appErrors "github.com/azinedine/school-manager-api/pkg/errors"
)

type gradeRepo interface {
	FindByStudentAndTerm(ctx context.Context, studentID string, term int) (*models.TermGrade, error)
	Upsert(ctx context.Context, grade *models.TermGrade) error
	BulkUpsert(ctx context.Context, grades []models.TermGrade) error
}

// UpsertTermGradeRequest carries term marks for one student. Behavior,
// applications and notebook are out of 5; assignment and exam out of 20.
type UpsertTermGradeRequest struct {
	Term         int     `json:"term" validate:"required,gte=1,lte=3"`
	Behavior     float64 `json:"behavior" validate:"gte=0,lte=5"`
	Applications float64 `json:"applications" validate:"gte=0,lte=5"`
	Notebook     float64 `json:"notebook" validate:"gte=0,lte=5"`
	Assignment   float64 `json:"assignment" validate:"gte=0,lte=20"`
	Exam         float64 `json:"exam" validate:"gte=0,lte=20"`
}

// BulkGradeItem pairs a student with their term marks within a bulk payload.
type BulkGradeItem struct {
	StudentID    string  `json:"student_id" validate:"required,uuid"`
	Behavior     float64 `json:"behavior" validate:"gte=0,lte=5"`
	Applications float64 `json:"applications" validate:"gte=0,lte=5"`
	Notebook     float64 `json:"notebook" validate:"gte=0,lte=5"`
	Assignment   float64 `json:"assignment" validate:"gte=0,lte=20"`
	Exam         float64 `json:"exam" validate:"gte=0,lte=20"`
}

// BulkUpsertGradesRequest writes marks for several students of one class.
type BulkUpsertGradesRequest struct {
	Term  int             `json:"term" validate:"required,gte=1,lte=3"`
	Items []BulkGradeItem `json:"items" validate:"required,min=1,dive"`
}

// BulkGradesResult reports how many rows a bulk upsert actually wrote.
type BulkGradesResult struct {
	UpdatedCount int      `json:"updated_count"`
	SkippedIDs   []string `json:"skipped_ids,omitempty"`
}

// TermGradeView decorates a TermGrade with its derived marks.
type TermGradeView struct {
	models.TermGrade
	ContinuousAssessment float64 `json:"continuous_assessment"`
	FinalAverage         float64 `json:"final_average"`
}

// NewTermGradeView computes the derived marks for a grade row.
func NewTermGradeView(grade models.TermGrade) TermGradeView {
	return TermGradeView{
		TermGrade:            grade,
		ContinuousAssessment: grade.ContinuousAssessment(),
		FinalAverage:         grade.FinalAverage(),
	}
}

// GradeService manages the term gradebook.
type GradeService struct {
	grades    gradeRepo
	students  studentRepo
	classes   classReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(grades gradeRepo, students studentRepo, classes classReader, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{grades: grades, students: students, classes: classes, validator: validate, logger: logger}
}

// ownsStudent reports whether the requester owns the student's class.
func (s *GradeService) ownsStudent(ctx context.Context, studentID, teacherID string) (bool, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return false, err
	}
	class, err := s.classes.FindByID(ctx, student.ClassID)
	if err != nil {
		return false, err
	}
	return class.TeacherID == teacherID, nil
}

// Upsert writes the term marks for one student.
func (s *GradeService) Upsert(ctx context.Context, studentID, teacherID string, req UpsertTermGradeRequest) (*TermGradeView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	owned, err := s.ownsStudent(ctx, studentID, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "student not found")
	}
	if !owned {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student belongs to another teacher")
	}
	grade := &models.TermGrade{
		StudentID:    studentID,
		Term:         req.Term,
		Behavior:     req.Behavior,
		Applications: req.Applications,
		Notebook:     req.Notebook,
		Assignment:   req.Assignment,
		Exam:         req.Exam,
	}
	if err := s.grades.Upsert(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert term grade")
	}
	view := NewTermGradeView(*grade)
	return &view, nil
}

// BulkUpsert writes marks for several students of an owned class. Students
// missing from the class roster are skipped, not failed.
func (s *GradeService) BulkUpsert(ctx context.Context, classID, teacherID string, req BulkUpsertGradesRequest) (*BulkGradesResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	if class.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "class belongs to another teacher")
	}
	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	roster := make(map[string]struct{}, len(students))
	for _, student := range students {
		roster[student.ID] = struct{}{}
	}

	result := &BulkGradesResult{}
	grades := make([]models.TermGrade, 0, len(req.Items))
	for _, item := range req.Items {
		if _, ok := roster[item.StudentID]; !ok {
			result.SkippedIDs = append(result.SkippedIDs, item.StudentID)
			continue
		}
		grades = append(grades, models.TermGrade{
			StudentID:    item.StudentID,
			Term:         req.Term,
			Behavior:     item.Behavior,
			Applications: item.Applications,
			Notebook:     item.Notebook,
			Assignment:   item.Assignment,
			Exam:         item.Exam,
		})
	}
	if len(grades) > 0 {
		if err := s.grades.BulkUpsert(ctx, grades); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert term grades")
		}
	}
	result.UpdatedCount = len(grades)
	return result, nil
}

// Get returns the term grade view for one student.
func (s *GradeService) Get(ctx context.Context, studentID, teacherID string, term int) (*TermGradeView, error) {
	if term < 1 || term > 3 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term must be between 1 and 3")
	}
	owned, err := s.ownsStudent(ctx, studentID, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "student not found")
	}
	if !owned {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student belongs to another teacher")
	}
	grade, err := s.grades.FindByStudentAndTerm(ctx, studentID, term)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "term grade not found")
	}
	view := NewTermGradeView(*grade)
	return &view, nil
}
