package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/azinedine/school-manager-api/internal/models"
	appErrors "github.com/azinedine/school-manager-api/pkg/errors"
)

type classRepo interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

// CreateClassRequest is the payload for creating a class.
type CreateClassRequest struct {
	Name         string  `json:"name" validate:"required,max=255"`
	Subject      *string `json:"subject" validate:"omitempty,max=255"`
	GradeLevel   *string `json:"grade_level" validate:"omitempty,max=50"`
	AcademicYear string  `json:"academic_year" validate:"required,max=20"`
}

// UpdateClassRequest is the payload for a partial class update.
type UpdateClassRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=255"`
	Subject      *string `json:"subject" validate:"omitempty,max=255"`
	GradeLevel   *string `json:"grade_level" validate:"omitempty,max=50"`
	AcademicYear *string `json:"academic_year" validate:"omitempty,max=20"`
}

// ClassService manages teacher-owned classes.
type ClassService struct {
	classes   classRepo
	students  studentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(classes classRepo, students studentReader, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{classes: classes, students: students, validator: validate, logger: logger}
}

// List returns the requester's classes, optionally filtered by academic year.
func (s *ClassService) List(ctx context.Context, teacherID, academicYear string) ([]models.Class, error) {
	classes, err := s.classes.List(ctx, models.ClassFilter{TeacherID: teacherID, AcademicYear: academicYear})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Get returns one class with its ordered roster.
func (s *ClassService) Get(ctx context.Context, classID, teacherID string) (*models.ClassDetail, error) {
	class, err := s.owned(ctx, classID, teacherID)
	if err != nil {
		return nil, err
	}
	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return &models.ClassDetail{Class: *class, Students: students}, nil
}

// Create registers a new class owned by the requester.
func (s *ClassService) Create(ctx context.Context, teacherID string, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class := &models.Class{
		TeacherID:    teacherID,
		Name:         req.Name,
		Subject:      req.Subject,
		GradeLevel:   req.GradeLevel,
		AcademicYear: req.AcademicYear,
	}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// Update applies a partial update to an owned class.
func (s *ClassService) Update(ctx context.Context, classID, teacherID string, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class, err := s.owned(ctx, classID, teacherID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		class.Name = *req.Name
	}
	if req.Subject != nil {
		class.Subject = req.Subject
	}
	if req.GradeLevel != nil {
		class.GradeLevel = req.GradeLevel
	}
	if req.AcademicYear != nil {
		class.AcademicYear = *req.AcademicYear
	}
	if err := s.classes.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Delete removes an owned class and, through cascading constraints, its roster.
func (s *ClassService) Delete(ctx context.Context, classID, teacherID string) error {
	if _, err := s.owned(ctx, classID, teacherID); err != nil {
		return err
	}
	if err := s.classes.Delete(ctx, classID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}

func (s *ClassService) owned(ctx context.Context, classID, teacherID string) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "class belongs to another teacher")
	}
	return class, nil
}
