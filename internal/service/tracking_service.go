package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/azinedine/school-manager-api/internal/models"
	appErrors "github.com/azinedine/school-manager-api/pkg/errors"
)

type trackingRepo interface {
	FindByStudentAndTerm(ctx context.Context, studentID string, term int) (*models.TermTracking, error)
	Upsert(ctx context.Context, tracking *models.TermTracking) error
}

// UpsertTrackingRequest toggles per-term pedagogical checkpoints.
type UpsertTrackingRequest struct {
	Term              int  `json:"term" validate:"required,gte=1,lte=3"`
	OralInterrogation bool `json:"oral_interrogation"`
	NotebookChecked   bool `json:"notebook_checked"`
}

// TrackingService manages per-term pedagogical tracking flags.
type TrackingService struct {
	tracking  trackingRepo
	students  studentRepo
	classes   classReader
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTrackingService constructs TrackingService.
func NewTrackingService(tracking trackingRepo, students studentRepo, classes classReader, validate *validator.Validate, logger *zap.Logger) *TrackingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingService{
		tracking:  tracking,
		students:  students,
		classes:   classes,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *TrackingService) ownsStudent(ctx context.Context, studentID, teacherID string) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	class, err := s.classes.FindByID(ctx, student.ClassID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.TeacherID != teacherID {
		return appErrors.Clone(appErrors.ErrForbidden, "student belongs to another teacher")
	}
	return nil
}

// Upsert writes the tracking flags for one student and term. Checkpoint
// timestamps are stamped only when a flag flips from false to true; flipping
// back to false keeps the last stamp.
func (s *TrackingService) Upsert(ctx context.Context, studentID, teacherID string, req UpsertTrackingRequest) (*models.TermTracking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tracking payload")
	}
	if err := s.ownsStudent(ctx, studentID, teacherID); err != nil {
		return nil, err
	}

	tracking := &models.TermTracking{StudentID: studentID, Term: req.Term}
	existing, err := s.tracking.FindByStudentAndTerm(ctx, studentID, req.Term)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tracking")
	}
	if existing != nil {
		tracking = existing
	}

	ts := s.now()
	if req.OralInterrogation && !tracking.OralInterrogation {
		tracking.LastInterrogationAt = &ts
	}
	if req.NotebookChecked && !tracking.NotebookChecked {
		tracking.LastNotebookCheckAt = &ts
	}
	tracking.OralInterrogation = req.OralInterrogation
	tracking.NotebookChecked = req.NotebookChecked

	if err := s.tracking.Upsert(ctx, tracking); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert tracking")
	}
	return tracking, nil
}

// Get returns the tracking record for one student and term.
func (s *TrackingService) Get(ctx context.Context, studentID, teacherID string, term int) (*models.TermTracking, error) {
	if term < 1 || term > 3 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term must be between 1 and 3")
	}
	if err := s.ownsStudent(ctx, studentID, teacherID); err != nil {
		return nil, err
	}
	tracking, err := s.tracking.FindByStudentAndTerm(ctx, studentID, term)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tracking record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tracking")
	}
	return tracking, nil
}
