package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/azinedine/school-manager-api/internal/models"
	appErrors "github.com/azinedine/school-manager-api/pkg/errors"
)

type studentRepo interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	MaxSortOrder(ctx context.Context, classID string) (int, error)
	Create(ctx context.Context, student *models.Student) error
	BatchCreate(ctx context.Context, students []models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Move(ctx context.Context, id, classID string, sortOrder int) error
	Reorder(ctx context.Context, ids []string) error
	Delete(ctx context.Context, id string) error
	Roster(ctx context.Context, classID string, term int) ([]models.StudentRosterRow, error)
}

// StudentPayload carries the writable fields of a student record.
type StudentPayload struct {
	StudentNumber *string    `json:"student_number" validate:"omitempty,max=50"`
	LastName      string     `json:"last_name" validate:"required,max=255"`
	FirstName     string     `json:"first_name" validate:"required,max=255"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
	SpecialCase   *string    `json:"special_case" validate:"omitempty,max=255"`
}

// BatchImportStudentsRequest imports several students in one transaction.
type BatchImportStudentsRequest struct {
	Students []StudentPayload `json:"students" validate:"required,min=1,dive"`
}

// UpdateStudentRequest is a partial student update.
type UpdateStudentRequest struct {
	StudentNumber *string    `json:"student_number" validate:"omitempty,max=50"`
	LastName      *string    `json:"last_name" validate:"omitempty,max=255"`
	FirstName     *string    `json:"first_name" validate:"omitempty,max=255"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
	SpecialCase   *string    `json:"special_case" validate:"omitempty,max=255"`
}

// ReorderStudentsRequest carries the full id order for a class roster.
type ReorderStudentsRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,dive,uuid"`
}

// StudentService manages class rosters.
type StudentService struct {
	students  studentRepo
	classes   classReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(students studentRepo, classes classReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, classes: classes, validator: validate, logger: logger}
}

func (s *StudentService) ownedClass(ctx context.Context, classID, teacherID string) (*models.Class, error) {
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

// ownedStudent loads a student and verifies the requester owns its class.
func (s *StudentService) ownedStudent(ctx context.Context, studentID, teacherID string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.ownedClass(ctx, student.ClassID, teacherID); err != nil {
		return nil, err
	}
	return student, nil
}

// Add appends a student to the end of a class roster.
func (s *StudentService) Add(ctx context.Context, classID, teacherID string, req StudentPayload) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if _, err := s.ownedClass(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	maxOrder, err := s.students.MaxSortOrder(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to determine sort order")
	}
	student := &models.Student{
		ClassID:       classID,
		StudentNumber: req.StudentNumber,
		LastName:      req.LastName,
		FirstName:     req.FirstName,
		DateOfBirth:   req.DateOfBirth,
		SpecialCase:   req.SpecialCase,
		SortOrder:     maxOrder + 1,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// BatchImport adds several students to a class in one transaction, preserving
// payload order at the end of the roster.
func (s *StudentService) BatchImport(ctx context.Context, classID, teacherID string, req BatchImportStudentsRequest) ([]models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload")
	}
	if _, err := s.ownedClass(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	maxOrder, err := s.students.MaxSortOrder(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to determine sort order")
	}
	students := make([]models.Student, 0, len(req.Students))
	for i, payload := range req.Students {
		students = append(students, models.Student{
			ClassID:       classID,
			StudentNumber: payload.StudentNumber,
			LastName:      payload.LastName,
			FirstName:     payload.FirstName,
			DateOfBirth:   payload.DateOfBirth,
			SpecialCase:   payload.SpecialCase,
			SortOrder:     maxOrder + i + 1,
		})
	}
	if err := s.students.BatchCreate(ctx, students); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import students")
	}
	return students, nil
}

// Update applies a partial update to a student record.
func (s *StudentService) Update(ctx context.Context, studentID, teacherID string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.ownedStudent(ctx, studentID, teacherID)
	if err != nil {
		return nil, err
	}
	if req.StudentNumber != nil {
		student.StudentNumber = req.StudentNumber
	}
	if req.LastName != nil {
		student.LastName = *req.LastName
	}
	if req.FirstName != nil {
		student.FirstName = *req.FirstName
	}
	if req.DateOfBirth != nil {
		student.DateOfBirth = req.DateOfBirth
	}
	if req.SpecialCase != nil {
		student.SpecialCase = req.SpecialCase
	}
	if err := s.students.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Move transfers a student to another class owned by the same teacher,
// appending at the end of the target roster.
func (s *StudentService) Move(ctx context.Context, studentID, targetClassID, teacherID string) (*models.Student, error) {
	student, err := s.ownedStudent(ctx, studentID, teacherID)
	if err != nil {
		return nil, err
	}
	if student.ClassID == targetClassID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student already belongs to this class")
	}
	if _, err := s.ownedClass(ctx, targetClassID, teacherID); err != nil {
		return nil, err
	}
	maxOrder, err := s.students.MaxSortOrder(ctx, targetClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to determine sort order")
	}
	if err := s.students.Move(ctx, studentID, targetClassID, maxOrder+1); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move student")
	}
	student.ClassID = targetClassID
	student.SortOrder = maxOrder + 1
	return student, nil
}

// Reorder rewrites the roster order of a class in one transaction. The payload
// must reference every student of the class exactly once.
func (s *StudentService) Reorder(ctx context.Context, classID, teacherID string, req ReorderStudentsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reorder payload")
	}
	if _, err := s.ownedClass(ctx, classID, teacherID); err != nil {
		return err
	}
	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if len(req.StudentIDs) != len(students) {
		return appErrors.Clone(appErrors.ErrValidation, "reorder payload must cover the whole roster")
	}
	roster := make(map[string]struct{}, len(students))
	for _, student := range students {
		roster[student.ID] = struct{}{}
	}
	for _, id := range req.StudentIDs {
		if _, ok := roster[id]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not in this class", id))
		}
		delete(roster, id)
	}
	if err := s.students.Reorder(ctx, req.StudentIDs); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reorder students")
	}
	return nil
}

// Delete removes a student record.
func (s *StudentService) Delete(ctx context.Context, studentID, teacherID string) error {
	if _, err := s.ownedStudent(ctx, studentID, teacherID); err != nil {
		return err
	}
	if err := s.students.Delete(ctx, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

// Roster returns the class roster joined with term grades and tracking state.
func (s *StudentService) Roster(ctx context.Context, classID, teacherID string, term int) ([]models.StudentRosterRow, error) {
	if term < 1 || term > 3 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term must be between 1 and 3")
	}
	if _, err := s.ownedClass(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	rows, err := s.students.Roster(ctx, classID, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return rows, nil
}
