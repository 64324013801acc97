package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/azinedine/school-manager-api/internal/models"
	appErrors "github.com/azinedine/school-manager-api/pkg/errors"
)

type mockStudentRepo struct {
	students map[string]*models.Student
	rosters  map[string][]models.StudentRosterRow
	nextID   int
}

func (m *mockStudentRepo) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	var list []models.Student
	for _, s := range m.students {
		if s.ClassID == classID {
			list = append(list, *s)
		}
	}
	return list, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) MaxSortOrder(ctx context.Context, classID string) (int, error) {
	max := 0
	for _, s := range m.students {
		if s.ClassID == classID && s.SortOrder > max {
			max = s.SortOrder
		}
	}
	return max, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]*models.Student)
	}
	if student.ID == "" {
		m.nextID++
		student.ID = fmt.Sprintf("stu-%d", m.nextID)
	}
	stored := *student
	m.students[student.ID] = &stored
	return nil
}

func (m *mockStudentRepo) BatchCreate(ctx context.Context, students []models.Student) error {
	for i := range students {
		if err := m.Create(ctx, &students[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if _, ok := m.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	stored := *student
	m.students[student.ID] = &stored
	return nil
}

func (m *mockStudentRepo) Move(ctx context.Context, id, classID string, sortOrder int) error {
	s, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.ClassID = classID
	s.SortOrder = sortOrder
	return nil
}

func (m *mockStudentRepo) Reorder(ctx context.Context, ids []string) error {
	for i, id := range ids {
		s, ok := m.students[id]
		if !ok {
			return sql.ErrNoRows
		}
		s.SortOrder = i + 1
	}
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	return nil
}

func (m *mockStudentRepo) Roster(ctx context.Context, classID string, term int) ([]models.StudentRosterRow, error) {
	return m.rosters[classID], nil
}

func newStudentFixture() (*StudentService, *mockStudentRepo) {
	students := &mockStudentRepo{students: map[string]*models.Student{
		studentA: {ID: studentA, ClassID: "class-1", LastName: "Ait", FirstName: "Amine", SortOrder: 1},
		studentB: {ID: studentB, ClassID: "class-1", LastName: "Ben", FirstName: "Basma", SortOrder: 2},
	}}
	classes := &mockClassReader{classes: map[string]*models.Class{
		"class-1": {ID: "class-1", TeacherID: "teacher-1", Name: "3M2", AcademicYear: "2025-2026"},
		"class-3": {ID: "class-3", TeacherID: "teacher-1", Name: "3M3", AcademicYear: "2025-2026"},
		"class-2": {ID: "class-2", TeacherID: "teacher-2", Name: "4M1", AcademicYear: "2025-2026"},
	}}
	return NewStudentService(students, classes, validator.New(), zap.NewNop()), students
}

func TestStudentServiceAddAppendsToRoster(t *testing.T) {
	svc, repo := newStudentFixture()

	student, err := svc.Add(context.Background(), "class-1", "teacher-1", StudentPayload{LastName: "Cherif", FirstName: "Celia"})
	require.NoError(t, err)
	assert.Equal(t, 3, student.SortOrder)
	assert.Len(t, repo.students, 3)

	_, err = svc.Add(context.Background(), "class-2", "teacher-1", StudentPayload{LastName: "X", FirstName: "Y"})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceBatchImportPreservesOrder(t *testing.T) {
	svc, _ := newStudentFixture()

	imported, err := svc.BatchImport(context.Background(), "class-1", "teacher-1", BatchImportStudentsRequest{
		Students: []StudentPayload{
			{LastName: "Cherif", FirstName: "Celia"},
			{LastName: "Dali", FirstName: "Dina"},
		},
	})
	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.Equal(t, 3, imported[0].SortOrder)
	assert.Equal(t, 4, imported[1].SortOrder)
}

func TestStudentServiceMoveAppendsToTarget(t *testing.T) {
	svc, repo := newStudentFixture()
	repo.students["stu-t"] = &models.Student{ID: "stu-t", ClassID: "class-3", LastName: "Tahar", FirstName: "Tin", SortOrder: 5}

	moved, err := svc.Move(context.Background(), studentA, "class-3", "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, "class-3", moved.ClassID)
	assert.Equal(t, 6, moved.SortOrder)

	_, err = svc.Move(context.Background(), studentB, "class-2", "teacher-1")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Move(context.Background(), studentB, "class-1", "teacher-1")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceReorderRequiresFullRoster(t *testing.T) {
	svc, repo := newStudentFixture()

	err := svc.Reorder(context.Background(), "class-1", "teacher-1", ReorderStudentsRequest{StudentIDs: []string{studentB}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	err = svc.Reorder(context.Background(), "class-1", "teacher-1", ReorderStudentsRequest{StudentIDs: []string{studentB, studentA}})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.students[studentB].SortOrder)
	assert.Equal(t, 2, repo.students[studentA].SortOrder)
}

func TestStudentServiceReorderRejectsForeignStudent(t *testing.T) {
	svc, _ := newStudentFixture()

	err := svc.Reorder(context.Background(), "class-1", "teacher-1", ReorderStudentsRequest{StudentIDs: []string{studentA, outsider}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDeleteOwnershipViaClass(t *testing.T) {
	svc, repo := newStudentFixture()

	err := svc.Delete(context.Background(), studentA, "teacher-2")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.students, 2)

	require.NoError(t, svc.Delete(context.Background(), studentA, "teacher-1"))
	assert.Len(t, repo.students, 1)
}

func TestStudentServiceRosterValidatesTerm(t *testing.T) {
	svc, repo := newStudentFixture()
	repo.rosters = map[string][]models.StudentRosterRow{
		"class-1": {{Student: *repo.students[studentA], Behavior: 4, Exam: 15}},
	}

	_, err := svc.Roster(context.Background(), "class-1", "teacher-1", 4)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	rows, err := svc.Roster(context.Background(), "class-1", "teacher-1", 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 15.0, rows[0].Exam)
}
