package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/azinedine/school-manager-api/internal/models"
	appErrors "github.com/azinedine/school-manager-api/pkg/errors"
)

type mockTrackingRepo struct {
	records map[string]models.TermTracking
}

func (m *mockTrackingRepo) FindByStudentAndTerm(ctx context.Context, studentID string, term int) (*models.TermTracking, error) {
	if r, ok := m.records[gradeKey(studentID, term)]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTrackingRepo) Upsert(ctx context.Context, tracking *models.TermTracking) error {
	if m.records == nil {
		m.records = make(map[string]models.TermTracking)
	}
	m.records[gradeKey(tracking.StudentID, tracking.Term)] = *tracking
	return nil
}

func newTrackingFixture() (*TrackingService, *mockTrackingRepo) {
	tracking := &mockTrackingRepo{}
	students := &mockStudentRepo{students: map[string]*models.Student{
		studentA: {ID: studentA, ClassID: "class-1", LastName: "Ait", FirstName: "Amine", SortOrder: 1},
	}}
	classes := &mockClassReader{classes: map[string]*models.Class{
		"class-1": {ID: "class-1", TeacherID: "teacher-1", Name: "3M2", AcademicYear: "2025-2026"},
	}}
	svc := NewTrackingService(tracking, students, classes, validator.New(), zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, tracking
}

func TestTrackingServiceStampsOnRisingEdge(t *testing.T) {
	svc, _ := newTrackingFixture()

	rec, err := svc.Upsert(context.Background(), studentA, "teacher-1", UpsertTrackingRequest{Term: 1, OralInterrogation: true})
	require.NoError(t, err)
	require.NotNil(t, rec.LastInterrogationAt)
	assert.Equal(t, fixedNow, *rec.LastInterrogationAt)
	assert.Nil(t, rec.LastNotebookCheckAt)
}

func TestTrackingServiceKeepsStampWhenFlagStaysTrue(t *testing.T) {
	svc, _ := newTrackingFixture()

	first, err := svc.Upsert(context.Background(), studentA, "teacher-1", UpsertTrackingRequest{Term: 1, OralInterrogation: true})
	require.NoError(t, err)

	later := fixedNow.Add(24 * time.Hour)
	svc.now = func() time.Time { return later }
	second, err := svc.Upsert(context.Background(), studentA, "teacher-1", UpsertTrackingRequest{Term: 1, OralInterrogation: true, NotebookChecked: true})
	require.NoError(t, err)
	assert.Equal(t, *first.LastInterrogationAt, *second.LastInterrogationAt, "true to true keeps the original stamp")
	require.NotNil(t, second.LastNotebookCheckAt)
	assert.Equal(t, later, *second.LastNotebookCheckAt)
}

func TestTrackingServiceKeepsStampWhenFlagDrops(t *testing.T) {
	svc, _ := newTrackingFixture()

	first, err := svc.Upsert(context.Background(), studentA, "teacher-1", UpsertTrackingRequest{Term: 1, OralInterrogation: true})
	require.NoError(t, err)

	dropped, err := svc.Upsert(context.Background(), studentA, "teacher-1", UpsertTrackingRequest{Term: 1, OralInterrogation: false})
	require.NoError(t, err)
	assert.False(t, dropped.OralInterrogation)
	require.NotNil(t, dropped.LastInterrogationAt)
	assert.Equal(t, *first.LastInterrogationAt, *dropped.LastInterrogationAt)
}

func TestTrackingServiceOwnership(t *testing.T) {
	svc, repo := newTrackingFixture()

	_, err := svc.Upsert(context.Background(), studentA, "teacher-2", UpsertTrackingRequest{Term: 1, OralInterrogation: true})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.records)
}

func TestTrackingServiceGet(t *testing.T) {
	svc, _ := newTrackingFixture()

	_, err := svc.Get(context.Background(), studentA, "teacher-1", 1)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), studentA, "teacher-1", 0)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
