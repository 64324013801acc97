package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/azinedine/school-manager-api/internal/models"
	appErrors "github.com/azinedine/school-manager-api/pkg/errors"
	"github.com/azinedine/school-manager-api/pkg/isoweek"
)

func newExportFixture() (*ExportService, *mockReviewRepo) {
	reviews := &mockReviewRepo{}
	classes := &mockClassReader{classes: map[string]*models.Class{
		"class-1": {ID: "class-1", TeacherID: "teacher-1", Name: "3M2", AcademicYear: "2025-2026"},
	}}
	students := &mockStudentReader{students: map[string][]models.Student{
		"class-1": {
			{ID: studentA, ClassID: "class-1", LastName: "Ait", FirstName: "Amine", SortOrder: 1},
			{ID: studentB, ClassID: "class-1", LastName: "Ben", FirstName: "Basma", SortOrder: 2},
		},
	}}
	return NewExportService(reviews, classes, students, zap.NewNop()), reviews
}

func TestExportServiceWeeklySheetCSVCoversRoster(t *testing.T) {
	svc, repo := newExportFixture()
	week := isoweek.Week{Year: 2026, Number: 11, StartDate: isoweek.StartDate(2026, 11)}
	score := 15.5
	review := seedReview(repo, studentA, week, models.ObservationHomeworkMissing, false)
	review.Score = &score
	repo.put(review)

	file, err := svc.WeeklySheet(context.Background(), "class-1", "teacher-1", 2026, 11, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Contains(t, file.FileName, "2026-W11")

	content := string(file.Content)
	lines := strings.Split(strings.TrimSpace(content), "\n")
	assert.Len(t, lines, 3, "header plus one line per student")
	assert.Contains(t, content, "Ait Amine")
	assert.Contains(t, content, "HOMEWORK_MISSING")
	assert.Contains(t, content, "15.5")
	assert.Contains(t, content, "Ben Basma")
}

func TestExportServiceWeeklySheetPDF(t *testing.T) {
	svc, _ := newExportFixture()

	file, err := svc.WeeklySheet(context.Background(), "class-1", "teacher-1", 2026, 11, FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Content), "%PDF"))
}

func TestExportServiceWeeklySheetValidation(t *testing.T) {
	svc, _ := newExportFixture()

	_, err := svc.WeeklySheet(context.Background(), "class-1", "teacher-1", 2026, 11, "xlsx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.WeeklySheet(context.Background(), "class-1", "teacher-1", 2026, 60, FormatCSV)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.WeeklySheet(context.Background(), "class-1", "teacher-2", 2026, 11, FormatCSV)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
