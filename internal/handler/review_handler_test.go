package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/azinedine/school-manager-api/internal/middleware"
	"github.com/azinedine/school-manager-api/internal/models"
	"github.com/azinedine/school-manager-api/internal/service"
	"github.com/azinedine/school-manager-api/pkg/isoweek"
)

type fakeReviewRepo struct {
	reviews []models.WeeklyReview
}

func (f *fakeReviewRepo) List(ctx context.Context, filter models.WeeklyReviewFilter) ([]models.WeeklyReview, int, error) {
	return f.reviews, len(f.reviews), nil
}

func (f *fakeReviewRepo) FindByID(ctx context.Context, id string) (*models.WeeklyReview, error) {
	for i := range f.reviews {
		if f.reviews[i].ID == id {
			return &f.reviews[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeReviewRepo) FetchForWeeks(ctx context.Context, classID string, weeks ...isoweek.Week) (map[string][]models.WeeklyReview, error) {
	result := make(map[string][]models.WeeklyReview)
	for _, r := range f.reviews {
		for _, w := range weeks {
			if r.MatchesWeek(w) {
				result[r.StudentID] = append(result[r.StudentID], r)
				break
			}
		}
	}
	return result, nil
}

func (f *fakeReviewRepo) BatchUpsert(ctx context.Context, reviews []models.WeeklyReview) error {
	f.reviews = append(f.reviews, reviews...)
	return nil
}

func (f *fakeReviewRepo) UpdateFields(ctx context.Context, id string, patch models.WeeklyReviewPatch) error {
	return nil
}

func (f *fakeReviewRepo) Resolve(ctx context.Context, id string, resolvedAt time.Time) error {
	return nil
}

func (f *fakeReviewRepo) Delete(ctx context.Context, id string) error {
	return nil
}

type fakeClassReader struct {
	class *models.Class
}

func (f *fakeClassReader) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if f.class != nil && f.class.ID == id {
		return f.class, nil
	}
	return nil, sql.ErrNoRows
}

type fakeStudentReader struct {
	students []models.Student
}

func (f *fakeStudentReader) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	return f.students, nil
}

func newReviewHandlerFixture(repo *fakeReviewRepo) *ReviewHandler {
	classes := &fakeClassReader{class: &models.Class{ID: "class-1", TeacherID: "teacher-1", Name: "3M2"}}
	students := &fakeStudentReader{students: []models.Student{
		{ID: "stu-1", ClassID: "class-1", LastName: "Ait", FirstName: "Amine", SortOrder: 1},
	}}
	svc := service.NewReviewService(repo, classes, students, nil, validator.New(), zap.NewNop())
	return NewReviewHandler(svc)
}

func TestReviewHandlerSummaryRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReviewHandlerFixture(&fakeReviewRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/classes/class-1/weekly-reviews/summary", nil)
	c.Params = gin.Params{{Key: "classId", Value: "class-1"}}

	handler.Summary(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReviewHandlerSummarySuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReviewHandlerFixture(&fakeReviewRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/classes/class-1/weekly-reviews/summary", nil)
	c.Params = gin.Params{{Key: "classId", Value: "class-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1"})

	handler.Summary(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.WeeklySummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Students, 1)
	assert.Contains(t, envelope.Data.Students, "stu-1")
}

func TestReviewHandlerSummaryForbiddenForOtherTeacher(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReviewHandlerFixture(&fakeReviewRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/classes/class-1/weekly-reviews/summary", nil)
	c.Params = gin.Params{{Key: "classId", Value: "class-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-2"})

	handler.Summary(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReviewHandlerBatchRejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReviewHandlerFixture(&fakeReviewRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/classes/class-1/weekly-reviews/batch", strings.NewReader("{not json"))
	c.Params = gin.Params{{Key: "classId", Value: "class-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1"})

	handler.Batch(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReviewHandlerBatchBindsWeekNumber(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const studentID = "11111111-1111-1111-1111-111111111111"
	repo := &fakeReviewRepo{}
	classes := &fakeClassReader{class: &models.Class{ID: "class-1", TeacherID: "teacher-1", Name: "3M2"}}
	students := &fakeStudentReader{students: []models.Student{
		{ID: studentID, ClassID: "class-1", LastName: "Ait", FirstName: "Amine", SortOrder: 1},
	}}
	svc := service.NewReviewService(repo, classes, students, nil, validator.New(), zap.NewNop())
	handler := NewReviewHandler(svc)

	payload := `{"year": 2026, "week_number": 11, "reviews": [{"student_id": "` + studentID + `"}]}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/classes/class-1/weekly-reviews/batch", strings.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "classId", Value: "class-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1"})

	handler.Batch(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, repo.reviews, 1)
	assert.Equal(t, 2026, repo.reviews[0].Year)
	assert.Equal(t, 11, repo.reviews[0].WeekNumber)
	assert.True(t, repo.reviews[0].LessonWritten, "omitted lesson_written defaults to true")
	assert.True(t, repo.reviews[0].HomeworkDone, "omitted homework_done defaults to true")
	assert.False(t, repo.reviews[0].NotebookChecked)
}

func TestReviewHandlerBatchValidationErrorIs422(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReviewHandlerFixture(&fakeReviewRepo{})

	payload := `{"year": 2026, "week_number": 11, "reviews": [{"student_id": "not-in-class"}]}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/classes/class-1/weekly-reviews/batch", strings.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "classId", Value: "class-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1"})

	handler.Batch(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
