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
	"github.com/azinedine/school-manager-api/pkg/isoweek"
)

type reviewRepo interface {
	List(ctx context.Context, filter models.WeeklyReviewFilter) ([]models.WeeklyReview, int, error)
	FindByID(ctx context.Context, id string) (*models.WeeklyReview, error)
	FetchForWeeks(ctx context.Context, classID string, weeks ...isoweek.Week) (map[string][]models.WeeklyReview, error)
	BatchUpsert(ctx context.Context, reviews []models.WeeklyReview) error
	UpdateFields(ctx context.Context, id string, patch models.WeeklyReviewPatch) error
	Resolve(ctx context.Context, id string, resolvedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type studentReader interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
}

// BatchReviewItem is one student's entry within a batch upsert payload.
type BatchReviewItem struct {
	StudentID        string                  `json:"student_id" validate:"required,uuid"`
	NotebookChecked  bool                    `json:"notebook_checked"`
	LessonWritten    *bool                   `json:"lesson_written"`
	HomeworkDone     *bool                   `json:"homework_done"`
	Score            *float64                `json:"score" validate:"omitempty,gte=0,lte=20"`
	ObservationType  *models.ObservationType `json:"observation_type"`
	ObservationNotes *string                 `json:"observation_notes" validate:"omitempty,max=1000"`
}

// BatchUpsertReviewsRequest carries a full week submission for one class.
type BatchUpsertReviewsRequest struct {
	Year    int               `json:"year" validate:"required,gte=2020,lte=2100"`
	Week    int               `json:"week_number" validate:"required,gte=1,lte=53"`
	Reviews []BatchReviewItem `json:"reviews" validate:"required,min=1,dive"`
}

// ReviewService orchestrates weekly review flows for class teachers.
type ReviewService struct {
	reviews   reviewRepo
	classes   classReader
	students  studentReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewReviewService constructs ReviewService.
func NewReviewService(reviews reviewRepo, classes classReader, students studentReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		reviews:   reviews,
		classes:   classes,
		students:  students,
		cache:     cache,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ownedClass loads the class and verifies the requester owns it.
func (s *ReviewService) ownedClass(ctx context.Context, classID, teacherID string) (*models.Class, error) {
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

// ownedReview loads a review and verifies the requester owns its class.
func (s *ReviewService) ownedReview(ctx context.Context, reviewID, teacherID string) (*models.WeeklyReview, error) {
	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "weekly review not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly review")
	}
	if review.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "weekly review belongs to another teacher")
	}
	return review, nil
}

func summaryCacheKey(classID string, week isoweek.Week) string {
	return fmt.Sprintf("summary:class:%s:%d:%d", classID, week.Year, week.Number)
}

func summaryCachePattern(classID string) string {
	return fmt.Sprintf("summary:class:%s:*", classID)
}

// Summary aggregates the weekly status of every student in the class for the
// current ISO week, carrying the previous week's review alongside.
func (s *ReviewService) Summary(ctx context.Context, classID, teacherID string) (*models.WeeklySummary, error) {
	if _, err := s.ownedClass(ctx, classID, teacherID); err != nil {
		return nil, err
	}

	ref := s.now()
	current := isoweek.FromTime(ref)
	last := isoweek.Previous(ref)

	if s.cache.Enabled() {
		var cached models.WeeklySummary
		if hit, err := s.cache.Get(ctx, summaryCacheKey(classID, current), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	byStudent, err := s.reviews.FetchForWeeks(ctx, classID, current, last)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch weekly reviews")
	}

	summary := &models.WeeklySummary{
		CurrentWeek: current,
		LastWeek:    last,
		Students:    make(map[string]models.StudentWeeklySummary, len(students)),
	}
	for _, student := range students {
		var thisWeek, lastWeek *models.WeeklyReview
		for i := range byStudent[student.ID] {
			review := &byStudent[student.ID][i]
			switch {
			case review.MatchesWeek(current):
				thisWeek = review
			case review.MatchesWeek(last):
				lastWeek = review
			}
		}

		entry := models.StudentWeeklySummary{
			ReviewedThisWeek: thisWeek != nil,
			ReviewedLastWeek: lastWeek != nil,
		}
		if thisWeek != nil {
			entry.ThisWeekReview = &models.ThisWeekReview{
				ID:               thisWeek.ID,
				ObservationType:  thisWeek.ObservationType,
				NotebookChecked:  thisWeek.NotebookChecked,
				LessonWritten:    thisWeek.LessonWritten,
				HomeworkDone:     thisWeek.HomeworkDone,
				Score:            thisWeek.Score,
				ObservationNotes: thisWeek.ObservationNotes,
			}
		}
		if lastWeek != nil {
			entry.LastReview = &models.LastWeekReview{
				ID:              lastWeek.ID,
				Week:            lastWeek.WeekNumber,
				Year:            lastWeek.Year,
				ObservationType: lastWeek.ObservationType,
				AlertResolved:   lastWeek.AlertResolved,
			}
			entry.HasPendingAlert = lastWeek.HasPendingAlert() && thisWeek == nil
		}
		summary.Students[student.ID] = entry
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, summaryCacheKey(classID, current), summary, 0); err != nil {
			s.logger.Warn("failed to cache weekly summary", zap.String("class_id", classID), zap.Error(err))
		}
	}
	return summary, nil
}

// List returns paginated reviews for a class the requester owns.
func (s *ReviewService) List(ctx context.Context, classID, teacherID string, filter models.WeeklyReviewFilter) ([]models.WeeklyReview, int, error) {
	if _, err := s.ownedClass(ctx, classID, teacherID); err != nil {
		return nil, 0, err
	}
	if filter.Week != nil && filter.Year == nil {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "week filter requires year")
	}
	filter.ClassID = classID
	reviews, total, err := s.reviews.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list weekly reviews")
	}
	return reviews, total, nil
}

// BatchUpsert writes a full week of reviews for a class in one transaction.
// Every student must belong to the class; otherwise nothing is written.
// Overwriting an existing week resets its alert state.
func (s *ReviewService) BatchUpsert(ctx context.Context, classID, teacherID string, req BatchUpsertReviewsRequest) ([]models.WeeklyReview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	class, err := s.ownedClass(ctx, classID, teacherID)
	if err != nil {
		return nil, err
	}

	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	roster := make(map[string]struct{}, len(students))
	for _, student := range students {
		roster[student.ID] = struct{}{}
	}

	week := isoweek.Week{Year: req.Year, Number: req.Week, StartDate: isoweek.StartDate(req.Year, req.Week)}
	rows := make([]models.WeeklyReview, 0, len(req.Reviews))
	seen := make(map[string]struct{}, len(req.Reviews))
	for _, item := range req.Reviews {
		if _, ok := roster[item.StudentID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not in this class", item.StudentID))
		}
		if _, ok := seen[item.StudentID]; ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate entry for student %s", item.StudentID))
		}
		seen[item.StudentID] = struct{}{}

		observation := models.ObservationOK
		if item.ObservationType != nil {
			if !item.ObservationType.Valid() {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown observation type %q", *item.ObservationType))
			}
			observation = *item.ObservationType
		}
		// Omitted lesson_written and homework_done default to true.
		lessonWritten := true
		if item.LessonWritten != nil {
			lessonWritten = *item.LessonWritten
		}
		homeworkDone := true
		if item.HomeworkDone != nil {
			homeworkDone = *item.HomeworkDone
		}
		rows = append(rows, models.WeeklyReview{
			StudentID:        item.StudentID,
			ClassID:          classID,
			TeacherID:        class.TeacherID,
			Year:             week.Year,
			WeekNumber:       week.Number,
			WeekStartDate:    week.StartDate,
			NotebookChecked:  item.NotebookChecked,
			LessonWritten:    lessonWritten,
			HomeworkDone:     homeworkDone,
			Score:            item.Score,
			ObservationType:  observation,
			ObservationNotes: item.ObservationNotes,
		})
	}

	if err := s.reviews.BatchUpsert(ctx, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert weekly reviews")
	}
	s.invalidateSummary(ctx, classID)

	byStudent, err := s.reviews.FetchForWeeks(ctx, classID, week)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload weekly reviews")
	}
	saved := make([]models.WeeklyReview, 0, len(rows))
	for _, row := range rows {
		for _, review := range byStudent[row.StudentID] {
			if review.MatchesWeek(week) {
				saved = append(saved, review)
				break
			}
		}
	}
	return saved, nil
}

// Patch applies a partial update of observation fields. Alert state is never
// part of a patch.
func (s *ReviewService) Patch(ctx context.Context, reviewID, teacherID string, patch models.WeeklyReviewPatch) (*models.WeeklyReview, error) {
	if err := s.validator.Struct(patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid patch payload")
	}
	if patch.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "patch carries no fields")
	}
	if patch.ObservationType != nil && !patch.ObservationType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown observation type %q", *patch.ObservationType))
	}
	review, err := s.ownedReview(ctx, reviewID, teacherID)
	if err != nil {
		return nil, err
	}
	if err := s.reviews.UpdateFields(ctx, reviewID, patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update weekly review")
	}
	s.invalidateSummary(ctx, review.ClassID)

	updated, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload weekly review")
	}
	return updated, nil
}

// Resolve marks the review's alert as handled. Resolving an already-resolved
// review simply re-stamps the timestamp.
func (s *ReviewService) Resolve(ctx context.Context, reviewID, teacherID string) (*models.WeeklyReview, error) {
	review, err := s.ownedReview(ctx, reviewID, teacherID)
	if err != nil {
		return nil, err
	}
	if err := s.reviews.Resolve(ctx, reviewID, s.now()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve weekly review")
	}
	s.invalidateSummary(ctx, review.ClassID)

	updated, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload weekly review")
	}
	return updated, nil
}

// Delete removes a review owned by the requester.
func (s *ReviewService) Delete(ctx context.Context, reviewID, teacherID string) error {
	review, err := s.ownedReview(ctx, reviewID, teacherID)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete weekly review")
	}
	s.invalidateSummary(ctx, review.ClassID)
	return nil
}

func (s *ReviewService) invalidateSummary(ctx context.Context, classID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, summaryCachePattern(classID)); err != nil {
		s.logger.Warn("failed to invalidate summary cache", zap.String("class_id", classID), zap.Error(err))
	}
}
