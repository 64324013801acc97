package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/azinedine/school-manager-api/internal/models"
	"github.com/azinedine/school-manager-api/pkg/isoweek"
)

// ReviewRepository handles weekly review persistence. The natural key
// (student_id, year, week_number) is enforced by a unique constraint.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new review repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `id, student_id, class_id, teacher_id, year, week_number, week_start_date,
    notebook_checked, lesson_written, homework_done, score, observation_type, observation_notes,
    alert_resolved, resolved_at, created_at, updated_at`

// List returns reviews matching the filter ordered by year and week
// descending, with a total count for pagination.
func (r *ReviewRepository) List(ctx context.Context, filter models.WeeklyReviewFilter) ([]models.WeeklyReview, int, error) {
	conditions := []string{"class_id = $1"}
	args := []interface{}{filter.ClassID}

	if filter.Year != nil && filter.Week != nil {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, *filter.Year)
		conditions = append(conditions, fmt.Sprintf("week_number = $%d", len(args)+1))
		args = append(args, *filter.Week)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.PendingOnly {
		conditions = append(conditions, "observation_type <> 'OK' AND alert_resolved = false")
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM weekly_reviews WHERE %s", where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM weekly_reviews WHERE %s
        ORDER BY year DESC, week_number DESC LIMIT %d OFFSET %d`, reviewColumns, where, size, offset)

	var reviews []models.WeeklyReview
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

// FindByID fetches a single review.
func (r *ReviewRepository) FindByID(ctx context.Context, id string) (*models.WeeklyReview, error) {
	query := fmt.Sprintf("SELECT %s FROM weekly_reviews WHERE id = $1", reviewColumns)
	var review models.WeeklyReview
	if err := r.db.GetContext(ctx, &review, query, id); err != nil {
		return nil, err
	}
	return &review, nil
}

// FetchForWeeks returns all reviews of a class falling into any of the given
// ISO weeks, grouped by student id, in one query.
func (r *ReviewRepository) FetchForWeeks(ctx context.Context, classID string, weeks ...isoweek.Week) (map[string][]models.WeeklyReview, error) {
	if len(weeks) == 0 {
		return map[string][]models.WeeklyReview{}, nil
	}
	args := []interface{}{classID}
	pairs := make([]string, 0, len(weeks))
	for _, w := range weeks {
		pairs = append(pairs, fmt.Sprintf("(year = $%d AND week_number = $%d)", len(args)+1, len(args)+2))
		args = append(args, w.Year, w.Number)
	}
	query := fmt.Sprintf("SELECT %s FROM weekly_reviews WHERE class_id = $1 AND (%s)",
		reviewColumns, strings.Join(pairs, " OR "))

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch reviews: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]models.WeeklyReview)
	for rows.Next() {
		var review models.WeeklyReview
		if err := rows.StructScan(&review); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		result[review.StudentID] = append(result[review.StudentID], review)
	}
	return result, rows.Err()
}

// BatchUpsert writes a set of reviews in one transaction, inserting or
// overwriting by natural key. An overwrite resets the alert state: re-review
// always reopens.
func (r *ReviewRepository) BatchUpsert(ctx context.Context, reviews []models.WeeklyReview) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for i := range reviews {
		if reviews[i].ID == "" {
			reviews[i].ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if reviews[i].CreatedAt.IsZero() {
			reviews[i].CreatedAt = now
		}
		reviews[i].UpdatedAt = now
		const query = `INSERT INTO weekly_reviews (id, student_id, class_id, teacher_id, year, week_number, week_start_date,
            notebook_checked, lesson_written, homework_done, score, observation_type, observation_notes,
            alert_resolved, resolved_at, created_at, updated_at)
            VALUES (:id, :student_id, :class_id, :teacher_id, :year, :week_number, :week_start_date,
            :notebook_checked, :lesson_written, :homework_done, :score, :observation_type, :observation_notes,
            false, NULL, :created_at, :updated_at)
            ON CONFLICT (student_id, year, week_number)
            DO UPDATE SET notebook_checked = EXCLUDED.notebook_checked, lesson_written = EXCLUDED.lesson_written,
            homework_done = EXCLUDED.homework_done, score = EXCLUDED.score,
            observation_type = EXCLUDED.observation_type, observation_notes = EXCLUDED.observation_notes,
            week_start_date = EXCLUDED.week_start_date, alert_resolved = false, resolved_at = NULL,
            updated_at = EXCLUDED.updated_at`
		if _, err := tx.NamedExecContext(ctx, query, reviews[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert review: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reviews: %w", err)
	}
	return nil
}

// UpdateFields applies a partial update of observation fields. Alert state is
// untouched here, only Resolve and BatchUpsert modify it.
func (r *ReviewRepository) UpdateFields(ctx context.Context, id string, patch models.WeeklyReviewPatch) error {
	sets := []string{}
	args := []interface{}{id}

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	if patch.NotebookChecked != nil {
		add("notebook_checked", *patch.NotebookChecked)
	}
	if patch.LessonWritten != nil {
		add("lesson_written", *patch.LessonWritten)
	}
	if patch.HomeworkDone != nil {
		add("homework_done", *patch.HomeworkDone)
	}
	if patch.Score != nil {
		add("score", *patch.Score)
	}
	if patch.ObservationType != nil {
		add("observation_type", *patch.ObservationType)
	}
	if patch.ObservationNotes != nil {
		add("observation_notes", *patch.ObservationNotes)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())

	query := fmt.Sprintf("UPDATE weekly_reviews SET %s WHERE id = $1", strings.Join(sets, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("patch review: %w", err)
	}
	return nil
}

// Resolve marks the review's alert as resolved at the given time.
func (r *ReviewRepository) Resolve(ctx context.Context, id string, resolvedAt time.Time) error {
	const query = `UPDATE weekly_reviews SET alert_resolved = true, resolved_at = $2, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, resolvedAt); err != nil {
		return fmt.Errorf("resolve review: %w", err)
	}
	return nil
}

// Delete removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM weekly_reviews WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
