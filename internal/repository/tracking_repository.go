package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/azinedine/school-manager-api/internal/models"
)

// TrackingRepository handles term pedagogical tracking persistence.
type TrackingRepository struct {
	db *sqlx.DB
}

// NewTrackingRepository creates a new tracking repository.
func NewTrackingRepository(db *sqlx.DB) *TrackingRepository {
	return &TrackingRepository{db: db}
}

// FindByStudentAndTerm fetches the tracking record for one student and term.
func (r *TrackingRepository) FindByStudentAndTerm(ctx context.Context, studentID string, term int) (*models.TermTracking, error) {
	const query = `SELECT id, student_id, term, oral_interrogation, notebook_checked,
        last_interrogation_at, last_notebook_check_at, created_at, updated_at
        FROM term_tracking WHERE student_id = $1 AND term = $2`
	var tracking models.TermTracking
	if err := r.db.GetContext(ctx, &tracking, query, studentID, term); err != nil {
		return nil, err
	}
	return &tracking, nil
}

// Upsert inserts or updates a tracking record by (student, term).
func (r *TrackingRepository) Upsert(ctx context.Context, tracking *models.TermTracking) error {
	if tracking.ID == "" {
		tracking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tracking.CreatedAt.IsZero() {
		tracking.CreatedAt = now
	}
	tracking.UpdatedAt = now
	const query = `INSERT INTO term_tracking (id, student_id, term, oral_interrogation, notebook_checked,
        last_interrogation_at, last_notebook_check_at, created_at, updated_at)
        VALUES (:id, :student_id, :term, :oral_interrogation, :notebook_checked,
        :last_interrogation_at, :last_notebook_check_at, :created_at, :updated_at)
        ON CONFLICT (student_id, term)
        DO UPDATE SET oral_interrogation = EXCLUDED.oral_interrogation, notebook_checked = EXCLUDED.notebook_checked,
        last_interrogation_at = EXCLUDED.last_interrogation_at, last_notebook_check_at = EXCLUDED.last_notebook_check_at,
        updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, tracking); err != nil {
		return fmt.Errorf("upsert term tracking: %w", err)
	}
	return nil
}
