package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/azinedine/school-manager-api/internal/models"
)

// GradeRepository handles term grade persistence.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const termGradeUpsertQuery = `INSERT INTO term_grades (id, student_id, term, behavior, applications, notebook, assignment, exam, created_at, updated_at)
    VALUES (:id, :student_id, :term, :behavior, :applications, :notebook, :assignment, :exam, :created_at, :updated_at)
    ON CONFLICT (student_id, term)
    DO UPDATE SET behavior = EXCLUDED.behavior, applications = EXCLUDED.applications, notebook = EXCLUDED.notebook,
    assignment = EXCLUDED.assignment, exam = EXCLUDED.exam, updated_at = EXCLUDED.updated_at`

// FindByStudentAndTerm fetches the grade record for one student and term.
func (r *GradeRepository) FindByStudentAndTerm(ctx context.Context, studentID string, term int) (*models.TermGrade, error) {
	const query = `SELECT id, student_id, term, behavior, applications, notebook, assignment, exam, created_at, updated_at
        FROM term_grades WHERE student_id = $1 AND term = $2`
	var grade models.TermGrade
	if err := r.db.GetContext(ctx, &grade, query, studentID, term); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Upsert inserts or updates a grade record by (student, term).
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.TermGrade) error {
	prepareGrade(grade)
	if _, err := r.db.NamedExecContext(ctx, termGradeUpsertQuery, grade); err != nil {
		return fmt.Errorf("upsert term grade: %w", err)
	}
	return nil
}

// BulkUpsert writes multiple grade records in one transaction.
func (r *GradeRepository) BulkUpsert(ctx context.Context, grades []models.TermGrade) error {
	if len(grades) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for i := range grades {
		prepareGrade(&grades[i])
		if _, err := tx.NamedExecContext(ctx, termGradeUpsertQuery, grades[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk upsert term grade: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit term grades: %w", err)
	}
	return nil
}

func prepareGrade(grade *models.TermGrade) {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
}
