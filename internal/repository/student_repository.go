package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/azinedine/school-manager-api/internal/models"
)

// StudentRepository manages persistence for class rosters.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, class_id, student_number, last_name, first_name, date_of_birth, special_case, sort_order, created_at, updated_at`

// ListByClass returns the students of a class ordered by rank.
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE class_id = $1 ORDER BY sort_order", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// MaxSortOrder returns the highest rank currently used in a class, zero when
// the roster is empty.
func (r *StudentRepository) MaxSortOrder(ctx context.Context, classID string) (int, error) {
	var max sql.NullInt64
	if err := r.db.GetContext(ctx, &max, "SELECT MAX(sort_order) FROM students WHERE class_id = $1", classID); err != nil {
		return 0, fmt.Errorf("max sort order: %w", err)
	}
	return int(max.Int64), nil
}

// Create inserts a single student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	prepareStudent(student)
	if _, err := r.db.NamedExecContext(ctx, insertStudentQuery, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// BatchCreate inserts multiple students in one transaction.
func (r *StudentRepository) BatchCreate(ctx context.Context, students []models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for i := range students {
		prepareStudent(&students[i])
		if _, err := tx.NamedExecContext(ctx, insertStudentQuery, students[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("batch create student: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit students: %w", err)
	}
	return nil
}

const insertStudentQuery = `INSERT INTO students (id, class_id, student_number, last_name, first_name, date_of_birth, special_case, sort_order, created_at, updated_at)
    VALUES (:id, :class_id, :student_number, :last_name, :first_name, :date_of_birth, :special_case, :sort_order, :created_at, :updated_at)`

func prepareStudent(student *models.Student) {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET student_number = :student_number, last_name = :last_name, first_name = :first_name,
        date_of_birth = :date_of_birth, special_case = :special_case, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Move reassigns a student to another class at the given rank.
func (r *StudentRepository) Move(ctx context.Context, id, classID string, sortOrder int) error {
	const query = `UPDATE students SET class_id = $2, sort_order = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, classID, sortOrder, time.Now().UTC()); err != nil {
		return fmt.Errorf("move student: %w", err)
	}
	return nil
}

// Reorder rewrites the rank of each listed student, in list order, within one
// transaction.
func (r *StudentRepository) Reorder(ctx context.Context, ids []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, "UPDATE students SET sort_order = $2, updated_at = $3 WHERE id = $1", id, i+1, now); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("reorder student %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

// Delete removes a student and dependent records.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// Roster returns the class roster joined with term grades and term tracking,
// substituting zero-value marks where no record exists yet.
func (r *StudentRepository) Roster(ctx context.Context, classID string, term int) ([]models.StudentRosterRow, error) {
	const query = `SELECT s.id, s.class_id, s.student_number, s.last_name, s.first_name, s.date_of_birth, s.special_case,
        s.sort_order, s.created_at, s.updated_at,
        COALESCE(g.behavior, 0) AS behavior, COALESCE(g.applications, 0) AS applications,
        COALESCE(g.notebook, 0) AS notebook, COALESCE(g.assignment, 0) AS assignment, COALESCE(g.exam, 0) AS exam,
        COALESCE(t.oral_interrogation, false) AS oral_interrogation, COALESCE(t.notebook_checked, false) AS notebook_checked,
        t.last_interrogation_at, t.last_notebook_check_at
        FROM students s
        LEFT JOIN term_grades g ON g.student_id = s.id AND g.term = $2
        LEFT JOIN term_tracking t ON t.student_id = s.id AND t.term = $2
        WHERE s.class_id = $1
        ORDER BY s.sort_order`
	rows, err := r.db.QueryxContext(ctx, query, classID, term)
	if err != nil {
		return nil, fmt.Errorf("class roster: %w", err)
	}
	defer rows.Close()

	var roster []models.StudentRosterRow
	for rows.Next() {
		var row rosterScanRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan roster row: %w", err)
		}
		roster = append(roster, row.toModel())
	}
	return roster, rows.Err()
}

// rosterScanRow flattens the joined columns for StructScan.
type rosterScanRow struct {
	models.Student
	Behavior            float64    `db:"behavior"`
	Applications        float64    `db:"applications"`
	Notebook            float64    `db:"notebook"`
	Assignment          float64    `db:"assignment"`
	Exam                float64    `db:"exam"`
	OralInterrogation   bool       `db:"oral_interrogation"`
	NotebookChecked     bool       `db:"notebook_checked"`
	LastInterrogationAt *time.Time `db:"last_interrogation_at"`
	LastNotebookCheckAt *time.Time `db:"last_notebook_check_at"`
}

func (r rosterScanRow) toModel() models.StudentRosterRow {
	return models.StudentRosterRow{
		Student:             r.Student,
		Behavior:            r.Behavior,
		Applications:        r.Applications,
		Notebook:            r.Notebook,
		Assignment:          r.Assignment,
		Exam:                r.Exam,
		OralInterrogation:   r.OralInterrogation,
		NotebookChecked:     r.NotebookChecked,
		LastInterrogationAt: r.LastInterrogationAt,
		LastNotebookCheckAt: r.LastNotebookCheckAt,
	}
}
