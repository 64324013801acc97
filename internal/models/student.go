package models

import "time"

// Student represents a learner within a class roster.
type Student struct {
	ID            string     `db:"id" json:"id"`
	ClassID       string     `db:"class_id" json:"class_id"`
	StudentNumber *string    `db:"student_number" json:"student_number,omitempty"`
	LastName      string     `db:"last_name" json:"last_name"`
	FirstName     string     `db:"first_name" json:"first_name"`
	DateOfBirth   *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	SpecialCase   *string    `db:"special_case" json:"special_case,omitempty"`
	SortOrder     int        `db:"sort_order" json:"sort_order"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentRosterRow merges a student with the term grade and tracking state
// used by the gradebook roster view. Grade and tracking fields fall back to
// zero-value records when the student has none for the term.
type StudentRosterRow struct {
	Student
	Behavior     float64 `json:"behavior"`
	Applications float64 `json:"applications"`
	Notebook     float64 `json:"notebook"`
	Assignment   float64 `json:"assignment"`
	Exam         float64 `json:"exam"`

	OralInterrogation   bool       `json:"oral_interrogation"`
	NotebookChecked     bool       `json:"notebook_checked"`
	LastInterrogationAt *time.Time `json:"last_interrogation_at,omitempty"`
	LastNotebookCheckAt *time.Time `json:"last_notebook_check_at,omitempty"`
}
