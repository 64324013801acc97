package models

import "time"

// TermTracking records per-term pedagogical checkpoints for one student.
// Timestamps are stamped only when a flag transitions from false to true.
type TermTracking struct {
	ID                  string     `db:"id" json:"id"`
	StudentID           string     `db:"student_id" json:"student_id"`
	Term                int        `db:"term" json:"term"`
	OralInterrogation   bool       `db:"oral_interrogation" json:"oral_interrogation"`
	NotebookChecked     bool       `db:"notebook_checked" json:"notebook_checked"`
	LastInterrogationAt *time.Time `db:"last_interrogation_at" json:"last_interrogation_at,omitempty"`
	LastNotebookCheckAt *time.Time `db:"last_notebook_check_at" json:"last_notebook_check_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}
