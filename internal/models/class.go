package models

import "time"

// Class represents a class roster owned by a single teacher.
type Class struct {
	ID           string    `db:"id" json:"id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	Name         string    `db:"name" json:"name"`
	Subject      *string   `db:"subject" json:"subject,omitempty"`
	GradeLevel   *string   `db:"grade_level" json:"grade_level,omitempty"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with its ordered student roster.
type ClassDetail struct {
	Class
	Students []Student `json:"students"`
}

// ClassFilter defines filter criteria for listing a teacher's classes.
type ClassFilter struct {
	TeacherID    string
	AcademicYear string
}
