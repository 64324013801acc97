package models

import (
	"math"
	"time"
)

// TermGrade holds continuous assessment and exam marks for one student and
// one term. Behavior, applications and notebook are marked out of 5;
// assignment and exam out of 20.
type TermGrade struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	Term         int       `db:"term" json:"term"`
	Behavior     float64   `db:"behavior" json:"behavior"`
	Applications float64   `db:"applications" json:"applications"`
	Notebook     float64   `db:"notebook" json:"notebook"`
	Assignment   float64   `db:"assignment" json:"assignment"`
	Exam         float64   `db:"exam" json:"exam"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ContinuousAssessment scales the three out-of-5 marks to a mark out of 20.
func (g *TermGrade) ContinuousAssessment() float64 {
	total := g.Behavior + g.Applications + g.Notebook
	return round2(total / 15 * 20)
}

// FinalAverage combines continuous assessment, assignment and exam.
func (g *TermGrade) FinalAverage() float64 {
	return round2((g.ContinuousAssessment() + g.Assignment + g.Exam) / 3)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
