package models

import (
	"time"

	"github.com/azinedine/school-manager-api/pkg/isoweek"
)

// ObservationType classifies the outcome of a weekly student review.
type ObservationType string

const (
	ObservationOK               ObservationType = "OK"
	ObservationNoNotebook       ObservationType = "NO_NOTEBOOK"
	ObservationLessonNotWritten ObservationType = "LESSON_NOT_WRITTEN"
	ObservationIncomplete       ObservationType = "INCOMPLETE"
	ObservationHomeworkMissing  ObservationType = "HOMEWORK_MISSING"
	ObservationCommunication    ObservationType = "COMMUNICATION_NOTE"
	ObservationMultipleIssues   ObservationType = "MULTIPLE_ISSUES"
)

// Valid returns true when the observation type is a supported value.
func (o ObservationType) Valid() bool {
	switch o {
	case ObservationOK, ObservationNoNotebook, ObservationLessonNotWritten,
		ObservationIncomplete, ObservationHomeworkMissing,
		ObservationCommunication, ObservationMultipleIssues:
		return true
	default:
		return false
	}
}

// WeeklyReview is the pedagogical status of one student for one ISO week.
// At most one row exists per (student, year, week).
type WeeklyReview struct {
	ID               string          `db:"id" json:"id"`
	StudentID        string          `db:"student_id" json:"student_id"`
	ClassID          string          `db:"class_id" json:"class_id"`
	TeacherID        string          `db:"teacher_id" json:"teacher_id"`
	Year             int             `db:"year" json:"year"`
	WeekNumber       int             `db:"week_number" json:"week_number"`
	WeekStartDate    time.Time       `db:"week_start_date" json:"week_start_date"`
	NotebookChecked  bool            `db:"notebook_checked" json:"notebook_checked"`
	LessonWritten    bool            `db:"lesson_written" json:"lesson_written"`
	HomeworkDone     bool            `db:"homework_done" json:"homework_done"`
	Score            *float64        `db:"score" json:"score,omitempty"`
	ObservationType  ObservationType `db:"observation_type" json:"observation_type"`
	ObservationNotes *string         `db:"observation_notes" json:"observation_notes,omitempty"`
	AlertResolved    bool            `db:"alert_resolved" json:"alert_resolved"`
	ResolvedAt       *time.Time      `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// HasIssue reports whether the review flagged anything other than OK.
func (r *WeeklyReview) HasIssue() bool {
	return r.ObservationType != ObservationOK
}

// HasPendingAlert reports whether the review carries an unresolved issue.
func (r *WeeklyReview) HasPendingAlert() bool {
	return r.HasIssue() && !r.AlertResolved
}

// MatchesWeek reports whether the review belongs to the given ISO week.
func (r *WeeklyReview) MatchesWeek(w isoweek.Week) bool {
	return r.Year == w.Year && r.WeekNumber == w.Number
}

// WeeklyReviewFilter scopes review listing queries.
type WeeklyReviewFilter struct {
	ClassID     string
	Year        *int
	Week        *int
	StudentID   string
	PendingOnly bool
	Page        int
	PageSize    int
}

// WeeklyReviewPatch carries a partial update of observation fields. Nil
// pointers leave the stored value untouched; alert state is never part of a
// patch.
type WeeklyReviewPatch struct {
	NotebookChecked  *bool            `json:"notebook_checked"`
	LessonWritten    *bool            `json:"lesson_written"`
	HomeworkDone     *bool            `json:"homework_done"`
	Score            *float64         `json:"score" validate:"omitempty,gte=0,lte=20"`
	ObservationType  *ObservationType `json:"observation_type"`
	ObservationNotes *string          `json:"observation_notes" validate:"omitempty,max=1000"`
}

// Empty reports whether the patch carries no field at all.
func (p WeeklyReviewPatch) Empty() bool {
	return p.NotebookChecked == nil && p.LessonWritten == nil && p.HomeworkDone == nil &&
		p.Score == nil && p.ObservationType == nil && p.ObservationNotes == nil
}

// ThisWeekReview is the full projection of the current week's review inside a
// summary entry.
type ThisWeekReview struct {
	ID               string          `json:"id"`
	ObservationType  ObservationType `json:"observation_type"`
	NotebookChecked  bool            `json:"notebook_checked"`
	LessonWritten    bool            `json:"lesson_written"`
	HomeworkDone     bool            `json:"homework_done"`
	Score            *float64        `json:"score"`
	ObservationNotes *string         `json:"observation_notes"`
}

// LastWeekReview is the reduced projection of the prior week's review. It
// keeps alert_resolved visible so clients can surface superseded alerts.
type LastWeekReview struct {
	ID              string          `json:"id"`
	Week            int             `json:"week"`
	Year            int             `json:"year"`
	ObservationType ObservationType `json:"observation_type"`
	AlertResolved   bool            `json:"alert_resolved"`
}

// StudentWeeklySummary is the per-student entry of a class summary.
type StudentWeeklySummary struct {
	ReviewedThisWeek bool            `json:"reviewed_this_week"`
	ReviewedLastWeek bool            `json:"reviewed_last_week"`
	ThisWeekReview   *ThisWeekReview `json:"this_week_review"`
	LastReview       *LastWeekReview `json:"last_review"`
	HasPendingAlert  bool            `json:"has_pending_alert"`
}

// WeeklySummary aggregates the weekly status of every student in a class.
type WeeklySummary struct {
	CurrentWeek isoweek.Week                    `json:"current_week"`
	LastWeek    isoweek.Week                    `json:"last_week"`
	Students    map[string]StudentWeeklySummary `json:"students"`
}
