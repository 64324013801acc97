// Package isoweek implements ISO-8601 week-date arithmetic. Weeks start on
// Monday and week 1 is the week containing the year's first Thursday, so the
// ISO week-year can differ from the calendar year around January 1.
package isoweek

import "time"

// Week identifies a single ISO week together with its Monday.
type Week struct {
	Year      int       `json:"year"`
	Number    int       `json:"week"`
	StartDate time.Time `json:"week_start"`
}

// FromTime returns the ISO week containing t.
func FromTime(t time.Time) Week {
	year, number := t.ISOWeek()
	return Week{Year: year, Number: number, StartDate: mondayOf(t)}
}

// Previous returns the ISO week seven days before t. Shifting the date and
// recomputing keeps year rollover correct: the week before week 1 is week 52
// or 53 of the prior ISO year.
func Previous(t time.Time) Week {
	return FromTime(t.AddDate(0, 0, -7))
}

// StartDate returns the Monday of the given ISO week. Per the week-date rule
// January 4 always falls in week 1 of its ISO year.
func StartDate(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	return mondayOf(jan4).AddDate(0, 0, (week-1)*7)
}

func mondayOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := int(day.Weekday()+6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}
