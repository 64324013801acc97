package isoweek

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFromTimeYearRollover(t *testing.T) {
	// 2027-01-01 is a Friday inside ISO week 53 of 2026.
	w := FromTime(date(2027, time.January, 1))
	assert.Equal(t, 2026, w.Year)
	assert.Equal(t, 53, w.Number)
	assert.Equal(t, date(2026, time.December, 28), w.StartDate)

	// 2024-12-31 is a Tuesday inside ISO week 1 of 2025.
	w = FromTime(date(2024, time.December, 31))
	assert.Equal(t, 2025, w.Year)
	assert.Equal(t, 1, w.Number)
	assert.Equal(t, date(2024, time.December, 30), w.StartDate)
}

func TestFromTimeMidYear(t *testing.T) {
	w := FromTime(date(2026, time.January, 22)) // Thursday, week 4
	assert.Equal(t, 2026, w.Year)
	assert.Equal(t, 4, w.Number)
	assert.Equal(t, date(2026, time.January, 19), w.StartDate)
}

func TestPreviousRollsIntoPriorISOYear(t *testing.T) {
	// 2026-01-01 lies in 2026-W01; the week before is 2025-W52
	// (2025 has 52 ISO weeks).
	now := date(2026, time.January, 1)
	require.Equal(t, 2026, FromTime(now).Year)
	require.Equal(t, 1, FromTime(now).Number)

	prev := Previous(now)
	assert.Equal(t, 2025, prev.Year)
	assert.Equal(t, 52, prev.Number)
	assert.Equal(t, date(2025, time.December, 22), prev.StartDate)
}

func TestPreviousAcross53WeekYear(t *testing.T) {
	// 2021-01-07 is in 2021-W01; the prior week is 2020-W53.
	prev := Previous(date(2021, time.January, 7))
	assert.Equal(t, 2020, prev.Year)
	assert.Equal(t, 53, prev.Number)
	assert.Equal(t, date(2020, time.December, 28), prev.StartDate)
}

func TestPreviousMidYear(t *testing.T) {
	prev := Previous(date(2026, time.March, 18))
	assert.Equal(t, 2026, prev.Year)
	assert.Equal(t, 11, prev.Number)
}

func TestStartDate(t *testing.T) {
	assert.Equal(t, date(2026, time.January, 19), StartDate(2026, 4))
	assert.Equal(t, date(2020, time.December, 28), StartDate(2020, 53))
	assert.Equal(t, date(2024, time.December, 30), StartDate(2025, 1))
	assert.Equal(t, date(2026, time.December, 28), StartDate(2026, 53))
}

func TestStartDateRoundTrips(t *testing.T) {
	for _, w := range []struct{ year, week int }{
		{2020, 1}, {2020, 53}, {2021, 52}, {2025, 1}, {2026, 27},
	} {
		start := StartDate(w.year, w.week)
		got := FromTime(start)
		require.Equal(t, w.year, got.Year, "year for %v", w)
		require.Equal(t, w.week, got.Number, "week for %v", w)
		require.Equal(t, start, got.StartDate)
	}
}
