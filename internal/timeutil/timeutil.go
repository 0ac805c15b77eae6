// Package timeutil holds the calendar-day arithmetic used to pair
// entrance and exit punches. All computations are in UTC.
package timeutil

import (
	"math"
	"time"
)

// TruncateDay drops the time-of-day component, yielding midnight UTC of
// the same calendar day.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SubtractOneDay shifts a timestamp one calendar day back.
func SubtractOneDay(t time.Time) time.Time {
	return t.AddDate(0, 0, -1)
}

// DiffHours returns the absolute elapsed hours between two instants.
func DiffHours(a, b time.Time) float64 {
	return math.Abs(a.Sub(b).Hours())
}

// SameDay reports whether two instants fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return TruncateDay(a).Equal(TruncateDay(b))
}
