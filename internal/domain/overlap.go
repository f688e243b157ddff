package domain

import "time"

// Overlaps reports whether two half-open ranges [start, end) share a day.
// Ranges that only touch at a boundary do not overlap.
func Overlaps(existingStart, existingEnd, candidateStart, candidateEnd time.Time) bool {
	return candidateStart.Before(existingEnd) && existingStart.Before(candidateEnd)
}

// IntersectsWindow reports whether [start, end] meets the closed window
// [winStart, winEnd]. Calendar views use this; booking conflicts use Overlaps.
func IntersectsWindow(start, end, winStart, winEnd time.Time) bool {
	return !start.After(winEnd) && !end.Before(winStart)
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights counts whole days between check-in and check-out.
func Nights(checkIn, checkOut time.Time) int {
	return int(Day(checkOut).Sub(Day(checkIn)) / (24 * time.Hour))
}
