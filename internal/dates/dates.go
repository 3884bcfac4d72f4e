// Package dates holds the calendar-day arithmetic shared by pricing, validation
// and conflict detection. A "day" is a date-only value represented as midnight UTC,
// so day arithmetic never crosses a DST transition.
package dates

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("dates: end must be after start")

const day = 24 * time.Hour

// NormalizeToCalendarDay truncates an instant to its calendar date as observed in loc.
func NormalizeToCalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NightsBetween counts the nights between two instants after normalizing both
// to calendar days in loc.
func NightsBetween(start, end time.Time, loc *time.Location) (int, error) {
	s := NormalizeToCalendarDay(start, loc)
	e := NormalizeToCalendarDay(end, loc)
	if !e.After(s) {
		return 0, ErrInvalidRange
	}
	return int(e.Sub(s) / day), nil
}

// RangesOverlap is the half-open overlap test [aStart,aEnd) vs [bStart,bEnd).
// A stay ending on the day another begins does not overlap it.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Contains reports whether [innerStart,innerEnd) lies within [outerStart,outerEnd).
func Contains(outerStart, outerEnd, innerStart, innerEnd time.Time) bool {
	return !innerStart.Before(outerStart) && !innerEnd.After(outerEnd)
}

// Days lists every night in [start, end). Both bounds must already be days.
func Days(start, end time.Time) []time.Time {
	var out []time.Time
	for d := start; d.Before(end); d = d.Add(day) {
		out = append(out, d)
	}
	return out
}

// AddDays shifts a day value.
func AddDays(d time.Time, n int) time.Time {
	return d.Add(time.Duration(n) * day)
}

// ParseDay parses YYYY-MM-DD into a day value.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}
