package booking

import (
	"sort"
	"time"

	"holiday-booking/internal/dates"
	"holiday-booking/internal/model"
)

// FilterContained drops every booking whose days lie within another booking
// of the list that has not itself been dropped. Kept bookings stay in their
// input order. Of two bookings with the same range the later one is kept.
// The result is a fixed point: filtering it again changes nothing.
func FilterContained(bookings []model.Booking) []model.Booking {
	type span struct{ start, end time.Time }
	spans := make([]span, len(bookings))
	for i, b := range bookings {
		spans[i] = span{
			start: dates.NormalizeToCalendarDay(b.StartDate, time.UTC),
			end:   dates.NormalizeToCalendarDay(b.EndDate, time.UTC),
		}
	}

	// Longest first, so containers are found early.
	byLength := make([]int, len(bookings))
	for i := range byLength {
		byLength[i] = i
	}
	sort.SliceStable(byLength, func(i, j int) bool {
		a, b := spans[byLength[i]], spans[byLength[j]]
		return a.end.Sub(a.start) > b.end.Sub(b.start)
	})

	excluded := make([]bool, len(bookings))
	for i := range bookings {
		for _, j := range byLength {
			if j == i || excluded[j] {
				continue
			}
			if dates.Contains(spans[j].start, spans[j].end, spans[i].start, spans[i].end) {
				excluded[i] = true
				break
			}
		}
	}

	out := make([]model.Booking, 0, len(bookings))
	for i, b := range bookings {
		if !excluded[i] {
			out = append(out, b)
		}
	}
	return out
}
