package pricing

import (
	"context"
	"fmt"
	"time"

	"holiday-booking/internal/calendar"
	"holiday-booking/internal/dates"
)

// Code identifies why a range cannot be booked.
type Code string

const (
	CodePastStart      Code = "past_start"
	CodeInvalidRange   Code = "invalid_range"
	CodeMinStay        Code = "min_stay"
	CodeArrivalWeekday Code = "arrival_weekday"
	CodeBookingOverlap Code = "booking_overlap"
	CodeEventOverlap   Code = "event_overlap"
)

// Validation is the outcome of ValidateBookingDates. A failed validation is
// an expected result, not an error.
type Validation struct {
	Valid  bool   `json:"valid"`
	Code   Code   `json:"code,omitempty"`
	Reason string `json:"error,omitempty"`
	// ConflictID names the booking or event that blocks the range.
	ConflictID string `json:"conflict_id,omitempty"`
}

func invalid(code Code, format string, args ...any) Validation {
	return Validation{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// ValidateBookingDates decides whether [start, end) can be booked. Bookings
// with id excludeID are ignored, so an edited booking does not collide with
// itself. Store failures are returned as errors; calendar failures are logged
// and the check runs without calendar data.
func (e *Engine) ValidateBookingDates(ctx context.Context, start, end time.Time, excludeID string) (Validation, error) {
	start = dates.NormalizeToCalendarDay(start, time.UTC)
	end = dates.NormalizeToCalendarDay(end, time.UTC)

	today := dates.NormalizeToCalendarDay(e.now(), e.loc)
	if start.Before(today) {
		return invalid(CodePastStart, "start date %s is in the past", start.Format(time.DateOnly)), nil
	}
	nights, err := dates.NightsBetween(start, end, time.UTC)
	if err != nil {
		return invalid(CodeInvalidRange, "end date must be after start date"), nil
	}

	phases, err := e.activePhases(ctx)
	if err != nil {
		return Validation{}, err
	}
	settings, err := e.store.GetPricingSettings(ctx)
	if err != nil {
		return Validation{}, fmt.Errorf("get pricing settings: %w", err)
	}

	minNights := settings.MinStayNights
	arrival := phaseFor(phases, start)
	if arrival != nil && arrival.MinNights != nil {
		minNights = *arrival.MinNights
	}
	if nights < minNights {
		return invalid(CodeMinStay, "minimum stay is %d nights, requested %d", minNights, nights), nil
	}
	if arrival != nil && arrival.ArrivalWeekday != nil && start.Weekday() != *arrival.ArrivalWeekday {
		return invalid(CodeArrivalWeekday, "stays during %s must start on a %s", arrival.Name, *arrival.ArrivalWeekday), nil
	}

	bookings, err := e.store.ListActiveBookings(ctx, start, end)
	if err != nil {
		return Validation{}, fmt.Errorf("list active bookings: %w", err)
	}
	for _, b := range bookings {
		if b.ID == excludeID {
			continue
		}
		if dates.RangesOverlap(start, end, b.StartDate, b.EndDate) {
			v := invalid(CodeBookingOverlap, "dates overlap an existing booking from %s to %s",
				b.StartDate.Format(time.DateOnly), b.EndDate.Format(time.DateOnly))
			v.ConflictID = b.ID
			return v, nil
		}
	}

	if id, err := e.blockingEventOverlap(ctx, start, end); err != nil {
		return Validation{}, err
	} else if id != "" {
		v := invalid(CodeEventOverlap, "dates overlap an entry in the property calendar")
		v.ConflictID = id
		return v, nil
	}

	return Validation{Valid: true}, nil
}

func (e *Engine) blockingEventOverlap(ctx context.Context, start, end time.Time) (string, error) {
	if e.events == nil {
		return "", nil
	}
	// Widen by a day so timed events in loc are not cut off at UTC midnight.
	events, err := e.events.ListEvents(ctx, dates.AddDays(start, -1), dates.AddDays(end, 1))
	if err != nil {
		e.logger.Warn("calendar unavailable, validating without external events", "error", err)
		return "", nil
	}
	if len(events) == 0 {
		return "", nil
	}
	ids, err := e.store.ListCalendarEventIDs(ctx)
	if err != nil {
		return "", fmt.Errorf("list calendar event ids: %w", err)
	}
	for _, ev := range e.classifier.Blocking(events, calendar.NewKnownIDs(ids)) {
		s, en := calendar.DaySpan(ev, e.loc)
		if dates.RangesOverlap(start, end, s, en) {
			return ev.ID, nil
		}
	}
	return "", nil
}
