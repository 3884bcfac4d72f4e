// Package calendar interprets and talks to the external calendar that mirrors
// the booking table and carries manually entered stays.
package calendar

import (
	"fmt"
	"regexp"
	"time"

	"holiday-booking/internal/dates"
	"holiday-booking/internal/model"
)

// Kind is the role an external event plays for availability.
type Kind string

const (
	// KindMirror marks an event created by this service for a booking row.
	KindMirror Kind = "mirror"
	// KindInformational marks a non-blocking note, e.g. a public holiday.
	KindInformational Kind = "informational"
	// KindBlocking marks a real stay entered outside this service.
	KindBlocking Kind = "blocking"
)

// MirrorSummaryPrefix starts the summary of every mirror event.
const MirrorSummaryPrefix = "Booking: "

var mirrorSummary = regexp.MustCompile(`^Booking: .+ \(\d+ guests?\)$`)

// MirrorSummary renders the summary of the mirror event for a booking.
func MirrorSummary(b model.Booking) string {
	noun := "guests"
	if b.Guests == 1 {
		noun = "guest"
	}
	return fmt.Sprintf("%s%s (%d %s)", MirrorSummaryPrefix, b.GuestName, b.Guests, noun)
}

// KnownIDs is the set of event ids referenced by booking rows. Build it once per pass.
type KnownIDs map[string]struct{}

func NewKnownIDs(ids []string) KnownIDs {
	known := make(KnownIDs, len(ids))
	for _, id := range ids {
		if id != "" {
			known[id] = struct{}{}
		}
	}
	return known
}

func (k KnownIDs) Has(id string) bool {
	_, ok := k[id]
	return ok
}

// Classifier assigns a Kind to external events.
type Classifier struct {
	// SummaryFallback also treats events whose summary looks like a mirror
	// summary as mirrors when their id is not referenced by any booking.
	SummaryFallback bool
}

// Classify applies, in order: id match, informational color, summary fallback.
func (c Classifier) Classify(e model.CalendarEvent, known KnownIDs) Kind {
	if known.Has(e.ID) {
		return KindMirror
	}
	if e.Color == InfoColor {
		return KindInformational
	}
	if c.SummaryFallback && mirrorSummary.MatchString(e.Summary) {
		return KindMirror
	}
	return KindBlocking
}

// Blocking keeps only the blocking events.
func (c Classifier) Blocking(events []model.CalendarEvent, known KnownIDs) []model.CalendarEvent {
	var out []model.CalendarEvent
	for _, e := range events {
		if c.Classify(e, known) == KindBlocking {
			out = append(out, e)
		}
	}
	return out
}

// DaySpan converts an event to the half-open day range it occupies in loc.
// A timed event that starts and ends on the same day still occupies that day.
func DaySpan(e model.CalendarEvent, loc *time.Location) (time.Time, time.Time) {
	if e.AllDay {
		loc = time.UTC
	}
	start := dates.NormalizeToCalendarDay(e.Start, loc)
	end := dates.NormalizeToCalendarDay(e.End, loc)
	if !end.After(start) {
		end = dates.AddDays(start, 1)
	}
	return start, end
}
