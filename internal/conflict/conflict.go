// Package conflict finds overlapping stays across the booking table and the
// external calendar.
package conflict

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"holiday-booking/internal/model"
)

// Type tags a conflict variant. It is part of the natural key.
type Type string

const (
	TypeBookingBooking Type = "booking_booking"
	TypeBookingEvent   Type = "booking_event"
	TypeEventEvent     Type = "event_event"
)

// ErrInvalidKey is returned for keys that are not natural conflict keys.
var ErrInvalidKey = errors.New("invalid conflict key")

// Conflict is one of BookingVsBooking, BookingVsEvent or EventVsEvent.
type Conflict interface {
	Type() Type
	// Key is stable across detection runs and participant order.
	Key() string
	// Participants returns the participant ids in the order used by Key.
	Participants() (string, string)
	isConflict()
}

// NaturalKey builds the key of a conflict of type t between x and y.
func NaturalKey(t Type, x, y string) string {
	if y < x {
		x, y = y, x
	}
	return string(t) + ":" + x + "|" + y
}

// ParseKey splits a natural key into its type and ordered participants.
func ParseKey(key string) (Type, string, string, error) {
	tag, rest, ok := strings.Cut(key, ":")
	if !ok {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	t := Type(tag)
	switch t {
	case TypeBookingBooking, TypeBookingEvent, TypeEventEvent:
	default:
		return "", "", "", fmt.Errorf("%w: unknown type %q", ErrInvalidKey, tag)
	}
	a, b, ok := strings.Cut(rest, "|")
	if !ok || a == "" || b == "" || b < a {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return t, a, b, nil
}

type BookingVsBooking struct {
	A model.Booking
	B model.Booking
}

func (c BookingVsBooking) Type() Type  { return TypeBookingBooking }
func (c BookingVsBooking) Key() string { return NaturalKey(TypeBookingBooking, c.A.ID, c.B.ID) }
func (c BookingVsBooking) Participants() (string, string) {
	return ordered(c.A.ID, c.B.ID)
}
func (BookingVsBooking) isConflict() {}

type BookingVsEvent struct {
	Booking model.Booking
	Event   model.CalendarEvent
}

func (c BookingVsEvent) Type() Type  { return TypeBookingEvent }
func (c BookingVsEvent) Key() string { return NaturalKey(TypeBookingEvent, c.Booking.ID, c.Event.ID) }
func (c BookingVsEvent) Participants() (string, string) {
	return ordered(c.Booking.ID, c.Event.ID)
}
func (BookingVsEvent) isConflict() {}

type EventVsEvent struct {
	A model.CalendarEvent
	B model.CalendarEvent
}

func (c EventVsEvent) Type() Type  { return TypeEventEvent }
func (c EventVsEvent) Key() string { return NaturalKey(TypeEventEvent, c.A.ID, c.B.ID) }
func (c EventVsEvent) Participants() (string, string) {
	return ordered(c.A.ID, c.B.ID)
}
func (EventVsEvent) isConflict() {}

func ordered(x, y string) (string, string) {
	if y < x {
		return y, x
	}
	return x, y
}

// Involves reports whether id is one of the participants.
func Involves(c Conflict, id string) bool {
	a, b := c.Participants()
	return a == id || b == id
}

// Participant is the display form of one side of a conflict.
type Participant struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Label   string `json:"label"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Status  string `json:"status,omitempty"`
	EventID string `json:"event_id,omitempty"`
	Color   int    `json:"color,omitempty"`
}

// View is the display form of a conflict.
type View struct {
	Key          string        `json:"key"`
	Type         Type          `json:"type"`
	Participants []Participant `json:"participants"`
}

func bookingParticipant(b model.Booking) Participant {
	return Participant{
		Kind:    "booking",
		ID:      b.ID,
		Label:   b.GuestName,
		Start:   b.StartDate.Format(time.DateOnly),
		End:     b.EndDate.Format(time.DateOnly),
		Status:  string(b.Status),
		EventID: b.EventID(),
	}
}

func eventParticipant(e model.CalendarEvent) Participant {
	layout := time.RFC3339
	if e.AllDay {
		layout = time.DateOnly
	}
	return Participant{
		Kind:  "event",
		ID:    e.ID,
		Label: e.Summary,
		Start: e.Start.Format(layout),
		End:   e.End.Format(layout),
		Color: e.Color,
	}
}

// Describe renders c for display and notification.
func Describe(c Conflict) View {
	v := View{Key: c.Key(), Type: c.Type()}
	switch c := c.(type) {
	case BookingVsBooking:
		v.Participants = []Participant{bookingParticipant(c.A), bookingParticipant(c.B)}
	case BookingVsEvent:
		v.Participants = []Participant{bookingParticipant(c.Booking), eventParticipant(c.Event)}
	case EventVsEvent:
		v.Participants = []Participant{eventParticipant(c.A), eventParticipant(c.B)}
	}
	return v
}
