package model

import "time"

// CalendarEvent is an entry of the external calendar. Color is the provider's
// small-integer color tag, 0 when unset.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day"`
	Color       int       `json:"color,omitempty"`
}

// EventDetails is the writable part of a calendar event.
type EventDetails struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Color       int
}

// LinkedEdge is an admin-declared equivalence between two manual events.
// A is always the lexically smaller id.
type LinkedEdge struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewLinkedEdge orders the endpoints.
func NewLinkedEdge(x, y string) LinkedEdge {
	if y < x {
		x, y = y, x
	}
	return LinkedEdge{A: x, B: y}
}

// IgnoredConflict suppresses a conflict by its natural key.
type IgnoredConflict struct {
	Key          string    `json:"key"`
	Type         string    `json:"type"`
	ParticipantA string    `json:"participant_a"`
	ParticipantB string    `json:"participant_b"`
	Reason       string    `json:"reason,omitempty"`
	IgnoredBy    string    `json:"ignored_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// ConflictNotification records that a conflict was reported to the notifier.
type ConflictNotification struct {
	Key          string    `json:"key"`
	Type         string    `json:"type"`
	ParticipantA string    `json:"participant_a"`
	ParticipantB string    `json:"participant_b"`
	NotifiedAt   time.Time `json:"notified_at"`
}
