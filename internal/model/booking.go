package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusApproved  BookingStatus = "APPROVED"
	StatusRejected  BookingStatus = "REJECTED"
	StatusCancelled BookingStatus = "CANCELLED"
)

// Active reports whether the status blocks the booked dates.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// Booking is one stay. StartDate and EndDate are date-only values (midnight UTC);
// EndDate is the checkout day and is not a booked night.
type Booking struct {
	ID              string          `json:"id"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	Status          BookingStatus   `json:"status"`
	GuestName       string          `json:"guest_name"`
	GuestEmail      string          `json:"guest_email"`
	GuestPhone      string          `json:"guest_phone,omitempty"`
	Guests          int             `json:"guests"`
	Message         string          `json:"message,omitempty"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	FamilyRate      bool            `json:"family_rate"`
	CalendarEventID *string         `json:"calendar_event_id,omitempty"`
	AccessCodeID    *string         `json:"access_code_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at,omitempty"`
}

// EventID returns the linked calendar event id or "".
func (b Booking) EventID() string {
	if b.CalendarEventID == nil {
		return ""
	}
	return *b.CalendarEventID
}

// AccessCode gates the guest request form. Only the bcrypt hash is stored.
type AccessCode struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	CodeHash   []byte    `json:"-"`
	FamilyRate bool      `json:"family_rate"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
