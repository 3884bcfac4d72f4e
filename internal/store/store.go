// Package store persists bookings, pricing, linked events and conflict markers
// in PostgreSQL.
package store

import (
	"context"
	"errors"
	"time"

	"holiday-booking/internal/model"
)

// ErrNotFound is returned when an update or delete targets a missing row.
var ErrNotFound = errors.New("store: not found")

// ErrOverlap is returned when an insert or update would make two active
// bookings overlap.
var ErrOverlap = errors.New("store: active bookings overlap")

// Repository is the persistence contract shared by the PostgreSQL store and
// the in-memory store. Get methods return (nil, nil) for missing rows.
type Repository interface {
	// ListActiveBookings returns PENDING and APPROVED bookings overlapping
	// [from, to). A zero bound is open.
	ListActiveBookings(ctx context.Context, from, to time.Time) ([]model.Booking, error)
	ListBookings(ctx context.Context) ([]model.Booking, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	UpdateBooking(ctx context.Context, b *model.Booking) error
	DeleteBooking(ctx context.Context, id string) error
	// ListCalendarEventIDs returns every calendar event id referenced by a
	// booking, whatever its status, plus the orphaned mirrors of deleted
	// bookings.
	ListCalendarEventIDs(ctx context.Context) ([]string, error)
	// AddOrphanedMirror remembers the mirror event of a deleted booking until
	// ClearOrphanedMirror confirms it is gone from the calendar.
	AddOrphanedMirror(ctx context.Context, eventID, bookingID string) error
	ClearOrphanedMirror(ctx context.Context, eventID string) error

	ListPricingPhases(ctx context.Context, activeOnly bool) ([]model.PricingPhase, error)
	GetPricingPhase(ctx context.Context, id string) (*model.PricingPhase, error)
	InsertPricingPhase(ctx context.Context, p *model.PricingPhase) error
	UpdatePricingPhase(ctx context.Context, p *model.PricingPhase) error
	DeletePricingPhase(ctx context.Context, id string) error
	GetPricingSettings(ctx context.Context) (model.PricingSettings, error)
	SavePricingSettings(ctx context.Context, s model.PricingSettings) error

	ListAccessCodes(ctx context.Context, activeOnly bool) ([]model.AccessCode, error)
	InsertAccessCode(ctx context.Context, c *model.AccessCode) error

	// ListLinkedEdges returns edges touching any of ids, or every edge when
	// ids is empty.
	ListLinkedEdges(ctx context.Context, ids []string) ([]model.LinkedEdge, error)
	// GroupEvents stores edges and event colors in one transaction.
	GroupEvents(ctx context.Context, edges []model.LinkedEdge, colors map[string]int) error
	// UngroupEvents deletes edges touching ids, stores the new colors and
	// clears ignore and notification markers naming any of ids, in one
	// transaction.
	UngroupEvents(ctx context.Context, ids []string, colors map[string]int) error
	EventColors(ctx context.Context, ids []string) (map[string]int, error)

	IsConflictIgnored(ctx context.Context, key string) (bool, error)
	ListIgnoredConflicts(ctx context.Context) ([]model.IgnoredConflict, error)
	SetIgnored(ctx context.Context, ic model.IgnoredConflict) error
	ClearIgnored(ctx context.Context, key string) error

	ListNotifiedKeys(ctx context.Context) ([]string, error)
	RecordNotified(ctx context.Context, n model.ConflictNotification) error
	// PruneNotified removes every notification log entry whose key is not in keep.
	PruneNotified(ctx context.Context, keep []string) error

	// WithBookingLock runs fn while holding the single property-wide booking
	// lock. fn receives a repository bound to the locked transaction; its
	// writes commit only when fn returns nil.
	WithBookingLock(ctx context.Context, fn func(Repository) error) error
}
