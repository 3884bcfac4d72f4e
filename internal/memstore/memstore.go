// Package memstore is an in-memory store.Repository for tests and for running
// the service without a database.
package memstore

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"holiday-booking/internal/dates"
	"holiday-booking/internal/model"
	"holiday-booking/internal/store"
)

type Store struct {
	lock sync.Mutex // booking lock
	mu   sync.RWMutex

	bookings map[string]model.Booking
	phases   map[string]model.PricingPhase
	settings model.PricingSettings
	codes    map[string]model.AccessCode
	edges    map[model.LinkedEdge]struct{}
	colors   map[string]int
	ignored  map[string]model.IgnoredConflict
	notified map[string]model.ConflictNotification
	orphans  map[string]string
}

var _ store.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		bookings: make(map[string]model.Booking),
		phases:   make(map[string]model.PricingPhase),
		codes:    make(map[string]model.AccessCode),
		edges:    make(map[model.LinkedEdge]struct{}),
		colors:   make(map[string]int),
		ignored:  make(map[string]model.IgnoredConflict),
		notified: make(map[string]model.ConflictNotification),
		orphans:  make(map[string]string),
		settings: model.PricingSettings{MinStayNights: 1},
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func sortBookings(bs []model.Booking) {
	sort.Slice(bs, func(i, j int) bool {
		if !bs[i].StartDate.Equal(bs[j].StartDate) {
			return bs[i].StartDate.Before(bs[j].StartDate)
		}
		return bs[i].ID < bs[j].ID
	})
}

func (s *Store) ListActiveBookings(_ context.Context, from, to time.Time) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if !b.Status.Active() {
			continue
		}
		if !from.IsZero() && !b.EndDate.After(from) {
			continue
		}
		if !to.IsZero() && !b.StartDate.Before(to) {
			continue
		}
		out = append(out, b)
	}
	sortBookings(out)
	return out, nil
}

func (s *Store) ListBookings(_ context.Context) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	sortBookings(out)
	return out, nil
}

func (s *Store) GetBooking(_ context.Context, id string) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// overlapsActive mirrors the exclusion constraint of the PostgreSQL schema.
func (s *Store) overlapsActive(b *model.Booking) bool {
	if !b.Status.Active() {
		return false
	}
	for id, other := range s.bookings {
		if id == b.ID || !other.Status.Active() {
			continue
		}
		if dates.RangesOverlap(b.StartDate, b.EndDate, other.StartDate, other.EndDate) {
			return true
		}
	}
	return false
}

// Seed stores bookings as given, without the overlap check. It is meant for
// fixtures that reproduce data written before the check existed.
func (s *Store) Seed(bookings ...model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bookings {
		s.bookings[b.ID] = b
	}
}

func (s *Store) InsertBooking(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overlapsActive(b) {
		return store.ErrOverlap
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	s.bookings[b.ID] = *b
	return nil
}

func (s *Store) UpdateBooking(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.bookings[b.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.overlapsActive(b) {
		return store.ErrOverlap
	}
	b.CreatedAt = old.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	s.bookings[b.ID] = *b
	return nil
}

func (s *Store) DeleteBooking(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

func (s *Store) ListCalendarEventIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, b := range s.bookings {
		if id := b.EventID(); id != "" {
			out = append(out, id)
		}
	}
	for id := range s.orphans {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) AddOrphanedMirror(_ context.Context, eventID, bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orphans[eventID] = bookingID
	return nil
}

func (s *Store) ClearOrphanedMirror(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orphans, eventID)
	return nil
}

func (s *Store) ListPricingPhases(_ context.Context, activeOnly bool) ([]model.PricingPhase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.PricingPhase
	for _, p := range s.phases {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetPricingPhase(_ context.Context, id string) (*model.PricingPhase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.phases[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) InsertPricingPhase(_ context.Context, p *model.PricingPhase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phases[p.ID] = *p
	return nil
}

func (s *Store) UpdatePricingPhase(_ context.Context, p *model.PricingPhase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.phases[p.ID]; !ok {
		return store.ErrNotFound
	}
	s.phases[p.ID] = *p
	return nil
}

func (s *Store) DeletePricingPhase(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.phases[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.phases, id)
	return nil
}

func (s *Store) GetPricingSettings(_ context.Context) (model.PricingSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *Store) SavePricingSettings(_ context.Context, ps model.PricingSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = ps
	return nil
}

func (s *Store) ListAccessCodes(_ context.Context, activeOnly bool) ([]model.AccessCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.AccessCode
	for _, c := range s.codes {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) InsertAccessCode(_ context.Context, c *model.AccessCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.codes[c.ID] = *c
	return nil
}

func (s *Store) ListLinkedEdges(_ context.Context, ids []string) ([]model.LinkedEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.LinkedEdge
	for e := range s.edges {
		if len(ids) == 0 || want[e.A] || want[e.B] {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out, nil
}

func (s *Store) GroupEvents(_ context.Context, edges []model.LinkedEdge, colors map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range edges {
		s.edges[e] = struct{}{}
	}
	maps.Copy(s.colors, colors)
	return nil
}

func (s *Store) UngroupEvents(_ context.Context, ids []string, colors map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	touched := make(map[string]bool, len(ids))
	for _, id := range ids {
		touched[id] = true
	}
	for e := range s.edges {
		if touched[e.A] || touched[e.B] {
			delete(s.edges, e)
		}
	}
	maps.Copy(s.colors, colors)
	for k, ic := range s.ignored {
		if touched[ic.ParticipantA] || touched[ic.ParticipantB] {
			delete(s.ignored, k)
		}
	}
	for k, n := range s.notified {
		if touched[n.ParticipantA] || touched[n.ParticipantB] {
			delete(s.notified, k)
		}
	}
	return nil
}

func (s *Store) EventColors(_ context.Context, ids []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(ids))
	for _, id := range ids {
		if c, ok := s.colors[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (s *Store) IsConflictIgnored(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ignored[key]
	return ok, nil
}

func (s *Store) ListIgnoredConflicts(_ context.Context) ([]model.IgnoredConflict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.IgnoredConflict, 0, len(s.ignored))
	for _, ic := range s.ignored {
		out = append(out, ic)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) SetIgnored(_ context.Context, ic model.IgnoredConflict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ic.CreatedAt.IsZero() {
		ic.CreatedAt = time.Now().UTC()
	}
	s.ignored[ic.Key] = ic
	return nil
}

func (s *Store) ClearIgnored(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ignored, key)
	return nil
}

func (s *Store) ListNotifiedKeys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.notified))
	for k := range s.notified {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) RecordNotified(_ context.Context, n model.ConflictNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notified[n.Key] = n
	return nil
}

func (s *Store) PruneNotified(_ context.Context, keep []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make(map[string]bool, len(keep))
	for _, k := range keep {
		kept[k] = true
	}
	for k := range s.notified {
		if !kept[k] {
			delete(s.notified, k)
		}
	}
	return nil
}

// WithBookingLock serializes fn against other lock holders. Booking and orphaned
// mirror writes made by fn are rolled back when it fails.
func (s *Store) WithBookingLock(_ context.Context, fn func(store.Repository) error) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.mu.RLock()
	snapshot, orphans := maps.Clone(s.bookings), maps.Clone(s.orphans)
	s.mu.RUnlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.bookings, s.orphans = snapshot, orphans
		s.mu.Unlock()
		return err
	}
	return nil
}
