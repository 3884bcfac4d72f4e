// Package booking owns the booking lifecycle: guest requests, admin entries,
// approval and the calendar mirror of approved stays.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"holiday-booking/internal/calendar"
	"holiday-booking/internal/model"
	"holiday-booking/internal/pricing"
	"holiday-booking/internal/store"
)

var (
	ErrNotFound          = errors.New("booking not found")
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrAccessDenied      = errors.New("invalid access code")
	ErrInvalidInput      = errors.New("invalid booking input")
)

// Calendar is the write side of the external calendar.
type Calendar interface {
	InsertEvent(ctx context.Context, d model.EventDetails) (string, error)
	UpdateEventDetails(ctx context.Context, id string, d model.EventDetails) error
	DeleteEvent(ctx context.Context, id string) error
}

// ConflictChecker runs after a booking mutation has committed.
type ConflictChecker interface {
	CheckBooking(ctx context.Context, id string) error
}

var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.StatusPending:  {model.StatusApproved, model.StatusRejected, model.StatusCancelled},
	model.StatusApproved: {model.StatusCancelled},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to model.BookingStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Service struct {
	store    store.Repository
	pricing  *pricing.Engine
	calendar Calendar
	checker  ConflictChecker
	logger   *slog.Logger
	newID    func() string
}

type Option func(*Service)

// WithCalendar mirrors approved bookings into cal.
func WithCalendar(cal Calendar) Option { return func(s *Service) { s.calendar = cal } }

func WithConflictChecker(c ConflictChecker) Option { return func(s *Service) { s.checker = c } }

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

func WithIDGenerator(f func() string) Option { return func(s *Service) { s.newID = f } }

func NewService(repo store.Repository, engine *pricing.Engine, opts ...Option) *Service {
	s := &Service{
		store:   repo,
		pricing: engine,
		logger:  slog.Default(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "booking")
	return s
}

// GuestRequest is a stay requested through the public form.
type GuestRequest struct {
	AccessCode string
	StartDate  time.Time
	EndDate    time.Time
	GuestName  string
	GuestEmail string
	GuestPhone string
	Guests     int
	Message    string
}

// AdminEntry is a stay entered directly by an admin.
type AdminEntry struct {
	StartDate  time.Time
	EndDate    time.Time
	GuestName  string
	GuestEmail string
	GuestPhone string
	Guests     int
	Message    string
	FamilyRate bool
	Approve    bool
}

// Changes lists the editable fields of a booking. Nil fields are unchanged.
type Changes struct {
	StartDate  *time.Time
	EndDate    *time.Time
	GuestName  *string
	GuestEmail *string
	GuestPhone *string
	Guests     *int
	Message    *string
	FamilyRate *bool
}

func checkGuest(name, email string, guests int) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: guest name is required", ErrInvalidInput)
	case !strings.Contains(email, "@"):
		return fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	case guests < 1:
		return fmt.Errorf("%w: at least one guest is required", ErrInvalidInput)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *Service) List(ctx context.Context) ([]model.Booking, error) {
	bs, err := s.store.ListBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bs, nil
}

// matchAccessCode returns the active access code matching plain.
func (s *Service) matchAccessCode(ctx context.Context, plain string) (*model.AccessCode, error) {
	if plain == "" {
		return nil, ErrAccessDenied
	}
	codes, err := s.store.ListAccessCodes(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list access codes: %w", err)
	}
	for i := range codes {
		if bcrypt.CompareHashAndPassword(codes[i].CodeHash, []byte(plain)) == nil {
			return &codes[i], nil
		}
	}
	return nil, ErrAccessDenied
}

// CreateAccessCode stores a new guest access code. Only its hash is kept.
func (s *Service) CreateAccessCode(ctx context.Context, actor, label, plain string, family bool) (*model.AccessCode, error) {
	if len(plain) < 6 {
		return nil, fmt.Errorf("%w: access code must have at least 6 characters", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash access code: %w", err)
	}
	c := &model.AccessCode{
		ID:         s.newID(),
		Label:      label,
		CodeHash:   hash,
		FamilyRate: family,
		Active:     true,
	}
	if err := s.store.InsertAccessCode(ctx, c); err != nil {
		return nil, fmt.Errorf("insert access code: %w", err)
	}
	s.logger.Info("access code created", "actor", actor, "access_code_id", c.ID, "family_rate", family)
	return c, nil
}

// Request records a guest request as PENDING. An invalid date range is
// reported through the returned Validation with a nil booking.
func (s *Service) Request(ctx context.Context, req GuestRequest) (*model.Booking, pricing.Validation, error) {
	if err := checkGuest(req.GuestName, req.GuestEmail, req.Guests); err != nil {
		return nil, pricing.Validation{}, err
	}
	code, err := s.matchAccessCode(ctx, req.AccessCode)
	if err != nil {
		return nil, pricing.Validation{}, err
	}
	b := &model.Booking{
		ID:           s.newID(),
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Status:       model.StatusPending,
		GuestName:    strings.TrimSpace(req.GuestName),
		GuestEmail:   strings.TrimSpace(req.GuestEmail),
		GuestPhone:   req.GuestPhone,
		Guests:       req.Guests,
		Message:      req.Message,
		FamilyRate:   code.FamilyRate,
		AccessCodeID: &code.ID,
	}
	v, err := s.insert(ctx, b)
	if err != nil || !v.Valid {
		return nil, v, err
	}
	s.logger.Info("booking requested", "booking_id", b.ID, "start", b.StartDate, "end", b.EndDate)
	s.afterCommit(ctx, b.ID)
	return b, v, nil
}

// CreateDirect records a booking entered by an admin, approving it right away
// when the entry asks for it.
func (s *Service) CreateDirect(ctx context.Context, actor string, e AdminEntry) (*model.Booking, pricing.Validation, error) {
	if err := checkGuest(e.GuestName, e.GuestEmail, e.Guests); err != nil {
		return nil, pricing.Validation{}, err
	}
	status := model.StatusPending
	if e.Approve {
		status = model.StatusApproved
	}
	b := &model.Booking{
		ID:         s.newID(),
		StartDate:  e.StartDate,
		EndDate:    e.EndDate,
		Status:     status,
		GuestName:  strings.TrimSpace(e.GuestName),
		GuestEmail: strings.TrimSpace(e.GuestEmail),
		GuestPhone: e.GuestPhone,
		Guests:     e.Guests,
		Message:    e.Message,
		FamilyRate: e.FamilyRate,
	}
	v, err := s.insert(ctx, b)
	if err != nil || !v.Valid {
		return nil, v, err
	}
	s.logger.Info("booking created", "actor", actor, "booking_id", b.ID, "status", b.Status)
	if b.Status == model.StatusApproved {
		s.pushMirror(ctx, b)
	}
	s.afterCommit(ctx, b.ID)
	return b, v, nil
}

// insert validates, prices and stores b while holding the booking lock.
func (s *Service) insert(ctx context.Context, b *model.Booking) (pricing.Validation, error) {
	var v pricing.Validation
	err := s.store.WithBookingLock(ctx, func(tx store.Repository) error {
		engine := s.pricing.WithStore(tx)
		var err error
		v, err = engine.ValidateBookingDates(ctx, b.StartDate, b.EndDate, "")
		if err != nil || !v.Valid {
			return err
		}
		q, err := engine.CalculatePrice(ctx, b.StartDate, b.EndDate, b.FamilyRate)
		if err != nil {
			return err
		}
		b.TotalPrice = q.TotalPrice
		return tx.InsertBooking(ctx, b)
	})
	if errors.Is(err, store.ErrOverlap) {
		return overlapValidation(), nil
	}
	if err != nil {
		return pricing.Validation{}, fmt.Errorf("insert booking: %w", err)
	}
	return v, nil
}

func overlapValidation() pricing.Validation {
	return pricing.Validation{Code: pricing.CodeBookingOverlap, Reason: "dates overlap an existing booking"}
}

// transition moves a booking to status under the booking lock. For inactive
// targets it also returns the mirror event id, which stays linked until the
// calendar delete succeeds.
func (s *Service) transition(ctx context.Context, id string, to model.BookingStatus) (*model.Booking, string, error) {
	var (
		b       *model.Booking
		mirror  string
		lockErr error
	)
	lockErr = s.store.WithBookingLock(ctx, func(tx store.Repository) error {
		var err error
		b, err = tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrNotFound
		}
		if !CanTransition(b.Status, to) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, b.Status, to)
		}
		b.Status = to
		if !to.Active() {
			mirror = b.EventID()
		}
		return tx.UpdateBooking(ctx, b)
	})
	if lockErr != nil {
		if errors.Is(lockErr, ErrNotFound) || errors.Is(lockErr, ErrInvalidTransition) {
			return nil, "", lockErr
		}
		return nil, "", fmt.Errorf("update booking status: %w", lockErr)
	}
	return b, mirror, nil
}

// Approve confirms a pending booking and mirrors it into the calendar.
func (s *Service) Approve(ctx context.Context, actor, id string) (*model.Booking, error) {
	b, _, err := s.transition(ctx, id, model.StatusApproved)
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking approved", "actor", actor, "booking_id", id)
	s.pushMirror(ctx, b)
	s.afterCommit(ctx, id)
	return b, nil
}

func (s *Service) Reject(ctx context.Context, actor, id string) (*model.Booking, error) {
	return s.close(ctx, actor, id, model.StatusRejected)
}

func (s *Service) Cancel(ctx context.Context, actor, id string) (*model.Booking, error) {
	return s.close(ctx, actor, id, model.StatusCancelled)
}

func (s *Service) close(ctx context.Context, actor, id string, to model.BookingStatus) (*model.Booking, error) {
	b, mirror, err := s.transition(ctx, id, to)
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking closed", "actor", actor, "booking_id", id, "status", to)
	if s.dropMirror(ctx, mirror) {
		s.unlink(ctx, b, mirror)
	}
	s.afterCommit(ctx, id)
	return b, nil
}

// unlink clears the mirror link of a closed booking once its calendar event is
// gone. A booking reopened or relinked in the meantime is left alone.
func (s *Service) unlink(ctx context.Context, b *model.Booking, eventID string) {
	err := s.store.WithBookingLock(ctx, func(tx store.Repository) error {
		cur, err := tx.GetBooking(ctx, b.ID)
		if err != nil || cur == nil {
			return err
		}
		if cur.Status.Active() || cur.EventID() != eventID {
			return nil
		}
		cur.CalendarEventID = nil
		return tx.UpdateBooking(ctx, cur)
	})
	if err != nil {
		s.logger.Error("calendar mirror deleted but still linked", "booking_id", b.ID, "event_id", eventID, "error", err)
		return
	}
	b.CalendarEventID = nil
}

// Edit changes an active booking. Date, guest or rate changes re-validate the
// range (ignoring the booking itself) and recompute the price.
func (s *Service) Edit(ctx context.Context, actor, id string, c Changes) (*model.Booking, pricing.Validation, error) {
	var (
		b *model.Booking
		v = pricing.Validation{Valid: true}
	)
	err := s.store.WithBookingLock(ctx, func(tx store.Repository) error {
		var err error
		b, err = tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrNotFound
		}
		if !b.Status.Active() {
			return fmt.Errorf("%w: %s bookings cannot be edited", ErrInvalidTransition, b.Status)
		}
		reprice := applyChanges(b, c)
		if err := checkGuest(b.GuestName, b.GuestEmail, b.Guests); err != nil {
			return err
		}
		if reprice {
			engine := s.pricing.WithStore(tx)
			v, err = engine.ValidateBookingDates(ctx, b.StartDate, b.EndDate, b.ID)
			if err != nil || !v.Valid {
				return err
			}
			q, err := engine.CalculatePrice(ctx, b.StartDate, b.EndDate, b.FamilyRate)
			if err != nil {
				return err
			}
			b.TotalPrice = q.TotalPrice
		}
		return tx.UpdateBooking(ctx, b)
	})
	switch {
	case errors.Is(err, store.ErrOverlap):
		return nil, overlapValidation(), nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInvalidInput):
		return nil, pricing.Validation{}, err
	case err != nil:
		return nil, pricing.Validation{}, fmt.Errorf("edit booking: %w", err)
	case !v.Valid:
		return nil, v, nil
	}

	s.logger.Info("booking edited", "actor", actor, "booking_id", id)
	if id := b.EventID(); id != "" && s.calendar != nil {
		if err := s.calendar.UpdateEventDetails(ctx, id, mirrorDetails(b)); err != nil {
			s.logger.Warn("calendar mirror out of date", "booking_id", b.ID, "event_id", id, "error", err)
		}
	}
	s.afterCommit(ctx, b.ID)
	return b, v, nil
}

func applyChanges(b *model.Booking, c Changes) (reprice bool) {
	if c.StartDate != nil && !c.StartDate.Equal(b.StartDate) {
		b.StartDate = *c.StartDate
		reprice = true
	}
	if c.EndDate != nil && !c.EndDate.Equal(b.EndDate) {
		b.EndDate = *c.EndDate
		reprice = true
	}
	if c.Guests != nil && *c.Guests != b.Guests {
		b.Guests = *c.Guests
		reprice = true
	}
	if c.FamilyRate != nil && *c.FamilyRate != b.FamilyRate {
		b.FamilyRate = *c.FamilyRate
		reprice = true
	}
	if c.GuestName != nil {
		b.GuestName = strings.TrimSpace(*c.GuestName)
	}
	if c.GuestEmail != nil {
		b.GuestEmail = strings.TrimSpace(*c.GuestEmail)
	}
	if c.GuestPhone != nil {
		b.GuestPhone = *c.GuestPhone
	}
	if c.Message != nil {
		b.Message = *c.Message
	}
	return reprice
}

// Delete removes a booking and its calendar mirror. The mirror id is kept as an
// orphan until the calendar delete succeeds, so the event is still recognised
// as a mirror meanwhile.
func (s *Service) Delete(ctx context.Context, actor, id string) error {
	var mirror string
	err := s.store.WithBookingLock(ctx, func(tx store.Repository) error {
		b, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrNotFound
		}
		if err := tx.DeleteBooking(ctx, id); err != nil {
			return err
		}
		mirror = b.EventID()
		if mirror == "" || s.calendar == nil {
			return nil
		}
		return tx.AddOrphanedMirror(ctx, mirror, id)
	})
	if errors.Is(err, ErrNotFound) || errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	s.logger.Info("booking deleted", "actor", actor, "booking_id", id)
	if mirror != "" && s.dropMirror(ctx, mirror) {
		if err := s.store.ClearOrphanedMirror(ctx, mirror); err != nil {
			s.logger.Error("orphaned mirror not cleared", "event_id", mirror, "error", err)
		}
	}
	return nil
}

func mirrorDetails(b *model.Booking) model.EventDetails {
	var desc strings.Builder
	fmt.Fprintf(&desc, "Guest: %s\nEmail: %s\n", b.GuestName, b.GuestEmail)
	if b.GuestPhone != "" {
		fmt.Fprintf(&desc, "Phone: %s\n", b.GuestPhone)
	}
	fmt.Fprintf(&desc, "Guests: %d\nTotal: %s\nBooking: %s", b.Guests, b.TotalPrice.StringFixed(2), b.ID)
	return model.EventDetails{
		Summary:     calendar.MirrorSummary(*b),
		Description: desc.String(),
		Start:       b.StartDate,
		End:         b.EndDate,
	}
}

// pushMirror creates the calendar event of an approved booking and links it.
// Calendar failures leave the booking unlinked.
func (s *Service) pushMirror(ctx context.Context, b *model.Booking) {
	if s.calendar == nil || b.EventID() != "" {
		return
	}
	eventID, err := s.calendar.InsertEvent(ctx, mirrorDetails(b))
	if err != nil {
		s.logger.Warn("approved booking not mirrored to calendar", "booking_id", b.ID, "error", err)
		return
	}
	err = s.store.WithBookingLock(ctx, func(tx store.Repository) error {
		cur, err := tx.GetBooking(ctx, b.ID)
		if err != nil || cur == nil {
			return err
		}
		cur.CalendarEventID = &eventID
		return tx.UpdateBooking(ctx, cur)
	})
	if err != nil {
		s.logger.Error("calendar event created but not linked", "booking_id", b.ID, "event_id", eventID, "error", err)
		return
	}
	b.CalendarEventID = &eventID
}

// dropMirror deletes a mirror event and reports whether the link can go.
func (s *Service) dropMirror(ctx context.Context, eventID string) bool {
	if eventID == "" {
		return false
	}
	if s.calendar == nil {
		return true
	}
	if err := s.calendar.DeleteEvent(ctx, eventID); err != nil {
		s.logger.Warn("calendar mirror not deleted", "event_id", eventID, "error", err)
		return false
	}
	return true
}

func (s *Service) afterCommit(ctx context.Context, id string) {
	if s.checker == nil {
		return
	}
	if err := s.checker.CheckBooking(ctx, id); err != nil {
		s.logger.Error("conflict check failed", "booking_id", id, "error", err)
	}
}
