package conflict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"holiday-booking/internal/booking"
	"holiday-booking/internal/calendar"
	"holiday-booking/internal/dates"
	"holiday-booking/internal/model"
)

// Store is the part of the repository the detector reads and writes.
type Store interface {
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	ListActiveBookings(ctx context.Context, from, to time.Time) ([]model.Booking, error)
	ListCalendarEventIDs(ctx context.Context) ([]string, error)
	ListLinkedEdges(ctx context.Context, ids []string) ([]model.LinkedEdge, error)
	IsConflictIgnored(ctx context.Context, key string) (bool, error)
	ListIgnoredConflicts(ctx context.Context) ([]model.IgnoredConflict, error)
	SetIgnored(ctx context.Context, ic model.IgnoredConflict) error
	ClearIgnored(ctx context.Context, key string) error
	ListNotifiedKeys(ctx context.Context) ([]string, error)
	RecordNotified(ctx context.Context, n model.ConflictNotification) error
	PruneNotified(ctx context.Context, keep []string) error
}

type EventSource interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]model.CalendarEvent, error)
	GetEvent(ctx context.Context, id string) (model.CalendarEvent, error)
}

// Notifier is told about conflicts worth an admin's attention.
type Notifier interface {
	NotifyConflictDetected(ctx context.Context, c Conflict) error
}

const (
	horizonBackMonths    = 12
	horizonForwardMonths = 24
)

type Detector struct {
	store      Store
	events     EventSource
	notifier   Notifier
	classifier calendar.Classifier
	loc        *time.Location
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Detector)

func WithNotifier(n Notifier) Option { return func(d *Detector) { d.notifier = n } }

func WithClassifier(c calendar.Classifier) Option { return func(d *Detector) { d.classifier = c } }

func WithLocation(loc *time.Location) Option { return func(d *Detector) { d.loc = loc } }

func WithClock(now func() time.Time) Option { return func(d *Detector) { d.now = now } }

func WithLogger(l *slog.Logger) Option { return func(d *Detector) { d.logger = l } }

// NewDetector builds a detector. events may be nil when no calendar is configured.
func NewDetector(store Store, events EventSource, opts ...Option) *Detector {
	d := &Detector{
		store:  store,
		events: events,
		loc:    time.UTC,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "conflict")
	return d
}

// horizon is the calendar window scanned by a full pass.
func (d *Detector) horizon() (time.Time, time.Time) {
	today := dates.NormalizeToCalendarDay(d.now(), d.loc)
	return today.AddDate(0, -horizonBackMonths, 0), today.AddDate(0, horizonForwardMonths, 0)
}

// snapshot is everything one detection pass looks at.
type snapshot struct {
	bookings []model.Booking
	events   []model.CalendarEvent
	linked   map[model.LinkedEdge]bool
	ignored  map[string]bool
	// partial is set when the calendar could not be read.
	partial bool
}

// load reads bookings overlapping [from, to) (zero bounds are open) and blocking
// events in the calendar window [calFrom, calTo). Calendar failures leave the
// event list empty. The ignore list is only read for full passes.
func (d *Detector) load(ctx context.Context, from, to, calFrom, calTo time.Time, full bool) (*snapshot, error) {
	bookings, err := d.store.ListActiveBookings(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	snap := &snapshot{bookings: booking.FilterContained(bookings)}

	if d.events != nil {
		events, err := d.events.ListEvents(ctx, calFrom, calTo)
		if err != nil {
			d.logger.Warn("calendar unavailable, checking bookings only", "error", err)
			snap.partial = true
		} else if len(events) > 0 {
			ids, err := d.store.ListCalendarEventIDs(ctx)
			if err != nil {
				return nil, fmt.Errorf("list calendar event ids: %w", err)
			}
			snap.events = d.classifier.Blocking(events, calendar.NewKnownIDs(ids))
		}
	}

	edges, err := d.store.ListLinkedEdges(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list linked events: %w", err)
	}
	snap.linked = make(map[model.LinkedEdge]bool, len(edges))
	for _, e := range edges {
		snap.linked[e] = true
	}

	if !full {
		return snap, nil
	}
	ignored, err := d.store.ListIgnoredConflicts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ignored conflicts: %w", err)
	}
	snap.ignored = make(map[string]bool, len(ignored))
	for _, ic := range ignored {
		snap.ignored[ic.Key] = true
	}
	return snap, nil
}

type participant struct {
	start, end time.Time
	eventID    string
	booking    *model.Booking
	event      *model.CalendarEvent
}

// detect returns every overlapping pair of the snapshot that is neither linked
// nor ignored, sorted by key.
func (d *Detector) detect(snap *snapshot) []Conflict {
	parts := make([]participant, 0, len(snap.bookings)+len(snap.events))
	for i := range snap.bookings {
		b := &snap.bookings[i]
		if !b.StartDate.Before(b.EndDate) {
			continue
		}
		parts = append(parts, participant{start: b.StartDate, end: b.EndDate, eventID: b.EventID(), booking: b})
	}
	for i := range snap.events {
		e := &snap.events[i]
		s, en := calendar.DaySpan(*e, d.loc)
		parts = append(parts, participant{start: s, end: en, eventID: e.ID, event: e})
	}
	sort.SliceStable(parts, func(i, j int) bool { return parts[i].start.Before(parts[j].start) })

	var (
		out    []Conflict
		active []participant
	)
	for _, p := range parts {
		kept := active[:0]
		for _, a := range active {
			if a.end.After(p.start) {
				kept = append(kept, a)
			}
		}
		active = kept
		for _, a := range active {
			if !dates.RangesOverlap(a.start, a.end, p.start, p.end) {
				continue
			}
			if a.eventID != "" && p.eventID != "" && snap.linked[model.NewLinkedEdge(a.eventID, p.eventID)] {
				continue
			}
			c := pair(a, p)
			if snap.ignored[c.Key()] {
				continue
			}
			out = append(out, c)
		}
		active = append(active, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func pair(x, y participant) Conflict {
	switch {
	case x.booking != nil && y.booking != nil:
		return BookingVsBooking{A: *x.booking, B: *y.booking}
	case x.booking != nil:
		return BookingVsEvent{Booking: *x.booking, Event: *y.event}
	case y.booking != nil:
		return BookingVsEvent{Booking: *y.booking, Event: *x.event}
	default:
		return EventVsEvent{A: *x.event, B: *y.event}
	}
}

// FindAllConflicts returns every current, non-ignored conflict between active
// bookings and blocking calendar events in the detection horizon.
func (d *Detector) FindAllConflicts(ctx context.Context) ([]Conflict, error) {
	conflicts, _, err := d.findAll(ctx)
	return conflicts, err
}

func (d *Detector) findAll(ctx context.Context) ([]Conflict, bool, error) {
	from, to := d.horizon()
	snap, err := d.load(ctx, time.Time{}, time.Time{}, from, to, true)
	if err != nil {
		return nil, false, err
	}
	return d.detect(snap), !snap.partial, nil
}

// conflictsTouching runs a pass restricted to [start, end) and keeps the
// conflicts involving id.
func (d *Detector) conflictsTouching(ctx context.Context, id string, start, end time.Time) ([]Conflict, error) {
	calFrom, calTo := dates.AddDays(start, -1), dates.AddDays(end, 1)
	snap, err := d.load(ctx, start, end, calFrom, calTo, false)
	if err != nil {
		return nil, err
	}
	var out []Conflict
	for _, c := range d.detect(snap) {
		if !Involves(c, id) {
			continue
		}
		ignored, err := d.store.IsConflictIgnored(ctx, c.Key())
		if err != nil {
			return nil, fmt.Errorf("check ignored conflict: %w", err)
		}
		if !ignored {
			out = append(out, c)
		}
	}
	return out, nil
}

// CheckAndNotifyConflictsForBooking notifies every non-ignored conflict
// involving the booking and returns them.
func (d *Detector) CheckAndNotifyConflictsForBooking(ctx context.Context, id string) ([]Conflict, error) {
	b, err := d.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil || !b.Status.Active() {
		return nil, nil
	}
	conflicts, err := d.conflictsTouching(ctx, id, b.StartDate, b.EndDate)
	if err != nil {
		return nil, err
	}
	return conflicts, d.notifyAll(ctx, conflicts)
}

// CheckAndNotifyConflictsForCalendarEvent is the event counterpart of
// CheckAndNotifyConflictsForBooking. An unreadable event yields no conflicts.
func (d *Detector) CheckAndNotifyConflictsForCalendarEvent(ctx context.Context, id string) ([]Conflict, error) {
	if d.events == nil {
		return nil, nil
	}
	ev, err := d.events.GetEvent(ctx, id)
	if err != nil {
		if !errors.Is(err, calendar.ErrEventNotFound) {
			d.logger.Warn("calendar unavailable, skipping event check", "event_id", id, "error", err)
		}
		return nil, nil
	}
	start, end := calendar.DaySpan(ev, d.loc)
	conflicts, err := d.conflictsTouching(ctx, id, start, end)
	if err != nil {
		return nil, err
	}
	return conflicts, d.notifyAll(ctx, conflicts)
}

// CheckBooking runs the booking check for callers that only care about failure.
func (d *Detector) CheckBooking(ctx context.Context, id string) error {
	_, err := d.CheckAndNotifyConflictsForBooking(ctx, id)
	return err
}

func (d *Detector) CheckCalendarEvent(ctx context.Context, id string) error {
	_, err := d.CheckAndNotifyConflictsForCalendarEvent(ctx, id)
	return err
}

// notifyAll sends every conflict to the notifier and records it in the
// notification log. Notifier failures are logged; log failures are returned.
func (d *Detector) notifyAll(ctx context.Context, conflicts []Conflict) error {
	var errs []error
	for _, c := range conflicts {
		if err := d.notify(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Detector) notify(ctx context.Context, c Conflict) error {
	if d.notifier != nil {
		if err := d.notifier.NotifyConflictDetected(ctx, c); err != nil {
			d.logger.Warn("conflict notification failed", "key", c.Key(), "error", err)
		}
	}
	a, b := c.Participants()
	err := d.store.RecordNotified(ctx, model.ConflictNotification{
		Key:          c.Key(),
		Type:         string(c.Type()),
		ParticipantA: a,
		ParticipantB: b,
		NotifiedAt:   d.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("record notification %s: %w", c.Key(), err)
	}
	return nil
}

// NotifyNew runs a full pass and notifies only conflicts missing from the
// notification log. Log entries for conflicts that no longer exist are
// dropped, so a conflict that resolves and later reappears is notified again.
// Pruning is skipped when the calendar could not be read. It returns how many
// conflicts were notified.
func (d *Detector) NotifyNew(ctx context.Context) (int, error) {
	conflicts, complete, err := d.findAll(ctx)
	if err != nil {
		return 0, err
	}
	keys, err := d.store.ListNotifiedKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list notified conflicts: %w", err)
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}
	current := make([]string, 0, len(conflicts))
	var fresh []Conflict
	for _, c := range conflicts {
		current = append(current, c.Key())
		if !seen[c.Key()] {
			fresh = append(fresh, c)
		}
	}
	if complete && len(current) < len(keys)+len(fresh) {
		if err := d.store.PruneNotified(ctx, current); err != nil {
			return 0, fmt.Errorf("prune notified conflicts: %w", err)
		}
	}
	return len(fresh), d.notifyAll(ctx, fresh)
}

// Ignore suppresses the conflict with the given key.
func (d *Detector) Ignore(ctx context.Context, actor, key, reason string) error {
	t, a, b, err := ParseKey(key)
	if err != nil {
		return err
	}
	err = d.store.SetIgnored(ctx, model.IgnoredConflict{
		Key:          key,
		Type:         string(t),
		ParticipantA: a,
		ParticipantB: b,
		Reason:       reason,
		IgnoredBy:    actor,
		CreatedAt:    d.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("ignore conflict: %w", err)
	}
	d.logger.Info("conflict ignored", "actor", actor, "key", key)
	return nil
}

// Unignore lifts a suppression. Unknown keys are not an error.
func (d *Detector) Unignore(ctx context.Context, actor, key string) error {
	if _, _, _, err := ParseKey(key); err != nil {
		return err
	}
	if err := d.store.ClearIgnored(ctx, key); err != nil {
		return fmt.Errorf("unignore conflict: %w", err)
	}
	d.logger.Info("conflict unignored", "actor", actor, "key", key)
	return nil
}

func (d *Detector) ListIgnored(ctx context.Context) ([]model.IgnoredConflict, error) {
	ignored, err := d.store.ListIgnoredConflicts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ignored conflicts: %w", err)
	}
	return ignored, nil
}
