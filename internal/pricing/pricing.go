// Package pricing computes stay prices from seasonal phases and decides whether
// a date range can be booked.
package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"holiday-booking/internal/calendar"
	"holiday-booking/internal/dates"
	"holiday-booking/internal/model"
)

// Store is the part of the repository the engine reads.
type Store interface {
	ListActiveBookings(ctx context.Context, from, to time.Time) ([]model.Booking, error)
	ListCalendarEventIDs(ctx context.Context) ([]string, error)
	ListPricingPhases(ctx context.Context, activeOnly bool) ([]model.PricingPhase, error)
	GetPricingSettings(ctx context.Context) (model.PricingSettings, error)
}

// EventSource lists external calendar events.
type EventSource interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]model.CalendarEvent, error)
}

// DailyRate is one night of a quote.
type DailyRate struct {
	Date      string          `json:"date"`
	Rate      decimal.Decimal `json:"rate"`
	PhaseID   string          `json:"phase_id,omitempty"`
	PhaseName string          `json:"phase_name,omitempty"`
}

// Quote is the price of a stay. BasePrice is the sum of the nightly rates;
// the cleaning fee is added once on top.
type Quote struct {
	Nights          int             `json:"nights"`
	FamilyRate      bool            `json:"family_rate"`
	BasePrice       decimal.Decimal `json:"base_price"`
	CleaningFee     decimal.Decimal `json:"cleaning_fee"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	PerNightAverage decimal.Decimal `json:"per_night_average"`
	DailyBreakdown  []DailyRate     `json:"daily_breakdown"`
}

// Engine prices stays and validates requested ranges. Inputs are day values
// (see dates.ParseDay); loc is only used to decide what "today" is and to map
// timed calendar events onto days.
type Engine struct {
	store      Store
	events     EventSource
	classifier calendar.Classifier
	loc        *time.Location
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Engine)

func WithLocation(loc *time.Location) Option { return func(e *Engine) { e.loc = loc } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

func WithClassifier(c calendar.Classifier) Option { return func(e *Engine) { e.classifier = c } }

// NewEngine builds an engine. events may be nil when no calendar is configured.
func NewEngine(store Store, events EventSource, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		events: events,
		loc:    time.UTC,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "pricing")
	return e
}

// WithStore returns a copy of the engine reading from s, typically a
// repository bound to the booking lock transaction.
func (e *Engine) WithStore(s Store) *Engine {
	cp := *e
	cp.store = s
	return &cp
}

// sortPhases orders phases so the first covering phase wins: priority
// descending, then position, then id.
func sortPhases(phases []model.PricingPhase) {
	sort.SliceStable(phases, func(i, j int) bool {
		a, b := phases[i], phases[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.ID < b.ID
	})
}

func phaseFor(phases []model.PricingPhase, day time.Time) *model.PricingPhase {
	for i := range phases {
		if phases[i].Active && phases[i].Covers(day) {
			return &phases[i]
		}
	}
	return nil
}

func (e *Engine) activePhases(ctx context.Context) ([]model.PricingPhase, error) {
	phases, err := e.store.ListPricingPhases(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list pricing phases: %w", err)
	}
	sortPhases(phases)
	return phases, nil
}

// CalculatePrice prices the nights in [start, end). It returns
// dates.ErrInvalidRange when end is not after start.
func (e *Engine) CalculatePrice(ctx context.Context, start, end time.Time, family bool) (Quote, error) {
	start = dates.NormalizeToCalendarDay(start, time.UTC)
	end = dates.NormalizeToCalendarDay(end, time.UTC)
	nights, err := dates.NightsBetween(start, end, time.UTC)
	if err != nil {
		return Quote{}, err
	}

	phases, err := e.activePhases(ctx)
	if err != nil {
		return Quote{}, err
	}
	settings, err := e.store.GetPricingSettings(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("get pricing settings: %w", err)
	}

	q := Quote{
		Nights:         nights,
		FamilyRate:     family,
		BasePrice:      decimal.Zero,
		CleaningFee:    settings.CleaningFee.Round(2),
		DailyBreakdown: make([]DailyRate, 0, nights),
	}
	for _, d := range dates.Days(start, end) {
		dr := DailyRate{Date: d.Format(time.DateOnly), Rate: settings.BaseRate(family)}
		if p := phaseFor(phases, d); p != nil {
			dr.Rate = p.Rate(family)
			dr.PhaseID = p.ID
			dr.PhaseName = p.Name
		}
		dr.Rate = dr.Rate.Round(2)
		q.BasePrice = q.BasePrice.Add(dr.Rate)
		q.DailyBreakdown = append(q.DailyBreakdown, dr)
	}
	q.TotalPrice = q.BasePrice.Add(q.CleaningFee)
	q.PerNightAverage = q.BasePrice.Div(decimal.NewFromInt(int64(nights))).Round(2)
	return q, nil
}
