// Package grouping links manual calendar events that describe one stay, so the
// conflict detector stops pairing them.
package grouping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"holiday-booking/internal/calendar"
	"holiday-booking/internal/model"
)

var ErrInvalidGroup = errors.New("invalid event group")

type Store interface {
	ListCalendarEventIDs(ctx context.Context) ([]string, error)
	ListLinkedEdges(ctx context.Context, ids []string) ([]model.LinkedEdge, error)
	GroupEvents(ctx context.Context, edges []model.LinkedEdge, colors map[string]int) error
	UngroupEvents(ctx context.Context, ids []string, colors map[string]int) error
}

// Calendar receives the new event colors.
type Calendar interface {
	UpdateEventColor(ctx context.Context, id string, color int) error
}

// EventChecker re-runs conflict detection for one event.
type EventChecker interface {
	CheckCalendarEvent(ctx context.Context, id string) error
}

type Grouper struct {
	store    Store
	calendar Calendar
	checker  EventChecker
	logger   *slog.Logger
}

// NewGrouper builds a grouper. cal and checker may be nil.
func NewGrouper(store Store, cal Calendar, checker EventChecker, logger *slog.Logger) *Grouper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Grouper{
		store:    store,
		calendar: cal,
		checker:  checker,
		logger:   logger.With("component", "grouping"),
	}
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// rejectMirrors fails when any id belongs to a booking's mirror event.
func (g *Grouper) rejectMirrors(ctx context.Context, ids []string) error {
	known, err := g.store.ListCalendarEventIDs(ctx)
	if err != nil {
		return fmt.Errorf("list calendar event ids: %w", err)
	}
	set := calendar.NewKnownIDs(known)
	for _, id := range ids {
		if set.Has(id) {
			return fmt.Errorf("%w: event %s mirrors a booking", ErrInvalidGroup, id)
		}
	}
	return nil
}

// Group links every pair of ids and gives all of them one shared color.
func (g *Grouper) Group(ctx context.Context, actor string, ids []string) (int, error) {
	ids = uniqueSorted(ids)
	if len(ids) < 2 {
		return 0, fmt.Errorf("%w: at least two events are required", ErrInvalidGroup)
	}
	if err := g.rejectMirrors(ctx, ids); err != nil {
		return 0, err
	}

	color := calendar.GroupColor(ids)
	colors := make(map[string]int, len(ids))
	var edges []model.LinkedEdge
	for i, a := range ids {
		colors[a] = color
		for _, b := range ids[i+1:] {
			edges = append(edges, model.NewLinkedEdge(a, b))
		}
	}
	if err := g.store.GroupEvents(ctx, edges, colors); err != nil {
		return 0, fmt.Errorf("group events: %w", err)
	}
	g.logger.Info("events grouped", "actor", actor, "events", ids, "color", color)
	g.pushColors(ctx, colors)
	return color, nil
}

// Ungroup removes every link touching ids, gives each event its own color,
// clears ignore markers naming them and re-checks them for conflicts.
func (g *Grouper) Ungroup(ctx context.Context, actor string, ids []string) (map[string]int, error) {
	ids = uniqueSorted(ids)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no events given", ErrInvalidGroup)
	}
	if err := g.rejectMirrors(ctx, ids); err != nil {
		return nil, err
	}

	colors := calendar.UngroupColors(ids)
	if err := g.store.UngroupEvents(ctx, ids, colors); err != nil {
		return nil, fmt.Errorf("ungroup events: %w", err)
	}
	g.logger.Info("events ungrouped", "actor", actor, "events", ids)
	g.pushColors(ctx, colors)

	if g.checker != nil {
		for _, id := range ids {
			if err := g.checker.CheckCalendarEvent(ctx, id); err != nil {
				g.logger.Error("conflict check after ungroup failed", "event_id", id, "error", err)
			}
		}
	}
	return colors, nil
}

// Links returns the stored edges touching ids.
func (g *Grouper) Links(ctx context.Context, ids []string) ([]model.LinkedEdge, error) {
	edges, err := g.store.ListLinkedEdges(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list linked events: %w", err)
	}
	return edges, nil
}

func (g *Grouper) pushColors(ctx context.Context, colors map[string]int) {
	if g.calendar == nil {
		return
	}
	ids := make([]string, 0, len(colors))
	for id := range colors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := g.calendar.UpdateEventColor(ctx, id, colors[id]); err != nil {
			g.logger.Warn("event color not updated", "event_id", id, "color", colors[id], "error", err)
		}
	}
}
