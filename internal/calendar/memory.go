package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"holiday-booking/internal/dates"
	"holiday-booking/internal/model"
)

// Memory is an in-process calendar used when Google is not configured and in
// tests. Setting Err makes every call fail with it.
type Memory struct {
	mu     sync.Mutex
	events map[string]model.CalendarEvent
	Err    error
}

func NewMemory(events ...model.CalendarEvent) *Memory {
	m := &Memory{events: make(map[string]model.CalendarEvent)}
	for _, e := range events {
		m.events[e.ID] = e
	}
	return m
}

// Put adds or replaces an event.
func (m *Memory) Put(e model.CalendarEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = e
}

func (m *Memory) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

func (m *Memory) ListEvents(_ context.Context, from, to time.Time) ([]model.CalendarEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []model.CalendarEvent
	for _, e := range m.events {
		if dates.RangesOverlap(e.Start, e.End, from, to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) GetEvent(_ context.Context, id string) (model.CalendarEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.CalendarEvent{}, m.Err
	}
	e, ok := m.events[id]
	if !ok {
		return model.CalendarEvent{}, ErrEventNotFound
	}
	return e, nil
}

func (m *Memory) InsertEvent(_ context.Context, d model.EventDetails) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	id := uuid.NewString()
	m.events[id] = model.CalendarEvent{
		ID:          id,
		Summary:     d.Summary,
		Description: d.Description,
		Start:       d.Start,
		End:         d.End,
		AllDay:      true,
		Color:       d.Color,
	}
	return id, nil
}

func (m *Memory) UpdateEventColor(_ context.Context, id string, color int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	e, ok := m.events[id]
	if !ok {
		return fmt.Errorf("update color of event %s: %w", id, ErrEventNotFound)
	}
	e.Color = color
	m.events[id] = e
	return nil
}

func (m *Memory) UpdateEventDetails(_ context.Context, id string, d model.EventDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	e, ok := m.events[id]
	if !ok {
		return fmt.Errorf("update event %s: %w", id, ErrEventNotFound)
	}
	e.Summary = d.Summary
	e.Description = d.Description
	if !d.Start.IsZero() {
		e.Start = d.Start
	}
	if !d.End.IsZero() {
		e.End = d.End
	}
	if d.Color != 0 {
		e.Color = d.Color
	}
	m.events[id] = e
	return nil
}

func (m *Memory) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.events, id)
	return nil
}
