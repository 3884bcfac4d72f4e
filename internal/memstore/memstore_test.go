package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"holiday-booking/internal/model"
	"holiday-booking/internal/store"
)

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func stay(id, start, end string, status model.BookingStatus) *model.Booking {
	return &model.Booking{ID: id, StartDate: day(start), EndDate: day(end), Status: status, Guests: 1}
}

func TestInsertRejectsActiveOverlap(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.InsertBooking(ctx, stay("a", "2025-05-01", "2025-05-05", model.StatusApproved)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		b    *model.Booking
		want error
	}{
		{"overlap", stay("b", "2025-05-04", "2025-05-06", model.StatusPending), store.ErrOverlap},
		{"back to back", stay("c", "2025-05-05", "2025-05-07", model.StatusPending), nil},
		{"inactive overlap", stay("d", "2025-05-02", "2025-05-03", model.StatusRejected), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.InsertBooking(ctx, tt.b); !errors.Is(err, tt.want) {
				t.Errorf("InsertBooking() = %v, want %v", err, tt.want)
			}
		})
	}

	// reactivating a rejected booking that overlaps is refused too
	d, _ := s.GetBooking(ctx, "d")
	d.Status = model.StatusPending
	if err := s.UpdateBooking(ctx, d); !errors.Is(err, store.ErrOverlap) {
		t.Errorf("UpdateBooking() = %v, want ErrOverlap", err)
	}
}

func TestWithBookingLockRestoresBookingsOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.WithBookingLock(ctx, func(tx store.Repository) error {
		if err := tx.InsertBooking(ctx, stay("a", "2025-05-01", "2025-05-05", model.StatusPending)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithBookingLock() = %v", err)
	}
	if b, _ := s.GetBooking(ctx, "a"); b != nil {
		t.Error("booking survived a failed lock section")
	}
}

func TestUngroupClearsMarkersTouchingIDs(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.GroupEvents(ctx, []model.LinkedEdge{model.NewLinkedEdge("x", "y")}, map[string]int{"x": 2, "y": 2})
	_ = s.SetIgnored(ctx, model.IgnoredConflict{Key: "event_event:x|z", ParticipantA: "x", ParticipantB: "z"})
	_ = s.SetIgnored(ctx, model.IgnoredConflict{Key: "event_event:p|q", ParticipantA: "p", ParticipantB: "q"})
	_ = s.RecordNotified(ctx, model.ConflictNotification{Key: "event_event:x|z", ParticipantA: "x", ParticipantB: "z"})

	if err := s.UngroupEvents(ctx, []string{"x"}, map[string]int{"x": 5}); err != nil {
		t.Fatal(err)
	}
	if edges, _ := s.ListLinkedEdges(ctx, nil); len(edges) != 0 {
		t.Errorf("edges = %v", edges)
	}
	if ok, _ := s.IsConflictIgnored(ctx, "event_event:x|z"); ok {
		t.Error("marker naming x survived")
	}
	if ok, _ := s.IsConflictIgnored(ctx, "event_event:p|q"); !ok {
		t.Error("unrelated marker removed")
	}
	if keys, _ := s.ListNotifiedKeys(ctx); len(keys) != 0 {
		t.Errorf("notified = %v", keys)
	}
	colors, _ := s.EventColors(ctx, []string{"x", "y"})
	if colors["x"] != 5 || colors["y"] != 2 {
		t.Errorf("colors = %v", colors)
	}
}

func TestPruneNotified(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.RecordNotified(ctx, model.ConflictNotification{Key: "booking_event:a|e"})
	_ = s.RecordNotified(ctx, model.ConflictNotification{Key: "booking_event:b|e"})

	if err := s.PruneNotified(ctx, []string{"booking_event:b|e", "booking_event:c|e"}); err != nil {
		t.Fatal(err)
	}
	keys, _ := s.ListNotifiedKeys(ctx)
	if len(keys) != 1 || keys[0] != "booking_event:b|e" {
		t.Errorf("keys = %v", keys)
	}
}

func TestOrphanedMirrors(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.AddOrphanedMirror(ctx, "evt-1", "a")

	err := s.WithBookingLock(ctx, func(tx store.Repository) error {
		_ = tx.AddOrphanedMirror(ctx, "evt-2", "b")
		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("expected abort")
	}
	if ids, _ := s.ListCalendarEventIDs(ctx); len(ids) != 1 || ids[0] != "evt-1" {
		t.Errorf("ids after rollback = %v", ids)
	}
	_ = s.ClearOrphanedMirror(ctx, "evt-1")
	if ids, _ := s.ListCalendarEventIDs(ctx); len(ids) != 0 {
		t.Errorf("ids after clear = %v", ids)
	}
}
