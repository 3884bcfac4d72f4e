package grouping_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"holiday-booking/internal/calendar"
	"holiday-booking/internal/conflict"
	"holiday-booking/internal/grouping"
	"holiday-booking/internal/memstore"
	"holiday-booking/internal/model"
)

func day(s string) time.Time {
	d, _ := time.Parse(time.DateOnly, s)
	return d
}

func event(id, start, end string) model.CalendarEvent {
	return model.CalendarEvent{ID: id, AllDay: true, Start: day(start), End: day(end), Color: 1}
}

type countingNotifier struct{ n int }

func (c *countingNotifier) NotifyConflictDetected(context.Context, conflict.Conflict) error {
	c.n++
	return nil
}

func setup(t *testing.T) (*memstore.Store, *calendar.Memory, *conflict.Detector, *countingNotifier) {
	t.Helper()
	st := memstore.New()
	st.Seed(model.Booking{
		ID: "bk", Status: model.StatusApproved, CalendarEventID: func() *string { s := "mirror"; return &s }(),
		StartDate: day("2024-08-01"), EndDate: day("2024-08-05"),
	})
	cal := calendar.NewMemory(
		event("seg1", "2024-07-01", "2024-07-05"),
		event("seg2", "2024-07-04", "2024-07-09"),
		event("seg3", "2024-07-08", "2024-07-12"),
		event("mirror", "2024-08-01", "2024-08-05"),
	)
	n := &countingNotifier{}
	now := day("2024-06-01")
	d := conflict.NewDetector(st, cal, conflict.WithNotifier(n), conflict.WithClock(func() time.Time { return now }))
	return st, cal, d, n
}

func TestGroupSuppressesConflicts(t *testing.T) {
	st, cal, d, _ := setup(t)
	g := grouping.NewGrouper(st, cal, d, nil)
	ctx := context.Background()

	before, err := d.FindAllConflicts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(before) != 2 {
		t.Fatalf("before grouping got %d conflicts, want 2", len(before))
	}

	color, err := g.Group(ctx, "admin", []string{"seg3", "seg1", "seg2", "seg1"})
	if err != nil {
		t.Fatalf("Group() error = %v", err)
	}
	if color == calendar.InfoColor {
		t.Error("group got the informational color")
	}
	edges, _ := g.Links(ctx, nil)
	if len(edges) != 3 {
		t.Errorf("edges = %v, want 3 pairwise edges", edges)
	}
	for _, id := range []string{"seg1", "seg2", "seg3"} {
		ev, _ := cal.GetEvent(ctx, id)
		if ev.Color != color {
			t.Errorf("%s color = %d, want %d", id, ev.Color, color)
		}
	}

	after, err := d.FindAllConflicts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 0 {
		t.Errorf("after grouping got %d conflicts, want 0", len(after))
	}
}

func TestGroupThenUngroup(t *testing.T) {
	st, cal, d, n := setup(t)
	g := grouping.NewGrouper(st, cal, d, nil)
	ctx := context.Background()
	ids := []string{"seg1", "seg2", "seg3"}

	if _, err := g.Group(ctx, "admin", ids); err != nil {
		t.Fatal(err)
	}
	// An ignore marker touching the group is cleared on ungroup.
	key := conflict.NaturalKey(conflict.TypeEventEvent, "seg1", "seg2")
	if err := d.Ignore(ctx, "admin", key, "same stay"); err != nil {
		t.Fatal(err)
	}

	colors, err := g.Ungroup(ctx, "admin", ids)
	if err != nil {
		t.Fatalf("Ungroup() error = %v", err)
	}
	edges, _ := g.Links(ctx, ids)
	if len(edges) != 0 {
		t.Errorf("edges after ungroup = %v, want none", edges)
	}
	seen := map[int]bool{}
	for _, id := range ids {
		ev, _ := cal.GetEvent(ctx, id)
		if ev.Color != colors[id] {
			t.Errorf("%s color = %d, want %d", id, ev.Color, colors[id])
		}
		if seen[ev.Color] {
			t.Errorf("color %d assigned twice", ev.Color)
		}
		seen[ev.Color] = true
	}
	again := calendar.UngroupColors(ids)
	for id, c := range colors {
		if again[id] != c {
			t.Errorf("ungroup color of %s not deterministic: %d vs %d", id, c, again[id])
		}
	}

	if ignored, _ := st.IsConflictIgnored(ctx, key); ignored {
		t.Error("ignore marker survived ungroup")
	}
	if n.n != 4 {
		// seg1-seg2 from seg1 and seg2, seg2-seg3 from seg2 and seg3.
		t.Errorf("notifications = %d, want 4", n.n)
	}
}

func TestGroupRejectsInvalidInput(t *testing.T) {
	st, cal, d, _ := setup(t)
	g := grouping.NewGrouper(st, cal, d, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
	}{
		{"single event", func() error { _, err := g.Group(ctx, "admin", []string{"seg1", "seg1"}); return err }},
		{"mirror in group", func() error { _, err := g.Group(ctx, "admin", []string{"seg1", "mirror"}); return err }},
		{"mirror in ungroup", func() error { _, err := g.Ungroup(ctx, "admin", []string{"mirror"}); return err }},
		{"empty ungroup", func() error { _, err := g.Ungroup(ctx, "admin", nil); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, grouping.ErrInvalidGroup) {
				t.Errorf("error = %v, want ErrInvalidGroup", err)
			}
		})
	}
	if edges, _ := g.Links(ctx, nil); len(edges) != 0 {
		t.Errorf("rejected group left edges %v", edges)
	}
}

func TestGroupWithCalendarDown(t *testing.T) {
	st, cal, d, _ := setup(t)
	cal.SetErr(errors.New("offline"))
	g := grouping.NewGrouper(st, cal, d, nil)

	if _, err := g.Group(context.Background(), "admin", []string{"seg1", "seg2"}); err != nil {
		t.Fatalf("Group() error = %v", err)
	}
	if _, err := g.Ungroup(context.Background(), "admin", []string{"seg1", "seg2"}); err != nil {
		t.Fatalf("Ungroup() error = %v", err)
	}
}
