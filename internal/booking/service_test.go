package booking_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"holiday-booking/internal/booking"
	"holiday-booking/internal/calendar"
	"holiday-booking/internal/memstore"
	"holiday-booking/internal/model"
	"holiday-booking/internal/pricing"
)

type stubChecker struct {
	mu      sync.Mutex
	checked []string
}

func (s *stubChecker) CheckBooking(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checked = append(s.checked, id)
	return nil
}

type fixture struct {
	store   *memstore.Store
	cal     *calendar.Memory
	checker *stubChecker
	svc     *booking.Service
}

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	err := st.SavePricingSettings(context.Background(), model.PricingSettings{
		BaseNightlyRate:   decimal.NewFromInt(100),
		FamilyNightlyRate: decimal.NewFromInt(70),
		CleaningFee:       decimal.NewFromInt(40),
		MinStayNights:     2,
	})
	if err != nil {
		t.Fatal(err)
	}
	cal := calendar.NewMemory()
	now := day("2024-06-01")
	engine := pricing.NewEngine(st, cal, pricing.WithClock(func() time.Time { return now }))
	checker := &stubChecker{}
	var n atomic.Int64
	svc := booking.NewService(st, engine,
		booking.WithCalendar(cal),
		booking.WithConflictChecker(checker),
		booking.WithIDGenerator(func() string { return fmt.Sprintf("id-%d", n.Add(1)) }),
	)
	return &fixture{store: st, cal: cal, checker: checker, svc: svc}
}

func (f *fixture) accessCode(t *testing.T, plain string, family bool) {
	t.Helper()
	if _, err := f.svc.CreateAccessCode(context.Background(), "admin", "test", plain, family); err != nil {
		t.Fatalf("CreateAccessCode() error = %v", err)
	}
}

func request(code, start, end string) booking.GuestRequest {
	return booking.GuestRequest{
		AccessCode: code,
		StartDate:  day(start),
		EndDate:    day(end),
		GuestName:  "Anna",
		GuestEmail: "anna@example.com",
		Guests:     2,
	}
}

func TestRequest(t *testing.T) {
	f := newFixture(t)
	f.accessCode(t, "summer-2024", false)
	f.accessCode(t, "family-only", true)
	ctx := context.Background()

	b, v, err := f.svc.Request(ctx, request("summer-2024", "2024-07-01", "2024-07-04"))
	if err != nil || !v.Valid {
		t.Fatalf("Request() = %+v, %v", v, err)
	}
	if b.Status != model.StatusPending {
		t.Errorf("Status = %s, want PENDING", b.Status)
	}
	if !b.TotalPrice.Equal(decimal.NewFromInt(340)) {
		t.Errorf("TotalPrice = %s, want 340", b.TotalPrice)
	}

	fam, v, err := f.svc.Request(ctx, request("family-only", "2024-07-10", "2024-07-12"))
	if err != nil || !v.Valid {
		t.Fatalf("family Request() = %+v, %v", v, err)
	}
	if !fam.FamilyRate || !fam.TotalPrice.Equal(decimal.NewFromInt(180)) {
		t.Errorf("family booking = rate %v total %s, want family total 180", fam.FamilyRate, fam.TotalPrice)
	}

	_, v, err = f.svc.Request(ctx, request("summer-2024", "2024-07-03", "2024-07-06"))
	if err != nil {
		t.Fatalf("overlapping Request() error = %v", err)
	}
	if v.Valid || v.Code != pricing.CodeBookingOverlap {
		t.Errorf("overlapping Request() = %+v, want booking_overlap", v)
	}

	if _, _, err := f.svc.Request(ctx, request("wrong-code", "2024-08-01", "2024-08-04")); !errors.Is(err, booking.ErrAccessDenied) {
		t.Errorf("bad code error = %v, want ErrAccessDenied", err)
	}

	bad := request("summer-2024", "2024-08-01", "2024-08-04")
	bad.GuestEmail = "nope"
	if _, _, err := f.svc.Request(ctx, bad); !errors.Is(err, booking.ErrInvalidInput) {
		t.Errorf("bad email error = %v, want ErrInvalidInput", err)
	}

	if len(f.checker.checked) != 2 {
		t.Errorf("conflict checks = %v, want one per stored booking", f.checker.checked)
	}
}

func TestApproveMirrorsAndCancelRemoves(t *testing.T) {
	f := newFixture(t)
	f.accessCode(t, "summer-2024", false)
	ctx := context.Background()

	b, _, err := f.svc.Request(ctx, request("summer-2024", "2024-07-01", "2024-07-04"))
	if err != nil {
		t.Fatal(err)
	}
	approved, err := f.svc.Approve(ctx, "admin", b.ID)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	eventID := approved.EventID()
	if eventID == "" {
		t.Fatal("approved booking has no calendar event")
	}
	ev, err := f.cal.GetEvent(ctx, eventID)
	if err != nil {
		t.Fatalf("mirror event missing: %v", err)
	}
	if ev.Summary != "Booking: Anna (2 guests)" || !ev.Start.Equal(day("2024-07-01")) {
		t.Errorf("mirror event = %+v", ev)
	}
	stored, _ := f.store.GetBooking(ctx, b.ID)
	if stored.EventID() != eventID {
		t.Errorf("stored event id = %q, want %q", stored.EventID(), eventID)
	}

	if _, err := f.svc.Approve(ctx, "admin", b.ID); !errors.Is(err, booking.ErrInvalidTransition) {
		t.Errorf("second Approve() error = %v, want ErrInvalidTransition", err)
	}

	cancelled, err := f.svc.Cancel(ctx, "admin", b.ID)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != model.StatusCancelled || cancelled.EventID() != "" {
		t.Errorf("cancelled booking = %+v", cancelled)
	}
	if _, err := f.cal.GetEvent(ctx, eventID); !errors.Is(err, calendar.ErrEventNotFound) {
		t.Errorf("mirror event still present: %v", err)
	}

	// Cancelled dates are free again.
	_, v, err := f.svc.Request(ctx, request("summer-2024", "2024-07-01", "2024-07-04"))
	if err != nil || !v.Valid {
		t.Errorf("rebooking cancelled dates = %+v, %v", v, err)
	}
}

func TestApproveWithCalendarDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, _, err := f.svc.CreateDirect(ctx, "admin", booking.AdminEntry{
		StartDate: day("2024-07-01"), EndDate: day("2024-07-05"),
		GuestName: "Ben", GuestEmail: "ben@example.com", Guests: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	f.cal.SetErr(errors.New("timeout"))

	approved, err := f.svc.Approve(ctx, "admin", b.ID)
	if err != nil {
		t.Fatalf("Approve() with calendar down error = %v", err)
	}
	if approved.Status != model.StatusApproved || approved.EventID() != "" {
		t.Errorf("approved = %+v, want APPROVED without event", approved)
	}
}

func TestEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, _, err := f.svc.CreateDirect(ctx, "admin", booking.AdminEntry{
		StartDate: day("2024-07-01"), EndDate: day("2024-07-05"),
		GuestName: "Ben", GuestEmail: "ben@example.com", Guests: 3, Approve: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.EventID() == "" {
		t.Fatal("direct approved booking not mirrored")
	}
	if _, _, err := f.svc.CreateDirect(ctx, "admin", booking.AdminEntry{
		StartDate: day("2024-07-10"), EndDate: day("2024-07-12"),
		GuestName: "Cleo", GuestEmail: "cleo@example.com", Guests: 2,
	}); err != nil {
		t.Fatal(err)
	}

	// Shrinking inside its own range must not collide with itself.
	end := day("2024-07-04")
	edited, v, err := f.svc.Edit(ctx, "admin", a.ID, booking.Changes{EndDate: &end})
	if err != nil || !v.Valid {
		t.Fatalf("Edit() = %+v, %v", v, err)
	}
	if !edited.TotalPrice.Equal(decimal.NewFromInt(340)) {
		t.Errorf("TotalPrice = %s, want 340", edited.TotalPrice)
	}
	ev, _ := f.cal.GetEvent(ctx, a.EventID())
	if !ev.End.Equal(end) {
		t.Errorf("mirror end = %v, want %v", ev.End, end)
	}

	longer := day("2024-07-11")
	_, v, err = f.svc.Edit(ctx, "admin", a.ID, booking.Changes{EndDate: &longer})
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if v.Valid || v.Code != pricing.CodeBookingOverlap {
		t.Errorf("extending into next booking = %+v, want booking_overlap", v)
	}
	stored, _ := f.store.GetBooking(ctx, a.ID)
	if !stored.EndDate.Equal(end) {
		t.Errorf("rejected edit was stored: end = %v", stored.EndDate)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, _, err := f.svc.CreateDirect(ctx, "admin", booking.AdminEntry{
		StartDate: day("2024-07-01"), EndDate: day("2024-07-05"),
		GuestName: "Ben", GuestEmail: "ben@example.com", Guests: 1, Approve: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Delete(ctx, "admin", b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := f.svc.Get(ctx, b.ID); !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if _, err := f.cal.GetEvent(ctx, b.EventID()); !errors.Is(err, calendar.ErrEventNotFound) {
		t.Errorf("mirror event survived delete: %v", err)
	}
	if ids, _ := f.store.ListCalendarEventIDs(ctx); len(ids) != 0 {
		t.Errorf("known event ids after delete = %v, want none", ids)
	}
	if err := f.svc.Delete(ctx, "admin", b.ID); !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestCancelKeepsLinkWhenCalendarDeleteFails(t *testing.T) {
	f := newFixture(t)
	f.accessCode(t, "summer-2024", false)
	ctx := context.Background()

	b, v, err := f.svc.Request(ctx, request("summer-2024", "2024-07-01", "2024-07-04"))
	if err != nil || !v.Valid {
		t.Fatalf("Request() = %+v, %v", v, err)
	}
	b, err = f.svc.Approve(ctx, "admin", b.ID)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	eventID := b.EventID()

	f.cal.SetErr(errors.New("calendar unavailable"))
	cancelled, err := f.svc.Cancel(ctx, "admin", b.ID)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	f.cal.SetErr(nil)
	if cancelled.EventID() != eventID {
		t.Errorf("cancelled booking event id = %q, want %q kept", cancelled.EventID(), eventID)
	}
	if _, err := f.cal.GetEvent(ctx, eventID); err != nil {
		t.Fatalf("mirror event should still exist: %v", err)
	}

	// The leftover mirror is still recognised, so the dates are free.
	_, v, err = f.svc.Request(ctx, request("summer-2024", "2024-07-01", "2024-07-04"))
	if err != nil || !v.Valid {
		t.Errorf("rebooking cancelled dates = %+v, %v", v, err)
	}
}

func TestDeleteKeepsOrphanWhenCalendarDeleteFails(t *testing.T) {
	f := newFixture(t)
	f.accessCode(t, "summer-2024", false)
	ctx := context.Background()

	b, _, err := f.svc.CreateDirect(ctx, "admin", booking.AdminEntry{
		StartDate: day("2024-07-01"), EndDate: day("2024-07-05"),
		GuestName: "Ben", GuestEmail: "ben@example.com", Guests: 1, Approve: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	eventID := b.EventID()
	if eventID == "" {
		t.Fatal("approved entry was not mirrored")
	}

	f.cal.SetErr(errors.New("calendar unavailable"))
	if err := f.svc.Delete(ctx, "admin", b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	f.cal.SetErr(nil)

	ids, _ := f.store.ListCalendarEventIDs(ctx)
	if len(ids) != 1 || ids[0] != eventID {
		t.Errorf("known event ids = %v, want orphan %q", ids, eventID)
	}
	_, v, err := f.svc.Request(ctx, request("summer-2024", "2024-07-01", "2024-07-04"))
	if err != nil || !v.Valid {
		t.Errorf("rebooking deleted dates = %+v, %v", v, err)
	}
}

func TestConcurrentRequestsSerialize(t *testing.T) {
	f := newFixture(t)
	f.accessCode(t, "summer-2024", false)
	ctx := context.Background()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		valid int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, v, err := f.svc.Request(ctx, request("summer-2024", "2024-07-01", "2024-07-04"))
			if err != nil {
				t.Errorf("Request() error = %v", err)
				return
			}
			if v.Valid {
				mu.Lock()
				valid++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if valid != 1 {
		t.Errorf("%d concurrent requests for the same dates succeeded, want 1", valid)
	}
}

func TestCanTransition(t *testing.T) {
	t.Parallel()
	tests := []struct {
		from, to model.BookingStatus
		want     bool
	}{
		{model.StatusPending, model.StatusApproved, true},
		{model.StatusPending, model.StatusRejected, true},
		{model.StatusPending, model.StatusCancelled, true},
		{model.StatusApproved, model.StatusCancelled, true},
		{model.StatusApproved, model.StatusRejected, false},
		{model.StatusRejected, model.StatusApproved, false},
		{model.StatusCancelled, model.StatusPending, false},
	}
	for _, tt := range tests {
		if got := booking.CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
