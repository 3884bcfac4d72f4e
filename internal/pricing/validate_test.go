package pricing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"holiday-booking/internal/calendar"
	"holiday-booking/internal/model"
	"holiday-booking/internal/pricing"
)

func insertBooking(t *testing.T, s interface {
	InsertBooking(context.Context, *model.Booking) error
}, b model.Booking) {
	t.Helper()
	if err := s.InsertBooking(context.Background(), &b); err != nil {
		t.Fatalf("insert booking %s: %v", b.ID, err)
	}
}

func TestValidateBookingDatesExcludeSelf(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	insertBooking(t, s, model.Booking{
		ID: "b1", Status: model.StatusApproved,
		StartDate: day(t, "2024-07-01"), EndDate: day(t, "2024-07-15"),
	})
	e := pricing.NewEngine(s, nil, fixedClock(t, "2024-06-01"))
	ctx := context.Background()

	v, err := e.ValidateBookingDates(ctx, day(t, "2024-07-03"), day(t, "2024-07-06"), "")
	if err != nil {
		t.Fatalf("ValidateBookingDates() error = %v", err)
	}
	if v.Valid || v.Code != pricing.CodeBookingOverlap || v.ConflictID != "b1" {
		t.Errorf("inside existing booking = %+v, want booking_overlap on b1", v)
	}

	v, err = e.ValidateBookingDates(ctx, day(t, "2024-07-03"), day(t, "2024-07-06"), "b1")
	if err != nil {
		t.Fatalf("ValidateBookingDates() error = %v", err)
	}
	if !v.Valid {
		t.Errorf("excluding b1 = %+v, want valid", v)
	}
}

func TestValidateBookingDates(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	insertBooking(t, s, model.Booking{
		ID: "approved", Status: model.StatusApproved,
		StartDate: day(t, "2024-08-01"), EndDate: day(t, "2024-08-08"),
	})
	insertBooking(t, s, model.Booking{
		ID: "rejected", Status: model.StatusRejected,
		StartDate: day(t, "2024-09-01"), EndDate: day(t, "2024-09-08"),
	})
	insertBooking(t, s, model.Booking{
		ID: "mirrored", Status: model.StatusApproved, CalendarEventID: ptr("mirror-evt"),
		StartDate: day(t, "2024-11-01"), EndDate: day(t, "2024-11-05"),
	})
	addPhase(t, s, model.PricingPhase{
		ID: "peak", Name: "Peak", Priority: 1, NightlyRate: dec("150"),
		MinNights: ptr(7), ArrivalWeekday: ptr(time.Saturday),
		StartDate: day(t, "2024-12-20"), EndDate: day(t, "2025-01-06"),
	})
	cal := calendar.NewMemory(
		model.CalendarEvent{ID: "manual", Summary: "Family", AllDay: true, Color: 4,
			Start: day(t, "2024-10-10"), End: day(t, "2024-10-14")},
		model.CalendarEvent{ID: "holiday", Summary: "Holiday", AllDay: true, Color: calendar.InfoColor,
			Start: day(t, "2024-10-20"), End: day(t, "2024-10-21")},
		model.CalendarEvent{ID: "mirror-evt", Summary: "Booking: X (2 guests)", AllDay: true,
			Start: day(t, "2024-11-01"), End: day(t, "2024-11-05")},
	)
	e := pricing.NewEngine(s, cal, fixedClock(t, "2024-06-01"))

	tests := []struct {
		name       string
		start, end string
		want       pricing.Code
	}{
		{"valid", "2024-07-01", "2024-07-05", ""},
		{"starts today", "2024-06-01", "2024-06-03", ""},
		{"past start", "2024-05-30", "2024-06-03", pricing.CodePastStart},
		{"end before start", "2024-07-05", "2024-07-01", pricing.CodeInvalidRange},
		{"empty range", "2024-07-05", "2024-07-05", pricing.CodeInvalidRange},
		{"below default minimum", "2024-07-01", "2024-07-02", pricing.CodeMinStay},
		{"below phase minimum", "2024-12-21", "2024-12-25", pricing.CodeMinStay},
		{"wrong arrival weekday", "2024-12-22", "2024-12-29", pricing.CodeArrivalWeekday},
		{"phase rules met", "2024-12-21", "2024-12-28", ""},
		{"overlaps approved", "2024-08-05", "2024-08-10", pricing.CodeBookingOverlap},
		{"back to back before", "2024-07-28", "2024-08-01", ""},
		{"back to back after", "2024-08-08", "2024-08-10", ""},
		{"rejected does not block", "2024-09-02", "2024-09-05", ""},
		{"blocking event", "2024-10-12", "2024-10-15", pricing.CodeEventOverlap},
		{"departure on event start", "2024-10-08", "2024-10-10", ""},
		{"informational event", "2024-10-19", "2024-10-22", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := e.ValidateBookingDates(context.Background(), day(t, tt.start), day(t, tt.end), "")
			if err != nil {
				t.Fatalf("ValidateBookingDates() error = %v", err)
			}
			if tt.want == "" {
				if !v.Valid {
					t.Errorf("got %+v, want valid", v)
				}
				return
			}
			if v.Valid || v.Code != tt.want {
				t.Errorf("got %+v, want code %q", v, tt.want)
			}
			if v.Reason == "" {
				t.Errorf("invalid result without reason")
			}
		})
	}
}

func TestValidateBookingDatesMirrorEventDoesNotBlockItsBooking(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	insertBooking(t, s, model.Booking{
		ID: "b", Status: model.StatusApproved, CalendarEventID: ptr("evt"),
		StartDate: day(t, "2024-11-01"), EndDate: day(t, "2024-11-05"),
	})
	cal := calendar.NewMemory(model.CalendarEvent{ID: "evt", AllDay: true,
		Start: day(t, "2024-11-01"), End: day(t, "2024-11-05")})
	e := pricing.NewEngine(s, cal, fixedClock(t, "2024-06-01"))

	v, err := e.ValidateBookingDates(context.Background(), day(t, "2024-11-01"), day(t, "2024-11-06"), "b")
	if err != nil {
		t.Fatalf("ValidateBookingDates() error = %v", err)
	}
	if !v.Valid {
		t.Errorf("got %+v, want valid", v)
	}
}

func TestValidateBookingDatesCalendarDown(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	cal := calendar.NewMemory(model.CalendarEvent{ID: "manual", AllDay: true,
		Start: day(t, "2024-10-10"), End: day(t, "2024-10-14")})
	cal.SetErr(errors.New("connection refused"))
	e := pricing.NewEngine(s, cal, fixedClock(t, "2024-06-01"))

	v, err := e.ValidateBookingDates(context.Background(), day(t, "2024-10-11"), day(t, "2024-10-13"), "")
	if err != nil {
		t.Fatalf("calendar failure propagated: %v", err)
	}
	if !v.Valid {
		t.Errorf("got %+v, want valid without calendar data", v)
	}
}
