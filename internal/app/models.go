package app

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"holiday-booking/internal/booking"
	"holiday-booking/internal/conflict"
	"holiday-booking/internal/dates"
	"holiday-booking/internal/model"
	"holiday-booking/internal/pricing"
)

// Dates travel as YYYY-MM-DD strings.

type guestRequestReq struct {
	AccessCode string `json:"access_code" binding:"required"`
	StartDate  string `json:"start_date" binding:"required"`
	EndDate    string `json:"end_date" binding:"required"`
	GuestName  string `json:"guest_name" binding:"required"`
	GuestEmail string `json:"guest_email" binding:"required,email"`
	GuestPhone string `json:"guest_phone,omitempty"`
	Guests     int    `json:"guests" binding:"required,min=1"`
	Message    string `json:"message,omitempty"`
}

func (r guestRequestReq) toRequest() (booking.GuestRequest, error) {
	start, end, err := parseRange(r.StartDate, r.EndDate)
	if err != nil {
		return booking.GuestRequest{}, err
	}
	return booking.GuestRequest{
		AccessCode: r.AccessCode,
		StartDate:  start,
		EndDate:    end,
		GuestName:  r.GuestName,
		GuestEmail: r.GuestEmail,
		GuestPhone: r.GuestPhone,
		Guests:     r.Guests,
		Message:    r.Message,
	}, nil
}

type adminEntryReq struct {
	StartDate  string `json:"start_date" binding:"required"`
	EndDate    string `json:"end_date" binding:"required"`
	GuestName  string `json:"guest_name" binding:"required"`
	GuestEmail string `json:"guest_email" binding:"required,email"`
	GuestPhone string `json:"guest_phone,omitempty"`
	Guests     int    `json:"guests" binding:"required,min=1"`
	Message    string `json:"message,omitempty"`
	FamilyRate bool   `json:"family_rate"`
	Approve    bool   `json:"approve"`
}

func (r adminEntryReq) toEntry() (booking.AdminEntry, error) {
	start, end, err := parseRange(r.StartDate, r.EndDate)
	if err != nil {
		return booking.AdminEntry{}, err
	}
	return booking.AdminEntry{
		StartDate:  start,
		EndDate:    end,
		GuestName:  r.GuestName,
		GuestEmail: r.GuestEmail,
		GuestPhone: r.GuestPhone,
		Guests:     r.Guests,
		Message:    r.Message,
		FamilyRate: r.FamilyRate,
		Approve:    r.Approve,
	}, nil
}

type editBookingReq struct {
	StartDate  *string `json:"start_date"`
	EndDate    *string `json:"end_date"`
	GuestName  *string `json:"guest_name"`
	GuestEmail *string `json:"guest_email"`
	GuestPhone *string `json:"guest_phone"`
	Guests     *int    `json:"guests"`
	Message    *string `json:"message"`
	FamilyRate *bool   `json:"family_rate"`
}

func (r editBookingReq) toChanges() (booking.Changes, error) {
	ch := booking.Changes{
		GuestName:  r.GuestName,
		GuestEmail: r.GuestEmail,
		GuestPhone: r.GuestPhone,
		Guests:     r.Guests,
		Message:    r.Message,
		FamilyRate: r.FamilyRate,
	}
	for _, f := range []struct {
		in  *string
		out **time.Time
	}{{r.StartDate, &ch.StartDate}, {r.EndDate, &ch.EndDate}} {
		if f.in == nil {
			continue
		}
		d, err := dates.ParseDay(*f.in)
		if err != nil {
			return booking.Changes{}, fmt.Errorf("invalid date %q", *f.in)
		}
		*f.out = &d
	}
	return ch, nil
}

type phaseReq struct {
	Name           string           `json:"name" binding:"required"`
	StartDate      string           `json:"start_date" binding:"required"`
	EndDate        string           `json:"end_date" binding:"required"`
	Priority       int              `json:"priority"`
	Position       int              `json:"position"`
	NightlyRate    decimal.Decimal  `json:"nightly_rate"`
	FamilyRate     *decimal.Decimal `json:"family_rate"`
	MinNights      *int             `json:"min_nights"`
	ArrivalWeekday *time.Weekday    `json:"arrival_weekday"`
	Active         *bool            `json:"active"`
}

func (r phaseReq) toPhase(id string) (model.PricingPhase, error) {
	start, err := dates.ParseDay(r.StartDate)
	if err != nil {
		return model.PricingPhase{}, fmt.Errorf("invalid start_date %q", r.StartDate)
	}
	end, err := dates.ParseDay(r.EndDate)
	if err != nil {
		return model.PricingPhase{}, fmt.Errorf("invalid end_date %q", r.EndDate)
	}
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return model.PricingPhase{
		ID:             id,
		Name:           r.Name,
		StartDate:      start,
		EndDate:        end,
		Priority:       r.Priority,
		Position:       r.Position,
		NightlyRate:    r.NightlyRate,
		FamilyRate:     r.FamilyRate,
		MinNights:      r.MinNights,
		ArrivalWeekday: r.ArrivalWeekday,
		Active:         active,
	}, nil
}

type accessCodeReq struct {
	Label      string `json:"label"`
	Code       string `json:"code" binding:"required"`
	FamilyRate bool   `json:"family_rate"`
}

type ignoreReq struct {
	Key    string `json:"key" binding:"required"`
	Reason string `json:"reason"`
}

type eventIDsReq struct {
	EventIDs []string `json:"event_ids" binding:"required"`
}

type bookingResp struct {
	Booking    *model.Booking      `json:"booking,omitempty"`
	Validation *pricing.Validation `json:"validation,omitempty"`
}

type quoteResp struct {
	Quote      *pricing.Quote     `json:"quote,omitempty"`
	Validation pricing.Validation `json:"validation"`
}

type conflictsResp struct {
	Conflicts []conflict.View         `json:"conflicts"`
	Ignored   []model.IgnoredConflict `json:"ignored"`
	Count     int                     `json:"count"`
}

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := dates.ParseDay(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date %q", startStr)
	}
	end, err := dates.ParseDay(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date %q", endStr)
	}
	return start, end, nil
}

func views(cs []conflict.Conflict) []conflict.View {
	out := make([]conflict.View, 0, len(cs))
	for _, c := range cs {
		out = append(out, conflict.Describe(c))
	}
	return out
}
