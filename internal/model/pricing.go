package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingPhase is a seasonal rate. StartDate and EndDate are both inclusive
// date-only values.
type PricingPhase struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	StartDate      time.Time        `json:"start_date"`
	EndDate        time.Time        `json:"end_date"`
	Priority       int              `json:"priority"`
	Position       int              `json:"position"`
	NightlyRate    decimal.Decimal  `json:"nightly_rate"`
	FamilyRate     *decimal.Decimal `json:"family_rate,omitempty"`
	MinNights      *int             `json:"min_nights,omitempty"`
	ArrivalWeekday *time.Weekday    `json:"arrival_weekday,omitempty"`
	Active         bool             `json:"active"`
}

// Covers reports whether the night starting on day is priced by the phase.
func (p PricingPhase) Covers(day time.Time) bool {
	return !day.Before(p.StartDate) && !day.After(p.EndDate)
}

// Rate returns the phase rate for the requested tier. A phase without a family
// rate charges its standard rate to everyone.
func (p PricingPhase) Rate(family bool) decimal.Decimal {
	if family && p.FamilyRate != nil {
		return *p.FamilyRate
	}
	return p.NightlyRate
}

// Setting keys in the pricing_settings table.
const (
	SettingBaseNightlyRate   = "base_nightly_rate"
	SettingFamilyNightlyRate = "family_nightly_rate"
	SettingCleaningFee       = "cleaning_fee"
	SettingMinStayNights     = "min_stay_nights"
)

type PricingSettings struct {
	BaseNightlyRate   decimal.Decimal `json:"base_nightly_rate"`
	FamilyNightlyRate decimal.Decimal `json:"family_nightly_rate"`
	CleaningFee       decimal.Decimal `json:"cleaning_fee"`
	MinStayNights     int             `json:"min_stay_nights"`
}

// BaseRate returns the fallback nightly rate for the requested tier. An unset
// family rate falls back to the standard rate.
func (s PricingSettings) BaseRate(family bool) decimal.Decimal {
	if family && !s.FamilyNightlyRate.IsZero() {
		return s.FamilyNightlyRate
	}
	return s.BaseNightlyRate
}
