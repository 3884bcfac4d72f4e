package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"holiday-booking/internal/dates"
	"holiday-booking/internal/model"
	"holiday-booking/internal/store"
)

var (
	ErrPhaseNotFound   = errors.New("pricing phase not found")
	ErrInvalidPhase    = errors.New("invalid pricing phase")
	ErrInvalidSettings = errors.New("invalid pricing settings")
)

// AdminStore is the write side of pricing persistence.
type AdminStore interface {
	ListPricingPhases(ctx context.Context, activeOnly bool) ([]model.PricingPhase, error)
	GetPricingPhase(ctx context.Context, id string) (*model.PricingPhase, error)
	InsertPricingPhase(ctx context.Context, p *model.PricingPhase) error
	UpdatePricingPhase(ctx context.Context, p *model.PricingPhase) error
	DeletePricingPhase(ctx context.Context, id string) error
	GetPricingSettings(ctx context.Context) (model.PricingSettings, error)
	SavePricingSettings(ctx context.Context, s model.PricingSettings) error
}

// Admin manages pricing phases and global settings.
type Admin struct {
	store  AdminStore
	logger *slog.Logger
}

func NewAdmin(s AdminStore, logger *slog.Logger) *Admin {
	if logger == nil {
		logger = slog.Default()
	}
	return &Admin{store: s, logger: logger.With("component", "pricing")}
}

// ListPhases returns every phase in resolution order.
func (a *Admin) ListPhases(ctx context.Context) ([]model.PricingPhase, error) {
	phases, err := a.store.ListPricingPhases(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list pricing phases: %w", err)
	}
	sortPhases(phases)
	return phases, nil
}

func checkPhase(p *model.PricingPhase) error {
	p.Name = strings.TrimSpace(p.Name)
	p.StartDate = dates.NormalizeToCalendarDay(p.StartDate, time.UTC)
	p.EndDate = dates.NormalizeToCalendarDay(p.EndDate, time.UTC)
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidPhase)
	case p.StartDate.IsZero() || p.EndDate.IsZero():
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidPhase)
	case p.EndDate.Before(p.StartDate):
		return fmt.Errorf("%w: end date before start date", ErrInvalidPhase)
	case p.NightlyRate.IsNegative():
		return fmt.Errorf("%w: nightly rate must not be negative", ErrInvalidPhase)
	case p.FamilyRate != nil && p.FamilyRate.IsNegative():
		return fmt.Errorf("%w: family rate must not be negative", ErrInvalidPhase)
	case p.MinNights != nil && *p.MinNights < 1:
		return fmt.Errorf("%w: minimum nights must be at least 1", ErrInvalidPhase)
	case p.ArrivalWeekday != nil && (*p.ArrivalWeekday < 0 || *p.ArrivalWeekday > 6):
		return fmt.Errorf("%w: arrival weekday must be 0-6", ErrInvalidPhase)
	}
	return nil
}

func (a *Admin) CreatePhase(ctx context.Context, actor string, p model.PricingPhase) (*model.PricingPhase, error) {
	if err := checkPhase(&p); err != nil {
		return nil, err
	}
	p.ID = uuid.NewString()
	if err := a.store.InsertPricingPhase(ctx, &p); err != nil {
		return nil, fmt.Errorf("insert pricing phase: %w", err)
	}
	a.logger.Info("pricing phase created", "id", p.ID, "name", p.Name, "actor", actor)
	return &p, nil
}

func (a *Admin) UpdatePhase(ctx context.Context, actor string, p model.PricingPhase) (*model.PricingPhase, error) {
	if err := checkPhase(&p); err != nil {
		return nil, err
	}
	if err := a.store.UpdatePricingPhase(ctx, &p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPhaseNotFound
		}
		return nil, fmt.Errorf("update pricing phase: %w", err)
	}
	a.logger.Info("pricing phase updated", "id", p.ID, "actor", actor)
	return &p, nil
}

func (a *Admin) DeletePhase(ctx context.Context, actor, id string) error {
	if err := a.store.DeletePricingPhase(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPhaseNotFound
		}
		return fmt.Errorf("delete pricing phase: %w", err)
	}
	a.logger.Info("pricing phase deleted", "id", id, "actor", actor)
	return nil
}

func (a *Admin) Settings(ctx context.Context) (model.PricingSettings, error) {
	s, err := a.store.GetPricingSettings(ctx)
	if err != nil {
		return model.PricingSettings{}, fmt.Errorf("get pricing settings: %w", err)
	}
	return s, nil
}

func (a *Admin) UpdateSettings(ctx context.Context, actor string, s model.PricingSettings) error {
	switch {
	case s.BaseNightlyRate.IsNegative(), s.FamilyNightlyRate.IsNegative(), s.CleaningFee.IsNegative():
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidSettings)
	case s.MinStayNights < 1:
		return fmt.Errorf("%w: minimum stay must be at least 1 night", ErrInvalidSettings)
	}
	if err := a.store.SavePricingSettings(ctx, s); err != nil {
		return fmt.Errorf("save pricing settings: %w", err)
	}
	a.logger.Info("pricing settings updated", "actor", actor)
	return nil
}
