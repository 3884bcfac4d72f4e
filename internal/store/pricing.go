package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"holiday-booking/internal/model"
)

const phaseColumns = `id, name, start_date, end_date, priority, position, nightly_rate_cents, family_rate_cents,
	min_nights, arrival_weekday, active`

func scanPhase(row scanner) (model.PricingPhase, error) {
	var (
		p       model.PricingPhase
		nightly int64
		family  *int64
		weekday *int16
	)
	err := row.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Priority, &p.Position, &nightly, &family,
		&p.MinNights, &weekday, &p.Active)
	if err != nil {
		return p, err
	}
	p.NightlyRate = fromCents(nightly)
	if family != nil {
		r := fromCents(*family)
		p.FamilyRate = &r
	}
	if weekday != nil {
		w := time.Weekday(*weekday)
		p.ArrivalWeekday = &w
	}
	return p, nil
}

func phaseArgs(p *model.PricingPhase) []any {
	var (
		family  *int64
		weekday *int16
	)
	if p.FamilyRate != nil {
		c := toCents(*p.FamilyRate)
		family = &c
	}
	if p.ArrivalWeekday != nil {
		w := int16(*p.ArrivalWeekday)
		weekday = &w
	}
	return []any{p.ID, p.Name, p.StartDate, p.EndDate, p.Priority, p.Position, toCents(p.NightlyRate), family,
		p.MinNights, weekday, p.Active}
}

func (s *Store) ListPricingPhases(ctx context.Context, activeOnly bool) ([]model.PricingPhase, error) {
	rows, err := s.q.Query(ctx, `SELECT `+phaseColumns+` FROM pricing_phases
	      WHERE active OR NOT $1
	      ORDER BY priority DESC, position, id`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PricingPhase
	for rows.Next() {
		p, err := scanPhase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPricingPhase(ctx context.Context, id string) (*model.PricingPhase, error) {
	p, err := scanPhase(s.q.QueryRow(ctx, `SELECT `+phaseColumns+` FROM pricing_phases WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) InsertPricingPhase(ctx context.Context, p *model.PricingPhase) error {
	q := `INSERT INTO pricing_phases (` + phaseColumns + `)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := s.q.Exec(ctx, q, phaseArgs(p)...); err != nil {
		return fmt.Errorf("insert pricing phase: %w", err)
	}
	return nil
}

func (s *Store) UpdatePricingPhase(ctx context.Context, p *model.PricingPhase) error {
	q := `UPDATE pricing_phases SET name = $2, start_date = $3, end_date = $4, priority = $5, position = $6,
	          nightly_rate_cents = $7, family_rate_cents = $8, min_nights = $9, arrival_weekday = $10, active = $11
	      WHERE id = $1`
	tag, err := s.q.Exec(ctx, q, phaseArgs(p)...)
	if err != nil {
		return fmt.Errorf("update pricing phase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeletePricingPhase(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM pricing_phases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete pricing phase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPricingSettings reads the key/value settings. Missing keys keep their
// zero value; the minimum stay defaults to one night.
func (s *Store) GetPricingSettings(ctx context.Context) (model.PricingSettings, error) {
	settings := model.PricingSettings{MinStayNights: 1}
	rows, err := s.q.Query(ctx, `SELECT key, value FROM pricing_settings`)
	if err != nil {
		return settings, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return settings, err
		}
		if err := applySetting(&settings, key, value); err != nil {
			return settings, err
		}
	}
	return settings, rows.Err()
}

func applySetting(s *model.PricingSettings, key, value string) error {
	var err error
	switch key {
	case model.SettingBaseNightlyRate:
		s.BaseNightlyRate, err = decimal.NewFromString(value)
	case model.SettingFamilyNightlyRate:
		s.FamilyNightlyRate, err = decimal.NewFromString(value)
	case model.SettingCleaningFee:
		s.CleaningFee, err = decimal.NewFromString(value)
	case model.SettingMinStayNights:
		s.MinStayNights, err = strconv.Atoi(value)
	}
	if err != nil {
		return fmt.Errorf("pricing setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) SavePricingSettings(ctx context.Context, ps model.PricingSettings) error {
	values := map[string]string{
		model.SettingBaseNightlyRate:   ps.BaseNightlyRate.StringFixed(2),
		model.SettingFamilyNightlyRate: ps.FamilyNightlyRate.StringFixed(2),
		model.SettingCleaningFee:       ps.CleaningFee.StringFixed(2),
		model.SettingMinStayNights:     strconv.Itoa(ps.MinStayNights),
	}
	return s.inTx(ctx, func(tx *Store) error {
		for k, v := range values {
			_, err := tx.q.Exec(ctx, `INSERT INTO pricing_settings (key, value) VALUES ($1, $2)
			      ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, k, v)
			if err != nil {
				return fmt.Errorf("save pricing setting %s: %w", k, err)
			}
		}
		return nil
	})
}

func (s *Store) ListAccessCodes(ctx context.Context, activeOnly bool) ([]model.AccessCode, error) {
	rows, err := s.q.Query(ctx, `SELECT id, label, code_hash, family_rate, active, created_at
	      FROM access_codes WHERE active OR NOT $1 ORDER BY created_at, id`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AccessCode
	for rows.Next() {
		var c model.AccessCode
		if err := rows.Scan(&c.ID, &c.Label, &c.CodeHash, &c.FamilyRate, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) InsertAccessCode(ctx context.Context, c *model.AccessCode) error {
	err := s.q.QueryRow(ctx, `INSERT INTO access_codes (id, label, code_hash, family_rate, active)
	      VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		c.ID, c.Label, c.CodeHash, c.FamilyRate, c.Active).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert access code: %w", err)
	}
	return nil
}
