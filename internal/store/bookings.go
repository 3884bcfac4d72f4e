package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"holiday-booking/internal/model"
)

const bookingColumns = `id, start_date, end_date, status, guest_name, guest_email, guest_phone, guests,
	message, total_cents, family_rate, calendar_event_id, access_code_id, created_at, updated_at`

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func scanBooking(row scanner) (model.Booking, error) {
	var (
		b     model.Booking
		cents int64
	)
	err := row.Scan(&b.ID, &b.StartDate, &b.EndDate, &b.Status, &b.GuestName, &b.GuestEmail, &b.GuestPhone,
		&b.Guests, &b.Message, &cents, &b.FamilyRate, &b.CalendarEventID, &b.AccessCodeID, &b.CreatedAt, &b.UpdatedAt)
	b.TotalPrice = fromCents(cents)
	return b, err
}

func (s *Store) listBookings(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := s.q.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) ListActiveBookings(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings
	      WHERE status IN ('PENDING', 'APPROVED')
	        AND ($1::date IS NULL OR end_date > $1::date)
	        AND ($2::date IS NULL OR start_date < $2::date)
	      ORDER BY start_date, id`
	return s.listBookings(ctx, q, nullDate(from), nullDate(to))
}

func (s *Store) ListBookings(ctx context.Context) ([]model.Booking, error) {
	return s.listBookings(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY start_date, id`)
}

func (s *Store) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	b, err := scanBooking(s.q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) InsertBooking(ctx context.Context, b *model.Booking) error {
	q := `INSERT INTO bookings (id, start_date, end_date, status, guest_name, guest_email, guest_phone, guests,
	          message, total_cents, family_rate, calendar_event_id, access_code_id)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	      RETURNING created_at, updated_at`
	err := s.q.QueryRow(ctx, q, b.ID, b.StartDate, b.EndDate, b.Status, b.GuestName, b.GuestEmail, b.GuestPhone,
		b.Guests, b.Message, toCents(b.TotalPrice), b.FamilyRate, b.CalendarEventID, b.AccessCodeID).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", mapWriteErr(err))
	}
	return nil
}

func (s *Store) UpdateBooking(ctx context.Context, b *model.Booking) error {
	q := `UPDATE bookings SET start_date = $2, end_date = $3, status = $4, guest_name = $5, guest_email = $6,
	          guest_phone = $7, guests = $8, message = $9, total_cents = $10, family_rate = $11,
	          calendar_event_id = $12, access_code_id = $13, updated_at = now()
	      WHERE id = $1
	      RETURNING updated_at`
	err := s.q.QueryRow(ctx, q, b.ID, b.StartDate, b.EndDate, b.Status, b.GuestName, b.GuestEmail, b.GuestPhone,
		b.Guests, b.Message, toCents(b.TotalPrice), b.FamilyRate, b.CalendarEventID, b.AccessCodeID).
		Scan(&b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update booking: %w", mapWriteErr(err))
	}
	return nil
}

func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListCalendarEventIDs(ctx context.Context) ([]string, error) {
	rows, err := s.q.Query(ctx, `SELECT calendar_event_id FROM bookings WHERE calendar_event_id IS NOT NULL
	      UNION SELECT event_id FROM orphaned_mirrors ORDER BY 1`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *Store) AddOrphanedMirror(ctx context.Context, eventID, bookingID string) error {
	_, err := s.q.Exec(ctx, `INSERT INTO orphaned_mirrors (event_id, booking_id) VALUES ($1, $2)
	      ON CONFLICT (event_id) DO NOTHING`, eventID, bookingID)
	if err != nil {
		return fmt.Errorf("add orphaned mirror: %w", err)
	}
	return nil
}

func (s *Store) ClearOrphanedMirror(ctx context.Context, eventID string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM orphaned_mirrors WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("clear orphaned mirror: %w", err)
	}
	return nil
}
