package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"holiday-booking/internal/model"
)

func (s *Store) IsConflictIgnored(ctx context.Context, key string) (bool, error) {
	var ignored bool
	err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM ignored_conflicts WHERE key = $1)`, key).Scan(&ignored)
	return ignored, err
}

func (s *Store) ListIgnoredConflicts(ctx context.Context) ([]model.IgnoredConflict, error) {
	rows, err := s.q.Query(ctx, `SELECT key, type, participant_a, participant_b, reason, ignored_by, created_at
	      FROM ignored_conflicts ORDER BY key`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.IgnoredConflict, error) {
		var ic model.IgnoredConflict
		err := row.Scan(&ic.Key, &ic.Type, &ic.ParticipantA, &ic.ParticipantB, &ic.Reason, &ic.IgnoredBy, &ic.CreatedAt)
		return ic, err
	})
}

func (s *Store) SetIgnored(ctx context.Context, ic model.IgnoredConflict) error {
	_, err := s.q.Exec(ctx, `INSERT INTO ignored_conflicts (key, type, participant_a, participant_b, reason, ignored_by)
	      VALUES ($1, $2, $3, $4, $5, $6)
	      ON CONFLICT (key) DO UPDATE SET reason = EXCLUDED.reason, ignored_by = EXCLUDED.ignored_by`,
		ic.Key, ic.Type, ic.ParticipantA, ic.ParticipantB, ic.Reason, ic.IgnoredBy)
	if err != nil {
		return fmt.Errorf("set ignored conflict: %w", err)
	}
	return nil
}

func (s *Store) ClearIgnored(ctx context.Context, key string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM ignored_conflicts WHERE key = $1`, key); err != nil {
		return fmt.Errorf("clear ignored conflict: %w", err)
	}
	return nil
}

func (s *Store) ListNotifiedKeys(ctx context.Context) ([]string, error) {
	rows, err := s.q.Query(ctx, `SELECT key FROM conflict_notifications ORDER BY key`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *Store) RecordNotified(ctx context.Context, n model.ConflictNotification) error {
	_, err := s.q.Exec(ctx, `INSERT INTO conflict_notifications (key, type, participant_a, participant_b, notified_at)
	      VALUES ($1, $2, $3, $4, $5)
	      ON CONFLICT (key) DO UPDATE SET notified_at = EXCLUDED.notified_at`,
		n.Key, n.Type, n.ParticipantA, n.ParticipantB, n.NotifiedAt)
	if err != nil {
		return fmt.Errorf("record conflict notification: %w", err)
	}
	return nil
}

func (s *Store) PruneNotified(ctx context.Context, keep []string) error {
	if keep == nil {
		keep = []string{}
	}
	_, err := s.q.Exec(ctx, `DELETE FROM conflict_notifications WHERE NOT (key = ANY($1))`, keep)
	if err != nil {
		return fmt.Errorf("prune conflict notifications: %w", err)
	}
	return nil
}
