package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"holiday-booking/internal/model"
)

func (s *Store) ListLinkedEdges(ctx context.Context, ids []string) ([]model.LinkedEdge, error) {
	q := `SELECT event_a, event_b FROM linked_events ORDER BY event_a, event_b`
	args := []any{}
	if len(ids) > 0 {
		q = `SELECT event_a, event_b FROM linked_events
		     WHERE event_a = ANY($1) OR event_b = ANY($1)
		     ORDER BY event_a, event_b`
		args = append(args, ids)
	}
	rows, err := s.q.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.LinkedEdge, error) {
		var e model.LinkedEdge
		err := row.Scan(&e.A, &e.B)
		return e, err
	})
}

func (s *Store) saveColors(ctx context.Context, colors map[string]int) error {
	for id, c := range colors {
		_, err := s.q.Exec(ctx, `INSERT INTO event_colors (event_id, color) VALUES ($1, $2)
		      ON CONFLICT (event_id) DO UPDATE SET color = EXCLUDED.color, updated_at = now()`, id, c)
		if err != nil {
			return fmt.Errorf("save color of %s: %w", id, err)
		}
	}
	return nil
}

func (s *Store) GroupEvents(ctx context.Context, edges []model.LinkedEdge, colors map[string]int) error {
	return s.inTx(ctx, func(tx *Store) error {
		for _, e := range edges {
			_, err := tx.q.Exec(ctx, `INSERT INTO linked_events (event_a, event_b) VALUES ($1, $2)
			      ON CONFLICT DO NOTHING`, e.A, e.B)
			if err != nil {
				return fmt.Errorf("insert linked events: %w", err)
			}
		}
		return tx.saveColors(ctx, colors)
	})
}

func (s *Store) UngroupEvents(ctx context.Context, ids []string, colors map[string]int) error {
	return s.inTx(ctx, func(tx *Store) error {
		stmts := []string{
			`DELETE FROM linked_events WHERE event_a = ANY($1) OR event_b = ANY($1)`,
			`DELETE FROM ignored_conflicts WHERE participant_a = ANY($1) OR participant_b = ANY($1)`,
			`DELETE FROM conflict_notifications WHERE participant_a = ANY($1) OR participant_b = ANY($1)`,
		}
		for _, q := range stmts {
			if _, err := tx.q.Exec(ctx, q, ids); err != nil {
				return fmt.Errorf("ungroup events: %w", err)
			}
		}
		return tx.saveColors(ctx, colors)
	})
}

func (s *Store) EventColors(ctx context.Context, ids []string) (map[string]int, error) {
	rows, err := s.q.Query(ctx, `SELECT event_id, color FROM event_colors WHERE event_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int, len(ids))
	for rows.Next() {
		var (
			id    string
			color int
		)
		if err := rows.Scan(&id, &color); err != nil {
			return nil, err
		}
		out[id] = color
	}
	return out, rows.Err()
}
