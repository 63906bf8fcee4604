package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkfall/storyloom/internal/bible"
	"github.com/jackc/pgx/v5"
)

// SaveArc upserts a story arc.
func (s *Store) SaveArc(ctx context.Context, a *bible.Arc) error {
	now := time.Now()
	_, err := s.db.Exec(ctx, `
		INSERT INTO arcs (id, title, summary, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			position = EXCLUDED.position,
			updated_at = EXCLUDED.updated_at`,
		a.ID, a.Title, a.Summary, a.Position, now,
	)
	if err != nil {
		return fmt.Errorf("save arc %s: %w", a.ID, err)
	}
	return nil
}

// FindArc retrieves a single arc, or nil when absent.
func (s *Store) FindArc(ctx context.Context, id string) (*bible.Arc, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, title, COALESCE(summary,''), position, created_at, updated_at
		FROM arcs WHERE id = $1`, id)

	var a bible.Arc
	err := row.Scan(&a.ID, &a.Title, &a.Summary, &a.Position, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find arc %s: %w", id, err)
	}
	return &a, nil
}

// AllArcs returns every arc in story order.
func (s *Store) AllArcs(ctx context.Context) ([]*bible.Arc, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, title, COALESCE(summary,''), position, created_at, updated_at
		FROM arcs ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list arcs: %w", err)
	}
	defer rows.Close()

	var out []*bible.Arc
	for rows.Next() {
		var a bible.Arc
		if err := rows.Scan(&a.ID, &a.Title, &a.Summary, &a.Position, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan arc: %w", err)
		}
		out = append(out, &a)
	}
	return out, nil
}

// DeleteArc removes an arc.
func (s *Store) DeleteArc(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM arcs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete arc %s: %w", id, err)
	}
	return nil
}
