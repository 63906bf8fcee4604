package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkfall/storyloom/internal/bible"
	"github.com/jackc/pgx/v5"
)

// SaveRelation upserts a directed relationship. The (source, target)
// pair is unique, so re-saving replaces the existing edge.
func (s *Store) SaveRelation(ctx context.Context, r *bible.Relation) error {
	now := time.Now()
	_, err := s.db.Exec(ctx, `
		INSERT INTO relations (id, source_id, target_id, type, description, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (source_id, target_id) DO UPDATE SET
			type = EXCLUDED.type,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at`,
		r.ID, r.SourceID, r.TargetID, r.Type, r.Description, now,
	)
	if err != nil {
		return fmt.Errorf("save relation %s: %w", r.ID, err)
	}
	return nil
}

// FindBetween returns the relation from source to target, or nil.
func (s *Store) FindBetween(ctx context.Context, sourceID, targetID string) (*bible.Relation, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, source_id, target_id, type, COALESCE(description,''), updated_at
		FROM relations WHERE source_id = $1 AND target_id = $2`, sourceID, targetID)

	var r bible.Relation
	err := row.Scan(&r.ID, &r.SourceID, &r.TargetID, &r.Type, &r.Description, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find relation %s->%s: %w", sourceID, targetID, err)
	}
	return &r, nil
}

// DeleteRelation removes a relation by ID.
func (s *Store) DeleteRelation(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM relations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete relation %s: %w", id, err)
	}
	return nil
}
