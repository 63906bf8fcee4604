package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkfall/storyloom/internal/bible"
	"github.com/jackc/pgx/v5"
)

// SaveLocation upserts a location.
func (s *Store) SaveLocation(ctx context.Context, l *bible.Location) error {
	now := time.Now()
	_, err := s.db.Exec(ctx, `
		INSERT INTO locations (id, name, description, atmosphere, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			atmosphere = EXCLUDED.atmosphere,
			updated_at = EXCLUDED.updated_at`,
		l.ID, l.Name, l.Description, l.Atmosphere, now,
	)
	if err != nil {
		return fmt.Errorf("save location %s: %w", l.ID, err)
	}
	return nil
}

// FindLocation retrieves a single location, or nil when absent.
func (s *Store) FindLocation(ctx context.Context, id string) (*bible.Location, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, COALESCE(description,''), COALESCE(atmosphere,''), created_at, updated_at
		FROM locations WHERE id = $1`, id)

	var l bible.Location
	err := row.Scan(&l.ID, &l.Name, &l.Description, &l.Atmosphere, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find location %s: %w", id, err)
	}
	return &l, nil
}

// FindLocations retrieves existing locations for the given IDs, in the
// caller's order, skipping unknown IDs.
func (s *Store) FindLocations(ctx context.Context, ids []string) ([]*bible.Location, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, name, COALESCE(description,''), COALESCE(atmosphere,''), created_at, updated_at
		FROM locations WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("find locations: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*bible.Location)
	for rows.Next() {
		var l bible.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.Atmosphere, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		byID[l.ID] = &l
	}
	var out []*bible.Location
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

// AllLocations returns every location ordered by name.
func (s *Store) AllLocations(ctx context.Context) ([]*bible.Location, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, COALESCE(description,''), COALESCE(atmosphere,''), created_at, updated_at
		FROM locations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []*bible.Location
	for rows.Next() {
		var l bible.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.Atmosphere, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, &l)
	}
	return out, nil
}

// DeleteLocation removes a location.
func (s *Store) DeleteLocation(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete location %s: %w", id, err)
	}
	return nil
}

// SaveWorldEntry upserts a world-building rule.
func (s *Store) SaveWorldEntry(ctx context.Context, w *bible.WorldEntry) error {
	now := time.Now()
	_, err := s.db.Exec(ctx, `
		INSERT INTO world_entries (id, kind, title, rule, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			title = EXCLUDED.title,
			rule = EXCLUDED.rule,
			updated_at = EXCLUDED.updated_at`,
		w.ID, string(w.Kind), w.Title, w.Rule, now,
	)
	if err != nil {
		return fmt.Errorf("save world entry %s: %w", w.ID, err)
	}
	return nil
}

// AllWorldEntries returns every world rule ordered by title.
func (s *Store) AllWorldEntries(ctx context.Context) ([]*bible.WorldEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, kind, title, rule, created_at, updated_at
		FROM world_entries ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list world entries: %w", err)
	}
	defer rows.Close()

	var out []*bible.WorldEntry
	for rows.Next() {
		var w bible.WorldEntry
		var kind string
		if err := rows.Scan(&w.ID, &kind, &w.Title, &w.Rule, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan world entry: %w", err)
		}
		w.Kind = bible.WorldKind(kind)
		out = append(out, &w)
	}
	return out, nil
}

// DeleteWorldEntry removes a world rule.
func (s *Store) DeleteWorldEntry(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM world_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete world entry %s: %w", id, err)
	}
	return nil
}
