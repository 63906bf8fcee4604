package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inkfall/storyloom/internal/bible"
	"github.com/jackc/pgx/v5"
)

// SaveCharacter upserts a character.
func (s *Store) SaveCharacter(ctx context.Context, c *bible.Character) error {
	motivation, err := json.Marshal(c.Motivation)
	if err != nil {
		return fmt.Errorf("marshal motivation: %w", err)
	}
	personality, err := json.Marshal(c.Personality)
	if err != nil {
		return fmt.Errorf("marshal personality: %w", err)
	}
	voice, err := json.Marshal(c.VoiceSamples)
	if err != nil {
		return fmt.Errorf("marshal voice samples: %w", err)
	}

	now := time.Now()
	_, err = s.db.Exec(ctx, `
		INSERT INTO characters (id, name, role, appearance, motivation, personality, voice_samples, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			appearance = EXCLUDED.appearance,
			motivation = EXCLUDED.motivation,
			personality = EXCLUDED.personality,
			voice_samples = EXCLUDED.voice_samples,
			updated_at = EXCLUDED.updated_at`,
		c.ID, c.Name, c.Role, c.Appearance, motivation, personality, voice, now,
	)
	if err != nil {
		return fmt.Errorf("save character %s: %w", c.ID, err)
	}
	return nil
}

// FindCharacter retrieves a single character, or nil when absent.
func (s *Store) FindCharacter(ctx context.Context, id string) (*bible.Character, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, role, COALESCE(appearance,''), motivation, personality, voice_samples, created_at, updated_at
		FROM characters WHERE id = $1`, id)

	c, err := scanCharacter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find character %s: %w", id, err)
	}
	return c, nil
}

// FindCharacters retrieves the characters whose IDs exist; unknown IDs
// are silently absent from the result.
func (s *Store) FindCharacters(ctx context.Context, ids []string) ([]*bible.Character, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, name, role, COALESCE(appearance,''), motivation, personality, voice_samples, created_at, updated_at
		FROM characters WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("find characters: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*bible.Character)
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		byID[c.ID] = c
	}
	// Preserve the caller's ID order.
	var out []*bible.Character
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// AllCharacters returns the full cast ordered by name.
func (s *Store) AllCharacters(ctx context.Context) ([]*bible.Character, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, role, COALESCE(appearance,''), motivation, personality, voice_samples, created_at, updated_at
		FROM characters ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var out []*bible.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// DeleteCharacter removes a character.
func (s *Store) DeleteCharacter(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete character %s: %w", id, err)
	}
	return nil
}

func scanCharacter(row pgx.Row) (*bible.Character, error) {
	var c bible.Character
	var motivation, personality, voice []byte
	if err := row.Scan(
		&c.ID, &c.Name, &c.Role, &c.Appearance,
		&motivation, &personality, &voice,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(motivation) > 0 {
		json.Unmarshal(motivation, &c.Motivation)
	}
	if len(personality) > 0 {
		json.Unmarshal(personality, &c.Personality)
	}
	if len(voice) > 0 {
		json.Unmarshal(voice, &c.VoiceSamples)
	}
	return &c, nil
}
