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

// SaveChapter upserts a chapter.
func (s *Store) SaveChapter(ctx context.Context, ch *bible.Chapter) error {
	outline, err := json.Marshal(ch.Outline)
	if err != nil {
		return fmt.Errorf("marshal outline: %w", err)
	}
	charIDs, err := json.Marshal(ch.CharacterIDs)
	if err != nil {
		return fmt.Errorf("marshal character ids: %w", err)
	}
	locIDs, err := json.Marshal(ch.LocationIDs)
	if err != nil {
		return fmt.Errorf("marshal location ids: %w", err)
	}

	now := time.Now()
	_, err = s.db.Exec(ctx, `
		INSERT INTO chapters (id, volume_id, arc_id, number, title, outline, content, character_ids, location_ids, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3,''), $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (id) DO UPDATE SET
			volume_id = EXCLUDED.volume_id,
			arc_id = EXCLUDED.arc_id,
			number = EXCLUDED.number,
			title = EXCLUDED.title,
			outline = EXCLUDED.outline,
			content = EXCLUDED.content,
			character_ids = EXCLUDED.character_ids,
			location_ids = EXCLUDED.location_ids,
			updated_at = EXCLUDED.updated_at`,
		ch.ID, ch.VolumeID, ch.ArcID, ch.Number, ch.Title,
		outline, ch.Content, charIDs, locIDs, now,
	)
	if err != nil {
		return fmt.Errorf("save chapter %s: %w", ch.ID, err)
	}
	return nil
}

// FindChapter retrieves a single chapter, or nil when absent.
func (s *Store) FindChapter(ctx context.Context, id string) (*bible.Chapter, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, volume_id, COALESCE(arc_id,''), number, title, outline, COALESCE(content,''), character_ids, location_ids, created_at, updated_at
		FROM chapters WHERE id = $1`, id)

	ch, err := scanChapter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find chapter %s: %w", id, err)
	}
	return ch, nil
}

// ChaptersInVolume returns the volume's chapters ordered by number.
func (s *Store) ChaptersInVolume(ctx context.Context, volumeID string) ([]*bible.Chapter, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, volume_id, COALESCE(arc_id,''), number, title, outline, COALESCE(content,''), character_ids, location_ids, created_at, updated_at
		FROM chapters WHERE volume_id = $1 ORDER BY number`, volumeID)
	if err != nil {
		return nil, fmt.Errorf("chapters in volume %s: %w", volumeID, err)
	}
	defer rows.Close()

	var out []*bible.Chapter
	for rows.Next() {
		ch, err := scanChapter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		out = append(out, ch)
	}
	return out, nil
}

// ChaptersInArc returns the arc's chapters ordered by number.
func (s *Store) ChaptersInArc(ctx context.Context, arcID string) ([]*bible.Chapter, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, volume_id, COALESCE(arc_id,''), number, title, outline, COALESCE(content,''), character_ids, location_ids, created_at, updated_at
		FROM chapters WHERE arc_id = $1 ORDER BY number`, arcID)
	if err != nil {
		return nil, fmt.Errorf("chapters in arc %s: %w", arcID, err)
	}
	defer rows.Close()

	var out []*bible.Chapter
	for rows.Next() {
		ch, err := scanChapter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		out = append(out, ch)
	}
	return out, nil
}

// DeleteChapter removes a chapter.
func (s *Store) DeleteChapter(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM chapters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete chapter %s: %w", id, err)
	}
	return nil
}

func scanChapter(row pgx.Row) (*bible.Chapter, error) {
	var ch bible.Chapter
	var outline, charIDs, locIDs []byte
	if err := row.Scan(
		&ch.ID, &ch.VolumeID, &ch.ArcID, &ch.Number, &ch.Title,
		&outline, &ch.Content, &charIDs, &locIDs,
		&ch.CreatedAt, &ch.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(outline) > 0 {
		json.Unmarshal(outline, &ch.Outline)
	}
	if len(charIDs) > 0 {
		json.Unmarshal(charIDs, &ch.CharacterIDs)
	}
	if len(locIDs) > 0 {
		json.Unmarshal(locIDs, &ch.LocationIDs)
	}
	return &ch, nil
}
