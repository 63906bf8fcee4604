package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/inkfall/storyloom/internal/bible"
)

// SaveForeshadowing upserts a foreshadowing thread.
func (s *Store) SaveForeshadowing(ctx context.Context, f *bible.Foreshadowing) error {
	planted, err := json.Marshal(f.PlantedIn)
	if err != nil {
		return fmt.Errorf("marshal planted_in: %w", err)
	}
	hinted, err := json.Marshal(f.HintedIn)
	if err != nil {
		return fmt.Errorf("marshal hinted_in: %w", err)
	}

	now := time.Now()
	_, err = s.db.Exec(ctx, `
		INSERT INTO foreshadowing (id, title, setup, payoff, status, planted_in, hinted_in, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			setup = EXCLUDED.setup,
			payoff = EXCLUDED.payoff,
			status = EXCLUDED.status,
			planted_in = EXCLUDED.planted_in,
			hinted_in = EXCLUDED.hinted_in,
			updated_at = EXCLUDED.updated_at`,
		f.ID, f.Title, f.Setup, f.Payoff, string(f.Status), planted, hinted, now,
	)
	if err != nil {
		return fmt.Errorf("save foreshadowing %s: %w", f.ID, err)
	}
	return nil
}

// ActiveForeshadowing returns every unresolved thread ordered by title.
func (s *Store) ActiveForeshadowing(ctx context.Context) ([]*bible.Foreshadowing, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, title, COALESCE(setup,''), COALESCE(payoff,''), status, planted_in, hinted_in, created_at, updated_at
		FROM foreshadowing WHERE status != 'resolved' ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list foreshadowing: %w", err)
	}
	defer rows.Close()

	var out []*bible.Foreshadowing
	for rows.Next() {
		var f bible.Foreshadowing
		var status string
		var planted, hinted []byte
		if err := rows.Scan(&f.ID, &f.Title, &f.Setup, &f.Payoff, &status, &planted, &hinted, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan foreshadowing: %w", err)
		}
		f.Status = bible.ThreadStatus(status)
		if len(planted) > 0 {
			json.Unmarshal(planted, &f.PlantedIn)
		}
		if len(hinted) > 0 {
			json.Unmarshal(hinted, &f.HintedIn)
		}
		out = append(out, &f)
	}
	return out, nil
}

// DeleteForeshadowing removes a thread.
func (s *Store) DeleteForeshadowing(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM foreshadowing WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete foreshadowing %s: %w", id, err)
	}
	return nil
}

// SaveHook upserts a chapter hook.
func (s *Store) SaveHook(ctx context.Context, h *bible.Hook) error {
	now := time.Now()
	_, err := s.db.Exec(ctx, `
		INSERT INTO hooks (id, chapter_id, kind, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			chapter_id = EXCLUDED.chapter_id,
			kind = EXCLUDED.kind,
			content = EXCLUDED.content`,
		h.ID, h.ChapterID, h.Kind, h.Content, now,
	)
	if err != nil {
		return fmt.Errorf("save hook %s: %w", h.ID, err)
	}
	return nil
}

// HooksForChapter returns the hooks attached to a chapter.
func (s *Store) HooksForChapter(ctx context.Context, chapterID string) ([]*bible.Hook, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, chapter_id, kind, content, created_at
		FROM hooks WHERE chapter_id = $1 ORDER BY created_at`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("hooks for chapter %s: %w", chapterID, err)
	}
	defer rows.Close()

	var out []*bible.Hook
	for rows.Next() {
		var h bible.Hook
		if err := rows.Scan(&h.ID, &h.ChapterID, &h.Kind, &h.Content, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan hook: %w", err)
		}
		out = append(out, &h)
	}
	return out, nil
}

// DeleteHook removes a hook.
func (s *Store) DeleteHook(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM hooks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete hook %s: %w", id, err)
	}
	return nil
}
