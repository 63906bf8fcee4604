package store

import (
	"context"
	"fmt"
	"time"

	"github.com/inkfall/storyloom/internal/bible"
)

// SaveDraft stores a generated draft.
func (s *Store) SaveDraft(ctx context.Context, d *bible.Draft) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO drafts (id, chapter_id, provider_id, model, instruction, content, context_tokens, truncated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.ChapterID, d.ProviderID, d.Model, d.Instruction,
		d.Content, d.ContextTokens, d.Truncated, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save draft %s: %w", d.ID, err)
	}
	return nil
}

// DraftsForChapter returns a chapter's drafts, oldest first.
func (s *Store) DraftsForChapter(ctx context.Context, chapterID string) ([]*bible.Draft, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, chapter_id, provider_id, model, COALESCE(instruction,''), content, context_tokens, truncated, created_at
		FROM drafts WHERE chapter_id = $1 ORDER BY created_at`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("drafts for chapter %s: %w", chapterID, err)
	}
	defer rows.Close()

	var out []*bible.Draft
	for rows.Next() {
		var d bible.Draft
		if err := rows.Scan(&d.ID, &d.ChapterID, &d.ProviderID, &d.Model, &d.Instruction,
			&d.Content, &d.ContextTokens, &d.Truncated, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		out = append(out, &d)
	}
	return out, nil
}
