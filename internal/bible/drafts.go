package bible

import (
	"context"
	"sort"
	"time"
)

// Draft is one AI-generated chapter draft, kept alongside the chapter
// so earlier attempts stay reviewable.
type Draft struct {
	ID            string    `json:"id"`
	ChapterID     string    `json:"chapter_id"`
	ProviderID    string    `json:"provider_id,omitempty"`
	Model         string    `json:"model,omitempty"`
	Instruction   string    `json:"instruction,omitempty"`
	Content       string    `json:"content"`
	ContextTokens int       `json:"context_tokens"`
	Truncated     bool      `json:"truncated"`
	CreatedAt     time.Time `json:"created_at"`
}

// DraftStore persists generated drafts.
type DraftStore interface {
	SaveDraft(ctx context.Context, d *Draft) error
	DraftsForChapter(ctx context.Context, chapterID string) ([]*Draft, error)
}

func (m *MemoryStore) SaveDraft(ctx context.Context, d *Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.drafts == nil {
		m.drafts = make(map[string]*Draft)
	}
	m.drafts[d.ID] = d
	return nil
}

func (m *MemoryStore) DraftsForChapter(ctx context.Context, chapterID string) ([]*Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Draft
	for _, d := range m.drafts {
		if d.ChapterID == chapterID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
