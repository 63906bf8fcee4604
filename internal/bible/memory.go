package bible

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store. It backs the server when no
// database is configured and keeps the assembly engine testable without
// infrastructure.
type MemoryStore struct {
	mu            sync.RWMutex
	characters    map[string]*Character
	locations     map[string]*Location
	arcs          map[string]*Arc
	chapters      map[string]*Chapter
	relations     map[string]*Relation // keyed by relation ID
	foreshadowing map[string]*Foreshadowing
	hooks         map[string]*Hook
	world         map[string]*WorldEntry
	drafts        map[string]*Draft
}

// NewMemoryStore creates an empty in-memory story bible.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		characters:    make(map[string]*Character),
		locations:     make(map[string]*Location),
		arcs:          make(map[string]*Arc),
		chapters:      make(map[string]*Chapter),
		relations:     make(map[string]*Relation),
		foreshadowing: make(map[string]*Foreshadowing),
		hooks:         make(map[string]*Hook),
		world:         make(map[string]*WorldEntry),
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) FindCharacter(ctx context.Context, id string) (*Character, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.characters[id], nil
}

func (m *MemoryStore) FindCharacters(ctx context.Context, ids []string) ([]*Character, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Character
	for _, id := range ids {
		if c, ok := m.characters[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryStore) AllCharacters(ctx context.Context) ([]*Character, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Character, 0, len(m.characters))
	for _, c := range m.characters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) SaveCharacter(ctx context.Context, c *Character) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.characters[c.ID] = c
	return nil
}

func (m *MemoryStore) DeleteCharacter(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.characters, id)
	return nil
}

func (m *MemoryStore) FindLocation(ctx context.Context, id string) (*Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locations[id], nil
}

func (m *MemoryStore) FindLocations(ctx context.Context, ids []string) ([]*Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Location
	for _, id := range ids {
		if l, ok := m.locations[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *MemoryStore) AllLocations(ctx context.Context) ([]*Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Location, 0, len(m.locations))
	for _, l := range m.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) SaveLocation(ctx context.Context, l *Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[l.ID] = l
	return nil
}

func (m *MemoryStore) DeleteLocation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, id)
	return nil
}

func (m *MemoryStore) FindArc(ctx context.Context, id string) (*Arc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.arcs[id], nil
}

func (m *MemoryStore) AllArcs(ctx context.Context) ([]*Arc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Arc, 0, len(m.arcs))
	for _, a := range m.arcs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *MemoryStore) SaveArc(ctx context.Context, a *Arc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.arcs[a.ID] = a
	return nil
}

func (m *MemoryStore) DeleteArc(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.arcs, id)
	return nil
}

func (m *MemoryStore) FindChapter(ctx context.Context, id string) (*Chapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chapters[id], nil
}

func (m *MemoryStore) ChaptersInVolume(ctx context.Context, volumeID string) ([]*Chapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Chapter
	for _, ch := range m.chapters {
		if ch.VolumeID == volumeID {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *MemoryStore) ChaptersInArc(ctx context.Context, arcID string) ([]*Chapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Chapter
	for _, ch := range m.chapters {
		if ch.ArcID == arcID {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *MemoryStore) SaveChapter(ctx context.Context, ch *Chapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chapters[ch.ID] = ch
	return nil
}

func (m *MemoryStore) DeleteChapter(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chapters, id)
	return nil
}

func (m *MemoryStore) FindBetween(ctx context.Context, sourceID, targetID string) (*Relation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.relations {
		if r.SourceID == sourceID && r.TargetID == targetID {
			return r, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) SaveRelation(ctx context.Context, r *Relation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relations[r.ID] = r
	return nil
}

func (m *MemoryStore) DeleteRelation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.relations, id)
	return nil
}

func (m *MemoryStore) ActiveForeshadowing(ctx context.Context) ([]*Foreshadowing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Foreshadowing
	for _, f := range m.foreshadowing {
		if f.Status != ThreadResolved {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *MemoryStore) SaveForeshadowing(ctx context.Context, f *Foreshadowing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.foreshadowing[f.ID] = f
	return nil
}

func (m *MemoryStore) DeleteForeshadowing(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.foreshadowing, id)
	return nil
}

func (m *MemoryStore) HooksForChapter(ctx context.Context, chapterID string) ([]*Hook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Hook
	for _, h := range m.hooks {
		if h.ChapterID == chapterID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) SaveHook(ctx context.Context, h *Hook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[h.ID] = h
	return nil
}

func (m *MemoryStore) DeleteHook(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hooks, id)
	return nil
}

func (m *MemoryStore) AllWorldEntries(ctx context.Context) ([]*WorldEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*WorldEntry, 0, len(m.world))
	for _, w := range m.world {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *MemoryStore) SaveWorldEntry(ctx context.Context, w *WorldEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.world[w.ID] = w
	return nil
}

func (m *MemoryStore) DeleteWorldEntry(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.world, id)
	return nil
}
