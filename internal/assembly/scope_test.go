package assembly

import (
	"context"
	"testing"

	"github.com/inkfall/storyloom/internal/bible"
)

func seedRelations(t *testing.T, rels ...*bible.Relation) *bible.MemoryStore {
	t.Helper()
	store := bible.NewMemoryStore()
	for _, r := range rels {
		if err := store.SaveRelation(context.Background(), r); err != nil {
			t.Fatalf("seed relation %s: %v", r.ID, err)
		}
	}
	return store
}

func TestScopedRelationshipsCompleteness(t *testing.T) {
	store := seedRelations(t,
		&bible.Relation{ID: "ab", SourceID: "a", TargetID: "b", Type: "mentor"},
		&bible.Relation{ID: "ca", SourceID: "c", TargetID: "a", Type: "rival"},
		&bible.Relation{ID: "ad", SourceID: "a", TargetID: "d", Type: "ally"}, // d is outside the set
	)

	rels, err := ScopedRelationships(context.Background(), store, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rels) != 2 {
		t.Fatalf("got %d relations, want 2", len(rels))
	}
	found := map[string]bool{}
	for _, r := range rels {
		if found[r.ID] {
			t.Errorf("relation %s returned twice", r.ID)
		}
		found[r.ID] = true
	}
	if !found["ab"] || !found["ca"] {
		t.Errorf("got %v, want ab and ca", found)
	}
}

func TestScopedRelationshipsBothDirections(t *testing.T) {
	// Two distinct directed edges between the same pair must both appear.
	store := seedRelations(t,
		&bible.Relation{ID: "xy", SourceID: "x", TargetID: "y", Type: "protects"},
		&bible.Relation{ID: "yx", SourceID: "y", TargetID: "x", Type: "resents"},
	)

	rels, err := ScopedRelationships(context.Background(), store, []string{"x", "y"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rels) != 2 {
		t.Errorf("got %d relations, want both directions", len(rels))
	}
}

func TestScopedRelationshipsEmptyAndSingle(t *testing.T) {
	store := seedRelations(t,
		&bible.Relation{ID: "ab", SourceID: "a", TargetID: "b", Type: "kin"},
	)

	for _, ids := range [][]string{nil, {}, {"a"}} {
		rels, err := ScopedRelationships(context.Background(), store, ids)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rels) != 0 {
			t.Errorf("ids %v: got %d relations, want 0", ids, len(rels))
		}
	}
}
