package assembly

import (
	"context"

	"github.com/inkfall/storyloom/internal/bible"
)

// ScopedRelationships returns every directed relationship that exists
// between any two of the given characters, each exactly once. Both
// directions of every unordered pair are queried; relationships touching
// characters outside the set never appear (no transitive closure).
//
// Lookups are O(n²) in the number of characters, which is fine for a
// chapter's cast but not for a whole-project graph.
func ScopedRelationships(ctx context.Context, repo bible.RelationRepo, characterIDs []string) ([]*bible.Relation, error) {
	seen := make(map[string]bool)
	var out []*bible.Relation

	for i := 0; i < len(characterIDs); i++ {
		for j := i + 1; j < len(characterIDs); j++ {
			a, b := characterIDs[i], characterIDs[j]
			for _, pair := range [2][2]string{{a, b}, {b, a}} {
				rel, err := repo.FindBetween(ctx, pair[0], pair[1])
				if err != nil {
					return nil, err
				}
				if rel == nil || seen[rel.ID] {
					continue
				}
				seen[rel.ID] = true
				out = append(out, rel)
			}
		}
	}
	return out, nil
}
