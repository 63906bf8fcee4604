package assembly

import (
	"context"
	"fmt"

	"github.com/inkfall/storyloom/internal/bible"
	"go.uber.org/zap"
)

// ProjectBuilder assembles a project-wide context: every arc summary,
// the full cast, all world rules, and every open plot thread. It shares
// the estimator, truncator, and formatter with the chapter builder but
// has no chapter anchor, so there is no L1 narrative tier.
type ProjectBuilder struct {
	src    Sources
	budget Budget
	logger *zap.Logger
}

// NewProjectBuilder creates a project-scoped builder. A zero budget is
// replaced with DefaultBudget.
func NewProjectBuilder(src Sources, budget Budget, logger *zap.Logger) *ProjectBuilder {
	if budget.Ceiling <= 0 {
		budget = DefaultBudget()
	}
	return &ProjectBuilder{src: src, budget: budget, logger: logger}
}

// Build assembles the whole-bible context. Like the chapter builder it
// never fails; sources that error contribute nothing.
func (b *ProjectBuilder) Build(ctx context.Context) *Result {
	var items []Item

	arcs, err := b.src.Arcs.AllArcs(ctx)
	if err != nil {
		b.logger.Warn("arc listing failed", zap.Error(err))
	}
	for _, a := range arcs {
		items = append(items, Item{
			Type:     ItemArc,
			ID:       a.ID,
			Content:  formatArc(a),
			Priority: TierOutline,
		})
	}

	chars, err := b.src.Characters.AllCharacters(ctx)
	if err != nil {
		b.logger.Warn("character listing failed", zap.Error(err))
	}
	for _, c := range chars {
		items = append(items, Item{
			Type:     ItemCharacter,
			ID:       c.ID,
			Content:  FormatCharacter(c),
			Priority: TierCast,
		})
	}

	locs, err := b.src.Locations.AllLocations(ctx)
	if err != nil {
		b.logger.Warn("location listing failed", zap.Error(err))
	}
	for _, l := range locs {
		items = append(items, Item{
			Type:     ItemLocation,
			ID:       l.ID,
			Content:  formatLocation(l),
			Priority: TierWorld,
		})
	}

	entries, err := b.src.World.AllWorldEntries(ctx)
	if err != nil {
		b.logger.Warn("world listing failed", zap.Error(err))
	}
	for _, w := range entries {
		t := ItemSocialRule
		if w.Kind == bible.WorldPowerSystem {
			t = ItemPowerRule
		}
		items = append(items, Item{
			Type:     t,
			ID:       w.ID,
			Content:  fmt.Sprintf("%s: %s", w.Title, w.Rule),
			Priority: TierWorld,
		})
	}

	threads, err := b.src.Foreshadowing.ActiveForeshadowing(ctx)
	if err != nil {
		b.logger.Warn("foreshadowing listing failed", zap.Error(err))
	}
	for _, f := range threads {
		items = append(items, Item{
			Type:     ItemForeshadowing,
			ID:       f.ID,
			Content:  formatForeshadowing(f),
			Priority: TierThreads,
		})
	}

	built := Truncate(items, b.budget.Usable())
	if built.Truncated {
		b.logger.Info("project context truncated",
			zap.Int("candidates", len(items)),
			zap.Int("admitted", len(built.Items)),
			zap.Int("tokens", built.TotalTokens))
	}
	return &Result{Text: Format(built.Items), Built: built}
}
