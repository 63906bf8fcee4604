package assembly

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkfall/storyloom/internal/bible"
	"go.uber.org/zap"
)

// Sources are the story-bible collaborators a builder reads from. All
// reads are best-effort: a failing or empty source contributes nothing.
type Sources struct {
	Chapters      bible.ChapterRepo
	Characters    bible.CharacterRepo
	Locations     bible.LocationRepo
	Arcs          bible.ArcRepo
	Relations     bible.RelationRepo
	Foreshadowing bible.ForeshadowingRepo
	Hooks         bible.HookRepo
	World         bible.WorldRepo
}

// Result couples the formatted context block with the truncation
// metadata, so callers can surface "context was truncated" to the user.
type Result struct {
	Text string `json:"text"`
	Built
}

// defaultTailRunes bounds how much of the previous chapter's ending is
// carried forward for continuity.
const defaultTailRunes = 2000

// ChapterBuilder assembles the context for a single chapter: the
// chapter's own text and its predecessor's tail, the outline and arc,
// the linked cast with their relationships, linked locations and world
// rules, and open plot threads, in descending priority tiers.
type ChapterBuilder struct {
	src       Sources
	budget    Budget
	tailRunes int
	logger    *zap.Logger
}

// NewChapterBuilder creates a chapter-scoped builder. A zero budget is
// replaced with DefaultBudget.
func NewChapterBuilder(src Sources, budget Budget, logger *zap.Logger) *ChapterBuilder {
	if budget.Ceiling <= 0 {
		budget = DefaultBudget()
	}
	return &ChapterBuilder{
		src:       src,
		budget:    budget,
		tailRunes: defaultTailRunes,
		logger:    logger,
	}
}

// Build assembles, truncates, and formats the context for chapterID.
// An unknown chapter yields an empty result; missing referenced
// entities are skipped. Build never fails: degraded context is always
// preferable to no draft at all.
func (b *ChapterBuilder) Build(ctx context.Context, chapterID string) *Result {
	ch, err := b.src.Chapters.FindChapter(ctx, chapterID)
	if err != nil {
		b.logger.Warn("chapter lookup failed", zap.String("chapter", chapterID), zap.Error(err))
	}
	if ch == nil {
		return &Result{Text: Format(nil)}
	}

	var items []Item
	items = append(items, b.sceneItems(ctx, ch)...)
	items = append(items, b.outlineItems(ctx, ch)...)
	items = append(items, b.castItems(ctx, ch)...)
	items = append(items, b.worldItems(ctx, ch)...)
	items = append(items, b.threadItems(ctx, ch)...)

	built := Truncate(items, b.budget.Usable())
	if built.Truncated {
		b.logger.Info("context truncated",
			zap.String("chapter", chapterID),
			zap.Int("candidates", len(items)),
			zap.Int("admitted", len(built.Items)),
			zap.Int("tokens", built.TotalTokens))
	}
	return &Result{Text: Format(built.Items), Built: built}
}

// sceneItems yields the L1 tier: current content plus the previous
// chapter's tail.
func (b *ChapterBuilder) sceneItems(ctx context.Context, ch *bible.Chapter) []Item {
	var items []Item
	if ch.Content != "" {
		items = append(items, Item{
			Type:     ItemChapterContent,
			ID:       ch.ID,
			Content:  fmt.Sprintf("Chapter %d: %s\n%s", ch.Number, ch.Title, ch.Content),
			Priority: TierScene,
		})
	}

	prev := b.previousChapter(ctx, ch)
	if prev != nil && prev.Content != "" {
		items = append(items, Item{
			Type:     ItemPreviousTail,
			ID:       prev.ID,
			Content:  fmt.Sprintf("End of chapter %d: %s\n%s", prev.Number, prev.Title, tail(prev.Content, b.tailRunes)),
			Priority: TierScene,
		})
	}
	return items
}

func (b *ChapterBuilder) previousChapter(ctx context.Context, ch *bible.Chapter) *bible.Chapter {
	siblings, err := b.src.Chapters.ChaptersInVolume(ctx, ch.VolumeID)
	if err != nil {
		b.logger.Warn("volume lookup failed", zap.String("volume", ch.VolumeID), zap.Error(err))
		return nil
	}
	var prev *bible.Chapter
	for _, s := range siblings {
		if s.ID == ch.ID {
			return prev
		}
		prev = s
	}
	return nil
}

// outlineItems yields the L2 tier: the chapter outline and the
// containing arc's summary.
func (b *ChapterBuilder) outlineItems(ctx context.Context, ch *bible.Chapter) []Item {
	var items []Item
	if o := formatOutline(ch.Outline); o != "" {
		items = append(items, Item{
			Type:     ItemChapterOutline,
			ID:       ch.ID,
			Content:  o,
			Priority: TierOutline,
		})
	}
	if ch.ArcID != "" {
		arc, err := b.src.Arcs.FindArc(ctx, ch.ArcID)
		if err != nil {
			b.logger.Warn("arc lookup failed", zap.String("arc", ch.ArcID), zap.Error(err))
		}
		if arc != nil {
			items = append(items, Item{
				Type:     ItemArc,
				ID:       arc.ID,
				Content:  formatArc(arc),
				Priority: TierOutline,
			})
		}
	}
	return items
}

// castItems yields the L3 tier: linked character profiles plus the
// relationships scoped to exactly that character set.
func (b *ChapterBuilder) castItems(ctx context.Context, ch *bible.Chapter) []Item {
	if len(ch.CharacterIDs) == 0 {
		return nil
	}
	chars, err := b.src.Characters.FindCharacters(ctx, ch.CharacterIDs)
	if err != nil {
		b.logger.Warn("character lookup failed", zap.Error(err))
		return nil
	}

	var items []Item
	names := make(map[string]string, len(chars))
	present := make([]string, 0, len(chars))
	for _, c := range chars {
		names[c.ID] = c.Name
		present = append(present, c.ID)
		items = append(items, Item{
			Type:     ItemCharacter,
			ID:       c.ID,
			Content:  FormatCharacter(c),
			Priority: TierCast,
		})
	}

	rels, err := ScopedRelationships(ctx, b.src.Relations, present)
	if err != nil {
		b.logger.Warn("relationship scoping failed", zap.Error(err))
		return items
	}
	for _, r := range rels {
		items = append(items, Item{
			Type:     ItemRelationship,
			ID:       r.ID,
			Content:  FormatRelation(r, names),
			Priority: TierCast,
		})
	}
	return items
}

// worldItems yields the L4 tier: linked locations and global world rules.
func (b *ChapterBuilder) worldItems(ctx context.Context, ch *bible.Chapter) []Item {
	var items []Item
	if len(ch.LocationIDs) > 0 {
		locs, err := b.src.Locations.FindLocations(ctx, ch.LocationIDs)
		if err != nil {
			b.logger.Warn("location lookup failed", zap.Error(err))
		}
		for _, l := range locs {
			items = append(items, Item{
				Type:     ItemLocation,
				ID:       l.ID,
				Content:  formatLocation(l),
				Priority: TierWorld,
			})
		}
	}

	entries, err := b.src.World.AllWorldEntries(ctx)
	if err != nil {
		b.logger.Warn("world lookup failed", zap.Error(err))
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
	return items
}

// threadItems yields the L5 tier: foreshadowing touching this chapter
// and hooks attached to it. Threads with no chapter anchors are treated
// as project-wide and always included.
func (b *ChapterBuilder) threadItems(ctx context.Context, ch *bible.Chapter) []Item {
	var items []Item
	threads, err := b.src.Foreshadowing.ActiveForeshadowing(ctx)
	if err != nil {
		b.logger.Warn("foreshadowing lookup failed", zap.Error(err))
	}
	for _, f := range threads {
		if !threadTouches(f, ch.ID) {
			continue
		}
		items = append(items, Item{
			Type:     ItemForeshadowing,
			ID:       f.ID,
			Content:  formatForeshadowing(f),
			Priority: TierThreads,
		})
	}

	hooks, err := b.src.Hooks.HooksForChapter(ctx, ch.ID)
	if err != nil {
		b.logger.Warn("hook lookup failed", zap.Error(err))
	}
	for _, h := range hooks {
		items = append(items, Item{
			Type:     ItemHook,
			ID:       h.ID,
			Content:  fmt.Sprintf("Hook (%s): %s", h.Kind, h.Content),
			Priority: TierThreads,
		})
	}
	return items
}

func threadTouches(f *bible.Foreshadowing, chapterID string) bool {
	if len(f.PlantedIn) == 0 && len(f.HintedIn) == 0 {
		return true
	}
	for _, id := range f.PlantedIn {
		if id == chapterID {
			return true
		}
	}
	for _, id := range f.HintedIn {
		if id == chapterID {
			return true
		}
	}
	return false
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func formatOutline(o bible.Outline) string {
	var parts []string
	if o.Goal != "" {
		parts = append(parts, "Goal: "+o.Goal)
	}
	if len(o.Scenes) > 0 {
		var sb strings.Builder
		sb.WriteString("Scenes:")
		for i, s := range o.Scenes {
			fmt.Fprintf(&sb, "\n  %d. %s", i+1, s)
		}
		parts = append(parts, sb.String())
	}
	if o.HookEnding != "" {
		parts = append(parts, "Ending hook: "+o.HookEnding)
	}
	return strings.Join(parts, "\n")
}

func formatArc(a *bible.Arc) string {
	if a.Summary == "" {
		return "Arc: " + a.Title
	}
	return fmt.Sprintf("Arc: %s\n%s", a.Title, a.Summary)
}

func formatLocation(l *bible.Location) string {
	var sb strings.Builder
	sb.WriteString(l.Name)
	if l.Description != "" {
		sb.WriteString("\n" + l.Description)
	}
	if l.Atmosphere != "" {
		sb.WriteString("\nAtmosphere: " + l.Atmosphere)
	}
	return sb.String()
}

func formatForeshadowing(f *bible.Foreshadowing) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Foreshadowing [%s]: %s", f.Status, f.Title)
	if f.Setup != "" {
		sb.WriteString("\nSetup: " + f.Setup)
	}
	if f.Payoff != "" {
		sb.WriteString("\nIntended payoff: " + f.Payoff)
	}
	return sb.String()
}
