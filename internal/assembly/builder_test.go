package assembly

import (
	"context"
	"strings"
	"testing"

	"github.com/inkfall/storyloom/internal/bible"
	"go.uber.org/zap"
)

func testSources(store *bible.MemoryStore) Sources {
	return Sources{
		Chapters:      store,
		Characters:    store,
		Locations:     store,
		Arcs:          store,
		Relations:     store,
		Foreshadowing: store,
		Hooks:         store,
		World:         store,
	}
}

// seedNovel populates a bible with one volume of two chapters, a five
// character cast, three locations, one arc, world rules, an open
// foreshadowing thread and a chapter hook. Returns the current chapter ID.
func seedNovel(t *testing.T) (*bible.MemoryStore, string) {
	t.Helper()
	ctx := context.Background()
	store := bible.NewMemoryStore()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	must(store.SaveArc(ctx, &bible.Arc{ID: "arc1", Title: "The Siege", Summary: "The city falls from within.", Position: 1}))

	names := []string{"Wren", "Kael", "Mara", "Osric", "Tull"}
	var charIDs []string
	for i, n := range names {
		id := "char" + string(rune('1'+i))
		charIDs = append(charIDs, id)
		must(store.SaveCharacter(ctx, &bible.Character{
			ID:   id,
			Name: n,
			Role: "cast",
			Motivation: bible.Motivation{
				Surface: "survive the siege",
			},
		}))
	}
	must(store.SaveRelation(ctx, &bible.Relation{
		ID: "r1", SourceID: "char1", TargetID: "char2", Type: "rival",
	}))
	must(store.SaveRelation(ctx, &bible.Relation{
		ID: "r2", SourceID: "char3", TargetID: "char1", Type: "mentor",
	}))

	var locIDs []string
	for i, n := range []string{"Gatehouse", "Undercroft", "Salt Market"} {
		id := "loc" + string(rune('1'+i))
		locIDs = append(locIDs, id)
		must(store.SaveLocation(ctx, &bible.Location{ID: id, Name: n, Description: "a place in the city"}))
	}

	must(store.SaveWorldEntry(ctx, &bible.WorldEntry{
		ID: "w1", Kind: bible.WorldPowerSystem, Title: "Saltbinding", Rule: "Power is drawn from preserved things.",
	}))
	must(store.SaveWorldEntry(ctx, &bible.WorldEntry{
		ID: "w2", Kind: bible.WorldSocialRule, Title: "Gate law", Rule: "No blades past the second wall.",
	}))

	must(store.SaveForeshadowing(ctx, &bible.Foreshadowing{
		ID: "f1", Title: "The sealed cistern", Status: bible.ThreadPlanted,
		Setup: "A locked hatch nobody mentions.", PlantedIn: []string{"ch2"},
	}))
	must(store.SaveHook(ctx, &bible.Hook{
		ID: "h1", ChapterID: "ch2", Kind: "cliffhanger", Content: "The gate bell rings at midnight.",
	}))

	// 10k words of mixed CJK and English narrative.
	mixed := strings.Repeat("城墙在夜色里沉默 the sentries changed without a word ", 1000)

	must(store.SaveChapter(ctx, &bible.Chapter{
		ID: "ch1", VolumeID: "vol1", Number: 1, Title: "Before the Gate",
		Content: "The city slept. " + strings.Repeat("旧钟声远去 ", 50),
	}))
	must(store.SaveChapter(ctx, &bible.Chapter{
		ID: "ch2", VolumeID: "vol1", ArcID: "arc1", Number: 2, Title: "Midnight Bell",
		Outline: bible.Outline{
			Goal:       "Reveal the traitor at the gate",
			Scenes:     []string{"bell rings", "chase through the market"},
			HookEnding: "the hatch stands open",
		},
		Content:      mixed,
		CharacterIDs: charIDs,
		LocationIDs:  locIDs,
	}))

	return store, "ch2"
}

func TestChapterBuilderFullAssembly(t *testing.T) {
	store, chapterID := seedNovel(t)
	b := NewChapterBuilder(testSources(store), DefaultBudget(), zap.NewNop())

	res := b.Build(context.Background(), chapterID)
	if res.Truncated {
		t.Error("budget is large enough, nothing should be truncated")
	}

	counts := map[ItemType]int{}
	for _, it := range res.Items {
		counts[it.Type]++
	}
	if counts[ItemChapterContent] != 1 {
		t.Errorf("chapter content items = %d, want 1", counts[ItemChapterContent])
	}
	if counts[ItemPreviousTail] != 1 {
		t.Errorf("previous tail items = %d, want 1", counts[ItemPreviousTail])
	}
	if counts[ItemChapterOutline] != 1 {
		t.Errorf("outline items = %d, want 1", counts[ItemChapterOutline])
	}
	if counts[ItemArc] != 1 {
		t.Errorf("arc items = %d, want 1", counts[ItemArc])
	}
	if counts[ItemCharacter] != 5 {
		t.Errorf("character items = %d, want 5", counts[ItemCharacter])
	}
	if counts[ItemRelationship] != 2 {
		t.Errorf("relationship items = %d, want 2", counts[ItemRelationship])
	}
	if counts[ItemLocation] != 3 {
		t.Errorf("location items = %d, want 3", counts[ItemLocation])
	}
	if counts[ItemForeshadowing] != 1 {
		t.Errorf("foreshadowing items = %d, want 1", counts[ItemForeshadowing])
	}
	if counts[ItemHook] != 1 {
		t.Errorf("hook items = %d, want 1", counts[ItemHook])
	}
	if counts[ItemPowerRule] != 1 || counts[ItemSocialRule] != 1 {
		t.Errorf("world items = %d power / %d social, want 1 each",
			counts[ItemPowerRule], counts[ItemSocialRule])
	}

	// Items arrive priority-descending.
	for i := 1; i < len(res.Items); i++ {
		if res.Items[i].Priority > res.Items[i-1].Priority {
			t.Fatalf("item %d has priority %d above predecessor %d",
				i, res.Items[i].Priority, res.Items[i-1].Priority)
		}
	}

	if !strings.Contains(res.Text, "<<<STORY_CONTEXT>>>") {
		t.Error("formatted text missing context delimiter")
	}
	if !strings.Contains(res.Text, "Midnight Bell") {
		t.Error("formatted text missing chapter content")
	}
}

func TestChapterBuilderForcedTruncation(t *testing.T) {
	store, chapterID := seedNovel(t)

	ch, _ := store.FindChapter(context.Background(), chapterID)
	contentCost := CountTokens(ch.Content)

	// Budget below the L1 content's own cost.
	budget := Budget{Ceiling: contentCost / 2, OutputReserve: 0, PromptReserve: 0}
	b := NewChapterBuilder(testSources(store), budget, zap.NewNop())

	res := b.Build(context.Background(), chapterID)
	if !res.Truncated {
		t.Fatal("expected truncation with budget below content cost")
	}
	if res.TotalTokens > budget.Usable() {
		t.Errorf("TotalTokens %d exceeds budget %d", res.TotalTokens, budget.Usable())
	}
	for _, it := range res.Items {
		if it.Type == ItemChapterContent {
			t.Error("oversized chapter content must not be admitted")
		}
	}
}

func TestChapterBuilderMissingChapter(t *testing.T) {
	store := bible.NewMemoryStore()
	b := NewChapterBuilder(testSources(store), DefaultBudget(), zap.NewNop())

	res := b.Build(context.Background(), "nope")
	if len(res.Items) != 0 || res.TotalTokens != 0 || res.Truncated {
		t.Errorf("missing chapter: got %+v, want empty result", res.Built)
	}
}

func TestChapterBuilderEmptyTiersOmitted(t *testing.T) {
	ctx := context.Background()
	store := bible.NewMemoryStore()
	if err := store.SaveChapter(ctx, &bible.Chapter{
		ID: "lone", VolumeID: "v", Number: 1, Title: "Alone",
		Content: "A chapter with no links at all.",
		Outline: bible.Outline{Goal: "establish solitude"},
	}); err != nil {
		t.Fatal(err)
	}

	b := NewChapterBuilder(testSources(store), DefaultBudget(), zap.NewNop())
	res := b.Build(ctx, "lone")

	for _, it := range res.Items {
		if it.Type != ItemChapterContent && it.Type != ItemChapterOutline {
			t.Errorf("unexpected item type %s for unlinked chapter", it.Type)
		}
	}
	for _, heading := range []string{"## Characters", "## World", "## Plot Threads"} {
		if strings.Contains(res.Text, heading) {
			t.Errorf("text contains %q for empty tier", heading)
		}
	}
}

func TestChapterBuilderSkipsDanglingReferences(t *testing.T) {
	ctx := context.Background()
	store := bible.NewMemoryStore()
	if err := store.SaveCharacter(ctx, &bible.Character{ID: "real", Name: "Real", Role: "lead"}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveChapter(ctx, &bible.Chapter{
		ID: "ch", VolumeID: "v", Number: 1, Title: "Ghosts",
		Content:      "text",
		CharacterIDs: []string{"real", "deleted-long-ago"},
		LocationIDs:  []string{"never-existed"},
		ArcID:        "gone",
	}); err != nil {
		t.Fatal(err)
	}

	b := NewChapterBuilder(testSources(store), DefaultBudget(), zap.NewNop())
	res := b.Build(ctx, "ch")

	chars := 0
	for _, it := range res.Items {
		switch it.Type {
		case ItemCharacter:
			chars++
		case ItemLocation, ItemArc:
			t.Errorf("dangling reference produced a %s item", it.Type)
		}
	}
	if chars != 1 {
		t.Errorf("character items = %d, want 1 (dangling ID skipped)", chars)
	}
}

func TestChapterBuilderPreviousTailBounded(t *testing.T) {
	ctx := context.Background()
	store := bible.NewMemoryStore()
	long := strings.Repeat("尾", 10000)
	if err := store.SaveChapter(ctx, &bible.Chapter{
		ID: "p", VolumeID: "v", Number: 1, Title: "Long One", Content: long,
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveChapter(ctx, &bible.Chapter{
		ID: "c", VolumeID: "v", Number: 2, Title: "Next", Content: "short",
	}); err != nil {
		t.Fatal(err)
	}

	b := NewChapterBuilder(testSources(store), DefaultBudget(), zap.NewNop())
	res := b.Build(ctx, "c")

	for _, it := range res.Items {
		if it.Type == ItemPreviousTail {
			if n := len([]rune(it.Content)); n > defaultTailRunes+100 {
				t.Errorf("previous tail is %d runes, want bounded near %d", n, defaultTailRunes)
			}
			return
		}
	}
	t.Fatal("no previous-tail item produced")
}

func TestChapterBuilderFirstChapterHasNoTail(t *testing.T) {
	ctx := context.Background()
	store := bible.NewMemoryStore()
	if err := store.SaveChapter(ctx, &bible.Chapter{
		ID: "first", VolumeID: "v", Number: 1, Title: "Opening", Content: "it begins",
	}); err != nil {
		t.Fatal(err)
	}

	b := NewChapterBuilder(testSources(store), DefaultBudget(), zap.NewNop())
	res := b.Build(ctx, "first")
	for _, it := range res.Items {
		if it.Type == ItemPreviousTail {
			t.Error("first chapter must not get a previous tail")
		}
	}
}

func TestProjectBuilder(t *testing.T) {
	store, _ := seedNovel(t)
	b := NewProjectBuilder(testSources(store), DefaultBudget(), zap.NewNop())

	res := b.Build(context.Background())
	if res.Truncated {
		t.Error("unexpected truncation")
	}
	counts := map[ItemType]int{}
	for _, it := range res.Items {
		counts[it.Type]++
	}
	if counts[ItemArc] != 1 {
		t.Errorf("arc items = %d, want 1", counts[ItemArc])
	}
	if counts[ItemCharacter] != 5 {
		t.Errorf("character items = %d, want full cast of 5", counts[ItemCharacter])
	}
	if counts[ItemLocation] != 3 {
		t.Errorf("location items = %d, want 3", counts[ItemLocation])
	}
	if counts[ItemForeshadowing] != 1 {
		t.Errorf("foreshadowing items = %d, want 1", counts[ItemForeshadowing])
	}
	if counts[ItemChapterContent] != 0 {
		t.Error("project scope must not include chapter narrative")
	}
}
