package assembly

import (
	"strings"
	"testing"
)

// wordItem builds an item whose estimated cost is ceil(words * 1.3).
func wordItem(t ItemType, id string, words, priority int) Item {
	return Item{
		Type:     t,
		ID:       id,
		Content:  strings.TrimSpace(strings.Repeat("word ", words)),
		Priority: priority,
	}
}

func TestTruncateEmptyInput(t *testing.T) {
	got := Truncate(nil, 100)
	if len(got.Items) != 0 || got.TotalTokens != 0 || got.Truncated {
		t.Errorf("Truncate(nil) = %+v, want empty non-truncated result", got)
	}
}

func TestTruncateAdmitsAllWithinBudget(t *testing.T) {
	items := []Item{
		wordItem(ItemChapterContent, "a", 10, TierScene),
		wordItem(ItemCharacter, "b", 10, TierCast),
		wordItem(ItemHook, "c", 10, TierThreads),
	}
	got := Truncate(items, 1000)
	if got.Truncated {
		t.Error("expected no truncation")
	}
	if len(got.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(got.Items))
	}
	want := CountTokens(items[0].Content) * 3
	if got.TotalTokens != want {
		t.Errorf("TotalTokens = %d, want %d", got.TotalTokens, want)
	}
}

func TestTruncateBudgetInvariant(t *testing.T) {
	items := []Item{
		wordItem(ItemChapterContent, "a", 40, TierScene),
		wordItem(ItemChapterOutline, "b", 30, TierOutline),
		wordItem(ItemCharacter, "c", 20, TierCast),
		wordItem(ItemLocation, "d", 10, TierWorld),
		wordItem(ItemForeshadowing, "e", 5, TierThreads),
	}
	for _, budget := range []int{0, 1, 10, 25, 50, 75, 100, 10000} {
		got := Truncate(items, budget)
		if got.TotalTokens > budget {
			t.Errorf("budget %d: TotalTokens %d exceeds budget", budget, got.TotalTokens)
		}
		sum := 0
		for _, it := range got.Items {
			sum += CountTokens(it.Content)
		}
		if sum != got.TotalTokens {
			t.Errorf("budget %d: reported %d tokens, actual %d", budget, got.TotalTokens, sum)
		}
	}
}

func TestTruncatePriorityOrder(t *testing.T) {
	items := []Item{
		wordItem(ItemHook, "low", 5, TierThreads),
		wordItem(ItemChapterContent, "high", 5, TierScene),
		wordItem(ItemCharacter, "mid", 5, TierCast),
	}
	got := Truncate(items, 10000)
	ids := []string{got.Items[0].ID, got.Items[1].ID, got.Items[2].ID}
	if ids[0] != "high" || ids[1] != "mid" || ids[2] != "low" {
		t.Errorf("admitted order = %v, want priority-descending", ids)
	}
}

func TestTruncatePriorityMonotonicity(t *testing.T) {
	// Higher-priority items that fit must never lose to lower-priority ones.
	items := []Item{
		wordItem(ItemForeshadowing, "low", 10, TierThreads),
		wordItem(ItemChapterContent, "high", 10, TierScene),
	}
	// Budget fits exactly one 10-word item (13 tokens).
	got := Truncate(items, 13)
	if !got.Truncated {
		t.Fatal("expected truncation")
	}
	if len(got.Items) != 1 || got.Items[0].ID != "high" {
		t.Errorf("admitted %v, want only the high-priority item", got.Items)
	}
}

func TestTruncateStableTies(t *testing.T) {
	items := []Item{
		wordItem(ItemCharacter, "first", 3, TierCast),
		wordItem(ItemCharacter, "second", 3, TierCast),
		wordItem(ItemCharacter, "third", 3, TierCast),
	}
	got := Truncate(items, 10000)
	for i, want := range []string{"first", "second", "third"} {
		if got.Items[i].ID != want {
			t.Errorf("position %d: got %q, want %q (insertion order)", i, got.Items[i].ID, want)
		}
	}
}

func TestTruncateSkipsOversizedNeverPartial(t *testing.T) {
	items := []Item{wordItem(ItemChapterContent, "huge", 1000, TierScene)}
	got := Truncate(items, 50)
	if !got.Truncated {
		t.Error("oversized item must count as truncation")
	}
	if len(got.Items) != 0 || got.TotalTokens != 0 {
		t.Errorf("got %+v, want nothing admitted", got)
	}
}

func TestTruncateForwardScanNoBackfill(t *testing.T) {
	// The big mid-priority item is skipped; the scan continues forward and
	// still admits the small low-priority item, but never revisits the gap.
	items := []Item{
		wordItem(ItemChapterContent, "top", 10, TierScene),   // 13 tokens
		wordItem(ItemCharacter, "big", 100, TierCast),        // 130 tokens
		wordItem(ItemForeshadowing, "small", 5, TierThreads), // 7 tokens
	}
	got := Truncate(items, 25)
	if !got.Truncated {
		t.Fatal("expected truncation")
	}
	if len(got.Items) != 2 || got.Items[0].ID != "top" || got.Items[1].ID != "small" {
		t.Errorf("admitted %v, want [top small]", got.Items)
	}
}

func TestTruncateDoesNotMutateInput(t *testing.T) {
	items := []Item{
		wordItem(ItemHook, "low", 3, TierThreads),
		wordItem(ItemChapterContent, "high", 3, TierScene),
	}
	Truncate(items, 10000)
	if items[0].ID != "low" || items[1].ID != "high" {
		t.Error("Truncate reordered its input slice")
	}
}

func TestBudgetUsable(t *testing.T) {
	b := DefaultBudget()
	if got := b.Usable(); got != 990_000 {
		t.Errorf("DefaultBudget().Usable() = %d, want 990000", got)
	}
	tight := Budget{Ceiling: 100, OutputReserve: 80, PromptReserve: 50}
	if got := tight.Usable(); got != 0 {
		t.Errorf("over-reserved budget Usable() = %d, want 0", got)
	}
}
