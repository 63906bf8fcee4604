// Package assembly selects, budgets, and formats story-bible material
// into the context block injected into an LLM prompt.
package assembly

// ItemType is the closed set of context item categories. The formatter
// switches over it exhaustively when partitioning items into sections.
type ItemType int

const (
	ItemChapterContent ItemType = iota
	ItemChapterOutline
	ItemPreviousTail
	ItemCharacter
	ItemRelationship
	ItemLocation
	ItemArc
	ItemForeshadowing
	ItemHook
	ItemPowerRule
	ItemSocialRule
	ItemCustom
)

func (t ItemType) String() string {
	switch t {
	case ItemChapterContent:
		return "chapter_content"
	case ItemChapterOutline:
		return "chapter_outline"
	case ItemPreviousTail:
		return "previous_tail"
	case ItemCharacter:
		return "character"
	case ItemRelationship:
		return "relationship"
	case ItemLocation:
		return "location"
	case ItemArc:
		return "arc"
	case ItemForeshadowing:
		return "foreshadowing"
	case ItemHook:
		return "hook"
	case ItemPowerRule:
		return "power_rule"
	case ItemSocialRule:
		return "social_rule"
	case ItemCustom:
		return "custom"
	}
	return "unknown"
}

// Standard priority tiers. Higher survives truncation first. Callers may
// inject custom items at any priority; ties keep insertion order.
const (
	TierScene   = 1000 // current chapter content, previous-chapter tail
	TierOutline = 800  // chapter outline, containing arc
	TierCast    = 600  // character profiles, scoped relationships
	TierWorld   = 400  // locations, power system, social rules
	TierThreads = 200  // foreshadowing, hooks
)

// Item is one pre-formatted unit of context. Content is rendered at
// creation time; the formatter only groups, it never re-renders.
type Item struct {
	Type     ItemType `json:"type"`
	ID       string   `json:"id,omitempty"`
	Content  string   `json:"content"`
	Priority int      `json:"priority"`
}

// Built is the outcome of one truncation pass. Items are in
// priority-descending order and their estimated cost sums to TotalTokens.
type Built struct {
	Items       []Item `json:"items"`
	TotalTokens int    `json:"total_tokens"`
	Truncated   bool   `json:"truncated"`
}

// Budget configures the token ceiling and the slack reserved for model
// output and prompt scaffolding. Usable space for context items is
// Ceiling - OutputReserve - PromptReserve.
type Budget struct {
	Ceiling       int `json:"ceiling"`
	OutputReserve int `json:"output_reserve"`
	PromptReserve int `json:"prompt_reserve"`
}

// DefaultBudget returns the documented defaults.
func DefaultBudget() Budget {
	return Budget{
		Ceiling:       1_000_000,
		OutputReserve: 8_000,
		PromptReserve: 2_000,
	}
}

// Usable returns the token budget available to context items, never
// negative.
func (b Budget) Usable() int {
	u := b.Ceiling - b.OutputReserve - b.PromptReserve
	if u < 0 {
		return 0
	}
	return u
}
