package assembly

import (
	"strings"
	"testing"

	"github.com/inkfall/storyloom/internal/bible"
)

func TestFormatDelimitersAlwaysPresent(t *testing.T) {
	out := Format(nil)
	if !strings.HasPrefix(out, "<<<STORY_CONTEXT>>>") {
		t.Errorf("missing opening delimiter: %q", out)
	}
	if !strings.HasSuffix(out, "<<<END_STORY_CONTEXT>>>") {
		t.Errorf("missing closing delimiter: %q", out)
	}
}

func TestFormatOmitsEmptyBuckets(t *testing.T) {
	items := []Item{
		{Type: ItemChapterContent, Content: "the scene", Priority: TierScene},
	}
	out := Format(items)
	if !strings.Contains(out, "## Narrative") {
		t.Error("expected narrative heading")
	}
	for _, heading := range []string{"## Characters", "## World", "## Plot Threads", "## Outline & Arcs", "## Notes"} {
		if strings.Contains(out, heading) {
			t.Errorf("unexpected heading %q for empty bucket", heading)
		}
	}
}

func TestFormatGroupsByBucketNotPriority(t *testing.T) {
	items := []Item{
		{Type: ItemChapterContent, Content: "scene text", Priority: TierScene},
		{Type: ItemCharacter, Content: "hero profile", Priority: TierCast},
		{Type: ItemRelationship, Content: "hero -> rival", Priority: TierCast},
		{Type: ItemLocation, Content: "the citadel", Priority: TierWorld},
		{Type: ItemForeshadowing, Content: "the broken seal", Priority: TierThreads},
		{Type: ItemCustom, Content: "style note", Priority: 50},
	}
	out := Format(items)

	// Characters and relationships share one section.
	charSection := out[strings.Index(out, "## Characters"):]
	if end := strings.Index(charSection, "\n## "); end >= 0 {
		charSection = charSection[:end]
	}
	if !strings.Contains(charSection, "hero profile") || !strings.Contains(charSection, "hero -> rival") {
		t.Errorf("character section missing items: %q", charSection)
	}

	// Section order is fixed: narrative before world, world before plot.
	narrIdx := strings.Index(out, "## Narrative")
	worldIdx := strings.Index(out, "## World")
	plotIdx := strings.Index(out, "## Plot Threads")
	notesIdx := strings.Index(out, "## Notes")
	if !(narrIdx < worldIdx && worldIdx < plotIdx && plotIdx < notesIdx) {
		t.Errorf("section order wrong: narrative=%d world=%d plot=%d notes=%d",
			narrIdx, worldIdx, plotIdx, notesIdx)
	}
}

func TestFormatIdempotent(t *testing.T) {
	items := []Item{
		{Type: ItemChapterContent, Content: "场景文本 scene", Priority: TierScene},
		{Type: ItemCharacter, Content: "profile", Priority: TierCast},
	}
	first := Format(items)
	second := Format(items)
	if first != second {
		t.Error("Format is not idempotent for identical input")
	}
}

func TestFormatCharacterFullProfile(t *testing.T) {
	c := &bible.Character{
		Name:       "Wren",
		Role:       "spy",
		Appearance: "grey cloak, burn scar",
		Motivation: bible.Motivation{
			Surface: "serve the crown",
			Hidden:  "find her brother",
			Core:    "be unowned",
		},
		Personality: bible.Personality{
			Public:        "charming",
			UnderPressure: "coldly methodical",
		},
		VoiceSamples: []string{"Names are just masks."},
	}
	out := FormatCharacter(c)

	for _, want := range []string{
		"Wren (spy)",
		"Appearance: grey cloak, burn scar",
		"surface: serve the crown",
		"hidden: find her brother",
		"core: be unowned",
		"public: charming",
		"under pressure: coldly methodical",
		`"Names are just masks."`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("profile missing %q:\n%s", want, out)
		}
	}
}

func TestFormatCharacterOmitsAbsentFields(t *testing.T) {
	c := &bible.Character{Name: "Extra", Role: "villager"}
	out := FormatCharacter(c)
	if out != "Extra (villager)" {
		t.Errorf("bare profile = %q, want name and role only", out)
	}
	for _, forbidden := range []string{"Appearance", "Motivation", "Personality", "Voice", "N/A"} {
		if strings.Contains(out, forbidden) {
			t.Errorf("bare profile must not contain %q", forbidden)
		}
	}
}

func TestFormatRelationUsesNames(t *testing.T) {
	r := &bible.Relation{
		ID:          "r1",
		SourceID:    "c1",
		TargetID:    "c2",
		Type:        "rival",
		Description: "childhood feud",
	}
	names := map[string]string{"c1": "Wren", "c2": "Kael"}
	got := FormatRelation(r, names)
	want := "Wren -> Kael: rival (childhood feud)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// Unknown names fall back to IDs.
	got = FormatRelation(r, nil)
	if !strings.Contains(got, "c1 -> c2") {
		t.Errorf("fallback rendering = %q, want raw IDs", got)
	}
}
