package assembly

import (
	"fmt"
	"strings"

	"github.com/inkfall/storyloom/internal/bible"
)

// Context block delimiters and section headings. Downstream prompt
// templates locate the injected block by these exact strings; changing
// them is a breaking change to the prompt contract.
const (
	contextOpen  = "<<<STORY_CONTEXT>>>"
	contextClose = "<<<END_STORY_CONTEXT>>>"
)

type bucket int

const (
	bucketNarrative bucket = iota
	bucketOutline
	bucketCharacter
	bucketWorld
	bucketPlot
	bucketCustom
	bucketCount
)

var bucketHeadings = [bucketCount]string{
	bucketNarrative: "## Narrative",
	bucketOutline:   "## Outline & Arcs",
	bucketCharacter: "## Characters",
	bucketWorld:     "## World",
	bucketPlot:      "## Plot Threads",
	bucketCustom:    "## Notes",
}

func bucketOf(t ItemType) bucket {
	switch t {
	case ItemChapterContent, ItemPreviousTail:
		return bucketNarrative
	case ItemChapterOutline, ItemArc:
		return bucketOutline
	case ItemCharacter, ItemRelationship:
		return bucketCharacter
	case ItemLocation, ItemPowerRule, ItemSocialRule:
		return bucketWorld
	case ItemForeshadowing, ItemHook:
		return bucketPlot
	case ItemCustom:
		return bucketCustom
	}
	return bucketCustom
}

// Format renders items into a single delimited text block, grouped into
// fixed sections. Within a section items keep the order they arrive in
// (post-truncation, priority-descending); empty sections are omitted.
// Priority decides what survives, sections decide how survivors read:
// narrative first, world and plot threads last.
func Format(items []Item) string {
	var groups [bucketCount][]string
	for _, it := range items {
		b := bucketOf(it.Type)
		groups[b] = append(groups[b], it.Content)
	}

	var sections []string
	for b := bucket(0); b < bucketCount; b++ {
		if len(groups[b]) == 0 {
			continue
		}
		sections = append(sections, bucketHeadings[b]+"\n\n"+strings.Join(groups[b], "\n\n"))
	}

	var sb strings.Builder
	sb.WriteString(contextOpen)
	sb.WriteString("\n")
	if len(sections) > 0 {
		sb.WriteString(strings.Join(sections, "\n\n"))
		sb.WriteString("\n")
	}
	sb.WriteString(contextClose)
	return sb.String()
}

// FormatCharacter renders one character as a multi-line profile. Absent
// fields are omitted outright rather than rendered as filler, so empty
// slots never cost budget.
func FormatCharacter(c *bible.Character) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)", c.Name, c.Role)

	if c.Appearance != "" {
		sb.WriteString("\nAppearance: " + c.Appearance)
	}

	if m := c.Motivation; m.Surface != "" || m.Hidden != "" || m.Core != "" {
		sb.WriteString("\nMotivation:")
		if m.Surface != "" {
			sb.WriteString("\n  surface: " + m.Surface)
		}
		if m.Hidden != "" {
			sb.WriteString("\n  hidden: " + m.Hidden)
		}
		if m.Core != "" {
			sb.WriteString("\n  core: " + m.Core)
		}
	}

	if p := c.Personality; p.Public != "" || p.Private != "" || p.Hidden != "" || p.UnderPressure != "" {
		sb.WriteString("\nPersonality:")
		if p.Public != "" {
			sb.WriteString("\n  public: " + p.Public)
		}
		if p.Private != "" {
			sb.WriteString("\n  private: " + p.Private)
		}
		if p.Hidden != "" {
			sb.WriteString("\n  hidden: " + p.Hidden)
		}
		if p.UnderPressure != "" {
			sb.WriteString("\n  under pressure: " + p.UnderPressure)
		}
	}

	if len(c.VoiceSamples) > 0 {
		sb.WriteString("\nVoice:")
		for _, v := range c.VoiceSamples {
			fmt.Fprintf(&sb, "\n  %q", v)
		}
	}

	return sb.String()
}

// FormatRelation renders a directed relationship as a single line.
func FormatRelation(r *bible.Relation, names map[string]string) string {
	src := r.SourceID
	if n, ok := names[r.SourceID]; ok {
		src = n
	}
	dst := r.TargetID
	if n, ok := names[r.TargetID]; ok {
		dst = n
	}
	line := fmt.Sprintf("%s -> %s: %s", src, dst, r.Type)
	if r.Description != "" {
		line += " (" + r.Description + ")"
	}
	return line
}
