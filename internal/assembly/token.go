package assembly

import (
	"math"
	"strings"
)

// CountTokens estimates the token cost of text. It is a heuristic, not a
// provider tokenizer: CJK ideographs cost about 1.5 tokens each, while
// whitespace-delimited words cost about 1.3. The result is the ceiling
// of the two sub-estimates summed. Empty text costs 0.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}

	cjk := 0
	var rest strings.Builder
	for _, r := range text {
		if isCJK(r) {
			cjk++
		} else {
			rest.WriteRune(r)
		}
	}

	words := len(strings.Fields(rest.String()))
	return int(math.Ceil(float64(cjk)*1.5 + float64(words)*1.3))
}

// isCJK reports whether r falls in the CJK ideograph or common CJK
// punctuation ranges.
func isCJK(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF: // CJK Unified Ideographs
		return true
	case r >= 0x3400 && r <= 0x4DBF: // Extension A
		return true
	case r >= 0xF900 && r <= 0xFAFF: // Compatibility Ideographs
		return true
	case r >= 0x3000 && r <= 0x303F: // CJK symbols and punctuation
		return true
	case r >= 0xFF00 && r <= 0xFFEF: // fullwidth forms
		return true
	}
	return false
}
