package ssml

import (
	"regexp"
	"strings"
	"unicode"
)

var starWordRe = regexp.MustCompile(`\*(\S+)\*`)

// applyEmphasis wraps all-caps tokens (length >= 2) in <emphasis
// level="strong"> and *word*-delimited tokens in <emphasis
// level="moderate">, per spec §4.3. Both are lowercased/stripped in the
// emitted text as spec requires. emphasisStyle shifts strong down to
// moderate, or moderate up to strong, when it departs far enough from
// its neutral midpoint (0.5); 0 is treated as "no adjustment" (table
// default), matching a character's emphasis_style personality field.
func applyEmphasis(text string, emphasisStyle float64) string {
	out := starWordRe.ReplaceAllStringFunc(text, func(m string) string {
		word := strings.Trim(m, "*")
		return wrapEmphasis(word, levelFor("moderate", emphasisStyle))
	})

	words := strings.Fields(out)
	for i, w := range words {
		if isAllCapsWord(w) {
			words[i] = wrapEmphasis(strings.ToLower(w), levelFor("strong", emphasisStyle))
		}
	}
	return strings.Join(words, " ")
}

func wrapEmphasis(word, level string) string {
	return `<emphasis level="` + level + `">` + word + `</emphasis>`
}

// levelFor nudges base toward the adjacent level when emphasisStyle
// departs from its neutral midpoint by more than 0.3 in the relevant
// direction.
func levelFor(base string, emphasisStyle float64) string {
	switch {
	case base == "strong" && emphasisStyle > 0 && emphasisStyle < 0.2:
		return "moderate"
	case base == "moderate" && emphasisStyle > 0.8:
		return "strong"
	default:
		return base
	}
}

func isAllCapsWord(w string) bool {
	trimmed := strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) })
	if len(trimmed) < 2 {
		return false
	}
	hasLetter := false
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}
