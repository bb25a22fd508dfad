package voice

import (
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/voxcue/voxcue/pkg/voxcue/emotion"
)

// accentVocabulary is the fixed set free-text accent descriptions are
// normalized to (spec §3 "accent (free text normalized to a fixed set)").
var accentVocabulary = []string{
	"american", "british", "australian", "irish", "scottish",
	"indian", "french", "german", "spanish", "neutral",
}

// accentSynonyms maps literal substrings to a canonical accent, checked
// before the fuzzy pass.
var accentSynonyms = map[string]string{
	"american": "american", "us": "american", "yankee": "american",
	"british": "british", "english": "british", "uk": "british", "bbc": "british",
	"australian": "australian", "aussie": "australian", "australia": "australian",
	"irish": "irish", "ireland": "irish",
	"scottish": "scottish", "scot": "scottish", "scotland": "scottish",
	"indian": "indian", "india": "indian",
	"french": "french", "france": "french",
	"german": "german", "germany": "german",
	"spanish": "spanish", "spain": "spanish",
}

// ageSynonyms is the keyword table for the age enum, checked in table
// order so the first matching synonym group wins (spec §4.1(b)).
var ageSynonyms = []struct {
	value    Age
	keywords []string
}{
	{AgeChild, []string{"child", "kid", "young boy", "young girl", "toddler"}},
	{AgeYoung, []string{"young", "teen", "youthful", "twenties"}},
	{AgeSenior, []string{"senior", "elderly", "old", "aged", "grandfather", "grandmother"}},
	{AgeAdult, []string{"adult", "middle-aged", "mature"}},
}

var timbreSynonyms = []struct {
	value    Timbre
	keywords []string
}{
	{TimbreDeep, []string{"deep", "bass", "baritone", "booming", "low pitch", "low-pitched"}},
	{TimbreHigh, []string{"high pitch", "high-pitched", "high", "squeaky", "soprano"}},
	{TimbreMedium, []string{"medium", "mid-range", "balanced"}},
}

var paceSynonyms = []struct {
	value    Pace
	keywords []string
}{
	{PaceSlow, []string{"slow", "unhurried", "leisurely", "deliberate"}},
	{PaceFast, []string{"fast", "quick", "rapid", "hurried", "energetic pace"}},
	{PaceNormal, []string{"normal pace", "moderate pace", "even pace"}},
}

// personalitySynonyms accumulates (spec §4.1(c) "personality tags are
// accumulated, not exclusive") every tag whose keywords appear.
var personalitySynonyms = []struct {
	value    PersonalityTag
	keywords []string
}{
	{Cheerful, []string{"cheerful", "upbeat", "chipper", "happy-go-lucky"}},
	{Calm, []string{"calm", "soothing", "relaxed", "tranquil", "serene"}},
	{Energetic, []string{"energetic", "lively", "vibrant", "dynamic"}},
	{Wise, []string{"wise", "sage", "knowing", "philosophical"}},
	{Friendly, []string{"friendly", "warm", "approachable", "welcoming"}},
	{Professional, []string{"professional", "formal", "businesslike", "corporate"}},
	{Dramatic, []string{"dramatic", "theatrical", "intense", "grandiose"}},
	{Mysterious, []string{"mysterious", "enigmatic", "cryptic", "shadowy"}},
	{Confident, []string{"confident", "assured", "bold", "self-assured"}},
	{Gentle, []string{"gentle", "tender", "soft-spoken", "mild"}},
}

// defaultEmotionByPersonality is spec §4.1's fixed mapping from the first
// matching personality tag to a default emotion kind. Checked in the
// order spec.md lists it: cheerful, calm, energetic, dramatic.
var defaultEmotionByPersonality = []struct {
	tag  PersonalityTag
	kind emotion.Kind
}{
	{Cheerful, emotion.Happy},
	{Calm, emotion.Calm},
	{Energetic, emotion.Excited},
	{Dramatic, emotion.Excited},
}

// Parse maps a natural-language voice description to a fully populated
// Spec, per spec §4.1. Parse never fails (spec §7 PromptParseUnmapped "not
// raised"): an unmatched field falls back to Default()'s value for that
// field.
func Parse(prompt string) Spec {
	lower := strings.ToLower(prompt)
	out := Default()

	out.Gender = parseGender(lower)
	out.Age = matchFirst(lower, ageSynonyms, out.Age)
	out.Accent = parseAccent(lower)
	out.Timbre = matchFirst(lower, timbreSynonyms, out.Timbre)
	out.Pace = matchFirst(lower, paceSynonyms, out.Pace)
	out.Personality = parsePersonality(lower)
	out.DefaultEmotion = deriveDefaultEmotion(out.Personality)

	return out
}

// parseGender applies spec §4.1(a): exclusion rules first. The token
// "female" suppresses a "male" match against the substring "male" (which
// "female" itself contains).
func parseGender(lower string) Gender {
	hasFemale := strings.Contains(lower, "female") || strings.Contains(lower, "woman") || strings.Contains(lower, "girl")
	hasMale := strings.Contains(lower, "male") || strings.Contains(lower, "man") || strings.Contains(lower, "boy")
	switch {
	case hasFemale:
		return GenderFemale
	case hasMale && !hasFemale:
		return GenderMale
	default:
		return GenderNeutral
	}
}

// parseAccent checks literal substrings first, falling back to
// Jaro-Winkler fuzzy matching against the closed accent vocabulary for
// misspelled or loosely-worded descriptions (grounded on
// MrWong99-glyphoxa's phonetic matcher, which uses the same matchr
// library for fuzzy entity resolution).
func parseAccent(lower string) string {
	for substr, accent := range accentSynonyms {
		if strings.Contains(lower, substr) {
			return accent
		}
	}

	const fuzzyThreshold = 0.88
	best := ""
	bestScore := 0.0
	for _, token := range strings.Fields(lower) {
		for _, accent := range accentVocabulary {
			score := matchr.JaroWinkler(token, accent, false)
			if score > bestScore {
				bestScore = score
				best = accent
			}
		}
	}
	if bestScore >= fuzzyThreshold {
		return best
	}
	return "neutral"
}

func parsePersonality(lower string) []PersonalityTag {
	var tags []PersonalityTag
	for _, group := range personalitySynonyms {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, group.value)
				break
			}
		}
	}
	return tags
}

// deriveDefaultEmotion applies spec §4.1's cheerful/calm/energetic/dramatic
// -> emotion mapping, else neutral@0.5.
func deriveDefaultEmotion(tags []PersonalityTag) emotion.Profile {
	for _, candidate := range defaultEmotionByPersonality {
		for _, t := range tags {
			if t == candidate.tag {
				return emotion.Profile{Kind: candidate.kind, Intensity: 0.5}
			}
		}
	}
	return emotion.Profile{Kind: emotion.Neutral, Intensity: 0.5}
}

// matchFirst walks table in order and returns the value of the first
// group whose keyword appears in lower, else fallback.
func matchFirst[T any](lower string, table []struct {
	value    T
	keywords []string
}, fallback T) T {
	for _, group := range table {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.value
			}
		}
	}
	return fallback
}
