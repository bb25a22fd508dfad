package script

import (
	"regexp"
	"strings"

	"github.com/voxcue/voxcue/pkg/voxcue/plan"
)

// Format selects one of the four supplemented textual dialogue
// conventions (SPEC_FULL §5), none of which carry explicit timing —
// the Conversation Scheduler's natural-duration estimate (spec §4.6
// step 2) fills that in.
type Format string

const (
	FormatScreenplay Format = "screenplay"
	FormatPlay       Format = "play"
	FormatNovel      Format = "novel"
	FormatChat       Format = "chat"
)

// sluglineRe matches screenplay scene headings ("INT. HOUSE - DAY"),
// which are skipped rather than turned into dialogue.
var sluglineRe = regexp.MustCompile(`^(INT|EXT|INT/EXT)[./]`)

// screenplayCueRe matches a centered character cue line, e.g. "JANE" or
// "JANE (O.S.)", on its own line immediately preceding dialogue.
var screenplayCueRe = regexp.MustCompile(`^([A-Z][A-Z0-9 ']*?)(\s*\([^)]*\))?$`)

// playCueRe matches the stage-play "CHARACTER: line" convention.
var playCueRe = regexp.MustCompile(`^([A-Z][A-Z0-9 '.-]*?):\s*(.+)$`)

// novelAttributionRe finds a novel-style quoted line with a trailing or
// leading attribution tag, e.g. `"Hello," said Mary.` or
// `Mary said, "Hello."`.
var novelQuoteRe = regexp.MustCompile(`["“]([^"”]+)["”]`)
var novelAttributionRe = regexp.MustCompile(`(?i)\b([A-Z][a-z]+)\s+(?:said|asked|replied|shouted|whispered|muttered)\b|\b(?:said|asked|replied|shouted|whispered|muttered)\s+([A-Z][a-z]+)\b`)

// chatCueRe matches the chat-log "[speaker] message" convention.
var chatCueRe = regexp.MustCompile(`^\[([^\]]+)\]\s*(.+)$`)

// ParseScreenplay lowers a screenplay-formatted script into Lines.
// Slugs (scene headings) and parentheticals are skipped; a cue line
// (all-caps, optionally with a parenthetical) attaches to the dialogue
// that follows it until the next blank line or cue.
func ParseScreenplay(text string) []plan.Line {
	var lines []plan.Line
	var currentSpeaker string
	var buf []string

	flush := func() {
		if currentSpeaker != "" && len(buf) > 0 {
			lines = append(lines, plan.Line{
				CharacterID: currentSpeaker,
				Text:        strings.TrimSpace(strings.Join(buf, " ")),
			})
		}
		buf = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		l := strings.TrimSpace(raw)
		if l == "" {
			flush()
			continue
		}
		if sluglineRe.MatchString(l) {
			flush()
			currentSpeaker = ""
			continue
		}
		if strings.HasPrefix(l, "(") && strings.HasSuffix(l, ")") {
			continue
		}
		if m := screenplayCueRe.FindStringSubmatch(l); m != nil && isAllCapsCue(l) {
			flush()
			currentSpeaker = strings.TrimSpace(m[1])
			continue
		}
		buf = append(buf, l)
	}
	flush()
	return lines
}

func isAllCapsCue(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
	}
	return strings.TrimSpace(s) != ""
}

// ParsePlay lowers the "CHARACTER: line" stage-play convention.
// Continuation lines without a leading "CHARACTER:" attach to the
// previous speaker.
func ParsePlay(text string) []plan.Line {
	var lines []plan.Line
	lastSpeaker := ""
	for _, raw := range strings.Split(text, "\n") {
		l := strings.TrimSpace(raw)
		if l == "" {
			continue
		}
		if m := playCueRe.FindStringSubmatch(l); m != nil {
			lastSpeaker = strings.TrimSpace(m[1])
			lines = append(lines, plan.Line{CharacterID: lastSpeaker, Text: strings.TrimSpace(m[2])})
			continue
		}
		if lastSpeaker != "" && len(lines) > 0 {
			lines[len(lines)-1].Text += " " + l
		}
	}
	return lines
}

// ParseNovel extracts quoted dialogue from novel-style prose, attributing
// each quote to the nearest speaking-verb attribution ("said Mary" /
// "Mary said") found in the same sentence; quotes with no attribution
// keep the previous speaker.
func ParseNovel(text string) []plan.Line {
	var lines []plan.Line
	lastSpeaker := "narrator"

	for _, sentence := range splitNovelSentences(text) {
		quotes := novelQuoteRe.FindAllString(sentence, -1)
		if len(quotes) == 0 {
			continue
		}
		speaker := lastSpeaker
		if m := novelAttributionRe.FindStringSubmatch(sentence); m != nil {
			speaker = m[1]
			if speaker == "" {
				speaker = m[2]
			}
		}
		for _, q := range quotes {
			dialogue := strings.Trim(q, `"“”`)
			lines = append(lines, plan.Line{CharacterID: speaker, Text: dialogue})
		}
		lastSpeaker = speaker
	}
	return lines
}

func splitNovelSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '\n' {
			out = append(out, text[start:i])
			start = i + 1
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// ParseChat lowers the "[speaker] message" chat-log convention, one
// message per line.
func ParseChat(text string) []plan.Line {
	var lines []plan.Line
	for _, raw := range strings.Split(text, "\n") {
		l := strings.TrimSpace(raw)
		if l == "" {
			continue
		}
		if m := chatCueRe.FindStringSubmatch(l); m != nil {
			lines = append(lines, plan.Line{CharacterID: strings.TrimSpace(m[1]), Text: strings.TrimSpace(m[2])})
		}
	}
	return lines
}

// Parse dispatches to the parser named by format.
func Parse(format Format, text string) []plan.Line {
	switch format {
	case FormatScreenplay:
		return ParseScreenplay(text)
	case FormatPlay:
		return ParsePlay(text)
	case FormatNovel:
		return ParseNovel(text)
	case FormatChat:
		return ParseChat(text)
	default:
		return nil
	}
}
