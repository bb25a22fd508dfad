// Package script normalizes textual dialogue and subtitle formats into
// the []plan.Line stream the Conversation Scheduler consumes, so the
// scheduler never has to know which format produced a line (spec §6,
// SPEC_FULL §5). SRT/VTT parsing is in scope per spec §1 ("feeds the
// core's Render Plan"); the screenplay/play/novel/chat formats are the
// supplemented script formats SPEC_FULL §5 adds.
package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/voxcue/voxcue/pkg/voxcue/emotion"
	"github.com/voxcue/voxcue/pkg/voxcue/plan"
)

// Cue is one parsed subtitle/dialogue block before it is lowered into a
// plan.Line (a CharacterRegistry is needed for that step, which this
// package does not own).
type Cue struct {
	Index      int
	StartMs    int64
	EndMs      int64
	Speaker    string // uppercase token without the trailing colon, "" if absent
	Text       string
	Emotion    *emotion.Kind
	CRLF       bool // true when the source document uses CRLF line endings, for Emit round-tripping
}

var (
	srtTimecodeRe = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2}),(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2}),(\d{3})`)
	vttTimecodeRe = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})\.(\d{3})`)
	speakerRe     = regexp.MustCompile(`(?s)^([A-Z][A-Z0-9 _'-]*):\s*(.*)$`)
	bracketTagRe  = regexp.MustCompile(`\[([a-zA-Z]+)\]`)
	htmlTagRe     = regexp.MustCompile(`<[^>]*>`)
)

// ParseSRT parses an SRT document, per spec §6: blocks separated by
// blank lines, each with an integer index, a timecode line, and one or
// more text lines.
func ParseSRT(doc string) ([]Cue, error) {
	return parseBlocks(doc, srtTimecodeRe, ",")
}

// ParseVTT parses a WebVTT document, per spec §6: begins with the
// literal line "WEBVTT", timecodes use "." as the fractional separator,
// and cue identifiers (if present) are ignored.
func ParseVTT(doc string) ([]Cue, error) {
	lines := splitLines(doc)
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "WEBVTT" {
		return nil, fmt.Errorf("script: VTT document missing WEBVTT header")
	}
	body := strings.Join(lines[1:], "\n")
	return parseBlocks(body, vttTimecodeRe, ".")
}

func parseBlocks(doc string, timecodeRe *regexp.Regexp, fracSep string) ([]Cue, error) {
	crlf := strings.Contains(doc, "\r\n")
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	blocks := strings.Split(strings.TrimSpace(doc), "\n\n")

	var cues []Cue
	autoIndex := 0
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")

		idx := 0
		li := 0
		if n, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
			idx = n
			li = 1
		} else {
			autoIndex++
			idx = autoIndex
		}

		if li >= len(lines) {
			continue
		}
		m := timecodeRe.FindStringSubmatch(lines[li])
		if m == nil && li == 0 && len(lines) > 1 {
			// A non-numeric cue identifier line precedes the timecode.
			li = 1
			m = timecodeRe.FindStringSubmatch(lines[li])
		}
		if m == nil {
			continue
		}
		startMs := timecodeToMs(m[1:5])
		endMs := timecodeToMs(m[5:9])
		li++

		textLines := lines[li:]
		text := strings.Join(textLines, "\n")
		text = htmlTagRe.ReplaceAllString(text, "")

		speaker := ""
		if sm := speakerRe.FindStringSubmatch(strings.TrimSpace(text)); sm != nil {
			speaker = sm[1]
			text = sm[2]
		}

		var emo *emotion.Kind
		text = bracketTagRe.ReplaceAllStringFunc(text, func(tag string) string {
			name := emotion.Kind(strings.ToLower(tag[1 : len(tag)-1]))
			if emotion.ValidKinds[name] {
				k := name
				emo = &k
				return ""
			}
			// spec §9 open question 4: unknown bracket contents pass through
			// as literal text rather than being stripped.
			return tag
		})
		text = strings.TrimSpace(collapseSpaces(text))

		cues = append(cues, Cue{
			Index: idx, StartMs: startMs, EndMs: endMs,
			Speaker: speaker, Text: text, Emotion: emo, CRLF: crlf,
		})
	}

	return cues, nil
}

func timecodeToMs(parts []string) int64 {
	h, _ := strconv.ParseInt(parts[0], 10, 64)
	m, _ := strconv.ParseInt(parts[1], 10, 64)
	s, _ := strconv.ParseInt(parts[2], 10, 64)
	ms, _ := strconv.ParseInt(parts[3], 10, 64)
	return ((h*60+m)*60+s)*1000 + ms
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func splitLines(doc string) []string {
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	return strings.Split(doc, "\n")
}

// ToLines lowers parsed Cues into plan.Line values against an existing
// character-name -> id mapping; callers (typically the CLI boundary)
// are expected to have already registered one plan.Character per
// distinct speaker name.
func ToLines(cues []Cue, characterIDByName map[string]string, fallbackCharacterID string) []plan.Line {
	lines := make([]plan.Line, 0, len(cues))
	for _, c := range cues {
		charID := fallbackCharacterID
		if c.Speaker != "" {
			if id, ok := characterIDByName[c.Speaker]; ok {
				charID = id
			}
		}
		var emo *emotion.Profile
		if c.Emotion != nil {
			emo = &emotion.Profile{Kind: *c.Emotion, Intensity: 0.6}
		}
		startMs, endMs := c.StartMs, c.EndMs
		lines = append(lines, plan.Line{
			CharacterID: charID,
			Text:        c.Text,
			Emotion:     emo,
			Timing: plan.LineTiming{
				StartMs: &startMs,
				EndMs:   &endMs,
			},
		})
	}
	return lines
}

// EmitSRT re-serializes cues as an SRT document, reproducible per spec
// §6: 1-based sequential indices, CRLF or LF per the source cue's
// observed line ending.
func EmitSRT(cues []Cue) string {
	var b strings.Builder
	for i, c := range cues {
		nl := "\n"
		if c.CRLF {
			nl = "\r\n"
		}
		fmt.Fprintf(&b, "%d%s", i+1, nl)
		fmt.Fprintf(&b, "%s --> %s%s", msToSRTTimecode(c.StartMs), msToSRTTimecode(c.EndMs), nl)
		if c.Speaker != "" {
			fmt.Fprintf(&b, "%s: %s%s", c.Speaker, c.Text, nl)
		} else {
			fmt.Fprintf(&b, "%s%s", c.Text, nl)
		}
		b.WriteString(nl)
	}
	return strings.TrimRight(b.String(), "\n\r")
}

// EmitVTT re-serializes cues as a WebVTT document, preserving the
// "WEBVTT" header and the "." fractional separator spec §6 requires.
func EmitVTT(cues []Cue) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, c := range cues {
		fmt.Fprintf(&b, "%s --> %s\n", msToVTTTimecode(c.StartMs), msToVTTTimecode(c.EndMs))
		if c.Speaker != "" {
			fmt.Fprintf(&b, "%s: %s\n", c.Speaker, c.Text)
		} else {
			fmt.Fprintf(&b, "%s\n", c.Text)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func msToSRTTimecode(ms int64) string {
	return msToTimecode(ms, ",")
}

func msToVTTTimecode(ms int64) string {
	return msToTimecode(ms, ".")
}

func msToTimecode(ms int64, fracSep string) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	ms %= 3600000
	m := ms / 60000
	ms %= 60000
	s := ms / 1000
	frac := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", h, m, s, fracSep, frac)
}
