package script

import (
	"strings"
	"testing"

	"github.com/voxcue/voxcue/pkg/voxcue/emotion"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:03,500
JANE: Hello there!

2
00:00:04,000 --> 00:00:06,250
[happy] I'm so glad you came.
`

func TestParseSRTBasic(t *testing.T) {
	cues, err := ParseSRT(sampleSRT)
	if err != nil {
		t.Fatalf("ParseSRT() error: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("ParseSRT() produced %d cues, want 2", len(cues))
	}
	if cues[0].Speaker != "JANE" {
		t.Errorf("cues[0].Speaker = %q, want JANE", cues[0].Speaker)
	}
	if cues[0].StartMs != 1000 || cues[0].EndMs != 3500 {
		t.Errorf("cues[0] timing = (%d,%d), want (1000,3500)", cues[0].StartMs, cues[0].EndMs)
	}
	if cues[1].Emotion == nil || *cues[1].Emotion != emotion.Happy {
		t.Errorf("cues[1].Emotion = %v, want happy", cues[1].Emotion)
	}
	if strings.Contains(cues[1].Text, "[happy]") {
		t.Errorf("cues[1].Text still contains the bracket tag: %q", cues[1].Text)
	}
}

func TestParseSRTSpeakerPrefixKeepsAllLinesOfAMultiLineCue(t *testing.T) {
	doc := "1\n00:00:00,000 --> 00:00:02,000\nJANE: Hello there!\nI missed you.\n"
	cues, err := ParseSRT(doc)
	if err != nil {
		t.Fatalf("ParseSRT() error: %v", err)
	}
	if cues[0].Speaker != "JANE" {
		t.Fatalf("cues[0].Speaker = %q, want JANE", cues[0].Speaker)
	}
	if !strings.Contains(cues[0].Text, "Hello there!") || !strings.Contains(cues[0].Text, "I missed you.") {
		t.Errorf("cues[0].Text = %q, want both lines of the cue preserved", cues[0].Text)
	}
}

func TestParseSRTUnknownBracketPassesThrough(t *testing.T) {
	doc := "1\n00:00:00,000 --> 00:00:01,000\n[laughs] that's funny\n"
	cues, err := ParseSRT(doc)
	if err != nil {
		t.Fatalf("ParseSRT() error: %v", err)
	}
	if !strings.Contains(cues[0].Text, "[laughs]") {
		t.Errorf("cues[0].Text = %q, want the unknown bracket tag preserved", cues[0].Text)
	}
}

const sampleVTT = "WEBVTT\n\n00:00:01.000 --> 00:00:03.500\nJANE: Hello there!\n"

func TestParseVTTBasic(t *testing.T) {
	cues, err := ParseVTT(sampleVTT)
	if err != nil {
		t.Fatalf("ParseVTT() error: %v", err)
	}
	if len(cues) != 1 {
		t.Fatalf("ParseVTT() produced %d cues, want 1", len(cues))
	}
	if cues[0].StartMs != 1000 {
		t.Errorf("cues[0].StartMs = %d, want 1000", cues[0].StartMs)
	}
}

func TestParseVTTRequiresHeader(t *testing.T) {
	if _, err := ParseVTT("00:00:01.000 --> 00:00:02.000\nhi\n"); err == nil {
		t.Errorf("ParseVTT() without a WEBVTT header: want error, got nil")
	}
}

func TestToLinesResolvesCharacterByName(t *testing.T) {
	cues := []Cue{{Speaker: "JANE", Text: "hi", StartMs: 0, EndMs: 1000}}
	lines := ToLines(cues, map[string]string{"JANE": "char-jane"}, "narrator")
	if len(lines) != 1 || lines[0].CharacterID != "char-jane" {
		t.Fatalf("ToLines() = %+v, want character_id char-jane", lines)
	}
}

func TestToLinesFallsBackWhenSpeakerUnknown(t *testing.T) {
	cues := []Cue{{Speaker: "", Text: "hi"}}
	lines := ToLines(cues, nil, "narrator")
	if lines[0].CharacterID != "narrator" {
		t.Fatalf("ToLines() CharacterID = %q, want narrator", lines[0].CharacterID)
	}
}

func TestEmitSRTRoundTrip(t *testing.T) {
	cues, err := ParseSRT(sampleSRT)
	if err != nil {
		t.Fatalf("ParseSRT() error: %v", err)
	}
	out := EmitSRT(cues)
	if !strings.Contains(out, "00:00:01,000 --> 00:00:03,500") {
		t.Errorf("EmitSRT() missing the original timecode: %s", out)
	}
	reparsed, err := ParseSRT(out)
	if err != nil {
		t.Fatalf("ParseSRT(EmitSRT(cues)) error: %v", err)
	}
	if len(reparsed) != len(cues) {
		t.Fatalf("round trip produced %d cues, want %d", len(reparsed), len(cues))
	}
}

func TestEmitVTTHeader(t *testing.T) {
	cues, _ := ParseVTT(sampleVTT)
	out := EmitVTT(cues)
	if !strings.HasPrefix(out, "WEBVTT\n") {
		t.Errorf("EmitVTT() = %q, want it to start with WEBVTT header", out)
	}
}
