// Package ssml builds the prosody/emphasis/break markup spec §4.3
// describes: a VoiceSpec, an optional emotion, and text in, a well-formed
// <speak> document out.
package ssml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/voxcue/voxcue/pkg/voxcue/emotion"
	"github.com/voxcue/voxcue/pkg/voxcue/plan"
	"github.com/voxcue/voxcue/pkg/voxcue/voice"
)

// emotionOffset is one row of the fixed prosody-offset table spec §4.3
// requires be embedded verbatim: rate is a multiplier, pitch/range are
// percentage-point offsets, both scaled by intensity.
type emotionOffset struct {
	rateScale  float64
	pitchPct   float64
	rangePct   float64
}

// emotionTable is the published emotion -> prosody offset table (spec
// §4.3): "joy scales rate by 1+0.2i, pitch by +15i%, range by +25i%;
// sadness by -0.3i, -20i%, -15i%; anger, fear, etc. per a published
// table".
var emotionTable = map[emotion.Kind]emotionOffset{
	emotion.Happy:     {rateScale: 0.2, pitchPct: 15, rangePct: 25},
	emotion.Excited:   {rateScale: 0.3, pitchPct: 20, rangePct: 30},
	emotion.Surprised: {rateScale: 0.25, pitchPct: 25, rangePct: 20},
	emotion.Sad:       {rateScale: -0.3, pitchPct: -20, rangePct: -15},
	emotion.Fearful:   {rateScale: 0.15, pitchPct: 10, rangePct: -10},
	emotion.Angry:     {rateScale: 0.1, pitchPct: -5, rangePct: 35},
	emotion.Calm:      {rateScale: -0.15, pitchPct: -5, rangePct: -10},
	emotion.Neutral:   {rateScale: 0, pitchPct: 0, rangePct: 0},
}

// Options configures one emission, per the spec §9 "explicit
// configuration structures enumerating recognized options" redesign
// guidance — no sentinel-default options bag.
type Options struct {
	Deterministic    bool  // disables filler/catchphrase insertion (spec §4.3, §9)
	Seed             int64 // used only when !Deterministic
	EmphasisStyle    float64 // 0..1, shifts emphasis level up/down; 0 = table default
	Catchphrases     []string
	FillerWords      []string
	FillerProbability float64 // per-sentence probability, ignored when Deterministic
}

// DefaultOptions returns deterministic emission settings, matching
// spec §9's "tests always run in deterministic mode".
func DefaultOptions() Options {
	return Options{Deterministic: true}
}

// Emit produces a well-formed SSML <speak> document for text, spoken by
// character with the given effective emotion state, per spec §4.3.
func Emit(text string, spec voice.Spec, style plan.SpeakingStyle, state emotion.State, opts Options) string {
	rng := newRNG(opts)

	body := text
	if !opts.Deterministic {
		body = maybeInsertFiller(body, opts, rng)
		body = maybeInsertCatchphrase(body, opts, rng)
	}

	marked := applyEmphasis(body, opts.EmphasisStyle)
	withBreaks := applyBreaks(marked)
	escaped := escapeTextPreservingTags(withBreaks)

	rate, pitch, volume, rangePct := prosodyFrom(spec, style, state)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString("\n<speak>")
	b.WriteString(fmt.Sprintf(`<voice gender="%s" age="%s">`, spec.Gender, spec.Age))
	b.WriteString(fmt.Sprintf(
		`<prosody rate="%s" pitch="%s" volume="%s" range="%s">`,
		formatPct(rate, "rate"), formatSignedPct(pitch), formatPct(volume, "volume"), formatSignedPct(rangePct),
	))
	b.WriteString(escaped)
	b.WriteString("</prosody></voice></speak>")
	return b.String()
}

// prosodyFrom derives rate/pitch/volume/range per spec §4.3: "pace ->
// rate, speaking style -> rate/pitch/volume/range, and emotion ->
// offsets". Rate and volume are returned as multipliers around 1.0,
// pitch/range as signed percentage offsets.
func prosodyFrom(spec voice.Spec, style plan.SpeakingStyle, state emotion.State) (rate, pitch, volume, rangePct float64) {
	rate = 1.0
	switch spec.Pace {
	case voice.PaceSlow:
		rate -= 0.2
	case voice.PaceFast:
		rate += 0.2
	}

	switch style.Pace {
	case plan.PaceSlow:
		rate -= 0.1
	case plan.PaceFast:
		rate += 0.1
	}

	volume = 0.7 + 0.3*style.Confidence
	pitch = (style.Enthusiasm - 0.5) * 10
	rangePct = style.Enthusiasm * 20

	if off, ok := emotionTable[state.Kind]; ok {
		rate += off.rateScale * state.Intensity
		pitch += off.pitchPct * state.Intensity
		rangePct += off.rangePct * state.Intensity
	}

	return rate, pitch, volume, rangePct
}

func formatPct(multiplier float64, attr string) string {
	if multiplier <= 0 {
		multiplier = 0.01
	}
	return fmt.Sprintf("%.0f%%", multiplier*100)
}

func formatSignedPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.0f%%", pct)
	}
	return fmt.Sprintf("%.0f%%", pct)
}

// knownTagRe matches exactly the literal <emphasis>/<break> markup
// applyEmphasis and applyBreaks insert — nothing else — so
// escapeTextPreservingTags can tell that markup apart from the
// caller's own text, which may itself contain '<', '&', or similar.
var knownTagRe = regexp.MustCompile(`<emphasis level="(?:strong|moderate)">|</emphasis>|<break strength="(?:weak|medium|strong)"/>`)

// escapeTextPreservingTags entity-escapes everything in s except the
// <emphasis>/<break> tags applyEmphasis/applyBreaks already inserted, so
// the emitted document stays well-formed XML (spec §4.3) even when the
// input text itself contains '&', '<', '>', or '"'. Escaping runs after
// markup insertion, not before: entity references end in ';', and
// escaping first would make applyBreaks mistake that ';' for a sentence
// boundary and insert a spurious break.
func escapeTextPreservingTags(s string) string {
	var b strings.Builder
	last := 0
	for _, loc := range knownTagRe.FindAllStringIndex(s, -1) {
		b.WriteString(escapeXMLText(s[last:loc[0]]))
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(escapeXMLText(s[last:]))
	return b.String()
}

func escapeXMLText(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}

func newRNG(opts Options) *rand.Rand {
	seed := opts.Seed
	if seed == 0 {
		seed = 1
	}
	return rand.New(rand.NewSource(seed))
}
