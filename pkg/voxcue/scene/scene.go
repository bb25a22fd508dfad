// Package scene implements the scene-aware recommender SPEC_FULL §5
// adds: it consumes a supplied SceneContext (never computing one itself,
// per spec §1's scope boundary excluding scene analysis from
// video/audio) and produces reverb, EQ and prosody hints from it.
package scene

import "strings"

// TimeOfDay is a coarse part-of-day tag a SceneContext may carry.
type TimeOfDay string

const (
	Morning TimeOfDay = "morning"
	Day     TimeOfDay = "day"
	Evening TimeOfDay = "evening"
	Night   TimeOfDay = "night"
)

// Context is the scene description supplied to the recommender; it is
// never computed from raw video/audio by this package.
type Context struct {
	Location          string
	TimeOfDay         TimeOfDay
	AmbientNoiseLevel float64 // 0..1; 0 means unset and leaves the EQ preset flat
	MoodTags          []string
}

// EQPreset names one of a small fixed set of EQ curves.
type EQPreset string

const (
	EQFlat      EQPreset = "flat"
	EQWarm      EQPreset = "warm"
	EQBright    EQPreset = "bright"
	EQMuffled   EQPreset = "muffled"
)

// Hints is the recommender's output: a reverb wetness, an EQ preset name
// and a prosody bias. Only the Voice Engine's numeric rate/pitch/volume
// derivation reads ProsodyBias; the SSML emitter, the mixer and the codec
// read none of the hints, so ReverbWetness and EQPreset do not change the
// rendered audio.
type Hints struct {
	ReverbWetness float64 // 0..1
	EQPreset      EQPreset
	ProsodyBias   ProsodyBias
}

// ProsodyBias is added to the Voice Engine's numeric rate/pitch/volume,
// additive like the emotion table's offsets (spec §4.3), not a
// replacement for them. It is not applied to the SSML prosody.
type ProsodyBias struct {
	RateDelta   float64
	PitchPctDelta float64
	VolumeDelta float64
}

// locationReverb is a small lookup table of location keywords to reverb
// wetness, grounded on the same keyword-table pattern the Prompt
// Interpreter uses (spec §4.1) rather than a physical room-acoustics
// model, since the core only consumes a supplied SceneContext.
var locationReverb = []struct {
	keyword string
	wetness float64
}{
	{"cave", 0.8}, {"cathedral", 0.75}, {"hall", 0.6}, {"bathroom", 0.55},
	{"hallway", 0.45}, {"forest", 0.2}, {"outdoor", 0.1}, {"field", 0.05},
	{"studio", 0.0},
}

// Recommend maps ctx to Hints, per SPEC_FULL §5.
func Recommend(ctx Context) Hints {
	h := Hints{ReverbWetness: 0.15, EQPreset: EQFlat}

	loc := strings.ToLower(ctx.Location)
	for _, row := range locationReverb {
		if strings.Contains(loc, row.keyword) {
			h.ReverbWetness = row.wetness
			break
		}
	}

	switch {
	case ctx.AmbientNoiseLevel > 0.6:
		h.EQPreset = EQBright
		h.ProsodyBias.VolumeDelta = 0.15
	case ctx.AmbientNoiseLevel > 0 && ctx.AmbientNoiseLevel < 0.15:
		h.EQPreset = EQWarm
	}

	switch ctx.TimeOfDay {
	case Night:
		h.ProsodyBias.RateDelta -= 0.05
		h.ProsodyBias.PitchPctDelta -= 3
	case Morning:
		h.ProsodyBias.RateDelta += 0.03
	}

	for _, tag := range ctx.MoodTags {
		switch strings.ToLower(tag) {
		case "tense", "ominous":
			h.ProsodyBias.RateDelta -= 0.08
			if h.EQPreset == EQFlat {
				h.EQPreset = EQMuffled
			}
		case "joyful", "festive":
			h.ProsodyBias.RateDelta += 0.05
			h.ProsodyBias.PitchPctDelta += 5
		}
	}

	return h
}
