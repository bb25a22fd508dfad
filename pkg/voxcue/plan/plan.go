// Package plan holds the render-plan data model from spec §3: characters,
// lines, global settings, and the render plan that binds them — plus the
// up-front validation the Conversation Scheduler runs before synthesis
// starts (spec §4.6 step 1, §7 InvalidPlan).
package plan

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/voxcue/voxcue/pkg/voxcue/emotion"
	"github.com/voxcue/voxcue/pkg/voxcue/voice"
)

// Pace mirrors VoiceSpec.pace but is also used standalone on SpeakingStyle.
type Pace string

const (
	PaceSlow   Pace = "slow"
	PaceNormal Pace = "normal"
	PaceFast   Pace = "fast"
)

// Trait is a named personality trait with an intensity in [0,1].
type Trait struct {
	Name      string  `yaml:"name"`
	Intensity float64 `yaml:"intensity"`
}

// SpeakingStyle captures the dimensions spec §3 lists for Personality.
type SpeakingStyle struct {
	Pace                 Pace    `yaml:"pace"`
	Formality            float64 `yaml:"formality"`
	Confidence           float64 `yaml:"confidence"`
	Enthusiasm           float64 `yaml:"enthusiasm"`
	InterruptionTendency float64 `yaml:"interruption_tendency"`
}

// EmotionalRange bounds how far a character's emotion can swing.
type EmotionalRange struct {
	Baseline         emotion.Profile `yaml:"baseline"`
	Volatility       float64         `yaml:"volatility"`
	MaxIntensity     float64         `yaml:"max_intensity"`
	DominantEmotions []emotion.Kind  `yaml:"dominant_emotions"`
}

// Personality is the full per-character personality record from spec §3.
type Personality struct {
	Traits         []Trait        `yaml:"traits"`
	SpeakingStyle  SpeakingStyle  `yaml:"speaking_style"`
	EmotionalRange EmotionalRange `yaml:"emotional_range"`
	Verbosity      float64        `yaml:"verbosity"`
}

// Character is one speaking role in a RenderPlan.
type Character struct {
	ID             string          `yaml:"id"`
	Name           string          `yaml:"name"`
	VoiceSpec      voice.Spec      `yaml:"voice_spec"`
	Personality    Personality     `yaml:"personality"`
	SpeechPatterns []string        `yaml:"speech_patterns"`
	DefaultEmotion emotion.Profile `yaml:"default_emotion"`
}

// CharacterRegistry indexes characters by id. It is built once per
// RenderPlan and, per spec §3's lifecycle note, is treated as immutable
// once synthesis for the plan has started.
type CharacterRegistry struct {
	byID map[string]*Character
	// order preserves registration order for deterministic iteration
	// (e.g. stats rendering), since Go map iteration order is randomized.
	order []string
}

func NewCharacterRegistry(characters []Character) *CharacterRegistry {
	r := &CharacterRegistry{byID: make(map[string]*Character, len(characters))}
	for i := range characters {
		c := &characters[i]
		r.byID[c.ID] = c
		r.order = append(r.order, c.ID)
	}
	return r
}

func (r *CharacterRegistry) Get(id string) (*Character, bool) {
	c, ok := r.byID[id]
	return c, ok
}

func (r *CharacterRegistry) IDsInOrder() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *CharacterRegistry) Len() int { return len(r.byID) }

// Overlap describes a line's scheduled simultaneous period with another
// line, per spec §3.
type Overlap struct {
	TargetLineID       string  `yaml:"target_line_id"`
	OffsetIntoTargetMs int64   `yaml:"offset_into_target_ms"`
	OverlapDurationMs  int64   `yaml:"overlap_duration_ms"`
	VolumeAttenuation  float64 `yaml:"volume_attenuation"` // in [0,1]
}

// LineTiming is the timing envelope for a single line, per spec §3.
// StartMs and EndMs are both optional: nil means the Conversation
// Scheduler derives them from the cursor walk in spec §4.6 step 2
// instead of an author-supplied value.
type LineTiming struct {
	StartMs         *int64   `yaml:"start_ms,omitempty"` // optional; nil means "derive from the cursor walk"
	EndMs           *int64   `yaml:"end_ms,omitempty"` // optional
	PauseBeforeMs   *int64   `yaml:"pause_before_ms,omitempty"` // optional; nil means "use the scheduler default"
	PauseAfterMs    int64    `yaml:"pause_after_ms"`
	SpeedMultiplier *float64 `yaml:"speed_multiplier,omitempty"` // optional, [0.5, 2.0]
	Overlap         *Overlap `yaml:"overlap,omitempty"` // optional
}

// AudioEffect is an opaque per-line effect hint the mixer or codec may
// apply; the effect chain itself is the mixer's fixed normalize →
// compress → crossfade sequence (spec §4.7), so this only carries
// parameters, never new effect kinds.
type AudioEffect struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params"`
}

// Line is one utterance in a RenderPlan, per spec §3.
type Line struct {
	ID           string                `yaml:"id"`
	CharacterID  string                `yaml:"character_id"`
	Text         string                `yaml:"text"`
	Emotion      *emotion.Profile      `yaml:"emotion,omitempty"`
	Transitions  []emotion.Transition  `yaml:"transitions,omitempty"`
	Timing       LineTiming            `yaml:"timing"`
	AudioEffects []AudioEffect         `yaml:"audio_effects,omitempty"`
}

// GlobalSettings are the plan-wide defaults from spec §3.
type GlobalSettings struct {
	PauseBetweenLinesMs int64   `yaml:"pause_between_lines_ms"`
	CrossfadeMs         int64   `yaml:"crossfade_ms"`
	MasterVolume        float64 `yaml:"master_volume"` // in [0,2]
	NaturalTiming       bool    `yaml:"natural_timing"`
}

// DefaultGlobalSettings matches the teacher's pattern of an explicit
// constructor for default configuration rather than relying on Go's zero
// value, since MasterVolume's natural zero value (0.0) would silence
// every track.
func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		PauseBetweenLinesMs: 500,
		CrossfadeMs:         0,
		MasterVolume:        1.0,
		NaturalTiming:       true,
	}
}

// RenderPlan is the fully specified input to the pipeline, per spec §3.
type RenderPlan struct {
	Characters []Character
	Lines      []Line
	Global     GlobalSettings
	Metadata   map[string]string
}

// EnsureIDs fills in any empty Line.ID / Character.ID fields with fresh
// UUIDs before validation, so callers building plans programmatically
// don't have to invent ids by hand.
func (p *RenderPlan) EnsureIDs() {
	for i := range p.Characters {
		if p.Characters[i].ID == "" {
			p.Characters[i].ID = uuid.NewString()
		}
	}
	for i := range p.Lines {
		if p.Lines[i].ID == "" {
			p.Lines[i].ID = uuid.NewString()
		}
	}
}

// Validate checks the invariants spec §3 and §4.6 step 1 require:
// character ids unique, every line references a known character, line ids
// unique, and overlap targets resolve within the same plan. It returns
// the first violation found, wrapped as errorsx.KindInvalidPlan by the
// caller (the scheduler), not here, so this package stays error-taxonomy
// agnostic and reusable outside the scheduler.
func (p *RenderPlan) Validate() error {
	seenChar := make(map[string]bool, len(p.Characters))
	for _, c := range p.Characters {
		if c.ID == "" {
			return fmt.Errorf("character has empty id: %q", c.Name)
		}
		if seenChar[c.ID] {
			return fmt.Errorf("duplicate character id: %s", c.ID)
		}
		seenChar[c.ID] = true
	}

	seenLine := make(map[string]bool, len(p.Lines))
	for _, l := range p.Lines {
		if l.ID == "" {
			return fmt.Errorf("line has empty id (character=%s)", l.CharacterID)
		}
		if seenLine[l.ID] {
			return fmt.Errorf("duplicate line id: %s", l.ID)
		}
		seenLine[l.ID] = true

		if !seenChar[l.CharacterID] {
			return fmt.Errorf("line %s references unknown character %s", l.ID, l.CharacterID)
		}
		if l.Timing.StartMs != nil && *l.Timing.StartMs < 0 {
			return fmt.Errorf("line %s has negative start_ms", l.ID)
		}
		if l.Timing.EndMs != nil && l.Timing.StartMs != nil && *l.Timing.EndMs < *l.Timing.StartMs {
			return fmt.Errorf("line %s has end_ms < start_ms", l.ID)
		}
		if l.Timing.SpeedMultiplier != nil {
			if *l.Timing.SpeedMultiplier < 0.5 || *l.Timing.SpeedMultiplier > 2.0 {
				return fmt.Errorf("line %s has speed_multiplier %.3f out of [0.5,2.0]", l.ID, *l.Timing.SpeedMultiplier)
			}
		}
	}

	for _, l := range p.Lines {
		if l.Timing.Overlap == nil {
			continue
		}
		if !seenLine[l.Timing.Overlap.TargetLineID] {
			return fmt.Errorf("line %s overlap targets unknown line %s", l.ID, l.Timing.Overlap.TargetLineID)
		}
		if l.Timing.Overlap.TargetLineID == l.ID {
			return fmt.Errorf("line %s overlap targets itself", l.ID)
		}
		if l.Timing.Overlap.VolumeAttenuation < 0 || l.Timing.Overlap.VolumeAttenuation > 1 {
			return fmt.Errorf("line %s overlap attenuation %.3f out of [0,1]", l.ID, l.Timing.Overlap.VolumeAttenuation)
		}
	}

	return nil
}
