// Package voice holds the derived VoiceSpec data model and the Prompt
// Interpreter that maps a natural-language voice description onto it
// (spec §3, §4.1).
package voice

import "github.com/voxcue/voxcue/pkg/voxcue/emotion"

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderNeutral Gender = "neutral"
)

type Age string

const (
	AgeChild  Age = "child"
	AgeYoung  Age = "young"
	AgeAdult  Age = "adult"
	AgeSenior Age = "senior"
)

type Timbre string

const (
	TimbreDeep   Timbre = "deep"
	TimbreMedium Timbre = "medium"
	TimbreHigh   Timbre = "high"
)

type Pace string

const (
	PaceSlow   Pace = "slow"
	PaceNormal Pace = "normal"
	PaceFast   Pace = "fast"
)

// PersonalityTag is one member of the closed personality vocabulary spec
// §3 lists.
type PersonalityTag string

const (
	Cheerful     PersonalityTag = "cheerful"
	Calm         PersonalityTag = "calm"
	Energetic    PersonalityTag = "energetic"
	Wise         PersonalityTag = "wise"
	Friendly     PersonalityTag = "friendly"
	Professional PersonalityTag = "professional"
	Dramatic     PersonalityTag = "dramatic"
	Mysterious   PersonalityTag = "mysterious"
	Confident    PersonalityTag = "confident"
	Gentle       PersonalityTag = "gentle"
)

// Spec is the derived voice description spec §3 defines: every field is
// populated, never left as a caller-visible "unset" sentinel.
type Spec struct {
	Gender         Gender           `yaml:"gender"`
	Age            Age              `yaml:"age"`
	Accent         string           `yaml:"accent"`
	Timbre         Timbre           `yaml:"timbre"`
	Pace           Pace             `yaml:"pace"`
	Personality    []PersonalityTag `yaml:"personality,omitempty"`
	DefaultEmotion emotion.Profile  `yaml:"default_emotion"`
}

// Default is the zero-information VoiceSpec the Prompt Interpreter falls
// back to when nothing in a prompt matches, per spec §4.1.
func Default() Spec {
	return Spec{
		Gender:         GenderNeutral,
		Age:            AgeAdult,
		Accent:         "neutral",
		Timbre:         TimbreMedium,
		Pace:           PaceNormal,
		Personality:    nil,
		DefaultEmotion: emotion.Profile{Kind: emotion.Neutral, Intensity: 0.5},
	}
}

// HasPersonality reports whether tag is present among spec's personality
// tags.
func (s Spec) HasPersonality(tag PersonalityTag) bool {
	for _, t := range s.Personality {
		if t == tag {
			return true
		}
	}
	return false
}
