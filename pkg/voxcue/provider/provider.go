// Package provider defines the capability-negotiated synthesis backend
// trait and the registry/selection policy the Voice Engine drives it
// through (spec §4.4). Providers are values implementing Provider, never
// a class hierarchy (spec §9: "Provider polymorphism via class
// hierarchy... Providers are values, not subclasses").
package provider

import (
	"context"

	"github.com/voxcue/voxcue/pkg/voxcue/emotion"
	"github.com/voxcue/voxcue/pkg/voxcue/pcm"
)

// VoiceDescriptor is one voice a provider can speak as, returned by
// ListVoices.
type VoiceDescriptor struct {
	ID       string
	Name     string
	Language string
}

// SynthesisRequest carries everything a backend needs for one segment,
// per spec §4.4.
type SynthesisRequest struct {
	Text        string
	SSML        string // empty when the provider doesn't support SSML
	VoiceID     string
	Emotion     *emotion.Profile // nil when the segment carries no emotion
	Rate        float64          // multiplier around 1.0
	Pitch       float64          // signed percentage offset
	Volume      float64          // multiplier around 1.0
	FormatHint  string
}

// Provider is the capability trait every synthesis backend implements
// (spec §4.4).
type Provider interface {
	Name() string
	Initialize(ctx context.Context) error
	ListVoices(ctx context.Context) ([]VoiceDescriptor, error)
	SupportsEmotions() bool
	SupportsVoiceCloning() bool
	Synthesize(ctx context.Context, req SynthesisRequest) (pcm.Buffer, error)
}

// CollapseEmotion folds req.Emotion into Rate and Pitch using the same
// table SSML emission uses, for providers that report
// SupportsEmotions() == false (spec §4.4: "If the provider does not
// support emotions, emotion is collapsed into rate/pitch/volume
// deterministically (same mapping as §4.3 applied numerically, not as
// SSML)"). It returns req unchanged if req.Emotion is nil or its kind is
// not in the table. Volume is set to 1.0 when zero but is not changed by
// the emotion, since the table has no volume column.
func CollapseEmotion(req SynthesisRequest) SynthesisRequest {
	if req.Emotion == nil {
		return req
	}
	off, ok := emotionOffsets[req.Emotion.Kind]
	if !ok {
		return req
	}
	i := req.Emotion.Intensity
	if req.Rate == 0 {
		req.Rate = 1.0
	}
	if req.Volume == 0 {
		req.Volume = 1.0
	}
	req.Rate += off.rateScale * i
	req.Pitch += off.pitchPct * i
	req.Emotion = nil
	return req
}

type emotionOffset struct {
	rateScale float64
	pitchPct  float64
}

// emotionOffsets mirrors ssml.emotionTable's rate/pitch columns; kept as
// a separate copy here (not imported from ssml) to avoid a
// provider<->ssml import cycle, since ssml also needs provider-free
// types. Values must stay identical to spec §4.3's published table.
var emotionOffsets = map[emotion.Kind]emotionOffset{
	emotion.Happy:     {0.2, 15},
	emotion.Excited:   {0.3, 20},
	emotion.Surprised: {0.25, 25},
	emotion.Sad:       {-0.3, -20},
	emotion.Fearful:   {0.15, 10},
	emotion.Angry:     {0.1, -5},
	emotion.Calm:      {-0.15, -5},
	emotion.Neutral:   {0, 0},
}
