// Package engine implements the Voice Engine orchestrator (spec §4.8): a
// thin coordinator, not an algorithm in its own right. For a single
// request it resolves the voice, compiles the emotion timeline, builds
// one SynthesisRequest per segment, dispatches through the provider
// registry, and concatenates the results.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/voxcue/voxcue/pkg/voxcue/codec"
	"github.com/voxcue/voxcue/pkg/voxcue/emotion"
	"github.com/voxcue/voxcue/pkg/voxcue/errorsx"
	"github.com/voxcue/voxcue/pkg/voxcue/observability"
	"github.com/voxcue/voxcue/pkg/voxcue/pcm"
	"github.com/voxcue/voxcue/pkg/voxcue/plan"
	"github.com/voxcue/voxcue/pkg/voxcue/provider"
	"github.com/voxcue/voxcue/pkg/voxcue/scene"
	"github.com/voxcue/voxcue/pkg/voxcue/ssml"
	"github.com/voxcue/voxcue/pkg/voxcue/voice"
)

// Request is a single synthesis request the Voice Engine orchestrates.
// Exactly one of Prompt / VoiceSpec should be set; if both are empty the
// Prompt Interpreter's zero-information default is used (spec §4.1).
type Request struct {
	Text            string
	Prompt          string
	VoiceID         string // the speaking character's voice id, passed through to the provider (spec §4.4)
	VoiceSpec       *voice.Spec
	SpeakingStyle   plan.SpeakingStyle
	DefaultEmotion  emotion.Profile
	Transitions     []emotion.Transition
	SpeedMultiplier float64
	ProviderID      string // pre-resolved backend provider id, spec §4.4 step 1; distinct from VoiceID
	Natural         bool   // use NaturalShape curves instead of generic easing
	Scene           *scene.Context
	SSML            ssml.Options
}

// Result is what the Voice Engine returns for one Request: the
// concatenated PCM plus enough bookkeeping for the Conversation
// Scheduler's statistics (spec §4.6 step 7).
type Result struct {
	Buffer                pcm.Buffer
	Segments              int
	TransitionCount       int
	FailedSegments        int
	FailureKinds          []provider.SynthesisFailureKind
	// EmotionChangeOffsetsMs are line-relative millisecond offsets at which
	// the effective emotion.Kind changes, for the scheduler's emotion_change
	// event log entries (spec §5).
	EmotionChangeOffsetsMs []int64
	// EmotionDurationMsByKind sums segment duration by effective kind. The
	// scheduler's EmotionDistribution statistic counts lines per kind
	// instead and does not read this field.
	EmotionDurationMsByKind map[emotion.Kind]int64
}

// Engine binds a provider Registry and an observability.Metrics sink;
// it owns neither the CharacterRegistry nor the Conversation Scheduler
// (spec §9: "break the cycle... neither owns the other" — the
// scheduler takes the engine by borrow for the duration of a render
// call).
type Engine struct {
	Registry *provider.Registry
	Metrics  *observability.Metrics
}

func New(registry *provider.Registry, metrics *observability.Metrics) *Engine {
	return &Engine{Registry: registry, Metrics: metrics}
}

// Synthesize runs one Request end to end: resolve voice, build the
// emotion timeline, dispatch each segment, concatenate (spec §4.8).
func (e *Engine) Synthesize(ctx context.Context, req Request) (Result, error) {
	spec := resolveVoiceSpec(req)

	build := emotion.BuildTimeline(req.Text, req.DefaultEmotion, req.Transitions, req.Natural)
	for _, rej := range build.Rejected {
		slog.WarnContext(ctx, "transition rejected", "reason", rej.Reason, "trigger", rej.Transition.Trigger.String())
		if e.Metrics != nil {
			e.Metrics.RecordTransitionRejected(ctx, rej.Reason)
		}
	}

	speedMultiplier := req.SpeedMultiplier
	if speedMultiplier <= 0 {
		speedMultiplier = 1.0
	}

	selection := provider.SelectionRequest{
		PreResolvedProviderID: req.ProviderID,
		NeedsEmotionControl:   len(req.Transitions) > 0 || req.DefaultEmotion.Kind != emotion.Neutral,
	}
	chosen, err := e.Registry.Select(selection)
	if err != nil {
		return Result{}, err
	}

	buffers := make([]pcm.Buffer, 0, len(build.Segments))
	result := Result{Segments: len(build.Segments), TransitionCount: build.TransitionCount}

	result.EmotionDurationMsByKind = make(map[emotion.Kind]int64)
	var lastKind emotion.Kind
	for i, seg := range build.Segments {
		result.EmotionDurationMsByKind[seg.State.Kind] += seg.EndMs - seg.StartMs
		if i == 0 {
			lastKind = seg.State.Kind
		} else if seg.State.Kind != lastKind {
			result.EmotionChangeOffsetsMs = append(result.EmotionChangeOffsetsMs, seg.StartMs)
			lastKind = seg.State.Kind
		}
	}

	for i, seg := range build.Segments {
		buf, failKind, failErr := e.synthesizeSegment(ctx, chosen, spec, req, seg, speedMultiplier)
		if failErr != nil {
			slog.WarnContext(ctx, "segment synthesis failed, substituting silence",
				"provider", chosen.Name(), "segment_index", i, "kind", failKind, "error", failErr)
			result.FailedSegments++
			result.FailureKinds = append(result.FailureKinds, failKind)
			if e.Metrics != nil {
				e.Metrics.RecordSegment(ctx, chosen.Name(), string(failKind))
			}
			estimatedMs := seg.EndMs - seg.StartMs
			if estimatedMs <= 0 {
				estimatedMs = 200
			}
			buf = pcm.NewSilence(estimatedMs, pcm.DefaultSampleRate, pcm.DefaultChannels)
		} else if e.Metrics != nil {
			e.Metrics.RecordSegment(ctx, chosen.Name(), "")
		}
		buffers = append(buffers, codec.Canonicalize(buf))
	}

	result.Buffer = pcm.Concat(buffers...)
	return result, nil
}

func (e *Engine) synthesizeSegment(
	ctx context.Context, p provider.Provider, spec voice.Spec, req Request, seg emotion.Segment, speedMultiplier float64,
) (pcm.Buffer, provider.SynthesisFailureKind, error) {
	rate, pitch, volume := ratePitchVolume(spec, req.SpeakingStyle, seg.State, speedMultiplier, req.Scene)

	synthReq := provider.SynthesisRequest{
		Text:    seg.Text,
		VoiceID: req.VoiceID,
		Emotion: &emotion.Profile{Kind: seg.State.Kind, Intensity: seg.State.Intensity},
		Rate:    rate,
		Pitch:   pitch,
		Volume:  volume,
	}
	if p.SupportsEmotions() {
		synthReq.SSML = ssml.Emit(seg.Text, spec, req.SpeakingStyle, seg.State, req.SSML)
	} else {
		synthReq = provider.CollapseEmotion(synthReq)
	}

	buf, err := p.Synthesize(ctx, synthReq)
	if err == nil {
		return buf, "", nil
	}

	kind := provider.FailureBackend
	if k, ok := errorsx.As(err); ok {
		switch k {
		case errorsx.KindSynthesisTimeout:
			kind = provider.FailureTimeout
		case errorsx.KindSynthesisNetwork:
			kind = provider.FailureNetwork
		case errorsx.KindInvalidResponse:
			kind = provider.FailureInvalidResponse
		}
	}
	return pcm.Buffer{}, kind, fmt.Errorf("engine: synthesize segment: %w", err)
}

// ratePitchVolume folds pace/speaking-style/scene bias into numeric
// multipliers, mirroring the SSML emitter's own prosody derivation (spec
// §4.3) so the emotion-naive collapse path (spec §4.4) and the SSML path
// stay consistent.
func ratePitchVolume(spec voice.Spec, style plan.SpeakingStyle, state emotion.State, speedMultiplier float64, sc *scene.Context) (rate, pitch, volume float64) {
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
	rate *= speedMultiplier
	volume = 0.7 + 0.3*style.Confidence
	pitch = (style.Enthusiasm - 0.5) * 10

	if sc != nil {
		hints := sceneHints(*sc)
		rate += hints.ProsodyBias.RateDelta
		pitch += hints.ProsodyBias.PitchPctDelta
		volume += hints.ProsodyBias.VolumeDelta
	}
	return rate, pitch, volume
}

func sceneHints(ctx scene.Context) scene.Hints {
	return scene.Recommend(ctx)
}

// resolveVoiceSpec implements spec §4.8 "resolve voice (via Prompt
// Interpreter if only a prompt is given)".
func resolveVoiceSpec(req Request) voice.Spec {
	if req.VoiceSpec != nil {
		return *req.VoiceSpec
	}
	if req.Prompt != "" {
		return voice.Parse(req.Prompt)
	}
	return voice.Default()
}

// SupportsEmotions and SupportsVoiceCloning implement spec §4.8's
// "capability query" by asking whether ANY registered provider supports
// the capability, since the engine itself has no capability of its own.
func (e *Engine) SupportsEmotions() bool {
	return e.anyProvider(func(p provider.Provider) bool { return p.SupportsEmotions() })
}

func (e *Engine) SupportsVoiceCloning() bool {
	return e.anyProvider(func(p provider.Provider) bool { return p.SupportsVoiceCloning() })
}

func (e *Engine) anyProvider(pred func(provider.Provider) bool) bool {
	for _, name := range e.Registry.Names() {
		if p, ok := e.Registry.Get(name); ok && pred(p) {
			return true
		}
	}
	return false
}
