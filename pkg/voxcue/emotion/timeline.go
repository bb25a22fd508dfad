package emotion

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Timeline is the ordered keyframe sequence spec §3 defines. The first
// keyframe is always at t=0 with the line's default emotion.
type Timeline struct {
	Keyframes []Keyframe
}

// Segment is a time-sliced piece of text with its effective emotion
// state, per spec §3's EmotionSegment.
type Segment struct {
	StartMs      int64
	EndMs        int64
	Text         string
	State        State
	IsTransition bool
	Progress     float64 // valid only when IsTransition
}

// charsPerSecond is the constant spec §9 mandates for trigger-time math
// (word/position triggers), distinct from the 180wpm duration estimate
// used elsewhere (spec §4.6).
const charsPerSecond = 15.0

// DefaultMinDurationMs, DefaultMaxDurationMs, DefaultIntensityDelta are
// the validation thresholds spec §4.5 names as defaults.
const (
	DefaultMinDurationMs  = 500
	DefaultMaxDurationMs  = 3000
	DefaultIntensityDelta = 0.1
)

var wordSplitRe = regexp.MustCompile(`\S+`)

// RejectedTransition records a transition Validate() dropped, and why —
// surfaced to the caller (the engine) for slog.Warn + metrics, per spec
// §4.5 "rejected transitions are dropped silently with a warning" (silent
// to the timeline's output, not to observability).
type RejectedTransition struct {
	Transition Transition
	Reason     string
}

// BuildResult is the (Timeline, []Segment, total_duration_ms,
// transition_count) tuple spec §4.5 names as the engine's output.
type BuildResult struct {
	Timeline         Timeline
	Segments         []Segment
	TotalDurationMs  int64
	TransitionCount  int
	Rejected         []RejectedTransition
}

// BuildTimeline compiles text and an ordered list of transitions into a
// Timeline and a sequence of Segments, per spec §4.5 steps 1-4. natural
// selects NaturalShape intensity curves over the generic Ease tables when
// true (spec §4.2 "natural per-emotion shapes... selected by name when
// the caller requests natural shaping").
func BuildTimeline(text string, defaultEmotion Profile, transitions []Transition, natural bool) BuildResult {
	result := BuildResult{}

	timeline := Timeline{Keyframes: []Keyframe{{TimeMs: 0, Emotion: defaultEmotion}}}

	for _, t := range transitions {
		if err := t.Validate(DefaultMinDurationMs, DefaultMaxDurationMs, DefaultIntensityDelta); err != nil {
			result.Rejected = append(result.Rejected, RejectedTransition{Transition: t, Reason: err.Error()})
			continue
		}

		triggerMs, ok := resolveTrigger(text, t.Trigger)
		if !ok {
			result.Rejected = append(result.Rejected, RejectedTransition{Transition: t, Reason: "trigger did not resolve"})
			continue
		}

		timeline.Keyframes = append(timeline.Keyframes,
			Keyframe{TimeMs: triggerMs, Emotion: t.From, Transition: &t},
			Keyframe{TimeMs: triggerMs + t.DurationMs, Emotion: t.To},
		)
		result.TransitionCount++
	}

	sortKeyframesStable(timeline.Keyframes)
	result.Timeline = timeline

	tokens := wordSplitRe.FindAllStringIndex(text, -1)
	result.Segments = make([]Segment, 0, len(tokens))
	for _, span := range tokens {
		tokenText := text[span[0]:span[1]]
		tokenTimeMs := int64(float64(span[0]) / charsPerSecond * 1000)
		result.Segments = append(result.Segments, segmentFor(tokenText, tokenTimeMs, timeline, natural))
	}

	result.TotalDurationMs = int64(float64(len(tokens)) / 180.0 * 60000.0)

	for i := range result.Segments {
		if i+1 < len(result.Segments) {
			result.Segments[i].EndMs = result.Segments[i+1].StartMs
		} else {
			result.Segments[i].EndMs = result.TotalDurationMs
		}
	}

	return result
}

// resolveTrigger computes the absolute trigger time in ms for t.Trigger,
// using the 15 chars/sec conversion for word/position/marker triggers.
// Only the field named by trig.Which is consulted; the other fields are
// ignored, so no precedence among several populated fields is applied.
func resolveTrigger(text string, trig Trigger) (int64, bool) {
	switch trig.Which {
	case TriggerTimeMs:
		return trig.TimeMs, true
	case TriggerWord:
		idx := findWholeWord(text, trig.Word)
		if idx < 0 {
			return 0, false
		}
		return int64(float64(idx) / charsPerSecond * 1000), true
	case TriggerPosition:
		if trig.Position < 0 || trig.Position > len(text) {
			return 0, false
		}
		return int64(float64(trig.Position) / charsPerSecond * 1000), true
	case TriggerMarker:
		marker := "[" + trig.Marker + "]"
		idx := strings.Index(text, marker)
		if idx < 0 {
			return 0, false
		}
		return int64(float64(idx) / charsPerSecond * 1000), true
	default:
		return 0, false
	}
}

// findWholeWord returns the byte index of the first case-insensitive
// whole-word occurrence of word in text, or -1.
func findWholeWord(text, word string) int {
	if word == "" {
		return -1
	}
	lowerText := strings.ToLower(text)
	lowerWord := strings.ToLower(word)
	start := 0
	for {
		idx := strings.Index(lowerText[start:], lowerWord)
		if idx < 0 {
			return -1
		}
		abs := start + idx
		before := abs == 0 || !isWordByte(lowerText[abs-1])
		afterIdx := abs + len(lowerWord)
		after := afterIdx >= len(lowerText) || !isWordByte(lowerText[afterIdx])
		if before && after {
			return abs
		}
		start = abs + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// sortKeyframesStable sorts by time, ties broken by insertion order (spec
// §3: "Keyframes are sorted by time; ties broken by insertion order").
func sortKeyframesStable(kf []Keyframe) {
	sort.SliceStable(kf, func(i, j int) bool { return kf[i].TimeMs < kf[j].TimeMs })
}

// segmentFor finds the keyframe interval in force at tokenTimeMs and
// builds the resulting Segment, per spec §4.5 step 3.
func segmentFor(tokenText string, tokenTimeMs int64, tl Timeline, natural bool) Segment {
	seg := Segment{StartMs: tokenTimeMs, EndMs: tokenTimeMs, Text: tokenText}

	// left is the last keyframe with TimeMs <= tokenTimeMs.
	leftIdx := 0
	for i, kf := range tl.Keyframes {
		if kf.TimeMs <= tokenTimeMs {
			leftIdx = i
		} else {
			break
		}
	}
	left := tl.Keyframes[leftIdx]

	if left.Transition != nil && tokenTimeMs >= left.TimeMs && tokenTimeMs <= left.TimeMs+left.Transition.DurationMs {
		progress := 0.0
		if left.Transition.DurationMs > 0 {
			progress = float64(tokenTimeMs-left.TimeMs) / float64(left.Transition.DurationMs)
		}
		eased := easeFor(*left.Transition, progress, natural)

		kind := left.Transition.From.Kind
		if progress >= 0.5 {
			kind = left.Transition.To.Kind
		}
		intensity := Lerp(left.Transition.From.Intensity, left.Transition.To.Intensity, eased)

		seg.IsTransition = true
		seg.Progress = clamp01(progress)
		seg.State = State{Kind: kind, Intensity: clamp01(intensity)}
		return seg
	}

	seg.State = State{Kind: left.Emotion.Kind, Intensity: clamp01(left.Emotion.Intensity)}
	return seg
}

func easeFor(t Transition, progress float64, natural bool) float64 {
	if natural {
		return NaturalShape(t.To.Kind, progress)
	}
	if t.Curve == CurveBezier {
		return EvalBezier(t.ControlPoints[0], t.ControlPoints[1], progress)
	}
	return Ease(t.Curve, progress)
}

// String renders a TriggerKind-qualified value for logging/diagnostics.
func (t Trigger) String() string {
	switch t.Which {
	case TriggerWord:
		return "word:" + t.Word
	case TriggerTimeMs:
		return "time_ms:" + strconv.FormatInt(t.TimeMs, 10)
	case TriggerPosition:
		return "position:" + strconv.Itoa(t.Position)
	case TriggerMarker:
		return "marker:[" + t.Marker + "]"
	default:
		return "unset"
	}
}
