// Package emotion implements the canonical emotion model: profiles,
// time-bounded transitions between them, the easing curves that shape a
// transition, and the timeline engine that compiles a line's transitions
// into per-segment emotion states (spec §3, §4.2, §4.5).
package emotion

import "fmt"

// Kind is the closed emotion vocabulary from spec §3.
type Kind string

const (
	Happy     Kind = "happy"
	Sad       Kind = "sad"
	Angry     Kind = "angry"
	Excited   Kind = "excited"
	Calm      Kind = "calm"
	Fearful   Kind = "fearful"
	Surprised Kind = "surprised"
	Neutral   Kind = "neutral"
)

// ValidKinds enumerates the closed vocabulary for validation/lookup
// elsewhere (e.g. the subtitle parser's bracketed-annotation check).
var ValidKinds = map[Kind]bool{
	Happy: true, Sad: true, Angry: true, Excited: true,
	Calm: true, Fearful: true, Surprised: true, Neutral: true,
}

// Variation is a named sub-shade of a Profile with its own intensity,
// e.g. Happy with a "wistful" variation at a lower intensity.
type Variation struct {
	Name      string  `yaml:"name"`
	Intensity float64 `yaml:"intensity"`
}

// Profile is the atomic emotion value: a kind, an intensity in [0,1], and
// optional named variations (spec §3).
type Profile struct {
	Kind       Kind        `yaml:"kind"`
	Intensity  float64     `yaml:"intensity"`
	Variations []Variation `yaml:"variations,omitempty"`
}

// Clamped returns a copy of p with Intensity clamped into [0,1].
func (p Profile) Clamped() Profile {
	out := p
	if out.Intensity < 0 {
		out.Intensity = 0
	}
	if out.Intensity > 1 {
		out.Intensity = 1
	}
	return out
}

// Curve is the easing shape applied across a transition's duration.
type Curve string

const (
	CurveLinear     Curve = "linear"
	CurveEaseIn     Curve = "ease_in"
	CurveEaseOut    Curve = "ease_out"
	CurveEaseInOut  Curve = "ease_in_out"
	CurveBezier     Curve = "bezier"
)

// Point is an (x, y) control point in [0,1]x[0,1], used only by CurveBezier.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// TriggerKind selects which of the four trigger fields on Trigger is
// populated. Exactly one must be set, per spec §3.
type TriggerKind string

const (
	TriggerWord     TriggerKind = "word"
	TriggerTimeMs   TriggerKind = "time_ms"
	TriggerPosition TriggerKind = "position"
	TriggerMarker   TriggerKind = "marker"
)

// Trigger positions a Transition on the line's time axis. Exactly one of
// Word, TimeMs, Position, Marker is meaningful; Which reports which.
type Trigger struct {
	Which    TriggerKind `yaml:"which"`
	Word     string      `yaml:"word,omitempty"`     // case-insensitive, whole-word match
	TimeMs   int64       `yaml:"time_ms,omitempty"`  // absolute time in ms
	Position int         `yaml:"position,omitempty"` // character position into the line's text
	Marker   string      `yaml:"marker,omitempty"`   // bracketed marker name, without the brackets: "[NAME]" -> "NAME"
}

// Transition is a time-bounded morph between two Profiles, gated by a
// Trigger and shaped by a Curve (spec §3).
type Transition struct {
	From          Profile   `yaml:"from"`
	To            Profile   `yaml:"to"`
	DurationMs    int64     `yaml:"duration_ms"`
	Curve         Curve     `yaml:"curve"`
	ControlPoints [2]Point  `yaml:"control_points,omitempty"` // only valid/required when Curve == CurveBezier
	Trigger       Trigger   `yaml:"trigger"`
}

// Validate enforces the invariants spec §3 and §4.5 attach to a
// Transition: duration bounds and a minimum intensity delta. minDurationMs
// /maxDurationMs/minIntensityDelta are the configurable thresholds (spec
// §4.5 defaults: 500, 3000, 0.1).
func (t Transition) Validate(minDurationMs, maxDurationMs int64, minIntensityDelta float64) error {
	if t.DurationMs < minDurationMs || t.DurationMs > maxDurationMs {
		return fmt.Errorf("duration_ms %d outside [%d,%d]", t.DurationMs, minDurationMs, maxDurationMs)
	}
	delta := t.To.Intensity - t.From.Intensity
	if delta < 0 {
		delta = -delta
	}
	if delta < minIntensityDelta {
		return fmt.Errorf("intensity delta %.4f below threshold %.4f", delta, minIntensityDelta)
	}
	if t.Curve == CurveBezier {
		for _, cp := range t.ControlPoints {
			if cp.X < 0 || cp.X > 1 || cp.Y < 0 || cp.Y > 1 {
				return fmt.Errorf("bezier control point (%.3f,%.3f) out of [0,1]", cp.X, cp.Y)
			}
		}
	}
	return nil
}

// Keyframe is a time-stamped Profile in a Timeline, optionally carrying
// the Transition it is the starting edge of (spec §3).
type Keyframe struct {
	TimeMs     int64
	Emotion    Profile
	Transition *Transition // non-nil if this keyframe begins a transition window
}

// State is the effective emotion in force at a point/interval in the
// line, separate from Profile so intensity interpolation during a
// transition doesn't need to mutate the original keyframes.
type State struct {
	Kind      Kind
	Intensity float64
}
