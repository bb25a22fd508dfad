package emotion

import "testing"

func TestProfileClamped(t *testing.T) {
	cases := []struct {
		in   Profile
		want float64
	}{
		{Profile{Kind: Happy, Intensity: 1.5}, 1.0},
		{Profile{Kind: Happy, Intensity: -0.5}, 0.0},
		{Profile{Kind: Happy, Intensity: 0.4}, 0.4},
	}
	for _, c := range cases {
		if got := c.in.Clamped().Intensity; got != c.want {
			t.Errorf("Clamped(%v).Intensity = %v, want %v", c.in.Intensity, got, c.want)
		}
	}
}

func TestTransitionValidateDurationBounds(t *testing.T) {
	base := Transition{
		From: Profile{Kind: Happy, Intensity: 0.2},
		To:   Profile{Kind: Excited, Intensity: 0.8},
		Curve: CurveLinear,
	}

	tooShort := base
	tooShort.DurationMs = 100
	if err := tooShort.Validate(500, 3000, 0.1); err == nil {
		t.Errorf("Validate() with duration below minimum: want error, got nil")
	}

	tooLong := base
	tooLong.DurationMs = 5000
	if err := tooLong.Validate(500, 3000, 0.1); err == nil {
		t.Errorf("Validate() with duration above maximum: want error, got nil")
	}

	ok := base
	ok.DurationMs = 900
	if err := ok.Validate(500, 3000, 0.1); err != nil {
		t.Errorf("Validate() with duration in bounds: %v", err)
	}
}

func TestTransitionValidateIntensityDelta(t *testing.T) {
	t1 := Transition{
		From:       Profile{Kind: Happy, Intensity: 0.5},
		To:         Profile{Kind: Happy, Intensity: 0.55},
		DurationMs: 900,
		Curve:      CurveLinear,
	}
	if err := t1.Validate(500, 3000, 0.1); err == nil {
		t.Errorf("Validate() with intensity delta below threshold: want error, got nil")
	}
}

func TestTransitionValidateBezierControlPoints(t *testing.T) {
	tr := Transition{
		From:       Profile{Kind: Happy, Intensity: 0.2},
		To:         Profile{Kind: Excited, Intensity: 0.8},
		DurationMs: 900,
		Curve:      CurveBezier,
		ControlPoints: [2]Point{{X: 1.5, Y: 0.5}, {X: 0.5, Y: 0.5}},
	}
	if err := tr.Validate(500, 3000, 0.1); err == nil {
		t.Errorf("Validate() with out-of-range bezier control point: want error, got nil")
	}
}

func TestTriggerString(t *testing.T) {
	cases := []struct {
		in   Trigger
		want string
	}{
		{Trigger{Which: TriggerWord, Word: "hello"}, "word:hello"},
		{Trigger{Which: TriggerTimeMs, TimeMs: 500}, "time_ms:500"},
		{Trigger{Which: TriggerPosition, Position: 12}, "position:12"},
		{Trigger{Which: TriggerMarker, Marker: "EXCITED"}, "marker:[EXCITED]"},
		{Trigger{}, "unset"},
	}
	for _, c := range cases {
		if got := c.in.String(); got != c.want {
			t.Errorf("Trigger.String() = %q, want %q", got, c.want)
		}
	}
}
