package emotion

import "testing"

func TestEaseLinear(t *testing.T) {
	for _, p := range []float64{0, 0.25, 0.5, 1} {
		if got := Ease(CurveLinear, p); got != p {
			t.Errorf("Ease(linear, %v) = %v, want %v", p, got, p)
		}
	}
}

func TestEaseClampsOutOfRange(t *testing.T) {
	if got := Ease(CurveLinear, -1); got != 0 {
		t.Errorf("Ease(linear, -1) = %v, want 0", got)
	}
	if got := Ease(CurveLinear, 2); got != 1 {
		t.Errorf("Ease(linear, 2) = %v, want 1", got)
	}
}

func TestEaseEndpoints(t *testing.T) {
	for _, curve := range []Curve{CurveEaseIn, CurveEaseOut, CurveEaseInOut} {
		if got := Ease(curve, 0); got != 0 {
			t.Errorf("Ease(%s, 0) = %v, want 0", curve, got)
		}
		if got := Ease(curve, 1); got != 1 {
			t.Errorf("Ease(%s, 1) = %v, want 1", curve, got)
		}
	}
}

func TestEvalBezierEndpoints(t *testing.T) {
	cp1 := Point{X: 0.25, Y: 0.1}
	cp2 := Point{X: 0.75, Y: 0.9}
	if got := EvalBezier(cp1, cp2, 0); got != 0 {
		t.Errorf("EvalBezier(t=0) = %v, want 0", got)
	}
	if got := EvalBezier(cp1, cp2, 1); got != 1 {
		t.Errorf("EvalBezier(t=1) = %v, want 1", got)
	}
}

func TestEvalBezierAtIdentityControlPointsIsLinear(t *testing.T) {
	cp1 := Point{X: 0, Y: 0}
	cp2 := Point{X: 1, Y: 1}
	for _, p := range []float64{0, 0.25, 0.5, 0.75, 1} {
		got := EvalBezier(cp1, cp2, p)
		if diff := got - p; diff > 1e-3 || diff < -1e-3 {
			t.Errorf("EvalBezier(identity, %v) = %v, want linear (within 1e-3) of %v", p, got, p)
		}
	}
}

func TestNaturalShapeEndpoints(t *testing.T) {
	for _, kind := range []Kind{Surprised, Fearful, Happy, Neutral} {
		if got := NaturalShape(kind, 0); got < -0.01 || got > 0.2 {
			t.Errorf("NaturalShape(%s, 0) = %v, want near 0", kind, got)
		}
		got := NaturalShape(kind, 1)
		if kind == Surprised {
			// Surprised decays after its early spike: 1 - 0.4*easeIn(1) = 0.6.
			if got < 0.59 || got > 0.61 {
				t.Errorf("NaturalShape(%s, 1) = %v, want the decayed value 0.6", kind, got)
			}
			continue
		}
		if got < 0.9 || got > 1.2 {
			t.Errorf("NaturalShape(%s, 1) = %v, want near 1", kind, got)
		}
	}
}

func TestNaturalShapeSurprisedSpikesEarly(t *testing.T) {
	early := NaturalShape(Surprised, 0.15)
	late := NaturalShape(Surprised, 0.9)
	if early <= 0.5 {
		t.Errorf("NaturalShape(surprised, 0.15) = %v, want a fast early rise above 0.5", early)
	}
	if late >= early {
		t.Errorf("NaturalShape(surprised, 0.9) = %v, want it to have decayed below the early spike %v", late, early)
	}
}

func TestLerp(t *testing.T) {
	if got := Lerp(0.2, 0.8, 0.5); got != 0.5 {
		t.Errorf("Lerp(0.2, 0.8, 0.5) = %v, want 0.5", got)
	}
	if got := Lerp(0.2, 0.8, 0); got != 0.2 {
		t.Errorf("Lerp(0.2, 0.8, 0) = %v, want 0.2", got)
	}
	if got := Lerp(0.2, 0.8, 1); got != 0.8 {
		t.Errorf("Lerp(0.2, 0.8, 1) = %v, want 0.8", got)
	}
}
