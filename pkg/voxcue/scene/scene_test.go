package scene

import "testing"

func TestRecommendDefaults(t *testing.T) {
	h := Recommend(Context{})
	if h.EQPreset != EQFlat {
		t.Errorf("Recommend(empty).EQPreset = %s, want flat", h.EQPreset)
	}
	if h.ReverbWetness != 0.15 {
		t.Errorf("Recommend(empty).ReverbWetness = %v, want 0.15", h.ReverbWetness)
	}
}

func TestRecommendLocationReverb(t *testing.T) {
	h := Recommend(Context{Location: "a dark cave"})
	if h.ReverbWetness != 0.8 {
		t.Errorf("Recommend(cave).ReverbWetness = %v, want 0.8", h.ReverbWetness)
	}
}

func TestRecommendAmbientNoiseEQ(t *testing.T) {
	loud := Recommend(Context{AmbientNoiseLevel: 0.9})
	if loud.EQPreset != EQBright {
		t.Errorf("Recommend(loud).EQPreset = %s, want bright", loud.EQPreset)
	}
	if loud.ProsodyBias.VolumeDelta <= 0 {
		t.Errorf("Recommend(loud).ProsodyBias.VolumeDelta = %v, want positive", loud.ProsodyBias.VolumeDelta)
	}

	quiet := Recommend(Context{AmbientNoiseLevel: 0.05})
	if quiet.EQPreset != EQWarm {
		t.Errorf("Recommend(quiet).EQPreset = %s, want warm", quiet.EQPreset)
	}
}

func TestRecommendTimeOfDayBias(t *testing.T) {
	night := Recommend(Context{TimeOfDay: Night})
	if night.ProsodyBias.RateDelta >= 0 {
		t.Errorf("Recommend(night).ProsodyBias.RateDelta = %v, want negative", night.ProsodyBias.RateDelta)
	}
	morning := Recommend(Context{TimeOfDay: Morning})
	if morning.ProsodyBias.RateDelta <= 0 {
		t.Errorf("Recommend(morning).ProsodyBias.RateDelta = %v, want positive", morning.ProsodyBias.RateDelta)
	}
}

func TestRecommendMoodTags(t *testing.T) {
	tense := Recommend(Context{MoodTags: []string{"tense"}})
	if tense.EQPreset != EQMuffled {
		t.Errorf("Recommend(tense).EQPreset = %s, want muffled", tense.EQPreset)
	}
	if tense.ProsodyBias.RateDelta >= 0 {
		t.Errorf("Recommend(tense).ProsodyBias.RateDelta = %v, want negative", tense.ProsodyBias.RateDelta)
	}

	joyful := Recommend(Context{MoodTags: []string{"joyful"}})
	if joyful.ProsodyBias.RateDelta <= 0 || joyful.ProsodyBias.PitchPctDelta <= 0 {
		t.Errorf("Recommend(joyful).ProsodyBias = %+v, want positive rate and pitch deltas", joyful.ProsodyBias)
	}
}
