package scheduler

import (
	"context"
	"testing"

	"github.com/voxcue/voxcue/pkg/voxcue/audio"
	"github.com/voxcue/voxcue/pkg/voxcue/emotion"
	"github.com/voxcue/voxcue/pkg/voxcue/engine"
	"github.com/voxcue/voxcue/pkg/voxcue/plan"
	"github.com/voxcue/voxcue/pkg/voxcue/provider"
	"github.com/voxcue/voxcue/pkg/voxcue/provider/providertest"
	"github.com/voxcue/voxcue/pkg/voxcue/voice"
)

func newScheduler(t *testing.T, adapters ...*providertest.Adapter) *Scheduler {
	t.Helper()
	reg := provider.NewRegistry()
	for _, a := range adapters {
		if err := reg.Register(context.Background(), a); err != nil {
			t.Fatalf("Register(%s) error: %v", a.Name(), err)
		}
	}
	return New(engine.New(reg, nil))
}

func msPtr(v int64) *int64 { return &v }

func basicPlan() *plan.RenderPlan {
	return &plan.RenderPlan{
		Characters: []plan.Character{
			{ID: "zundamon", Name: "Zundamon", VoiceSpec: voice.Default(), DefaultEmotion: emotion.Profile{Kind: emotion.Happy, Intensity: 0.3}},
			{ID: "metan", Name: "Metan", VoiceSpec: voice.Default(), DefaultEmotion: emotion.Profile{Kind: emotion.Calm, Intensity: 0.2}},
		},
		Lines: []plan.Line{
			{ID: "line-1", CharacterID: "zundamon", Text: "hello there friend", Timing: plan.LineTiming{StartMs: msPtr(0)}},
			{ID: "line-2", CharacterID: "metan", Text: "welcome aboard", Timing: plan.LineTiming{StartMs: msPtr(3000)}},
		},
		Global: plan.DefaultGlobalSettings(),
	}
}

func TestScheduleBuildsTracksAndTimeline(t *testing.T) {
	backend := providertest.New(providertest.Config{Name: "backend-a", SupportsEmotions: true})
	sched := newScheduler(t, backend)

	result, err := sched.Schedule(context.Background(), basicPlan())
	if err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	if len(result.Tracks) != 2 {
		t.Fatalf("len(Tracks) = %d, want 2", len(result.Tracks))
	}
	if result.Stats.FailedSegments != 0 {
		t.Errorf("Stats.FailedSegments = %d, want 0", result.Stats.FailedSegments)
	}
	if result.Timeline.TotalMs == 0 {
		t.Errorf("Timeline.TotalMs = 0, want a positive duration")
	}

	var sawLineStart, sawLineEnd bool
	for _, e := range result.Timeline.Events {
		switch e.Kind {
		case audio.EventLineStart:
			sawLineStart = true
		case audio.EventLineEnd:
			sawLineEnd = true
		}
	}
	if !sawLineStart || !sawLineEnd {
		t.Errorf("Timeline.Events missing line_start/line_end entries")
	}
}

func TestScheduleTracksPreserveCharacterOrder(t *testing.T) {
	backend := providertest.New(providertest.Config{Name: "backend-a"})
	sched := newScheduler(t, backend)

	result, err := sched.Schedule(context.Background(), basicPlan())
	if err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	if result.Tracks[0].CharacterID != "zundamon" || result.Tracks[1].CharacterID != "metan" {
		t.Fatalf("Tracks order = %v, want [zundamon metan] matching character registration order", result.Tracks)
	}
}

func TestScheduleRejectsInvalidPlan(t *testing.T) {
	backend := providertest.New(providertest.Config{Name: "backend-a"})
	sched := newScheduler(t, backend)

	p := basicPlan()
	p.Lines[0].CharacterID = "ghost"
	if _, err := sched.Schedule(context.Background(), p); err == nil {
		t.Fatalf("Schedule() with an invalid plan: want error, got nil")
	}
}

func TestScheduleOverlapAppliesAttenuationToTargetCharacter(t *testing.T) {
	backend := providertest.New(providertest.Config{Name: "backend-a"})
	sched := newScheduler(t, backend)

	p := basicPlan()
	p.Lines[1].Timing.Overlap = &plan.Overlap{
		TargetLineID:       "line-1",
		OffsetIntoTargetMs: 500,
		OverlapDurationMs:  1000,
		VolumeAttenuation:  0.4,
	}

	result, err := sched.Schedule(context.Background(), p)
	if err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	if result.Stats.OverlapCount != 1 {
		t.Fatalf("Stats.OverlapCount = %d, want 1", result.Stats.OverlapCount)
	}

	var found bool
	for _, e := range result.Timeline.Events {
		if e.Kind == audio.EventOverlapStart {
			found = true
			if e.CharacterID != "zundamon" {
				t.Errorf("overlap_start tagged with character %q, want the target line's character zundamon", e.CharacterID)
			}
		}
	}
	if !found {
		t.Fatalf("Timeline.Events has no overlap_start entry")
	}
}

func TestScheduleSubstitutesEstimatedSilenceOnOutrightFailure(t *testing.T) {
	backend := providertest.New(providertest.Config{Name: "backend-a", FailOn: providertest.AlwaysFail})
	sched := newScheduler(t, backend)

	result, err := sched.Schedule(context.Background(), basicPlan())
	if err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	if result.Stats.FailedSegments != 2 {
		t.Fatalf("Stats.FailedSegments = %d, want 2 (one per line, the only provider failing every request)", result.Stats.FailedSegments)
	}
	for _, track := range result.Tracks {
		if track.Buffer.FrameCount() == 0 {
			t.Errorf("character %s has an empty track despite the estimated-silence fallback", track.CharacterID)
		}
	}
}

func TestResolveLineTimingsOverlapOverridesAuthorStartMs(t *testing.T) {
	lines := []plan.Line{
		{ID: "line-1", Text: "hi", Timing: plan.LineTiming{StartMs: msPtr(1000), EndMs: msPtr(1000)}},
		{
			ID: "line-2", Text: "hi",
			Timing: plan.LineTiming{
				StartMs: msPtr(9999), // must be ignored once Overlap is set
				Overlap: &plan.Overlap{TargetLineID: "line-1", OffsetIntoTargetMs: 200},
			},
		},
	}
	resolved := resolveLineTimings(lines, plan.DefaultGlobalSettings())
	if got := resolved[1].startMs; got != 1200 {
		t.Errorf("resolveLineTimings()[1].startMs = %d, want 1200", got)
	}
}

func TestResolveLineTimingsWithoutOverlapUsesAuthorStartMs(t *testing.T) {
	lines := []plan.Line{{ID: "line-1", Text: "hi", Timing: plan.LineTiming{StartMs: msPtr(750)}}}
	resolved := resolveLineTimings(lines, plan.DefaultGlobalSettings())
	if got := resolved[0].startMs; got != 750 {
		t.Errorf("resolveLineTimings()[0].startMs = %d, want 750", got)
	}
}

func TestResolveLineTimingsWalksCursorWhenStartMsOmitted(t *testing.T) {
	// "a1 hi there" (3 words) -> natural duration 1000ms at 3 words/sec.
	lines := []plan.Line{
		{ID: "a1", Text: "a1 hi there"},
		{ID: "b1", Text: "b1 hi there"},
		{ID: "a2", Text: "a2 hi there"},
	}
	global := plan.DefaultGlobalSettings()
	global.PauseBetweenLinesMs = 500

	resolved := resolveLineTimings(lines, global)
	if got := resolved[0].startMs; got != 0 {
		t.Errorf("resolved[0].startMs = %d, want 0", got)
	}
	if got := resolved[1].startMs; got != 1500 {
		t.Errorf("resolved[1].startMs = %d, want 1500 (a1 ends at 1000 + 500 pause)", got)
	}
	if got := resolved[2].startMs; got != 3000 {
		t.Errorf("resolved[2].startMs = %d, want 3000 (b1 ends at 2500 + 500 pause)", got)
	}
}

func TestResolveLineTimingsOverlapDoesNotDisturbCursor(t *testing.T) {
	lines := []plan.Line{
		{ID: "a1", Text: "a1 hi there"},
		{
			ID: "b1", Text: "b1 hi there",
			Timing: plan.LineTiming{Overlap: &plan.Overlap{TargetLineID: "a1", OffsetIntoTargetMs: 100}},
		},
		{ID: "a2", Text: "a2 hi there"},
	}
	global := plan.DefaultGlobalSettings()
	global.PauseBetweenLinesMs = 500

	resolved := resolveLineTimings(lines, global)
	if got := resolved[1].startMs; got != 100 {
		t.Errorf("resolved[1].startMs = %d, want 100 (overlap-resolved)", got)
	}
	if got := resolved[2].startMs; got != 3000 {
		t.Errorf("resolved[2].startMs = %d, want 3000 (cursor advanced from b1's non-overlapping end at 2500, not its overridden start of 100)", got)
	}
}

func TestResolveLineTimingsWithoutNaturalTimingUsesLiteralValues(t *testing.T) {
	lines := []plan.Line{
		{ID: "a1", Text: "a1 hi there"},
		{ID: "b1", Text: "b1 hi there"},
	}
	global := plan.DefaultGlobalSettings()
	global.NaturalTiming = false

	resolved := resolveLineTimings(lines, global)
	if got := resolved[0].startMs; got != 0 {
		t.Errorf("resolved[0].startMs = %d, want 0", got)
	}
	if got := resolved[1].startMs; got != 0 {
		t.Errorf("resolved[1].startMs = %d, want 0 (no cursor walk when NaturalTiming is off)", got)
	}
}
