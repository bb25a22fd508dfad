package engine

import (
	"context"
	"testing"

	"github.com/voxcue/voxcue/pkg/voxcue/emotion"
	"github.com/voxcue/voxcue/pkg/voxcue/provider"
	"github.com/voxcue/voxcue/pkg/voxcue/provider/providertest"
	"github.com/voxcue/voxcue/pkg/voxcue/voice"
)

func newRegistry(t *testing.T, adapters ...*providertest.Adapter) *provider.Registry {
	t.Helper()
	reg := provider.NewRegistry()
	for _, a := range adapters {
		if err := reg.Register(context.Background(), a); err != nil {
			t.Fatalf("Register(%s) error: %v", a.Name(), err)
		}
	}
	return reg
}

func TestSynthesizeHappyPath(t *testing.T) {
	backend := providertest.New(providertest.Config{Name: "backend-a", SupportsEmotions: true})
	e := New(newRegistry(t, backend), nil)

	spec := voice.Default()
	result, err := e.Synthesize(context.Background(), Request{
		Text:           "Hello there friend",
		VoiceSpec:      &spec,
		DefaultEmotion: emotion.Profile{Kind: emotion.Happy, Intensity: 0.4},
		Natural:        false,
	})
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if result.Segments != 3 {
		t.Errorf("result.Segments = %d, want 3", result.Segments)
	}
	if result.FailedSegments != 0 {
		t.Errorf("result.FailedSegments = %d, want 0", result.FailedSegments)
	}
	if result.Buffer.FrameCount() == 0 {
		t.Errorf("result.Buffer is empty")
	}
	if len(backend.Calls()) != 3 {
		t.Errorf("backend received %d calls, want 3 (one per segment)", len(backend.Calls()))
	}
}

func TestSynthesizeSubstitutesSilenceOnSegmentFailure(t *testing.T) {
	backend := providertest.New(providertest.Config{
		Name:             "flaky",
		SupportsEmotions: true,
		FailOn:           providertest.AlwaysFail,
	})
	e := New(newRegistry(t, backend), nil)

	spec := voice.Default()
	result, err := e.Synthesize(context.Background(), Request{
		Text:           "one two three",
		VoiceSpec:      &spec,
		DefaultEmotion: emotion.Profile{Kind: emotion.Neutral, Intensity: 0.3},
	})
	if err != nil {
		t.Fatalf("Synthesize() with a failing backend: want nil error (failures are non-fatal), got %v", err)
	}
	if result.FailedSegments != result.Segments {
		t.Errorf("result.FailedSegments = %d, want all %d segments to have failed", result.FailedSegments, result.Segments)
	}
	if result.Buffer.FrameCount() == 0 {
		t.Errorf("result.Buffer is empty even though silence should have been substituted")
	}
}

func TestSynthesizeNoProviderRegistered(t *testing.T) {
	e := New(provider.NewRegistry(), nil)
	spec := voice.Default()
	_, err := e.Synthesize(context.Background(), Request{Text: "hi", VoiceSpec: &spec})
	if err == nil {
		t.Fatalf("Synthesize() with no providers registered: want error, got nil")
	}
}

func TestSynthesizeCollapsesEmotionForNonEmotionalProvider(t *testing.T) {
	backend := providertest.New(providertest.Config{Name: "flat", SupportsEmotions: false})
	e := New(newRegistry(t, backend), nil)

	spec := voice.Default()
	_, err := e.Synthesize(context.Background(), Request{
		Text:           "hello",
		VoiceSpec:      &spec,
		DefaultEmotion: emotion.Profile{Kind: emotion.Excited, Intensity: 0.8},
	})
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	calls := backend.Calls()
	if len(calls) == 0 {
		t.Fatalf("backend received no calls")
	}
	if calls[0].SSML != "" {
		t.Errorf("SynthesisRequest.SSML = %q, want empty for a provider that doesn't support emotions", calls[0].SSML)
	}
	if calls[0].Emotion != nil {
		t.Errorf("SynthesisRequest.Emotion = %v, want nil after CollapseEmotion", calls[0].Emotion)
	}
}

func TestSynthesizePassesVoiceIDNotProviderIDToTheProvider(t *testing.T) {
	backend := providertest.New(providertest.Config{Name: "backend-a", SupportsEmotions: true})
	e := New(newRegistry(t, backend), nil)

	spec := voice.Default()
	_, err := e.Synthesize(context.Background(), Request{
		Text:       "hello",
		VoiceSpec:  &spec,
		VoiceID:    "character-zundamon",
		ProviderID: "backend-a",
	})
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	calls := backend.Calls()
	if len(calls) == 0 {
		t.Fatalf("backend received no calls")
	}
	if calls[0].VoiceID != "character-zundamon" {
		t.Errorf("SynthesisRequest.VoiceID = %q, want the request's VoiceID, not its ProviderID", calls[0].VoiceID)
	}
}

func TestSynthesizeResolvesVoiceFromPrompt(t *testing.T) {
	backend := providertest.New(providertest.Config{Name: "backend-a"})
	e := New(newRegistry(t, backend), nil)

	_, err := e.Synthesize(context.Background(), Request{Text: "hi", Prompt: "a cheerful female voice"})
	if err != nil {
		t.Fatalf("Synthesize() with only a prompt: %v", err)
	}
}

func TestSupportsEmotionsAsksAllProviders(t *testing.T) {
	noEmo := providertest.New(providertest.Config{Name: "flat", SupportsEmotions: false})
	withEmo := providertest.New(providertest.Config{Name: "expressive", SupportsEmotions: true})
	e := New(newRegistry(t, noEmo, withEmo), nil)

	if !e.SupportsEmotions() {
		t.Errorf("SupportsEmotions() = false, want true (at least one registered provider supports emotions)")
	}
	if e.SupportsVoiceCloning() {
		t.Errorf("SupportsVoiceCloning() = true, want false (no provider reports it)")
	}
}
