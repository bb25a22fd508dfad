package httpvoice

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voxcue/voxcue/pkg/voxcue/provider"
)

func TestListVoicesDecodesAndCachesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(voicesResponse{Voices: []provider.VoiceDescriptor{
			{ID: "v1", Name: "Jane", Language: "en-US"},
		}})
	}))
	defer srv.Close()

	backend, err := New(Config{BaseURL: srv.URL, RateLimitRPS: 1000, RateLimitBurst: 1000})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	voices, err := backend.ListVoices(t.Context())
	if err != nil {
		t.Fatalf("ListVoices() error: %v", err)
	}
	if len(voices) != 1 || voices[0].ID != "v1" {
		t.Fatalf("ListVoices() = %+v, want one voice with id v1", voices)
	}
}

func TestSynthesizeCollapsesEmotionAndDecodesPCM(t *testing.T) {
	pcmBytes := []byte{1, 2, 3, 4}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body synthesisRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if body.Text != "hello" {
			t.Errorf("request Text = %q, want %q", body.Text, "hello")
		}
		json.NewEncoder(w).Encode(synthesisResponseBody{
			PCM:        base64.StdEncoding.EncodeToString(pcmBytes),
			SampleRate: 44100,
			Channels:   2,
		})
	}))
	defer srv.Close()

	backend, err := New(Config{BaseURL: srv.URL, RateLimitRPS: 1000, RateLimitBurst: 1000})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	buf, err := backend.Synthesize(t.Context(), provider.SynthesisRequest{Text: "hello"})
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if string(buf.Samples) != string(pcmBytes) {
		t.Errorf("Synthesize() Samples = %v, want %v", buf.Samples, pcmBytes)
	}
	if buf.SampleRate != 44100 || buf.ChannelCount != 2 {
		t.Errorf("Synthesize() format = (%d,%d), want (44100,2)", buf.SampleRate, buf.ChannelCount)
	}
}

func TestBackendNeverSupportsEmotionsOrCloning(t *testing.T) {
	backend, err := New(Config{BaseURL: "http://example.invalid"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if backend.SupportsEmotions() {
		t.Errorf("SupportsEmotions() = true, want false")
	}
	if backend.SupportsVoiceCloning() {
		t.Errorf("SupportsVoiceCloning() = true, want false")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	backend, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if backend.Name() != "httpvoice" {
		t.Errorf("Name() = %q, want default %q", backend.Name(), "httpvoice")
	}
}

var _ provider.Provider = (*Backend)(nil)
