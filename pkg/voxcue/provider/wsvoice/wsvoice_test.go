package wsvoice

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxcue/voxcue/pkg/voxcue/emotion"
	"github.com/voxcue/voxcue/pkg/voxcue/provider"
	"github.com/voxcue/voxcue/pkg/voxcue/resilience"
)

var upgrader = websocket.Upgrader{}

func TestSynthesizeStreamsAudioChunksToCompletion(t *testing.T) {
	chunk1 := []byte{10, 20}
	chunk2 := []byte{30, 40}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade error: %v", err)
		}
		defer conn.Close()

		var msg wireMessage
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read request: %v", err)
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if msg.Emotion != "happy" {
			t.Errorf("wireMessage.Emotion = %q, want happy", msg.Emotion)
		}

		conn.WriteJSON(wireResponse{AudioBase64: base64.StdEncoding.EncodeToString(chunk1)})
		conn.WriteJSON(wireResponse{AudioBase64: base64.StdEncoding.EncodeToString(chunk2), Done: true})
	}))
	defer srv.Close()

	backend := New(Config{WSBaseURL: toWS(srv.URL), Timeout: 2 * time.Second})

	buf, err := backend.Synthesize(t.Context(), provider.SynthesisRequest{
		Text:    "hello",
		Emotion: &emotion.Profile{Kind: emotion.Happy, Intensity: 0.6},
	})
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	want := append(append([]byte{}, chunk1...), chunk2...)
	if string(buf.Samples) != string(want) {
		t.Errorf("Synthesize() Samples = %v, want %v", buf.Samples, want)
	}
}

func TestSynthesizeTreatsTooManyRequestsAsRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	backend := New(Config{WSBaseURL: toWS(srv.URL), Timeout: 200 * time.Millisecond})
	// Keep the retry budget short: NewRetryPolicy treats 0 as its default
	// of 2 retries, so the dial is tried up to three times within 50ms,
	// each attempt a rate-limit error.
	backend.retry = resilience.NewRetryPolicy(0, time.Millisecond, 50*time.Millisecond)

	_, err := backend.Synthesize(t.Context(), provider.SynthesisRequest{Text: "hi"})
	if err == nil {
		t.Fatalf("Synthesize() against a 429 server: want error, got nil")
	}
}

func TestInitializeRequiresBaseURL(t *testing.T) {
	backend := New(Config{})
	if err := backend.Initialize(t.Context()); err == nil {
		t.Fatalf("Initialize() without WSBaseURL: want error, got nil")
	}
}

func TestInitializeAcceptsConfiguredBaseURL(t *testing.T) {
	backend := New(Config{WSBaseURL: "wss://example.test/v1/stream"})
	if err := backend.Initialize(t.Context()); err != nil {
		t.Errorf("Initialize() error: %v", err)
	}
}

func TestBackendAlwaysSupportsEmotionsAndCloning(t *testing.T) {
	backend := New(Config{})
	if !backend.SupportsEmotions() {
		t.Errorf("SupportsEmotions() = false, want true")
	}
	if !backend.SupportsVoiceCloning() {
		t.Errorf("SupportsVoiceCloning() = false, want true")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	backend := New(Config{})
	if backend.Name() != "wsvoice" {
		t.Errorf("Name() = %q, want default %q", backend.Name(), "wsvoice")
	}
	if backend.cfg.SampleRate == 0 {
		t.Errorf("cfg.SampleRate left at zero, want a default applied")
	}
}

func toWS(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

var _ provider.Provider = (*Backend)(nil)
