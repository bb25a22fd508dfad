// Package wsvoice is the emotion-capable reference backend spec §6
// assumes exists: "an emotion-capable backend that accepts emotion
// directly". It is grounded on harunnryd-ranya's ElevenLabs streaming
// adapter (pkg/providers/elevenlabs): a WebSocket connection
// (gorilla/websocket) that streams text in and audio chunks out. Since
// spec §1 makes the core a finite-buffer pipeline, not a streaming
// synthesizer, Synthesize here opens a connection, drives one
// request/response exchange to completion, and returns the fully
// buffered result rather than exposing a channel.
package wsvoice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxcue/voxcue/pkg/voxcue/pcm"
	"github.com/voxcue/voxcue/pkg/voxcue/provider"
	"github.com/voxcue/voxcue/pkg/voxcue/resilience"
)

// Config configures one Backend instance.
type Config struct {
	Name       string
	WSBaseURL  string // e.g. "wss://example-tts/v1/stream"
	APIKey     string
	SampleRate int
	Timeout    time.Duration
}

// Backend is the WebSocket-based, emotion-capable reference provider.
type Backend struct {
	cfg     Config
	retry   resilience.RetryPolicy
	breaker *resilience.CircuitBreaker
}

func New(cfg Config) *Backend {
	if cfg.Name == "" {
		cfg.Name = "wsvoice"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = pcm.DefaultSampleRate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Backend{
		cfg:     cfg,
		retry:   resilience.NewRetryPolicy(2, 200*time.Millisecond, cfg.Timeout),
		breaker: resilience.NewCircuitBreaker(3, 30*time.Second),
	}
}

func (b *Backend) Name() string                { return b.cfg.Name }
func (b *Backend) Initialize(ctx context.Context) error {
	if b.cfg.WSBaseURL == "" {
		return fmt.Errorf("wsvoice: missing WSBaseURL")
	}
	return nil
}
func (b *Backend) SupportsEmotions() bool     { return true }
func (b *Backend) SupportsVoiceCloning() bool { return true }

func (b *Backend) ListVoices(ctx context.Context) ([]provider.VoiceDescriptor, error) {
	return nil, nil
}

type wireMessage struct {
	Text      string             `json:"text,omitempty"`
	VoiceID   string             `json:"voice_id,omitempty"`
	SSML      string             `json:"ssml,omitempty"`
	Emotion   string             `json:"emotion,omitempty"`
	Intensity float64            `json:"intensity,omitempty"`
	Flush     bool               `json:"flush,omitempty"`
}

type wireResponse struct {
	AudioBase64 string `json:"audio_base64"`
	Done        bool   `json:"done"`
}

// Synthesize dials the backend, sends one request message, and drains
// audio chunks until the backend signals completion or ctx is done.
func (b *Backend) Synthesize(ctx context.Context, req provider.SynthesisRequest) (pcm.Buffer, error) {
	if !b.breaker.Allow() {
		return pcm.Buffer{}, fmt.Errorf("wsvoice: circuit open")
	}

	var out pcm.Buffer
	err := b.retry.Do(ctx, func() error {
		buf, innerErr := b.synthesizeOnce(ctx, req)
		if innerErr != nil {
			b.breaker.OnError(innerErr)
			return innerErr
		}
		b.breaker.OnSuccess()
		out = buf
		return nil
	})
	return out, err
}

func (b *Backend) synthesizeOnce(ctx context.Context, req provider.SynthesisRequest) (pcm.Buffer, error) {
	dialCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, b.wsURL(), http.Header{
		"x-api-key": []string{b.cfg.APIKey},
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return pcm.Buffer{}, resilience.RateLimitError{Provider: b.cfg.Name, Message: resp.Status}
		}
		return pcm.Buffer{}, fmt.Errorf("wsvoice: dial: %w", err)
	}
	defer conn.Close()

	msg := wireMessage{Text: req.Text, VoiceID: req.VoiceID, SSML: req.SSML, Flush: true}
	if req.Emotion != nil {
		msg.Emotion = string(req.Emotion.Kind)
		msg.Intensity = req.Emotion.Intensity
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("wsvoice: marshal request: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return pcm.Buffer{}, fmt.Errorf("wsvoice: write: %w", err)
	}

	var chunks [][]byte
	for {
		select {
		case <-ctx.Done():
			return pcm.Buffer{}, ctx.Err()
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return pcm.Buffer{}, fmt.Errorf("wsvoice: read: %w", err)
		}
		var wr wireResponse
		if err := json.Unmarshal(data, &wr); err != nil {
			return pcm.Buffer{}, fmt.Errorf("wsvoice: decode frame: %w", err)
		}
		if wr.AudioBase64 != "" {
			raw, err := base64.StdEncoding.DecodeString(wr.AudioBase64)
			if err != nil {
				return pcm.Buffer{}, fmt.Errorf("wsvoice: decode audio: %w", err)
			}
			chunks = append(chunks, raw)
		}
		if wr.Done {
			break
		}
	}

	var all []byte
	for _, c := range chunks {
		all = append(all, c...)
	}
	return pcm.Buffer{Samples: all, SampleRate: b.cfg.SampleRate, ChannelCount: pcm.DefaultChannels}, nil
}

func (b *Backend) wsURL() string {
	u, err := url.Parse(b.cfg.WSBaseURL)
	if err != nil {
		return b.cfg.WSBaseURL
	}
	q := u.Query()
	q.Set("sample_rate", strconv.Itoa(b.cfg.SampleRate))
	u.RawQuery = q.Encode()
	return u.String()
}

var _ provider.Provider = (*Backend)(nil)
