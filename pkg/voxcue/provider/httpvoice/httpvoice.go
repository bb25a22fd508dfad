// Package httpvoice is the emotion-naive HTTP reference backend spec §6
// assumes exists: "a non-emotion backend whose emotion inputs are
// collapsed into rate/pitch/volume before dispatch". It is grounded on
// the teacher's pkg/voicevox Client: a thin wrapper around
// github.com/shouni/go-http-kit for retrying, status-checking HTTP
// calls, plus a client-side rate limiter (golang.org/x/time/rate) and an
// LRU cache (hashicorp/golang-lru) in place of the teacher's hand-rolled
// mutex map (engine.go's styleIDCache). ListVoices fills the cache with
// voice id -> name pairs; Synthesize does not read it and sends
// req.VoiceID as given.
package httpvoice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"golang.org/x/time/rate"

	"github.com/voxcue/voxcue/pkg/voxcue/pcm"
	"github.com/voxcue/voxcue/pkg/voxcue/provider"
)

// Config configures one Backend instance.
type Config struct {
	Name          string
	BaseURL       string
	Timeout       time.Duration
	RateLimitRPS  float64
	RateLimitBurst int
	VoiceCacheSize int
}

// Backend is the HTTP-based, emotion-naive reference provider.
type Backend struct {
	name    string
	client  *httpkit.Client
	baseURL string
	limiter *rate.Limiter

	voiceCache *lru.Cache[string, string]
}

// New builds a Backend from cfg, applying the teacher's pattern of
// defaulting rather than relying on zero values (engine.go's
// EngineConfig defaulting).
func New(cfg Config) (*Backend, error) {
	if cfg.Name == "" {
		cfg.Name = "httpvoice"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 10
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 5
	}
	if cfg.VoiceCacheSize <= 0 {
		cfg.VoiceCacheSize = 256
	}

	cache, err := lru.New[string, string](cfg.VoiceCacheSize)
	if err != nil {
		return nil, fmt.Errorf("httpvoice: new voice cache: %w", err)
	}

	return &Backend{
		name:       cfg.Name,
		client:     httpkit.New(cfg.Timeout),
		baseURL:    cfg.BaseURL,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		voiceCache: cache,
	}, nil
}

func (b *Backend) Name() string { return b.name }

func (b *Backend) Initialize(ctx context.Context) error {
	return nil
}

func (b *Backend) SupportsEmotions() bool      { return false }
func (b *Backend) SupportsVoiceCloning() bool  { return false }

type voicesResponse struct {
	Voices []provider.VoiceDescriptor `json:"voices"`
}

func (b *Backend) ListVoices(ctx context.Context) ([]provider.VoiceDescriptor, error) {
	u, err := b.buildURL("/voices")
	if err != nil {
		return nil, err
	}
	body, err := b.client.FetchBytes(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("httpvoice: list voices: %w", err)
	}
	var resp voicesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("httpvoice: decode voices: %w", err)
	}
	for _, v := range resp.Voices {
		b.voiceCache.Add(v.ID, v.Name)
	}
	return resp.Voices, nil
}

type synthesisRequestBody struct {
	Text    string  `json:"text"`
	VoiceID string  `json:"voice_id"`
	Rate    float64 `json:"rate"`
	Pitch   float64 `json:"pitch"`
	Volume  float64 `json:"volume"`
	Format  string  `json:"format"`
}

type synthesisResponseBody struct {
	PCM        string `json:"pcm_base64"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Synthesize collapses emotion into rate/pitch/volume (spec §4.4: "If the
// provider does not support emotions, emotion is collapsed into
// rate/pitch/volume deterministically") before dispatch, since this
// backend never sends SSML or an emotion field over the wire.
func (b *Backend) Synthesize(ctx context.Context, req provider.SynthesisRequest) (pcm.Buffer, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return pcm.Buffer{}, fmt.Errorf("httpvoice: rate limiter: %w", err)
	}

	req = provider.CollapseEmotion(req)

	u, err := b.buildURL("/synthesize")
	if err != nil {
		return pcm.Buffer{}, err
	}

	body := synthesisRequestBody{
		Text: req.Text, VoiceID: req.VoiceID,
		Rate: nonZeroOr(req.Rate, 1.0), Pitch: req.Pitch, Volume: nonZeroOr(req.Volume, 1.0),
		Format: req.FormatHint,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("httpvoice: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytesReader(payload))
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("httpvoice: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	respBytes, err := b.client.DoRequest(httpReq)
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("httpvoice: synthesize: %w", err)
	}

	var resp synthesisResponseBody
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return pcm.Buffer{}, fmt.Errorf("httpvoice: decode response: %w", err)
	}

	raw, err := decodeBase64PCM(resp.PCM)
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("httpvoice: decode pcm payload: %w", err)
	}

	return pcm.Buffer{
		Samples:      raw,
		SampleRate:   orDefault(resp.SampleRate, pcm.DefaultSampleRate),
		ChannelCount: orDefault(resp.Channels, pcm.DefaultChannels),
	}, nil
}

func (b *Backend) buildURL(endpoint string) (*url.URL, error) {
	u, err := url.Parse(b.baseURL)
	if err != nil {
		return nil, fmt.Errorf("httpvoice: parse base url: %w", err)
	}
	u.Path, err = url.JoinPath(u.Path, endpoint)
	if err != nil {
		return nil, fmt.Errorf("httpvoice: join path: %w", err)
	}
	return u, nil
}

func nonZeroOr(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

var _ provider.Provider = (*Backend)(nil)
