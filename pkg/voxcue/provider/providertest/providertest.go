// Package providertest provides a fake provider.Provider for exercising
// the Voice Engine and Conversation Scheduler without a network backend,
// grounded on harunnryd-ranya's pkg/providers/mock adapters (a
// Config-plus-defaulting constructor around a struct implementing the
// real production interface).
package providertest

import (
	"context"
	"errors"

	"github.com/voxcue/voxcue/pkg/voxcue/pcm"
	"github.com/voxcue/voxcue/pkg/voxcue/provider"
)

// Config configures an Adapter. Zero values are defaulted by New the same
// way harunnryd-ranya's mock adapters default ResponseText.
type Config struct {
	Name             string
	SupportsEmotions bool
	SupportsCloning  bool
	Voices           []provider.VoiceDescriptor
	// FrameMsPerChar sets how much audio Synthesize fabricates per
	// character of req.Text; defaults to 60ms/char if zero.
	FrameMsPerChar int64
	// FailOn, if set, is called per request; a non-nil return makes
	// Synthesize fail with that error instead of producing audio.
	FailOn func(req provider.SynthesisRequest) error
	// InitErr, if set, makes Initialize fail.
	InitErr error
}

// Adapter is a fake provider.Provider. It never calls out over the
// network: Synthesize fabricates silence sized from the request text.
type Adapter struct {
	cfg       Config
	calls     []provider.SynthesisRequest
	initCalls int
}

// New builds an Adapter, defaulting Name and FrameMsPerChar the way
// harunnryd-ranya's NewXAdapter constructors default their Config.
func New(cfg Config) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "mock"
	}
	if cfg.FrameMsPerChar == 0 {
		cfg.FrameMsPerChar = 60
	}
	return &Adapter{cfg: cfg}
}

var _ provider.Provider = (*Adapter)(nil)

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) Initialize(ctx context.Context) error {
	a.initCalls++
	return a.cfg.InitErr
}

func (a *Adapter) ListVoices(ctx context.Context) ([]provider.VoiceDescriptor, error) {
	return a.cfg.Voices, nil
}

func (a *Adapter) SupportsEmotions() bool      { return a.cfg.SupportsEmotions }
func (a *Adapter) SupportsVoiceCloning() bool  { return a.cfg.SupportsCloning }

// Synthesize fabricates a silent buffer sized from the request text length
// and the configured frame rate, unless FailOn reports an error for req.
func (a *Adapter) Synthesize(ctx context.Context, req provider.SynthesisRequest) (pcm.Buffer, error) {
	a.calls = append(a.calls, req)
	if a.cfg.FailOn != nil {
		if err := a.cfg.FailOn(req); err != nil {
			return pcm.Buffer{}, err
		}
	}
	durationMs := int64(len(req.Text)) * a.cfg.FrameMsPerChar
	if durationMs <= 0 {
		durationMs = a.cfg.FrameMsPerChar
	}
	return pcm.NewSilence(durationMs, pcm.DefaultSampleRate, pcm.DefaultChannels), nil
}

// Calls returns every SynthesisRequest Synthesize has received so far, in
// order.
func (a *Adapter) Calls() []provider.SynthesisRequest { return a.calls }

// InitCalls reports how many times Initialize has been invoked.
func (a *Adapter) InitCalls() int { return a.initCalls }

// ErrAlwaysFails is a convenience FailOn predicate that rejects every
// request.
var ErrAlwaysFails = errors.New("providertest: synthesis always fails")

// AlwaysFail is a FailOn value that rejects every request with
// ErrAlwaysFails.
func AlwaysFail(provider.SynthesisRequest) error { return ErrAlwaysFails }
