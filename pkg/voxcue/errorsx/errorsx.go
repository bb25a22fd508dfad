// Package errorsx attaches machine-readable reason codes to the error
// taxonomy of the synthesis pipeline (render-plan validation, transition
// rejection, provider selection, per-segment synthesis, codec failures).
package errorsx

import (
	"errors"
	"fmt"
)

// Kind is a short machine-readable error category, analogous to the
// teacher's per-endpoint error structs but unified behind one wrapper so
// callers can errors.As a single type across the whole pipeline.
type Kind string

const (
	KindInvalidPlan       Kind = "invalid_plan"
	KindInvalidTransition Kind = "invalid_transition"
	KindNoProvider        Kind = "no_provider_available"
	KindSynthesisTimeout  Kind = "synthesis_timeout"
	KindSynthesisNetwork  Kind = "synthesis_network"
	KindSynthesisBackend  Kind = "synthesis_backend"
	KindInvalidResponse   Kind = "synthesis_invalid_response"
	KindCodec             Kind = "codec_error"
)

// Error wraps an underlying cause with a Kind so the eight failure
// categories in the synthesis error taxonomy stay distinguishable after
// being passed through several layers of %w wrapping.
type Error struct {
	Kind     Kind
	Provider string // populated for SynthesisFailed-family errors
	Err      error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s (provider=%s): %v", e.Kind, e.Provider, e.Err)
	}
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap attaches kind to err. A nil err yields a nil *Error so callers can
// write `if err := Wrap(cause, KindCodec); err != nil { return err }`.
func Wrap(err error, kind Kind) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: kind, Err: err}
}

// WrapProvider is Wrap plus the originating provider name, for the
// SynthesisFailed{provider, kind} case in spec §7.
func WrapProvider(err error, kind Kind, provider string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// As extracts the Kind carried by err, or "" if err carries none.
func As(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err (or something it wraps) carries kind.
func Is(err error, kind Kind) bool {
	k, ok := As(err)
	return ok && k == kind
}
