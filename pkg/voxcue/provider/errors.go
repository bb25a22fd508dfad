package provider

import (
	"errors"

	"github.com/voxcue/voxcue/pkg/voxcue/errorsx"
)

// ErrNoProviderAvailable is the sentinel cause wrapped into
// errorsx.KindNoProvider when Registry.Select has nothing to offer (spec
// §7).
var ErrNoProviderAvailable = errors.New("no provider available")

// SynthesisFailureKind enumerates the per-segment failure kinds spec §7
// names under SynthesisFailed.
type SynthesisFailureKind string

const (
	FailureTimeout         SynthesisFailureKind = "timeout"
	FailureNetwork         SynthesisFailureKind = "network"
	FailureBackend         SynthesisFailureKind = "backend"
	FailureInvalidResponse SynthesisFailureKind = "invalid_response"
)

var kindMap = map[SynthesisFailureKind]errorsx.Kind{
	FailureTimeout:         errorsx.KindSynthesisTimeout,
	FailureNetwork:         errorsx.KindSynthesisNetwork,
	FailureBackend:         errorsx.KindSynthesisBackend,
	FailureInvalidResponse: errorsx.KindInvalidResponse,
}

// WrapSynthesisFailure wraps cause into errorsx.Error{Kind, Provider},
// the SynthesisFailed{provider, kind} shape spec §7 defines.
func WrapSynthesisFailure(cause error, providerName string, kind SynthesisFailureKind) error {
	ek, ok := kindMap[kind]
	if !ok {
		ek = errorsx.KindSynthesisBackend
	}
	return errorsx.WrapProvider(cause, ek, providerName)
}
