package provider

import (
	"context"
	"log/slog"

	"github.com/voxcue/voxcue/pkg/voxcue/errorsx"
)

// Registry holds the process-wide, read-only-after-initialization set of
// registered providers (spec §5 "the set of registered providers is
// process-wide, initialized once, and read-only after initialization").
// There is no global singleton: callers own a Registry value and pass it
// by reference (spec §9 "no global singletons").
type Registry struct {
	// order preserves registration order: the stable fallback the
	// selection policy's step 3 requires (spec §4.4).
	order []Provider
	byName map[string]Provider
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Provider)}
}

// Register adds p to the registry and initializes it. An initialization
// failure does not abort the caller: it is logged and p is excluded
// (spec §4.4 failure semantics), and Register returns the error so the
// caller can decide whether to surface it.
func (r *Registry) Register(ctx context.Context, p Provider) error {
	if err := p.Initialize(ctx); err != nil {
		slog.WarnContext(ctx, "provider initialization failed, excluding",
			"provider", p.Name(), "error", err)
		return err
	}
	r.order = append(r.order, p)
	r.byName[p.Name()] = p
	return nil
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Len reports how many providers are registered.
func (r *Registry) Len() int { return len(r.order) }

// Names returns registered provider names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, p := range r.order {
		names[i] = p.Name()
	}
	return names
}

// SelectionRequest is what the Voice Engine hands to Select: a
// pre-resolved provider id (optional) plus whether the segment needs
// emotion control.
type SelectionRequest struct {
	PreResolvedProviderID string
	NeedsEmotionControl   bool
}

// Select implements spec §4.4's three-step policy:
//  1. pre-resolved id wins outright.
//  2. else, if emotion control is needed, prefer a provider reporting
//     SupportsEmotions().
//  3. else, the first registered provider in stable order.
// Returns errorsx.KindNoProvider when the registry is empty.
func (r *Registry) Select(req SelectionRequest) (Provider, error) {
	if req.PreResolvedProviderID != "" {
		if p, ok := r.byName[req.PreResolvedProviderID]; ok {
			return p, nil
		}
	}

	if req.NeedsEmotionControl {
		for _, p := range r.order {
			if p.SupportsEmotions() {
				return p, nil
			}
		}
	}

	if len(r.order) > 0 {
		return r.order[0], nil
	}

	return nil, errorsx.Wrap(ErrNoProviderAvailable, errorsx.KindNoProvider)
}
