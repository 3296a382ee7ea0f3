// Package dispatch implements the Dispatch Core: the per-request state
// machine that normalizes a path, decides between proxy and mock mode,
// applies chaos, forwards or synthesizes a response, and hands a
// Transaction off to the Learning Buffer without ever blocking on it.
package dispatch

import (
	"sync/atomic"

	"github.com/mimicgate/mimicgate/internal/domain"
)

// chaosState is the copy-on-write value swapped atomically by
// ChaosRegistry: readers never lock. The operating mode is swapped the
// same way, but separately, by ModeRegistry.
type chaosState struct {
	global      domain.ChaosProfile
	perEndpoint map[string]domain.ChaosProfile
}

// ChaosRegistry holds the global and per-endpoint chaos configuration.
// Reads are lock-free; writes build a new state and swap the pointer.
type ChaosRegistry struct {
	state atomic.Pointer[chaosState]
}

// NewChaosRegistry returns a registry with chaos disabled globally.
func NewChaosRegistry() *ChaosRegistry {
	r := &ChaosRegistry{}
	r.state.Store(&chaosState{perEndpoint: map[string]domain.ChaosProfile{}})
	return r
}

// For returns the effective chaos profile for an endpoint: its own
// override if set, otherwise the global profile.
func (r *ChaosRegistry) For(endpointKey string) domain.ChaosProfile {
	s := r.state.Load()
	if p, ok := s.perEndpoint[endpointKey]; ok {
		return p
	}
	return s.global
}

// SetGlobal replaces the global chaos profile.
func (r *ChaosRegistry) SetGlobal(p domain.ChaosProfile) {
	old := r.state.Load()
	next := &chaosState{global: p, perEndpoint: old.perEndpoint}
	r.state.Store(next)
}

// SetEndpoint replaces one endpoint's chaos override, copying the rest of
// the map so concurrent readers of the old map are never mutated under
// them.
func (r *ChaosRegistry) SetEndpoint(endpointKey string, p domain.ChaosProfile) {
	old := r.state.Load()
	next := &chaosState{global: old.global, perEndpoint: make(map[string]domain.ChaosProfile, len(old.perEndpoint)+1)}
	for k, v := range old.perEndpoint {
		next.perEndpoint[k] = v
	}
	next.perEndpoint[endpointKey] = p
	r.state.Store(next)
}

// ClearEndpoint removes an endpoint's chaos override, falling back to
// global for that endpoint.
func (r *ChaosRegistry) ClearEndpoint(endpointKey string) {
	old := r.state.Load()
	next := &chaosState{global: old.global, perEndpoint: make(map[string]domain.ChaosProfile, len(old.perEndpoint))}
	for k, v := range old.perEndpoint {
		if k != endpointKey {
			next.perEndpoint[k] = v
		}
	}
	r.state.Store(next)
}

// Global returns the current global chaos profile.
func (r *ChaosRegistry) Global() domain.ChaosProfile {
	return r.state.Load().global
}
