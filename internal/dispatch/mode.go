package dispatch

import (
	"sync/atomic"

	"github.com/mimicgate/mimicgate/internal/domain"
)

// ModeRegistry holds the current global operating mode as a single
// pointer swap; readers never lock.
type ModeRegistry struct {
	mode atomic.Pointer[domain.Mode]
}

// NewModeRegistry returns a registry initialized to the given mode.
func NewModeRegistry(initial domain.Mode) *ModeRegistry {
	r := &ModeRegistry{}
	m := initial
	r.mode.Store(&m)
	return r
}

// Get returns the current mode.
func (r *ModeRegistry) Get() domain.Mode {
	return *r.mode.Load()
}

// Set switches the mode.
func (r *ModeRegistry) Set(m domain.Mode) {
	v := m
	r.mode.Store(&v)
}
