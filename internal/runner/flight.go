package runner

import (
	"errors"
	"fmt"
	"sync"
)

// ErrBusy is returned when a run with the same key is already active
var ErrBusy = errors.New("operation already running")

// Flight allows one active run per key. A disabled Flight admits everything.
type Flight struct {
	mu       sync.Mutex
	active   map[string]bool
	disabled bool
}

// NewFlight creates a Flight; enabled=false lets concurrent runs through
func NewFlight(enabled bool) *Flight {
	return &Flight{active: make(map[string]bool), disabled: !enabled}
}

// Acquire claims key. The returned release func is idempotent.
func (f *Flight) Acquire(key string) (func(), error) {
	if f.disabled {
		return func() {}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.active[key] {
		return nil, fmt.Errorf("%s: %w", key, ErrBusy)
	}
	f.active[key] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.active, key)
			f.mu.Unlock()
		})
	}, nil
}

// Active reports whether key is currently held
func (f *Flight) Active(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active[key]
}
