package system

import (
	"context"
	"strings"
	"sync"
)

// MockCommandRunner is a CommandRunner for tests. It records every call and
// answers from Outputs keyed by the joined command line.
type MockCommandRunner struct {
	mu      sync.Mutex
	Calls   []string
	Outputs map[string]string
	Errors  map[string]error
}

// NewMockCommandRunner creates a new MockCommandRunner.
func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{
		Outputs: make(map[string]string),
		Errors:  make(map[string]error),
	}
}

// Run returns the canned output and error for the command line.
func (m *MockCommandRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	key := strings.Join(append([]string{name}, args...), " ")

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, key)
	return m.Outputs[key], m.Errors[key]
}
