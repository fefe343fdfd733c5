package clock

import (
	"sync"
	"time"
)

// Clock supplies the current instant. All time-sensitive decisions in the
// service layer go through a Clock so tests can control time precisely.
// Instants are always UTC.
type Clock interface {
	Now() time.Time
}

// System is the wall-clock implementation used in production.
type System struct{}

// Now returns the current UTC time.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Mock is a manually advanced Clock for tests.
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock creates a Mock frozen at the given instant.
func NewMock(now time.Time) *Mock {
	return &Mock{now: now.UTC()}
}

// Now returns the frozen instant.
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the mock to an absolute instant.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t.UTC()
}

// Advance moves the mock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
