// internal/player/mock.go
package player

import (
	"context"
	"sync"
	"time"
)

// Mock is a goroutine-safe test double for Player.
type Mock struct {
	mu       sync.Mutex
	state    State
	src      string
	speed    float64
	position time.Duration
	duration time.Duration
	startFn  func(ctx context.Context, src string) error
	onEnded  func()

	loads  []string
	starts []string
	speeds []float64
	seeks  []time.Duration
	stops  int
}

// NewMock creates a new mock player for testing.
func NewMock() *Mock {
	return &Mock{speed: 1}
}

func (m *Mock) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.src
}

func (m *Mock) Load(src string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads = append(m.loads, src)
	m.src = src
	m.state = Empty
	if src != "" {
		m.state = Loaded
	}
}

func (m *Mock) SetSpeed(rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.speed = rate
	m.speeds = append(m.speeds, rate)
}

// Start records the call and runs the start func, if any, without holding
// the mock's lock.
func (m *Mock) Start(ctx context.Context) error {
	m.mu.Lock()
	src := m.src
	fn := m.startFn
	m.starts = append(m.starts, src)
	m.mu.Unlock()

	if src == "" {
		return ErrNoSource
	}
	if fn != nil {
		if err := fn(ctx, src); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.src == src {
		m.state = Playing
	}
	return nil
}

func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	if m.state == Playing {
		m.state = Loaded
	}
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Seek(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeks = append(m.seeks, pos)
	m.position = pos
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) OnEnded(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnded = fn
}

// Test helpers

// SetStartFunc makes Start call fn with the bound source and return its error.
func (m *Mock) SetStartFunc(fn func(ctx context.Context, src string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startFn = fn
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) Speed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speed
}

func (m *Mock) Loads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loads...)
}

func (m *Mock) Starts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.starts...)
}

func (m *Mock) Speeds() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.speeds...)
}

func (m *Mock) Seeks() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seeks...)
}

func (m *Mock) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// SimulateEnded simulates the bound clip playing to its end.
func (m *Mock) SimulateEnded() {
	m.mu.Lock()
	if m.state == Playing {
		m.state = Loaded
	}
	fn := m.onEnded
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}
