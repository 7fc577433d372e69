package playback

import (
	"sort"
	"sync"
	"time"
)

// Scheduler keeps named, cancellable delays.
//
// Arming a delay under a name that is already pending replaces it. Callbacks
// are handed to the executor, and the pending check runs inside the executor,
// so a delay cancelled before the executor gets to run it never fires even
// if its timer already expired.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*delay
	nextID  uint64
	exec    func(func())
}

type delay struct {
	id    uint64
	timer *time.Timer
}

// NewScheduler creates a scheduler. exec runs fired callbacks; nil runs them
// directly on the timer goroutine.
func NewScheduler(exec func(func())) *Scheduler {
	if exec == nil {
		exec = func(fn func()) { fn() }
	}
	return &Scheduler{
		pending: make(map[string]*delay),
		exec:    exec,
	}
}

// After arms fn to run after d under name.
func (s *Scheduler) After(name string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.pending[name]; ok {
		old.timer.Stop()
	}

	s.nextID++
	id := s.nextID
	entry := &delay{id: id}
	entry.timer = time.AfterFunc(max(d, 0), func() {
		s.exec(func() {
			if s.claim(name, id) {
				fn()
			}
		})
	})
	s.pending[name] = entry
}

// claim removes the named delay if it is still the one identified by id.
func (s *Scheduler) claim(name string, id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.pending[name]
	if !ok || entry.id != id {
		return false
	}
	delete(s.pending, name)
	return true
}

// Cancel stops the named delay. Returns false if nothing was pending.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.pending[name]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(s.pending, name)
	return true
}

// CancelAll stops every pending delay and returns how many were cancelled.
func (s *Scheduler) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pending)
	for name, entry := range s.pending {
		entry.timer.Stop()
		delete(s.pending, name)
	}
	return n
}

// Pending returns the sorted names of armed delays.
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.pending))
	for name := range s.pending {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
