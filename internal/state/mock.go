// internal/state/mock.go
package state

import (
	"context"
	"database/sql"
	"slices"
	"sync"
	"time"

	"github.com/llehouerou/shadow/internal/progress"
)

// Mock is a test double for Manager.
type Mock struct {
	mu          sync.Mutex
	snapshots   []progress.Snapshot
	completions map[string][]Completion
	progress    map[string]*CollectionProgress
	volume      *VolumeState
	closed      bool

	// SaveErr, when set, is returned by SaveProgress and MarkCompleted.
	SaveErr error
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{
		completions: make(map[string][]Completion),
		progress:    make(map[string]*CollectionProgress),
	}
}

func (m *Mock) DB() *sql.DB { return nil }

func (m *Mock) SaveProgress(_ context.Context, s progress.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.snapshots = append(m.snapshots, s)
	p, ok := m.progress[s.CollectionID]
	if !ok {
		p = &CollectionProgress{CollectionID: s.CollectionID}
		m.progress[s.CollectionID] = p
	}
	p.ItemType = s.ItemType
	p.PhraseIndex = s.PhraseIndex
	p.Kind = s.Kind
	p.Total = s.Total
	p.Viewed = slices.Clone(s.Viewed)
	p.Listened = slices.Clone(s.Listened)
	p.UpdatedAt = s.Timestamp
	return nil
}

func (m *Mock) MarkCompleted(_ context.Context, collectionID string, via progress.Completion, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.completions[collectionID] = append(m.completions[collectionID], Completion{Via: via, At: at})
	return nil
}

func (m *Mock) GetProgress(_ context.Context, collectionID string) (*CollectionProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[collectionID]
	done := m.completions[collectionID]
	if !ok && len(done) == 0 {
		return nil, nil //nolint:nilnil // matches Manager
	}
	out := CollectionProgress{CollectionID: collectionID}
	if ok {
		out = *p
	}
	out.Completions = len(done)
	for _, c := range done {
		if c.At.After(out.LastCompletedAt) {
			out.LastCompletedAt = c.At
		}
	}
	return &out, nil
}

func (m *Mock) Completions(_ context.Context, collectionID string) ([]Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.completions[collectionID])
	slices.Reverse(out)
	return out, nil
}

func (m *Mock) GetVolume(context.Context) (*VolumeState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.volume == nil {
		return nil, nil
	}
	v := *m.volume
	return &v, nil
}

func (m *Mock) SaveVolume(_ context.Context, volume float64, muted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = &VolumeState{Volume: volume, Muted: muted}
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Snapshots returns every snapshot saved so far.
func (m *Mock) Snapshots() []progress.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.snapshots)
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
