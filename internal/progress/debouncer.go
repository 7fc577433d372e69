package progress

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/shadow/internal/phrase"
)

// DefaultQuiet is how long notifications must stop before one is written.
const DefaultQuiet = 500 * time.Millisecond

const writeTimeout = 5 * time.Second

// Options configures a Debouncer.
type Options struct {
	CollectionID string
	ItemType     string
	Quiet        time.Duration

	// MilestoneEvery reports a milestone each time the number of distinct
	// phrases of one kind reaches a multiple of it. Zero disables milestones.
	MilestoneEvery int
	OnMilestone    func(Milestone)

	// Viewed and Listened seed the sets restored from the store.
	Viewed   []int
	Listened []int

	Logger *zap.Logger
	Now    func() time.Time
}

// Debouncer coalesces bursts of progress notifications into one write
// after a quiet period. Flush and ListCompleted write immediately.
type Debouncer struct {
	store Store
	opts  Options

	mu       sync.Mutex
	timer    *time.Timer
	pending  *Snapshot
	viewed   map[int]struct{}
	listened map[int]struct{}
	closed   bool

	// writeMu serializes store writes.
	writeMu sync.Mutex
}

// NewDebouncer creates a debouncer writing to store.
func NewDebouncer(store Store, opts Options) *Debouncer {
	if opts.Quiet <= 0 {
		opts.Quiet = DefaultQuiet
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	d := &Debouncer{
		store:    store,
		opts:     opts,
		viewed:   make(map[int]struct{}),
		listened: make(map[int]struct{}),
	}
	for _, i := range opts.Viewed {
		d.viewed[i] = struct{}{}
	}
	for _, i := range opts.Listened {
		d.listened[i] = struct{}{}
	}
	return d
}

// Notify records that phrases[index] was studied as kind. Out-of-range
// indexes are ignored.
func (d *Debouncer) Notify(phrases []phrase.Phrase, index int, kind Kind) {
	if index < 0 || index >= len(phrases) {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	set := d.viewed
	if kind == Listened {
		set = d.listened
	}
	_, seen := set[index]
	set[index] = struct{}{}

	snap := d.snapshotLocked(index, kind, len(phrases))
	d.pending = &snap

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.opts.Quiet, d.fire)

	var m *Milestone
	if every := d.opts.MilestoneEvery; !seen && every > 0 && len(set)%every == 0 {
		m = &Milestone{
			CollectionID: d.opts.CollectionID,
			Kind:         kind,
			Count:        len(set),
			Total:        len(phrases),
		}
	}
	d.mu.Unlock()

	if m != nil {
		d.opts.Logger.Info("progress milestone",
			zap.String("collection", m.CollectionID),
			zap.Stringer("kind", m.Kind),
			zap.Int("count", m.Count))
		if d.opts.OnMilestone != nil {
			d.opts.OnMilestone(*m)
		}
	}
}

func (d *Debouncer) snapshotLocked(index int, kind Kind, total int) Snapshot {
	return Snapshot{
		CollectionID: d.opts.CollectionID,
		ItemType:     d.opts.ItemType,
		PhraseIndex:  index,
		Key:          key(d.opts.CollectionID, index),
		Kind:         kind,
		Total:        total,
		Viewed:       slices.Sorted(maps.Keys(d.viewed)),
		Listened:     slices.Sorted(maps.Keys(d.listened)),
		Timestamp:    d.opts.Now(),
	}
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	d.write(pending)
}

// Flush writes any pending snapshot now.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	d.write(pending)
}

func (d *Debouncer) write(s *Snapshot) {
	if s == nil {
		return
	}
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := d.store.SaveProgress(ctx, *s); err != nil {
		d.opts.Logger.Warn("saving progress failed", zap.String("key", s.Key), zap.Error(err))
	}
}

// ListCompleted flushes pending progress and records that the list was
// finished.
func (d *Debouncer) ListCompleted(via Completion) {
	d.Flush()

	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := d.store.MarkCompleted(ctx, d.opts.CollectionID, via, d.opts.Now()); err != nil {
		d.opts.Logger.Warn("saving list completion failed",
			zap.String("collection", d.opts.CollectionID),
			zap.Stringer("via", via),
			zap.Error(err))
	}
}

// Counts returns how many distinct phrases were viewed and listened.
func (d *Debouncer) Counts() (viewed, listened int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.viewed), len(d.listened)
}

// Close flushes and stops accepting notifications.
func (d *Debouncer) Close() error {
	d.Flush()
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}
