// Package progress coalesces study progress signals into persisted snapshots.
package progress

import (
	"context"
	"fmt"
	"time"
)

// Kind is how a phrase was studied.
type Kind int

const (
	// Viewed means the learner browsed onto the phrase while paused.
	Viewed Kind = iota
	// Listened means the phrase was played through.
	Listened
)

func (k Kind) String() string {
	switch k {
	case Viewed:
		return "viewed"
	case Listened:
		return "listened"
	default:
		return "unknown"
	}
}

// Completion is how the end of a list was reached.
type Completion int

const (
	ViaPlayback Completion = iota
	ViaBrowsing
)

func (c Completion) String() string {
	if c == ViaBrowsing {
		return "browsing"
	}
	return "playback"
}

// Snapshot is one persisted progress write.
type Snapshot struct {
	CollectionID string
	ItemType     string
	PhraseIndex  int
	Key          string
	Kind         Kind
	Total        int
	// Viewed and Listened are the sorted distinct phrase indexes seen so far.
	Viewed    []int
	Listened  []int
	Timestamp time.Time
}

// Store persists progress.
type Store interface {
	SaveProgress(ctx context.Context, s Snapshot) error
	MarkCompleted(ctx context.Context, collectionID string, via Completion, at time.Time) error
}

// Milestone is reported every Nth distinct phrase of one kind.
type Milestone struct {
	CollectionID string
	Kind         Kind
	Count        int
	Total        int
}

func key(collectionID string, index int) string {
	return fmt.Sprintf("%s-%d", collectionID, index)
}
