// internal/playback/state.go
package playback

import (
	"time"

	"github.com/llehouerou/shadow/internal/phrase"
)

// State is the controller's coarse playback state.
//
//	┌──────────┐  play / replay  ┌──────────┐
//	│  Stopped │ ───────────────▶│  Playing │
//	└──────────┘                 └──────────┘
//	     ▲                          │     ▲
//	     │ stop              pause  │     │ play
//	     │                          ▼     │
//	     │                       ┌──────────┐
//	     └───────────────────────│  Paused  │
//	              stop           └──────────┘
//
// Stopped is re-enterable and is also entered when a non-looping list
// finishes. There is no terminal state.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a phrase is loaded (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// PauseSource tells a pause initiated in the app from one coming from the OS.
type PauseSource int

const (
	// PauseLocal keeps the resource loaded for instant resume.
	PauseLocal PauseSource = iota
	// PauseExternal also empties the resource so no stale buffer can play.
	PauseExternal
)

// String returns the source name.
func (p PauseSource) String() string {
	if p == PauseExternal {
		return "external"
	}
	return "local"
}

// View is the render-facing snapshot of the controller.
type View struct {
	State State
	// Index is -1 before the first phrase is reached, including while a
	// replay is revealing its title.
	Index  int
	Phase  phrase.Side
	Paused bool

	Replaying bool
	ShowTitle bool

	ShowProgress     bool
	ProgressDuration time.Duration
}
