// internal/player/state.go
package player

// State is the lifecycle of the bound clip.
//
//	┌──────────┐  Load(src)  ┌──────────┐  Start  ┌──────────┐
//	│  Empty   │ ───────────▶│  Loaded  │ ───────▶│  Playing │
//	└──────────┘             └──────────┘         └──────────┘
//	     ▲                      ▲    │ Load("")       │   │
//	     │                      │    ▼                │   │
//	     └──────────────────────┼─────────────────────┘   │
//	          Load("")          │        Stop / ended     │
//	                            └─────────────────────────┘
//
// Stop keeps the source bound so a later Start replays it from the top.
type State int

const (
	Empty State = iota
	Loaded
	Playing
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case Loaded:
		return "Loaded"
	case Playing:
		return "Playing"
	default:
		return "Unknown"
	}
}

// HasSource returns true if a clip is bound.
func (s State) HasSource() bool {
	return s == Loaded || s == Playing
}

// CanStart returns true if Start would have something to play.
func (s State) CanStart() bool {
	return s == Loaded
}
