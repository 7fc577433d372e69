package playback

import (
	"fmt"
	"time"

	"github.com/llehouerou/shadow/internal/phrase"
)

// EventType names an analytics event.
type EventType string

const (
	EventPlay       EventType = "play"
	EventPause      EventType = "pause"
	EventStop       EventType = "stop"
	EventReplay     EventType = "replay"
	EventNext       EventType = "next"
	EventPrevious   EventType = "previous"
	EventAudioEnded EventType = "audio-ended"
)

// Event is an analytics event.
//
// Emitted by:
//   - Play/Pause/Stop/Replay: once per call that reaches the phrase list
//   - Advance: next/previous, only when the move lands on the shadow side
//   - AudioEnded: audio-ended with the measured clip duration
type Event struct {
	Type     EventType
	Key      string // "<collection>-<index>"
	Phase    phrase.Side
	Index    int
	Speed    float64
	Duration time.Duration
}

// StateChange is emitted after every operation that changed the view.
type StateChange struct {
	Previous View
	Current  View
}

// ErrorEvent is emitted when playback failed and was recovered locally.
type ErrorEvent struct {
	Operation string // "start", "regenerate" or "persist"
	Index     int
	Phase     phrase.Side
	Err       error
}

func eventKey(collectionID string, index int) string {
	return fmt.Sprintf("%s-%d", collectionID, index)
}
