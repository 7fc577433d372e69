// Package app is the terminal interface around the playback controller.
package app

import (
	"time"

	"github.com/llehouerou/shadow/internal/playback"
)

// TickMsg is sent periodically to refresh the progress bars.
type TickMsg time.Time

// StateChangedMsg carries a controller view change.
type StateChangedMsg playback.StateChange

// PlaybackEventMsg carries a controller analytics event.
type PlaybackEventMsg playback.Event

// PlaybackErrorMsg carries a locally recovered playback failure.
type PlaybackErrorMsg playback.ErrorEvent

// ControllerClosedMsg is sent once the controller shut down.
type ControllerClosedMsg struct{}

// ErrorMsg reports a failure from a background command.
type ErrorMsg struct {
	Text string
}
