// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import (
	"errors"
	"fmt"

	"github.com/llehouerou/shadow/internal/playback"
	"github.com/llehouerou/shadow/internal/tts"
)

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Collection operations
	OpCollectionLoad Op = "load collection"
	OpCollectionSave Op = "save collection"

	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpRegenerate    Op = "regenerate audio"

	// Progress operations
	OpProgressLoad Op = "load progress"
	OpVolumeSave   Op = "save volume"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}

// FormatPlayback turns a controller error event into a message naming the
// phrase it concerns.
func FormatPlayback(e playback.ErrorEvent) string {
	var op Op
	switch e.Operation {
	case "regenerate":
		op = OpRegenerate
	case "persist":
		op = OpCollectionSave
	default:
		op = OpPlaybackStart
	}
	context := fmt.Sprintf("phrase %d %s", e.Index+1, e.Phase)

	switch {
	case errors.Is(e.Err, tts.ErrNotConfigured), errors.Is(e.Err, playback.ErrNoSynthesizer):
		return FormatWith(op, context, errors.New("set [tts] api_key to render missing clips"))
	default:
		return FormatWith(op, context, e.Err)
	}
}
