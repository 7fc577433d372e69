// Package keymap defines key bindings and action dispatch for the application.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	// Global actions
	ActionQuit Action = "quit"
	ActionHelp Action = "help"

	// Playback actions
	ActionPlayPause Action = "play_pause"
	ActionStop      Action = "stop"
	ActionReplay    Action = "replay"
	ActionNext      Action = "next"
	ActionPrev      Action = "prev"

	// Phrase list actions
	ActionSelect    Action = "select" // enter - play the phrase under the cursor
	ActionMoveUp    Action = "move_up"
	ActionMoveDown  Action = "move_down"
	ActionJumpStart Action = "jump_start"
	ActionJumpEnd   Action = "jump_end"

	// Presentation toggles
	ActionToggleLoop   Action = "toggle_loop"
	ActionToggleRecall Action = "toggle_recall"
	ActionToggleOrder  Action = "toggle_order"

	// Volume
	ActionVolumeUp   Action = "volume_up"
	ActionVolumeDown Action = "volume_down"
	ActionToggleMute Action = "toggle_mute"
)
