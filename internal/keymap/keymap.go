package keymap

// Binding describes a single key binding.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
	Context     string // "global", "playback", "list", "presentation"
}

// Bindings contains all key bindings.
var Bindings = []Binding{
	// Global
	{ActionQuit, []string{"q", "ctrl+c"}, "Quit", "global"},
	{ActionHelp, []string{"?"}, "Toggle help", "global"},

	// Playback
	{ActionPlayPause, []string{" "}, "Play/pause", "playback"},
	{ActionStop, []string{"s"}, "Stop", "playback"},
	{ActionReplay, []string{"r"}, "Replay from the start", "playback"},
	{ActionNext, []string{"n", "pgdown"}, "Next phrase", "playback"},
	{ActionPrev, []string{"p", "pgup"}, "Previous phrase", "playback"},
	{ActionVolumeUp, []string{"+", "="}, "Volume up", "playback"},
	{ActionVolumeDown, []string{"-"}, "Volume down", "playback"},
	{ActionToggleMute, []string{"m"}, "Mute", "playback"},

	// Phrase list
	{ActionSelect, []string{"enter"}, "Play phrase", "list"},
	{ActionMoveDown, []string{"j", "down"}, "Move down", "list"},
	{ActionMoveUp, []string{"k", "up"}, "Move up", "list"},
	{ActionJumpStart, []string{"g", "home"}, "First phrase", "list"},
	{ActionJumpEnd, []string{"G", "end"}, "Last phrase", "list"},

	// Presentation
	{ActionToggleLoop, []string{"l"}, "Toggle loop", "presentation"},
	{ActionToggleRecall, []string{"i"}, "Toggle recall clip", "presentation"},
	{ActionToggleOrder, []string{"o"}, "Toggle output first", "presentation"},
}

// ByContext returns key bindings filtered by context.
func ByContext(context string) []Binding {
	var result []Binding
	for _, kb := range Bindings {
		if kb.Context == context {
			result = append(result, kb)
		}
	}
	return result
}
