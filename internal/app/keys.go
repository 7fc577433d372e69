// internal/app/keys.go
package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/llehouerou/shadow/internal/keymap"
)

// helpKeys adapts the key table to the bubbles help component.
type helpKeys struct {
	short []key.Binding
	full  [][]key.Binding
}

var helpContexts = []string{"playback", "list", "presentation", "global"}

// shortHelpActions are shown in the one-line help footer.
var shortHelpActions = []keymap.Action{
	keymap.ActionPlayPause,
	keymap.ActionReplay,
	keymap.ActionNext,
	keymap.ActionPrev,
	keymap.ActionSelect,
	keymap.ActionHelp,
	keymap.ActionQuit,
}

func newHelpKeys(bindings []keymap.Binding) helpKeys {
	byAction := make(map[keymap.Action]key.Binding)
	var k helpKeys
	for _, ctx := range helpContexts {
		var column []key.Binding
		for _, b := range bindings {
			if b.Context != ctx {
				continue
			}
			kb := key.NewBinding(
				key.WithKeys(b.Keys...),
				key.WithHelp(displayKeys(b.Keys), b.Description),
			)
			byAction[b.Action] = kb
			column = append(column, kb)
		}
		if len(column) > 0 {
			k.full = append(k.full, column)
		}
	}
	for _, a := range shortHelpActions {
		if kb, ok := byAction[a]; ok {
			k.short = append(k.short, kb)
		}
	}
	return k
}

// displayKeys renders keys for help text. The space key is spelled out.
func displayKeys(keys []string) string {
	out := make([]string, len(keys))
	for i, k := range keys {
		if k == " " {
			k = "space"
		}
		out[i] = k
	}
	return strings.Join(out, "/")
}

func (k helpKeys) ShortHelp() []key.Binding {
	return k.short
}

func (k helpKeys) FullHelp() [][]key.Binding {
	return k.full
}
