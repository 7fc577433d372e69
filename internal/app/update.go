// internal/app/update.go
package app

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/llehouerou/shadow/internal/errmsg"
	"github.com/llehouerou/shadow/internal/keymap"
	"github.com/llehouerou/shadow/internal/playback"
)

// Update handles messages and returns updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.list.Scroll(len(m.host.Phrases()), m.listHeight())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		m.setView(m.remote.View())
		return m, TickCmd()

	case StateChangedMsg:
		m.setView(msg.Current)
		return m, m.WatchEvents()

	case PlaybackEventMsg:
		if msg.Type == playback.EventPlay || msg.Type == playback.EventReplay {
			m.errorMsg = ""
		}
		return m, m.WatchEvents()

	case PlaybackErrorMsg:
		m.errorMsg = errmsg.FormatPlayback(playback.ErrorEvent(msg))
		return m, m.WatchEvents()

	case ErrorMsg:
		m.errorMsg = msg.Text
		return m, nil

	case ControllerClosedMsg:
		return m, nil
	}
	return m, nil
}

// setView adopts a controller view. The list cursor follows the playing
// phrase, and the start of a between-clip pause is remembered for the bar.
func (m *Model) setView(v playback.View) {
	if v.ShowProgress && (!m.view.ShowProgress || v.Index != m.view.Index || v.Phase != m.view.Phase) {
		m.pauseStarted = m.now()
	}
	if v.Index >= 0 && v.Index != m.view.Index {
		m.list.Follow(v.Index, len(m.host.Phrases()), m.listHeight())
	}
	m.view = v
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.resolver.Resolve(msg.String())
	if m.showHelp {
		action = m.resolver.ResolveIn(msg.String(), "global")
	}
	if action == "" {
		return m, nil
	}
	m.log.Debug("key action", zap.String("action", string(action)))

	switch action {
	case keymap.ActionQuit:
		return m, tea.Quit
	case keymap.ActionHelp:
		m.showHelp = !m.showHelp
	case keymap.ActionPlayPause:
		if m.remote.View().State == playback.StatePlaying {
			m.remote.HandlePause()
		} else {
			m.remote.HandlePlay()
		}
	case keymap.ActionStop:
		m.remote.HandleStop()
	case keymap.ActionReplay:
		m.remote.HandleReplay()
	case keymap.ActionNext:
		m.remote.HandleNext()
	case keymap.ActionPrev:
		m.remote.HandlePrevious()
	case keymap.ActionSelect:
		if len(m.host.Phrases()) > 0 {
			m.remote.HandlePlayPhrase(m.list.Pos(), playback.FirstSide(m.host.PresentationConfig()))
		}
	case keymap.ActionMoveUp:
		m.list.Move(-1, len(m.host.Phrases()), m.listHeight())
	case keymap.ActionMoveDown:
		m.list.Move(1, len(m.host.Phrases()), m.listHeight())
	case keymap.ActionJumpStart:
		m.list.Jump(0, len(m.host.Phrases()), m.listHeight())
	case keymap.ActionJumpEnd:
		m.list.Jump(len(m.host.Phrases())-1, len(m.host.Phrases()), m.listHeight())
	case keymap.ActionToggleLoop:
		m.host.UpdateConfig(func(c *playback.Config) { c.EnableLoop = !c.EnableLoop })
	case keymap.ActionToggleRecall:
		m.host.UpdateConfig(func(c *playback.Config) { c.EnableInputPlayback = !c.EnableInputPlayback })
	case keymap.ActionToggleOrder:
		m.host.UpdateConfig(func(c *playback.Config) { c.EnableOutputBeforeInput = !c.EnableOutputBeforeInput })
	case keymap.ActionVolumeUp:
		m.audio.SetVolume(m.audio.Volume() + volumeStep)
		return m, m.saveVolumeCmd()
	case keymap.ActionVolumeDown:
		m.audio.SetVolume(m.audio.Volume() - volumeStep)
		return m, m.saveVolumeCmd()
	case keymap.ActionToggleMute:
		m.audio.SetMuted(!m.audio.Muted())
		return m, m.saveVolumeCmd()
	}

	m.setView(m.remote.View())
	return m, nil
}
