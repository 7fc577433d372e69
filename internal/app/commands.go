// internal/app/commands.go
package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/shadow/internal/errmsg"
)

const (
	tickInterval = 200 * time.Millisecond
	saveTimeout  = 2 * time.Second
	volumeStep   = 0.05
	scrollMargin = 2
)

// TickCmd returns a command that sends TickMsg after the refresh interval.
func TickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// WatchEvents returns a command that waits for the next controller message.
// It listens on all subscription channels and converts them to tea.Msg.
func (m Model) WatchEvents() tea.Cmd {
	if m.sub == nil {
		return nil
	}
	sub := m.sub
	return func() tea.Msg {
		select {
		case e := <-sub.StateChanged:
			return StateChangedMsg(e)
		case e := <-sub.Events:
			return PlaybackEventMsg(e)
		case e := <-sub.Error:
			return PlaybackErrorMsg(e)
		case <-sub.Done:
			return ControllerClosedMsg{}
		}
	}
}

func (m Model) replayCmd() tea.Cmd {
	replay := m.remote.HandleReplay
	return func() tea.Msg {
		replay()
		return nil
	}
}

// saveVolumeCmd persists the volume in the background.
func (m Model) saveVolumeCmd() tea.Cmd {
	if m.store == nil {
		return nil
	}
	store := m.store
	volume, muted := m.audio.Volume(), m.audio.Muted()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := store.SaveVolume(ctx, volume, muted); err != nil {
			return ErrorMsg{Text: errmsg.Format(errmsg.OpVolumeSave, err)}
		}
		return nil
	}
}
