package playback

import "github.com/llehouerou/shadow/internal/phrase"

// Remote is the set of controller entry points handed to a host UI.
type Remote struct {
	HandlePlay            func()
	HandlePause           func()
	HandleStop            func()
	HandleReplay          func()
	HandleNext            func()
	HandlePrevious        func()
	HandlePlayPhrase      func(index int, side phrase.Side)
	SetCurrentPhraseIndex func(index int)
	SetCurrentPhase       func(side phrase.Side)
	CurrentPhraseIndex    func() int
	View                  func() View
}

// Remote returns the controller's host-facing entry points. Pauses issued
// through it are local.
func (c *Controller) Remote() Remote {
	return Remote{
		HandlePlay:            c.Play,
		HandlePause:           func() { c.Pause(PauseLocal) },
		HandleStop:            c.Stop,
		HandleReplay:          c.Replay,
		HandleNext:            c.Next,
		HandlePrevious:        c.Previous,
		HandlePlayPhrase:      c.PlayPhrase,
		SetCurrentPhraseIndex: c.SetCurrentPhraseIndex,
		SetCurrentPhase:       c.SetCurrentPhase,
		CurrentPhraseIndex:    c.CurrentPhraseIndex,
		View:                  c.View,
	}
}
