// internal/app/app.go
package app

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/llehouerou/shadow/internal/keymap"
	"github.com/llehouerou/shadow/internal/phrase"
	"github.com/llehouerou/shadow/internal/playback"
	"github.com/llehouerou/shadow/internal/state"
	"github.com/llehouerou/shadow/internal/ui/cursor"
	"github.com/llehouerou/shadow/internal/ui/playerbar"
)

// Audio is the volume and position surface of the player.
type Audio interface {
	playerbar.Audio
	SetVolume(level float64)
	SetMuted(muted bool)
}

// Host is the session the controller plays from.
type Host interface {
	Collection() phrase.Collection
	Phrases() []phrase.Phrase
	PresentationConfig() playback.Config
	UpdateConfig(fn func(*playback.Config)) playback.Config
}

// Deps are the collaborators the model drives.
type Deps struct {
	Remote       playback.Remote
	Subscription *playback.Subscription
	Host         Host
	Audio        Audio
	Store        state.Interface
	// History is the progress restored at startup, nil for a new collection.
	History  *state.CollectionProgress
	Autoplay bool
	// Warning is shown in the footer until the first playback event.
	Warning string
	Logger  *zap.Logger
	Now     func() time.Time
}

// Model is the root application model.
type Model struct {
	remote   playback.Remote
	sub      *playback.Subscription
	host     Host
	audio    Audio
	store    state.Interface
	log      *zap.Logger
	now      func() time.Time
	autoplay bool

	resolver *keymap.Resolver
	keys     helpKeys
	help     help.Model
	showHelp bool

	view         playback.View
	pauseStarted time.Time
	list         cursor.Cursor

	history  *state.CollectionProgress
	errorMsg string

	width  int
	height int
}

// New creates the application model.
func New(d Deps) Model {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	m := Model{
		remote:   d.Remote,
		sub:      d.Subscription,
		host:     d.Host,
		audio:    d.Audio,
		store:    d.Store,
		log:      d.Logger,
		now:      d.Now,
		autoplay: d.Autoplay,
		resolver: keymap.NewResolver(keymap.Bindings),
		keys:     newHelpKeys(keymap.Bindings),
		help:     help.New(),
		list:     cursor.New(scrollMargin),
		history:  d.History,
		errorMsg: d.Warning,
	}
	m.view = m.remote.View()
	if h := d.History; h != nil && h.PhraseIndex >= 0 {
		m.list.Jump(h.PhraseIndex, len(m.host.Phrases()), 0)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.WatchEvents(), TickCmd()}
	if m.autoplay {
		cmds = append(cmds, m.replayCmd())
	}
	return tea.Batch(cmds...)
}
