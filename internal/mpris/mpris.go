//go:build linux

package mpris

import (
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/shadow/internal/playback"
)

// Adapter exposes the playback controller over MPRIS on D-Bus.
//
// The controller publishes while holding its own lock, so the adapter only
// caches what it is given and never calls back synchronously.
type Adapter struct {
	server *server.Server
	player *playerAdapter
}

var _ playback.Transport = (*Adapter)(nil)

// New creates and starts a new MPRIS adapter registered under name.
func New(name, identity string) (*Adapter, error) {
	p := &playerAdapter{now: time.Now}
	a := &Adapter{player: p}
	a.server = server.NewServer(name, &rootAdapter{identity: identity}, p)

	// Start the server in background
	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

func (a *Adapter) PublishMetadata(m playback.NowPlaying) {
	a.player.mu.Lock()
	defer a.player.mu.Unlock()
	a.player.meta = m
}

func (a *Adapter) PublishPosition(pos playback.Position) {
	a.player.mu.Lock()
	defer a.player.mu.Unlock()
	a.player.pos = pos
	a.player.posAt = a.player.now()
}

func (a *Adapter) Bind(h playback.Handlers) {
	a.player.mu.Lock()
	defer a.player.mu.Unlock()
	a.player.handlers = h
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct {
	identity string
}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return r.identity, nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file", "http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/wav", "audio/flac"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter from cached state.
type playerAdapter struct {
	mu       sync.Mutex
	meta     playback.NowPlaying
	pos      playback.Position
	posAt    time.Time
	handlers playback.Handlers
	now      func() time.Time
}

// handler returns a bound handler by selector, or nil.
func (p *playerAdapter) handler(pick func(playback.Handlers) func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	return pick(p.handlers)
}

func call(fn func()) error {
	if fn != nil {
		fn()
	}
	return nil
}

func (p *playerAdapter) Next() error {
	return call(p.handler(func(h playback.Handlers) func() { return h.OnNext }))
}

func (p *playerAdapter) Previous() error {
	return call(p.handler(func(h playback.Handlers) func() { return h.OnPrevious }))
}

func (p *playerAdapter) Pause() error {
	return call(p.handler(func(h playback.Handlers) func() { return h.OnPause }))
}

func (p *playerAdapter) PlayPause() error {
	p.mu.Lock()
	playing := p.meta.Status == playback.StatePlaying
	h := p.handlers
	p.mu.Unlock()
	if playing {
		return call(h.OnPause)
	}
	return call(h.OnPlay)
}

// Stop maps to an external pause; the OS surface cannot rewind a lesson.
func (p *playerAdapter) Stop() error {
	return p.Pause()
}

func (p *playerAdapter) Play() error {
	return call(p.handler(func(h playback.Handlers) func() { return h.OnPlay }))
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	p.mu.Lock()
	seek := p.handlers.OnSeek
	target := p.positionLocked() + time.Duration(offset)*time.Microsecond
	p.mu.Unlock()
	if seek != nil {
		seek(max(target, 0))
	}
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	p.mu.Lock()
	seek := p.handlers.OnSeek
	p.mu.Unlock()
	if seek != nil {
		seek(time.Duration(position) * time.Microsecond)
	}
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return playbackStatus(p.meta.Status), nil
}

func (p *playerAdapter) Rate() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pos.Rate <= 0 {
		return 1.0, nil
	}
	return p.pos.Rate, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Rate follows the presentation settings
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return metadata(p.meta, p.pos), nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil // Volume is controlled in the app
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Position() (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked().Microseconds(), nil
}

// positionLocked extrapolates the last published position while playing.
func (p *playerAdapter) positionLocked() time.Duration {
	return extrapolate(p.pos, p.meta.Status, p.now().Sub(p.posAt))
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 0.5, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 2.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.meta.Count > 0, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.meta.Count > 0, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.meta.Count > 0, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handlers.OnSeek != nil, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

func playbackStatus(s playback.State) types.PlaybackStatus {
	switch s {
	case playback.StatePlaying:
		return types.PlaybackStatusPlaying
	case playback.StatePaused:
		return types.PlaybackStatusPaused
	case playback.StateStopped:
		return types.PlaybackStatusStopped
	}
	return types.PlaybackStatusStopped
}

func metadata(m playback.NowPlaying, pos playback.Position) types.Metadata {
	if m.Count == 0 {
		return types.Metadata{}
	}
	meta := types.Metadata{
		TrackId:     dbus.ObjectPath(formatTrackID(m.Index, m.Phase.String())),
		Length:      types.Microseconds(pos.Duration.Microseconds()),
		Title:       m.Title,
		Album:       m.Album,
		TrackNumber: max(m.Index, 0) + 1,
	}
	if m.Artist != "" {
		meta.Artist = []string{m.Artist}
	}
	if m.Artwork != "" {
		meta.ArtUrl = "file://" + m.Artwork
	}
	return meta
}

func extrapolate(pos playback.Position, status playback.State, since time.Duration) time.Duration {
	elapsed := pos.Elapsed
	if status == playback.StatePlaying && since > 0 {
		rate := pos.Rate
		if rate <= 0 {
			rate = 1
		}
		elapsed += time.Duration(float64(since) * rate)
	}
	if pos.Duration > 0 && elapsed > pos.Duration {
		elapsed = pos.Duration
	}
	return elapsed
}

func formatTrackID(index int, side string) string {
	if index < 0 {
		return "/org/mpris/MediaPlayer2/TrackList/NoTrack"
	}
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Phrase/%d_%s", index, side)
}
