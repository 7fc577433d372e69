package playback

import (
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/shadow/internal/phrase"
)

// NowPlaying is the metadata shown on the OS "now playing" surface.
type NowPlaying struct {
	Title   string
	Artist  string
	Album   string
	Artwork string

	Index  int
	Count  int
	Phase  phrase.Side
	Status State
}

// Position is the playback position shown on the OS surface.
type Position struct {
	Elapsed  time.Duration
	Duration time.Duration
	Rate     float64
}

// Handlers are the controller entry points an OS surface can trigger.
// OnSeek may be nil when the surface should not offer seeking.
type Handlers struct {
	OnPlay     func()
	OnPause    func()
	OnNext     func()
	OnPrevious func()
	OnSeek     func(position time.Duration)
}

// Transport bridges the controller to an OS media-control surface.
// Publishing is best-effort. Bind replaces any previous handlers.
type Transport interface {
	PublishMetadata(m NowPlaying)
	PublishPosition(p Position)
	Bind(h Handlers)
}

// NopTransport is used when no OS integration is available.
type NopTransport struct{}

func (NopTransport) PublishMetadata(NowPlaying) {}
func (NopTransport) PublishPosition(Position)   {}
func (NopTransport) Bind(Handlers)              {}

// guardedTransport swallows anything a platform transport throws.
type guardedTransport struct {
	t   Transport
	log *zap.Logger
}

func (g guardedTransport) PublishMetadata(m NowPlaying) {
	defer g.recover("publish metadata")
	g.t.PublishMetadata(m)
}

func (g guardedTransport) PublishPosition(p Position) {
	defer g.recover("publish position")
	g.t.PublishPosition(p)
}

func (g guardedTransport) Bind(h Handlers) {
	defer g.recover("bind")
	g.t.Bind(h)
}

func (g guardedTransport) recover(op string) {
	if r := recover(); r != nil {
		g.log.Debug("transport call failed", zap.String("op", op), zap.Any("panic", r))
	}
}
