package player

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"go.uber.org/zap"
)

const speakerRate = beep.SampleRate(44100)

var (
	// ErrNoSource is returned by Start when nothing is loaded.
	ErrNoSource = errors.New("no source loaded")
	// ErrSuperseded is returned by Start when Load or Stop ran while the
	// clip was being fetched. It wraps context.Canceled.
	ErrSuperseded = fmt.Errorf("start superseded: %w", context.Canceled)
)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(speakerRate, speakerRate.N(time.Second/10))
	})
	return speakerErr
}

// Player plays one clip at a time through the shared speaker.
//
// Every Load, Start and Stop bumps a generation counter. A fetch or an end
// of stream belonging to an older generation is discarded.
type Player struct {
	mu    sync.Mutex
	state State
	src   string
	speed float64
	gen   uint64

	clip      clip
	resampler *beep.Resampler
	volume    *effects.Volume
	duration  time.Duration

	volumeLevel float64
	muted       bool

	onEnded func()
	client  *http.Client
	log     *zap.Logger
}

// Option configures a Player.
type Option func(*Player)

// WithHTTPClient sets the client used for remote clips.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Player) { p.client = c }
}

// WithLogger sets the player's logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Player) { p.log = l }
}

// New creates an empty player.
func New(opts ...Option) *Player {
	p := &Player{
		speed:       1,
		volumeLevel: 1,
		client:      &http.Client{Timeout: 30 * time.Second},
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Source returns the bound source, "" when empty.
func (p *Player) Source() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src
}

// State returns the player state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Load binds src, stopping whatever was playing. Load("") empties the player.
func (p *Player) Load(src string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.closeLocked()
	p.src = src
	p.duration = 0
	p.state = Empty
	if src != "" {
		p.state = Loaded
	}
}

// SetSpeed sets the playback rate. It applies immediately to a playing clip.
func (p *Player) SetSpeed(rate float64) {
	if rate <= 0 {
		rate = 1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.speed = rate
	if p.resampler != nil {
		speaker.Lock()
		p.resampler.SetRatio(p.ratioLocked())
		speaker.Unlock()
	}
}

// Start plays the bound clip from the top. It returns once the clip is
// decoded and handed to the speaker.
func (p *Player) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.src == "" {
		p.mu.Unlock()
		return ErrNoSource
	}
	p.gen++
	p.closeLocked()
	gen, src := p.gen, p.src
	p.mu.Unlock()

	if err := initSpeaker(); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	c, err := open(ctx, p.client, src)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || ctx.Err() != nil {
		c.streamer.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrSuperseded
	}

	p.clip = c
	p.duration = c.duration()
	p.resampler = beep.ResampleRatio(4, p.ratioLocked(), c.streamer)
	p.volume = &effects.Volume{
		Streamer: p.resampler,
		Base:     2,
		Volume:   levelToVolume(p.volumeLevel),
		Silent:   p.muted,
	}
	p.state = Playing
	p.log.Debug("clip started", zap.String("src", src), zap.Duration("duration", p.duration))

	// The callback runs under the speaker lock.
	speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
		go p.finished(gen)
	})))
	return nil
}

func (p *Player) finished(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.state != Playing {
		p.mu.Unlock()
		return
	}
	p.closeLocked()
	fn := p.onEnded
	p.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop halts playback and keeps the source bound.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.closeLocked()
}

func (p *Player) closeLocked() {
	if p.clip.streamer == nil {
		return
	}
	speaker.Clear()
	p.clip.streamer.Close()
	p.clip = clip{}
	p.resampler = nil
	p.volume = nil
	if p.state == Playing {
		p.state = Loaded
	}
}

// ratioLocked combines the clip-to-speaker resampling with the playback rate.
func (p *Player) ratioLocked() float64 {
	if p.clip.streamer == nil {
		return p.speed
	}
	return float64(p.clip.format.SampleRate) / float64(speakerRate) * p.speed
}

// Position returns how far into the clip playback is.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clip.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := p.clip.streamer.Position()
	speaker.Unlock()
	return p.clip.format.SampleRate.D(pos)
}

// Seek moves the playing clip to pos. It does nothing unless a clip is
// playing.
func (p *Player) Seek(pos time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Playing || p.clip.streamer == nil {
		return
	}
	speaker.Lock()
	defer speaker.Unlock()
	n := p.clip.format.SampleRate.N(max(pos, 0))
	n = min(n, max(p.clip.streamer.Len()-1, 0))
	if err := p.clip.streamer.Seek(n); err != nil {
		p.log.Warn("seek failed", zap.String("src", p.src), zap.Duration("pos", pos), zap.Error(err))
	}
}

// Duration returns the length of the last started clip.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// OnEnded registers fn to run when a clip plays to its end. fn runs on its
// own goroutine without any player lock held.
func (p *Player) OnEnded(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEnded = fn
}

// Close stops playback and empties the player.
func (p *Player) Close() {
	p.Load("")
}
