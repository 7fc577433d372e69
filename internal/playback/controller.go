package playback

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/shadow/internal/phrase"
)

// Scheduler delay names.
const (
	delayReveal  = "reveal"
	delayPromote = "promote"
	delayEnded   = "ended"
)

const (
	DefaultRevealDelay  = 1500 * time.Millisecond
	DefaultPromoteDelay = 2500 * time.Millisecond
)

// Options configures a Controller. Every collaborator is optional.
type Options struct {
	CollectionID string
	Album        string
	Artwork      string

	Transport   Transport
	Synthesizer Synthesizer
	Progress    ProgressNotifier
	Logger      *zap.Logger

	// RevealDelay is how long the title stays up after Replay; PromoteDelay
	// follows it before the cursor moves onto the first phrase.
	RevealDelay  time.Duration
	PromoteDelay time.Duration
}

type target struct {
	index int
	side  phrase.Side
}

// Controller is the phrase playback state machine.
//
// A single mutex serializes every public operation, every fired delay and
// every completion of an asynchronous start, so all of them observe the
// current state rather than a snapshot taken when they were scheduled.
type Controller struct {
	mu sync.Mutex

	res       Resource
	host      Host
	transport Transport
	synth     Synthesizer
	progress  ProgressNotifier
	log       *zap.Logger
	opts      Options

	sched *Scheduler
	seq   Sequencer

	index        int
	phase        phrase.Side
	paused       bool
	stopped      bool
	replaying    bool
	showTitle    bool
	showProgress bool
	progressDur  time.Duration

	republish    bool
	cancelStart  context.CancelFunc
	regenerating map[target]*regenJob
	// unlocked holds calls that may block on disk or the session bus. do
	// runs them in order after releasing mu.
	unlocked []func()

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	subs   []*Subscription
	subsMu sync.RWMutex
}

// New creates a controller bound to res and host, and binds the transport
// handlers. The controller starts Stopped.
func New(res Resource, host Host, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Transport == nil {
		opts.Transport = NopTransport{}
	}
	if opts.Progress == nil {
		opts.Progress = nopProgress{}
	}
	if opts.RevealDelay <= 0 {
		opts.RevealDelay = DefaultRevealDelay
	}
	if opts.PromoteDelay <= 0 {
		opts.PromoteDelay = DefaultPromoteDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		res:          res,
		host:         host,
		synth:        opts.Synthesizer,
		progress:     opts.Progress,
		log:          opts.Logger,
		opts:         opts,
		index:        -1,
		phase:        FirstSide(host.PresentationConfig()),
		paused:       true,
		stopped:      true,
		regenerating: make(map[target]*regenJob),
		ctx:          ctx,
		cancel:       cancel,
	}
	c.transport = guardedTransport{t: opts.Transport, log: c.log}
	c.sched = NewScheduler(func(fn func()) { c.do("delay", fn) })

	res.OnEnded(c.AudioEnded)
	c.transport.Bind(Handlers{
		OnPlay:     c.Play,
		OnPause:    func() { c.Pause(PauseExternal) },
		OnNext:     c.Next,
		OnPrevious: c.Previous,
		OnSeek:     c.Seek,
	})
	return c
}

// do runs fn under the lock. A panic is logged rather than propagated, and
// any change to the view is republished to the transport and subscribers.
// Calls queued with afterUnlock run once the lock is released.
func (c *Controller) do(op string, fn func()) {
	for _, call := range c.locked(op, fn) {
		c.guard(op, call)
	}
}

func (c *Controller) locked(op string, fn func()) []func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.guard(op, func() { c.run(fn) })
	pending := c.unlocked
	c.unlocked = nil
	return pending
}

func (c *Controller) guard(op string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("playback operation panicked", zap.String("op", op), zap.Any("panic", r))
		}
	}()
	fn()
}

// afterUnlock queues call to run when the current operation releases the
// lock.
func (c *Controller) afterUnlock(call func()) {
	c.unlocked = append(c.unlocked, call)
}

// run applies fn and republishes. A panic in fn still republishes.
func (c *Controller) run(fn func()) {
	before := c.viewLocked()
	defer func() {
		after := c.viewLocked()
		if after != before || c.republish {
			c.republish = false
			c.publishLocked()
		}
		if after != before {
			c.sendState(StateChange{Previous: before, Current: after})
		}
	}()
	fn()
}

// View returns the current render state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// State returns the coarse playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// CurrentPhraseIndex returns the cursor, -1 before the first phrase.
func (c *Controller) CurrentPhraseIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// viewLocked renders the state under the current config, so a recall phase
// left over from before recall playback was disabled shows as shadow.
func (c *Controller) viewLocked() View {
	return View{
		State:            c.stateLocked(),
		Index:            c.index,
		Phase:            Effective(c.phase, c.host.PresentationConfig()),
		Paused:           c.paused,
		Replaying:        c.replaying,
		ShowTitle:        c.showTitle,
		ShowProgress:     c.showProgress,
		ProgressDuration: c.progressDur,
	}
}

func (c *Controller) stateLocked() State {
	switch {
	case c.stopped:
		return StateStopped
	case c.paused:
		return StatePaused
	default:
		return StatePlaying
	}
}

// cursor returns the phrase the resource is bound to, clamped to the list.
// During a replay the sentinel index resolves to the first phrase.
func (c *Controller) cursor(n int) int {
	return min(max(c.index, 0), n-1)
}

func (c *Controller) publishLocked() {
	phrases := c.host.Phrases()
	cfg := c.host.PresentationConfig()
	side := Effective(c.phase, cfg)

	m := NowPlaying{
		Album:   c.opts.Album,
		Artwork: c.opts.Artwork,
		Index:   c.index,
		Count:   len(phrases),
		Phase:   side,
		Status:  c.stateLocked(),
	}
	var clip time.Duration
	if len(phrases) > 0 {
		p := phrases[c.cursor(len(phrases))]
		m.Title = p.Text(side)
		m.Artist = p.Lang(side)
		clip = p.AudioDuration(side)
	}
	if clip <= 0 {
		clip = c.res.Duration()
	}

	c.transport.PublishMetadata(m)
	c.transport.PublishPosition(Position{
		Elapsed:  c.res.Position(),
		Duration: clip,
		Rate:     cfg.Speed(side),
	})
}

func (c *Controller) emitLocked(t EventType, cfg Config, clip time.Duration) {
	e := Event{
		Type:     t,
		Key:      eventKey(c.opts.CollectionID, c.index),
		Phase:    c.phase,
		Index:    c.index,
		Speed:    cfg.Speed(c.phase),
		Duration: clip,
	}
	c.log.Debug("playback event",
		zap.String("type", string(t)),
		zap.Int("index", e.Index),
		zap.Stringer("phase", e.Phase))

	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		sub.sendEvent(e)
	}
}

func (c *Controller) sendState(e StateChange) {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		sub.sendState(e)
	}
}

func (c *Controller) sendErrorLocked(op string, t target, err error) {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		sub.sendError(ErrorEvent{Operation: op, Index: t.index, Phase: t.side, Err: err})
	}
}

// Subscribe creates a new event subscription.
func (c *Controller) Subscribe() *Subscription {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	sub := newSubscription()
	c.subs = append(c.subs, sub)
	return sub
}

// Close cancels pending delays and starts, stops the resource and signals
// subscribers. Operations after Close are no-ops.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.sched.CancelAll()
	c.invalidateLocked()
	c.res.Stop()
	c.cancel()
	c.mu.Unlock()

	c.progress.Flush()

	c.subsMu.Lock()
	for _, sub := range c.subs {
		sub.close()
	}
	c.subs = nil
	c.subsMu.Unlock()
	return nil
}
