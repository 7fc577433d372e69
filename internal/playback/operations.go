// internal/playback/operations.go
package playback

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/shadow/internal/phrase"
	"github.com/llehouerou/shadow/internal/progress"
)

// Play resumes at the cursor. Before the first phrase it starts a replay.
// It does nothing while the bound clip is already playing.
func (c *Controller) Play() {
	c.do("play", func() {
		phrases := c.host.Phrases()
		if len(phrases) == 0 {
			return
		}
		if c.index < 0 {
			c.replayLocked(phrases)
			return
		}
		cfg := c.host.PresentationConfig()
		idx := c.cursor(len(phrases))
		side := Effective(c.phase, cfg)
		if c.playingLocked() && idx == c.index && side == c.phase &&
			c.res.Source() == phrases[idx].AudioURL(side) {
			return
		}
		// Replaying an ended clip drops its post-clip pause.
		c.sched.CancelAll()
		c.showProgress = false
		c.progressDur = 0

		c.index = idx
		c.phase = side
		c.paused = false
		c.stopped = false
		c.republish = true
		c.startLocked(phrases, cfg, true)
		c.emitLocked(EventPlay, cfg, 0)
	})
}

// Pause halts playback and cancels every pending delay. An external pause
// also empties the resource.
func (c *Controller) Pause(src PauseSource) {
	c.do("pause", func() {
		c.invalidateLocked()
		c.sched.CancelAll()
		c.res.Stop()
		if src == PauseExternal {
			c.res.Load("")
		}
		c.paused = true
		c.showTitle = false
		c.showProgress = false
		c.republish = true
		c.afterUnlock(c.progress.Flush)
		c.emitLocked(EventPause, c.host.PresentationConfig(), 0)
	})
}

// Stop halts playback and empties the resource. The cursor is kept.
func (c *Controller) Stop() {
	c.do("stop", func() {
		c.haltLocked()
		c.emitLocked(EventStop, c.host.PresentationConfig(), 0)
	})
}

func (c *Controller) haltLocked() {
	c.invalidateLocked()
	c.sched.CancelAll()
	c.res.Stop()
	c.res.Load("")
	c.paused = true
	c.stopped = true
	c.replaying = false
	c.showTitle = false
	c.showProgress = false
	c.republish = true
}

// Replay restarts the list from its first phrase with the title shown.
func (c *Controller) Replay() {
	c.do("replay", func() {
		phrases := c.host.Phrases()
		if len(phrases) == 0 {
			return
		}
		c.replayLocked(phrases)
	})
}

func (c *Controller) replayLocked(phrases []phrase.Phrase) {
	cfg := c.host.PresentationConfig()
	c.sched.CancelAll()

	c.index = -1
	c.phase = FirstSide(cfg)
	c.replaying = true
	c.showTitle = true
	c.showProgress = false
	c.paused = false
	c.stopped = false
	c.republish = true

	// A start that fails on the spot cancels these.
	c.sched.After(delayReveal, c.opts.RevealDelay, func() {
		c.showTitle = false
		c.sched.After(delayPromote, c.opts.PromoteDelay, func() {
			if c.replaying {
				c.index = 0
				c.replaying = false
			}
		})
	})
	c.startLocked(phrases, cfg, true)
	if c.paused {
		return
	}
	c.emitLocked(EventReplay, cfg, 0)
}

// PlayPhrase jumps to phrase index on side. While paused the clip is
// auditioned on its own and the controller stays paused.
func (c *Controller) PlayPhrase(index int, side phrase.Side) {
	c.do("play phrase", func() {
		phrases := c.host.Phrases()
		if index < 0 || index >= len(phrases) {
			return
		}
		cfg := c.host.PresentationConfig()
		c.sched.CancelAll()

		c.index = index
		c.phase = Effective(side, cfg)
		c.replaying = false
		c.showTitle = false
		c.showProgress = false
		c.stopped = false
		c.republish = true
		c.startLocked(phrases, cfg, true)
		c.emitLocked(EventPlay, cfg, 0)
	})
}

// Seek moves within the playing clip. It is ignored while paused or between
// clips.
func (c *Controller) Seek(pos time.Duration) {
	c.do("seek", func() {
		if !c.playingLocked() || c.res.Source() == "" {
			return
		}
		c.res.Seek(pos)
		c.republish = true
	})
}

// Next moves one step forward.
func (c *Controller) Next() { c.Advance(1) }

// Previous moves one step back.
func (c *Controller) Previous() { c.Advance(-1) }

// Advance moves the cursor delta steps (+1 or -1) and keeps playing if it
// was playing. Landing on the shadow side counts as viewing the phrase when
// browsing while paused.
func (c *Controller) Advance(delta int) {
	c.do("advance", func() {
		phrases := c.host.Phrases()
		n := len(phrases)
		if n == 0 || delta == 0 {
			return
		}
		cfg := c.host.PresentationConfig()
		c.sched.CancelAll()

		wasPlaying := !c.paused
		from := c.cursor(n)
		next, side := Advance(from, c.phase, delta, n, cfg)

		c.index = next
		c.phase = side
		c.replaying = false
		c.showTitle = false
		c.showProgress = false
		c.stopped = false
		c.startLocked(phrases, cfg, wasPlaying)

		if side == ShadowSide(cfg) {
			ev := EventNext
			if delta < 0 {
				ev = EventPrevious
			}
			c.emitLocked(ev, cfg, 0)
			if !wasPlaying {
				c.afterUnlock(func() { c.progress.Notify(phrases, next, progress.Viewed) })
			}
		}
		if !wasPlaying && delta > 0 && next < from {
			c.afterUnlock(func() { c.progress.ListCompleted(progress.ViaBrowsing) })
		}
	})
}

// SetCurrentPhraseIndex moves the cursor without changing the phase.
// Out-of-range indexes are ignored.
func (c *Controller) SetCurrentPhraseIndex(index int) {
	c.do("set index", func() {
		phrases := c.host.Phrases()
		if index < 0 || index >= len(phrases) {
			return
		}
		c.seekLocked(phrases, index, c.phase)
	})
}

// SetCurrentPhase switches the side at the cursor.
func (c *Controller) SetCurrentPhase(side phrase.Side) {
	c.do("set phase", func() {
		phrases := c.host.Phrases()
		if len(phrases) == 0 {
			return
		}
		c.seekLocked(phrases, c.cursor(len(phrases)), side)
	})
}

func (c *Controller) seekLocked(phrases []phrase.Phrase, index int, side phrase.Side) {
	cfg := c.host.PresentationConfig()
	c.sched.CancelAll()
	c.index = index
	c.phase = Effective(side, cfg)
	c.replaying = false
	c.showTitle = false
	c.showProgress = false
	c.startLocked(phrases, cfg, !c.paused)
}

// startLocked binds the resource to the cursor. With launch set it also
// starts playback asynchronously; otherwise any in-flight start is
// superseded and the resource is left idle.
func (c *Controller) startLocked(phrases []phrase.Phrase, cfg Config, launch bool) {
	t := target{index: c.cursor(len(phrases)), side: c.phase}
	p := phrases[t.index]

	src := p.AudioURL(t.side)
	if src == "" {
		tok := c.claimLocked()
		c.res.Stop()
		c.res.Load("")
		c.regenerateLocked(p, t, launch, tok)
		return
	}
	if !launch {
		c.invalidateLocked()
		c.res.Stop()
	}
	if c.res.Source() != src {
		c.res.Load(src)
	}
	c.res.SetSpeed(cfg.Speed(t.side))
	if launch {
		c.launchLocked(t, false)
	}
}

func (c *Controller) launchLocked(t target, retried bool) {
	tok := c.claimLocked()
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelStart = cancel
	go c.awaitStart(ctx, tok, t, retried)
}

// awaitStart runs the blocking start off the lock. Its outcome is dropped
// when a newer operation has claimed the sequence in the meantime.
func (c *Controller) awaitStart(ctx context.Context, tok Token, t target, retried bool) {
	err := c.res.Start(ctx)
	c.do("start", func() {
		if !c.seq.IsCurrent(tok) {
			return
		}
		if c.cancelStart != nil {
			c.cancelStart()
			c.cancelStart = nil
		}
		if err == nil {
			c.republish = true
			return
		}
		if isCancellation(err) {
			return
		}

		c.log.Warn("playback start failed",
			zap.Int("index", t.index),
			zap.Stringer("side", t.side),
			zap.Bool("retried", retried),
			zap.Error(err))
		c.sendErrorLocked("start", t, err)

		phrases := c.host.Phrases()
		if retried || t.index >= len(phrases) {
			c.failLocked()
			return
		}
		c.regenerateLocked(phrases[t.index], t, true, tok)
	})
}

// claimLocked supersedes any in-flight start and returns a fresh token.
func (c *Controller) claimLocked() Token {
	if c.cancelStart != nil {
		c.cancelStart()
		c.cancelStart = nil
	}
	return c.seq.Claim()
}

func (c *Controller) invalidateLocked() {
	if c.cancelStart != nil {
		c.cancelStart()
		c.cancelStart = nil
	}
	c.seq.Invalidate()
}

// failLocked leaves the controller paused on an empty resource after an
// unrecoverable playback error.
func (c *Controller) failLocked() {
	c.invalidateLocked()
	c.sched.CancelAll()
	c.res.Stop()
	c.res.Load("")
	c.paused = true
	c.replaying = false
	c.showTitle = false
	c.showProgress = false
	c.progressDur = 0
	c.republish = true
}

// playingLocked reports whether a clip is bound and audible rather than
// paused or waiting out a post-clip pause.
func (c *Controller) playingLocked() bool {
	return !c.paused && !c.showProgress
}
