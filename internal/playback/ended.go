package playback

import (
	"github.com/llehouerou/shadow/internal/phrase"
	"github.com/llehouerou/shadow/internal/progress"
)

// AudioEnded handles the end of the bound clip. It is registered with the
// resource and does nothing while paused.
//
// After a recall clip the controller waits for the recall pause and then
// plays the shadow side of the same phrase. After a shadow clip it waits for
// the shadow pause plus the gap between phrases and moves to the next
// phrase, looping or stopping at the end of the list.
func (c *Controller) AudioEnded() {
	c.do("audio ended", c.endedLocked)
}

func (c *Controller) endedLocked() {
	if c.paused {
		return
	}
	phrases := c.host.Phrases()
	n := len(phrases)
	if n == 0 {
		return
	}
	cfg := c.host.PresentationConfig()

	idx, side := c.cursor(n), c.phase
	clip := phrases[idx].AudioDuration(side)
	if clip <= 0 {
		clip = c.res.Duration()
	}
	c.emitLocked(EventAudioEnded, cfg, clip)

	recall := cfg.EnableInputPlayback && IsRecall(side, cfg)
	wait := cfg.ShadowPause(clip) + cfg.DelayBetweenPhrases
	if recall {
		wait = cfg.RecallPause(clip)
	}
	if side == phrase.Output || (!cfg.EnableInputPlayback && side == ShadowSide(cfg)) {
		c.afterUnlock(func() { c.progress.Notify(phrases, idx, progress.Listened) })
	}

	c.showProgress = true
	c.progressDur = wait
	c.sched.After(delayEnded, wait, func() {
		c.continueLocked(idx, side)
	})
}

// continueLocked runs when the post-clip pause elapses.
func (c *Controller) continueLocked(idx int, side phrase.Side) {
	c.showProgress = false
	c.progressDur = 0
	if c.paused {
		return
	}
	phrases := c.host.Phrases()
	n := len(phrases)
	if n == 0 {
		return
	}
	cfg := c.host.PresentationConfig()
	idx = min(idx, n-1)

	if cfg.EnableInputPlayback && IsRecall(side, cfg) {
		c.index = idx
		c.phase = ShadowSide(cfg)
	} else {
		next := idx + 1
		if next >= n {
			if !cfg.EnableLoop {
				c.finishLocked()
				return
			}
			next = 0
		}
		c.index = next
		c.phase = FirstSide(cfg)
	}
	c.replaying = false
	c.startLocked(phrases, cfg, true)
}

// finishLocked stops after the last phrase of a non-looping list. The
// cursor returns before the first phrase so the next Play replays.
func (c *Controller) finishLocked() {
	c.haltLocked()
	c.index = -1
	c.afterUnlock(func() { c.progress.ListCompleted(progress.ViaPlayback) })
	c.emitLocked(EventStop, c.host.PresentationConfig(), 0)
}
