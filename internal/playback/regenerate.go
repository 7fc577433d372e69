package playback

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/shadow/internal/phrase"
)

// ErrNoSynthesizer is reported when a clip is missing or broken and nothing
// can render a replacement.
var ErrNoSynthesizer = errors.New("no synthesizer configured")

const persistTimeout = 10 * time.Second

// regenerateLocked renders a replacement clip for t in the background. At
// most one regeneration per phrase side runs at a time; a later request for
// the same side takes over the running one.
//
// When autoplay is set and tok is still current once the clip is ready,
// playback restarts once on the new clip. Otherwise the clip is only bound
// so a later Play can use it.
func (c *Controller) regenerateLocked(p phrase.Phrase, t target, autoplay bool, tok Token) {
	if c.synth == nil {
		c.log.Warn("cannot regenerate audio",
			zap.Int("index", t.index),
			zap.Stringer("side", t.side),
			zap.Error(ErrNoSynthesizer))
		c.sendErrorLocked("regenerate", t, ErrNoSynthesizer)
		if autoplay && c.seq.IsCurrent(tok) {
			c.failLocked()
		}
		return
	}
	if job, ok := c.regenerating[t]; ok {
		job.autoplay, job.tok = autoplay, tok
		return
	}
	c.regenerating[t] = &regenJob{autoplay: autoplay, tok: tok}

	req := SynthesisRequest{
		Text:  p.Text(t.side),
		Lang:  p.Lang(t.side),
		Voice: p.Voice(t.side),
	}
	c.log.Info("regenerating audio",
		zap.Int("index", t.index),
		zap.Stringer("side", t.side),
		zap.String("lang", req.Lang))
	go c.regenerate(t, req)
}

type regenJob struct {
	autoplay bool
	tok      Token
}

func (c *Controller) regenerate(t target, req SynthesisRequest) {
	audio, err := c.synth.Synthesize(c.ctx, req)
	if err == nil && audio.URL == "" {
		err = ErrNoAudio
	}
	var perr error
	if err == nil {
		if perr = c.persist(t, req.Text, audio); perr != nil {
			c.log.Warn("saving regenerated audio failed", zap.Error(perr))
		}
	}

	c.do("regenerate", func() {
		if perr != nil && !isCancellation(perr) {
			c.sendErrorLocked("persist", t, perr)
		}
		job := c.regenerating[t]
		delete(c.regenerating, t)
		if job == nil {
			return
		}
		autoplay, current := job.autoplay, c.seq.IsCurrent(job.tok)

		if err != nil {
			if isCancellation(err) {
				return
			}
			c.log.Error("audio regeneration failed",
				zap.Int("index", t.index),
				zap.Stringer("side", t.side),
				zap.Error(err))
			c.sendErrorLocked("regenerate", t, err)
			if autoplay && current {
				c.failLocked()
			}
			return
		}

		if c.cursor(max(len(c.host.Phrases()), 1)) != t.index || c.phase != t.side {
			return
		}
		if autoplay && current {
			c.res.Load(audio.URL)
			c.res.SetSpeed(c.host.PresentationConfig().Speed(t.side))
			c.launchLocked(t, true)
			return
		}
		if c.res.Source() == "" {
			c.res.Load(audio.URL)
		}
	})
}

// persist writes the regenerated clip back through the host, unless the
// phrase changed while the clip was rendering.
func (c *Controller) persist(t target, text string, audio phrase.Audio) error {
	phrases := c.host.Phrases()
	if t.index >= len(phrases) || phrases[t.index].Text(t.side) != text {
		return nil
	}
	updated := slices.Clone(phrases)
	updated[t.index] = updated[t.index].WithAudio(t.side, audio)

	ctx, cancel := context.WithTimeout(c.ctx, persistTimeout)
	defer cancel()
	if err := c.host.SetPhrases(ctx, updated); err != nil {
		return fmt.Errorf("persist phrase %d %s audio: %w", t.index, t.side, err)
	}
	return nil
}
