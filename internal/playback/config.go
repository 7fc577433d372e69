package playback

import (
	"time"

	"github.com/llehouerou/shadow/internal/phrase"
)

// Config is the presentation policy supplied by the host. It is re-read on
// every operation and may change between any two of them.
type Config struct {
	// EnableInputPlayback controls whether the recall clip plays at all.
	EnableInputPlayback bool
	// EnableOutputBeforeInput makes the output side the recall side.
	EnableOutputBeforeInput bool

	// Pause after the recall clip so the learner can try to recall the translation.
	EnableRecallPause     bool
	RecallPauseMultiplier float64
	// Pause after the shadow clip so the learner can repeat it aloud.
	EnableShadowPause     bool
	ShadowPauseMultiplier float64

	DelayBetweenPhrases time.Duration
	InputSpeed          float64
	OutputSpeed         float64
	EnableLoop          bool
}

// DefaultConfig returns the policy used when the host supplies none.
func DefaultConfig() Config {
	return Config{
		EnableInputPlayback:   true,
		EnableRecallPause:     true,
		RecallPauseMultiplier: 1,
		EnableShadowPause:     true,
		ShadowPauseMultiplier: 1.5,
		DelayBetweenPhrases:   500 * time.Millisecond,
		InputSpeed:            1,
		OutputSpeed:           1,
	}
}

// Speed returns the playback rate for a side.
func (c Config) Speed(s phrase.Side) float64 {
	rate := c.InputSpeed
	if s == phrase.Output {
		rate = c.OutputSpeed
	}
	if rate <= 0 {
		return 1
	}
	return rate
}

// RecallPause returns the pause following a recall clip of the given length.
func (c Config) RecallPause(clip time.Duration) time.Duration {
	if !c.EnableRecallPause {
		return 0
	}
	return scale(clip, c.RecallPauseMultiplier)
}

// ShadowPause returns the pause following a shadow clip of the given length.
func (c Config) ShadowPause(clip time.Duration) time.Duration {
	if !c.EnableShadowPause {
		return 0
	}
	return scale(clip, c.ShadowPauseMultiplier)
}

func scale(d time.Duration, m float64) time.Duration {
	if m <= 0 {
		m = 1
	}
	return time.Duration(float64(d) * m)
}
