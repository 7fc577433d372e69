package playback

import "github.com/llehouerou/shadow/internal/phrase"

// RecallSide returns the side heard first under cfg.
func RecallSide(cfg Config) phrase.Side {
	if cfg.EnableOutputBeforeInput {
		return phrase.Output
	}
	return phrase.Input
}

// ShadowSide returns the side heard second under cfg.
func ShadowSide(cfg Config) phrase.Side {
	return RecallSide(cfg).Other()
}

// IsRecall reports whether side plays the recall role under cfg.
func IsRecall(side phrase.Side, cfg Config) bool {
	return side == RecallSide(cfg)
}

// FirstSide returns the side a phrase starts on: recall, unless recall
// playback is disabled.
func FirstSide(cfg Config) phrase.Side {
	if cfg.EnableInputPlayback {
		return RecallSide(cfg)
	}
	return ShadowSide(cfg)
}

// Effective redirects a recall side to shadow when recall playback is disabled.
func Effective(side phrase.Side, cfg Config) phrase.Side {
	if !cfg.EnableInputPlayback && IsRecall(side, cfg) {
		return ShadowSide(cfg)
	}
	return side
}

// Advance computes the position delta steps away (+1 or -1) from (index,
// side) in a list of n phrases. Navigation wraps in both directions.
//
// With recall playback enabled, recall and shadow of one phrase are adjacent
// steps. With it disabled, every step lands on the shadow side of the
// neighbouring phrase.
func Advance(index int, side phrase.Side, delta, n int, cfg Config) (int, phrase.Side) {
	if n <= 0 || delta == 0 {
		return index, side
	}
	index = min(max(index, 0), n-1)
	recall, shadow := RecallSide(cfg), ShadowSide(cfg)

	if !cfg.EnableInputPlayback {
		return wrap(index+sign(delta), n), shadow
	}

	if delta > 0 {
		if side == recall {
			return index, shadow
		}
		return wrap(index+1, n), recall
	}
	if side == shadow {
		return index, recall
	}
	return wrap(index-1, n), shadow
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

func sign(d int) int {
	if d < 0 {
		return -1
	}
	return 1
}
