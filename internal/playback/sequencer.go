package playback

import "sync/atomic"

// Token identifies one play intent.
type Token uint64

// Sequencer hands out play intent tokens. Claiming a new token makes every
// previously issued token stale, so the outcome of a superseded start can be
// dropped instead of acting on it.
type Sequencer struct {
	seq atomic.Uint64
}

// Claim issues a new current token.
func (s *Sequencer) Claim() Token {
	return Token(s.seq.Add(1))
}

// IsCurrent reports whether t is the most recently claimed token.
func (s *Sequencer) IsCurrent(t Token) bool {
	return Token(s.seq.Load()) == t
}

// Invalidate makes every issued token stale without issuing a new one.
func (s *Sequencer) Invalidate() {
	s.seq.Add(1)
}
