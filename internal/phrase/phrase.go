// Package phrase defines the bilingual study items played by the shadowing engine.
package phrase

import "time"

// Side identifies one of the two audio facets of a phrase.
type Side int

const (
	Input Side = iota
	Output
)

// String returns the side name as stored in collection files.
func (s Side) String() string {
	switch s {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "unknown"
	}
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Input {
		return Output
	}
	return Input
}

// ParseSide converts a stored side name back to a Side.
func ParseSide(name string) (Side, bool) {
	switch name {
	case "input":
		return Input, true
	case "output":
		return Output, true
	default:
		return Input, false
	}
}

// Audio is a pre-rendered clip reference.
type Audio struct {
	URL      string
	Duration time.Duration
}

// Phrase is one study item. The engine treats it as immutable; regenerated
// audio is applied to a copy via WithAudio.
type Phrase struct {
	Input        string
	Translated   string
	Romanization string

	InputAudio  *Audio
	OutputAudio *Audio

	InputLang   string
	OutputLang  string
	InputVoice  string
	OutputVoice string
}

// Audio returns the clip for a side, or nil if none is attached.
func (p Phrase) Audio(s Side) *Audio {
	if s == Output {
		return p.OutputAudio
	}
	return p.InputAudio
}

// AudioURL returns the clip URL for a side, or "" if missing.
func (p Phrase) AudioURL(s Side) string {
	if a := p.Audio(s); a != nil {
		return a.URL
	}
	return ""
}

// AudioDuration returns the clip duration for a side, or 0 if missing.
func (p Phrase) AudioDuration(s Side) time.Duration {
	if a := p.Audio(s); a != nil {
		return a.Duration
	}
	return 0
}

// Text returns the text spoken on a side.
func (p Phrase) Text(s Side) string {
	if s == Output {
		return p.Translated
	}
	return p.Input
}

// Lang returns the language tag of a side.
func (p Phrase) Lang(s Side) string {
	if s == Output {
		return p.OutputLang
	}
	return p.InputLang
}

// Voice returns the voice tag of a side.
func (p Phrase) Voice(s Side) string {
	if s == Output {
		return p.OutputVoice
	}
	return p.InputVoice
}

// WithAudio returns a copy of p with the clip for side replaced.
func (p Phrase) WithAudio(s Side, a Audio) Phrase {
	if s == Output {
		p.OutputAudio = &a
	} else {
		p.InputAudio = &a
	}
	return p
}
