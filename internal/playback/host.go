package playback

import (
	"context"
	"errors"
	"time"

	"github.com/llehouerou/shadow/internal/phrase"
	"github.com/llehouerou/shadow/internal/progress"
)

var (
	// ErrNoAudio means the bound phase has no playable URL.
	ErrNoAudio = errors.New("phrase has no audio for this side")
	// ErrSuperseded is returned by a resource whose start was interrupted
	// by a newer operation. It is never treated as a failure.
	ErrSuperseded = errors.New("start superseded by a newer operation")
)

// Resource is the single shared playable handle.
//
// Exactly one source is bound at a time. Load("") empties the resource and
// drops any buffered content. Start blocks until playback actually began or
// failed; ctx only bounds that wait, not the playback itself. The controller
// always calls Start off its own lock, and the ended callback must not be
// invoked while the resource holds a lock of its own.
type Resource interface {
	Source() string
	Load(src string)
	SetSpeed(rate float64)
	Start(ctx context.Context) error
	Stop()
	Position() time.Duration
	Duration() time.Duration
	// Seek moves the playing clip to pos, clamped to the clip.
	Seek(pos time.Duration)
	// OnEnded registers the callback run when the bound clip finishes.
	OnEnded(fn func())
}

// Host supplies the phrase list and presentation policy. Both are read on
// every operation. SetPhrases is only used to persist regenerated audio.
type Host interface {
	Phrases() []phrase.Phrase
	PresentationConfig() Config
	SetPhrases(ctx context.Context, phrases []phrase.Phrase) error
}

// SynthesisRequest describes one clip to render.
type SynthesisRequest struct {
	Text  string
	Lang  string
	Voice string
}

// Synthesizer renders text to a playable clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (phrase.Audio, error)
}

// ProgressNotifier receives study progress signals.
type ProgressNotifier interface {
	Notify(phrases []phrase.Phrase, index int, kind progress.Kind)
	Flush()
	ListCompleted(via progress.Completion)
}

type nopProgress struct{}

func (nopProgress) Notify([]phrase.Phrase, int, progress.Kind) {}
func (nopProgress) Flush()                                     {}
func (nopProgress) ListCompleted(progress.Completion)          {}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, ErrSuperseded)
}
