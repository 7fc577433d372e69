// internal/playback/controller_test.go
package playback

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/shadow/internal/phrase"
	"github.com/llehouerou/shadow/internal/player"
	"github.com/llehouerou/shadow/internal/progress"
)

var _ Resource = (*player.Mock)(nil)

// settle is long enough for any post-clip pause with the test clips.
const settle = 10 * time.Second

type testHost struct {
	mu      sync.Mutex
	phrases []phrase.Phrase
	cfg     Config
	saved   [][]phrase.Phrase
	saveErr error
}

func (h *testHost) Phrases() []phrase.Phrase {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.phrases)
}

func (h *testHost) PresentationConfig() Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg
}

func (h *testHost) SetPhrases(_ context.Context, p []phrase.Phrase) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.saveErr != nil {
		return h.saveErr
	}
	h.phrases = slices.Clone(p)
	h.saved = append(h.saved, p)
	return nil
}

func (h *testHost) update(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.cfg)
}

func (h *testHost) setPhrases(p []phrase.Phrase) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.phrases = p
}

type progressCall struct {
	Index int
	Kind  progress.Kind
}

type testProgress struct {
	mu        sync.Mutex
	calls     []progressCall
	completed []progress.Completion
	flushes   int
}

func (p *testProgress) Notify(_ []phrase.Phrase, index int, kind progress.Kind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, progressCall{index, kind})
}

func (p *testProgress) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushes++
}

func (p *testProgress) ListCompleted(via progress.Completion) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = append(p.completed, via)
}

func (p *testProgress) of(kind progress.Kind) []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []int
	for _, c := range p.calls {
		if c.Kind == kind {
			out = append(out, c.Index)
		}
	}
	return out
}

func (p *testProgress) completions() []progress.Completion {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.completed)
}

type testTransport struct {
	mu       sync.Mutex
	handlers Handlers
	meta     []NowPlaying
	panics   bool
}

func (t *testTransport) PublishMetadata(m NowPlaying) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.panics {
		panic("media session unavailable")
	}
	t.meta = append(t.meta, m)
}

func (t *testTransport) PublishPosition(Position) {
	if t.panics {
		panic("media session unavailable")
	}
}

func (t *testTransport) Bind(h Handlers) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = h
}

func (t *testTransport) last() NowPlaying {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.meta) == 0 {
		return NowPlaying{}
	}
	return t.meta[len(t.meta)-1]
}

type testSynth struct {
	mu    sync.Mutex
	reqs  []SynthesisRequest
	err   error
	block chan struct{}
}

func (s *testSynth) Synthesize(ctx context.Context, req SynthesisRequest) (phrase.Audio, error) {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	n, err, block := len(s.reqs), s.err, s.block
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return phrase.Audio{}, ctx.Err()
		}
	}
	if err != nil {
		return phrase.Audio{}, err
	}
	return phrase.Audio{URL: fmt.Sprintf("/gen/%d.mp3", n), Duration: time.Second}, nil
}

func (s *testSynth) requests() []SynthesisRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.reqs)
}

func testPhrases(n int) []phrase.Phrase {
	out := make([]phrase.Phrase, n)
	for i := range out {
		out[i] = phrase.Phrase{
			Input:       fmt.Sprintf("input %d", i),
			Translated:  fmt.Sprintf("output %d", i),
			InputLang:   "en",
			OutputLang:  "es",
			InputAudio:  &phrase.Audio{URL: fmt.Sprintf("/in/%d.mp3", i), Duration: time.Second},
			OutputAudio: &phrase.Audio{URL: fmt.Sprintf("/out/%d.mp3", i), Duration: 2 * time.Second},
		}
	}
	return out
}

type fixture struct {
	c     *Controller
	res   *player.Mock
	host  *testHost
	prog  *testProgress
	tr    *testTransport
	synth *testSynth
}

func newFixture(t *testing.T, n int, cfgFn func(*Config)) *fixture {
	t.Helper()
	cfg := DefaultConfig()
	if cfgFn != nil {
		cfgFn(&cfg)
	}
	f := &fixture{
		res:   player.NewMock(),
		host:  &testHost{phrases: testPhrases(n), cfg: cfg},
		prog:  &testProgress{},
		tr:    &testTransport{},
		synth: &testSynth{},
	}
	f.c = New(f.res, f.host, Options{
		CollectionID: "c1",
		Transport:    f.tr,
		Synthesizer:  f.synth,
		Progress:     f.prog,
	})
	t.Cleanup(func() { f.c.Close() })
	return f
}

// end simulates the bound clip finishing and lets the post-clip pause run.
func (f *fixture) end() {
	f.res.SimulateEnded()
	time.Sleep(settle)
	synctest.Wait()
}

func (f *fixture) at() (int, phrase.Side) {
	v := f.c.View()
	return v.Index, v.Phase
}

// playAt puts the controller in Playing at (index, side).
func (f *fixture) playAt(index int, side phrase.Side) {
	f.c.SetCurrentPhraseIndex(index)
	f.c.SetCurrentPhase(side)
	f.c.Play()
	synctest.Wait()
}

func TestController_StartsStopped(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		v := f.c.View()
		assert.Equal(t, StateStopped, v.State)
		assert.Equal(t, -1, v.Index)
		assert.Equal(t, -1, f.c.CurrentPhraseIndex())
		assert.True(t, v.Paused)
		assert.NotNil(t, f.tr.handlers.OnPlay, "transport handlers bound on construction")
	})
}

func TestController_PlayBeforeFirstPhraseReplays(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.c.Play()
		synctest.Wait()

		v := f.c.View()
		assert.True(t, v.Replaying)
		assert.True(t, v.ShowTitle)
		assert.Equal(t, StatePlaying, v.State)
		assert.Equal(t, []string{"/in/0.mp3"}, f.res.Starts())
	})
}

func TestController_ReplayRevealThenPromote(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.c.Replay()
		synctest.Wait()
		assert.Equal(t, -1, f.c.CurrentPhraseIndex())

		time.Sleep(DefaultRevealDelay)
		synctest.Wait()
		v := f.c.View()
		assert.False(t, v.ShowTitle)
		assert.Equal(t, -1, v.Index)

		time.Sleep(DefaultPromoteDelay)
		synctest.Wait()
		v = f.c.View()
		assert.Equal(t, 0, v.Index)
		assert.Equal(t, phrase.Input, v.Phase)
		assert.False(t, v.Replaying)
	})
}

func TestController_RepeatedReplayIsIdempotent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.c.Replay()
		time.Sleep(DefaultRevealDelay)
		f.c.Replay()
		synctest.Wait()

		v := f.c.View()
		assert.Equal(t, -1, v.Index)
		assert.True(t, v.ShowTitle, "second replay restarts the reveal")

		time.Sleep(DefaultRevealDelay + DefaultPromoteDelay)
		synctest.Wait()
		assert.Equal(t, 0, f.c.CurrentPhraseIndex())
	})
}

func TestController_PauseThenPlayResumesSamePosition(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.playAt(1, phrase.Output)

		f.c.Pause(PauseLocal)
		v := f.c.View()
		assert.Equal(t, StatePaused, v.State)
		assert.Equal(t, "/out/1.mp3", f.res.Source(), "local pause keeps the source")

		f.c.Play()
		synctest.Wait()
		i, s := f.at()
		assert.Equal(t, 1, i)
		assert.Equal(t, phrase.Output, s)
		assert.Equal(t, StatePlaying, f.c.State())
		starts := f.res.Starts()
		assert.Equal(t, "/out/1.mp3", starts[len(starts)-1])
	})
}

func TestController_ExternalPauseEmptiesSource(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.playAt(0, phrase.Input)

		f.tr.handlers.OnPause()
		assert.Empty(t, f.res.Source())
		assert.Equal(t, StatePaused, f.c.State())

		// Resuming rebinds the clip.
		f.tr.handlers.OnPlay()
		synctest.Wait()
		assert.Equal(t, "/in/0.mp3", f.res.Source())
		assert.Equal(t, StatePlaying, f.c.State())
	})
}

func TestController_RemotePauseIsLocal(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		r := f.c.Remote()
		r.SetCurrentPhraseIndex(1)
		r.HandlePlay()
		synctest.Wait()
		r.HandlePause()

		assert.Equal(t, "/in/1.mp3", f.res.Source())
		assert.Equal(t, 1, r.CurrentPhraseIndex())
		assert.True(t, r.View().Paused)
	})
}

func TestController_PauseFlushesProgress(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		f.playAt(0, phrase.Input)
		f.c.Pause(PauseLocal)
		assert.Equal(t, 1, f.prog.flushes)
	})
}

func TestController_StopKeepsCursorAndEmptiesResource(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.playAt(2, phrase.Output)

		f.c.Stop()
		v := f.c.View()
		assert.Equal(t, StateStopped, v.State)
		assert.Equal(t, 2, v.Index)
		assert.Equal(t, phrase.Output, v.Phase)
		assert.Empty(t, f.res.Source())

		f.c.Play()
		synctest.Wait()
		assert.Equal(t, StatePlaying, f.c.State())
		assert.Equal(t, "/out/2.mp3", f.res.Source())
	})
}

func TestController_OverlappingPlayKeepsLatest(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.c.SetCurrentPhraseIndex(0)

		release := make(chan struct{})
		var calls atomic.Int32
		f.res.SetStartFunc(func(context.Context, string) error {
			if calls.Add(1) == 1 {
				<-release
				return errors.New("decoder exploded")
			}
			return nil
		})
		sub := f.c.Subscribe()

		f.c.Play()
		synctest.Wait() // first start is parked
		f.c.PlayPhrase(2, phrase.Input)
		synctest.Wait()

		close(release)
		synctest.Wait()

		v := f.c.View()
		assert.Equal(t, StatePlaying, v.State)
		assert.Equal(t, 2, v.Index)
		assert.Empty(t, f.synth.requests(), "stale failure must not regenerate")
		select {
		case e := <-sub.Error:
			t.Fatalf("unexpected error event: %+v", e)
		default:
		}
	})
}

func TestController_CancelledStartIsBenign(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		f.res.SetStartFunc(func(context.Context, string) error { return context.Canceled })
		f.playAt(0, phrase.Input)

		assert.Equal(t, StatePlaying, f.c.State())
		assert.Empty(t, f.synth.requests())
	})
}

func TestController_AudioEndedNoOpWhenPaused(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.playAt(0, phrase.Input)
		f.c.Pause(PauseLocal)
		sub := f.c.Subscribe()

		f.c.AudioEnded()
		assert.Empty(t, f.c.sched.Pending())
		assert.False(t, f.c.View().ShowProgress)
		select {
		case e := <-sub.Events:
			t.Fatalf("unexpected event %+v", e)
		default:
		}
	})
}

func TestController_PauseDuringDelaySuppressesTransition(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.playAt(0, phrase.Input)

		f.res.SimulateEnded()
		v := f.c.View()
		assert.True(t, v.ShowProgress)
		assert.Equal(t, time.Second, v.ProgressDuration)
		assert.Equal(t, []string{delayEnded}, f.c.sched.Pending())

		f.c.Pause(PauseLocal)
		time.Sleep(settle)
		synctest.Wait()

		i, s := f.at()
		assert.Equal(t, 0, i)
		assert.Equal(t, phrase.Input, s)
		assert.False(t, f.c.View().ShowProgress)
	})
}

// The paused flag is consulted when the delay fires, not only when armed.
func TestController_EndedTransitionChecksPauseAtFireTime(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.playAt(0, phrase.Input)
		f.res.SimulateEnded()

		f.c.mu.Lock()
		f.c.paused = true
		f.c.mu.Unlock()

		time.Sleep(settle)
		synctest.Wait()
		i, s := f.at()
		assert.Equal(t, 0, i)
		assert.Equal(t, phrase.Input, s)
	})
}

func TestController_ThreePhraseScenario(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.c.Replay()
		time.Sleep(DefaultRevealDelay + DefaultPromoteDelay)
		synctest.Wait()

		i, s := f.at()
		require.Equal(t, 0, i)
		require.Equal(t, phrase.Input, s)

		type pos struct {
			Index int
			Side  phrase.Side
		}
		want := []pos{
			{0, phrase.Output},
			{1, phrase.Input},
			{1, phrase.Output},
			{2, phrase.Input},
			{2, phrase.Output},
		}
		for step, w := range want {
			f.end()
			i, s := f.at()
			assert.Equal(t, w, pos{i, s}, "after end event %d", step+1)
			assert.Equal(t, StatePlaying, f.c.State())
		}

		// Six clips play, so the sixth end event is the one that stops. The
		// replay's start on (0, input) is the first clip, not an end event.
		f.end()
		v := f.c.View()
		assert.Equal(t, StateStopped, v.State, "list end stops without wrapping")
		assert.Equal(t, -1, v.Index)
		assert.Empty(t, f.res.Source())
		assert.Equal(t, []progress.Completion{progress.ViaPlayback}, f.prog.completions())
		assert.Equal(t, []int{0, 1, 2}, f.prog.of(progress.Listened))
		assert.Empty(t, f.prog.of(progress.Viewed))

		assert.Equal(t, []string{
			"/in/0.mp3", "/out/0.mp3",
			"/in/1.mp3", "/out/1.mp3",
			"/in/2.mp3", "/out/2.mp3",
		}, f.res.Starts())
	})
}

func TestController_LoopWrapsToFirstPhrase(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, func(c *Config) { c.EnableLoop = true })
		f.playAt(2, phrase.Output)

		f.end()
		i, s := f.at()
		assert.Equal(t, 0, i)
		assert.Equal(t, phrase.Input, s)
		assert.Equal(t, StatePlaying, f.c.State())
		assert.Empty(t, f.prog.completions())
	})
}

func TestController_EndedDelays(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		f.playAt(0, phrase.Input)

		// Recall clip of 1s with multiplier 1.
		f.res.SimulateEnded()
		time.Sleep(999 * time.Millisecond)
		synctest.Wait()
		_, s := f.at()
		assert.Equal(t, phrase.Input, s)
		time.Sleep(time.Millisecond)
		synctest.Wait()
		_, s = f.at()
		assert.Equal(t, phrase.Output, s)

		// Shadow clip of 2s: 3s pause plus 500ms between phrases.
		f.res.SimulateEnded()
		assert.Equal(t, 3500*time.Millisecond, f.c.View().ProgressDuration)
		time.Sleep(3499 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, 0, f.c.CurrentPhraseIndex())
		time.Sleep(time.Millisecond)
		synctest.Wait()
		assert.Equal(t, 1, f.c.CurrentPhraseIndex())
	})
}

func TestController_RecallDisabledScenario(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, func(c *Config) { c.EnableInputPlayback = false })
		f.c.Replay()
		synctest.Wait()
		assert.Equal(t, phrase.Output, f.c.View().Phase)
		assert.Equal(t, []string{"/out/0.mp3"}, f.res.Starts())

		time.Sleep(DefaultRevealDelay + DefaultPromoteDelay)
		synctest.Wait()

		for want := 1; want < 6; want++ {
			f.c.Advance(1)
			synctest.Wait()
			i, s := f.at()
			assert.Equal(t, want%3, i)
			assert.Equal(t, phrase.Output, s)
		}

		// Playing through also skips recall, and the shadow end counts as listened.
		f.end()
		_, s := f.at()
		assert.Equal(t, phrase.Output, s)
		assert.NotEmpty(t, f.prog.of(progress.Listened))
	})
}

func TestController_RecallDisabledWithOutputFirstListensOnInput(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, func(c *Config) {
			c.EnableInputPlayback = false
			c.EnableOutputBeforeInput = true
		})
		f.playAt(0, phrase.Input)
		f.res.SimulateEnded()
		assert.Equal(t, []int{0}, f.prog.of(progress.Listened))
	})
}

func TestController_ConfigFlipMidRecall(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.playAt(1, phrase.Input)

		f.host.update(func(c *Config) { c.EnableInputPlayback = false })
		assert.Equal(t, phrase.Output, f.c.View().Phase)

		f.c.Play()
		synctest.Wait()
		starts := f.res.Starts()
		assert.Equal(t, "/out/1.mp3", starts[len(starts)-1])

		f.c.PlayPhrase(0, phrase.Input)
		synctest.Wait()
		assert.Equal(t, phrase.Output, f.c.View().Phase)
	})
}

func TestController_ViewedWhileBrowsingOnly(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 4, nil)
		f.c.SetCurrentPhraseIndex(3)
		require.Equal(t, phrase.Input, f.c.View().Phase)

		f.c.Advance(-1)
		synctest.Wait()
		i, s := f.at()
		assert.Equal(t, 2, i)
		assert.Equal(t, phrase.Output, s)
		assert.Equal(t, []int{2}, f.prog.of(progress.Viewed))
		assert.Empty(t, f.prog.of(progress.Listened))
		assert.Empty(t, f.res.Starts(), "browsing while paused does not start audio")
		assert.Equal(t, "/out/2.mp3", f.res.Source())

		f.c.Play()
		synctest.Wait()
		f.c.Advance(-1)
		f.c.Advance(-1)
		synctest.Wait()
		i, s = f.at()
		assert.Equal(t, 1, i)
		assert.Equal(t, phrase.Output, s)
		assert.Equal(t, []int{2}, f.prog.of(progress.Viewed), "navigating while playing is not a view")
		assert.Equal(t, StatePlaying, f.c.State())
	})
}

func TestController_AdvanceEvents(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.playAt(0, phrase.Input)
		sub := f.c.Subscribe()

		f.c.Next()     // (0, output): shadow
		f.c.Next()     // (1, input): recall, no event
		f.c.Previous() // (0, output): shadow
		synctest.Wait()

		var got []EventType
		for len(sub.Events) > 0 {
			got = append(got, (<-sub.Events).Type)
		}
		assert.Equal(t, []EventType{EventNext, EventPrevious}, got)
	})
}

func TestController_WrapWhileBrowsingCompletesList(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		f.c.SetCurrentPhraseIndex(1)
		f.c.SetCurrentPhase(phrase.Output)

		f.c.Next()
		i, s := f.at()
		assert.Equal(t, 0, i)
		assert.Equal(t, phrase.Input, s)
		assert.Equal(t, []progress.Completion{progress.ViaBrowsing}, f.prog.completions())
	})
}

func TestController_AdvanceCancelsPendingDelay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.playAt(0, phrase.Input)
		f.res.SimulateEnded()
		require.NotEmpty(t, f.c.sched.Pending())

		f.c.Next()
		assert.Empty(t, f.c.sched.Pending())
		time.Sleep(settle)
		synctest.Wait()

		i, s := f.at()
		assert.Equal(t, 0, i)
		assert.Equal(t, phrase.Output, s)
	})
}

func TestController_PlayPhraseWhilePausedAuditions(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.c.PlayPhrase(2, phrase.Output)
		synctest.Wait()

		v := f.c.View()
		assert.True(t, v.Paused)
		assert.Equal(t, StatePaused, v.State)
		assert.Equal(t, 2, v.Index)
		assert.Equal(t, phrase.Output, v.Phase)
		assert.Equal(t, []string{"/out/2.mp3"}, f.res.Starts())

		// The clip ending does not drive the sequence.
		f.end()
		assert.Equal(t, 2, f.c.CurrentPhraseIndex())
		assert.Empty(t, f.prog.of(progress.Viewed))
		assert.Empty(t, f.prog.of(progress.Listened))
	})
}

func TestController_PlayPhraseWhilePlayingAdopts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.playAt(0, phrase.Input)
		f.c.PlayPhrase(1, phrase.Input)
		synctest.Wait()

		f.end()
		i, s := f.at()
		assert.Equal(t, 1, i)
		assert.Equal(t, phrase.Output, s)
	})
}

func TestController_PlayPhraseOutOfRange(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		f.c.PlayPhrase(5, phrase.Input)
		f.c.PlayPhrase(-1, phrase.Input)
		f.c.SetCurrentPhraseIndex(7)
		synctest.Wait()
		assert.Equal(t, -1, f.c.CurrentPhraseIndex())
		assert.Empty(t, f.res.Starts())
	})
}

func TestController_SpeedFollowsSide(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, func(c *Config) {
			c.InputSpeed = 0.75
			c.OutputSpeed = 1.25
		})
		f.playAt(0, phrase.Input)
		assert.InDelta(t, 0.75, f.res.Speed(), 1e-9)
		f.end()
		assert.InDelta(t, 1.25, f.res.Speed(), 1e-9)
	})
}

func TestController_EmptyListIsNoOp(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 0, nil)
		assert.NotPanics(t, func() {
			f.c.Play()
			f.c.Replay()
			f.c.Next()
			f.c.Previous()
			f.c.PlayPhrase(0, phrase.Input)
			f.c.SetCurrentPhase(phrase.Output)
			f.c.AudioEnded()
			f.c.Pause(PauseExternal)
			f.c.Stop()
		})
		synctest.Wait()
		assert.Empty(t, f.res.Starts())
	})
}

func TestController_ListShrinksMidSession(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 4, nil)
		f.playAt(3, phrase.Output)
		f.res.SimulateEnded()
		f.host.setPhrases(testPhrases(2))

		time.Sleep(settle)
		synctest.Wait()
		// Phrase 1 is the last one now, so the list finishes.
		assert.Equal(t, StateStopped, f.c.State())

		f.host.setPhrases(nil)
		assert.NotPanics(t, func() {
			f.c.Play()
			f.c.AudioEnded()
		})
	})
}

func TestController_PublishesMetadataOnEveryMove(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.playAt(1, phrase.Input)

		m := f.tr.last()
		assert.Equal(t, "input 1", m.Title)
		assert.Equal(t, "en", m.Artist)
		assert.Equal(t, 1, m.Index)
		assert.Equal(t, StatePlaying, m.Status)

		f.c.Next()
		m = f.tr.last()
		assert.Equal(t, "output 1", m.Title)
		assert.Equal(t, phrase.Output, m.Phase)

		f.end()
		m = f.tr.last()
		assert.Equal(t, 2, m.Index)
		assert.Equal(t, phrase.Input, m.Phase)

		f.c.Pause(PauseLocal)
		assert.Equal(t, StatePaused, f.tr.last().Status)
	})
}

func TestController_TransportFailuresAreSwallowed(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		f.tr.panics = true

		assert.NotPanics(t, func() {
			f.playAt(0, phrase.Input)
			f.c.Next()
			f.c.Pause(PauseExternal)
		})
		i, s := f.at()
		assert.Equal(t, 0, i)
		assert.Equal(t, phrase.Output, s)
	})
}

func TestController_TransportNextPrevious(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.playAt(0, phrase.Output)

		f.tr.handlers.OnNext()
		assert.Equal(t, 1, f.c.CurrentPhraseIndex())
		f.tr.handlers.OnPrevious()
		i, s := f.at()
		assert.Equal(t, 0, i)
		assert.Equal(t, phrase.Output, s)
	})
}

func TestController_EventsCarryKeyAndSpeed(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, func(c *Config) { c.InputSpeed = 0.5 })
		f.c.SetCurrentPhraseIndex(2)
		sub := f.c.Subscribe()

		f.c.Play()
		synctest.Wait()
		e := <-sub.Events
		assert.Equal(t, EventPlay, e.Type)
		assert.Equal(t, "c1-2", e.Key)
		assert.Equal(t, 2, e.Index)
		assert.Equal(t, phrase.Input, e.Phase)
		assert.InDelta(t, 0.5, e.Speed, 1e-9)

		f.res.SimulateEnded()
		e = <-sub.Events
		assert.Equal(t, EventAudioEnded, e.Type)
		assert.Equal(t, time.Second, e.Duration)

		sc := <-sub.StateChanged
		assert.Equal(t, StatePlaying, sc.Current.State)
	})
}

func TestController_RegeneratesMissingAudio(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		list := testPhrases(2)
		list[1].OutputAudio = nil
		f.host.setPhrases(list)

		f.playAt(1, phrase.Output)

		reqs := f.synth.requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, SynthesisRequest{Text: "output 1", Lang: "es"}, reqs[0])

		saved := f.host.Phrases()
		require.NotNil(t, saved[1].OutputAudio)
		assert.Equal(t, "/gen/1.mp3", saved[1].OutputAudio.URL)

		assert.Equal(t, "/gen/1.mp3", f.res.Source())
		assert.Equal(t, []string{"/gen/1.mp3"}, f.res.Starts())
		assert.Equal(t, StatePlaying, f.c.State())
	})
}

func TestController_RegeneratesAfterStartFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		f.res.SetStartFunc(func(_ context.Context, src string) error {
			if src == "/in/0.mp3" {
				return errors.New("404 not found")
			}
			return nil
		})
		sub := f.c.Subscribe()

		f.playAt(0, phrase.Input)

		assert.Len(t, f.synth.requests(), 1)
		assert.Equal(t, []string{"/in/0.mp3", "/gen/1.mp3"}, f.res.Starts())
		assert.Equal(t, StatePlaying, f.c.State())
		e := <-sub.Error
		assert.Equal(t, "start", e.Operation)
	})
}

func TestController_SecondStartFailurePauses(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		f.res.SetStartFunc(func(context.Context, string) error {
			return errors.New("device busy")
		})

		f.playAt(0, phrase.Input)

		assert.Len(t, f.synth.requests(), 1, "regeneration is attempted once")
		assert.Len(t, f.res.Starts(), 2)
		v := f.c.View()
		assert.True(t, v.Paused)
		assert.Empty(t, f.res.Source())
	})
}

func TestController_RegenerationFailurePauses(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		f.synth.err = errors.New("quota exceeded")
		list := testPhrases(2)
		list[0].InputAudio = nil
		f.host.setPhrases(list)
		sub := f.c.Subscribe()

		f.playAt(0, phrase.Input)

		assert.True(t, f.c.View().Paused)
		assert.Empty(t, f.res.Source())
		assert.Empty(t, f.res.Starts())
		e := <-sub.Error
		assert.Equal(t, "regenerate", e.Operation)
	})
}

func TestController_PersistFailureStillPlays(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		list := testPhrases(2)
		list[0].InputAudio = nil
		f.host.setPhrases(list)
		f.host.mu.Lock()
		f.host.saveErr = errors.New("read-only file system")
		f.host.mu.Unlock()
		sub := f.c.Subscribe()

		f.playAt(0, phrase.Input)

		e := <-sub.Error
		assert.Equal(t, "persist", e.Operation)
		require.Error(t, e.Err)
		assert.Equal(t, []string{"/gen/1.mp3"}, f.res.Starts())
		assert.Equal(t, StatePlaying, f.c.State())
		assert.Nil(t, f.host.Phrases()[0].InputAudio)
	})
}

func TestController_NoSynthesizerPauses(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		res := player.NewMock()
		list := testPhrases(1)
		list[0].InputAudio = nil
		host := &testHost{phrases: list, cfg: DefaultConfig()}
		c := New(res, host, Options{})
		defer c.Close()

		c.SetCurrentPhraseIndex(0)
		c.Play()
		synctest.Wait()
		assert.True(t, c.View().Paused)
		assert.Empty(t, res.Starts())
	})
}

func TestController_BrowsingRegenerationDoesNotAutoplay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		list := testPhrases(2)
		list[1].InputAudio = nil
		f.host.setPhrases(list)

		f.c.SetCurrentPhraseIndex(1)
		synctest.Wait()

		assert.Len(t, f.synth.requests(), 1)
		assert.Empty(t, f.res.Starts())
		assert.Equal(t, "/gen/1.mp3", f.res.Source())
		assert.True(t, f.c.View().Paused)
	})
}

func TestController_RegenerationDeduplicated(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		f.synth.block = make(chan struct{})
		list := testPhrases(2)
		list[0].InputAudio = nil
		f.host.setPhrases(list)

		f.c.SetCurrentPhraseIndex(0) // browsing: regenerate without autoplay
		synctest.Wait()
		f.c.Play() // same side, now an autoplay attempt
		synctest.Wait()
		require.Len(t, f.synth.requests(), 1)

		close(f.synth.block)
		synctest.Wait()
		assert.Equal(t, []string{"/gen/1.mp3"}, f.res.Starts(), "the later play takes over the running job")
		assert.Equal(t, StatePlaying, f.c.State())
	})
}

func TestController_RegenerationAfterPauseDoesNotStart(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		f.synth.block = make(chan struct{})
		list := testPhrases(2)
		list[0].InputAudio = nil
		f.host.setPhrases(list)

		f.playAt(0, phrase.Input)
		f.c.Pause(PauseLocal)
		close(f.synth.block)
		synctest.Wait()

		assert.Empty(t, f.res.Starts())
		assert.Equal(t, StatePaused, f.c.State())
	})
}

func TestController_CloseStopsEverything(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		sub := f.c.Subscribe()
		f.playAt(0, phrase.Input)
		f.res.SimulateEnded()

		require.NoError(t, f.c.Close())
		<-sub.Done
		assert.Empty(t, f.c.sched.Pending())

		f.c.Next()
		assert.Equal(t, 0, f.c.CurrentPhraseIndex())
		require.NoError(t, f.c.Close())
	})
}

func TestController_PlayDuringPostClipPauseRestartsCleanly(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		f.playAt(0, phrase.Input)
		f.res.SimulateEnded()
		synctest.Wait()
		require.Equal(t, []string{delayEnded}, f.c.sched.Pending())

		f.c.Play()
		synctest.Wait()
		assert.Empty(t, f.c.sched.Pending())
		assert.False(t, f.c.View().ShowProgress)
		assert.Equal(t, []string{"/in/0.mp3", "/in/0.mp3"}, f.res.Starts())

		time.Sleep(settle)
		synctest.Wait()
		i, s := f.at()
		assert.Equal(t, 0, i)
		assert.Equal(t, phrase.Input, s, "the repeated clip is not cut off")
		assert.Equal(t, []string{"/in/0.mp3", "/in/0.mp3"}, f.res.Starts())
	})
}

func TestController_PlayWhilePlayingIsNoOp(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		f.playAt(1, phrase.Output)

		f.c.Play()
		f.tr.handlers.OnPlay()
		synctest.Wait()
		assert.Equal(t, []string{"/out/1.mp3"}, f.res.Starts())
		assert.Equal(t, StatePlaying, f.c.State())
	})
}

func TestController_ReplayFailureLeavesPlainPause(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		res := player.NewMock()
		list := testPhrases(2)
		list[0].InputAudio = nil
		host := &testHost{phrases: list, cfg: DefaultConfig()}
		c := New(res, host, Options{})
		defer c.Close()

		c.Replay()
		synctest.Wait()
		v := c.View()
		assert.Equal(t, StatePaused, v.State)
		assert.False(t, v.Replaying)
		assert.False(t, v.ShowTitle)
		assert.Empty(t, c.sched.Pending())

		time.Sleep(DefaultRevealDelay + DefaultPromoteDelay)
		synctest.Wait()
		assert.Equal(t, -1, c.CurrentPhraseIndex())
		assert.Equal(t, StatePaused, c.State())
	})
}

func TestController_SeekBoundToTransport(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2, nil)
		require.NotNil(t, f.tr.handlers.OnSeek)

		f.tr.handlers.OnSeek(500 * time.Millisecond)
		assert.Empty(t, f.res.Seeks(), "nothing plays yet")

		f.playAt(0, phrase.Output)
		f.tr.handlers.OnSeek(500 * time.Millisecond)
		assert.Equal(t, []time.Duration{500 * time.Millisecond}, f.res.Seeks())
		assert.Equal(t, 500*time.Millisecond, f.res.Position())

		f.c.Pause(PauseLocal)
		f.c.Seek(time.Second)
		assert.Len(t, f.res.Seeks(), 1, "seek is ignored while paused")
	})
}

func TestController_PublishesEffectivePhase(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3, nil)
		f.playAt(1, phrase.Input)
		require.Equal(t, phrase.Input, f.tr.last().Phase)

		f.host.update(func(c *Config) { c.EnableInputPlayback = false })
		f.c.Pause(PauseLocal)

		m := f.tr.last()
		assert.Equal(t, phrase.Output, m.Phase)
		assert.Equal(t, "output 1", m.Title)
		assert.Equal(t, "es", m.Artist)
	})
}

// unlockedProgress records whether the controller lock was free on each call.
type unlockedProgress struct {
	c    *Controller
	mu   sync.Mutex
	free []bool
}

func (p *unlockedProgress) record() {
	free := p.c.mu.TryLock()
	if free {
		p.c.mu.Unlock()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, free)
}

func (p *unlockedProgress) Notify([]phrase.Phrase, int, progress.Kind) { p.record() }
func (p *unlockedProgress) Flush()                                     { p.record() }
func (p *unlockedProgress) ListCompleted(progress.Completion)          { p.record() }

func (p *unlockedProgress) calls() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.free)
}

func TestController_ProgressCallsRunOutsideLock(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		res := player.NewMock()
		host := &testHost{phrases: testPhrases(1), cfg: DefaultConfig()}
		prog := &unlockedProgress{}
		c := New(res, host, Options{Progress: prog})
		prog.c = c
		defer c.Close()

		c.Advance(1) // viewed (0, output)
		c.Play()
		synctest.Wait()
		res.SimulateEnded() // listened
		time.Sleep(settle)  // list completed
		synctest.Wait()
		require.Equal(t, StateStopped, c.State())
		c.Pause(PauseLocal) // flush

		assert.Equal(t, []bool{true, true, true, true}, prog.calls())
	})
}
