package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/shadow/internal/playback"
)

func wavBytes(t *testing.T, d time.Duration) []byte {
	t.Helper()
	format := beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}

	f, err := os.CreateTemp(t.TempDir(), "clip-*.wav")
	require.NoError(t, err)
	require.NoError(t, wav.Encode(f, generators.Silence(format.SampleRate.N(d)), format))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return data
}

type ttsServer struct {
	*httptest.Server
	calls atomic.Int32
	last  atomic.Pointer[speechRequest]
	path  atomic.Pointer[string]
}

func newTTSServer(t *testing.T, status int, body []byte) *ttsServer {
	t.Helper()
	s := &ttsServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		if r.Header.Get("xi-api-key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req speechRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.last.Store(&req)
		p := r.URL.Path + "?" + r.URL.RawQuery
		s.path.Store(&p)

		w.Header().Set("Content-Type", "audio/wav")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(s.Close)
	return s
}

func TestSynthesize(t *testing.T) {
	srv := newTTSServer(t, http.StatusOK, wavBytes(t, 750*time.Millisecond))
	dir := t.TempDir()
	c := New(Config{URL: srv.URL, APIKey: "secret", Model: "m1", CacheDir: dir})

	audio, err := c.Synthesize(context.Background(), playback.SynthesisRequest{
		Text: "hola", Lang: "es", Voice: "v1",
	})
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(audio.URL))
	assert.Equal(t, ".wav", filepath.Ext(audio.URL))
	assert.InDelta(t, 750*time.Millisecond, audio.Duration, float64(10*time.Millisecond))

	req := srv.last.Load()
	require.NotNil(t, req)
	assert.Equal(t, "hola", req.Text)
	assert.Equal(t, "m1", req.ModelID)
	assert.Equal(t, "es", req.LanguageCode)
	assert.Equal(t, "/v1/text-to-speech/v1?output_format="+outputFormat, *srv.path.Load())
}

func TestSynthesize_Cached(t *testing.T) {
	srv := newTTSServer(t, http.StatusOK, wavBytes(t, 500*time.Millisecond))
	c := New(Config{URL: srv.URL, APIKey: "secret", DefaultVoice: "v1", CacheDir: t.TempDir()})
	req := playback.SynthesisRequest{Text: "hola", Lang: "es"}

	first, err := c.Synthesize(context.Background(), req)
	require.NoError(t, err)
	second, err := c.Synthesize(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestSynthesize_NotConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		req  playback.SynthesisRequest
	}{
		{"no key", Config{DefaultVoice: "v"}, playback.SynthesisRequest{Text: "x"}},
		{"no voice", Config{APIKey: "k"}, playback.SynthesisRequest{Text: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg).Synthesize(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrNotConfigured)
		})
	}
}

func TestSynthesize_HTTPError(t *testing.T) {
	srv := newTTSServer(t, http.StatusTooManyRequests, []byte("quota exceeded"))
	dir := t.TempDir()
	c := New(Config{URL: srv.URL, APIKey: "secret", DefaultVoice: "v1", CacheDir: dir})

	_, err := c.Synthesize(context.Background(), playback.SynthesisRequest{Text: "hola"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=429")
	assert.Contains(t, err.Error(), "quota exceeded")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSynthesize_BrokenAudioNotCached(t *testing.T) {
	srv := newTTSServer(t, http.StatusOK, []byte("not audio"))
	dir := t.TempDir()
	c := New(Config{URL: srv.URL, APIKey: "secret", DefaultVoice: "v1", CacheDir: dir})

	_, err := c.Synthesize(context.Background(), playback.SynthesisRequest{Text: "hola"})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSynthesize_Cancelled(t *testing.T) {
	srv := newTTSServer(t, http.StatusOK, wavBytes(t, 100*time.Millisecond))
	c := New(Config{URL: srv.URL, APIKey: "secret", DefaultVoice: "v1", CacheDir: t.TempDir()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Synthesize(ctx, playback.SynthesisRequest{Text: "hola"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClipName(t *testing.T) {
	a := clipName("m", "es", "v", "hola")
	assert.Equal(t, a, clipName("m", "es", "v", "hola"))
	assert.NotEqual(t, a, clipName("m", "en", "v", "hola"))
	assert.NotEqual(t, clipName("m", "e", "sv", "x"), clipName("m", "es", "v", "x"))
}

func TestExtFor(t *testing.T) {
	assert.Equal(t, ".wav", extFor("audio/wav"))
	assert.Equal(t, ".flac", extFor("audio/flac"))
	assert.Equal(t, ".mp3", extFor("audio/mpeg"))
	assert.Equal(t, ".mp3", extFor(""))
}
