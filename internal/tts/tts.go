// Package tts renders phrase text to audio files through an ElevenLabs-style
// text-to-speech HTTP API.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"go.uber.org/zap"

	"github.com/llehouerou/shadow/internal/phrase"
	"github.com/llehouerou/shadow/internal/playback"
	"github.com/llehouerou/shadow/internal/player"
)

// ErrNotConfigured is returned when no API endpoint or key is set.
var ErrNotConfigured = errors.New("text-to-speech is not configured")

const (
	DefaultURL   = "https://api.elevenlabs.io"
	DefaultModel = "eleven_multilingual_v2"

	outputFormat   = "mp3_44100_128"
	requestTimeout = 60 * time.Second
	maxErrorBody   = 1024
)

// Config holds the client settings.
type Config struct {
	URL          string
	APIKey       string
	Model        string
	DefaultVoice string
	// CacheDir receives rendered clips. Empty uses the XDG cache directory.
	CacheDir string
}

// Client implements playback.Synthesizer.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

var _ playback.Synthesizer = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.log = l }
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: requestTimeout},
		log:  zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type speechRequest struct {
	Text         string `json:"text"`
	ModelID      string `json:"model_id"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Synthesize renders req to an mp3 file, reusing a cached clip when the same
// text, language and voice were rendered before.
func (c *Client) Synthesize(ctx context.Context, req playback.SynthesisRequest) (phrase.Audio, error) {
	voice := req.Voice
	if voice == "" {
		voice = c.cfg.DefaultVoice
	}
	if c.cfg.APIKey == "" || voice == "" {
		return phrase.Audio{}, ErrNotConfigured
	}

	base, err := c.cachePath(req.Lang, voice, req.Text)
	if err != nil {
		return phrase.Audio{}, err
	}
	for _, ext := range clipExts {
		if _, err := os.Stat(base + ext); err == nil {
			c.log.Debug("tts cache hit", zap.String("path", base+ext))
			return c.audio(ctx, base+ext)
		}
	}

	data, ext, err := c.fetch(ctx, voice, req)
	if err != nil {
		return phrase.Audio{}, err
	}
	path := base + ext

	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return phrase.Audio{}, fmt.Errorf("write clip: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return phrase.Audio{}, fmt.Errorf("write clip: %w", err)
	}
	c.log.Info("synthesized clip",
		zap.String("lang", req.Lang),
		zap.String("voice", voice),
		zap.Int("bytes", len(data)))
	return c.audio(ctx, path)
}

func (c *Client) fetch(ctx context.Context, voice string, req playback.SynthesisRequest) ([]byte, string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, "", fmt.Errorf("tts url: %w", err)
	}
	u = u.JoinPath("v1", "text-to-speech", voice)
	q := u.Query()
	q.Set("output_format", outputFormat)
	u.RawQuery = q.Encode()

	body, err := json.Marshal(speechRequest{
		Text:         req.Text,
		ModelID:      c.cfg.Model,
		LanguageCode: req.Lang,
	})
	if err != nil {
		return nil, "", err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	hreq.Header.Set("xi-api-key", c.cfg.APIKey)
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "audio/mpeg")

	resp, err := c.http.Do(hreq)
	if err != nil {
		return nil, "", fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, "", fmt.Errorf("tts status=%d body=%s", resp.StatusCode, string(b))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("tts read: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("tts returned no audio")
	}
	return data, extFor(resp.Header.Get("Content-Type")), nil
}

var clipExts = []string{".mp3", ".wav", ".flac"}

// extFor maps a response content type to a file extension the player can
// decode. Unknown types are assumed to be mp3.
func extFor(contentType string) string {
	mt, _, _ := mime.ParseMediaType(contentType)
	switch mt {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/flac", "audio/x-flac":
		return ".flac"
	default:
		return ".mp3"
	}
}

func (c *Client) audio(ctx context.Context, path string) (phrase.Audio, error) {
	d, err := player.ProbeDuration(ctx, path)
	if err != nil {
		// A broken cache entry must not stick around.
		_ = os.Remove(path)
		return phrase.Audio{}, fmt.Errorf("probe clip: %w", err)
	}
	return phrase.Audio{URL: path, Duration: d}, nil
}

func (c *Client) cachePath(lang, voice, text string) (string, error) {
	name := clipName(c.cfg.Model, lang, voice, text)
	if c.cfg.CacheDir != "" {
		if err := os.MkdirAll(c.cfg.CacheDir, 0o755); err != nil {
			return "", err
		}
		return filepath.Join(c.cfg.CacheDir, name), nil
	}
	return xdg.CacheFile(filepath.Join("shadow", "tts", name))
}

func clipName(model, lang, voice, text string) string {
	h := fnv.New64a()
	for _, s := range []string{model, lang, voice, text} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
