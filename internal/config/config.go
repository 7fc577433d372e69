package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/llehouerou/shadow/internal/playback"
)

type Config struct {
	Collection string `koanf:"collection"` // collection file opened when none is given on the command line
	Autoplay   bool   `koanf:"autoplay"`   // start with a replay of the list after opening

	Presentation PresentationConfig `koanf:"presentation"`
	Progress     ProgressConfig     `koanf:"progress"`
	TTS          TTSConfig          `koanf:"tts"`
	Log          LogConfig          `koanf:"log"`
	Replay       ReplayConfig       `koanf:"replay"`
	Player       PlayerConfig       `koanf:"player"`
}

// PresentationConfig mirrors playback.Config. Unset booleans keep the
// playback defaults.
type PresentationConfig struct {
	InputPlayback         *bool   `koanf:"input_playback"`
	OutputBeforeInput     *bool   `koanf:"output_before_input"`
	RecallPause           *bool   `koanf:"recall_pause"`
	RecallPauseMultiplier float64 `koanf:"recall_pause_multiplier"`
	ShadowPause           *bool   `koanf:"shadow_pause"`
	ShadowPauseMultiplier float64 `koanf:"shadow_pause_multiplier"`
	DelayBetweenMs        *int    `koanf:"delay_between_ms"`
	InputSpeed            float64 `koanf:"input_speed"`  // 0.5-2.0
	OutputSpeed           float64 `koanf:"output_speed"` // 0.5-2.0
	Loop                  bool    `koanf:"loop"`
}

// ProgressConfig holds progress persistence settings.
type ProgressConfig struct {
	DebounceMs     int    `koanf:"debounce_ms"`
	MilestoneEvery int    `koanf:"milestone_every"` // 0 disables milestone notifications
	DBPath         string `koanf:"db_path"`         // empty means the XDG data directory
}

// TTSConfig holds text-to-speech settings used to regenerate missing audio.
type TTSConfig struct {
	URL      string `koanf:"url"`
	APIKey   string `koanf:"api_key"`
	Model    string `koanf:"model"`
	Voice    string `koanf:"voice"` // used when a phrase names no voice
	CacheDir string `koanf:"cache_dir"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path  string `koanf:"path"`  // empty means the XDG state directory
	Level string `koanf:"level"` // debug, info, warn, error (default: info)
}

// ReplayConfig holds the replay title timings.
type ReplayConfig struct {
	RevealMs  int `koanf:"reveal_ms"`
	PromoteMs int `koanf:"promote_ms"`
}

// PlayerConfig holds audio output settings.
type PlayerConfig struct {
	Volume *float64 `koanf:"volume"` // initial volume when none was saved (0.0-1.0)
}

const (
	minSpeed = 0.5
	maxSpeed = 2.0

	defaultMilestoneEvery = 10
)

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		Progress: ProgressConfig{MilestoneEvery: defaultMilestoneEvery},
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Collection = expandPath(cfg.Collection)
	cfg.Progress.DBPath = expandPath(cfg.Progress.DBPath)
	cfg.TTS.CacheDir = expandPath(cfg.TTS.CacheDir)
	cfg.Log.Path = expandPath(cfg.Log.Path)

	// Normalize TTS URL (remove trailing slash)
	cfg.TTS.URL = strings.TrimSuffix(cfg.TTS.URL, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/shadow/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "shadow", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasTTSConfig returns true if audio regeneration is configured.
func (c *Config) HasTTSConfig() bool {
	return c.TTS.APIKey != ""
}

// GetPresentationConfig returns the playback policy with defaults applied.
func (c *Config) GetPresentationConfig() playback.Config {
	p := c.Presentation
	cfg := playback.DefaultConfig()

	setBool(&cfg.EnableInputPlayback, p.InputPlayback)
	setBool(&cfg.EnableOutputBeforeInput, p.OutputBeforeInput)
	setBool(&cfg.EnableRecallPause, p.RecallPause)
	setBool(&cfg.EnableShadowPause, p.ShadowPause)
	if p.RecallPauseMultiplier > 0 {
		cfg.RecallPauseMultiplier = p.RecallPauseMultiplier
	}
	if p.ShadowPauseMultiplier > 0 {
		cfg.ShadowPauseMultiplier = p.ShadowPauseMultiplier
	}
	if p.DelayBetweenMs != nil && *p.DelayBetweenMs >= 0 {
		cfg.DelayBetweenPhrases = time.Duration(*p.DelayBetweenMs) * time.Millisecond
	}
	if p.InputSpeed > 0 {
		cfg.InputSpeed = clampSpeed(p.InputSpeed)
	}
	if p.OutputSpeed > 0 {
		cfg.OutputSpeed = clampSpeed(p.OutputSpeed)
	}
	cfg.EnableLoop = p.Loop
	return cfg
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func clampSpeed(s float64) float64 {
	return min(max(s, minSpeed), maxSpeed)
}

// GetProgressConfig returns the progress settings with defaults applied.
func (c *Config) GetProgressConfig() ProgressConfig {
	cfg := c.Progress
	if cfg.DebounceMs <= 0 {
		cfg.DebounceMs = 500
	}
	if cfg.MilestoneEvery < 0 {
		cfg.MilestoneEvery = 0
	}
	return cfg
}

// DebounceQuiet returns the progress debounce period.
func (p ProgressConfig) DebounceQuiet() time.Duration {
	return time.Duration(p.DebounceMs) * time.Millisecond
}

// GetReplayConfig returns the replay timings with defaults applied.
func (c *Config) GetReplayConfig() (reveal, promote time.Duration) {
	reveal, promote = playback.DefaultRevealDelay, playback.DefaultPromoteDelay
	if c.Replay.RevealMs > 0 {
		reveal = time.Duration(c.Replay.RevealMs) * time.Millisecond
	}
	if c.Replay.PromoteMs > 0 {
		promote = time.Duration(c.Replay.PromoteMs) * time.Millisecond
	}
	return reveal, promote
}

// GetLogLevel returns the configured level name, defaulting to info.
func (c *Config) GetLogLevel() string {
	switch l := strings.ToLower(c.Log.Level); l {
	case "debug", "info", "warn", "error":
		return l
	default:
		return "info"
	}
}

// GetInitialVolume returns the configured starting volume, defaulting to full.
func (c *Config) GetInitialVolume() float64 {
	if c.Player.Volume == nil {
		return 1.0
	}
	return min(max(*c.Player.Volume, 0), 1)
}
