// Package session holds the open collection and the presentation policy the
// playback controller reads on every operation.
package session

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/llehouerou/shadow/internal/phrase"
	"github.com/llehouerou/shadow/internal/playback"
)

// Session implements playback.Host over a collection file.
type Session struct {
	path string
	log  *zap.Logger

	mu   sync.RWMutex
	coll phrase.Collection
	cfg  playback.Config

	// saveMu serializes writes to the collection file.
	saveMu sync.Mutex
}

var _ playback.Host = (*Session)(nil)

// Open loads the collection at path.
func Open(path string, cfg playback.Config, log *zap.Logger) (*Session, error) {
	c, err := phrase.Load(path)
	if err != nil {
		return nil, err
	}
	return New(path, *c, cfg, log), nil
}

// New creates a session over an already loaded collection. An empty path
// disables persistence of regenerated audio.
func New(path string, c phrase.Collection, cfg playback.Config, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{path: path, log: log, coll: c, cfg: cfg}
}

// Path returns the collection file path.
func (s *Session) Path() string {
	return s.path
}

// Collection returns a copy of the collection metadata and phrases.
func (s *Session) Collection() phrase.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.coll
	c.Phrases = slices.Clone(c.Phrases)
	return c
}

func (s *Session) Phrases() []phrase.Phrase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coll.Phrases
}

func (s *Session) PresentationConfig() playback.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// UpdateConfig applies fn to the presentation policy. The controller picks
// the change up on its next operation.
func (s *Session) UpdateConfig(fn func(*playback.Config)) playback.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cfg)
	return s.cfg
}

// SetPhrases replaces the phrase list and writes the collection back to disk.
func (s *Session) SetPhrases(ctx context.Context, phrases []phrase.Phrase) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.coll.Phrases = slices.Clone(phrases)
	snapshot := s.coll
	s.mu.Unlock()

	if s.path == "" {
		return nil
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := phrase.Save(s.path, &snapshot); err != nil {
		return fmt.Errorf("save collection %s: %w", s.path, err)
	}
	s.log.Debug("collection saved", zap.String("path", s.path), zap.Int("phrases", len(phrases)))
	return nil
}
