//go:build !linux

package mpris

import "github.com/llehouerou/shadow/internal/playback"

// Adapter is a no-op on non-Linux platforms.
type Adapter struct {
	playback.NopTransport
}

// New returns a no-op adapter on non-Linux platforms.
func New(_, _ string) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op on non-Linux platforms.
func (a *Adapter) Close() error {
	return nil
}
