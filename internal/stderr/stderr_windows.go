//go:build windows

// Package stderr is a no-op on Windows, where the audio backend does not
// write to the console.
package stderr

import "go.uber.org/zap"

// Capture does nothing on Windows.
type Capture struct{}

// Start returns a no-op capture.
func Start(*zap.Logger) (*Capture, error) {
	return &Capture{}, nil
}

// Stop does nothing.
func (c *Capture) Stop() {}
