//go:build !windows

// Package stderr captures output that the audio backend's C libraries write
// straight to file descriptor 2, which would otherwise draw over the TUI.
// Captured lines go to the log instead.
package stderr

import (
	"os"
	"syscall"

	"go.uber.org/zap"
)

// Capture is an active redirection of fd 2.
type Capture struct {
	orig int
	r, w *os.File
	done chan struct{}
}

// Start redirects fd 2 into log. Call it before the audio device opens.
// On error nothing is redirected and the program can carry on.
func Start(log *zap.Logger) (*Capture, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	orig, err := syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return nil, err
	}

	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		syscall.Close(orig)
		r.Close()
		w.Close()
		return nil, err
	}

	c := &Capture{orig: orig, r: r, w: w, done: make(chan struct{})}
	go func() {
		defer close(c.done)
		forward(r, log)
	}()
	return c, nil
}

// Stop restores fd 2 and waits for the captured lines to be logged.
func (c *Capture) Stop() {
	if c == nil {
		return
	}
	_ = syscall.Dup2(c.orig, int(os.Stderr.Fd()))
	_ = syscall.Close(c.orig)
	c.w.Close()
	<-c.done
	c.r.Close()
}
