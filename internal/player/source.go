package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/wav"
)

const (
	extMP3  = ".mp3"
	extWAV  = ".wav"
	extFLAC = ".flac"
)

// maxRemoteSize caps how much of a remote clip is buffered.
const maxRemoteSize = 32 << 20

// ErrUnsupportedFormat is returned for sources that are not mp3, wav or flac.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

type clip struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
}

func (c clip) duration() time.Duration {
	return c.format.SampleRate.D(c.streamer.Len())
}

// open fetches and decodes src. Remote clips are read fully into memory so
// the decoders can seek.
func open(ctx context.Context, client *http.Client, src string) (clip, error) {
	ext := formatOf(src)
	if ext != extMP3 && ext != extWAV && ext != extFLAC {
		return clip{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	rc, err := fetch(ctx, client, src)
	if err != nil {
		return clip{}, err
	}

	var c clip
	switch ext {
	case extMP3:
		c.streamer, c.format, err = decodeMP3(rc)
	case extWAV:
		c.streamer, c.format, err = wav.Decode(rc)
	case extFLAC:
		c.streamer, c.format, err = flac.Decode(rc)
	}
	if err != nil {
		rc.Close()
		return clip{}, fmt.Errorf("decode %s: %w", src, err)
	}
	return c, nil
}

func fetch(ctx context.Context, client *http.Client, src string) (io.ReadSeekCloser, error) {
	if !isRemote(src) {
		return os.Open(strings.TrimPrefix(src, "file://"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", src, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteSize))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	return memFile{bytes.NewReader(data)}, nil
}

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

func formatOf(src string) string {
	if isRemote(src) {
		if u, err := url.Parse(src); err == nil {
			return strings.ToLower(path.Ext(u.Path))
		}
	}
	return strings.ToLower(filepath.Ext(src))
}

// ProbeDuration decodes src far enough to report its length.
func ProbeDuration(ctx context.Context, src string) (time.Duration, error) {
	c, err := open(ctx, http.DefaultClient, src)
	if err != nil {
		return 0, err
	}
	defer c.streamer.Close()
	return c.duration(), nil
}
