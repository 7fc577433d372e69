package stderr

import (
	"bufio"
	"io"
	"strings"

	"go.uber.org/zap"
)

// forward logs each non-blank line read from r until it is closed.
func forward(r io.Reader, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		log.Warn("native stderr", zap.String("line", line))
	}
}
