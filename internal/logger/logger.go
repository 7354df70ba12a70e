package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a text logger at the given level. When path is empty the logger writes to stderr,
// otherwise the file is created (truncating any previous content) and must be closed by the caller.
func New(path string, level slog.Level) (*slog.Logger, io.Closer, error) {
	var w io.Writer = os.Stderr
	var c io.Closer = nopCloser{}
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("error creating log file: %w", err)
		}
		w, c = file, file
	}

	// Create a text handler that writes to the file
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(handler), c, nil
}
