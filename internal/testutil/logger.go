package testutil

import (
	"io"
	"log/slog"
)

// Logger returns a logger that discards everything, for tests that do not
// assert on log output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
