// Package obs wires up the process-wide structured logger. It is the only
// place zerolog is configured; every other package accepts a
// zerolog.Logger value rather than reaching for a global.
package obs

import (
	"io"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger writing to w at levelName ("debug", "info",
// "warn", "error"; anything else falls back to "info"). The logger's own
// timestamp field is node-local by design — it never crosses into
// consensus-visible error messages (see capsyscall.CapError's "short
// ASCII, no node-local data" rule).
func New(levelName string, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
