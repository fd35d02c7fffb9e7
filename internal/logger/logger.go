// Package logger builds the zerolog.Logger used by the rtsa binaries.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New returns a logger at level writing JSON to stderr, or human-readable
// console output when pretty is set. It also becomes the global logger so
// library code that falls back to log.Logger shares the configuration.
func New(level string, pretty bool) zerolog.Logger {
	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}
	l := zerolog.New(out).
		With().
		Timestamp().
		Str("service", "rtsa").
		Logger().
		Level(parseLevel(level))
	log.Logger = l
	return l
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
