// Package logger provides a configured zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

// New returns a logger writing to w at level. console switches from JSON
// lines to zerolog's human-readable writer.
// Call sites should use .Stack() on error events to include stacks.
func New(w io.Writer, level zerolog.Level, console bool) zerolog.Logger {
	// Configure zerolog to work with github.com/pkg/errors:
	// - Automatically marshal pkg/errors stack traces when present
	// - Ensure a stack is present even for std errors when .Stack() is used
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}

	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().
		Str("service", "memories").
		Timestamp().
		Logger()
}

// Install builds a stderr logger from a level name and makes it the global
// logger used by the library packages. An unknown level falls back to info.
func Install(levelName string, console bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil || levelName == "" {
		level = zerolog.InfoLevel
	}
	l := New(os.Stderr, level, console)
	log.Logger = l
	return l
}
