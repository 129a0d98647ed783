// Package logging builds the zerolog logger shared by a run.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	// Level is a zerolog level name; empty means info.
	Level string
	// Format is "console" (human readable) or "json".
	Format string
	// Writer receives log output; nil means os.Stderr.
	Writer io.Writer
	// NoColor disables ANSI colours in console format.
	NoColor bool
	// RunID tags every line. Empty means a fresh UUID.
	RunID string
}

// New returns a logger tagged with the run ID.
func New(opts Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", opts.Level, err)
		}
		level = lvl
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	switch opts.Format {
	case "", "console":
		w = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    opts.NoColor,
			TimeFormat: time.TimeOnly,
		}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", opts.Format)
	}

	run := opts.RunID
	if run == "" {
		run = uuid.NewString()
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("run", run).
		Logger(), nil
}
