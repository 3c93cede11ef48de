// Package logging builds the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.elastic.co/ecszerolog"
)

type Options struct {
	// Format is console, json or ecs. Empty picks console in development
	// and json elsewhere.
	Format  string
	Level   string
	Dev     bool
	Service string
	Out     io.Writer
}

func New(opts Options) (zerolog.Logger, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	format := opts.Format
	if format == "" {
		format = "json"
		if opts.Dev {
			format = "console"
		}
	}

	var logger zerolog.Logger
	switch format {
	case "console":
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	case "json":
		logger = zerolog.New(out).With().Timestamp().Logger()
	case "ecs":
		logger = ecszerolog.New(out)
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", format)
	}

	if opts.Service != "" {
		logger = logger.With().Str("service", opts.Service).Logger()
	}
	return logger.Level(level), nil
}
