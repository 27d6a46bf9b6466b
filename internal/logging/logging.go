package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger. format "json" writes raw JSON
// lines; anything else writes the console format.
func Setup(level, format string) zerolog.Logger {
	return setup(os.Stderr, level, format)
}

func setup(out io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000"}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

// Component returns the global logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}
