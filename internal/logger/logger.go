// Package logger wraps zerolog into the small set of package-level helpers
// the rest of the pipeline calls, matching the teacher's logger.Init/Get
// shape but backed by a structured, leveled writer instead of slog.
package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	once          sync.Once
)

// Init initializes the process-wide logger from LOG_LEVEL (trace, debug,
// info, warn, error; defaults to info).
func Init() {
	once.Do(func() {
		level := parseLevel(os.Getenv("LOG_LEVEL"))
		zerolog.SetGlobalLevel(level)
		defaultLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		defaultLogger.Info().Msg("logger initialized")
	})
}

func parseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the initialized logger, initializing it on first use.
func Get() *zerolog.Logger {
	Init()
	return &defaultLogger
}

// Stage returns a child logger tagged with the given pipeline stage name,
// for consistent per-stage log lines across the orchestrators.
func Stage(name string) zerolog.Logger {
	return Get().With().Str("stage", name).Logger()
}
