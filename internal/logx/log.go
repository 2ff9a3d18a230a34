package logx

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the root logger for a service. Level comes from LOG_LEVEL
// (debug|info|warn|error), default info.
func New(service string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
