package util

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogFromContext returns a context-specific zerolog instance, falling back to
// the global logger if the context carries none.
// If logging was disabled for the provided context, a disabled logger is returned instead.
func LogFromContext(ctx context.Context) *zerolog.Logger {
	l := log.Ctx(ctx)

	if l.GetLevel() == zerolog.Disabled {
		if ShouldDisableLogger(ctx) {
			return l
		}

		l = &log.Logger
	}

	return l
}

// LogLevelFromString attempts to parse the provided string into a zerolog.Level,
// defaulting to zerolog.DebugLevel and logging an error if no level matches.
func LogLevelFromString(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		log.Error().Err(err).Msgf("Failed to parse log level, defaulting to %s", zerolog.DebugLevel)
		return zerolog.DebugLevel
	}

	return level
}
