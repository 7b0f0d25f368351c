package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger derives a component logger from the process logger configured by
// the logging package.
func Logger(bridge, component string) zerolog.Logger {
	return log.Logger.With().Str("bridge", bridge).Str("component", component).Logger()
}
