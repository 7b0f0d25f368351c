// Package testlog points the global logger at the test profile and brackets
// each test's output with start and done lines.
package testlog

import (
	"testing"

	"github.com/danmuck/a11ybridge/internal/logging"
	"github.com/rs/zerolog/log"
)

func Start(tb testing.TB) {
	tb.Helper()
	logging.ConfigureTests()
	name := tb.Name()
	log.Info().Str("test", name).Msg("start")
	tb.Cleanup(func() {
		log.Debug().Str("test", name).Bool("failed", tb.Failed()).Msg("done")
	})
}
