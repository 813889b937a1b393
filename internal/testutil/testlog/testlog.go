package testlog

import (
	"testing"

	"github.com/danmuck/rvhal/internal/logging"
	"github.com/rs/zerolog/log"
)

func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	log.Info().Msgf("test=%s", t.Name())
}

// Logf narrates a test step at debug level.
func Logf(format string, args ...any) {
	log.Debug().Msgf(format, args...)
}
