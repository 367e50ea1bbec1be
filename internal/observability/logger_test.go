package observability

import (
	"testing"

	"github.com/danmuck/tssctl/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func restoreLogger(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
}

func TestInitLoggerEnvLevelWins(t *testing.T) {
	restoreLogger(t)
	t.Setenv(logging.EnvLogLevel, "debug")
	InitLogger("tssctl", "info")
	if got := zerolog.GlobalLevel(); got != zerolog.DebugLevel {
		t.Fatalf("expected env level debug, got %s", got)
	}
}

func TestInitLoggerAppliesConfigLevel(t *testing.T) {
	restoreLogger(t)
	t.Setenv(logging.EnvLogLevel, "")
	InitLogger("tssctl", "warn")
	if got := zerolog.GlobalLevel(); got != zerolog.WarnLevel {
		t.Fatalf("expected config level warn, got %s", got)
	}

	InitLogger("tssctl", "loud")
	if got := zerolog.GlobalLevel(); got != zerolog.WarnLevel {
		t.Fatalf("unknown level must leave warn in place, got %s", got)
	}
}
