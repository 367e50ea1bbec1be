package observability

import (
	"github.com/danmuck/tssctl/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the runtime logging profile and tags every line with
// app. level applies when it names a known level and TSSCTL_LOG_LEVEL is unset.
func InitLogger(app, level string) zerolog.Logger {
	logging.ConfigureRuntime()
	if _, env := logging.EnvLevel(); !env {
		if lvl, ok := logging.ParseLevel(level); ok {
			zerolog.SetGlobalLevel(lvl)
		}
	}
	logger := log.Logger.With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
