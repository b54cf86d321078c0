package app

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	envLogLevel  = "EDGEROUTER_LOG_LEVEL"
	envLogFormat = "EDGEROUTER_LOG_FORMAT"
)

// newLoggerFromEnv builds a zerolog.Logger the way the console expects:
// JSON by default, a human-readable console writer when
// EDGEROUTER_LOG_FORMAT=console, level from EDGEROUTER_LOG_LEVEL
// (defaults to info).
func newLoggerFromEnv() zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(os.Getenv(envLogLevel)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if strings.ToLower(os.Getenv(envLogFormat)) == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
