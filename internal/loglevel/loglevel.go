// Package loglevel builds a pion/logging factory from the DC09_LOG_LEVEL
// environment variable — the single environment-coupled knob spec.md §6
// reserves for the logging collaborator.
package loglevel

import (
	"os"
	"strings"

	"github.com/pion/logging"
)

// Factory returns a DefaultLoggerFactory whose level is taken from
// DC09_LOG_LEVEL ("trace", "debug", "info", "warn", "error", "disabled"),
// defaulting to info when unset or unrecognized.
func Factory() logging.LoggerFactory {
	factory := logging.NewDefaultLoggerFactory()
	factory.DefaultLogLevel = parse(os.Getenv("DC09_LOG_LEVEL"))
	return factory
}

func parse(level string) logging.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "disabled", "off":
		return logging.LogLevelDisabled
	case "error":
		return logging.LogLevelError
	case "warn", "warning":
		return logging.LogLevelWarn
	case "debug":
		return logging.LogLevelDebug
	case "trace":
		return logging.LogLevelTrace
	default:
		return logging.LogLevelInfo
	}
}
