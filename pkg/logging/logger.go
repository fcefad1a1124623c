// Package logging configures structured logging with zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level name: debug, info, warn (or warning), error.
	// Empty means info.
	Level string

	// Pretty enables human-readable console output instead of JSON.
	Pretty bool

	// Output receives the log lines (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns JSON logging at info level to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Output: os.Stderr,
	}
}

// ParseLevel maps a configured level name to a zerolog level.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// Setup installs the global logger that every component logger derives from.
// An unknown level falls back to info; config validation rejects it earlier.
func Setup(cfg Config) zerolog.Logger {
	level, _ := ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	return log.Logger
}

// NewLogger returns a logger tagged with the emitting component, derived
// from the global logger at call time.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: request flow
//   - Each upstream request (endpoint, query)
//   - Discovered page count
//   - Upstream quota state
//
// Info: normal operation
//   - Fan-out start and completion (total_pages, pages, absent, duration)
//   - Requests served by the web layer
//   - Server startup/shutdown
//
// Warn: degraded but served
//   - A page became absent (page, error)
//   - Discovery returned a non-success status and fell back to zero pages
//   - Bazaar fetch failed
//   - Upstream quota nearly exhausted
//
// Error: request could not be served
//   - Upstream unreachable during discovery
//   - Configuration errors
//
// Context Fields:
//   - component: emitting package
//   - endpoint: upstream path
//   - page, total_pages: pagination position
//   - status: HTTP status code
//   - error_class: client, server, network, decode
//   - duration: elapsed time
