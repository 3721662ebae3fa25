// ABOUTME: Structured logger construction on charmbracelet/log.
// ABOUTME: Maps config level names to log levels and hands out prefixed component loggers.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ParseLevel maps a level name to a log level. Unknown names mean info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// New returns a logger writing to w at the named level.
func New(w io.Writer, level string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
}

// NewStderr returns a logger on stderr, leaving stdout for command output.
func NewStderr(level string) *log.Logger {
	return New(os.Stderr, level)
}

// Component returns a child logger tagged with a component prefix.
func Component(l *log.Logger, name string) *log.Logger {
	return l.WithPrefix(name)
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	return New(io.Discard, "error")
}
