// SPDX-License-Identifier: MPL-2.0

// Package logging provides the four-level logging sink used by the loader core.
//
// The core never depends on a concrete logger: it accepts a Logger, which
// *log.Logger from charmbracelet/log satisfies directly. New builds the
// production logger; Discard is for tests.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultPrefix labels every line emitted by the loader.
const DefaultPrefix = "modhost"

// Logger is the sink required by the loader core. Values are alternating
// key/value pairs, as in charmbracelet/log and log/slog.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}

// New creates a logger writing to w at the given level ("debug", "info",
// "warn", "error"). Unknown levels fall back to info.
func New(w io.Writer, level, prefix string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           ParseLevel(level),
		ReportTimestamp: true,
	})
}

// ParseLevel converts a config level string to a charmbracelet/log level.
func ParseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
