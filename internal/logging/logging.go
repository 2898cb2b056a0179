// Package logging builds the logrus logger shared by the CLI, watcher and
// MCP server.
package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Option configures New.
type Option func(*log.Logger)

// WithOutput sets the destination. The default is stderr so that reports on
// stdout stay machine-readable.
func WithOutput(w io.Writer) Option {
	return func(l *log.Logger) {
		l.SetOutput(w)
	}
}

// WithJSON switches to the JSON formatter.
func WithJSON() Option {
	return func(l *log.Logger) {
		l.SetFormatter(&log.JSONFormatter{})
	}
}

// New returns a logger at warn level, or debug level when verbose.
func New(verbose bool, opts ...Option) *log.Logger {
	l := log.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&log.TextFormatter{
		DisableTimestamp: true,
	})
	l.SetLevel(log.WarnLevel)
	if verbose {
		l.SetLevel(log.DebugLevel)
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Discard returns a logger that drops everything. Used as the default when
// a component is not given one.
func Discard() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}
