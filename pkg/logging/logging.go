// Package logging wires structured logging for the rest of the
// module. The teacher carries no logging dependency at all (its
// cmd/nornicdb/main.go writes straight to fmt.Println/os.Stderr); this
// package adopts github.com/sirupsen/logrus instead, the logging
// dependency already present in dolthub-go-mysql-server (see that
// repo's auth/audit.go and enginetest/memory_session.go, which hold a
// *logrus.Entry on a session/request and pass it down rather than
// calling a package-level logger directly) — the same pattern is used
// here via a Logger wrapper threaded through runner.Runner.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus.Entry so callers can attach standing fields
// once (e.g. a session id) and log subsequent events through it.
type Logger struct {
	entry *logrus.Entry
}

// New builds a Logger writing to w at the given level. Passing a nil
// writer defaults to os.Stderr, and an unparsable level defaults to
// info, matching logrus.ParseLevel's own fallback behavior being
// explicitly handled here rather than ignored.
func New(level string, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return &Logger{entry: logrus.NewEntry(l)}
}

// WithFields returns a derived Logger carrying the given fields on
// every subsequent call, without mutating the receiver.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// Entry exposes the underlying logrus.Entry for callers that need the
// full logrus API (e.g. chaining .WithError before logging).
func (l *Logger) Entry() *logrus.Entry {
	return l.entry
}

// Discard returns a Logger that drops everything, used as the default
// for runner.New when the caller supplies no logging.Option.
func Discard() *Logger {
	return New("panic", io.Discard)
}
