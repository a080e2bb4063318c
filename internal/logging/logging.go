// Package logging provides a thin prefixed wrapper around the standard
// library logger, matching the teacher's "Subsystem: message" style
// (e.g. "GlobalRegistry: Registered component %s") instead of pulling in
// a structured logging library the corpus never reaches for here.
package logging

import (
	"log"
	"os"
)

// Logger prefixes every line with a subsystem name.
type Logger struct {
	prefix string
	std    *log.Logger
}

// New creates a Logger that prefixes messages with name, e.g. "Registry".
func New(name string) *Logger {
	return &Logger{
		prefix: name,
		std:    log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (l *Logger) Debugf(format string, args ...any) {
	l.std.Printf(l.prefix+": "+format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.std.Printf(l.prefix+": "+format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.std.Printf(l.prefix+": WARNING: "+format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.std.Printf(l.prefix+": ERROR: "+format, args...)
}
