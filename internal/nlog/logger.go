/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package nlog

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Logger is something that can print, using Logf, a format string
type Logger interface {
	Logf(format string, v ...any)
}

// subsystemLogger tags every entry with the subsystem it was registered for
type subsystemLogger struct {
	name   string
	logger *AppLogger
}

func (s *subsystemLogger) Logf(format string, v ...any) {
	s.logger.Logf(s.name, format, v...)
}

// AppLogger hands out one Logger per subsystem (http, membership, messaging...), all writing through a single logrus logger.
// It's safe to share amongst goroutines.
type AppLogger struct {
	base    *logrus.Logger
	enabled atomic.Bool

	lock       sync.RWMutex
	subsystems map[string]*subsystemLogger
}

// New creates an AppLogger writing to out.
// level is a logrus level name ("debug", "info"...), format is either "text" or "json".
func New(out io.Writer, level, format string, enabled bool) (*AppLogger, error) {
	base := logrus.New()
	base.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	base.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	l := &AppLogger{
		base:       base,
		subsystems: make(map[string]*subsystemLogger),
	}
	l.enabled.Store(enabled)
	return l, nil
}

// Discard returns a disabled logger, handy in tests
func Discard() *AppLogger {
	l, _ := New(io.Discard, "info", "text", false)
	return l
}

// RegisterSubsystem returns the Logger of the given subsystem, creating it on first use
func (l *AppLogger) RegisterSubsystem(name string) Logger {
	l.lock.Lock()
	defer l.lock.Unlock()

	if s, ok := l.subsystems[name]; ok {
		return s
	}
	s := &subsystemLogger{name, l}
	l.subsystems[name] = s
	return s
}

// GetSubsystemLogger retrieves a subsystem logger, if previously registered.
func (l *AppLogger) GetSubsystemLogger(name string) (Logger, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	s, ok := l.subsystems[name]
	if !ok {
		return nil, fmt.Errorf("The subsystem %s was not registered", name)
	}
	return s, nil
}

func (l *AppLogger) EnableLogging()  { l.enabled.Store(true) }
func (l *AppLogger) DisableLogging() { l.enabled.Store(false) }

// Logf writes an info entry for the subsystem
func (l *AppLogger) Logf(subsystem, format string, v ...any) {
	if !l.enabled.Load() {
		return
	}
	l.base.WithField("subsystem", subsystem).Infof(format, v...)
}

// WithFields returns a structured entry, used for per request access logs.
// Entries go nowhere while logging is disabled.
func (l *AppLogger) WithFields(fields logrus.Fields) logrus.FieldLogger {
	if !l.enabled.Load() {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		return silent.WithFields(fields)
	}
	return l.base.WithFields(fields)
}
