package meshrt

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type DefaultLogger struct {
	mu     sync.Mutex
	debug  bool
	prefix string
	out    *log.Logger
	err    *log.Logger
}

// NewDefaultLogger logs info and debug to stdout, warnings and errors to
// stderr.
func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewWriterLogger(prefix, debug, os.Stdout, os.Stderr, log.LstdFlags|log.Lmicroseconds)
}

// NewWriterLogger is NewDefaultLogger with explicit sinks and log flags.
func NewWriterLogger(prefix string, debug bool, out, errOut io.Writer, flags int) *DefaultLogger {
	return &DefaultLogger{
		debug:  debug,
		prefix: prefix,
		out:    log.New(out, "", flags),
		err:    log.New(errOut, "", flags),
	}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

func (l *DefaultLogger) emit(dst *log.Logger, level, format string, args []any) {
	msg := fmt.Sprintf(format, args...)
	if l.prefix == "" {
		dst.Printf("%s: %s", level, msg)
		return
	}
	dst.Printf("[%s] %s: %s", l.prefix, level, msg)
}

// Debugf is dropped unless debug output is enabled.
func (l *DefaultLogger) Debugf(format string, args ...any) {
	if l.DebugEnabled() {
		l.emit(l.out, "DEBUG", format, args)
	}
}

func (l *DefaultLogger) Infof(format string, args ...any) { l.emit(l.out, "INFO", format, args) }
func (l *DefaultLogger) Warnf(format string, args ...any) { l.emit(l.err, "WARN", format, args) }

func (l *DefaultLogger) Errorf(format string, args ...any) { l.emit(l.err, "ERROR", format, args) }

// nopLogger drops everything. Mesh and SceneManager fall back to it when
// constructed without a logger.
type nopLogger struct{}

func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) DebugEnabled() bool    { return false }
func (nopLogger) SetDebug(bool)         {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

func orNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}
