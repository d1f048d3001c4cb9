package logging

import (
	"io"
	"strings"
	"sync"
	"time"
)

// Level orders log lines by severity.
type Level int

const (
	// DebugLevel carries per-sequence decode traces and compiler table sizes.
	DebugLevel Level = iota
	InfoLevel
	// WarnLevel flags tolerated model quirks such as redefined states.
	WarnLevel
	// ErrorLevel is for failures that abort a command or request.
	ErrorLevel
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

func (l Level) String() string {
	if l < DebugLevel || l > ErrorLevel {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLevel maps a level name to a Level. Unknown names map to InfoLevel.
func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return WarnLevel
	}
	for i, name := range levelNames {
		if s == name {
			return Level(i)
		}
	}
	return InfoLevel
}

// Field is one key/value pair of a log line.
type Field struct {
	Key   string
	Value any
}

// Logger is the structured logger threaded through every component.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a logger that prepends fields to every line.
	With(fields ...Field) Logger
	// Enabled reports whether lines at level are written.
	Enabled(level Level) bool
}

// JSONLogger writes one JSON object per line. Fields sit beside the
// ts, level and msg keys.
type JSONLogger struct {
	out    *lockedWriter
	level  Level
	fields []Field
}

// lockedWriter is shared between a logger and its children.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// reserved keys cannot be overwritten by fields.
var reserved = map[string]bool{"ts": true, "level": true, "msg": true}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (n NopLogger) With(...Field) Logger { return n }
func (NopLogger) Enabled(Level) bool     { return false }

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}

// Timer logs an operation with its latency when it ends.
type Timer struct {
	logger Logger
	level  Level
	msg    string
	start  time.Time
	fields []Field
}
