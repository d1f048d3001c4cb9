package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// NewJSONLogger returns a logger writing lines at or above level to w.
func NewJSONLogger(w io.Writer, level Level) *JSONLogger {
	return &JSONLogger{out: &lockedWriter{w: w}, level: level}
}

// Enabled reports whether level passes the logger's threshold.
func (l *JSONLogger) Enabled(level Level) bool { return level >= l.level }

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

// With returns a child logger. Parent and child share the writer lock so
// their lines never interleave.
func (l *JSONLogger) With(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &JSONLogger{out: l.out, level: l.level, fields: merged}
}

func (l *JSONLogger) log(level Level, msg string, fields []Field) {
	if !l.Enabled(level) {
		return
	}
	line := make(map[string]any, 3+len(l.fields)+len(fields))
	for _, group := range [][]Field{l.fields, fields} {
		for _, f := range group {
			key := f.Key
			if reserved[key] {
				key = "field." + key
			}
			line[key] = f.Value
		}
	}
	line["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	line["level"] = level.String()
	line["msg"] = msg

	data, err := json.Marshal(line)
	if err != nil {
		data = fmt.Appendf(nil, `{"level":"error","msg":"unencodable log line","error":%q}`, err.Error())
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.w.Write(append(data, '\n'))
}

// StartTimer begins an operation that End logs at INFO.
func StartTimer(logger Logger, msg string, fields ...Field) *Timer {
	return &Timer{logger: OrNop(logger), level: InfoLevel, msg: msg, start: time.Now(), fields: fields}
}

// StartDebugTimer is StartTimer for hot paths; End logs at DEBUG.
func StartDebugTimer(logger Logger, msg string, fields ...Field) *Timer {
	t := StartTimer(logger, msg, fields...)
	t.level = DebugLevel
	return t
}

// Elapsed returns the time since the timer started.
func (t *Timer) Elapsed() time.Duration { return time.Since(t.start) }

// End logs the operation with extra fields and its latency.
func (t *Timer) End(extra ...Field) {
	if !t.logger.Enabled(t.level) {
		return
	}
	fields := t.collect(extra)
	if t.level == DebugLevel {
		t.logger.Debug(t.msg, fields...)
		return
	}
	t.logger.Info(t.msg, fields...)
}

// EndError logs the operation as failed.
func (t *Timer) EndError(err error) {
	t.logger.Error(t.msg, t.collect([]Field{Error(err)})...)
}

func (t *Timer) collect(extra []Field) []Field {
	fields := make([]Field, 0, len(t.fields)+len(extra)+1)
	fields = append(fields, t.fields...)
	fields = append(fields, extra...)
	return append(fields, Latency(t.Elapsed()))
}
