package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]any
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			t.Fatalf("log line %q is not JSON: %v", raw, err)
		}
		lines = append(lines, line)
	}
	return lines
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{DebugLevel, "debug"},
		{InfoLevel, "info"},
		{WarnLevel, "warn"},
		{ErrorLevel, "error"},
		{Level(42), "unknown"},
		{Level(-1), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"DEBUG", DebugLevel},
		{" Info ", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"verbose", InfoLevel},
		{"", InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDomainFields(t *testing.T) {
	tests := []struct {
		field Field
		key   string
		value any
	}{
		{State("inglob"), "state", "inglob"},
		{SequenceID("sp|P0A7G6"), "sequence_id", "sp|P0A7G6"},
		{Length(251), "length", 251},
		{Method("viterbi"), "method", "viterbi"},
		{Alpha(0.1), "alpha", 0.1},
		{Count(3), "count", 3},
		{Duration("timeout", 5 * time.Second), "timeout", "5s"},
		{Error(errors.New("bad tie")), "error", "bad tie"},
		{Error(nil), "error", nil},
	}
	for _, tt := range tests {
		if tt.field.Key != tt.key || tt.field.Value != tt.value {
			t.Errorf("field = %+v, want {%s %v}", tt.field, tt.key, tt.value)
		}
	}
}

func TestJSONLogger_FlatLine(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, DebugLevel).Info("model compiled", Count(46), Component("compiler"))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	line := lines[0]
	if line["level"] != "info" || line["msg"] != "model compiled" {
		t.Errorf("line = %v", line)
	}
	if line["count"] != float64(46) || line["component"] != "compiler" {
		t.Errorf("fields not flattened: %v", line)
	}
	if _, err := time.Parse(time.RFC3339Nano, line["ts"].(string)); err != nil {
		t.Errorf("ts = %v: %v", line["ts"], err)
	}
}

func TestJSONLogger_ReservedKeys(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, InfoLevel).Info("real", String("msg", "spoofed"), String("level", "debug"))

	line := decodeLines(t, &buf)[0]
	if line["msg"] != "real" || line["level"] != "info" {
		t.Errorf("reserved keys overwritten: %v", line)
	}
	if line["field.msg"] != "spoofed" || line["field.level"] != "debug" {
		t.Errorf("colliding fields dropped: %v", line)
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["level"] != "warn" || lines[1]["level"] != "error" {
		t.Errorf("levels = %v, %v", lines[0]["level"], lines[1]["level"])
	}
	if logger.Enabled(InfoLevel) || !logger.Enabled(ErrorLevel) {
		t.Error("Enabled disagrees with the threshold")
	}
}

func TestJSONLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	child := logger.With(Component("compiler"))
	child.Warn("state redefined", State("M1"))
	logger.Info("parent unaffected")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["component"] != "compiler" || lines[0]["state"] != "M1" {
		t.Errorf("child line = %v", lines[0])
	}
	if _, ok := lines[1]["component"]; ok {
		t.Error("parent logger picked up child fields")
	}
}

func TestJSONLogger_ConcurrentChildren(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			child := logger.With(Int("worker", i))
			for range 25 {
				child.Info("decoded", Length(150))
			}
		}()
	}
	wg.Wait()

	if got := len(decodeLines(t, &buf)); got != 200 {
		t.Errorf("got %d intact lines, want 200", got)
	}
}

func TestTimer(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	StartTimer(logger, "compile", Path("model.txt")).End(Count(4))
	StartDebugTimer(logger, "decode", Method("viterbi")).End()
	StartTimer(logger, "load").EndError(errors.New("missing file"))

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0]["level"] != "info" || lines[0]["path"] != "model.txt" || lines[0]["count"] != float64(4) {
		t.Errorf("timer line = %v", lines[0])
	}
	if _, ok := lines[0]["latency"]; !ok {
		t.Error("timer line missing latency")
	}
	if lines[1]["level"] != "debug" {
		t.Errorf("debug timer level = %v", lines[1]["level"])
	}
	if lines[2]["level"] != "error" || lines[2]["error"] != "missing file" {
		t.Errorf("failed timer line = %v", lines[2])
	}
}

func TestTimer_DebugSuppressed(t *testing.T) {
	var buf bytes.Buffer
	StartDebugTimer(NewJSONLogger(&buf, InfoLevel), "decode").End()

	if buf.Len() != 0 {
		t.Errorf("debug timer wrote at info level: %s", buf.String())
	}
}

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	if _, ok := l.(NopLogger); !ok {
		t.Fatalf("OrNop(nil) = %T, want NopLogger", l)
	}
	l.Info("ignored")
	if l.With(State("x")) == nil || l.Enabled(ErrorLevel) {
		t.Error("NopLogger should be inert")
	}

	j := NewJSONLogger(&bytes.Buffer{}, InfoLevel)
	if OrNop(j) != Logger(j) {
		t.Error("OrNop should return a non-nil logger unchanged")
	}
}
