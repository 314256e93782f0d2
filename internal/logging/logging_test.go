package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func fixedLogger(buf *bytes.Buffer, level Level) *Logger {
	l := New(Config{Level: level, Output: buf, Prefix: "test"})
	l.now = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return l
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level(%d).String() = %q, expected %q", tt.level, got, tt.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{" Warn ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"", LevelInfo, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LevelDebug)

	l.Info("restyled %d runs", 3)

	want := "2026-03-01T12:00:00.000 [INFO] test: restyled 3 runs\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LevelWarn)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown too")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output contains filtered messages: %q", out)
	}
	if strings.Count(out, "\n") != 2 {
		t.Errorf("expected 2 lines, got %q", out)
	}
	if l.Enabled(LevelInfo) {
		t.Error("Enabled(LevelInfo) = true at warn level")
	}
}

func TestLoggerFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LevelInfo).
		WithComponent("behaviour").
		WithFields(map[string]any{"segments": 5, "at": "restyle"})

	l.Info("done")

	if !strings.HasSuffix(buf.String(), "done {at=restyle, component=behaviour, segments=5}\n") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestLoggerChildDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := fixedLogger(&buf, LevelInfo)
	_ = parent.WithField("k", "v")

	parent.Info("plain")
	if strings.Contains(buf.String(), "k=v") {
		t.Errorf("parent picked up child field: %q", buf.String())
	}
}

func TestLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LevelInfo)

	l.Debug("one")
	l.SetLevel(LevelDebug)
	l.Debug("two")

	if strings.Contains(buf.String(), "one") || !strings.Contains(buf.String(), "two") {
		t.Errorf("output = %q", buf.String())
	}
	if l.Level() != LevelDebug {
		t.Errorf("Level() = %v, want DEBUG", l.Level())
	}
}

func TestNullLogger(t *testing.T) {
	l := Null()
	l.Error("nothing")
	if l.Enabled(LevelError) {
		t.Error("Null logger reports enabled")
	}
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	var buf bytes.Buffer
	SetDefault(fixedLogger(&buf, LevelInfo))
	Default().Info("hello")

	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("default logger output = %q", buf.String())
	}
}
