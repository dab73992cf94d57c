package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Config{Level: level, Output: &buf, Prefix: "test"})
	l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 6000000, time.UTC) }
	return l, &buf
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
		if result := tt.level.String(); result != tt.expected {
			t.Errorf("Level(%d).String() = '%s', expected '%s'", tt.level, result, tt.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"", LevelInfo},
		{"Warn", LevelWarn},
		{"warning", LevelWarn},
		{"ERROR", LevelError},
	}

	for _, tt := range tests {
		result, err := ParseLevel(tt.input)
		if err != nil {
			t.Errorf("ParseLevel('%s'): unexpected error %v", tt.input, err)
		}
		if result != tt.expected {
			t.Errorf("ParseLevel('%s') = %d, expected %d", tt.input, result, tt.expected)
		}
	}

	if _, err := ParseLevel("verbose"); !errors.Is(err, ErrUnknownLevel) {
		t.Errorf("expected ErrUnknownLevel, got %v", err)
	}
}

func TestLoggerFormat(t *testing.T) {
	l, buf := newTestLogger(LevelDebug)

	l.WithFields(map[string]any{"port": 23, "host": "mud.example"}).Info("connected to %s", "server")

	expected := "2026-01-02T03:04:05.006 [INFO] test: connected to server {host=mud.example, port=23}\n"
	if buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}
}

func TestLoggerNoArgsKeepsPercent(t *testing.T) {
	l, buf := newTestLogger(LevelDebug)

	l.Warn("100% done")

	if !strings.Contains(buf.String(), "100% done") {
		t.Errorf("expected message unformatted, got %q", buf.String())
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	l, buf := newTestLogger(LevelWarn)

	l.Debug("debug")
	l.Info("info")
	if buf.Len() != 0 {
		t.Errorf("expected nothing below warn, got %q", buf.String())
	}

	l.Error("boom")
	if !strings.Contains(buf.String(), "[ERROR] test: boom") {
		t.Errorf("expected error line, got %q", buf.String())
	}
}

func TestSetLevelReachesDerivedLoggers(t *testing.T) {
	root, buf := newTestLogger(LevelInfo)
	child := root.WithComponent("session")

	child.Debug("hidden")
	root.SetLevel(LevelDebug)
	child.Debug("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("expected debug line suppressed before level change")
	}
	if !strings.Contains(out, "shown {component=session}") {
		t.Errorf("expected child to pick up new level, got %q", out)
	}
	if child.Level() != LevelDebug {
		t.Errorf("expected child level DEBUG, got %v", child.Level())
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	root, buf := newTestLogger(LevelInfo)
	_ = root.WithField("k", "v")

	root.Info("plain")

	if strings.Contains(buf.String(), "k=v") {
		t.Errorf("expected parent fields unchanged, got %q", buf.String())
	}
}

func TestDisableEnable(t *testing.T) {
	l, buf := newTestLogger(LevelDebug)

	l.Disable()
	l.Error("dropped")
	if l.Enabled(LevelError) {
		t.Error("expected disabled logger to report not enabled")
	}
	l.Enable()
	l.Error("kept")

	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestSetOutput(t *testing.T) {
	l, first := newTestLogger(LevelInfo)
	var second bytes.Buffer

	l.SetOutput(&second)
	l.Info("moved")

	if first.Len() != 0 || !strings.Contains(second.String(), "moved") {
		t.Errorf("expected output redirected, got %q / %q", first.String(), second.String())
	}
}

func TestNop(t *testing.T) {
	l := OrNop(nil)
	if l.Enabled(LevelError) {
		t.Error("expected nop logger disabled")
	}
	l.Error("nothing")
}
