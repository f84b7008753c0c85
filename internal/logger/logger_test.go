package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn, "")

	log.Debug("hidden %d", 1)
	log.Info("hidden %d", 2)
	log.Warn("shown %d", 3)
	log.Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected debug/info to be filtered, got:\n%s", out)
	}
	if !strings.Contains(out, "WARN shown 3") || !strings.Contains(out, "ERROR shown 4") {
		t.Errorf("Missing expected lines:\n%s", out)
	}
}

func TestWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelDebug, "session").WithPrefix("interp")
	log.Info("hello")
	if !strings.Contains(buf.String(), "[session/interp] hello") {
		t.Errorf("Expected nested prefix, got %q", buf.String())
	}
}

func TestOutcome(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "")
	log.Outcome("completed", 4, nil)
	log.Outcome("failed", 2, errors.New("boom"))
	out := buf.String()
	if !strings.Contains(out, "Run completed after 4 statements") || !strings.Contains(out, "boom") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		err  bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"Error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()
	if log.Enabled(LevelError) {
		t.Error("Discard logger should not enable any level")
	}
	log.Error("nothing")
}

func TestDefault(t *testing.T) {
	log := Default()
	if !log.Enabled(LevelInfo) || log.Enabled(LevelDebug) {
		t.Error("Default logger should start at INFO")
	}
	if sub := log.WithPrefix("server"); sub.prefix != "server" || sub.mu != log.mu {
		t.Errorf("Unexpected sub-logger %+v", sub)
	}
}
