package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"ERROR", LevelError},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debug("dropped")
	l.Info("dropped too")
	l.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("messages below level were written: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn message missing: %s", out)
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug).WithComponent("colorsync").WithField("doc", "file:///a.go")

	l.Info("attached")

	out := buf.String()
	if !strings.Contains(out, "component=colorsync") {
		t.Errorf("component field missing: %s", out)
	}
	if !strings.Contains(out, "doc=file:///a.go") {
		t.Errorf("doc field missing: %s", out)
	}
}

func TestLogger_FormatArgs(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug)

	l.Info("request %d accepted", 7)

	if !strings.Contains(buf.String(), "request 7 accepted") {
		t.Errorf("formatting not applied: %s", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	// Must not panic and must not write anywhere.
	l.Error("nothing")
	l.WithField("k", "v").Info("nothing")
}
