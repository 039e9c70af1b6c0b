package logger

import (
	"path/filepath"
	"testing"
)

func TestDefaultLogger_SetLevelKeepsBackend(t *testing.T) {
	l := NewFileLogger(LevelInfo, filepath.Join(t.TempDir(), "dvbci.log"))
	backend := l.backend

	for _, level := range []Level{LevelDebug, LevelError, LevelWarn} {
		l.SetLevel(level)
		if l.Level() != level {
			t.Errorf("Level = %s, want %s", l.Level(), level)
		}
		if l.backend != backend {
			t.Fatalf("SetLevel(%s) replaced the backend", level)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"WARN", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"info", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
