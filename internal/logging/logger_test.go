package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{
		Level:      LevelDebug,
		Output:     &buf,
		JSON:       true,
		TimeFormat: time.RFC3339,
	}

	logger := New(cfg)
	if logger == nil {
		t.Fatal("New logger should not be nil")
	}

	t.Run("Levels", func(t *testing.T) {
		for _, log := range []func(string, ...any){logger.Debug, logger.Info, logger.Warn, logger.Error} {
			buf.Reset()
			log("level msg")
			if !strings.Contains(buf.String(), "level msg") {
				t.Errorf("message missing from %q", buf.String())
			}
		}
	})

	t.Run("WithComponent", func(t *testing.T) {
		buf.Reset()
		logger.WithComponent("decoder").Info("msg")
		if !strings.Contains(buf.String(), "decoder") {
			t.Error("WithComponent missing component field")
		}
	})

	t.Run("WithSession", func(t *testing.T) {
		buf.Reset()
		logger.WithSession("abc").Info("msg")
		if !strings.Contains(buf.String(), `"session":"abc"`) {
			t.Errorf("WithSession missing id: %q", buf.String())
		}
	})
}

func TestConsoleHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Output: &buf})

	logger.WithComponent("Session").Debug("session opened", "cfg", "/etc/app.hcl", "note", "two words")

	line := buf.String()
	for _, want := range []string{
		"nereon[",
		"[debug] ",
		"session: session opened",
		"cfg=/etc/app.hcl",
		`note="two words"`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("console line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "component=") {
		t.Errorf("component should be promoted to the header: %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Error("console line should end with a newline")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultLogger(t *testing.T) {
	l := Default()
	if l == nil {
		t.Fatal("Default logger is nil")
	}

	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = &buf
	SetDefault(New(cfg))
	defer SetDefault(l)

	WithComponent("comp").Debug("debug")
	WithComponent("comp").Info("comp msg")

	if !strings.Contains(buf.String(), "comp msg") {
		t.Error("Default logger captured no output")
	}
	if strings.Contains(buf.String(), "comp: debug") {
		t.Error("debug should be filtered at the default level")
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("dropped")
	if l.Level() <= LevelError {
		t.Error("Discard logger should be above error level")
	}
}
