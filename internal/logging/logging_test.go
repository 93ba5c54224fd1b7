package logging

import (
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw     string
		want    slog.Leveler
		wantErr bool
	}{
		{raw: "debug", want: slog.LevelDebug},
		{raw: "info", want: slog.LevelInfo},
		{raw: "", want: slog.LevelInfo},
		{raw: "WARN", want: slog.LevelWarn},
		{raw: "error", want: slog.LevelError},
		{raw: "loud", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseLevel(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("parseLevel(%q) expected error", tt.raw)
			}

			continue
		}
		if err != nil {
			t.Fatalf("parseLevel(%q) returned error: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestLevelFor(t *testing.T) {
	if LevelFor(true) != "debug" {
		t.Fatal("expected debug level when debug flag set")
	}
	if LevelFor(false) != "info" {
		t.Fatal("expected info level by default")
	}
}

func TestManagerConfigure_RejectsUnknownLevel(t *testing.T) {
	origDefault := slog.Default()
	t.Cleanup(func() { slog.SetDefault(origDefault) })

	m := NewManager()
	if err := m.Configure("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if err := m.Configure("debug"); err != nil {
		t.Fatalf("configure debug: %v", err)
	}
	if logger := m.Logger("test"); logger == nil {
		t.Fatal("expected component logger")
	}
}
