package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{" warning ", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLevelFilteringAndRunID(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(slog.LevelInfo)
	})

	SetLevel(slog.LevelInfo)
	DebugLog("hidden %d", 1)
	LogWarning("visible %s", "warning")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug output leaked at info level: %q", out)
	}
	if !strings.Contains(out, "visible warning") {
		t.Fatalf("missing warning in output: %q", out)
	}
	if !strings.Contains(out, "run_id="+RunID()) {
		t.Fatalf("missing run_id attribute in %q", out)
	}

	buf.Reset()
	SetLevel(slog.LevelDebug)
	LogImageProcessed("a/b.jpg", true, "")
	if !strings.Contains(buf.String(), "path=a/b.jpg") {
		t.Fatalf("expected debug record for processed image, got %q", buf.String())
	}
}

func TestSetupLoggerWritesFile(t *testing.T) {
	var console bytes.Buffer
	SetOutput(&console)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	path := filepath.Join(t.TempDir(), "imagedup.log")
	if err := SetupLogger(path); err != nil {
		t.Fatalf("SetupLogger returned error: %v", err)
	}
	LogError("cache write failed: %s", "disk full")
	CloseLogger()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "cache write failed: disk full") {
		t.Fatalf("log file missing record: %q", data)
	}
	if !strings.Contains(console.String(), "cache write failed") {
		t.Fatalf("console missing record: %q", console.String())
	}
}
