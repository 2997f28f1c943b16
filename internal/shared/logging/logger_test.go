package logging

import (
	"bytes"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		" DEBUG ": slog.LevelDebug,
		"warning": slog.LevelWarn,
		"err":     slog.LevelError,
		"trace":   slog.LevelDebug - 2,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) expected %v got %v", input, want, got)
		}
	}
}

func TestNewJSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, Config{Level: "info", Format: "json"})
	logger.Debug("hidden")
	logger.Info("stream attached", slog.String("role", "renter"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a single json line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "stream attached" || line["role"] != "renter" {
		t.Fatalf("unexpected log line: %v", line)
	}
}

func TestSetupWritesDailyFile(t *testing.T) {
	dir := t.TempDir()
	previous := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(previous)
		log.SetOutput(os.Stderr)
	})

	logger, closer, err := Setup(Config{Level: "info", Format: "text", Directory: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("hello file")
	if err := closer.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".log"))
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !bytes.Contains(data, []byte("hello file")) {
		t.Fatalf("log file missing message: %q", data)
	}
}
