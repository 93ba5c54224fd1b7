package ingest

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestIgnoredLogDisabledByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ignored.txt")
	l := NewIgnoredLog(slog.Default(), path)

	l.Record("unsupported-port", map[string]any{"id": 1})

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("disabled log touched %s: %v", path, err)
	}
}

func TestIgnoredLogRecordsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ignored.txt")
	l := NewIgnoredLog(slog.Default(), path)
	if err := l.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	defer l.Close()

	l.Record("missing-packet-id", map[string]any{"from_id": "!0000abcd"})
	l.Record("unsupported-port", map[string]any{"portnum": "WAYPOINT_APP"})

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open capture file: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("line %d is not JSON: %v", len(lines)+1, err)
		}
		lines = append(lines, entry)
	}

	if len(lines) != 2 {
		t.Fatalf("captured %d lines, want 2", len(lines))
	}
	if lines[0]["reason"] != "missing-packet-id" {
		t.Fatalf("first reason = %v", lines[0]["reason"])
	}
	packet, _ := lines[0]["packet"].(map[string]any)
	if packet["from_id"] != "!0000abcd" {
		t.Fatalf("first packet = %v", packet)
	}
	if _, ok := lines[1]["timestamp"]; !ok {
		t.Fatal("timestamp missing")
	}
}
