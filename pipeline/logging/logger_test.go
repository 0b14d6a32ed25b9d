package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func readEntries(t *testing.T, path string) []LogEntry {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open log file: %v", err)
	}
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("log line is not valid JSON: %v", err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	logger, err := NewLogger(path, "run-1")
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}

	logger.Info("starting batch")
	logger.InfoTrack("The Beatles - Let It Be", "downloaded")
	logger.ErrorTrack("The Beatles - Let It Be", "tag write failed", errors.New("disk full"))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	entries := readEntries(t, path)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Level != LogLevelInfo || entries[0].Run != "run-1" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Track != "The Beatles - Let It Be" {
		t.Errorf("Track = %q, want track identity", entries[1].Track)
	}
	if entries[2].Level != LogLevelError || entries[2].Error != "disk full" {
		t.Errorf("unexpected error entry: %+v", entries[2])
	}
}

func TestLogger_AppendsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	first, err := NewLogger(path, "run-1")
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	first.Info("first run")
	first.Close()

	second, err := NewLogger(path, "run-2")
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	second.Info("second run")
	second.Close()

	entries := readEntries(t, path)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Run != "run-1" || entries[1].Run != "run-2" {
		t.Errorf("runs not preserved: %+v", entries)
	}
}

func TestLogger_CreatesLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "run.log")
	logger, err := NewLogger(path, "run")
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	defer logger.Close()

	logger.Warnf("retry %d", 2)
	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file was not created: %v", err)
	}
}
