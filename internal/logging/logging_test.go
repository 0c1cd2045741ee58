package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nest-cleaner/internal/config"
)

// TestNewWithConfigWritesFile verifies log lines reach the file in LogDir
func TestNewWithConfigWritesFile(t *testing.T) {
	cfg := config.Default()
	cfg.LogDir = t.TempDir()

	logger, closer := NewWithConfig(cfg)
	Component(logger, "test").Info().Str("k", "v").Msg("hello file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.LogDir, logFile))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Errorf("Log file missing message: %s", data)
	}
	if !strings.Contains(string(data), `"component":"test"`) {
		t.Errorf("Log file missing component field: %s", data)
	}
}

// TestRotateLogsIfNeeded verifies an old log is renamed and old rotations pruned
func TestRotateLogsIfNeeded(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, logFile)
	old := time.Now().AddDate(0, 0, -40).Truncate(time.Second)

	if err := os.WriteFile(logPath, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeMarker(markerPath(logPath), old)
	ancient := logPath + ".20000101-000000"
	if err := os.WriteFile(ancient, []byte("ancient"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(ancient, old, old); err != nil {
		t.Fatal(err)
	}

	rotateLogsIfNeeded(logPath, 30)

	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Errorf("Expected %s to be rotated away", logPath)
	}
	if _, err := os.Stat(ancient); !os.IsNotExist(err) {
		t.Errorf("Expected %s to be pruned", ancient)
	}
	rotated := logPath + "." + old.Format("20060102-150405")
	if _, err := os.Stat(rotated); err != nil {
		t.Errorf("Expected rotated log %s to be kept: %v", rotated, err)
	}
	started, ok := readMarker(markerPath(logPath))
	if !ok || time.Since(started) > time.Minute {
		t.Errorf("Marker should restart with the new log, got %v %v", started, ok)
	}
}

// TestRotateIgnoresRecentWrites verifies a log written on every launch
// still rotates once it was started long enough ago
func TestRotateIgnoresRecentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), logFile)
	if err := os.WriteFile(logPath, []byte("written today"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeMarker(markerPath(logPath), time.Now().AddDate(0, 0, -31))

	rotateLogsIfNeeded(logPath, 30)

	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Errorf("Log started 31 days ago should rotate despite a fresh mtime")
	}
}

// TestRotateKeepsFreshLog verifies a recent log is left in place
func TestRotateKeepsFreshLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), logFile)
	if err := os.WriteFile(logPath, []byte("fresh"), 0o644); err != nil {
		t.Fatal(err)
	}

	rotateLogsIfNeeded(logPath, 30)
	rotateLogsIfNeeded(logPath, 30)

	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("Fresh log should stay: %v", err)
	}
	if _, ok := readMarker(markerPath(logPath)); !ok {
		t.Error("A marker should be written for an unmarked log")
	}
}
