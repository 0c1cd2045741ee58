package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"nest-cleaner/internal/config"
)

const logFile = "nest-cleaner.log"

// New creates a console-only logger at info level
func New() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
}

// NewWithConfig creates a logger writing to stderr and to a rotated file in
// cfg.LogDir. When the file can't be opened it logs to stderr only.
// The returned closer releases the file and is never nil.
func NewWithConfig(cfg *config.Config) (zerolog.Logger, io.Closer) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	fallback := func(reason string, err error) (zerolog.Logger, io.Closer) {
		logger := zerolog.New(console).Level(level).With().Timestamp().Logger()
		logger.Warn().Err(err).Msg(reason)
		return logger, nopCloser{}
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return fallback("failed to ensure log directory", err)
	}

	filePath := filepath.Join(cfg.LogDir, logFile)
	rotateLogsIfNeeded(filePath, cfg.Logging.RotationDays)

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fallback("failed to open log file", err)
	}

	mw := zerolog.MultiLevelWriter(console, f)
	return zerolog.New(mw).Level(level).With().Timestamp().Logger(), f
}

// Component returns a child logger tagged with the component name
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// rotateLogsIfNeeded rotates the log file once it was started more than
// rotationDays ago. The start time lives in a marker beside the log, since
// the file's mtime moves on every write.
func rotateLogsIfNeeded(logPath string, rotationDays int) {
	if rotationDays <= 0 {
		return
	}
	marker := markerPath(logPath)

	if _, err := os.Stat(logPath); err != nil {
		writeMarker(marker, time.Now())
		return
	}
	started, ok := readMarker(marker)
	if !ok {
		writeMarker(marker, time.Now())
		return
	}

	cutoffTime := time.Now().AddDate(0, 0, -rotationDays)
	if started.Before(cutoffTime) {
		rotatedPath := logPath + "." + started.Format("20060102-150405")
		if err := os.Rename(logPath, rotatedPath); err != nil {
			return
		}
		writeMarker(marker, time.Now())

		cleanupOldLogs(logPath, rotationDays)
	}
}

// markerPath is hidden so cleanupOldLogs never matches it
func markerPath(logPath string) string {
	return filepath.Join(filepath.Dir(logPath), "."+filepath.Base(logPath)+".started")
}

func readMarker(path string) (time.Time, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func writeMarker(path string, t time.Time) {
	_ = os.WriteFile(path, []byte(t.Format(time.RFC3339)+"\n"), 0o644)
}

// cleanupOldLogs removes rotated log files older than rotationDays
func cleanupOldLogs(logPath string, rotationDays int) {
	logDir := filepath.Dir(logPath)
	baseName := filepath.Base(logPath)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	cutoffTime := time.Now().AddDate(0, 0, -rotationDays)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, baseName+".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			_ = os.Remove(filepath.Join(logDir, name))
		}
	}
}
