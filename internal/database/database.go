package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Event actions
const (
	ActionTrash  = "TRASH"
	ActionDryRun = "DRY_RUN"
	ActionSkip   = "SKIP"
	ActionError  = "ERROR"
)

// HistoryDB manages the SQLite database of cleanup runs.
// Times are stored in UTC so text comparison orders them correctly.
type HistoryDB struct {
	db *sql.DB
}

// Run is one execution of the cleanup list against a folder
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	TargetPath string
	DryRun     bool
	Deleted    int
	Skipped    int
	Failed     int
}

// Event is the outcome for a single listed filename
type Event struct {
	ID           int64
	RunID        string
	Timestamp    time.Time
	Action       string
	Path         string
	FileName     string
	ErrorMessage string
}

// NewHistoryDB opens (creating if needed) the database at dbPath
func NewHistoryDB(dbPath string) (*HistoryDB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// _loc=auto enables DATETIME parsing into time.Time
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}

	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	hdb := &HistoryDB{db: db}
	if err = hdb.initSchema(); err != nil {
		return nil, err
	}
	return hdb, nil
}

// initSchema creates tables and indexes if they don't exist
func (d *HistoryDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		target_path TEXT NOT NULL,
		dry_run BOOLEAN NOT NULL DEFAULT 0,
		deleted INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		timestamp DATETIME NOT NULL,
		action TEXT NOT NULL,
		path TEXT NOT NULL,
		file_name TEXT NOT NULL,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_events_run_id ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_action ON events(action);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := d.db.Exec(schema)
	return err
}

// BeginRun inserts a run row; counts are filled in by FinishRun
func (d *HistoryDB) BeginRun(run Run) error {
	_, err := d.db.Exec(`
		INSERT INTO runs (id, started_at, target_path, dry_run)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.StartedAt.UTC(), run.TargetPath, run.DryRun)
	return err
}

// FinishRun stores the final counts of a run
func (d *HistoryDB) FinishRun(id string, finishedAt time.Time, deleted, skipped, failed int) error {
	res, err := d.db.Exec(`
		UPDATE runs SET finished_at = ?, deleted = ?, skipped = ?, failed = ?
		WHERE id = ?
	`, finishedAt.UTC(), deleted, skipped, failed, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// RecordEvent inserts the outcome for one file
func (d *HistoryDB) RecordEvent(e Event) error {
	var errMsg sql.NullString
	if e.ErrorMessage != "" {
		errMsg = sql.NullString{String: e.ErrorMessage, Valid: true}
	}
	fileName := e.FileName
	if fileName == "" {
		fileName = filepath.Base(e.Path)
	}

	_, err := d.db.Exec(`
		INSERT INTO events (run_id, timestamp, action, path, file_name, error_message)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.RunID, e.Timestamp.UTC(), e.Action, e.Path, fileName, errMsg)
	return err
}

// Close closes the database connection
func (d *HistoryDB) Close() error {
	return d.db.Close()
}

// Vacuum optimizes the database
func (d *HistoryDB) Vacuum() error {
	_, err := d.db.Exec("VACUUM")
	return err
}
