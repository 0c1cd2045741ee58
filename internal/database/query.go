package database

import (
	"database/sql"
	"time"
)

const eventColumns = `id, run_id, timestamp, action, path, file_name, error_message`

// GetRecentEvents returns the N most recent file events
func (d *HistoryDB) GetRecentEvents(limit int) ([]Event, error) {
	return d.queryEvents(`
	SELECT `+eventColumns+`
	FROM events
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, limit)
}

// GetEventsByAction returns the N most recent events with the given action
func (d *HistoryDB) GetEventsByAction(action string, limit int) ([]Event, error) {
	return d.queryEvents(`
	SELECT `+eventColumns+`
	FROM events
	WHERE action = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, action, limit)
}

// GetEventsForRun returns every event of a run in insertion order
func (d *HistoryDB) GetEventsForRun(runID string) ([]Event, error) {
	return d.queryEvents(`
	SELECT `+eventColumns+`
	FROM events
	WHERE run_id = ?
	ORDER BY id ASC
	`, runID)
}

// GetRecentRuns returns the N most recent runs
func (d *HistoryDB) GetRecentRuns(limit int) ([]Run, error) {
	rows, err := d.db.Query(`
	SELECT id, started_at, finished_at, target_path, dry_run, deleted, skipped, failed
	FROM runs
	ORDER BY started_at DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.StartedAt, &finished, &r.TargetPath,
			&r.DryRun, &r.Deleted, &r.Skipped, &r.Failed); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Stats holds aggregated totals for a period
type Stats struct {
	Runs      int
	Trashed   int
	Skipped   int
	Failed    int
	ByAction  map[string]int
	StartDate time.Time
	EndDate   time.Time
}

// GetStats returns totals for the last days days
func (d *HistoryDB) GetStats(days int) (*Stats, error) {
	now := time.Now()
	since := now.AddDate(0, 0, -days).UTC()

	stats := &Stats{
		StartDate: since,
		EndDate:   now,
		ByAction:  make(map[string]int),
	}

	err := d.db.QueryRow(`
		SELECT COUNT(*) FROM runs WHERE started_at >= ?
	`, since).Scan(&stats.Runs)
	if err != nil {
		return nil, err
	}

	rows, err := d.db.Query(`
		SELECT action, COUNT(*)
		FROM events
		WHERE timestamp >= ?
		GROUP BY action
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return nil, err
		}
		stats.ByAction[action] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.Trashed = stats.ByAction[ActionTrash]
	stats.Skipped = stats.ByAction[ActionSkip]
	stats.Failed = stats.ByAction[ActionError]
	return stats, nil
}

// DeleteOldRecords removes runs (and their events) older than the given days
func (d *HistoryDB) DeleteOldRecords(olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays).UTC()

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM events WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)
	`, cutoff); err != nil {
		return 0, err
	}
	res, err := tx.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

func (d *HistoryDB) queryEvents(query string, args ...interface{}) ([]Event, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var errMsg sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.Timestamp, &e.Action,
			&e.Path, &e.FileName, &errMsg); err != nil {
			return nil, err
		}
		if errMsg.Valid {
			e.ErrorMessage = errMsg.String
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
