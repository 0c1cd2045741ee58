package cleanup

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nest-cleaner/internal/database"
	"nest-cleaner/internal/fsops"
	"nest-cleaner/internal/logging"
	"nest-cleaner/internal/metrics"
	"nest-cleaner/internal/safety"
)

// History records runs and per-file outcomes. *database.HistoryDB satisfies it.
type History interface {
	BeginRun(run database.Run) error
	RecordEvent(e database.Event) error
	FinishRun(id string, finishedAt time.Time, deleted, skipped, failed int) error
}

// Result is the tally of a single pass over the list.
// Deleted counts files moved to the trash (or that would be, in dry-run mode).
type Result struct {
	RunID   string
	Deleted int
	Skipped int
	Failed  int
	DryRun  bool
}

// Total is the number of distinct names visited
func (r Result) Total() int {
	return r.Deleted + r.Skipped + r.Failed
}

// Cleaner moves listed files from a target folder to the trash
type Cleaner struct {
	logger    zerolog.Logger
	trasher   fsops.Trasher
	protected []string
	dryRun    bool
	history   History
	now       func() time.Time
}

// NewCleaner creates a Cleaner. history may be nil.
func NewCleaner(logger zerolog.Logger, trasher fsops.Trasher, dryRun bool, history History) *Cleaner {
	c := &Cleaner{
		logger:  logging.Component(logger, "cleanup"),
		trasher: trasher,
		dryRun:  dryRun,
		now:     time.Now,
	}
	// Avoid storing a typed nil pointer in the interface.
	if hdb, ok := history.(*database.HistoryDB); !ok || hdb != nil {
		c.history = history
	}
	return c
}

// SetTrasher swaps the trash primitive
func (c *Cleaner) SetTrasher(t fsops.Trasher) {
	c.trasher = t
}

// SetProtected adds paths that must never be trashed, on top of the system defaults
func (c *Cleaner) SetProtected(paths []string) {
	c.protected = append([]string(nil), paths...)
}

// DryRun reports whether the trash primitive is bypassed
func (c *Cleaner) DryRun() bool {
	return c.dryRun
}

// Run resolves every name against target and trashes the ones that exist.
// Missing files are skipped; a failed trash operation is logged and counted
// as failed, and the pass continues. Each distinct name is visited once.
func (c *Cleaner) Run(target string, names []string) Result {
	start := c.now()
	res := Result{RunID: uuid.NewString(), DryRun: c.dryRun}
	validator := safety.NewValidator([]string{target}, c.protected)

	c.logger.Info().
		Str("run_id", res.RunID).
		Str("target", target).
		Int("total_names", len(names)).
		Bool("dry_run", c.dryRun).
		Msg("Starting cleanup")

	if c.history != nil {
		err := c.history.BeginRun(database.Run{
			ID:         res.RunID,
			StartedAt:  start,
			TargetPath: target,
			DryRun:     c.dryRun,
		})
		if err != nil {
			c.historyError(err)
		}
	}

	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		full := filepath.Join(target, name)
		action, err := c.process(validator, name, full)
		switch action {
		case database.ActionTrash, database.ActionDryRun:
			res.Deleted++
		case database.ActionSkip:
			res.Skipped++
		default:
			res.Failed++
		}
		c.record(res.RunID, action, full, name, err)
	}

	elapsed := c.now().Sub(start)
	metrics.RecordRun(res.Deleted, res.Skipped, res.Failed, c.dryRun, elapsed)

	if c.history != nil {
		if err := c.history.FinishRun(res.RunID, c.now(), res.Deleted, res.Skipped, res.Failed); err != nil {
			c.historyError(err)
		}
	}

	c.logger.Info().
		Str("run_id", res.RunID).
		Int("deleted", res.Deleted).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Dur("elapsed", elapsed).
		Msg("Cleanup complete")

	return res
}

// process handles one name and returns the event action
func (c *Cleaner) process(validator *safety.Validator, name, full string) (string, error) {
	if err := safety.ValidateName(name); err != nil {
		return database.ActionError, err
	}

	// Stat follows links: a dangling link counts as missing, as does a
	// name whose parent is a regular file.
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return database.ActionSkip, nil
		}
		return database.ActionError, err
	}

	if err := validator.ValidateDeleteTarget(full); err != nil {
		return database.ActionError, err
	}

	if c.dryRun {
		return database.ActionDryRun, nil
	}

	if err := c.trasher.Trash(full); err != nil {
		return database.ActionError, err
	}
	return database.ActionTrash, nil
}

func (c *Cleaner) record(runID, action, full, name string, err error) {
	ev := c.logger.Info()
	if action == database.ActionError {
		ev = c.logger.Error().Err(err)
	}
	ev.Str("run_id", runID).Str("action", action).Str("path", full).Msg("file processed")

	if c.history == nil {
		return
	}
	e := database.Event{
		RunID:     runID,
		Timestamp: c.now(),
		Action:    action,
		Path:      full,
		FileName:  name,
	}
	if err != nil {
		e.ErrorMessage = err.Error()
	}
	if dbErr := c.history.RecordEvent(e); dbErr != nil {
		c.historyError(dbErr)
	}
}

func (c *Cleaner) historyError(err error) {
	metrics.RecordHistoryError()
	c.logger.Error().Err(err).Msg("Failed to record to database")
}
