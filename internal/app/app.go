// Package app wires configuration, logging, metrics, history, the trash
// and the list store into a ready session. Both executables start here.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"nest-cleaner/internal/cleanup"
	"nest-cleaner/internal/config"
	"nest-cleaner/internal/database"
	"nest-cleaner/internal/fsops"
	"nest-cleaner/internal/liststore"
	"nest-cleaner/internal/logging"
	"nest-cleaner/internal/metrics"
	"nest-cleaner/internal/session"
)

// ErrNoTrash is returned when the platform trash is unavailable and
// permanent_delete is off.
var ErrNoTrash = errors.New("no trash available")

// Options adjust a single process on top of the config file
type Options struct {
	DryRun       bool // forces dry-run regardless of config
	ServeMetrics bool // start the /metrics endpoint if a port is configured
}

// App holds the wired components
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Store   *liststore.Store
	Cleaner *cleanup.Cleaner
	Session *session.Session
	History *database.HistoryDB // nil when history is disabled or failed to open

	logCloser io.Closer
	serving   bool
}

// Open builds an App from cfg. The list store is loaded before returning.
func Open(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}

	logger, logCloser := logging.NewWithConfig(cfg)
	a := &App{Config: cfg, Logger: logger, logCloser: logCloser}

	metrics.Init()
	if opts.ServeMetrics && cfg.Prometheus.Port > 0 {
		logger.Info().Str("addr", cfg.PrometheusAddress()).Msg("Starting Prometheus metrics")
		metrics.StartServer(cfg.PrometheusAddress(), logger)
		a.serving = true
	}

	trasher, err := newTrasher(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.HistoryEnabled() {
		db, err := database.NewHistoryDB(cfg.DatabasePath)
		if err != nil {
			// History is optional; cleanup still works without it.
			metrics.RecordHistoryError()
			logger.Error().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to open history database")
		} else {
			a.History = db
		}
	}

	dryRun := cfg.DryRun || opts.DryRun
	if dryRun {
		logger.Warn().Msg("DRY RUN MODE: no files will be moved")
	}

	var history cleanup.History
	if a.History != nil {
		history = a.History
	}
	a.Cleaner = cleanup.NewCleaner(logger, trasher, dryRun, history)
	a.Cleaner.SetProtected(cfg.ProtectedPaths)

	a.Store = liststore.New(cfg.SettingsPath, cfg.DefaultTargetPath, logger)
	a.Store.Load()

	a.Session = session.New(a.Store, a.Cleaner, logger)
	return a, nil
}

// Close stops the metrics server and closes the history database and log file
func (a *App) Close() {
	if a.serving {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		metrics.Shutdown(ctx, a.Logger)
		cancel()
		a.serving = false
	}
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Failed to close database")
		}
		a.History = nil
	}
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}

func newTrasher(cfg *config.Config) (fsops.Trasher, error) {
	if cfg.PermanentDelete {
		return fsops.Permanent{}, nil
	}
	t, err := fsops.System()
	if err != nil {
		return nil, fmt.Errorf("%w: %v (set permanent_delete to bypass the trash)", ErrNoTrash, err)
	}
	return t, nil
}
