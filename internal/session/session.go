// Package session is the controller shared by the desktop window and the
// CLI. It owns the list store, gates cleanup runs behind the precondition
// checks and keeps the status line.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nest-cleaner/internal/cleanup"
	"nest-cleaner/internal/disk"
	"nest-cleaner/internal/liststore"
	"nest-cleaner/internal/logging"
	"nest-cleaner/internal/metrics"
)

// Precondition failures returned by Check and Execute, in the order they are tested.
var (
	ErrTargetMissing = errors.New("target folder does not exist")
	ErrEmptyList     = errors.New("no filenames in the list")
	ErrDeclined      = errors.New("cleanup cancelled")
)

// DefaultStatTimeout bounds the target folder check.
const DefaultStatTimeout = 5 * time.Second

// Runner executes a cleanup pass. *cleanup.Cleaner satisfies it.
type Runner interface {
	Run(target string, names []string) cleanup.Result
	DryRun() bool
}

// Session ties the list store to the cleanup executor.
type Session struct {
	store       *liststore.Store
	runner      Runner
	logger      zerolog.Logger
	statTimeout time.Duration

	mu     sync.Mutex
	status string
	last   *cleanup.Result
}

// New returns a session over store and runner.
func New(store *liststore.Store, runner Runner, logger zerolog.Logger) *Session {
	return &Session{
		store:       store,
		runner:      runner,
		logger:      logging.Component(logger, "session"),
		statTimeout: DefaultStatTimeout,
		status:      "Ready",
	}
}

// SetStatTimeout overrides the target folder check timeout.
func (s *Session) SetStatTimeout(d time.Duration) {
	s.statTimeout = d
}

// Store exposes the list for display.
func (s *Session) Store() *liststore.Store {
	return s.store
}

// AddName adds a filename. A blank name returns liststore.ErrEmptyName.
func (s *Session) AddName(name string) error {
	if err := s.store.Add(name); err != nil {
		s.setStatus("Please enter a filename")
		return err
	}
	return nil
}

// RemoveName removes a filename from the list.
func (s *Session) RemoveName(name string) {
	s.store.Remove(name)
}

// SetTargetPath changes the folder the list is resolved against.
func (s *Session) SetTargetPath(path string) {
	path = strings.TrimSpace(path)
	if path == s.store.Path() {
		return
	}
	s.store.SetPath(path)
}

// Check runs the target and list preconditions and returns the
// confirmation prompt for the run they would allow.
func (s *Session) Check() (prompt string, err error) {
	target := s.store.Path()
	if _, err := disk.StatDir(target, s.statTimeout); err != nil {
		s.logger.Warn().Err(err).Str("target", target).Msg("target folder check failed")
		return "", fmt.Errorf("%w: %s", ErrTargetMissing, target)
	}

	n := s.store.Len()
	if n == 0 {
		return "", ErrEmptyList
	}

	verb := "Move"
	if s.runner.DryRun() {
		verb = "Simulate moving"
	}
	return fmt.Sprintf("%s %d listed file(s) from %s to the trash?", verb, n, target), nil
}

// Execute checks that the target folder exists, that the list is not
// empty and that confirm approves, in that order. The first failing check
// is returned and nothing is touched. Otherwise the cleanup runs and its
// result is returned.
func (s *Session) Execute(confirm func(prompt string) bool) (cleanup.Result, error) {
	prompt, err := s.Check()
	if err != nil {
		s.block(err)
		return cleanup.Result{}, err
	}
	if confirm == nil || !confirm(prompt) {
		s.block(ErrDeclined)
		return cleanup.Result{}, ErrDeclined
	}

	target := s.store.Path()
	res := s.runner.Run(target, s.store.Names())

	s.mu.Lock()
	s.last = &res
	s.status = StatusLine(res)
	s.mu.Unlock()
	return res, nil
}

// Status returns the most recent status line.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastResult returns the result of the most recent completed run.
func (s *Session) LastResult() (cleanup.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return cleanup.Result{}, false
	}
	return *s.last, true
}

// StatusLine renders a run result for the status label.
func StatusLine(res cleanup.Result) string {
	line := fmt.Sprintf("Deleted: %d | Skipped: %d | Failed: %d", res.Deleted, res.Skipped, res.Failed)
	if res.DryRun {
		line += " (dry run)"
	}
	return line
}

func (s *Session) block(err error) {
	switch {
	case errors.Is(err, ErrTargetMissing):
		metrics.RecordBlockedRun(metrics.OutcomeMissingTarget)
		s.setStatus("Target folder not found")
	case errors.Is(err, ErrEmptyList):
		metrics.RecordBlockedRun(metrics.OutcomeEmptyList)
		s.setStatus("No files in the list")
	case errors.Is(err, ErrDeclined):
		metrics.RecordBlockedRun(metrics.OutcomeDeclined)
		s.setStatus("Cancelled")
	}
	s.logger.Info().Err(err).Msg("cleanup not started")
}

func (s *Session) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}
