// Package liststore keeps the set of filenames to clean and the target
// folder they resolve against, mirrored to a small JSON record on disk.
package liststore

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"nest-cleaner/internal/metrics"
)

// ErrEmptyName is returned by Add when the name is blank after trimming.
var ErrEmptyName = errors.New("filename cannot be empty")

// Record is the persisted layout. Pointer fields distinguish an absent key
// from an empty value so a missing key keeps its default.
type Record struct {
	Path  *string   `json:"path,omitempty"`
	Files *[]string `json:"files,omitempty"`
}

// Store holds the Settings Record. All mutations persist immediately.
type Store struct {
	mu        sync.RWMutex
	file      string
	target    string
	names     map[string]struct{}
	logger    zerolog.Logger
	listeners []func()
}

// New returns a store backed by file with defaults applied. Call Load to
// pick up a previously persisted record.
func New(file, defaultTarget string, logger zerolog.Logger) *Store {
	return &Store{
		file:   file,
		target: defaultTarget,
		names:  make(map[string]struct{}),
		logger: logger.With().Str("component", "liststore").Logger(),
	}
}

// File returns the path of the persisted record.
func (s *Store) File() string {
	return s.file
}

// Subscribe registers fn to run after every successful mutation.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Add trims name and inserts it. Adding an existing name changes nothing
// but still persists.
func (s *Store) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	s.mu.Lock()
	s.names[name] = struct{}{}
	s.mu.Unlock()

	s.logger.Debug().Str("name", name).Msg("added filename")
	s.commit()
	return nil
}

// Remove deletes name from the set if present.
func (s *Store) Remove(name string) {
	s.mu.Lock()
	delete(s.names, name)
	s.mu.Unlock()

	s.logger.Debug().Str("name", name).Msg("removed filename")
	s.commit()
}

// SetPath replaces the target folder.
func (s *Store) SetPath(path string) {
	s.mu.Lock()
	s.target = path
	s.mu.Unlock()

	s.logger.Debug().Str("path", path).Msg("target path changed")
	s.commit()
}

// Path returns the target folder.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target
}

// Len returns the number of filenames.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.names)
}

// Contains reports whether name is in the set. Matching is exact.
func (s *Store) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.names[name]
	return ok
}

// Names returns a copy of the set in no particular order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Collect(maps.Keys(s.names))
}

// Sorted yields the filenames in lexicographic order. The snapshot is taken
// when iteration starts, so the sequence can be ranged over repeatedly and
// always reflects the current set.
func (s *Store) Sorted() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range slices.Sorted(slices.Values(s.Names())) {
			if !yield(name) {
				return
			}
		}
	}
}

// Load reads the persisted record. A missing file keeps the defaults; an
// unreadable or corrupt one is logged and the defaults are kept as well.
func (s *Store) Load() {
	data, err := os.ReadFile(s.file)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Error().Err(err).Str("file", s.file).Msg("failed to read settings, using defaults")
		}
		return
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Error().Err(err).Str("file", s.file).Msg("failed to parse settings, using defaults")
		return
	}

	s.mu.Lock()
	if rec.Path != nil {
		s.target = *rec.Path
	}
	if rec.Files != nil {
		names := make(map[string]struct{}, len(*rec.Files))
		for _, name := range *rec.Files {
			if strings.TrimSpace(name) == "" {
				continue
			}
			names[name] = struct{}{}
		}
		s.names = names
	}
	count := len(s.names)
	s.mu.Unlock()

	metrics.SetListSize(count)
	s.logger.Info().Str("file", s.file).Int("files", count).Msg("settings loaded")
}

// Persist writes the full record, replacing the previous file. Failures are
// logged; the in-memory state stays authoritative.
func (s *Store) Persist() {
	if err := s.write(); err != nil {
		metrics.RecordPersistError()
		s.logger.Error().Err(err).Str("file", s.file).Msg("failed to save settings")
	}
}

func (s *Store) write() error {
	s.mu.RLock()
	path := s.target
	files := slices.Sorted(maps.Keys(s.names))
	s.mu.RUnlock()

	data, err := json.MarshalIndent(Record{Path: &path, Files: &files}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(s.file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.file)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.file); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// commit persists and notifies listeners.
func (s *Store) commit() {
	s.Persist()

	s.mu.RLock()
	count := len(s.names)
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()

	metrics.SetListSize(count)
	for _, fn := range listeners {
		fn()
	}
}
