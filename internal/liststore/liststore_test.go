package liststore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/rs/zerolog"
)

const defaultTarget = `C:\DragonNest\Reborn`

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "settings.json"), defaultTarget, zerolog.Nop())
}

// TestAddIsIdempotent verifies a name appears exactly once after repeated adds
func TestAddIsIdempotent(t *testing.T) {
	tests := []string{"a.dat", "  padded.ini  ", "UPPER.txt", "with space.pak"}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t)
			if err := s.Add(name); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
			if err := s.Add(name); err != nil {
				t.Fatalf("second Add failed: %v", err)
			}

			got := slices.Collect(s.Sorted())
			if len(got) != 1 {
				t.Fatalf("Expected exactly one entry, got %v", got)
			}
		})
	}
}

// TestAddTrimsWhitespace verifies stored names are trimmed
func TestAddTrimsWhitespace(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add("  a.dat\t"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !s.Contains("a.dat") {
		t.Errorf("Expected trimmed name to be stored, got %v", s.Names())
	}
}

// TestAddRejectsBlank verifies blank names are refused without state change
func TestAddRejectsBlank(t *testing.T) {
	s := newTestStore(t)
	if err := s.Add("keep.dat"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	notified := 0
	s.Subscribe(func() { notified++ })

	for _, name := range []string{"", "   ", "\t\n"} {
		if err := s.Add(name); !errors.Is(err, ErrEmptyName) {
			t.Errorf("Add(%q) = %v, expected ErrEmptyName", name, err)
		}
	}

	if s.Len() != 1 {
		t.Errorf("Expected set unchanged, got %v", s.Names())
	}
	if notified != 0 {
		t.Errorf("Listeners should not fire on rejected add, fired %d times", notified)
	}
}

// TestCaseSensitiveEquality verifies names differing only by case are distinct
func TestCaseSensitiveEquality(t *testing.T) {
	s := newTestStore(t)
	_ = s.Add("Log.txt")
	_ = s.Add("log.txt")
	if s.Len() != 2 {
		t.Errorf("Expected 2 distinct names, got %v", s.Names())
	}
}

// TestRemoveAbsentIsNoop verifies removing an unknown name leaves the set alone
func TestRemoveAbsentIsNoop(t *testing.T) {
	s := newTestStore(t)
	_ = s.Add("a.dat")
	_ = s.Add("b.dat")

	s.Remove("c.dat")
	s.Remove("A.DAT")

	got := slices.Collect(s.Sorted())
	if !slices.Equal(got, []string{"a.dat", "b.dat"}) {
		t.Errorf("Expected [a.dat b.dat], got %v", got)
	}

	s.Remove("a.dat")
	if s.Contains("a.dat") || s.Len() != 1 {
		t.Errorf("Expected a.dat removed, got %v", s.Names())
	}
}

// TestSortedIsRestartable verifies the sequence can be ranged repeatedly and tracks changes
func TestSortedIsRestartable(t *testing.T) {
	s := newTestStore(t)
	for _, n := range []string{"zeta", "alpha", "Mid", "beta"} {
		_ = s.Add(n)
	}

	seq := s.Sorted()
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	want := []string{"Mid", "alpha", "beta", "zeta"}
	if !slices.Equal(first, want) || !slices.Equal(second, want) {
		t.Errorf("Expected %v twice, got %v and %v", want, first, second)
	}

	_ = s.Add("gamma")
	third := slices.Collect(seq)
	if !slices.Contains(third, "gamma") {
		t.Errorf("Expected restarted sequence to include new name, got %v", third)
	}

	// Early break must not disturb the set.
	for range seq {
		break
	}
	if s.Len() != 5 {
		t.Errorf("Iteration mutated the set: %v", s.Names())
	}
}

// TestPersistLoadRoundTrip simulates a restart and checks path and set survive
func TestPersistLoadRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "settings.json")
	s := New(file, defaultTarget, zerolog.Nop())
	s.SetPath("/tmp/nest")
	_ = s.Add("a.dat")
	_ = s.Add("b.dat")
	s.Remove("b.dat")
	_ = s.Add("c.dat")

	fresh := New(file, defaultTarget, zerolog.Nop())
	fresh.Load()

	if fresh.Path() != "/tmp/nest" {
		t.Errorf("Expected path /tmp/nest, got %s", fresh.Path())
	}
	got := slices.Collect(fresh.Sorted())
	if !slices.Equal(got, []string{"a.dat", "c.dat"}) {
		t.Errorf("Expected [a.dat c.dat], got %v", got)
	}
}

// TestPersistedLayout verifies the on-disk JSON shape
func TestPersistedLayout(t *testing.T) {
	s := newTestStore(t)
	s.SetPath("/games")
	_ = s.Add("b")
	_ = s.Add("a")

	data, err := os.ReadFile(s.File())
	if err != nil {
		t.Fatalf("Failed to read settings: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Settings are not JSON: %v", err)
	}
	if raw["path"] != "/games" {
		t.Errorf("Unexpected path %v", raw["path"])
	}
	files, ok := raw["files"].([]any)
	if !ok || len(files) != 2 || files[0] != "a" || files[1] != "b" {
		t.Errorf("Unexpected files %v", raw["files"])
	}
	if len(raw) != 2 {
		t.Errorf("Expected only path and files keys, got %v", raw)
	}
}

// TestLoadFallsBackToDefaults verifies missing or corrupt records never fail
func TestLoadFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name    string
		content *string
	}{
		{"missing file", nil},
		{"corrupt json", ptr("{not json")},
		{"wrong types", ptr(`{"path": 5, "files": "x"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "settings.json")
			if tt.content != nil {
				if err := os.WriteFile(file, []byte(*tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			s := New(file, defaultTarget, zerolog.Nop())
			s.Load()

			if s.Path() != defaultTarget {
				t.Errorf("Expected default path, got %s", s.Path())
			}
			if s.Len() != 0 {
				t.Errorf("Expected empty set, got %v", s.Names())
			}
		})
	}
}

// TestLoadMissingKeysKeepDefaults verifies each absent key keeps its default
func TestLoadMissingKeysKeepDefaults(t *testing.T) {
	dir := t.TempDir()

	onlyFiles := filepath.Join(dir, "files.json")
	if err := os.WriteFile(onlyFiles, []byte(`{"files": ["x", "", "x", "  "]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	s := New(onlyFiles, defaultTarget, zerolog.Nop())
	s.Load()
	if s.Path() != defaultTarget {
		t.Errorf("Expected default path, got %s", s.Path())
	}
	if got := slices.Collect(s.Sorted()); !slices.Equal(got, []string{"x"}) {
		t.Errorf("Expected [x] with blanks and duplicates dropped, got %v", got)
	}

	onlyPath := filepath.Join(dir, "path.json")
	if err := os.WriteFile(onlyPath, []byte(`{"path": "/elsewhere"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	s = New(onlyPath, defaultTarget, zerolog.Nop())
	s.Load()
	if s.Path() != "/elsewhere" {
		t.Errorf("Expected /elsewhere, got %s", s.Path())
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty set, got %v", s.Names())
	}
}

// TestPersistFailureIsSwallowed verifies write errors never reach the caller
func TestPersistFailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("file, not dir"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(filepath.Join(blocker, "settings.json"), defaultTarget, zerolog.Nop())
	if err := s.Add("a.dat"); err != nil {
		t.Fatalf("Add should not surface persistence errors: %v", err)
	}
	s.SetPath("/x")
	s.Remove("a.dat")

	if s.Path() != "/x" || s.Len() != 0 {
		t.Errorf("In-memory state should stay authoritative, got path=%s names=%v", s.Path(), s.Names())
	}
}

// TestSubscribeFiresOnMutation verifies listeners see each confirmed mutation
func TestSubscribeFiresOnMutation(t *testing.T) {
	s := newTestStore(t)
	var seen []int
	s.Subscribe(func() { seen = append(seen, s.Len()) })

	_ = s.Add("a")
	_ = s.Add("b")
	s.Remove("a")
	s.SetPath("/p")

	if !slices.Equal(seen, []int{1, 2, 1, 1}) {
		t.Errorf("Unexpected listener history %v", seen)
	}
}

func ptr(s string) *string { return &s }
