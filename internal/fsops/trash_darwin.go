//go:build darwin

package fsops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FinderTrash moves files into ~/.Trash
type FinderTrash struct {
	Dir string
}

func newSystemTrash() (Trasher, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("locate trash: %w", err)
	}
	return &FinderTrash{Dir: filepath.Join(home, ".Trash")}, nil
}

func (t *FinderTrash) Trash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(abs); err != nil {
		return err
	}
	if err := os.MkdirAll(t.Dir, 0o700); err != nil {
		return fmt.Errorf("create trash directory: %w", err)
	}

	base := filepath.Base(abs)
	for n := 0; n < 1000; n++ {
		dst := filepath.Join(t.Dir, candidateName(base, n))
		if _, err := os.Lstat(dst); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := moveFile(abs, dst); err != nil {
			return fmt.Errorf("move to trash: %w", err)
		}
		return nil
	}
	return fmt.Errorf("no free trash name for %s", base)
}
