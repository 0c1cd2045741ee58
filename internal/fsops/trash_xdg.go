//go:build linux || freebsd || netbsd || openbsd || dragonfly

package fsops

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const maxNameAttempts = 1000

// XDGTrash implements the freedesktop.org home trash:
// files/<name> holds the content and info/<name>.trashinfo records where it came from.
type XDGTrash struct {
	Dir string
	Now func() time.Time
}

func newSystemTrash() (Trasher, error) {
	return NewXDGTrash()
}

// NewXDGTrash locates $XDG_DATA_HOME/Trash, defaulting to ~/.local/share/Trash
func NewXDGTrash() (*XDGTrash, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate trash: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return &XDGTrash{Dir: filepath.Join(dataHome, "Trash"), Now: time.Now}, nil
}

func (t *XDGTrash) Trash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(abs); err != nil {
		return err
	}

	filesDir := filepath.Join(t.Dir, "files")
	infoDir := filepath.Join(t.Dir, "info")
	for _, dir := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create trash directory: %w", err)
		}
	}

	name, infoPath, err := t.reserve(infoDir, filepath.Base(abs), abs)
	if err != nil {
		return err
	}

	if err := moveFile(abs, filepath.Join(filesDir, name)); err != nil {
		os.Remove(infoPath)
		return fmt.Errorf("move to trash: %w", err)
	}
	return nil
}

// reserve claims a free name by creating its .trashinfo exclusively
func (t *XDGTrash) reserve(infoDir, base, original string) (string, string, error) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	body := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		escapeTrashPath(original),
		now().Format("2006-01-02T15:04:05"),
	)

	for n := 0; n < maxNameAttempts; n++ {
		name := candidateName(base, n)
		infoPath := filepath.Join(infoDir, name+".trashinfo")
		f, err := os.OpenFile(infoPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", fmt.Errorf("write trash info: %w", err)
		}
		if _, err := f.WriteString(body); err != nil {
			f.Close()
			os.Remove(infoPath)
			return "", "", fmt.Errorf("write trash info: %w", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(infoPath)
			return "", "", fmt.Errorf("write trash info: %w", err)
		}
		return name, infoPath, nil
	}
	return "", "", fmt.Errorf("no free trash name for %s", base)
}

// escapeTrashPath percent-encodes each segment, keeping separators
func escapeTrashPath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
