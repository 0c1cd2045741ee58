package fsops

import (
	"errors"
	"os"
)

// Trasher moves a file to a recoverable holding area.
// Enables mocking in tests so no real file reaches the trash.
type Trasher interface {
	Trash(path string) error
}

// ErrCrossDevice is returned when a directory would need copying across filesystems.
var ErrCrossDevice = errors.New("cannot move directory across filesystems")

// System returns the platform trash.
func System() (Trasher, error) {
	return newSystemTrash()
}

// Permanent implements Trasher by removing the file outright
type Permanent struct{}

func (Permanent) Trash(path string) error {
	return os.Remove(path)
}
