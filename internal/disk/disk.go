package disk

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
)

// ErrStale is returned when a path sits on an unresponsive or stale mount.
var ErrStale = errors.New("filesystem not responding")

// ErrNotDir is returned by StatDir when the path exists but is not a directory.
var ErrNotDir = errors.New("not a directory")

// Stat stats path, giving up after timeout. A timeout or an NFS-style
// error (EIO, ESTALE, ENXIO) is reported as ErrStale.
func Stat(path string, timeout time.Duration) (os.FileInfo, error) {
	type result struct {
		info os.FileInfo
		err  error
	}
	done := make(chan result, 1)

	go func() {
		info, err := os.Stat(path)
		done <- result{info, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && isStaleError(r.err) {
			return nil, fmt.Errorf("%s: %w: %v", path, ErrStale, r.err)
		}
		return r.info, r.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("%s: %w: stat timed out after %s", path, ErrStale, timeout)
	}
}

// StatDir is Stat that also requires path to be a directory.
func StatDir(path string, timeout time.Duration) (os.FileInfo, error) {
	info, err := Stat(path, timeout)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotDir)
	}
	return info, nil
}

func isStaleError(err error) bool {
	return os.IsTimeout(err) ||
		errors.Is(err, syscall.EIO) ||
		errors.Is(err, syscall.ESTALE) ||
		errors.Is(err, syscall.ENXIO)
}
