//go:build !linux && !freebsd && !netbsd && !openbsd && !dragonfly && !darwin && !(windows && (amd64 || arm64))

package fsops

import (
	"errors"
	"runtime"
)

func newSystemTrash() (Trasher, error) {
	return nil, errors.New("no trash available on " + runtime.GOOS)
}
