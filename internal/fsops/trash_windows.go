//go:build windows && (amd64 || arm64)

package fsops

import (
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	foDelete          = 0x0003
	fofSilent         = 0x0004
	fofNoConfirmation = 0x0010
	fofAllowUndo      = 0x0040
	fofNoErrorUI      = 0x0400
)

var procSHFileOperationW = windows.NewLazySystemDLL("shell32.dll").NewProc("SHFileOperationW")

// shFileOpStruct mirrors SHFILEOPSTRUCTW with natural 64-bit alignment.
// 32-bit builds pack the struct to 1 byte, so they fall back to trash_other.go.
type shFileOpStruct struct {
	hwnd                  uintptr
	wFunc                 uint32
	pFrom                 *uint16
	pTo                   *uint16
	fFlags                uint16
	fAnyOperationsAborted int32
	hNameMappings         uintptr
	lpszProgressTitle     *uint16
}

// RecycleBin sends files to the Windows recycle bin
type RecycleBin struct{}

func newSystemTrash() (Trasher, error) {
	if err := procSHFileOperationW.Find(); err != nil {
		return nil, fmt.Errorf("locate SHFileOperationW: %w", err)
	}
	return RecycleBin{}, nil
}

func (RecycleBin) Trash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(abs); err != nil {
		return err
	}

	// pFrom is a list of strings terminated by an extra NUL
	from, err := windows.UTF16FromString(abs)
	if err != nil {
		return err
	}
	from = append(from, 0)

	op := shFileOpStruct{
		wFunc:  foDelete,
		pFrom:  &from[0],
		fFlags: fofAllowUndo | fofNoConfirmation | fofSilent | fofNoErrorUI,
	}
	r, _, _ := procSHFileOperationW.Call(uintptr(unsafe.Pointer(&op)))
	if r != 0 {
		return fmt.Errorf("SHFileOperationW %s: code 0x%x", abs, r)
	}
	if op.fAnyOperationsAborted != 0 {
		return fmt.Errorf("SHFileOperationW %s: aborted", abs)
	}
	return nil
}
