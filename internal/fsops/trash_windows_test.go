//go:build windows && (amd64 || arm64)

package fsops

import (
	"testing"
	"unsafe"
)

// TestShFileOpStructLayout pins the struct to the 64-bit shell32 layout
func TestShFileOpStructLayout(t *testing.T) {
	var op shFileOpStruct
	if got := unsafe.Sizeof(op); got != 56 {
		t.Errorf("Expected size 56, got %d", got)
	}

	offsets := []struct {
		field string
		got   uintptr
		want  uintptr
	}{
		{"hwnd", unsafe.Offsetof(op.hwnd), 0},
		{"wFunc", unsafe.Offsetof(op.wFunc), 8},
		{"pFrom", unsafe.Offsetof(op.pFrom), 16},
		{"pTo", unsafe.Offsetof(op.pTo), 24},
		{"fFlags", unsafe.Offsetof(op.fFlags), 32},
		{"fAnyOperationsAborted", unsafe.Offsetof(op.fAnyOperationsAborted), 36},
		{"hNameMappings", unsafe.Offsetof(op.hNameMappings), 40},
		{"lpszProgressTitle", unsafe.Offsetof(op.lpszProgressTitle), 48},
	}
	for _, o := range offsets {
		if o.got != o.want {
			t.Errorf("%s: expected offset %d, got %d", o.field, o.want, o.got)
		}
	}
}
