//go:build windows

// platform/protect_windows.go
package platform

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// WindowsProtector implements PageProtector with windows.VirtualProtect,
// the same package pkg/pager/mmap_windows.go uses for its file mappings.
type WindowsProtector struct{}

// Protect changes the access mode of region in place.
func (WindowsProtector) Protect(region []byte, mode ProtectMode) error {
	if len(region) == 0 {
		return nil
	}
	newProtect := uint32(windows.PAGE_READWRITE)
	if mode == ProtectReadOnly {
		newProtect = windows.PAGE_READONLY
	}
	var oldProtect uint32
	addr := uintptr(unsafe.Pointer(&region[0]))
	return windows.VirtualProtect(addr, uintptr(len(region)), newProtect, &oldProtect)
}

// NewDefaultProtector returns the OS-backed protector for Windows.
func NewDefaultProtector() PageProtector {
	return WindowsProtector{}
}
