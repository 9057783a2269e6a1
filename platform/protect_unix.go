//go:build unix || darwin || linux || freebsd || openbsd || netbsd

// platform/protect_unix.go
package platform

import (
	"golang.org/x/sys/unix"
)

// UnixProtector implements PageProtector with unix.Mprotect, the same
// syscall wrapper pkg/pager/mmap_unix.go uses for its mmap regions.
type UnixProtector struct{}

// Protect changes the access mode of region in place. region must be a
// whole number of OS pages for Mprotect to accept it; callers align page
// groups to the platform page size for this reason.
func (UnixProtector) Protect(region []byte, mode ProtectMode) error {
	if len(region) == 0 {
		return nil
	}
	prot := unix.PROT_READ | unix.PROT_WRITE
	if mode == ProtectReadOnly {
		prot = unix.PROT_READ
	}
	return unix.Mprotect(region, prot)
}

// NewDefaultProtector returns the OS-backed protector for unix platforms.
func NewDefaultProtector() PageProtector {
	return UnixProtector{}
}
