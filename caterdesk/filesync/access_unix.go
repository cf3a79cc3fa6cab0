//go:build unix

package filesync

import (
	"golang.org/x/sys/unix"
)

// hostAccess asks the operating system whether the current user may access
// path with mode, without opening it
func hostAccess(path string, mode Mode) error {
	bits := uint32(unix.R_OK)
	if mode == ModeReadWrite {
		bits |= unix.W_OK
	}
	return unix.Access(path, bits)
}
