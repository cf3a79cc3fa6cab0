//go:build !unix

package filesync

import (
	"os"
)

// hostAccess falls back to a stat on platforms without access(2); write
// problems then surface on the first write instead.
func hostAccess(path string, mode Mode) error {
	_, err := os.Stat(path)
	return err
}
