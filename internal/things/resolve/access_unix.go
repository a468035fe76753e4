//go:build unix

package resolve

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

// checkReadable asks the kernel whether the real user may read path.
func checkReadable(path string) error {
	if err := unix.Access(path, unix.R_OK); err != nil {
		return &fs.PathError{Op: "access", Path: path, Err: err}
	}
	return nil
}
