//go:build !windows

package handoff

import (
	"os"

	"golang.org/x/sys/unix"
)

// Exec replaces the current process with the program at path, called with args.  It only returns if the
// replacement could not be done, the exit status of the program becomes the exit status of this process.
func Exec(path string, args []string) error {
	return unix.Exec(path, argv(path, args), os.Environ())
}
