//go:build windows

package handoff

import (
	"errors"
	"os"
	"os/exec"
)

// Exec runs the program at path with args, attached to this process' terminal.  Windows has no way to replace
// the running process, so the program is run as a child and this process exits with its exit code.  Exec only
// returns if the program could not be started.
func Exec(path string, args []string) error {
	a := argv(path, args)

	cmd := exec.Command(path, a[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		return err
	}

	os.Exit(0)
	return nil
}
