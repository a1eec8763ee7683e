// Package handoff transfers control of the terminal to the external ssh client.
package handoff

import (
	"fmt"
	"os/exec"
	"path/filepath"
)

// DefaultClient is the name of the ssh client executable searched for in PATH
const DefaultClient = "ssh"

// ExecutableNotFoundError is returned when the ssh client can not be found in PATH.
type ExecutableNotFoundError struct {
	Name string
	Err  error
}

func (e *ExecutableNotFoundError) Error() string {
	return fmt.Sprintf("the %s executable could not be found on your PATH", e.Name)
}

func (e *ExecutableNotFoundError) Unwrap() error {
	return e.Err
}

var lookPath = exec.LookPath

// LookPath returns the full path of the named executable.
func LookPath(name string) (string, error) {
	p, err := lookPath(name)
	if err != nil {
		return "", &ExecutableNotFoundError{Name: name, Err: err}
	}
	return p, nil
}

// argv returns the full argument vector for the program at path, the program name first.
func argv(path string, args []string) []string {
	return append([]string{filepath.Base(path)}, args...)
}
