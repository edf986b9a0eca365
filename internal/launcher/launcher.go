// Package launcher hands the process over to the confirmed command. The
// overlay must already be gone when Exec is called.
package launcher

import (
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// ErrEmptyCommand is returned when there is nothing to run
var ErrEmptyCommand = errors.New("command cannot be empty")

const fallbackShell = "/bin/sh"

// Shell replaces the current process with `sh -c <command>`
type Shell struct {
	// exec and lookPath are swapped out in tests
	exec     func(argv0 string, argv []string, envv []string) error
	lookPath func(file string) (string, error)
	environ  func() []string
}

// NewShell returns a launcher that execs through the user's sh
func NewShell() *Shell {
	return &Shell{
		exec:     syscall.Exec,
		lookPath: exec.LookPath,
		environ:  os.Environ,
	}
}

// Argv returns the argument vector used to run command
func Argv(command string) []string {
	return []string{"sh", "-c", command}
}

// Path returns the shell binary that will replace the process
func (s *Shell) Path() string {
	if path, err := s.lookPath("sh"); err == nil {
		return path
	}
	return fallbackShell
}

// Exec replaces the process image. It only returns on failure.
func (s *Shell) Exec(command string) error {
	if strings.TrimSpace(command) == "" {
		return ErrEmptyCommand
	}

	path := s.Path()
	if err := s.exec(path, Argv(command), s.environ()); err != nil {
		return errors.Wrapf(err, "failed to exec %s", path)
	}
	return nil
}
