package scm

import (
	"errors"
	"strings"
)

// Sentinel errors for repository preflight checks.
var (
	// ErrGitMissing indicates the git binary is not on PATH.
	ErrGitMissing = errors.New("git not available")
	// ErrNotARepository indicates the working directory is not inside a git repository.
	ErrNotARepository = errors.New("not a git repository")
	// ErrNoRemote indicates an operation needs a configured remote and none exists.
	ErrNoRemote = errors.New("no git remote configured")
)

// CommandError records a failed git invocation with its captured stderr.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

// Error returns the failed command line and stderr, if any.
func (e *CommandError) Error() string {
	msg := "git " + strings.Join(e.Args, " ") + ": " + e.Err.Error()
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap returns the underlying process error for errors.Is/As.
func (e *CommandError) Unwrap() error {
	return e.Err
}

func commandErr(args []string, stderr string, err error) error {
	return &CommandError{Args: args, Stderr: strings.TrimSpace(stderr), Err: err}
}
