// Package toolchain runs the external programs songfetch delegates to and
// verifies that they are installed.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

// maxCommandLen caps the command line quoted in error messages.
const maxCommandLen = 200

// ErrInterrupted marks a program that was stopped by SIGINT, usually a Ctrl-C
// delivered to the whole foreground process group.
var ErrInterrupted = errors.New("interrupted")

// exitCodeSIGINT is the conventional status of a program that exits on SIGINT.
const exitCodeSIGINT = 130

// Result holds what a finished subprocess produced.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner starts a program and waits for it. Implementations must return a
// non-nil error whenever the program did not exit with status zero.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// CommandError describes a subprocess that could not be started or exited non-zero.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q failed (exit code %d): %v", e.Command, e.ExitCode, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError builds a CommandError with the command line truncated for display.
func NewCommandError(name string, args []string, res Result, err error) *CommandError {
	cmdStr := strings.TrimSpace(name + " " + strings.Join(args, " "))
	if len(cmdStr) > maxCommandLen {
		cmdStr = cmdStr[:maxCommandLen] + "..."
	}
	return &CommandError{
		Command:  cmdStr,
		ExitCode: res.ExitCode,
		Stderr:   string(res.Stderr),
		Err:      err,
	}
}

// ExecRunner runs programs through os/exec, capturing both output streams.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	res := Result{
		Stdout: stdoutBuf.Bytes(),
		Stderr: stderrBuf.Bytes(),
	}
	if err == nil {
		return res, nil
	}

	if ctx.Err() != nil {
		return res, ctx.Err()
	}

	res.ExitCode = -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if interruptedBySIGINT(exitErr) {
			err = fmt.Errorf("%w: %w", ErrInterrupted, err)
		}
	}
	return res, NewCommandError(name, args, res, err)
}

func interruptedBySIGINT(exitErr *exec.ExitError) bool {
	if exitErr.ExitCode() == exitCodeSIGINT {
		return true
	}
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	return ok && status.Signaled() && status.Signal() == syscall.SIGINT
}
