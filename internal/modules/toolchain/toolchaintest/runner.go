// Package toolchaintest provides a scripted toolchain.Runner for tests.
package toolchaintest

import (
	"context"
	"errors"
	"songfetch/internal/modules/toolchain"
	"strings"
	"sync"
)

// Call records one invocation seen by a Runner.
type Call struct {
	Name string
	Args []string
}

// Line is the call rendered as a single command line.
func (c Call) Line() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Responder decides what a scripted invocation returns.
type Responder func(ctx context.Context, call Call) (toolchain.Result, error)

// Runner records every call and answers through Respond. A nil Respond succeeds with no output.
type Runner struct {
	Respond Responder

	mu    sync.Mutex
	calls []Call
}

func (r *Runner) Run(ctx context.Context, name string, args ...string) (toolchain.Result, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return toolchain.Result{}, err
	}
	if r.Respond == nil {
		return toolchain.Result{}, nil
	}
	return r.Respond(ctx, call)
}

// Calls returns a copy of the recorded calls.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsWith returns the recorded calls whose arguments contain arg.
func (r *Runner) CallsWith(arg string) []Call {
	var matched []Call
	for _, c := range r.Calls() {
		for _, a := range c.Args {
			if a == arg {
				matched = append(matched, c)
				break
			}
		}
	}
	return matched
}

// Exit builds the result and error of a program that exited with code and wrote stderr.
func Exit(call Call, code int, stderr string) (toolchain.Result, error) {
	res := toolchain.Result{Stderr: []byte(stderr), ExitCode: code}
	return res, toolchain.NewCommandError(call.Name, call.Args, res, errors.New("exit status"))
}

// Stdout builds a successful result carrying out on standard output.
func Stdout(out string) (toolchain.Result, error) {
	return toolchain.Result{Stdout: []byte(out)}, nil
}
