// Package shell runs subprocesses on behalf of the sweep.
//
// A Runner distinguishes two outcomes that callers treat very differently:
// a command that ran and exited non-zero is reported through Result.ExitCode
// with a nil error, while a command that could not be run at all is reported
// as an error wrapping ErrSpawn.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrSpawn    = errors.New("spawn subprocess")
	ErrEncoding = errors.New("subprocess output is not valid UTF-8")
)

// Result is the outcome of a command that ran to completion.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
}

func (r Result) Success() bool { return r.ExitCode == 0 }

// Tail returns the last n lines of stderr, or of stdout when stderr is empty.
func (r Result) Tail(n int) string {
	out := r.Stderr
	if strings.TrimSpace(out) == "" {
		out = r.Stdout
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// A Runner executes commands. It is replaced in tests to avoid running
// actual commands.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (Result, error)
}

// Local runs commands on the local system.
type Local struct {
	// Env is appended to the inherited environment.
	Env []string
}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Run(ctx context.Context, dir string, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(l.Env) > 0 {
		cmd.Env = append(cmd.Environ(), l.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr) && ctx.Err() == nil:
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode < 0 {
			// Killed by a signal.
			res.ExitCode = 128
		}
	default:
		return res, fmt.Errorf("%w %s: %w", ErrSpawn, name, err)
	}

	slog.Debug("command finished", "cmd", name, "args", args, "dir", dir, "exit", res.ExitCode, "elapsed", res.Elapsed)
	return res, nil
}

// Sh runs command through "sh -c" in dir.
func Sh(ctx context.Context, r Runner, dir, command string) (Result, error) {
	return r.Run(ctx, dir, "sh", "-c", command)
}

// Output runs a command whose output is parsed by the caller.
// A non-zero exit is reported as an error carrying stderr, and output that is
// not valid UTF-8 is reported as ErrEncoding.
func Output(ctx context.Context, r Runner, dir string, name string, args ...string) (string, error) {
	res, err := r.Run(ctx, dir, name, args...)
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", &ExitError{Cmd: append([]string{name}, args...), Result: res}
	}
	if !utf8.ValidString(res.Stdout) {
		return "", fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), ErrEncoding)
	}
	return res.Stdout, nil
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Cmd    []string
	Result Result
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", strings.Join(e.Cmd, " "), e.Result.ExitCode)
	if tail := strings.TrimSpace(e.Result.Tail(5)); tail != "" {
		msg += "\n" + tail
	}
	return msg
}
