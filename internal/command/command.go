// Package command runs admin client invocations against fleet servers.
// Every remote interaction in the worker goes through a Runner so tests
// can script server behavior without processes.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/walfleet/walfleet/internal/fleet"
	"github.com/walfleet/walfleet/internal/logging"
	"github.com/walfleet/walfleet/internal/metrics"
	"github.com/walfleet/walfleet/internal/utils"
)

// Runner executes one admin command against a server and returns its
// trimmed stdout.
type Runner interface {
	Run(ctx context.Context, s fleet.Server, args ...string) (string, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, s fleet.Server, args ...string) (string, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, s fleet.Server, args ...string) (string, error) {
	return f(ctx, s, args...)
}

// Error describes a failed admin command.
type Error struct {
	Server string
	Args   []string
	Stderr string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("admin command %v on %s: %v", e.Args, e.Server, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// ExecRunner shells out to the admin client binary. The target server is
// addressed with -a/-p ahead of the command arguments.
type ExecRunner struct {
	path    string
	timeout time.Duration
	logger  *logging.Logger
}

// NewExecRunner creates a runner for the given admin client binary.
// A zero timeout falls back to the package default.
func NewExecRunner(path string, timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = utils.CommandTimeout
	}
	return &ExecRunner{
		path:    path,
		timeout: timeout,
		logger:  logging.Global().With("component", "command"),
	}
}

// Run executes the admin client and returns its trimmed stdout.
func (r *ExecRunner) Run(ctx context.Context, s fleet.Server, args ...string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("admin command on %s: no arguments", s.Name)
	}
	verb := args[0]

	argv := make([]string, 0, len(args)+4)
	argv = append(argv, "-a", s.Addr, "-p", strconv.Itoa(s.Port))
	argv = append(argv, args...)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.path, argv...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	metrics.RemoteCommandDuration.WithLabelValues(verb).Observe(elapsed.Seconds())

	if err != nil {
		// Prefer the deadline over the opaque "signal: killed" the
		// process exits with when the context fires.
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		metrics.RemoteCommands.WithLabelValues(s.Name, verb, "error").Inc()
		r.logger.Warn("admin command failed",
			"server", s.Name,
			"args", strings.Join(args, " "),
			"elapsed", elapsed,
			"error", err)
		return "", &Error{
			Server: s.Name,
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}

	metrics.RemoteCommands.WithLabelValues(s.Name, verb, "ok").Inc()
	r.logger.Debug("admin command",
		"server", s.Name,
		"args", strings.Join(args, " "),
		"elapsed", elapsed)
	return strings.TrimSpace(stdout.String()), nil
}
