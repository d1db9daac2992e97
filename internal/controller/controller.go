// Package controller drives the storage, proxy and archive servers of one
// backup group through the admin command protocol. Every mutating
// operation follows the same shape: check the starting state, issue the
// command, poll until the volume leaves its transient states, then verify
// the goal state and any domain-level postcondition.
package controller

import (
	"context"
	"time"

	"github.com/walfleet/walfleet/internal/command"
	"github.com/walfleet/walfleet/internal/fleet"
	"github.com/walfleet/walfleet/internal/logging"
	"github.com/walfleet/walfleet/internal/utils"
)

// Controller coordinates all servers in a backup group. It is stateless
// apart from its layout and safe for concurrent use.
type Controller struct {
	runner command.Runner
	layout fleet.Layout
	logger *logging.Logger

	pollInterval time.Duration
	waitTimeout  time.Duration
	longTimeout  time.Duration
	settleDelay  time.Duration
	retryBackoff time.Duration
}

// New creates a controller over the given layout.
func New(runner command.Runner, layout fleet.Layout) *Controller {
	return &Controller{
		runner:       runner,
		layout:       layout,
		logger:       logging.Global().With("component", "controller"),
		pollInterval: utils.StatePollInterval,
		waitTimeout:  utils.DefaultWaitTimeout,
		longTimeout:  utils.LongWaitTimeout,
		settleDelay:  utils.ShutdownSettleDelay,
		retryBackoff: utils.DelRestoredBackoff,
	}
}

// Layout returns the server layout the controller operates on.
func (c *Controller) Layout() fleet.Layout {
	return c.layout
}

// run issues one admin command. Runner failures surface as transient
// remote errors so callers can classify them.
func (c *Controller) run(ctx context.Context, s fleet.Server, args ...string) (string, error) {
	out, err := c.runner.Run(ctx, s, args...)
	if err != nil {
		return "", &TransientRemoteError{Server: s.Name, Err: err}
	}
	return out, nil
}

// RemoteExec runs an arbitrary executable on the host of a running server
// through the server's exec facility. The first argument must be a
// full-path executable on that host.
func (c *Controller) RemoteExec(ctx context.Context, s fleet.Server, args ...string) (string, error) {
	execArgs := append([]string{"exec", "---"}, args...)
	return c.run(ctx, s, execArgs...)
}
