package controller

import (
	"context"
	"strings"
	"time"

	"github.com/walfleet/walfleet/internal/fleet"
	"github.com/walfleet/walfleet/internal/meta"
)

// waitForStateCond polls the state of (s, vol) until pred accepts it.
// Every poll fetches a fresh state; the loop never reuses an observation.
func (c *Controller) waitForStateCond(ctx context.Context, s fleet.Server, vol string,
	pred func(string) bool, op string, timeout time.Duration) error {

	deadline := time.Now().Add(timeout)
	for {
		st, err := c.GetState(ctx, s, vol)
		if err != nil {
			return err
		}
		if pred(st) {
			return nil
		}
		if time.Now().After(deadline) {
			return &TimeoutError{Op: op, Server: s.Name, Volume: vol,
				Waited: timeout, Last: st}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// waitForState waits until the volume state is in the given set.
func waitForState[S ~string](ctx context.Context, c *Controller, s fleet.Server, vol string,
	states []S, op string, timeout time.Duration) error {
	return c.waitForStateCond(ctx, s, vol, fleet.StatePred(states), op, timeout)
}

// waitForNotState waits until the volume state leaves the given set.
func waitForNotState[S ~string](ctx context.Context, c *Controller, s fleet.Server, vol string,
	states []S, op string, timeout time.Duration) error {
	return c.waitForStateCond(ctx, s, vol, fleet.NotStatePred(states), op, timeout)
}

// waitForStateChange waits until the volume leaves the transient set, then
// verifies it settled in the goal set.
func waitForStateChange[S ~string](ctx context.Context, c *Controller, s fleet.Server, vol string,
	transient, goal []S, op string, timeout time.Duration) error {

	if err := waitForNotState(ctx, c, s, vol, transient, op, timeout); err != nil {
		return err
	}
	st, err := c.GetState(ctx, s, vol)
	if err != nil {
		return err
	}
	if !fleet.StateIn(S(st), goal) {
		return &ConvergenceError{Op: op, Server: s.Name, Volume: vol, State: st,
			Reason: "settled outside goal states [" + strings.Join(fleet.StateNames(goal), " ") + "]"}
	}
	return nil
}

// waitForCond polls an arbitrary condition at the state poll interval.
// The condition must fetch fresh data on every call.
func (c *Controller) waitForCond(ctx context.Context, s fleet.Server, vol string,
	cond func(ctx context.Context) (bool, string, error), op string, timeout time.Duration) error {

	deadline := time.Now().Add(timeout)
	for {
		ok, detail, err := cond(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return &TimeoutError{Op: op, Server: s.Name, Volume: vol,
				Waited: timeout, Last: detail}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// waitForRestorable waits until gid appears in the restorable list.
func (c *Controller) waitForRestorable(ctx context.Context, ax fleet.Server, vol string, gid uint64, timeout time.Duration) error {
	return c.waitForGid(ctx, ax, vol, gid, "restorable", true, timeout)
}

// waitForNotRestored waits until gid leaves the restored list.
func (c *Controller) waitForNotRestored(ctx context.Context, ax fleet.Server, vol string, gid uint64, timeout time.Duration) error {
	return c.waitForGid(ctx, ax, vol, gid, "restored", false, timeout)
}

// waitForGid polls a gid list command until gid membership matches want.
func (c *Controller) waitForGid(ctx context.Context, ax fleet.Server, vol string, gid uint64,
	list string, want bool, timeout time.Duration) error {

	op := "wait-for-" + list
	detail := "gid still " + list
	if want {
		detail = "gid not yet " + list
	}
	return c.waitForCond(ctx, ax, vol, func(ctx context.Context) (bool, string, error) {
		infos, err := c.gidInfoList(ctx, ax, vol, list)
		if err != nil {
			return false, "", err
		}
		return containsGid(infos, gid) == want, detail, nil
	}, op, timeout)
}

// waitForNoAction waits until the running count of an action drops to zero.
func (c *Controller) waitForNoAction(ctx context.Context, s fleet.Server, vol string,
	action fleet.Action, timeout time.Duration) error {

	op := "wait-for-no-" + string(action)
	return c.waitForCond(ctx, s, vol, func(ctx context.Context) (bool, string, error) {
		n, err := c.NumAction(ctx, s, vol, action)
		if err != nil {
			return false, "", err
		}
		return n == 0, string(action) + " still running", nil
	}, op, timeout)
}

func containsGid(infos []meta.GidInfo, gid uint64) bool {
	for _, info := range infos {
		if info.Gid == gid {
			return true
		}
	}
	return false
}
