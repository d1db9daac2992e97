package controller

import (
	"context"
	"fmt"
	"strconv"

	"github.com/walfleet/walfleet/internal/fleet"
)

// ApplyDiff applies all diffs older than gid to the base image of a
// volume at an archive server and waits for completion.
func (c *Controller) ApplyDiff(ctx context.Context, ax fleet.Server, vol string, gid uint64) error {
	if _, err := c.run(ctx, ax, "apply", vol, strconv.FormatUint(gid, 10)); err != nil {
		return err
	}
	return c.waitForApplied(ctx, ax, vol, gid)
}

// waitForApplied waits until the apply action finished and verifies that
// the oldest restorable snapshot is now at or beyond gid.
func (c *Controller) waitForApplied(ctx context.Context, ax fleet.Server, vol string, gid uint64) error {
	if err := c.waitForNoAction(ctx, ax, vol, fleet.ActionApply, c.longTimeout); err != nil {
		return err
	}
	infos, err := c.Restorable(ctx, ax, vol)
	if err != nil {
		return err
	}
	if len(infos) > 0 && gid <= infos[0].Gid {
		return nil
	}
	return &ConvergenceError{Op: "apply", Server: ax.Name, Volume: vol,
		Reason: fmt.Sprintf("oldest restorable gid still below %d", gid)}
}

// MergeDiff merges the diffs between gidB and gidE into one and waits for
// completion.
func (c *Controller) MergeDiff(ctx context.Context, ax fleet.Server, vol string, gidB, gidE uint64) error {
	if gidB >= gidE {
		return fmt.Errorf("merge %s/%s: bad gid range [%d, %d)", ax.Name, vol, gidB, gidE)
	}
	if _, err := c.run(ctx, ax, "merge", vol,
		strconv.FormatUint(gidB, 10), "gid", strconv.FormatUint(gidE, 10)); err != nil {
		return err
	}
	return c.waitForMerged(ctx, ax, vol, gidB, gidE)
}

// waitForMerged waits until the merge action finished and verifies that
// gidE directly follows gidB in the full snapshot list, meaning every
// snapshot between them was consumed by the merge.
func (c *Controller) waitForMerged(ctx context.Context, ax fleet.Server, vol string, gidB, gidE uint64) error {
	if err := c.waitForNoAction(ctx, ax, vol, fleet.ActionMerge, c.longTimeout); err != nil {
		return err
	}
	infos, err := c.RestorableAll(ctx, ax, vol)
	if err != nil {
		return err
	}
	for i, info := range infos {
		if info.Gid != gidB {
			continue
		}
		if i+1 < len(infos) && infos[i+1].Gid == gidE {
			return nil
		}
		return &ConvergenceError{Op: "merge", Server: ax.Name, Volume: vol,
			Reason: fmt.Sprintf("gid %d does not directly follow %d", gidE, gidB)}
	}
	return &ConvergenceError{Op: "merge", Server: ax.Name, Volume: vol,
		Reason: fmt.Sprintf("gid %d not in snapshot list", gidB)}
}
