package controller

import (
	"context"
	"fmt"
	"strconv"

	"github.com/walfleet/walfleet/internal/fleet"
)

// ResizeArchive grows the base image of a volume at an archive server to
// sizeMiB and waits until the logical volume reports the new size. With
// zeroClear the extended area is zero-filled.
func (c *Controller) ResizeArchive(ctx context.Context, ax fleet.Server, vol string, sizeMiB uint64, zeroClear bool) error {
	st, err := c.GetState(ctx, ax, vol)
	if err != nil {
		return err
	}
	if st == string(fleet.ArchiveClear) {
		return nil
	}
	if !fleet.StateIn(fleet.ArchiveState(st), fleet.ArchiveAcceptForResize) {
		return &PreconditionError{Op: "resize", Server: ax.Name, Volume: vol, State: st,
			Want: fleet.StateNames(fleet.ArchiveAcceptForResize)}
	}
	args := []string{"resize", vol, strconv.FormatUint(sizeMiB, 10) + "m"}
	if zeroClear {
		args = append(args, "zeroclear")
	}
	if _, err := c.run(ctx, ax, args...); err != nil {
		return err
	}
	return c.waitForResize(ctx, ax, vol, sizeMiB)
}

// waitForResize waits until the resize action finished and verifies the
// base image logical volume has the requested size.
func (c *Controller) waitForResize(ctx context.Context, ax fleet.Server, vol string, sizeMiB uint64) error {
	if err := c.waitForNoAction(ctx, ax, vol, fleet.ActionResize, c.longTimeout); err != nil {
		return err
	}
	cur, err := c.lvSizeMiB(ctx, ax, vol, LvPath(ax, vol))
	if err != nil {
		return err
	}
	if cur != sizeMiB {
		return &ConvergenceError{Op: "resize", Server: ax.Name, Volume: vol,
			Reason: fmt.Sprintf("lv size %d MiB, want %d MiB", cur, sizeMiB)}
	}
	return nil
}

// ResizeStorage grows a volume at a storage server to sizeMiB. The
// underlying data device must have been grown beforehand. A clear volume
// is left untouched.
func (c *Controller) ResizeStorage(ctx context.Context, sx fleet.Server, vol string, sizeMiB uint64) error {
	st, err := c.GetState(ctx, sx, vol)
	if err != nil {
		return err
	}
	if st == string(fleet.StorageClear) {
		return nil
	}
	_, err = c.run(ctx, sx, "resize", vol, strconv.FormatUint(sizeMiB, 10)+"m")
	return err
}

// Resize grows a volume across the whole fleet, archives first so they
// can accept the larger diffs the storages will produce.
func (c *Controller) Resize(ctx context.Context, vol string, sizeMiB uint64, zeroClear bool) error {
	for _, ax := range c.layout.Archive {
		if err := c.ResizeArchive(ctx, ax, vol, sizeMiB, zeroClear); err != nil {
			return err
		}
	}
	for _, sx := range c.layout.Storage {
		if err := c.ResizeStorage(ctx, sx, vol, sizeMiB); err != nil {
			return err
		}
	}
	return nil
}
