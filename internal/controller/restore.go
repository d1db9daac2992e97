package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/walfleet/walfleet/internal/fleet"
	"github.com/walfleet/walfleet/internal/meta"
	"github.com/walfleet/walfleet/internal/utils"
)

const mebi = uint64(1) << 20

// LvPath returns the path of the base image logical volume of a volume at
// an archive server.
func LvPath(ax fleet.Server, vol string) string {
	return "/dev/" + ax.VG + "/i_" + vol
}

// RestoredPath returns the path of a restored snapshot logical volume.
func RestoredPath(ax fleet.Server, vol string, gid uint64) string {
	return "/dev/" + ax.VG + "/r_" + vol + "_" + strconv.FormatUint(gid, 10)
}

// Restore makes the snapshot with the given gid accessible as a logical
// volume at an archive server and waits until the device is usable.
func (c *Controller) Restore(ctx context.Context, ax fleet.Server, vol string, gid uint64) error {
	if _, err := c.run(ctx, ax, "restore", vol, strconv.FormatUint(gid, 10)); err != nil {
		return err
	}
	if err := c.WaitForRestored(ctx, ax, vol, gid); err != nil {
		return err
	}
	return c.waitForLvReady(ctx, ax, vol, RestoredPath(ax, vol, gid))
}

// WaitForRestored waits until the restore action finished and verifies the
// gid is listed as restored.
func (c *Controller) WaitForRestored(ctx context.Context, ax fleet.Server, vol string, gid uint64) error {
	if err := c.waitForNoAction(ctx, ax, vol, fleet.ActionRestore, c.longTimeout); err != nil {
		return err
	}
	infos, err := c.Restored(ctx, ax, vol)
	if err != nil {
		return err
	}
	if !containsGid(infos, gid) {
		return &ConvergenceError{Op: "restore", Server: ax.Name, Volume: vol,
			Reason: fmt.Sprintf("gid %d not in restored list", gid)}
	}
	return nil
}

// DelRestored deletes a restored snapshot volume. The deletion can race
// with a reader holding the device open, so the command is retried a few
// times before giving up.
func (c *Controller) DelRestored(ctx context.Context, ax fleet.Server, vol string, gid uint64) error {
	if err := c.waitForLvReady(ctx, ax, vol, LvPath(ax, vol)); err != nil {
		return err
	}
	gidStr := strconv.FormatUint(gid, 10)
	var lastErr error
	for i := 0; i < utils.DelRestoredRetries; i++ {
		_, err := c.run(ctx, ax, "del-restored", vol, gidStr)
		if err == nil {
			lastErr = nil
			break
		}
		var tre *TransientRemoteError
		if !errors.As(err, &tre) {
			return err
		}
		lastErr = err
		c.logger.Warn("del-restored failed, retrying",
			"server", ax.Name, "volume", vol, "gid", gid, "attempt", i+1, "error", err)
		sleepCtx(ctx, c.retryBackoff)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if lastErr != nil {
		return fmt.Errorf("del-restored %s/%s gid %d: retries exhausted: %w", ax.Name, vol, gid, lastErr)
	}
	return c.waitForNotRestored(ctx, ax, vol, gid, c.longTimeout)
}

// waitForLvReady polls until the logical volume at path exists as a block
// device on the server's host.
func (c *Controller) waitForLvReady(ctx context.Context, ax fleet.Server, vol, path string) error {
	script := fmt.Sprintf("if [ -b %q ]; then echo 1; else echo 0; fi", path)
	return c.waitForCond(ctx, ax, vol, func(ctx context.Context) (bool, string, error) {
		out, err := c.RemoteExec(ctx, ax, "/bin/sh", "-c", script)
		if err != nil {
			return false, "", err
		}
		n, err := strconv.Atoi(strings.TrimSpace(out))
		if err != nil {
			return false, "", &meta.ParseError{Field: "block device probe", Input: out, Reason: "not an integer"}
		}
		return n != 0, "device " + path + " not ready", nil
	}, "wait-for-lv", c.longTimeout)
}

// lvSizeMiB reads the size of a logical volume on the server's host. The
// size must be a whole number of MiB.
func (c *Controller) lvSizeMiB(ctx context.Context, ax fleet.Server, vol, path string) (uint64, error) {
	out, err := c.RemoteExec(ctx, ax, "/sbin/lvs", "-o", "lv_size",
		"--noheadings", "--units", "b", "--nosuffix", path)
	if err != nil {
		return 0, err
	}
	sizeB, err := strconv.ParseUint(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return 0, &meta.ParseError{Field: "lv size", Input: out, Reason: "not an integer"}
	}
	if sizeB%mebi != 0 {
		return 0, fmt.Errorf("lv %s size %d is not a multiple of MiB", path, sizeB)
	}
	return sizeB / mebi, nil
}
