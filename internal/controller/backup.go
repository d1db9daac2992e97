package controller

import (
	"context"
	"fmt"
	"strconv"

	"github.com/walfleet/walfleet/internal/fleet"
	"github.com/walfleet/walfleet/internal/meta"
)

// prepareBackup walks a storage volume into SyncReady, verifies the other
// storage servers do not interfere, detaches the archives from the proxies
// and re-attaches the primary one so that log transfer starts right after
// the backup command.
func (c *Controller) prepareBackup(ctx context.Context, sx fleet.Server, vol string) error {
	st, err := c.GetState(ctx, sx, vol)
	if err != nil {
		return err
	}
	switch st {
	case string(fleet.StorageSlave):
		if err := c.Stop(ctx, sx, vol, StopGraceful); err != nil {
			return err
		}
	case string(fleet.StorageMaster):
		if err := c.Stop(ctx, sx, vol, StopGraceful); err != nil {
			return err
		}
		if err := c.ResetVol(ctx, sx, vol); err != nil {
			return err
		}
	}

	for _, s := range c.layout.Storage {
		if s.Name == sx.Name {
			continue
		}
		st, err := c.GetState(ctx, s, vol)
		if err != nil {
			return err
		}
		if st != string(fleet.StorageSlave) && st != string(fleet.StorageClear) {
			return &PreconditionError{Op: "prepare-backup", Server: s.Name, Volume: vol, State: st,
				Want: []string{string(fleet.StorageSlave), string(fleet.StorageClear)}}
		}
	}

	for _, ax := range c.layout.Archive {
		sync, err := c.IsSynchronizing(ctx, ax, vol)
		if err != nil {
			return err
		}
		if sync {
			if err := c.StopSync(ctx, ax, vol); err != nil {
				return err
			}
		}
	}

	a0 := c.layout.PrimaryArchive()
	st, err = c.GetState(ctx, a0, vol)
	if err != nil {
		return err
	}
	if st == string(fleet.ArchiveClear) {
		if _, err := c.run(ctx, a0, "init-vol", vol); err != nil {
			return err
		}
	}
	return c.StartSync(ctx, a0, vol)
}

// FullBackup runs a full backup of a storage volume and waits until a
// clean snapshot is restorable at the primary archive. Returns its gid.
func (c *Controller) FullBackup(ctx context.Context, sx fleet.Server, vol string) (uint64, error) {
	a0 := c.layout.PrimaryArchive()
	if err := c.prepareBackup(ctx, sx, vol); err != nil {
		return 0, err
	}
	if _, err := c.run(ctx, sx, "full-bkp", vol); err != nil {
		return 0, err
	}
	if err := waitForStateChange(ctx, c, sx, vol, fleet.StorageDuringFullSync,
		[]fleet.StorageState{fleet.StorageMaster}, "full-bkp", c.longTimeout); err != nil {
		return 0, err
	}
	st, err := c.GetState(ctx, a0, vol)
	if err != nil {
		return 0, err
	}
	if !fleet.StateIn(fleet.ArchiveState(st), fleet.ArchiveActive) {
		return 0, &ConvergenceError{Op: "full-bkp", Server: a0.Name, Volume: vol, State: st,
			Reason: "archive did not enter an active state"}
	}

	var gid uint64
	err = c.waitForCond(ctx, a0, vol, func(ctx context.Context) (bool, string, error) {
		infos, err := c.Restorable(ctx, a0, vol)
		if err != nil {
			return false, "", err
		}
		if len(infos) == 0 {
			return false, "no restorable snapshot yet", nil
		}
		gid = infos[len(infos)-1].Gid
		return true, "", nil
	}, "full-bkp", c.longTimeout)
	if err != nil {
		return 0, err
	}
	return gid, nil
}

// HashBackup runs a hash backup of a storage volume and waits until a
// clean snapshot newer than any previous one is restorable at the primary
// archive. Returns its gid.
func (c *Controller) HashBackup(ctx context.Context, sx fleet.Server, vol string) (uint64, error) {
	a0 := c.layout.PrimaryArchive()
	if err := c.prepareBackup(ctx, sx, vol); err != nil {
		return 0, err
	}
	prev, err := c.Restorable(ctx, a0, vol)
	if err != nil {
		return 0, err
	}
	var prevMax uint64
	hasPrev := len(prev) > 0
	if hasPrev {
		prevMax = prev[len(prev)-1].Gid
	}
	if _, err := c.run(ctx, sx, "hash-bkp", vol); err != nil {
		return 0, err
	}
	if err := waitForStateChange(ctx, c, sx, vol, fleet.StorageDuringHashSync,
		[]fleet.StorageState{fleet.StorageMaster}, "hash-bkp", c.longTimeout); err != nil {
		return 0, err
	}
	st, err := c.GetState(ctx, a0, vol)
	if err != nil {
		return 0, err
	}
	if !fleet.StateIn(fleet.ArchiveState(st), fleet.ArchiveActive) {
		return 0, &ConvergenceError{Op: "hash-bkp", Server: a0.Name, Volume: vol, State: st,
			Reason: "archive did not enter an active state"}
	}

	var gid uint64
	err = c.waitForCond(ctx, a0, vol, func(ctx context.Context) (bool, string, error) {
		infos, err := c.Restorable(ctx, a0, vol)
		if err != nil {
			return false, "", err
		}
		if len(infos) == 0 {
			return false, "no restorable snapshot yet", nil
		}
		last := infos[len(infos)-1].Gid
		if hasPrev && last <= prevMax {
			return false, fmt.Sprintf("newest gid %d not beyond %d", last, prevMax), nil
		}
		gid = last
		return true, "", nil
	}, "hash-bkp", c.longTimeout)
	if err != nil {
		return 0, err
	}
	return gid, nil
}

// SnapshotAsync takes a snapshot on a storage server and returns the gid
// assigned to it without waiting for the archives.
func (c *Controller) SnapshotAsync(ctx context.Context, sx fleet.Server, vol string) (uint64, error) {
	out, err := c.run(ctx, sx, "snapshot", vol)
	if err != nil {
		return 0, err
	}
	gid, err := strconv.ParseUint(out, 10, 64)
	if err != nil {
		return 0, &meta.ParseError{Field: "snapshot gid", Input: out, Reason: "not an integer"}
	}
	return gid, nil
}

// Snapshot takes a snapshot and waits until it is restorable at every
// archive server in the list.
func (c *Controller) Snapshot(ctx context.Context, sx fleet.Server, vol string, archives []fleet.Server) (uint64, error) {
	gid, err := c.SnapshotAsync(ctx, sx, vol)
	if err != nil {
		return 0, err
	}
	for _, ax := range archives {
		if err := c.WaitForRestorable(ctx, ax, vol, gid); err != nil {
			return 0, err
		}
	}
	return gid, nil
}

// WaitForRestorable waits until a snapshot with the given gid is
// restorable at an archive server.
func (c *Controller) WaitForRestorable(ctx context.Context, ax fleet.Server, vol string, gid uint64) error {
	return c.waitForRestorable(ctx, ax, vol, gid, c.longTimeout)
}
