package controller

import (
	"context"
	"fmt"
	"strconv"

	"github.com/walfleet/walfleet/internal/fleet"
	"github.com/walfleet/walfleet/internal/meta"
)

// SyncOpt tunes a replication transfer. The zero value means resync off,
// merge allowed and server-side defaults for the rest; a nil *SyncOpt
// sends no tuning arguments at all.
type SyncOpt struct {
	DoResync     bool
	DontMerge    bool
	Compress     meta.CompressOpt
	MaxMergeSize int64
	BulkSize     int64
}

// args renders the positional option tail of the replicate command.
func (o *SyncOpt) args() []string {
	return []string{
		boolArg(o.DoResync),
		boolArg(o.DontMerge),
		o.Compress.String(),
		strconv.FormatInt(o.MaxMergeSize, 10),
		strconv.FormatInt(o.BulkSize, 10),
	}
}

func boolArg(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// DelArchiveFromProxy removes an archive from a proxy's forwarding list.
// An active proxy is stopped around the edit and restarted afterwards.
func (c *Controller) DelArchiveFromProxy(ctx context.Context, px fleet.Server, vol string, ax fleet.Server) error {
	st, err := c.GetState(ctx, px, vol)
	if err != nil {
		return err
	}
	if fleet.StateIn(fleet.ProxyState(st), fleet.ProxyActive) {
		if err := c.Stop(ctx, px, vol, StopGraceful); err != nil {
			return err
		}
	}
	names, err := c.ArchiveInfoList(ctx, px, vol)
	if err != nil {
		return err
	}
	if containsName(names, ax.Name) {
		if _, err := c.run(ctx, px, "archive-info", "delete", vol, ax.Name); err != nil {
			return err
		}
	}
	st, err = c.GetState(ctx, px, vol)
	if err != nil {
		return err
	}
	if st == string(fleet.ProxyStopped) {
		return c.Start(ctx, px, vol)
	}
	return nil
}

// AddArchiveToProxy adds an archive to a proxy's forwarding list. An
// active proxy is stopped around the edit; doStart controls whether a
// stopped proxy is restarted afterwards.
func (c *Controller) AddArchiveToProxy(ctx context.Context, px fleet.Server, vol string, ax fleet.Server, doStart bool) error {
	st, err := c.GetState(ctx, px, vol)
	if err != nil {
		return err
	}
	if fleet.StateIn(fleet.ProxyState(st), fleet.ProxyActive) {
		if err := c.Stop(ctx, px, vol, StopGraceful); err != nil {
			return err
		}
	}
	names, err := c.ArchiveInfoList(ctx, px, vol)
	if err != nil {
		return err
	}
	if !containsName(names, ax.Name) {
		if _, err := c.run(ctx, px, "archive-info", "add", vol, ax.Name, ax.HostPort()); err != nil {
			return err
		}
	}
	st, err = c.GetState(ctx, px, vol)
	if err != nil {
		return err
	}
	if st == string(fleet.ProxyStopped) && doStart {
		return c.Start(ctx, px, vol)
	}
	return nil
}

// CopyArchiveInfo copies the forwarding list of one proxy to another and
// starts the destination. The destination proxy must be stopped.
func (c *Controller) CopyArchiveInfo(ctx context.Context, pSrc fleet.Server, vol string, pDst fleet.Server) error {
	names, err := c.ArchiveInfoList(ctx, pSrc, vol)
	if err != nil {
		return err
	}
	for _, name := range names {
		ax, err := c.layout.FindServer(name)
		if err != nil {
			return fmt.Errorf("copy-archive-info %s: %w", vol, err)
		}
		if ax.Kind != fleet.KindArchive {
			return fmt.Errorf("copy-archive-info %s: %s is not an archive server", vol, name)
		}
		if err := c.AddArchiveToProxy(ctx, pDst, vol, ax, false); err != nil {
			return err
		}
	}
	return c.Start(ctx, pDst, vol)
}

// StopSync detaches an archive from every proxy so that wdiffs stop
// flowing to it, then kicks the storages.
func (c *Controller) StopSync(ctx context.Context, ax fleet.Server, vol string) error {
	for _, px := range c.layout.Proxy {
		if err := c.DelArchiveFromProxy(ctx, px, vol, ax); err != nil {
			return err
		}
	}
	return c.KickAllStorage(ctx)
}

// StartSync attaches an archive to every proxy and kicks the storages so
// that log transfer starts immediately.
func (c *Controller) StartSync(ctx context.Context, ax fleet.Server, vol string) error {
	for _, px := range c.layout.Proxy {
		if err := c.AddArchiveToProxy(ctx, px, vol, ax, true); err != nil {
			return err
		}
	}
	return c.KickAllStorage(ctx)
}

// ReplicateOnce copies the latest clean snapshot of a volume from one
// archive to another and waits until it is restorable at the destination.
// Returns the replicated gid.
func (c *Controller) ReplicateOnce(ctx context.Context, aSrc fleet.Server, vol string, aDst fleet.Server, opt *SyncOpt) (uint64, error) {
	gid, err := c.GetLatestCleanSnapshot(ctx, aSrc, vol)
	if err != nil {
		return 0, err
	}
	args := []string{"replicate", vol, "gid", strconv.FormatUint(gid, 10), aDst.HostPort()}
	if opt != nil {
		args = append(args, opt.args()...)
	}
	if _, err := c.run(ctx, aSrc, args...); err != nil {
		return 0, err
	}
	if err := c.waitForReplicated(ctx, aDst, vol, gid); err != nil {
		return 0, err
	}
	return gid, nil
}

// waitForReplicated waits until the destination archive leaves the
// replication states and verifies the gid arrived.
func (c *Controller) waitForReplicated(ctx context.Context, ax fleet.Server, vol string, gid uint64) error {
	if err := waitForNotState(ctx, c, ax, vol, fleet.ArchiveDuringReplicate,
		"replicate", c.longTimeout); err != nil {
		return err
	}
	infos, err := c.RestorableAll(ctx, ax, vol)
	if err != nil {
		return err
	}
	if len(infos) > 0 && gid <= infos[len(infos)-1].Gid {
		return nil
	}
	return &ConvergenceError{Op: "replicate", Server: ax.Name, Volume: vol,
		Reason: fmt.Sprintf("gid %d not restorable after transfer", gid)}
}

// Replicate copies a volume from one archive to another, initializing the
// destination when it is clear. With synchronizing set the destination is
// also attached to the proxies so it keeps receiving wdiffs.
func (c *Controller) Replicate(ctx context.Context, aSrc fleet.Server, vol string, aDst fleet.Server, synchronizing bool, opt *SyncOpt) error {
	st, err := c.GetState(ctx, aDst, vol)
	if err != nil {
		return err
	}
	if st == string(fleet.ArchiveClear) {
		if _, err := c.run(ctx, aDst, "init-vol", vol); err != nil {
			return err
		}
	}
	if _, err := c.ReplicateOnce(ctx, aSrc, vol, aDst, opt); err != nil {
		return err
	}
	if synchronizing {
		return c.Synchronize(ctx, aSrc, vol, aDst, opt)
	}
	return nil
}

// Synchronize attaches a destination archive to the proxies and brings it
// up to date. The proxies are drained with the empty stop mode first so
// no wlogs are in flight while the forwarding lists change; a replication
// right before this call keeps the stopped window short.
func (c *Controller) Synchronize(ctx context.Context, aSrc fleet.Server, vol string, aDst fleet.Server, opt *SyncOpt) error {
	for _, px := range c.layout.Proxy {
		st, err := c.GetState(ctx, px, vol)
		if err != nil {
			return err
		}
		if fleet.StateIn(fleet.ProxyState(st), fleet.ProxyActive) {
			if _, err := c.run(ctx, px, "stop", vol, string(StopEmpty)); err != nil {
				return err
			}
		}
	}
	for _, px := range c.layout.Proxy {
		if err := c.WaitForStopped(ctx, px, vol, ""); err != nil {
			return err
		}
		names, err := c.ArchiveInfoList(ctx, px, vol)
		if err != nil {
			return err
		}
		if !containsName(names, aDst.Name) {
			if _, err := c.run(ctx, px, "archive-info", "add", vol, aDst.Name, aDst.HostPort()); err != nil {
				return err
			}
		}
	}
	if _, err := c.ReplicateOnce(ctx, aSrc, vol, aDst, opt); err != nil {
		return err
	}
	for _, px := range c.layout.Proxy {
		if err := c.Start(ctx, px, vol); err != nil {
			return err
		}
	}
	return c.KickAllStorage(ctx)
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
