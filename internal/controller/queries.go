package controller

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/walfleet/walfleet/internal/fleet"
	"github.com/walfleet/walfleet/internal/meta"
)

// HostType asks a server for its kind: storage, proxy or archive.
func (c *Controller) HostType(ctx context.Context, s fleet.Server) (string, error) {
	return c.run(ctx, s, "get", "host-type")
}

// GetState returns the raw state of a volume on a server.
func (c *Controller) GetState(ctx context.Context, s fleet.Server, vol string) (string, error) {
	return c.run(ctx, s, "get", "state", vol)
}

// verifyState checks that a volume settled in exactly the wanted state.
func (c *Controller) verifyState(ctx context.Context, s fleet.Server, vol, want, op string) error {
	st, err := c.GetState(ctx, s, vol)
	if err != nil {
		return err
	}
	if st != want {
		return &ConvergenceError{Op: op, Server: s.Name, Volume: vol, State: st,
			Reason: "expected state " + want}
	}
	return nil
}

// VolList returns the volume names a server knows.
func (c *Controller) VolList(ctx context.Context, s fleet.Server) ([]string, error) {
	out, err := c.run(ctx, s, "get", "vol")
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}

// Status returns the status text of a server, optionally narrowed to one
// volume. An empty vol means all volumes.
func (c *Controller) Status(ctx context.Context, s fleet.Server, vol string) (string, error) {
	args := []string{"status"}
	if vol != "" {
		args = append(args, vol)
	}
	return c.run(ctx, s, args...)
}

// IsOverflow reports whether the write-ahead log of a storage volume has
// overflowed. An overflowed volume needs a hash backup to recover.
func (c *Controller) IsOverflow(ctx context.Context, sx fleet.Server, vol string) (bool, error) {
	if sx.Kind != fleet.KindStorage {
		return false, fmt.Errorf("is-overflow: %s is not a storage server", sx.Name)
	}
	out, err := c.run(ctx, sx, "get", "is-overflow", vol)
	if err != nil {
		return false, err
	}
	return parseBoolInt(out, "is-overflow")
}

// IsWdiffSendError reports whether a proxy failed sending diffs for a
// volume to the given archive.
func (c *Controller) IsWdiffSendError(ctx context.Context, px fleet.Server, vol string, ax fleet.Server) (bool, error) {
	out, err := c.run(ctx, px, "get", "is-wdiff-send-error", vol, ax.Name)
	if err != nil {
		return false, err
	}
	return parseBoolInt(out, "is-wdiff-send-error")
}

// NumAction returns how many executions of an action are running on a
// volume.
func (c *Controller) NumAction(ctx context.Context, s fleet.Server, vol string, action fleet.Action) (int, error) {
	out, err := c.run(ctx, s, "get", "num-action", vol, string(action))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, &meta.ParseError{Field: "num-action", Input: out, Reason: "not an integer"}
	}
	return n, nil
}

// gidInfoList runs a gid list query ("restorable" or "restored") and
// parses its "gid timestamp" lines.
func (c *Controller) gidInfoList(ctx context.Context, ax fleet.Server, vol, list string, opts ...string) ([]meta.GidInfo, error) {
	args := append([]string{"get", list, vol}, opts...)
	out, err := c.run(ctx, ax, args...)
	if err != nil {
		return nil, err
	}
	return meta.ParseGidInfoList(out)
}

// Restorable returns the clean snapshots of an archive volume, oldest
// first.
func (c *Controller) Restorable(ctx context.Context, ax fleet.Server, vol string) ([]meta.GidInfo, error) {
	return c.gidInfoList(ctx, ax, vol, "restorable")
}

// RestorableAll returns all snapshots of an archive volume including
// dirty ones, oldest first.
func (c *Controller) RestorableAll(ctx context.Context, ax fleet.Server, vol string) ([]meta.GidInfo, error) {
	return c.gidInfoList(ctx, ax, vol, "restorable", "all")
}

// Restored returns the currently materialized snapshots of an archive
// volume.
func (c *Controller) Restored(ctx context.Context, ax fleet.Server, vol string) ([]meta.GidInfo, error) {
	return c.gidInfoList(ctx, ax, vol, "restored")
}

// GetLatestCleanSnapshot returns the newest restorable gid of a volume.
func (c *Controller) GetLatestCleanSnapshot(ctx context.Context, ax fleet.Server, vol string) (uint64, error) {
	infos, err := c.Restorable(ctx, ax, vol)
	if err != nil {
		return 0, err
	}
	if len(infos) == 0 {
		return 0, &ConvergenceError{Op: "latest-clean-snapshot", Server: ax.Name, Volume: vol,
			Reason: "no restorable snapshot"}
	}
	return infos[len(infos)-1].Gid, nil
}

// GetBase returns the durable recovery point of an archive volume.
func (c *Controller) GetBase(ctx context.Context, ax fleet.Server, vol string) (meta.MetaState, error) {
	out, err := c.run(ctx, ax, "get", "base", vol)
	if err != nil {
		return meta.MetaState{}, err
	}
	return meta.ParseMetaState(strings.TrimSpace(out))
}

// NumDiff returns the number of diff files in the gid range [gid0, gid1].
func (c *Controller) NumDiff(ctx context.Context, ax fleet.Server, vol string, gid0, gid1 uint64) (int, error) {
	out, err := c.run(ctx, ax, "get", "num-diff", vol,
		strconv.FormatUint(gid0, 10), strconv.FormatUint(gid1, 10))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, &meta.ParseError{Field: "num-diff", Input: out, Reason: "not an integer"}
	}
	return n, nil
}

// TotalDiffSize returns the total byte size of diff files in the gid
// range [gid0, gid1].
func (c *Controller) TotalDiffSize(ctx context.Context, ax fleet.Server, vol string, gid0, gid1 uint64) (int64, error) {
	out, err := c.run(ctx, ax, "get", "total-diff-size", vol,
		strconv.FormatUint(gid0, 10), strconv.FormatUint(gid1, 10))
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return 0, &meta.ParseError{Field: "total-diff-size", Input: out, Reason: "not an integer"}
	}
	return n, nil
}

// ApplicableDiffList returns the diffs an archive would apply to reach
// gid, in application order.
func (c *Controller) ApplicableDiffList(ctx context.Context, ax fleet.Server, vol string, gid uint64) ([]meta.Diff, error) {
	out, err := c.run(ctx, ax, "get", "applicable-diff", vol, strconv.FormatUint(gid, 10))
	if err != nil {
		return nil, err
	}
	return meta.ParseDiffList(out)
}

// ArchiveInfoList returns the archive names registered on a proxy for a
// volume.
func (c *Controller) ArchiveInfoList(ctx context.Context, px fleet.Server, vol string) ([]string, error) {
	out, err := c.run(ctx, px, "archive-info", "list", vol)
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}

// IsSynchronizing reports whether every proxy forwards the volume to the
// archive. Partial registration is inconsistent and reported as an error.
func (c *Controller) IsSynchronizing(ctx context.Context, ax fleet.Server, vol string) (bool, error) {
	count := 0
	for _, px := range c.layout.Proxy {
		names, err := c.ArchiveInfoList(ctx, px, vol)
		if err != nil {
			return false, err
		}
		for _, name := range names {
			if name == ax.Name {
				count++
				break
			}
		}
	}
	switch count {
	case len(c.layout.Proxy):
		return true, nil
	case 0:
		return false, nil
	}
	return false, fmt.Errorf("is-synchronizing %s/%s: %d of %d proxies forward to it",
		ax.Name, vol, count, len(c.layout.Proxy))
}

// AliveServers probes every server in the layout and returns the names of
// those that answered. Probe failures mean not alive, never an error.
func (c *Controller) AliveServers(ctx context.Context) []string {
	alive := make([]string, 0, len(c.layout.All()))
	for _, s := range c.layout.All() {
		if _, err := c.HostType(ctx, s); err != nil {
			continue
		}
		alive = append(alive, s.Name)
	}
	return alive
}

func parseBoolInt(out, field string) (bool, error) {
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return false, &meta.ParseError{Field: field, Input: out, Reason: "not an integer"}
	}
	return n != 0, nil
}
