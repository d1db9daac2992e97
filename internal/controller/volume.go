package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/walfleet/walfleet/internal/fleet"
)

// StopMode selects how a stop command drains a volume.
type StopMode string

const (
	StopGraceful StopMode = "graceful"
	StopForce    StopMode = "force"
	// StopEmpty waits for the proxy's queue to drain first. Proxy only.
	StopEmpty StopMode = "empty"
)

// ShutdownMode selects how a server process terminates.
type ShutdownMode string

const (
	ShutdownGraceful ShutdownMode = "graceful"
	ShutdownForce    ShutdownMode = "force"
)

// InitStorage initializes a volume on a storage server and starts it as a
// slave.
func (c *Controller) InitStorage(ctx context.Context, sx fleet.Server, vol, wdevPath string) error {
	if sx.Kind != fleet.KindStorage {
		return fmt.Errorf("init-vol: %s is not a storage server", sx.Name)
	}
	if _, err := c.run(ctx, sx, "init-vol", vol, wdevPath); err != nil {
		return err
	}
	return c.Start(ctx, sx, vol)
}

// ClearVol clears a volume on any server kind, walking the volume down to
// a clearable state first.
func (c *Controller) ClearVol(ctx context.Context, s fleet.Server, vol string) error {
	st, err := c.GetState(ctx, s, vol)
	if err != nil {
		return err
	}
	switch s.Kind {
	case fleet.KindStorage:
		if st == string(fleet.StorageClear) {
			return nil
		}
		if st == string(fleet.StorageMaster) || st == string(fleet.StorageSlave) {
			if err := c.Stop(ctx, s, vol, StopGraceful); err != nil {
				return err
			}
			if st, err = c.GetState(ctx, s, vol); err != nil {
				return err
			}
		}
		if st == string(fleet.StorageStopped) {
			if err := c.ResetVol(ctx, s, vol); err != nil {
				return err
			}
			if st, err = c.GetState(ctx, s, vol); err != nil {
				return err
			}
		}
		if st != string(fleet.StorageSyncReady) {
			return &PreconditionError{Op: "clear-vol", Server: s.Name, Volume: vol, State: st,
				Want: []string{string(fleet.StorageSyncReady)}}
		}
	case fleet.KindProxy:
		if st == string(fleet.ProxyClear) {
			return nil
		}
		if fleet.StateIn(fleet.ProxyState(st), fleet.ProxyActive) {
			if err := c.Stop(ctx, s, vol, StopGraceful); err != nil {
				return err
			}
			if st, err = c.GetState(ctx, s, vol); err != nil {
				return err
			}
		}
		if st != string(fleet.ProxyStopped) {
			return &PreconditionError{Op: "clear-vol", Server: s.Name, Volume: vol, State: st,
				Want: []string{string(fleet.ProxyStopped)}}
		}
	case fleet.KindArchive:
		if st == string(fleet.ArchiveClear) {
			return nil
		}
		if st == string(fleet.ArchiveArchived) {
			if err := c.Stop(ctx, s, vol, StopGraceful); err != nil {
				return err
			}
			if st, err = c.GetState(ctx, s, vol); err != nil {
				return err
			}
		}
		if !fleet.StateIn(fleet.ArchiveState(st), fleet.ArchiveAcceptForClearVol) {
			return &PreconditionError{Op: "clear-vol", Server: s.Name, Volume: vol, State: st,
				Want: fleet.StateNames(fleet.ArchiveAcceptForClearVol)}
		}
	default:
		return fmt.Errorf("clear-vol: unknown server kind %q", s.Kind)
	}
	_, err = c.run(ctx, s, "clear-vol", vol)
	return err
}

// ResetVol resets a storage or archive volume back to SyncReady. The
// command itself is synchronous.
func (c *Controller) ResetVol(ctx context.Context, s fleet.Server, vol string) error {
	if _, err := c.run(ctx, s, "reset-vol", vol); err != nil {
		return err
	}
	switch s.Kind {
	case fleet.KindStorage:
		return c.verifyState(ctx, s, vol, string(fleet.StorageSyncReady), "reset-vol")
	case fleet.KindArchive:
		return c.verifyState(ctx, s, vol, string(fleet.ArchiveSyncReady), "reset-vol")
	}
	return fmt.Errorf("reset-vol: %s is neither storage nor archive", s.Name)
}

// SetSlaveStorage walks a storage volume into the Slave state from
// whichever steady state it is in. A master volume is detached from
// synchronization first.
func (c *Controller) SetSlaveStorage(ctx context.Context, sx fleet.Server, vol string) error {
	st, err := c.GetState(ctx, sx, vol)
	if err != nil {
		return err
	}
	switch st {
	case string(fleet.StorageSlave):
		return nil
	case string(fleet.StorageSyncReady):
		return c.Start(ctx, sx, vol)
	case string(fleet.StorageMaster):
		if err := c.Stop(ctx, sx, vol, StopGraceful); err != nil {
			return err
		}
	default:
		return &PreconditionError{Op: "set-slave-storage", Server: sx.Name, Volume: vol, State: st,
			Want: []string{string(fleet.StorageSlave), string(fleet.StorageSyncReady), string(fleet.StorageMaster)}}
	}
	if err := c.StopSync(ctx, c.layout.PrimaryArchive(), vol); err != nil {
		return err
	}
	if err := c.ResetVol(ctx, sx, vol); err != nil {
		return err
	}
	return c.Start(ctx, sx, vol)
}

// Start starts a volume and waits for the steady state it lands in. A
// SyncReady storage volume starts as slave, a stopped one as master.
func (c *Controller) Start(ctx context.Context, s fleet.Server, vol string) error {
	switch s.Kind {
	case fleet.KindStorage:
		st, err := c.GetState(ctx, s, vol)
		if err != nil {
			return err
		}
		switch st {
		case string(fleet.StorageSyncReady):
			if _, err := c.run(ctx, s, "start", vol, "slave"); err != nil {
				return err
			}
			return waitForStateChange(ctx, c, s, vol,
				[]fleet.StorageState{fleet.StorageStartSlave},
				[]fleet.StorageState{fleet.StorageSlave}, "start", c.waitTimeout)
		case string(fleet.StorageStopped):
			if _, err := c.run(ctx, s, "start", vol, "master"); err != nil {
				return err
			}
			return waitForStateChange(ctx, c, s, vol,
				[]fleet.StorageState{fleet.StorageStartMaster},
				[]fleet.StorageState{fleet.StorageMaster}, "start", c.waitTimeout)
		default:
			return &PreconditionError{Op: "start", Server: s.Name, Volume: vol, State: st,
				Want: []string{string(fleet.StorageSyncReady), string(fleet.StorageStopped)}}
		}
	case fleet.KindProxy:
		if _, err := c.run(ctx, s, "start", vol); err != nil {
			return err
		}
		return waitForStateChange(ctx, c, s, vol,
			[]fleet.ProxyState{fleet.ProxyStart}, fleet.ProxyActive, "start", c.waitTimeout)
	case fleet.KindArchive:
		if _, err := c.run(ctx, s, "start", vol); err != nil {
			return err
		}
		return waitForStateChange(ctx, c, s, vol,
			[]fleet.ArchiveState{fleet.ArchiveStart}, fleet.ArchiveActive, "start", c.waitTimeout)
	}
	return fmt.Errorf("start: unknown server kind %q", s.Kind)
}

// StopAsync issues a stop command and returns the state the volume was in
// before, which WaitForStopped needs for storage servers.
func (c *Controller) StopAsync(ctx context.Context, s fleet.Server, vol string, mode StopMode) (string, error) {
	switch mode {
	case StopGraceful, StopForce, StopEmpty:
	default:
		return "", fmt.Errorf("stop: bad mode %q", mode)
	}
	prev, err := c.GetState(ctx, s, vol)
	if err != nil {
		return "", err
	}
	if _, err := c.run(ctx, s, "stop", vol, string(mode)); err != nil {
		return "", err
	}
	return prev, nil
}

// Stop stops a volume and waits until it settles.
func (c *Controller) Stop(ctx context.Context, s fleet.Server, vol string, mode StopMode) error {
	prev, err := c.StopAsync(ctx, s, vol, mode)
	if err != nil {
		return err
	}
	return c.WaitForStopped(ctx, s, vol, prev)
}

// WaitForStopped waits until a stopping volume settles. For storage
// servers prevState decides the goal: a stopping slave falls back to
// SyncReady, a stopping master to Stopped.
func (c *Controller) WaitForStopped(ctx context.Context, s fleet.Server, vol, prevState string) error {
	switch s.Kind {
	case fleet.KindStorage:
		if prevState == "" {
			return fmt.Errorf("wait-for-stopped %s/%s: previous state required for storage", s.Name, vol)
		}
		if prevState == string(fleet.StorageSlave) {
			return waitForStateChange(ctx, c, s, vol, fleet.StorageDuringStopForSlave,
				[]fleet.StorageState{fleet.StorageSyncReady}, "stop", c.longTimeout)
		}
		return waitForStateChange(ctx, c, s, vol, fleet.StorageDuringStopForMaster,
			[]fleet.StorageState{fleet.StorageStopped}, "stop", c.longTimeout)
	case fleet.KindProxy:
		return waitForStateChange(ctx, c, s, vol, fleet.ProxyDuringStop,
			[]fleet.ProxyState{fleet.ProxyStopped}, "stop", c.longTimeout)
	case fleet.KindArchive:
		return waitForStateChange(ctx, c, s, vol, fleet.ArchiveDuringStop,
			[]fleet.ArchiveState{fleet.ArchiveStopped}, "stop", c.longTimeout)
	}
	return fmt.Errorf("wait-for-stopped: unknown server kind %q", s.Kind)
}

// Kick wakes up the background tasks of a storage or proxy server.
func (c *Controller) Kick(ctx context.Context, s fleet.Server) error {
	_, err := c.run(ctx, s, "kick")
	return err
}

// KickAll kicks every server in the list.
func (c *Controller) KickAll(ctx context.Context, servers []fleet.Server) error {
	for _, s := range servers {
		if err := c.Kick(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// KickAllStorage kicks every storage server.
func (c *Controller) KickAllStorage(ctx context.Context) error {
	return c.KickAll(ctx, c.layout.Storage)
}

// Shutdown asks a server process to terminate. The command is
// asynchronous; a short settle delay follows it.
func (c *Controller) Shutdown(ctx context.Context, s fleet.Server, mode ShutdownMode) error {
	if err := verifyShutdownMode(mode); err != nil {
		return err
	}
	if _, err := c.run(ctx, s, "shutdown", string(mode)); err != nil {
		return err
	}
	sleepCtx(ctx, c.settleDelay)
	return nil
}

// ShutdownAll terminates every server in the layout.
func (c *Controller) ShutdownAll(ctx context.Context, mode ShutdownMode) error {
	if err := verifyShutdownMode(mode); err != nil {
		return err
	}
	for _, s := range c.layout.All() {
		if _, err := c.run(ctx, s, "shutdown", string(mode)); err != nil {
			return err
		}
	}
	sleepCtx(ctx, c.settleDelay)
	return nil
}

func verifyShutdownMode(mode ShutdownMode) error {
	switch mode {
	case ShutdownGraceful, ShutdownForce:
		return nil
	}
	return fmt.Errorf("shutdown: bad mode %q", mode)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
