package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/walfleet/walfleet/internal/meta"
)

// TestFullBackup walks the whole flow: prepare, full-bkp, state
// convergence, archive activity check and the restorable gid wait.
func TestFullBackup(t *testing.T) {
	f := newFakeRunner()
	f.script("s0", "get state", "SyncReady", "FullSync", "Master")
	f.script("s0", "full-bkp", "")
	f.script("s0", "kick", "")
	f.script("s1", "get state", "Clear")
	f.script("s1", "kick", "")
	f.script("p0", "get state", "Stopped", "Stopped", "Started")
	f.script("p0", "archive-info list", "")
	f.script("p0", "archive-info add", "")
	f.script("p0", "start", "")
	f.script("a0", "get state", "Clear", "Archived")
	f.script("a0", "init-vol", "")
	f.script("a0", "get restorable", "", "8 2015-11-16T07:32:08")
	c := newTestController(f)

	gid, err := c.FullBackup(context.Background(), testLayout().Storage[0], "vol0")
	if err != nil {
		t.Fatalf("FullBackup failed: %v", err)
	}
	if gid != 8 {
		t.Errorf("expected gid 8, got %d", gid)
	}
	if calls := f.callsFor("a0", "init-vol"); len(calls) != 1 || calls[0] != "init-vol vol0" {
		t.Errorf("expected the clear primary archive to be initialized, got %v", calls)
	}
	if calls := f.callsFor("s0", "full-bkp"); len(calls) != 1 || calls[0] != "full-bkp vol0" {
		t.Errorf("unexpected full-bkp calls %v", calls)
	}
	found := false
	for _, call := range f.callsFor("p0", "archive-info") {
		if call == "archive-info add vol0 a0 10.0.0.4:10200" {
			found = true
		}
	}
	if !found {
		t.Error("expected the primary archive to be attached to the proxy")
	}
	for _, name := range []string{"s0", "s1"} {
		if len(f.callsFor(name, "kick")) != 1 {
			t.Errorf("expected a kick on %s", name)
		}
	}
}

// TestHashBackup checks the master walk-down and that only a gid newer
// than the previous newest counts.
func TestHashBackup(t *testing.T) {
	f := newFakeRunner()
	f.script("s0", "get state",
		"Master", "Master", "StopMaster", "Stopped", "Stopped", "SyncReady",
		"HashSync", "Master")
	f.script("s0", "stop", "")
	f.script("s0", "reset-vol", "")
	f.script("s0", "hash-bkp", "")
	f.script("s0", "kick", "")
	f.script("s1", "get state", "Slave")
	f.script("s1", "kick", "")
	f.script("p0", "get state", "Stopped", "Stopped", "Started")
	f.script("p0", "archive-info list", "")
	f.script("p0", "archive-info add", "")
	f.script("p0", "start", "")
	f.script("a0", "get state", "Archived")
	f.script("a0", "get restorable",
		"3 2015-11-16T07:30:00",
		"3 2015-11-16T07:30:00",
		"3 2015-11-16T07:30:00\n9 2015-11-16T07:32:11")
	c := newTestController(f)

	gid, err := c.HashBackup(context.Background(), testLayout().Storage[0], "vol0")
	if err != nil {
		t.Fatalf("HashBackup failed: %v", err)
	}
	if gid != 9 {
		t.Errorf("expected gid 9, got %d", gid)
	}
	if len(f.callsFor("s0", "reset-vol")) != 1 {
		t.Error("expected the master volume to be reset")
	}
	if len(f.callsFor("a0", "init-vol")) != 0 {
		t.Error("an archived volume should not be re-initialized")
	}
}

// TestPrepareBackupBadPeer checks another storage in a bad state aborts
// the backup before any command is sent.
func TestPrepareBackupBadPeer(t *testing.T) {
	f := newFakeRunner()
	f.script("s0", "get state", "SyncReady")
	f.script("s1", "get state", "Master")
	c := newTestController(f)

	_, err := c.FullBackup(context.Background(), testLayout().Storage[0], "vol0")
	if !IsPrecondition(err) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if len(f.callsFor("s0", "full-bkp")) != 0 {
		t.Error("full-bkp should not have been issued")
	}
}

// TestSnapshotAsync checks gid output parsing.
func TestSnapshotAsync(t *testing.T) {
	f := newFakeRunner()
	f.script("s0", "snapshot", "13", "not-a-gid")
	c := newTestController(f)

	gid, err := c.SnapshotAsync(context.Background(), testLayout().Storage[0], "vol0")
	if err != nil {
		t.Fatalf("SnapshotAsync failed: %v", err)
	}
	if gid != 13 {
		t.Errorf("expected gid 13, got %d", gid)
	}
	if calls := f.callsFor("s0", "snapshot"); calls[0] != "snapshot vol0" {
		t.Errorf("unexpected argv %q", calls[0])
	}

	_, err = c.SnapshotAsync(context.Background(), testLayout().Storage[0], "vol0")
	var pe *meta.ParseError
	if !errors.As(err, &pe) {
		t.Errorf("expected parse error, got %v", err)
	}
}

// TestSnapshot checks the synchronous variant waits for the gid on the
// given archives.
func TestSnapshot(t *testing.T) {
	f := newFakeRunner()
	f.script("s0", "snapshot", "21")
	f.script("a0", "get restorable", "", "21 2015-11-16T07:32:08")
	c := newTestController(f)

	gid, err := c.Snapshot(context.Background(), testLayout().Storage[0], "vol0",
		testLayout().Archive[:1])
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if gid != 21 {
		t.Errorf("expected gid 21, got %d", gid)
	}
}
