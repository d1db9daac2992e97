package controller

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// TestLvPaths checks the logical volume naming scheme.
func TestLvPaths(t *testing.T) {
	ax := testLayout().Archive[0]
	if got := LvPath(ax, "vol0"); got != "/dev/vg0/i_vol0" {
		t.Errorf("unexpected lv path %q", got)
	}
	if got := RestoredPath(ax, "vol0", 5); got != "/dev/vg0/r_vol0_5" {
		t.Errorf("unexpected restored path %q", got)
	}
}

// TestRestore checks the restore flow: command, action drain, restored
// membership and the device probe.
func TestRestore(t *testing.T) {
	f := newFakeRunner()
	f.script("a0", "restore", "")
	f.script("a0", "get num-action", "1", "0")
	f.script("a0", "get restored", "5 2015-11-16T07:32:08")
	f.script("a0", "exec", "0", "1")
	c := newTestController(f)

	if err := c.Restore(context.Background(), testLayout().Archive[0], "vol0", 5); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if calls := f.callsFor("a0", "restore"); calls[0] != "restore vol0 5" {
		t.Errorf("unexpected argv %q", calls[0])
	}
	probes := f.callsFor("a0", "exec")
	if len(probes) != 2 {
		t.Fatalf("expected 2 device probes, got %d", len(probes))
	}
	if !strings.Contains(probes[0], "r_vol0_5") {
		t.Errorf("probe should target the restored lv, got %q", probes[0])
	}
}

// TestRestoreNotListed checks a missing gid after the action drained is a
// convergence failure.
func TestRestoreNotListed(t *testing.T) {
	f := newFakeRunner()
	f.script("a0", "restore", "")
	f.script("a0", "get num-action", "0")
	f.script("a0", "get restored", "")
	c := newTestController(f)

	err := c.Restore(context.Background(), testLayout().Archive[0], "vol0", 5)
	if !IsConvergence(err) {
		t.Errorf("expected convergence error, got %v", err)
	}
}

// TestDelRestoredRetries checks transient remote failures are retried and
// the command eventually succeeds.
func TestDelRestoredRetries(t *testing.T) {
	f := newFakeRunner()
	f.script("a0", "exec", "1")
	f.scriptErr("a0", "del-restored", errors.New("device busy"))
	f.scriptErr("a0", "del-restored", errors.New("device busy"))
	f.script("a0", "del-restored", "")
	f.script("a0", "get restored", "")
	c := newTestController(f)

	if err := c.DelRestored(context.Background(), testLayout().Archive[0], "vol0", 5); err != nil {
		t.Fatalf("DelRestored failed: %v", err)
	}
	if n := len(f.callsFor("a0", "del-restored")); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

// TestDelRestoredExhausted checks the retry budget is finite.
func TestDelRestoredExhausted(t *testing.T) {
	f := newFakeRunner()
	f.script("a0", "exec", "1")
	f.scriptErr("a0", "del-restored", errors.New("device busy"))
	f.scriptErr("a0", "del-restored", errors.New("device busy"))
	f.scriptErr("a0", "del-restored", errors.New("device busy"))
	c := newTestController(f)

	err := c.DelRestored(context.Background(), testLayout().Archive[0], "vol0", 5)
	if err == nil {
		t.Fatal("DelRestored should fail")
	}
	if !strings.Contains(err.Error(), "retries exhausted") {
		t.Errorf("unexpected error %v", err)
	}
	if n := len(f.callsFor("a0", "del-restored")); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}
