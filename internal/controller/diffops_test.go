package controller

import (
	"context"
	"testing"
)

// TestApplyDiff checks the apply command and its verification: action
// drained and the oldest restorable gid at or beyond the target.
func TestApplyDiff(t *testing.T) {
	f := newFakeRunner()
	f.script("a0", "apply", "")
	f.script("a0", "get num-action", "1", "0")
	f.script("a0", "get restorable", "5 2015-11-16T07:32:08\n9 2015-11-16T07:32:11")
	c := newTestController(f)

	if err := c.ApplyDiff(context.Background(), testLayout().Archive[0], "vol0", 5); err != nil {
		t.Fatalf("ApplyDiff failed: %v", err)
	}
	if calls := f.callsFor("a0", "apply"); calls[0] != "apply vol0 5" {
		t.Errorf("unexpected argv %q", calls[0])
	}
}

// TestApplyDiffIncomplete checks an oldest gid below the target is a
// convergence failure.
func TestApplyDiffIncomplete(t *testing.T) {
	f := newFakeRunner()
	f.script("a0", "apply", "")
	f.script("a0", "get num-action", "0")
	f.script("a0", "get restorable", "3 2015-11-16T07:32:00")
	c := newTestController(f)

	err := c.ApplyDiff(context.Background(), testLayout().Archive[0], "vol0", 5)
	if !IsConvergence(err) {
		t.Errorf("expected convergence error, got %v", err)
	}
}

// TestMergeDiff checks the merge command shape and the adjacency
// verification in the full snapshot list.
func TestMergeDiff(t *testing.T) {
	f := newFakeRunner()
	f.script("a0", "merge", "")
	f.script("a0", "get num-action", "0")
	f.script("a0", "get restorable", "3 2015-11-16T07:32:00\n5 2015-11-16T07:32:04\n7 2015-11-16T07:32:08")
	c := newTestController(f)

	if err := c.MergeDiff(context.Background(), testLayout().Archive[0], "vol0", 5, 7); err != nil {
		t.Fatalf("MergeDiff failed: %v", err)
	}
	if calls := f.callsFor("a0", "merge"); calls[0] != "merge vol0 5 gid 7" {
		t.Errorf("unexpected argv %q", calls[0])
	}
}

// TestMergeDiffGap checks a surviving snapshot inside the range fails the
// verification.
func TestMergeDiffGap(t *testing.T) {
	f := newFakeRunner()
	f.script("a0", "merge", "")
	f.script("a0", "get num-action", "0")
	f.script("a0", "get restorable",
		"3 2015-11-16T07:32:00\n5 2015-11-16T07:32:04\n6 2015-11-16T07:32:06\n7 2015-11-16T07:32:08")
	c := newTestController(f)

	err := c.MergeDiff(context.Background(), testLayout().Archive[0], "vol0", 5, 7)
	if !IsConvergence(err) {
		t.Errorf("expected convergence error, got %v", err)
	}
}

// TestMergeDiffBadRange checks range validation happens before any
// command.
func TestMergeDiffBadRange(t *testing.T) {
	f := newFakeRunner()
	c := newTestController(f)

	if err := c.MergeDiff(context.Background(), testLayout().Archive[0], "vol0", 7, 5); err == nil {
		t.Fatal("inverted range should fail")
	}
	if err := c.MergeDiff(context.Background(), testLayout().Archive[0], "vol0", 5, 5); err == nil {
		t.Fatal("empty range should fail")
	}
	if len(f.callsFor("a0", "merge")) != 0 {
		t.Error("no merge command should have been issued")
	}
}
