package fleet

import "testing"

func TestStateIn(t *testing.T) {
	if !StateIn(ArchiveArchived, ArchiveActive) {
		t.Error("Archived must be an active archive state")
	}
	if StateIn(ArchiveClear, ArchiveActive) {
		t.Error("Clear must not be an active archive state")
	}
	if !StateIn(StorageStopped, StorageDuringFullSync) {
		t.Error("Stopped appears inside the full sync transition")
	}
}

func TestStatePred(t *testing.T) {
	pred := StatePred(ProxyActive)
	if !pred("Started") || !pred("WlogRecv") {
		t.Error("predicate must accept active proxy states")
	}
	if pred("Stopped") || pred("made-up") {
		t.Error("predicate must reject other states")
	}

	not := NotStatePred(ArchiveDuringReplicate)
	if not("ReplSyncAsServer") || not("FullSync") {
		t.Error("negated predicate must reject replicating states")
	}
	if !not("Archived") {
		t.Error("negated predicate must accept settled states")
	}
}

func TestAcceptForResizeIncludesStopped(t *testing.T) {
	if !StateIn(ArchiveStopped, ArchiveAcceptForResize) {
		t.Error("Stopped must accept resize")
	}
	if StateIn(ArchiveClear, ArchiveAcceptForResize) {
		t.Error("Clear must not accept resize")
	}
}

func TestStateNames(t *testing.T) {
	names := StateNames(ProxyActive)
	if len(names) != 2 || names[0] != "Started" || names[1] != "WlogRecv" {
		t.Errorf("StateNames = %v", names)
	}
}
