package fleet

// Server state names as reported over the admin protocol. Each kind has its
// own closed set of steady states plus transient states entered while a
// command is in flight; typed constants keep goal-set checks away from raw
// strings.

// StorageState is a storage server volume state.
type StorageState string

const (
	// steady
	StorageClear     StorageState = "Clear"
	StorageSyncReady StorageState = "SyncReady"
	StorageStopped   StorageState = "Stopped"
	StorageMaster    StorageState = "Master"
	StorageSlave     StorageState = "Slave"

	// transient
	StorageInitVol     StorageState = "InitVol"
	StorageClearVol    StorageState = "ClearVol"
	StorageStartSlave  StorageState = "StartSlave"
	StorageStopSlave   StorageState = "StopSlave"
	StorageFullSync    StorageState = "FullSync"
	StorageHashSync    StorageState = "HashSync"
	StorageStartMaster StorageState = "StartMaster"
	StorageStopMaster  StorageState = "StopMaster"
	StorageReset       StorageState = "Reset"
)

// ProxyState is a proxy server volume state.
type ProxyState string

const (
	// steady
	ProxyClear   ProxyState = "Clear"
	ProxyStopped ProxyState = "Stopped"
	ProxyStarted ProxyState = "Started"

	// transient
	ProxyStart             ProxyState = "Start"
	ProxyStop              ProxyState = "Stop"
	ProxyClearVol          ProxyState = "ClearVol"
	ProxyAddArchiveInfo    ProxyState = "AddArchiveInfo"
	ProxyDeleteArchiveInfo ProxyState = "DeleteArchiveInfo"
	ProxyWlogRecv          ProxyState = "WlogRecv"
	ProxyWaitForEmpty      ProxyState = "WaitForEmpty"
)

// ArchiveState is an archive server volume state.
type ArchiveState string

const (
	// steady
	ArchiveClear     ArchiveState = "Clear"
	ArchiveSyncReady ArchiveState = "SyncReady"
	ArchiveArchived  ArchiveState = "Archived"
	ArchiveStopped   ArchiveState = "Stopped"

	// transient
	ArchiveInitVol          ArchiveState = "InitVol"
	ArchiveClearVol         ArchiveState = "ClearVol"
	ArchiveResetVol         ArchiveState = "ResetVol"
	ArchiveFullSync         ArchiveState = "FullSync"
	ArchiveHashSync         ArchiveState = "HashSync"
	ArchiveWdiffRecv        ArchiveState = "WdiffRecv"
	ArchiveReplSyncAsServer ArchiveState = "ReplSyncAsServer"
	ArchiveStop             ArchiveState = "Stop"
	ArchiveStart            ArchiveState = "Start"
)

// Action names a background activity queried through "get num-action".
type Action string

const (
	ActionWlogSend         Action = "WlogSend"
	ActionWlogRemove       Action = "WlogRemove"
	ActionMerge            Action = "Merge"
	ActionApply            Action = "Apply"
	ActionRestore          Action = "Restore"
	ActionReplSyncAsClient Action = "ReplSyncAsClient"
	ActionResize           Action = "Resize"
)

// Composite sets used by the controller workflows.
var (
	StorageSteady = []StorageState{
		StorageClear, StorageSyncReady, StorageStopped, StorageMaster, StorageSlave,
	}
	StorageDuringFullSync = []StorageState{StorageFullSync, StorageStopped, StorageStartMaster}
	StorageDuringHashSync = []StorageState{StorageHashSync, StorageStopped, StorageStartMaster}
	StorageDuringStopForMaster = []StorageState{StorageMaster, StorageStopMaster}
	StorageDuringStopForSlave  = []StorageState{StorageSlave, StorageStopSlave}

	ProxySteady     = []ProxyState{ProxyClear, ProxyStopped, ProxyStarted}
	ProxyActive     = []ProxyState{ProxyStarted, ProxyWlogRecv}
	ProxyDuringStop = []ProxyState{ProxyStarted, ProxyWlogRecv, ProxyStop, ProxyWaitForEmpty}

	ArchiveSteady = []ArchiveState{
		ArchiveClear, ArchiveSyncReady, ArchiveArchived, ArchiveStopped,
	}
	ArchiveActive = []ArchiveState{
		ArchiveArchived, ArchiveWdiffRecv, ArchiveHashSync, ArchiveReplSyncAsServer,
	}
	ArchiveAcceptForResize = []ArchiveState{
		ArchiveArchived, ArchiveWdiffRecv, ArchiveHashSync, ArchiveReplSyncAsServer, ArchiveStopped,
	}
	ArchiveAcceptForClearVol = []ArchiveState{ArchiveStopped, ArchiveSyncReady}
	ArchiveDuringReplicate   = []ArchiveState{ArchiveReplSyncAsServer, ArchiveFullSync}
	ArchiveDuringStop        = []ArchiveState{
		ArchiveArchived, ArchiveWdiffRecv, ArchiveHashSync, ArchiveReplSyncAsServer, ArchiveStop,
	}
)

// StateIn reports membership of a state in a set of the same kind.
func StateIn[S ~string](st S, set []S) bool {
	for _, x := range set {
		if st == x {
			return true
		}
	}
	return false
}

// StatePred builds a raw-state predicate from a typed set, for the polling
// primitives that see wire strings.
func StatePred[S ~string](set []S) func(string) bool {
	return func(raw string) bool {
		return StateIn(S(raw), set)
	}
}

// NotStatePred is the negation of StatePred.
func NotStatePred[S ~string](set []S) func(string) bool {
	pred := StatePred(set)
	return func(raw string) bool {
		return !pred(raw)
	}
}

// StateNames renders a typed set for error messages.
func StateNames[S ~string](set []S) []string {
	names := make([]string, len(set))
	for i, st := range set {
		names[i] = string(st)
	}
	return names
}
