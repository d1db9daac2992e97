package worker

import (
	"fmt"

	"github.com/walfleet/walfleet/internal/controller"
	"github.com/walfleet/walfleet/internal/fleet"
)

// Kind classifies a maintenance task.
type Kind string

const (
	// KindApply folds old diffs into the base image of a volume.
	KindApply Kind = "apply"

	// KindMerge coalesces adjacent mergeable diffs of a volume.
	KindMerge Kind = "merge"

	// KindReplicate transfers a volume to a replication target.
	KindReplicate Kind = "replicate"
)

// Task is one selected unit of maintenance work. Tasks are plain values:
// two selections of the same work compare equal, which the scheduler relies
// on to deduplicate. The fields beyond Kind and Volume are per-kind
// arguments; unused ones stay zero.
type Task struct {
	Kind   Kind
	Volume string

	// Archive is the archive server the operation runs against. For a
	// replicate task it is the source.
	Archive fleet.Server

	// Gid is the apply target.
	Gid uint64

	// GidB and GidE delimit a merge range.
	GidB uint64
	GidE uint64

	// Target names the replication destination, Dest is its server record
	// and Opt carries the per-target transfer options.
	Target string
	Dest   fleet.Server
	Opt    controller.SyncOpt
}

// Identity is the scheduler's deduplication key. Two tasks of the same
// kind on the same volume never run concurrently.
type Identity struct {
	Kind   Kind
	Volume string
}

// Identity returns the task's deduplication key.
func (t Task) Identity() Identity {
	return Identity{Kind: t.Kind, Volume: t.Volume}
}

func (t Task) String() string {
	switch t.Kind {
	case KindApply:
		return fmt.Sprintf("apply %s gid %d", t.Volume, t.Gid)
	case KindMerge:
		return fmt.Sprintf("merge %s [%d, %d)", t.Volume, t.GidB, t.GidE)
	case KindReplicate:
		return fmt.Sprintf("replicate %s to %s", t.Volume, t.Target)
	default:
		return fmt.Sprintf("%s %s", t.Kind, t.Volume)
	}
}
