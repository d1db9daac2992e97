package checkpoint

import (
	"context"
	"time"
)

// Store persists scheduler watermarks: when a volume last finished a merge
// and when it was last replicated to a target. A restarted worker reads
// them back so it does not redo recent work. Absent entries are reported
// as the zero time, never as an error.
type Store interface {
	// LastMerge returns the time the volume last finished a merge.
	LastMerge(ctx context.Context, vol string) (time.Time, error)

	// SetLastMerge records the time the volume finished a merge.
	SetLastMerge(ctx context.Context, vol string, t time.Time) error

	// LastReplicated returns the time the volume was last replicated to
	// the named target.
	LastReplicated(ctx context.Context, target, vol string) (time.Time, error)

	// SetLastReplicated records a successful replication to the named target.
	SetLastReplicated(ctx context.Context, target, vol string, t time.Time) error

	// Close releases the underlying client, if any.
	Close() error
}
