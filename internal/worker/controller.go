package worker

import (
	"context"

	"github.com/walfleet/walfleet/internal/controller"
	"github.com/walfleet/walfleet/internal/fleet"
	"github.com/walfleet/walfleet/internal/meta"
)

// Controller is the slice of the admin client the worker consumes.
// *controller.Controller satisfies it; tests substitute a mock.
type Controller interface {
	// VolList returns the volumes an archive server knows.
	VolList(ctx context.Context, s fleet.Server) ([]string, error)

	// GetState returns the state string of a volume.
	GetState(ctx context.Context, s fleet.Server, vol string) (string, error)

	// GetBase returns the base meta state of an archive volume.
	GetBase(ctx context.Context, ax fleet.Server, vol string) (meta.MetaState, error)

	// Restorable returns the restorable gid list of an archive volume.
	Restorable(ctx context.Context, ax fleet.Server, vol string) ([]meta.GidInfo, error)

	// TotalDiffSize returns the total diff bytes in a gid range.
	TotalDiffSize(ctx context.Context, ax fleet.Server, vol string, gid0, gid1 uint64) (int64, error)

	// NumDiff returns the number of diffs in a gid range.
	NumDiff(ctx context.Context, ax fleet.Server, vol string, gid0, gid1 uint64) (int, error)

	// ApplicableDiffList returns the diff chain up to a gid.
	ApplicableDiffList(ctx context.Context, ax fleet.Server, vol string, gid uint64) ([]meta.Diff, error)

	// ApplyDiff folds diffs up to gid into the base image and waits for
	// completion.
	ApplyDiff(ctx context.Context, ax fleet.Server, vol string, gid uint64) error

	// MergeDiff coalesces the diffs in [gidB, gidE) and waits for
	// completion.
	MergeDiff(ctx context.Context, ax fleet.Server, vol string, gidB, gidE uint64) error

	// ReplicateOnce transfers the volume to another archive and waits for
	// completion.
	ReplicateOnce(ctx context.Context, aSrc fleet.Server, vol string, aDst fleet.Server, opt *controller.SyncOpt) (uint64, error)
}
