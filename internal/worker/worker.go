package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/walfleet/walfleet/internal/checkpoint"
	"github.com/walfleet/walfleet/internal/config"
	"github.com/walfleet/walfleet/internal/controller"
	"github.com/walfleet/walfleet/internal/fleet"
	"github.com/walfleet/walfleet/internal/logging"
	"github.com/walfleet/walfleet/internal/meta"
)

// Worker selects maintenance tasks for the volumes of one archive server.
// Each select method inspects remote state and returns at most one task;
// none of them mutates anything, so a selection that is never dispatched
// costs nothing.
type Worker struct {
	cfg    *config.Config
	walbc  Controller
	store  checkpoint.Store
	logger *logging.Logger

	// a0 is the archive server this worker maintains.
	a0 fleet.Server

	// targets holds the replication target names in scan order, and
	// targetServers their server handles.
	targets       []string
	targetServers map[string]fleet.Server
}

// New creates a Worker for the archive server named in the general config.
func New(cfg *config.Config, walbc Controller, store checkpoint.Store) *Worker {
	return &Worker{
		cfg:           cfg,
		walbc:         walbc,
		store:         store,
		logger:        logging.Global().With("component", "worker"),
		a0:            cfg.ArchiveServer(),
		targets:       cfg.ReplTargetNames(),
		targetServers: cfg.ReplTargets(),
	}
}

// Archive returns the archive server the worker maintains.
func (w *Worker) Archive() fleet.Server {
	return w.a0
}

// Volumes returns the volumes of the archive that are in an active state.
func (w *Worker) Volumes(ctx context.Context) ([]string, error) {
	states, err := w.VolumeStates(ctx)
	if err != nil {
		return nil, err
	}

	active := make([]string, 0, len(states))
	for _, vs := range states {
		if fleet.StateIn(fleet.ArchiveState(vs.State), fleet.ArchiveActive) {
			active = append(active, vs.Name)
		}
	}
	return active, nil
}

// VolumeState pairs a volume with its archive state.
type VolumeState struct {
	Name  string
	State string
}

// VolumeStates returns every volume on the archive and its state.
func (w *Worker) VolumeStates(ctx context.Context) ([]VolumeState, error) {
	vols, err := w.walbc.VolList(ctx, w.a0)
	if err != nil {
		return nil, fmt.Errorf("get volume list: %w", err)
	}

	states := make([]VolumeState, 0, len(vols))
	for _, vol := range vols {
		st, err := w.walbc.GetState(ctx, w.a0, vol)
		if err != nil {
			return nil, fmt.Errorf("get state %s: %w", vol, err)
		}
		states = append(states, VolumeState{Name: vol, State: st})
	}
	return states, nil
}

// Targets returns the replication target names, sorted.
func (w *Worker) Targets() []string {
	return append([]string(nil), w.targets...)
}

// selectApplyTask1 returns an apply task for the first volume whose base
// meta state still carries an in-progress apply. Finishing an interrupted
// apply is cheap and unblocks the volume.
func (w *Worker) selectApplyTask1(ctx context.Context, vols []string) (Task, bool, error) {
	for _, vol := range vols {
		st, err := w.walbc.GetBase(ctx, w.a0, vol)
		if err != nil {
			return Task{}, false, fmt.Errorf("get base %s: %w", vol, err)
		}
		if st.IsApplying() {
			return Task{Kind: KindApply, Volume: vol, Archive: w.a0, Gid: st.Base.GidB}, true, nil
		}
	}
	return Task{}, false, nil
}

// selectApplyTask2 returns an apply task for the volume with the most diff
// bytes behind its keep period. The candidate gid is the newest restorable
// point older than the keep period; applying the biggest backlog first
// frees the most space.
func (w *Worker) selectApplyTask2(ctx context.Context, vols []string, now time.Time) (Task, bool, error) {
	cutoff := now.Add(-w.cfg.Apply.KeepPeriod)

	var (
		best     Task
		bestSize int64
		found    bool
	)
	for _, vol := range vols {
		infos, err := w.walbc.Restorable(ctx, w.a0, vol)
		if err != nil {
			return Task{}, false, fmt.Errorf("get restorable %s: %w", vol, err)
		}
		info, ok := meta.LatestGidInfoBefore(cutoff, infos)
		if !ok {
			continue
		}
		size, err := w.walbc.TotalDiffSize(ctx, w.a0, vol, 0, info.Gid)
		if err != nil {
			return Task{}, false, fmt.Errorf("get total diff size %s: %w", vol, err)
		}
		if !found || size > bestSize {
			best = Task{Kind: KindApply, Volume: vol, Archive: w.a0, Gid: info.Gid}
			bestSize = size
			found = true
		}
	}
	return best, found, nil
}

// selectMergeTask returns a merge task for the volume with the most diffs,
// skipping volumes merged more recently than the merge interval. The merge
// window is cut off before the diff that would exceed max_nr entries or
// max_size bytes, and the window must be worth a merge: threshold_nr diffs
// or max_size bytes.
func (w *Worker) selectMergeTask(ctx context.Context, vols []string, now time.Time) (Task, bool, error) {
	var candidates []string
	for _, vol := range vols {
		last, err := w.store.LastMerge(ctx, vol)
		if err != nil {
			return Task{}, false, fmt.Errorf("last merge %s: %w", vol, err)
		}
		if now.Sub(last) < w.cfg.Merge.Interval {
			continue
		}
		candidates = append(candidates, vol)
	}
	if len(candidates) == 0 {
		return Task{}, false, nil
	}

	nums, err := w.getNumDiffList(ctx, candidates)
	if err != nil {
		return Task{}, false, err
	}
	bestIdx := 0
	for i, n := range nums {
		if n > nums[bestIdx] {
			bestIdx = i
		}
	}
	if nums[bestIdx] == 0 {
		return Task{}, false, nil
	}
	vol := candidates[bestIdx]

	diffs, err := w.walbc.ApplicableDiffList(ctx, w.a0, vol, meta.MaxGid)
	if err != nil {
		return Task{}, false, fmt.Errorf("get applicable diff list %s: %w", vol, err)
	}

	var (
		window []meta.Diff
		size   int64
	)
	for _, d := range diffs {
		if len(window) >= w.cfg.Merge.MaxNr || size >= w.cfg.Merge.MaxSize {
			break
		}
		window = append(window, d)
		size += d.Size
	}

	if len(window) < w.cfg.Merge.ThresholdNr && size < w.cfg.Merge.MaxSize {
		return Task{}, false, nil
	}

	r, ok, err := meta.MergeGidRange(window)
	if err != nil {
		return Task{}, false, fmt.Errorf("merge range %s: %w", vol, err)
	}
	if !ok {
		return Task{}, false, nil
	}
	return Task{Kind: KindMerge, Volume: vol, Archive: w.a0, GidB: r.GidB, GidE: r.GidE}, true, nil
}

// selectReplTask returns a replicate task for the first target and volume
// pair whose replication interval has elapsed since the last recorded
// success. Targets are scanned in name order.
func (w *Worker) selectReplTask(ctx context.Context, vols []string, now time.Time) (Task, bool, error) {
	for _, name := range w.targets {
		rs := w.cfg.ReplServers[name]
		for _, vol := range vols {
			last, err := w.store.LastReplicated(ctx, name, vol)
			if err != nil {
				return Task{}, false, fmt.Errorf("last replicated %s/%s: %w", name, vol, err)
			}
			if now.Sub(last) < rs.Interval {
				continue
			}
			return Task{
				Kind:    KindReplicate,
				Volume:  vol,
				Archive: w.a0,
				Target:  name,
				Dest:    w.targetServers[name],
				Opt: controller.SyncOpt{
					Compress:     rs.Compress,
					MaxMergeSize: rs.MaxMergeSize,
					BulkSize:     rs.BulkSize,
				},
			}, true, nil
		}
	}
	return Task{}, false, nil
}

// getNumDiffList returns the diff counts of the volumes, in input order.
func (w *Worker) getNumDiffList(ctx context.Context, vols []string) ([]int, error) {
	nums := make([]int, 0, len(vols))
	for _, vol := range vols {
		n, err := w.walbc.NumDiff(ctx, w.a0, vol, 0, meta.MaxGid)
		if err != nil {
			return nil, fmt.Errorf("get num diff %s: %w", vol, err)
		}
		nums = append(nums, n)
	}
	return nums, nil
}

// run executes a selected task against the archive.
func (w *Worker) run(ctx context.Context, t Task) error {
	switch t.Kind {
	case KindApply:
		return w.walbc.ApplyDiff(ctx, t.Archive, t.Volume, t.Gid)
	case KindMerge:
		return w.walbc.MergeDiff(ctx, t.Archive, t.Volume, t.GidB, t.GidE)
	case KindReplicate:
		opt := t.Opt
		_, err := w.walbc.ReplicateOnce(ctx, t.Archive, t.Volume, t.Dest, &opt)
		return err
	default:
		return fmt.Errorf("unknown task kind %q", t.Kind)
	}
}
