package worker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/walfleet/walfleet/internal/events"
	"github.com/walfleet/walfleet/internal/history"
	"github.com/walfleet/walfleet/internal/logging"
	"github.com/walfleet/walfleet/internal/metrics"
	"github.com/walfleet/walfleet/internal/utils"
)

// RunningTask is a dispatched task as shown on the status API.
type RunningTask struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Volume    string    `json:"volume"`
	Target    string    `json:"target,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Scheduler drives the maintenance loop. Each cycle it picks at most
// one new task per kind, apply before merge before replicate, and runs
// it in the background. A volume carries at most one task of a kind at
// a time, and the total number of running tasks is capped.
type Scheduler struct {
	w       *Worker
	emitter *events.Emitter
	hist    *history.Ring
	logger  *logging.Logger

	mu      sync.RWMutex
	running map[Identity]RunningTask

	wg sync.WaitGroup

	// now is replaced in tests.
	now func() time.Time
}

// NewScheduler creates a scheduler over a worker. The emitter and the
// history ring receive every task lifecycle transition.
func NewScheduler(w *Worker, emitter *events.Emitter, hist *history.Ring) *Scheduler {
	return &Scheduler{
		w:       w,
		emitter: emitter,
		hist:    hist,
		logger:  logging.Global().With("component", "scheduler"),
		running: make(map[Identity]RunningTask),
		now:     time.Now,
	}
}

// Run executes scheduler cycles until the context is cancelled, then
// waits for running tasks to finish.
func (s *Scheduler) Run(ctx context.Context) {
	interval := s.w.cfg.General.CycleInterval
	if interval <= 0 {
		interval = utils.DefaultCycleInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started",
		"cycle_interval", interval.String(),
		"max_concurrent_tasks", s.w.cfg.General.MaxConcurrentTasks)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping, waiting for running tasks",
				"running", s.RunningCount())
			s.wg.Wait()
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

// cycle performs one selection pass.
func (s *Scheduler) cycle(ctx context.Context) {
	metrics.SchedulerCycles.Inc()

	vols, err := s.w.Volumes(ctx)
	if err != nil {
		s.logger.Warn("failed to list volumes", "error", err)
		return
	}
	if len(vols) == 0 {
		return
	}
	now := s.now()

	type selection struct {
		kind Kind
		pick func(ctx context.Context, free []string) (Task, bool, error)
	}
	selections := []selection{
		{KindApply, func(ctx context.Context, free []string) (Task, bool, error) {
			task, ok, err := s.w.selectApplyTask1(ctx, free)
			if err != nil || ok {
				return task, ok, err
			}
			return s.w.selectApplyTask2(ctx, free, now)
		}},
		{KindMerge, func(ctx context.Context, free []string) (Task, bool, error) {
			return s.w.selectMergeTask(ctx, free, now)
		}},
		{KindReplicate, func(ctx context.Context, free []string) (Task, bool, error) {
			return s.w.selectReplTask(ctx, free, now)
		}},
	}

	for _, sel := range selections {
		if s.RunningCount() >= s.w.cfg.General.MaxConcurrentTasks {
			s.logger.Debug("concurrent task limit reached",
				"limit", s.w.cfg.General.MaxConcurrentTasks)
			return
		}
		free := s.freeVolumes(sel.kind, vols)
		if len(free) == 0 {
			continue
		}
		task, ok, err := sel.pick(ctx, free)
		if err != nil {
			metrics.TaskSelections.WithLabelValues(string(sel.kind), "error").Inc()
			s.logger.Warn("task selection failed",
				"kind", string(sel.kind), "error", err)
			continue
		}
		if !ok {
			metrics.TaskSelections.WithLabelValues(string(sel.kind), "none").Inc()
			continue
		}
		metrics.TaskSelections.WithLabelValues(string(sel.kind), "picked").Inc()
		s.dispatch(ctx, task)
	}
}

// freeVolumes filters out volumes already busy with a task of the kind.
func (s *Scheduler) freeVolumes(kind Kind, vols []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	free := make([]string, 0, len(vols))
	for _, vol := range vols {
		if _, busy := s.running[Identity{Kind: kind, Volume: vol}]; busy {
			continue
		}
		free = append(free, vol)
	}
	return free
}

// dispatch assigns an id and launches the task.
func (s *Scheduler) dispatch(ctx context.Context, task Task) {
	id := uuid.New().String()
	started := s.now()

	s.mu.Lock()
	if _, exists := s.running[task.Identity()]; exists {
		s.mu.Unlock()
		return
	}
	s.running[task.Identity()] = RunningTask{
		ID:        id,
		Kind:      string(task.Kind),
		Volume:    task.Volume,
		Target:    task.Target,
		StartedAt: started,
	}
	s.mu.Unlock()

	metrics.TasksStarted.WithLabelValues(string(task.Kind)).Inc()
	metrics.TasksInFlight.Inc()
	s.logger.Info("task started", "task_id", id, "task", task.String())
	s.emitter.Emit(ctx, taskEvent(id, events.TypeStarted, task))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(ctx, id, task, started)
	}()
}

// execute runs the task to completion and records the outcome.
func (s *Scheduler) execute(ctx context.Context, id string, task Task, started time.Time) {
	err := s.w.run(ctx, task)
	finished := s.now()
	duration := finished.Sub(started)

	s.mu.Lock()
	delete(s.running, task.Identity())
	s.mu.Unlock()

	metrics.TasksInFlight.Dec()
	metrics.TaskDuration.WithLabelValues(string(task.Kind)).Observe(duration.Seconds())

	rec := history.Record{
		ID:         id,
		Kind:       string(task.Kind),
		Volume:     task.Volume,
		Target:     task.Target,
		StartedAt:  started,
		FinishedAt: finished,
		Duration:   duration.Seconds(),
		Detail:     task.String(),
	}
	ev := taskEvent(id, events.TypeCompleted, task)
	ev.Duration = duration.Seconds()

	if err != nil {
		rec.Status = history.StatusFailed
		rec.Error = err.Error()
		ev.Type = events.TypeFailed
		ev.Error = err.Error()
		metrics.TasksFinished.WithLabelValues(string(task.Kind), "failed").Inc()
		s.logger.Error("task failed",
			"task_id", id, "task", task.String(), "duration", duration.String(), "error", err)
	} else {
		rec.Status = history.StatusCompleted
		metrics.TasksFinished.WithLabelValues(string(task.Kind), "completed").Inc()
		s.logger.Info("task completed",
			"task_id", id, "task", task.String(), "duration", duration.String())
		s.recordWatermark(ctx, task, finished)
	}

	s.hist.Add(rec)
	s.emitter.Emit(ctx, ev)
}

// recordWatermark persists the merge or replication time a successful
// task establishes. Failures only cost an earlier re-selection.
func (s *Scheduler) recordWatermark(ctx context.Context, task Task, at time.Time) {
	var err error
	switch task.Kind {
	case KindMerge:
		err = s.w.store.SetLastMerge(ctx, task.Volume, at)
	case KindReplicate:
		err = s.w.store.SetLastReplicated(ctx, task.Target, task.Volume, at)
	default:
		return
	}
	if err != nil {
		s.logger.Warn("failed to persist watermark", "task", task.String(), "error", err)
	}
}

// Running returns the running tasks, oldest first.
func (s *Scheduler) Running() []RunningTask {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RunningTask, 0, len(s.running))
	for _, rt := range s.running {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// RunningCount returns the number of running tasks.
func (s *Scheduler) RunningCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.running)
}

func taskEvent(id string, typ events.Type, task Task) events.TaskEvent {
	return events.TaskEvent{
		ID:     id,
		Type:   typ,
		Kind:   string(task.Kind),
		Volume: task.Volume,
		Target: task.Target,
		Gid:    task.Gid,
		GidB:   task.GidB,
		GidE:   task.GidE,
	}
}
