package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/walfleet/walfleet/internal/checkpoint"
	"github.com/walfleet/walfleet/internal/config"
	"github.com/walfleet/walfleet/internal/controller"
	"github.com/walfleet/walfleet/internal/events"
	"github.com/walfleet/walfleet/internal/fleet"
	"github.com/walfleet/walfleet/internal/history"
	"github.com/walfleet/walfleet/internal/logging"
	"github.com/walfleet/walfleet/internal/meta"
	"github.com/walfleet/walfleet/internal/worker"
)

// stubController serves the read-only volume calls the status API makes.
// The dispatch methods are never reached by handler tests.
type stubController struct {
	volList  func(s fleet.Server) ([]string, error)
	getState func(s fleet.Server, vol string) (string, error)
}

func (m *stubController) VolList(ctx context.Context, s fleet.Server) ([]string, error) {
	if m.volList == nil {
		return nil, nil
	}
	return m.volList(s)
}

func (m *stubController) GetState(ctx context.Context, s fleet.Server, vol string) (string, error) {
	if m.getState == nil {
		return "Archived", nil
	}
	return m.getState(s, vol)
}

func (m *stubController) GetBase(ctx context.Context, ax fleet.Server, vol string) (meta.MetaState, error) {
	return meta.MetaState{}, nil
}

func (m *stubController) Restorable(ctx context.Context, ax fleet.Server, vol string) ([]meta.GidInfo, error) {
	return nil, nil
}

func (m *stubController) TotalDiffSize(ctx context.Context, ax fleet.Server, vol string, gid0, gid1 uint64) (int64, error) {
	return 0, nil
}

func (m *stubController) NumDiff(ctx context.Context, ax fleet.Server, vol string, gid0, gid1 uint64) (int, error) {
	return 0, nil
}

func (m *stubController) ApplicableDiffList(ctx context.Context, ax fleet.Server, vol string, gid uint64) ([]meta.Diff, error) {
	return nil, nil
}

func (m *stubController) ApplyDiff(ctx context.Context, ax fleet.Server, vol string, gid uint64) error {
	return nil
}

func (m *stubController) MergeDiff(ctx context.Context, ax fleet.Server, vol string, gidB, gidE uint64) error {
	return nil
}

func (m *stubController) ReplicateOnce(ctx context.Context, aSrc fleet.Server, vol string, aDst fleet.Server, opt *controller.SyncOpt) (uint64, error) {
	return 0, nil
}

func newTestHandler(t *testing.T, st *stubController) (*Handler, *history.Ring) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.General.Addr = "192.168.0.1"
	cfg.General.Port = 10000
	cfg.ReplServers = map[string]config.ReplServerConfig{
		"repl0": {Addr: "192.168.0.2", Port: 10001, Interval: 3 * 24 * time.Hour},
	}
	w := worker.New(cfg, st, checkpoint.NewMemoryStore())
	q, err := events.NewQueue(config.EventsConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("Failed to create events queue: %v", err)
	}
	hist := history.NewRing(8)
	sched := worker.NewScheduler(w, events.NewEmitter(q), hist)
	return New(logging.NewDevelopment(), cfg, w, sched, hist), hist
}
