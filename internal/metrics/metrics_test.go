package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectors(t *testing.T) {
	before := testutil.ToFloat64(SchedulerCycles)
	SchedulerCycles.Inc()
	if got := testutil.ToFloat64(SchedulerCycles); got != before+1 {
		t.Errorf("expected cycle counter %v, got %v", before+1, got)
	}

	TasksStarted.WithLabelValues("apply").Inc()
	if got := testutil.ToFloat64(TasksStarted.WithLabelValues("apply")); got < 1 {
		t.Errorf("expected apply counter >= 1, got %v", got)
	}

	TaskSelections.WithLabelValues("merge", "none").Inc()
	if got := testutil.ToFloat64(TaskSelections.WithLabelValues("merge", "none")); got < 1 {
		t.Errorf("expected selection counter >= 1, got %v", got)
	}

	TasksInFlight.Set(3)
	if got := testutil.ToFloat64(TasksInFlight); got != 3 {
		t.Errorf("expected in-flight 3, got %v", got)
	}
	TasksInFlight.Set(0)

	RemoteCommands.WithLabelValues("a0", "status", "ok").Inc()
	if got := testutil.ToFloat64(RemoteCommands.WithLabelValues("a0", "status", "ok")); got < 1 {
		t.Errorf("expected command counter >= 1, got %v", got)
	}
}
