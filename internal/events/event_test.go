package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// TestTaskEventSubject checks events route to per-kind subjects.
func TestTaskEventSubject(t *testing.T) {
	tbl := []struct {
		kind string
		want string
	}{
		{"apply", "walfleet.tasks.apply"},
		{"merge", "walfleet.tasks.merge"},
		{"replicate", "walfleet.tasks.replicate"},
	}
	for _, tc := range tbl {
		ev := TaskEvent{Kind: tc.kind}
		if got := ev.Subject(); got != tc.want {
			t.Errorf("expected subject %s, got %s", tc.want, got)
		}
	}
}

// TestEmitterRoundTrip checks an emitted event arrives at a subscriber
// intact.
func TestEmitterRoundTrip(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	var (
		mu       sync.Mutex
		received []TaskEvent
	)
	done := make(chan struct{})
	err := q.Subscribe("walfleet.tasks.merge", func(data []byte) error {
		var ev TaskEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Errorf("unmarshal event: %v", err)
			return nil
		}
		mu.Lock()
		received = append(received, ev)
		mu.Unlock()
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	e := NewEmitter(q)
	e.Emit(context.Background(), TaskEvent{
		ID:     "b2c5e1de-0000-0000-0000-000000000000",
		Type:   TypeCompleted,
		Kind:   "merge",
		Volume: "vol0",
		GidB:   5,
		GidE:   7,
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(received))
	}
	ev := received[0]
	if ev.Type != TypeCompleted || ev.Volume != "vol0" || ev.GidB != 5 || ev.GidE != 7 {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.Time.IsZero() {
		t.Error("expected the emitter to stamp a zero time")
	}
}

// failingPublisher rejects every publish.
type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	return errors.New("broker down")
}

func (failingPublisher) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	return 0, errors.New("broker down")
}

func (failingPublisher) Close() error { return nil }

// TestEmitterPublishFailure checks delivery failures are swallowed.
func TestEmitterPublishFailure(t *testing.T) {
	e := NewEmitter(failingPublisher{})
	// Must not panic or block.
	e.Emit(context.Background(), TaskEvent{
		Type:   TypeFailed,
		Kind:   "apply",
		Volume: "vol0",
		Gid:    3,
		Error:  "archive unreachable",
	})
}

// TestTaskEventJSON checks optional fields stay out of the payload.
func TestTaskEventJSON(t *testing.T) {
	ev := TaskEvent{
		ID:     "id-1",
		Type:   TypeStarted,
		Kind:   "apply",
		Volume: "vol0",
		Gid:    3,
		Time:   time.Date(2015, 11, 16, 7, 32, 0, 0, time.UTC),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, absent := range []string{"target", "gid_b", "gid_e", "duration_seconds", "error"} {
		if _, ok := m[absent]; ok {
			t.Errorf("expected %s to be omitted, payload %s", absent, data)
		}
	}
	if m["type"] != "task.started" {
		t.Errorf("expected type task.started, got %v", m["type"])
	}
}
