package events

import "time"

// Type classifies a task lifecycle event.
type Type string

const (
	TypeStarted   Type = "task.started"
	TypeCompleted Type = "task.completed"
	TypeFailed    Type = "task.failed"
)

// SubjectPrefix roots every subject the worker publishes to. Events are
// published per task kind, e.g. walfleet.tasks.apply.
const SubjectPrefix = "walfleet.tasks"

// TaskEvent is the JSON payload published on every task state change.
// Gid fields carry the task arguments: Gid for apply, GidB/GidE for
// merge, Target for replicate.
type TaskEvent struct {
	ID       string    `json:"id"`
	Type     Type      `json:"type"`
	Kind     string    `json:"kind"`
	Volume   string    `json:"volume"`
	Target   string    `json:"target,omitempty"`
	Gid      uint64    `json:"gid,omitempty"`
	GidB     uint64    `json:"gid_b,omitempty"`
	GidE     uint64    `json:"gid_e,omitempty"`
	Time     time.Time `json:"time"`
	Duration float64   `json:"duration_seconds,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Subject returns the per-kind subject this event is published on.
func (e TaskEvent) Subject() string {
	return SubjectPrefix + "." + e.Kind
}
