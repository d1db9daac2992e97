// Package history keeps a bounded in-memory record of finished tasks
// for the status API. Detail payloads are held snappy-compressed and
// inflated on read.
package history

import (
	"sync"
	"time"

	"github.com/golang/snappy"
)

// Task outcome statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Record is one finished task.
type Record struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Volume     string    `json:"volume"`
	Target     string    `json:"target,omitempty"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Duration   float64   `json:"duration_seconds"`
	Error      string    `json:"error,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

type entry struct {
	record Record // Detail cleared, held compressed alongside
	detail []byte
}

// Ring is a fixed-capacity task history. Once full, each new record
// evicts the oldest.
type Ring struct {
	mu      sync.RWMutex
	entries []entry
	next    int
	full    bool
}

// NewRing creates a history ring holding up to size records.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = 1
	}
	return &Ring{
		entries: make([]entry, size),
	}
}

// Add records a finished task.
func (r *Ring) Add(rec Record) {
	var detail []byte
	if rec.Detail != "" {
		detail = snappy.Encode(nil, []byte(rec.Detail))
		rec.Detail = ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.next] = entry{record: rec, detail: detail}
	r.next++
	if r.next == len(r.entries) {
		r.next = 0
		r.full = true
	}
}

// List returns all records, newest first.
func (r *Ring) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.next
	if r.full {
		n = len(r.entries)
	}

	out := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		// Walk backwards from the most recent slot.
		idx := r.next - 1 - i
		if idx < 0 {
			idx += len(r.entries)
		}
		e := r.entries[idx]
		rec := e.record
		if len(e.detail) > 0 {
			if plain, err := snappy.Decode(nil, e.detail); err == nil {
				rec.Detail = string(plain)
			}
		}
		out = append(out, rec)
	}
	return out
}

// Len returns the number of records held.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.full {
		return len(r.entries)
	}
	return r.next
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
