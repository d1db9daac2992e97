package checkpoint

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with process-local maps
// Watermarks are lost on restart; useful for testing and development
// without external dependencies
type MemoryStore struct {
	mu    sync.RWMutex
	merge map[string]time.Time
	repl  map[string]time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		merge: make(map[string]time.Time),
		repl:  make(map[string]time.Time),
	}
}

func replKey(target, vol string) string {
	return target + "/" + vol
}

// LastMerge returns the recorded merge time for a volume
func (s *MemoryStore) LastMerge(ctx context.Context, vol string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.merge[vol], nil
}

// SetLastMerge records the merge time for a volume
func (s *MemoryStore) SetLastMerge(ctx context.Context, vol string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merge[vol] = t
	return nil
}

// LastReplicated returns the recorded replication time for a target/volume pair
func (s *MemoryStore) LastReplicated(ctx context.Context, target, vol string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repl[replKey(target, vol)], nil
}

// SetLastReplicated records the replication time for a target/volume pair
func (s *MemoryStore) SetLastReplicated(ctx context.Context, target, vol string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repl[replKey(target, vol)] = t
	return nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}
