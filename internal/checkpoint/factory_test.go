package checkpoint

import (
	"testing"

	"github.com/walfleet/walfleet/internal/config"
)

// TestNewStoreMemory checks the memory store is built for the memory type
// and for an empty type.
func TestNewStoreMemory(t *testing.T) {
	for _, typ := range []string{"memory", "", "MEMORY"} {
		s, err := NewStore(config.CheckpointConfig{Type: typ})
		if err != nil {
			t.Fatalf("NewStore(%q) failed: %v", typ, err)
		}
		if _, ok := s.(*MemoryStore); !ok {
			t.Errorf("NewStore(%q): expected *MemoryStore, got %T", typ, s)
		}
	}
}

// TestNewStoreUnsupported checks unknown types are rejected.
func TestNewStoreUnsupported(t *testing.T) {
	_, err := NewStore(config.CheckpointConfig{Type: "zookeeper"})
	if err == nil {
		t.Fatal("expected error for unsupported store type")
	}
}
