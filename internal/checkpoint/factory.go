package checkpoint

import (
	"fmt"
	"strings"

	"github.com/walfleet/walfleet/internal/config"
)

// NewStore creates a Store instance based on configuration
// Default is the in-memory store if type is not specified
func NewStore(cfg config.CheckpointConfig) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "memory":
		return NewMemoryStore(), nil

	case "etcd":
		return NewEtcdStore(cfg)

	default:
		return nil, fmt.Errorf("unsupported checkpoint store type: %s (supported: etcd, memory)", cfg.Type)
	}
}
