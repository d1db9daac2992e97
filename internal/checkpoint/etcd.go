package checkpoint

import (
	"context"
	"fmt"
	"path"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/walfleet/walfleet/internal/config"
)

// defaultPrefix is the key namespace used when the config leaves it empty
const defaultPrefix = "/walfleet"

// EtcdStore implements Store on an etcd cluster so that watermarks
// survive worker restarts
type EtcdStore struct {
	client *clientv3.Client
	prefix string
}

// NewEtcdStore creates a new etcd-backed checkpoint store
func NewEtcdStore(cfg config.CheckpointConfig) (*EtcdStore, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &EtcdStore{
		client: client,
		prefix: prefix,
	}, nil
}

func (s *EtcdStore) mergeKey(vol string) string {
	return path.Join(s.prefix, "checkpoint", "merge", vol)
}

func (s *EtcdStore) replicateKey(target, vol string) string {
	return path.Join(s.prefix, "checkpoint", "repl", target, vol)
}

func (s *EtcdStore) getTime(ctx context.Context, key string) (time.Time, error) {
	resp, err := s.client.Get(ctx, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get %s from etcd: %w", key, err)
	}

	if len(resp.Kvs) == 0 {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339Nano, string(resp.Kvs[0].Value))
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp at %s: %w", key, err)
	}

	return t, nil
}

func (s *EtcdStore) putTime(ctx context.Context, key string, t time.Time) error {
	_, err := s.client.Put(ctx, key, t.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to store %s in etcd: %w", key, err)
	}
	return nil
}

// LastMerge returns the recorded merge time for a volume
func (s *EtcdStore) LastMerge(ctx context.Context, vol string) (time.Time, error) {
	return s.getTime(ctx, s.mergeKey(vol))
}

// SetLastMerge records the merge time for a volume
func (s *EtcdStore) SetLastMerge(ctx context.Context, vol string, t time.Time) error {
	return s.putTime(ctx, s.mergeKey(vol), t)
}

// LastReplicated returns the recorded replication time for a target/volume pair
func (s *EtcdStore) LastReplicated(ctx context.Context, target, vol string) (time.Time, error) {
	return s.getTime(ctx, s.replicateKey(target, vol))
}

// SetLastReplicated records the replication time for a target/volume pair
func (s *EtcdStore) SetLastReplicated(ctx context.Context, target, vol string, t time.Time) error {
	return s.putTime(ctx, s.replicateKey(target, vol), t)
}

// Close closes the etcd client
func (s *EtcdStore) Close() error {
	return s.client.Close()
}
