package events

import (
	"context"
	"testing"

	"github.com/walfleet/walfleet/internal/config"
)

func TestNewQueue_DefaultsToMemory(t *testing.T) {
	q, err := NewQueue(config.EventsConfig{})
	if err != nil {
		t.Fatalf("Failed to create default queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	if _, ok := q.(*MemoryQueue); !ok {
		t.Errorf("expected *MemoryQueue, got %T", q)
	}
}

func TestNewQueue_MemoryQueue(t *testing.T) {
	q, err := NewQueue(config.EventsConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("Failed to create memory queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	if q == nil {
		t.Fatal("Memory queue should not be nil")
	}
}

func TestNewQueue_UnsupportedType(t *testing.T) {
	_, err := NewQueue(config.EventsConfig{Type: "rabbitmq"})
	if err == nil {
		t.Fatal("Expected error for unsupported backend")
	}
}

func TestNewPublisher(t *testing.T) {
	p, err := NewPublisher(config.EventsConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("Failed to create publisher: %v", err)
	}
	defer func() { _ = p.Close() }()

	ctx := context.Background()
	err = p.Publish(ctx, "walfleet.tasks.apply", []byte("data"))
	if err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}
}

func TestNewSubscriber(t *testing.T) {
	s, err := NewSubscriber(config.EventsConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("Failed to create subscriber: %v", err)
	}
	defer func() { _ = s.Close() }()

	err = s.Subscribe("walfleet.tasks.apply", func(data []byte) error {
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
}
