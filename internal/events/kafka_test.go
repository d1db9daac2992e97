package events

import "testing"

func TestNewKafkaQueue(t *testing.T) {
	q, err := NewKafkaQueue(KafkaConfig{
		Brokers: []string{"localhost:9092"},
		GroupID: "test-group",
	})
	if err != nil {
		t.Fatalf("Failed to create Kafka queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	if q.config.GroupID != "test-group" {
		t.Errorf("Expected test-group, got %s", q.config.GroupID)
	}
}

func TestNewKafkaQueue_NoBrokers(t *testing.T) {
	_, err := NewKafkaQueue(KafkaConfig{Brokers: nil})
	if err == nil {
		t.Fatal("Expected error when brokers not configured")
	}
}

func TestNewKafkaQueue_Defaults(t *testing.T) {
	q, err := NewKafkaQueue(KafkaConfig{
		Brokers: []string{"localhost:9092"},
	})
	if err != nil {
		t.Fatalf("Failed to create Kafka queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	if q.config.GroupID != "walfleet-group" {
		t.Errorf("Expected walfleet-group, got %s", q.config.GroupID)
	}
	if q.config.BatchSize != 100 {
		t.Errorf("Expected batch size 100, got %d", q.config.BatchSize)
	}
	if q.config.MaxRetries != 3 {
		t.Errorf("Expected 3 retries, got %d", q.config.MaxRetries)
	}
}
