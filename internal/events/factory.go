package events

import (
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/walfleet/walfleet/internal/config"
	"github.com/walfleet/walfleet/internal/utils"
)

// NewQueue creates a Queue instance based on configuration.
// Default is the in-memory backend if type is not specified.
func NewQueue(cfg config.EventsConfig) (Queue, error) {
	queueType := utils.QueueType(strings.ToLower(cfg.Type))

	if queueType == "" {
		queueType = utils.QueueTypeMemory
	}

	switch queueType {
	case utils.QueueTypeNATS:
		var opts []nats.Option
		if cfg.Username != "" {
			opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
		}
		return newNATSQueue(cfg.URL, opts...)

	case utils.QueueTypeRedis:
		return newRedisQueue(RedisConfig{
			URL:      cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
		})

	case utils.QueueTypeKafka:
		return newKafkaQueue(KafkaConfig{
			Brokers: cfg.KafkaBrokers,
		})

	case utils.QueueTypeMemory:
		return newMemoryQueue(), nil

	default:
		return nil, fmt.Errorf("unsupported events backend: %s (supported: nats, redis, kafka, memory)", queueType)
	}
}

// NewPublisher creates a Publisher instance based on configuration.
// This is a convenience function when only publishing is needed.
func NewPublisher(cfg config.EventsConfig) (Publisher, error) {
	return NewQueue(cfg)
}

// NewSubscriber creates a Subscriber instance based on configuration.
// This is a convenience function when only subscribing is needed.
func NewSubscriber(cfg config.EventsConfig) (Subscriber, error) {
	return NewQueue(cfg)
}
