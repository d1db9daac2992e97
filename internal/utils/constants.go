package utils

import "time"

// =============================================================================
// State Polling Constants
// =============================================================================

const (
	// StatePollInterval is the interval between remote state polls while a
	// command is in flight
	StatePollInterval = 300 * time.Millisecond

	// DefaultWaitTimeout is the timeout for generic state transitions
	DefaultWaitTimeout = 10 * time.Second

	// LongWaitTimeout is the timeout for long-running operations
	// (backup, apply, merge, replicate, restore, resize)
	LongWaitTimeout = 100 * time.Second
)

// =============================================================================
// Retry and Backoff Constants
// =============================================================================

const (
	// DelRestoredRetries is the number of attempts for deleting a restored
	// volume, which may race with descendant readers
	DelRestoredRetries = 3

	// DelRestoredBackoff is the delay between del-restored attempts
	DelRestoredBackoff = 1 * time.Second

	// ShutdownSettleDelay gives an asynchronous shutdown command time to
	// take effect before the caller proceeds
	ShutdownSettleDelay = 1 * time.Second
)

// =============================================================================
// Scheduler Constants
// =============================================================================

const (
	// DefaultCycleInterval is the default delay between scheduler cycles
	DefaultCycleInterval = 1 * time.Second

	// DefaultMaxConcurrentTasks caps in-flight tasks when the config leaves
	// max_concurrent_tasks unset
	DefaultMaxConcurrentTasks = 10

	// DefaultHistorySize is the number of finished tasks kept in the
	// in-memory history ring
	DefaultHistorySize = 256
)

// =============================================================================
// External Connection Constants
// =============================================================================

const (
	// EtcdDialTimeout is the timeout for establishing etcd connections
	EtcdDialTimeout = 5 * time.Second

	// CommandTimeout bounds a single remote admin command invocation
	CommandTimeout = 30 * time.Second

	// HTTPReadTimeout is the read timeout of the status HTTP server
	HTTPReadTimeout = 10 * time.Second
)

// =============================================================================
// Queue Type Constants
// =============================================================================
// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents NATS JetStream queue (default)
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)
