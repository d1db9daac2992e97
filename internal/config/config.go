package config

import (
	"fmt"
	"time"

	"github.com/walfleet/walfleet/internal/fleet"
	"github.com/walfleet/walfleet/internal/meta"
)

// Config represents the complete worker configuration
type Config struct {
	General     GeneralConfig               `mapstructure:"general"`
	Apply       ApplyConfig                 `mapstructure:"apply"`
	Merge       MergeConfig                 `mapstructure:"merge"`
	ReplServers map[string]ReplServerConfig `mapstructure:"repl_servers"`
	Fleet       FleetConfig                 `mapstructure:"fleet"`
	Server      ServerConfig                `mapstructure:"server"`
	Checkpoint  CheckpointConfig            `mapstructure:"checkpoint"`
	Events      EventsConfig                `mapstructure:"events"`
	History     HistoryConfig               `mapstructure:"history"`
	Auth        AuthConfig                  `mapstructure:"auth"`
	Logging     LoggingConfig               `mapstructure:"logging"`
}

// GeneralConfig locates the archive server the worker maintains and
// bounds the scheduler.
type GeneralConfig struct {
	Addr               string        `mapstructure:"addr"`                 // Address of the managed archive server
	Port               int           `mapstructure:"port"`                 // Admin port of the managed archive server
	ControllerPath     string        `mapstructure:"controller_path"`      // Path to the admin client binary
	MaxConcurrentTasks int           `mapstructure:"max_concurrent_tasks"` // Upper bound on tasks running at once
	CycleInterval      time.Duration `mapstructure:"cycle_interval"`       // Pause between scheduler cycles
	CommandTimeout     time.Duration `mapstructure:"command_timeout"`      // Per-invocation admin command timeout
}

// ApplyConfig controls when old diffs are folded into the base image.
type ApplyConfig struct {
	KeepPeriod time.Duration `mapstructure:"keep_period"` // Restore window to preserve behind the latest snapshot
}

// MergeConfig controls background diff merging.
type MergeConfig struct {
	Interval    time.Duration `mapstructure:"interval"`     // Minimum spacing between merges of one volume
	MaxNr       int           `mapstructure:"max_nr"`       // Max diffs folded by a single merge
	MaxSize     int64         `mapstructure:"max_size"`     // Max total bytes folded by a single merge
	ThresholdNr int           `mapstructure:"threshold_nr"` // Diff count that makes a volume a merge candidate
}

// ReplServerConfig describes one replication target archive.
type ReplServerConfig struct {
	Addr         string           `mapstructure:"addr"`           // Target archive address
	Port         int              `mapstructure:"port"`           // Target archive admin port
	Interval     time.Duration    `mapstructure:"interval"`       // Desired replication freshness
	Compress     meta.CompressOpt `mapstructure:"compress"`       // Wire compression, e.g. "snappy:3:4"; empty means none
	MaxMergeSize int64            `mapstructure:"max_merge_size"` // Max merged diff size sent in one transfer
	BulkSize     int64            `mapstructure:"bulk_size"`      // Transfer chunk size
}

// FleetConfig lists the full server layout. The worker leaves it empty;
// the admin CLI needs all three tiers to drive fleet-wide workflows.
type FleetConfig struct {
	Storage []fleet.Server `mapstructure:"storage"`
	Proxy   []fleet.Server `mapstructure:"proxy"`
	Archive []fleet.Server `mapstructure:"archive"`
}

// ServerConfig represents the status HTTP server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
}

// CheckpointConfig represents the checkpoint store configuration
type CheckpointConfig struct {
	Type        string        `mapstructure:"type"` // etcd or memory
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	Prefix      string        `mapstructure:"prefix"` // Key namespace, e.g. /walfleet
}

// EventsConfig represents the task event publisher configuration
type EventsConfig struct {
	Type     string `mapstructure:"type"`     // Publisher type: memory (default), nats, redis, kafka
	URL      string `mapstructure:"url"`      // Server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	// Redis-specific options
	RedisDB     int    `mapstructure:"redis_db"`     // Redis database number (default: 0)
	RedisStream string `mapstructure:"redis_stream"` // Redis stream prefix (default: "walfleet")

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"` // Kafka broker addresses
}

// HistoryConfig represents the in-memory task history configuration
type HistoryConfig struct {
	Size int `mapstructure:"size"` // Ring buffer capacity
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.General.Validate(); err != nil {
		return fmt.Errorf("general config: %w", err)
	}

	if err := c.Apply.Validate(); err != nil {
		return fmt.Errorf("apply config: %w", err)
	}

	if err := c.Merge.Validate(); err != nil {
		return fmt.Errorf("merge config: %w", err)
	}

	for name, rs := range c.ReplServers {
		if err := rs.Validate(); err != nil {
			return fmt.Errorf("repl server %q: %w", name, err)
		}
	}

	if !c.Fleet.Empty() {
		if _, err := c.Fleet.Layout(); err != nil {
			return fmt.Errorf("fleet config: %w", err)
		}
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Checkpoint.Validate(); err != nil {
		return fmt.Errorf("checkpoint config: %w", err)
	}

	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events config: %w", err)
	}

	if err := c.History.Validate(); err != nil {
		return fmt.Errorf("history config: %w", err)
	}

	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates general configuration
func (c *GeneralConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if c.ControllerPath == "" {
		return fmt.Errorf("controller_path is required")
	}

	if c.MaxConcurrentTasks < 1 {
		return fmt.Errorf("max_concurrent_tasks must be at least 1")
	}

	if c.CycleInterval <= 0 {
		return fmt.Errorf("cycle_interval must be positive")
	}

	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command_timeout must be positive")
	}

	return nil
}

// Validate validates apply configuration
func (c *ApplyConfig) Validate() error {
	if c.KeepPeriod <= 0 {
		return fmt.Errorf("keep_period must be positive")
	}

	return nil
}

// Validate validates merge configuration
func (c *MergeConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	if c.MaxNr < 2 {
		return fmt.Errorf("max_nr must be at least 2")
	}

	if c.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive")
	}

	if c.ThresholdNr < 1 {
		return fmt.Errorf("threshold_nr must be at least 1")
	}

	return nil
}

// Validate validates one replication target
func (c *ReplServerConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	switch c.Compress.Algo {
	case meta.CompressNone, meta.CompressSnappy, meta.CompressGzip, meta.CompressLzma:
	default:
		return fmt.Errorf("unknown compress algorithm: %q", c.Compress.Algo)
	}

	if c.MaxMergeSize <= 0 {
		return fmt.Errorf("max_merge_size must be positive")
	}

	if c.BulkSize <= 0 {
		return fmt.Errorf("bulk_size must be positive")
	}

	return nil
}

// Empty reports whether no fleet layout was configured.
func (c *FleetConfig) Empty() bool {
	return len(c.Storage) == 0 && len(c.Proxy) == 0 && len(c.Archive) == 0
}

// Layout builds a validated fleet layout from the configured server lists.
func (c *FleetConfig) Layout() (fleet.Layout, error) {
	return fleet.NewLayout(c.Storage, c.Proxy, c.Archive)
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	return nil
}

// Validate validates checkpoint configuration
func (c *CheckpointConfig) Validate() error {
	switch c.Type {
	case "memory":
	case "etcd":
		if len(c.Endpoints) == 0 {
			return fmt.Errorf("etcd endpoints are required")
		}
		if c.DialTimeout <= 0 {
			return fmt.Errorf("dial_timeout must be positive")
		}
	default:
		return fmt.Errorf("type must be 'etcd' or 'memory'")
	}

	return nil
}

// Validate validates events configuration
func (c *EventsConfig) Validate() error {
	switch c.Type {
	case "memory":
	case "nats", "redis":
		if c.URL == "" {
			return fmt.Errorf("url is required for %s", c.Type)
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("kafka_brokers are required for kafka")
		}
	default:
		return fmt.Errorf("type must be one of: memory, nats, redis, kafka")
	}

	return nil
}

// Validate validates history configuration
func (c *HistoryConfig) Validate() error {
	if c.Size < 1 {
		return fmt.Errorf("size must be at least 1")
	}

	return nil
}

// Validate validates auth configuration
func (c *AuthConfig) Validate() error {
	if c.Enabled && len(c.APIKeys) == 0 {
		return fmt.Errorf("api_keys are required when auth is enabled")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
