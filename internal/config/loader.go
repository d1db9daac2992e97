package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/walfleet/walfleet/internal/meta"
	"github.com/walfleet/walfleet/internal/utils"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("worker")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")             // Current directory
		v.AddConfigPath("./configs")     // Project configs directory
		v.AddConfigPath("/etc/walfleet") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides
	v.SetEnvPrefix("WALFLEET")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// General defaults
	v.SetDefault("general.addr", "localhost")
	v.SetDefault("general.port", 10000)
	v.SetDefault("general.controller_path", "walfleet-admin")
	v.SetDefault("general.max_concurrent_tasks", utils.DefaultMaxConcurrentTasks)
	v.SetDefault("general.cycle_interval", "1s")
	v.SetDefault("general.command_timeout", "30s")

	// Apply defaults
	v.SetDefault("apply.keep_period", "14d")

	// Merge defaults
	v.SetDefault("merge.interval", "10m")
	v.SetDefault("merge.max_nr", 10)
	v.SetDefault("merge.max_size", "1G")
	v.SetDefault("merge.threshold_nr", 5)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 5555)

	// Checkpoint defaults
	v.SetDefault("checkpoint.type", "memory")
	v.SetDefault("checkpoint.endpoints", []string{"http://localhost:2379"})
	v.SetDefault("checkpoint.dial_timeout", "5s")
	v.SetDefault("checkpoint.prefix", "/walfleet")

	// Events defaults
	v.SetDefault("events.type", "memory")
	v.SetDefault("events.url", "nats://localhost:4222")
	v.SetDefault("events.redis_stream", "walfleet")

	// History defaults
	v.SetDefault("history.size", utils.DefaultHistorySize)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "stdout")
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.normalize()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// normalize fills optional fields that have no viper default because they
// live under user-defined map keys.
func (c *Config) normalize() {
	for name, rs := range c.ReplServers {
		if rs.Compress.Algo == "" {
			rs.Compress.Algo = meta.CompressNone
		}
		c.ReplServers[name] = rs
	}
}

// decodeHooks builds the mapstructure hook chain for the config grammars:
// periods like "14d" (bare numbers are seconds), byte sizes like "5K",
// compression options like "snappy:3:4".
func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		periodHookFunc(),
		byteSizeHookFunc(),
		compressOptHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	int64Type    = reflect.TypeOf(int64(0))
	compressType = reflect.TypeOf(meta.CompressOpt{})
)

// periodHookFunc decodes duration fields. Strings are tried as a period
// first ("10m", "2h", "14d", bare seconds), then as a Go duration ("1.5s").
// Raw numbers are seconds.
func periodHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != durationType || f == durationType {
			return data, nil
		}
		switch f.Kind() {
		case reflect.String:
			s := data.(string)
			if d, err := meta.ParsePeriod(s); err == nil {
				return d, nil
			}
			return time.ParseDuration(s)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return time.Duration(reflect.ValueOf(data).Uint()) * time.Second, nil
		case reflect.Float32, reflect.Float64:
			return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
		default:
			return data, nil
		}
	}
}

// byteSizeHookFunc decodes int64 fields from size strings like "5K", "2M",
// "8G". Bare numbers pass through as plain integers.
func byteSizeHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != int64Type || f.Kind() != reflect.String {
			return data, nil
		}
		return meta.ParseByteSize(data.(string))
	}
}

// compressOptHookFunc decodes "<algo>[:<level>[:<numCPU>]]" strings.
func compressOptHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != compressType || f.Kind() != reflect.String {
			return data, nil
		}
		return meta.ParseCompressOpt(data.(string))
	}
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			Addr:               "localhost",
			Port:               10000,
			ControllerPath:     "walfleet-admin",
			MaxConcurrentTasks: utils.DefaultMaxConcurrentTasks,
			CycleInterval:      time.Second,
			CommandTimeout:     30 * time.Second,
		},
		Apply: ApplyConfig{
			KeepPeriod: 14 * 24 * time.Hour,
		},
		Merge: MergeConfig{
			Interval:    10 * time.Minute,
			MaxNr:       10,
			MaxSize:     1 << 30,
			ThresholdNr: 5,
		},
		ReplServers: map[string]ReplServerConfig{},
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 5555,
		},
		Checkpoint: CheckpointConfig{
			Type:        "memory",
			Endpoints:   []string{"http://localhost:2379"},
			DialTimeout: 5 * time.Second,
			Prefix:      "/walfleet",
		},
		Events: EventsConfig{
			Type:        "memory",
			URL:         "nats://localhost:4222",
			RedisStream: "walfleet",
		},
		History: HistoryConfig{
			Size: utils.DefaultHistorySize,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
