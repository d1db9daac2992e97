package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/walfleet/walfleet/internal/fleet"
	"github.com/walfleet/walfleet/internal/meta"
)

const workerConfigYAML = `
general:
  addr: 192.168.0.1
  port: 10000
  controller_path: bin/walfleet-admin
  max_concurrent_tasks: 10
apply:
  keep_period: 14d
merge:
  interval: 10
  max_nr: 10
  max_size: 1M
  threshold_nr: 5
repl_servers:
  repl0:
    addr: 192.168.0.2
    port: 10001
    interval: 3d
    compress: snappy:3:4
    max_merge_size: 5K
    bulk_size: 40
  repl1:
    addr: 192.168.0.3
    port: 10002
    interval: 2h
    compress: gzip
    max_merge_size: 2M
    bulk_size: 400
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, workerConfigYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.General.Addr != "192.168.0.1" {
		t.Errorf("expected addr 192.168.0.1, got %s", cfg.General.Addr)
	}
	if cfg.General.Port != 10000 {
		t.Errorf("expected port 10000, got %d", cfg.General.Port)
	}
	if cfg.General.ControllerPath != "bin/walfleet-admin" {
		t.Errorf("expected controller path bin/walfleet-admin, got %s", cfg.General.ControllerPath)
	}
	if cfg.General.MaxConcurrentTasks != 10 {
		t.Errorf("expected max_concurrent_tasks 10, got %d", cfg.General.MaxConcurrentTasks)
	}

	if cfg.Apply.KeepPeriod != 14*24*time.Hour {
		t.Errorf("expected keep_period 14d, got %v", cfg.Apply.KeepPeriod)
	}

	if cfg.Merge.Interval != 10*time.Second {
		t.Errorf("expected merge interval 10s, got %v", cfg.Merge.Interval)
	}
	if cfg.Merge.MaxNr != 10 {
		t.Errorf("expected merge max_nr 10, got %d", cfg.Merge.MaxNr)
	}
	if cfg.Merge.MaxSize != 1024*1024 {
		t.Errorf("expected merge max_size 1M, got %d", cfg.Merge.MaxSize)
	}
	if cfg.Merge.ThresholdNr != 5 {
		t.Errorf("expected merge threshold_nr 5, got %d", cfg.Merge.ThresholdNr)
	}

	if len(cfg.ReplServers) != 2 {
		t.Fatalf("expected 2 repl servers, got %d", len(cfg.ReplServers))
	}

	r := cfg.ReplServers["repl0"]
	if r.Addr != "192.168.0.2" {
		t.Errorf("expected repl0 addr 192.168.0.2, got %s", r.Addr)
	}
	if r.Port != 10001 {
		t.Errorf("expected repl0 port 10001, got %d", r.Port)
	}
	if r.Interval != 3*24*time.Hour {
		t.Errorf("expected repl0 interval 3d, got %v", r.Interval)
	}
	want := meta.CompressOpt{Algo: meta.CompressSnappy, Level: 3, NumCPU: 4}
	if r.Compress != want {
		t.Errorf("expected repl0 compress %v, got %v", want, r.Compress)
	}
	if r.MaxMergeSize != 5*1024 {
		t.Errorf("expected repl0 max_merge_size 5K, got %d", r.MaxMergeSize)
	}
	if r.BulkSize != 40 {
		t.Errorf("expected repl0 bulk_size 40, got %d", r.BulkSize)
	}

	r = cfg.ReplServers["repl1"]
	if r.Addr != "192.168.0.3" {
		t.Errorf("expected repl1 addr 192.168.0.3, got %s", r.Addr)
	}
	if r.Port != 10002 {
		t.Errorf("expected repl1 port 10002, got %d", r.Port)
	}
	if r.Interval != 2*time.Hour {
		t.Errorf("expected repl1 interval 2h, got %v", r.Interval)
	}
	want = meta.CompressOpt{Algo: meta.CompressGzip, Level: 0, NumCPU: 0}
	if r.Compress != want {
		t.Errorf("expected repl1 compress %v, got %v", want, r.Compress)
	}
	if r.MaxMergeSize != 2*1024*1024 {
		t.Errorf("expected repl1 max_merge_size 2M, got %d", r.MaxMergeSize)
	}
	if r.BulkSize != 400 {
		t.Errorf("expected repl1 bulk_size 400, got %d", r.BulkSize)
	}

	// Sections absent from the file keep their defaults.
	if cfg.General.CycleInterval != time.Second {
		t.Errorf("expected default cycle_interval 1s, got %v", cfg.General.CycleInterval)
	}
	if cfg.Checkpoint.Type != "memory" {
		t.Errorf("expected default checkpoint type memory, got %s", cfg.Checkpoint.Type)
	}
	if cfg.Events.Type != "memory" {
		t.Errorf("expected default events type memory, got %s", cfg.Events.Type)
	}
	if cfg.History.Size != 256 {
		t.Errorf("expected default history size 256, got %d", cfg.History.Size)
	}
}

func TestLoadConfigDefaultCompress(t *testing.T) {
	content := `
general:
  addr: 192.168.0.1
  port: 10000
  controller_path: bin/walfleet-admin
repl_servers:
  repl0:
    addr: 192.168.0.2
    port: 10001
    interval: 1h
    max_merge_size: 1M
    bulk_size: 64K
`
	cfg, err := Load(writeConfigFile(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	r := cfg.ReplServers["repl0"]
	if r.Compress.Algo != meta.CompressNone {
		t.Errorf("expected compress to default to none, got %v", r.Compress)
	}
	if r.BulkSize != 64*1024 {
		t.Errorf("expected bulk_size 64K, got %d", r.BulkSize)
	}
}

func TestLoadConfigBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "bad compress algorithm",
			content: `
general:
  addr: localhost
  port: 10000
  controller_path: bin/walfleet-admin
repl_servers:
  repl0:
    addr: localhost
    port: 10001
    interval: 1h
    compress: zstd:3
    max_merge_size: 1M
    bulk_size: 40
`,
		},
		{
			name: "bad size unit",
			content: `
general:
  addr: localhost
  port: 10000
  controller_path: bin/walfleet-admin
merge:
  max_size: 1X
`,
		},
		{
			name: "bad period",
			content: `
general:
  addr: localhost
  port: 10000
  controller_path: bin/walfleet-admin
apply:
  keep_period: 14y
`,
		},
		{
			name: "repl interval missing",
			content: `
general:
  addr: localhost
  port: 10000
  controller_path: bin/walfleet-admin
repl_servers:
  repl0:
    addr: localhost
    port: 10001
    max_merge_size: 1M
    bulk_size: 40
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfigFile(t, tt.content)); err == nil {
				t.Error("expected Load() to fail")
			}
		})
	}
}

func TestLoadFleetSection(t *testing.T) {
	content := `
general:
  addr: localhost
  port: 10000
  controller_path: bin/walfleet-admin
fleet:
  storage:
    - name: s0
      addr: 192.168.1.1
      port: 10100
      kind: storage
  proxy:
    - name: p0
      addr: 192.168.1.2
      port: 10200
      kind: proxy
  archive:
    - name: a0
      addr: 192.168.1.3
      port: 10300
      kind: archive
      vg: vg0
`
	cfg, err := Load(writeConfigFile(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	layout, err := cfg.Fleet.Layout()
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if layout.PrimaryArchive().Name != "a0" {
		t.Errorf("expected primary archive a0, got %s", layout.PrimaryArchive().Name)
	}
	if layout.Archive[0].VG != "vg0" {
		t.Errorf("expected vg0, got %s", layout.Archive[0].VG)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{
			name:    "default config should be valid",
			mutate:  func(cfg *Config) {},
			wantErr: false,
		},
		{
			name:    "missing addr",
			mutate:  func(cfg *Config) { cfg.General.Addr = "" },
			wantErr: true,
		},
		{
			name:    "invalid port",
			mutate:  func(cfg *Config) { cfg.General.Port = 0 },
			wantErr: true,
		},
		{
			name:    "missing controller path",
			mutate:  func(cfg *Config) { cfg.General.ControllerPath = "" },
			wantErr: true,
		},
		{
			name:    "zero max concurrent tasks",
			mutate:  func(cfg *Config) { cfg.General.MaxConcurrentTasks = 0 },
			wantErr: true,
		},
		{
			name:    "zero keep period",
			mutate:  func(cfg *Config) { cfg.Apply.KeepPeriod = 0 },
			wantErr: true,
		},
		{
			name:    "merge max_nr too small",
			mutate:  func(cfg *Config) { cfg.Merge.MaxNr = 1 },
			wantErr: true,
		},
		{
			name:    "negative merge max_size",
			mutate:  func(cfg *Config) { cfg.Merge.MaxSize = -1 },
			wantErr: true,
		},
		{
			name: "repl server without addr",
			mutate: func(cfg *Config) {
				cfg.ReplServers = map[string]ReplServerConfig{
					"repl0": {Port: 10001, Interval: time.Hour, MaxMergeSize: 1, BulkSize: 1,
						Compress: meta.CompressOpt{Algo: meta.CompressNone}},
				}
			},
			wantErr: true,
		},
		{
			name: "partial fleet section",
			mutate: func(cfg *Config) {
				cfg.Fleet.Storage = []fleet.Server{
					{Name: "s0", Addr: "192.168.1.1", Port: 10100, Kind: fleet.KindStorage},
				}
			},
			wantErr: true,
		},
		{
			name:    "invalid http port",
			mutate:  func(cfg *Config) { cfg.Server.HTTPPort = 0 },
			wantErr: true,
		},
		{
			name:    "unknown checkpoint type",
			mutate:  func(cfg *Config) { cfg.Checkpoint.Type = "zookeeper" },
			wantErr: true,
		},
		{
			name: "etcd checkpoint without endpoints",
			mutate: func(cfg *Config) {
				cfg.Checkpoint.Type = "etcd"
				cfg.Checkpoint.Endpoints = nil
			},
			wantErr: true,
		},
		{
			name:    "unknown events type",
			mutate:  func(cfg *Config) { cfg.Events.Type = "rabbitmq" },
			wantErr: true,
		},
		{
			name: "kafka events without brokers",
			mutate: func(cfg *Config) {
				cfg.Events.Type = "kafka"
				cfg.Events.KafkaBrokers = nil
			},
			wantErr: true,
		},
		{
			name:    "zero history size",
			mutate:  func(cfg *Config) { cfg.History.Size = 0 },
			wantErr: true,
		},
		{
			name: "auth enabled without keys",
			mutate: func(cfg *Config) {
				cfg.Auth.Enabled = true
				cfg.Auth.APIKeys = nil
			},
			wantErr: true,
		},
		{
			name:    "invalid logging level",
			mutate:  func(cfg *Config) { cfg.Logging.Level = "invalid" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.General.MaxConcurrentTasks != 10 {
		t.Errorf("expected max_concurrent_tasks 10, got %d", cfg.General.MaxConcurrentTasks)
	}

	if cfg.Apply.KeepPeriod != 14*24*time.Hour {
		t.Errorf("expected keep_period 14d, got %v", cfg.Apply.KeepPeriod)
	}

	if cfg.Merge.ThresholdNr != 5 {
		t.Errorf("expected threshold_nr 5, got %d", cfg.Merge.ThresholdNr)
	}

	if cfg.Server.HTTPPort != 5555 {
		t.Errorf("expected HTTPPort 5555, got %d", cfg.Server.HTTPPort)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.IsProduction() {
		t.Error("default config should be production mode")
	}

	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"

	if !cfg.IsDevelopment() {
		t.Error("config with debug/console should be development mode")
	}

	if cfg.HTTPAddr() != "0.0.0.0:5555" {
		t.Errorf("expected 0.0.0.0:5555, got %s", cfg.HTTPAddr())
	}

	a0 := cfg.ArchiveServer()
	if a0.Name != "a0" || a0.Kind != "archive" {
		t.Errorf("unexpected archive server handle: %+v", a0)
	}
	if a0.HostPort() != "localhost:10000" {
		t.Errorf("expected localhost:10000, got %s", a0.HostPort())
	}

	cfg.ReplServers = map[string]ReplServerConfig{
		"b": {Addr: "hostb", Port: 2},
		"a": {Addr: "hosta", Port: 1},
	}
	names := cfg.ReplTargetNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("expected sorted names [a b], got %v", names)
	}
	targets := cfg.ReplTargets()
	if targets["a"].HostPort() != "hosta:1" {
		t.Errorf("unexpected target a: %+v", targets["a"])
	}
	if targets["b"].Kind != "archive" {
		t.Errorf("expected archive kind, got %s", targets["b"].Kind)
	}
}
