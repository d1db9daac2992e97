package config

import (
	"net"
	"sort"
	"strconv"

	"github.com/walfleet/walfleet/internal/fleet"
)

// HTTPAddr returns the status server listen address.
func (c *Config) HTTPAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// ArchiveServer returns a handle for the archive server the worker
// maintains. The fleet section, when present, may carry the same server
// with richer fields; the general section is authoritative for the worker.
func (c *Config) ArchiveServer() fleet.Server {
	return fleet.Server{
		Name: "a0",
		Addr: c.General.Addr,
		Port: c.General.Port,
		Kind: fleet.KindArchive,
	}
}

// ReplTargets returns handles for the configured replication targets,
// keyed by their config names.
func (c *Config) ReplTargets() map[string]fleet.Server {
	targets := make(map[string]fleet.Server, len(c.ReplServers))
	for name, rs := range c.ReplServers {
		targets[name] = fleet.Server{
			Name: name,
			Addr: rs.Addr,
			Port: rs.Port,
			Kind: fleet.KindArchive,
		}
	}
	return targets
}

// ReplTargetNames returns the replication target names in sorted order so
// scheduling walks them deterministically.
func (c *Config) ReplTargetNames() []string {
	names := make([]string, 0, len(c.ReplServers))
	for name := range c.ReplServers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Logging.Level == "info" && c.Logging.Format == "json"
}
