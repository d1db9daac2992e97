package fleet

import (
	"fmt"
)

// Kind distinguishes the three server tiers.
type Kind string

const (
	KindStorage Kind = "storage"
	KindProxy   Kind = "proxy"
	KindArchive Kind = "archive"
)

// Valid reports whether k names a known tier.
func (k Kind) Valid() bool {
	switch k {
	case KindStorage, KindProxy, KindArchive:
		return true
	}
	return false
}

// Server identifies one member of the fleet. VG is the LVM volume group
// backing an archive server and is required for that kind only.
type Server struct {
	Name    string `mapstructure:"name" json:"name"`
	Addr    string `mapstructure:"addr" json:"addr"`
	Port    int    `mapstructure:"port" json:"port"`
	Kind    Kind   `mapstructure:"kind" json:"kind"`
	BinDir  string `mapstructure:"bin_dir" json:"bin_dir,omitempty"`
	DataDir string `mapstructure:"data_dir" json:"data_dir,omitempty"`
	LogPath string `mapstructure:"log_path" json:"log_path,omitempty"`
	VG      string `mapstructure:"vg" json:"vg,omitempty"`
}

// HostPort renders "addr:port" for the admin protocol.
func (s Server) HostPort() string {
	return fmt.Sprintf("%s:%d", s.Addr, s.Port)
}

func (s Server) String() string {
	return fmt.Sprintf("%s(%s %s)", s.Name, s.Kind, s.HostPort())
}

// Validate checks the fields a single server must carry.
func (s Server) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("server name is required")
	}
	if s.Addr == "" {
		return fmt.Errorf("server %s: addr is required", s.Name)
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("server %s: invalid port %d", s.Name, s.Port)
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("server %s: unknown kind %q", s.Name, s.Kind)
	}
	if s.Kind == KindArchive && s.VG == "" {
		return fmt.Errorf("archive server %s: vg is required", s.Name)
	}
	return nil
}

// Layout is an immutable snapshot of the fleet topology. The first archive
// server is the primary. Topology changes construct a new Layout via Replace,
// never mutate one in use.
type Layout struct {
	Storage []Server
	Proxy   []Server
	Archive []Server
}

// NewLayout builds and validates a layout.
func NewLayout(storage, proxy, archive []Server) (Layout, error) {
	l := Layout{
		Storage: append([]Server(nil), storage...),
		Proxy:   append([]Server(nil), proxy...),
		Archive: append([]Server(nil), archive...),
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Validate checks the layout invariants: all three lists non-empty, every
// server well formed with the expected kind, names unique across the fleet.
func (l Layout) Validate() error {
	if len(l.Storage) == 0 {
		return fmt.Errorf("layout needs at least one storage server")
	}
	if len(l.Proxy) == 0 {
		return fmt.Errorf("layout needs at least one proxy server")
	}
	if len(l.Archive) == 0 {
		return fmt.Errorf("layout needs at least one archive server")
	}

	seen := make(map[string]bool)
	check := func(servers []Server, kind Kind) error {
		for _, s := range servers {
			if err := s.Validate(); err != nil {
				return err
			}
			if s.Kind != kind {
				return fmt.Errorf("server %s: kind %q listed under %q", s.Name, s.Kind, kind)
			}
			if seen[s.Name] {
				return fmt.Errorf("duplicate server name %q", s.Name)
			}
			seen[s.Name] = true
		}
		return nil
	}
	if err := check(l.Storage, KindStorage); err != nil {
		return err
	}
	if err := check(l.Proxy, KindProxy); err != nil {
		return err
	}
	return check(l.Archive, KindArchive)
}

// PrimaryArchive returns the designated primary archive server.
func (l Layout) PrimaryArchive() Server {
	return l.Archive[0]
}

// All returns every server, storage first, then proxy, then archive.
func (l Layout) All() []Server {
	all := make([]Server, 0, len(l.Storage)+len(l.Proxy)+len(l.Archive))
	all = append(all, l.Storage...)
	all = append(all, l.Proxy...)
	all = append(all, l.Archive...)
	return all
}

// Replace returns a copy of the layout with any non-nil list substituted.
func (l Layout) Replace(storage, proxy, archive []Server) Layout {
	next := Layout{
		Storage: l.Storage,
		Proxy:   l.Proxy,
		Archive: l.Archive,
	}
	if storage != nil {
		next.Storage = append([]Server(nil), storage...)
	}
	if proxy != nil {
		next.Proxy = append([]Server(nil), proxy...)
	}
	if archive != nil {
		next.Archive = append([]Server(nil), archive...)
	}
	return next
}

// FindServer looks a server up by name across all tiers.
func (l Layout) FindServer(name string) (Server, error) {
	for _, s := range l.All() {
		if s.Name == name {
			return s, nil
		}
	}
	return Server{}, fmt.Errorf("server %q not in layout", name)
}

// OtherArchives returns the archive servers except the named one.
func (l Layout) OtherArchives(name string) []Server {
	var others []Server
	for _, s := range l.Archive {
		if s.Name != name {
			others = append(others, s)
		}
	}
	return others
}
