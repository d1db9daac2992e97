package fleet

import "testing"

func testLayout(t *testing.T) Layout {
	t.Helper()
	l, err := NewLayout(
		[]Server{
			{Name: "s0", Addr: "10.0.0.1", Port: 10000, Kind: KindStorage},
			{Name: "s1", Addr: "10.0.0.2", Port: 10000, Kind: KindStorage},
		},
		[]Server{
			{Name: "p0", Addr: "10.0.1.1", Port: 10100, Kind: KindProxy},
		},
		[]Server{
			{Name: "a0", Addr: "10.0.2.1", Port: 10200, Kind: KindArchive, VG: "vg0"},
			{Name: "a1", Addr: "10.0.2.2", Port: 10200, Kind: KindArchive, VG: "vg1"},
		},
	)
	if err != nil {
		t.Fatalf("NewLayout failed: %v", err)
	}
	return l
}

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Layout)
		wantErr bool
	}{
		{"valid", func(l *Layout) {}, false},
		{"no storage", func(l *Layout) { l.Storage = nil }, true},
		{"no proxy", func(l *Layout) { l.Proxy = nil }, true},
		{"no archive", func(l *Layout) { l.Archive = nil }, true},
		{"archive without vg", func(l *Layout) { l.Archive[0].VG = "" }, true},
		{"duplicate name", func(l *Layout) { l.Storage[1].Name = "s0" }, true},
		{"wrong kind placement", func(l *Layout) { l.Proxy[0].Kind = KindStorage }, true},
		{"bad port", func(l *Layout) { l.Storage[0].Port = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := testLayout(t)
			tt.mutate(&l)
			err := l.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLayoutPrimaryArchive(t *testing.T) {
	l := testLayout(t)
	if got := l.PrimaryArchive().Name; got != "a0" {
		t.Errorf("PrimaryArchive() = %s, want a0", got)
	}
}

func TestLayoutReplaceIsCopy(t *testing.T) {
	l := testLayout(t)
	next := l.Replace(nil, []Server{
		{Name: "p1", Addr: "10.0.1.2", Port: 10100, Kind: KindProxy},
	}, nil)

	if len(l.Proxy) != 1 || l.Proxy[0].Name != "p0" {
		t.Error("Replace must not mutate the original layout")
	}
	if len(next.Proxy) != 1 || next.Proxy[0].Name != "p1" {
		t.Errorf("replaced proxy list = %v", next.Proxy)
	}
	if len(next.Storage) != 2 || len(next.Archive) != 2 {
		t.Error("nil lists must carry over unchanged")
	}
}

func TestLayoutFindServer(t *testing.T) {
	l := testLayout(t)
	s, err := l.FindServer("a1")
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind != KindArchive || s.VG != "vg1" {
		t.Errorf("unexpected server: %v", s)
	}
	if _, err := l.FindServer("nope"); err == nil {
		t.Error("unknown name should fail")
	}
}

func TestLayoutOtherArchives(t *testing.T) {
	l := testLayout(t)
	others := l.OtherArchives("a0")
	if len(others) != 1 || others[0].Name != "a1" {
		t.Errorf("OtherArchives = %v", others)
	}
}

func TestServerHostPort(t *testing.T) {
	s := Server{Name: "a0", Addr: "192.168.0.2", Port: 10001, Kind: KindArchive, VG: "vg"}
	if got := s.HostPort(); got != "192.168.0.2:10001" {
		t.Errorf("HostPort() = %q", got)
	}
}
