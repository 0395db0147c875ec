package casconfig_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"xdao.co/canonval/storage/casconfig"
	"xdao.co/canonval/storage/casregistry"

	_ "xdao.co/canonval/storage/memcas"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cas.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
write_policy = "all"

[[backends]]
name = "mem"
id = "primary"

[[backends]]
name = "mem"
id = "replica"
`)
	cfg, err := casconfig.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.WritePolicy != "all" {
		t.Fatalf("write_policy = %q", cfg.WritePolicy)
	}
	if len(cfg.Backends) != 2 || cfg.Backends[0].ID != "primary" || cfg.Backends[1].ID != "replica" {
		t.Fatalf("backends = %+v", cfg.Backends)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  casconfig.Config
		ok   bool
	}{
		{"no backends", casconfig.Config{}, false},
		{"missing name", casconfig.Config{Backends: []casconfig.BackendConfig{{}}}, false},
		{"duplicate id", casconfig.Config{Backends: []casconfig.BackendConfig{
			{Name: "mem"}, {Name: "mem"},
		}}, false},
		{"distinct ids", casconfig.Config{Backends: []casconfig.BackendConfig{
			{Name: "mem", ID: "a"}, {Name: "mem", ID: "b"},
		}}, true},
		{"bad policy", casconfig.Config{WritePolicy: "quorum", Backends: []casconfig.BackendConfig{
			{Name: "mem"},
		}}, false},
		{"first policy", casconfig.Config{WritePolicy: "first", Backends: []casconfig.BackendConfig{
			{Name: "mem"},
		}}, true},
	}
	for _, c := range cases {
		err := c.cfg.Validate()
		if c.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", c.name, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("%s: expected error", c.name)
		}
	}
}

func TestOpen_SingleBackend(t *testing.T) {
	cfg := casconfig.Config{Backends: []casconfig.BackendConfig{{Name: "mem"}}}
	cas, closeFn, err := cfg.Open(casregistry.UsageDaemon, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}

	data := []byte("config-opened backend")
	id, err := cas.Put(data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := cas.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip lost bytes")
	}
}

func TestOpen_ReplicatedBackends(t *testing.T) {
	cfg := casconfig.Config{
		WritePolicy: "all",
		Backends: []casconfig.BackendConfig{
			{Name: "mem", ID: "a"},
			{Name: "mem", ID: "b"},
		},
	}
	cas, closeFn, err := cfg.Open(casregistry.UsageDaemon, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}

	data := []byte("replicated")
	id, err := cas.Put(data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !cas.Has(id) {
		t.Fatalf("Has after Put = false")
	}
	got, err := cas.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip lost bytes")
	}
}

func TestOpen_UnknownPreferredBackend(t *testing.T) {
	cfg := casconfig.Config{Backends: []casconfig.BackendConfig{{Name: "mem"}}}
	if _, _, err := cfg.Open(casregistry.UsageDaemon, "nope"); err == nil {
		t.Fatalf("expected error for unknown preferred backend")
	}
}
