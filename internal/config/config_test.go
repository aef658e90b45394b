package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[resolve]
arch = "x86"
strict = true
anonymous_markers = ["$anon"]

[output]
format = "json"
database = "out/types.mp"
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	m, ok, err := Discover(nested)
	if err != nil || !ok {
		t.Fatalf("Discover: ok=%v err=%v", ok, err)
	}
	if m.Root != root && filepath.Clean(m.Root) != filepath.Clean(root) {
		t.Fatalf("root = %q, want %q", m.Root, root)
	}
	cfg := m.Config
	if !cfg.Resolve.Strict || cfg.Output.Format != "json" || cfg.Resolve.AnonymousMarkers[0] != "$anon" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Output.Database != filepath.Join(root, "out", "types.mp") {
		t.Fatalf("database path not rooted: %q", cfg.Output.Database)
	}
	if cfg.Output.MaxDiagnostics != 100 {
		t.Fatalf("unset keys should keep defaults, got %d", cfg.Output.MaxDiagnostics)
	}
	p, err := cfg.Profile()
	if err != nil || p.PointerWidth != 4 {
		t.Fatalf("profile = %+v, %v", p, err)
	}
}

func TestDiscoverWithoutFile(t *testing.T) {
	m, ok, err := Discover(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	// a parent of the temp dir might carry one; only check defaults when none was found
	if !ok && m.Config.Resolve.Arch != "x86_64" {
		t.Fatalf("unexpected defaults: %+v", m.Config)
	}
}

func TestPointerWidthOverride(t *testing.T) {
	cfg := Default()
	cfg.Resolve.PointerWidth = 4
	p, err := cfg.Profile()
	if err != nil || p.Name != "x86_64" || p.PointerWidth != 4 {
		t.Fatalf("got %+v, %v", p, err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"unknown arch":   "[resolve]\narch = \"sparc\"\n",
		"negative width": "[resolve]\npointer_width = -1\n",
		"empty marker":   "[resolve]\nanonymous_markers = [\"\"]\n",
		"bad format":     "[output]\nformat = \"xml\"\n",
		"unknown key":    "[resolve]\narchitecture = \"x86\"\n",
		"bad toml":       "[resolve\n",
	}
	for name, body := range cases {
		path := writeConfig(t, t.TempDir(), body)
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected error", name)
		} else if !strings.Contains(err.Error(), path) {
			t.Fatalf("%s: error should name the file: %v", name, err)
		}
	}
}
