// Package config finds and decodes elnino.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"elnino/internal/resolve"
	"elnino/internal/target"
)

// FileName is the configuration file looked up from the working directory
// upwards.
const FileName = "elnino.toml"

type Config struct {
	Resolve ResolveConfig `toml:"resolve"`
	Output  OutputConfig  `toml:"output"`
}

type ResolveConfig struct {
	Arch             string   `toml:"arch"`
	PointerWidth     int      `toml:"pointer_width"`
	Strict           bool     `toml:"strict"`
	AnonymousMarkers []string `toml:"anonymous_markers"`
}

type OutputConfig struct {
	Format         string `toml:"format"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
	Database       string `toml:"database"`
	Header         string `toml:"header"`
}

// Manifest is a loaded configuration file.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Default returns the configuration used when no file is found.
func Default() Config {
	markers := make([]string, len(resolve.DefaultAnonymousMarkers))
	copy(markers, resolve.DefaultAnonymousMarkers)
	return Config{
		Resolve: ResolveConfig{
			Arch:             target.X86_64().Name,
			AnonymousMarkers: markers,
		},
		Output: OutputConfig{
			Format:         "pretty",
			MaxDiagnostics: 100,
		},
	}
}

// Profile returns the architecture profile the configuration selects.
func (c Config) Profile() (target.Profile, error) {
	p, err := target.Lookup(c.Resolve.Arch)
	if err != nil {
		return target.Profile{}, err
	}
	return p.WithPointerWidth(c.Resolve.PointerWidth), nil
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the nearest FileName. Relative output paths are
// made relative to the file's directory. Without a file it returns
// Default() and false.
func Discover(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return &Manifest{Config: Default()}, false, nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	root := filepath.Dir(path)
	cfg.Output.Database = rooted(root, cfg.Output.Database)
	cfg.Output.Header = rooted(root, cfg.Output.Header)
	return &Manifest{Path: path, Root: root, Config: cfg}, true, nil
}

func rooted(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

// Load decodes path over Default() and validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("resolve", "arch") {
		if _, err := target.Lookup(cfg.Resolve.Arch); err != nil {
			return Config{}, fmt.Errorf("%s: [resolve].arch: %w", path, err)
		}
	}
	if cfg.Resolve.PointerWidth < 0 {
		return Config{}, fmt.Errorf("%s: [resolve].pointer_width must not be negative", path)
	}
	if meta.IsDefined("resolve", "anonymous_markers") {
		for _, m := range cfg.Resolve.AnonymousMarkers {
			if strings.TrimSpace(m) == "" {
				return Config{}, fmt.Errorf("%s: [resolve].anonymous_markers contains an empty marker", path)
			}
		}
	}
	switch cfg.Output.Format {
	case "pretty", "json", "short":
	default:
		return Config{}, fmt.Errorf("%s: [output].format must be pretty, json or short, got %q", path, cfg.Output.Format)
	}
	if cfg.Output.MaxDiagnostics < 0 {
		return Config{}, fmt.Errorf("%s: [output].max_diagnostics must not be negative", path)
	}
	return cfg, nil
}
