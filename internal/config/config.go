// Package config loads cbindgen.toml, the per-project configuration of
// one generation run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/defermelowie/cbindgen/internal/cfg"
	"github.com/defermelowie/cbindgen/internal/emit"
	"github.com/defermelowie/cbindgen/internal/ir"
	"github.com/defermelowie/cbindgen/internal/mono"
)

// FileName is the well-known configuration file name.
const FileName = "cbindgen.toml"

type Config struct {
	Header  HeaderConfig  `toml:"header"`
	Defines DefinesConfig `toml:"defines"`
	Export  ExportConfig  `toml:"export"`
	Rename  RenameConfig  `toml:"rename"`
	Parse   ParseConfig   `toml:"parse"`
	Mono    MonoConfig    `toml:"mono"`
	Cache   CacheConfig   `toml:"cache"`
}

type HeaderConfig struct {
	Guard       string   `toml:"guard"`
	Banner      string   `toml:"banner"`
	Trailer     string   `toml:"trailer"`
	SysIncludes []string `toml:"sys_includes"`
	Includes    []string `toml:"includes"`
}

type DefinesConfig struct {
	// Enabled lists the true leaves of the cfg environment, in canonical
	// form: `flag` or `key=value`.
	Enabled []string `toml:"enabled"`
	// Known lists leaves that are defined but disabled, so predicate
	// evaluation does not warn about them.
	Known []string `toml:"known"`
}

type ExportConfig struct {
	Prefix string `toml:"prefix"`
	// Include restricts the surface to the named items and their
	// transitive dependencies; empty means everything.
	Include    []string          `toml:"include"`
	Exclude    []string          `toml:"exclude"`
	Rename     map[string]string `toml:"rename"`
	OpaqueOnly []string          `toml:"opaque_only"`
}

type RenameConfig struct {
	Types     string `toml:"types"`
	Functions string `toml:"functions"`
	Constants string `toml:"constants"`
}

type ParseConfig struct {
	// Crates lists the crate root directories to ingest; empty means the
	// directory the configuration file lives in.
	Crates []string `toml:"crates"`
	Jobs   int      `toml:"jobs"`
}

type MonoConfig struct {
	MaxDepth int `toml:"max_depth"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the configuration used when no cbindgen.toml exists.
func Default() Config {
	return Config{
		Mono:  MonoConfig{MaxDepth: mono.DefaultMaxDepth},
		Cache: CacheConfig{Enabled: true},
	}
}

// Find searches dir and its ancestors for cbindgen.toml.
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

// Load reads and validates one configuration file.
func Load(path string) (Config, error) {
	c := Default()
	meta, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown configuration keys: %s", path, strings.Join(keys, ", "))
	}
	if err := c.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *Config) validate() error {
	if _, err := ir.ParseRenameRule(c.Rename.Types); err != nil {
		return fmt.Errorf("[rename].types: %w", err)
	}
	if _, err := ir.ParseRenameRule(c.Rename.Functions); err != nil {
		return fmt.Errorf("[rename].functions: %w", err)
	}
	if _, err := ir.ParseRenameRule(c.Rename.Constants); err != nil {
		return fmt.Errorf("[rename].constants: %w", err)
	}
	if c.Mono.MaxDepth < 0 {
		return fmt.Errorf("[mono].max_depth must be non-negative")
	}
	if c.Parse.Jobs < 0 {
		return fmt.Errorf("[parse].jobs must be non-negative")
	}
	return nil
}

// Env builds the cfg evaluation environment.
func (c *Config) Env() *cfg.Env {
	return cfg.NewEnv(c.Defines.Enabled, c.Defines.Known)
}

// Naming builds the export-naming policy. Rules were validated by Load.
func (c *Config) Naming() ir.ExportNaming {
	types, _ := ir.ParseRenameRule(c.Rename.Types)
	fns, _ := ir.ParseRenameRule(c.Rename.Functions)
	consts, _ := ir.ParseRenameRule(c.Rename.Constants)
	return ir.ExportNaming{
		TypeRule:     types,
		FunctionRule: fns,
		ConstRule:    consts,
		Prefix:       c.Export.Prefix,
		Overrides:    c.Export.Rename,
		OpaqueOnly:   c.Export.OpaqueOnly,
	}
}

// Writer builds the text-level writer profile.
func (c *Config) Writer() emit.WriterConfig {
	w := emit.DefaultWriterConfig()
	w.IncludeGuard = c.Header.Guard
	w.Header = c.Header.Banner
	w.Trailer = c.Header.Trailer
	if len(c.Header.SysIncludes) > 0 {
		w.SysIncludes = c.Header.SysIncludes
	}
	w.Includes = c.Header.Includes
	return w
}
