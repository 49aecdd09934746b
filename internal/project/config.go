package project

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"amplc/internal/layout"
	"amplc/internal/symbols"
)

// Config is the decoded form of ampl.toml.
type Config struct {
	Layout      LayoutConfig      `toml:"layout"`
	Limits      LimitsConfig      `toml:"limits"`
	Lookup      LookupConfig      `toml:"lookup"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
}

type LayoutConfig struct {
	Target string `toml:"target"`
}

type LimitsConfig struct {
	MaxEntries int `toml:"max_entries"` // 0 = unbounded
	MaxWidth   int `toml:"max_width"`   // 0 = unbounded
	MaxDepth   int `toml:"max_depth"`
}

type LookupConfig struct {
	Fallback bool `toml:"fallback"`
}

type DiagnosticsConfig struct {
	Max int `toml:"max"`
}

// Default returns the configuration used when no ampl.toml exists.
// max_width matches the JVM's limit on local variable slots.
func Default() Config {
	return Config{
		Layout:      LayoutConfig{Target: "jvm"},
		Limits:      LimitsConfig{MaxWidth: 65535, MaxDepth: symbols.DefaultMaxDepth},
		Lookup:      LookupConfig{Fallback: true},
		Diagnostics: DiagnosticsConfig{Max: 100},
	}
}

// LoadConfig decodes path on top of Default().
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := check(path, meta, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseConfig decodes text on top of Default(); name is used in errors.
func ParseConfig(name, text string) (Config, error) {
	cfg := Default()
	meta, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", name, err)
	}
	if err := check(name, meta, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func check(name string, meta toml.MetaData, cfg Config) error {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%s: unknown keys: %s", name, strings.Join(keys, ", "))
	}
	if meta.IsDefined("layout", "target") && strings.TrimSpace(cfg.Layout.Target) == "" {
		return fmt.Errorf("%s: [layout].target must not be empty", name)
	}
	if _, err := layout.TargetByName(cfg.Layout.Target); err != nil {
		return fmt.Errorf("%s: [layout].target: %w", name, err)
	}
	if cfg.Limits.MaxEntries < 0 || cfg.Limits.MaxWidth < 0 {
		return fmt.Errorf("%s: [limits] values must not be negative", name)
	}
	if cfg.Limits.MaxDepth < 1 {
		return fmt.Errorf("%s: [limits].max_depth must be at least 1", name)
	}
	if cfg.Diagnostics.Max < 0 {
		return fmt.Errorf("%s: [diagnostics].max must not be negative", name)
	}
	return nil
}

// SymbolOptions turns the configuration into symbol table manager options.
func (c Config) SymbolOptions(logger *zerolog.Logger) (symbols.Options, error) {
	target, err := layout.TargetByName(c.Layout.Target)
	if err != nil {
		return symbols.Options{}, err
	}
	lookup := symbols.LookupNested
	if !c.Lookup.Fallback {
		lookup = symbols.LookupCurrent
	}
	return symbols.Options{
		Sizer: layout.New(target),
		Limits: symbols.Limits{
			MaxEntries: c.Limits.MaxEntries,
			MaxWidth:   c.Limits.MaxWidth,
		},
		Lookup:   lookup,
		MaxDepth: c.Limits.MaxDepth,
		Logger:   logger,
	}, nil
}
