package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"amplc/internal/layout"
	"amplc/internal/project"
	"amplc/internal/symbols"
)

// loadConfig reads ampl.toml (explicit --config, else discovered) and applies
// flag overrides on top. The returned string names where the config came from.
func (a *app) loadConfig(cmd *cobra.Command) (project.Config, string, error) {
	cfg := project.Default()
	origin := "defaults"
	switch {
	case a.configPath != "":
		loaded, err := project.LoadConfig(a.configPath)
		if err != nil {
			return project.Config{}, "", err
		}
		cfg, origin = loaded, a.configPath
	default:
		wd, err := os.Getwd()
		if err != nil {
			return project.Config{}, "", fmt.Errorf("failed to get working directory: %w", err)
		}
		manifest, ok, err := project.LoadManifest(wd)
		if err != nil {
			return project.Config{}, "", err
		}
		if ok {
			cfg, origin = manifest.Config, manifest.Path
		}
	}

	flags := cmd.Flags()
	if flags.Changed("target") {
		target, _ := flags.GetString("target")
		if _, err := layout.TargetByName(target); err != nil {
			return project.Config{}, "", fmt.Errorf("--target: %w", err)
		}
		cfg.Layout.Target = target
	}
	if flags.Changed("lookup") {
		mode, _ := flags.GetString("lookup")
		parsed, err := symbols.ParseLookupMode(mode)
		if err != nil {
			return project.Config{}, "", fmt.Errorf("--lookup: %w", err)
		}
		cfg.Lookup.Fallback = parsed == symbols.LookupNested
	}
	if cmd.Root().PersistentFlags().Changed("max-diagnostics") {
		if a.maxDiagnostics < 0 {
			return project.Config{}, "", fmt.Errorf("--max-diagnostics must not be negative")
		}
		cfg.Diagnostics.Max = a.maxDiagnostics
	}
	a.logger.Debug().
		Str("origin", origin).
		Str("target", cfg.Layout.Target).
		Bool("fallback", cfg.Lookup.Fallback).
		Int("max_depth", cfg.Limits.MaxDepth).
		Msg("configuration resolved")
	return cfg, origin, nil
}
