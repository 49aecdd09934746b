package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"amplc/internal/diag"
	"amplc/internal/diagfmt"
	"amplc/internal/driver"
)

type runFlags struct {
	format     string
	jobs       int
	dumpDir    string
	withNotes  bool
	snapshot   bool
	noOutput   bool
	fullPath   bool
	noWarnings bool
}

func newRunCmd(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [flags] <scenario.toml|directory>...",
		Short: "Run symbol table scenarios",
		Long: `Run executes each scenario against a fresh symbol table and reports
diagnostics. Directories are searched for *.toml scenarios (ampl.toml excluded).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScenarios(cmd, args, f)
		},
	}
	cmd.Flags().StringVar(&f.format, "format", "pretty", "diagnostics format (pretty|short|json)")
	cmd.Flags().IntVar(&f.jobs, "jobs", 0, "max parallel scenarios (0=auto)")
	cmd.Flags().StringVar(&f.dumpDir, "dump", "", "write a msgpack snapshot of each finished scenario into this directory")
	cmd.Flags().BoolVar(&f.withNotes, "with-notes", true, "include diagnostic notes")
	cmd.Flags().BoolVar(&f.snapshot, "snapshot", false, "render the final symbol tables")
	cmd.Flags().BoolVar(&f.noOutput, "no-print", false, "hide the output of print steps")
	cmd.Flags().BoolVar(&f.fullPath, "fullpath", false, "emit absolute file paths")
	cmd.Flags().BoolVar(&f.noWarnings, "no-warnings", false, "drop warnings from the report")
	cmd.Flags().String("target", "jvm", "storage layout target (jvm|bytes)")
	cmd.Flags().String("lookup", "nested", "name lookup (nested|current)")
	return cmd
}

func (a *app) runScenarios(cmd *cobra.Command, args []string, f runFlags) error {
	format := strings.ToLower(f.format)
	switch format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("unknown format %q (expected pretty|short|json)", f.format)
	}

	cfg, origin, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	symOpts, err := cfg.SymbolOptions(&a.logger)
	if err != nil {
		return err
	}
	paths, err := driver.CollectScenarios(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no scenarios found in %s", strings.Join(args, ", "))
	}
	a.logger.Info().Str("config", origin).Int("scenarios", len(paths)).Int("jobs", f.jobs).Msg("running scenarios")

	fs, results, err := driver.RunFiles(cmd.Context(), paths, driver.Options{
		Symbols:        symOpts,
		MaxDiagnostics: cfg.Diagnostics.Max,
		Logger:         &a.logger,
	}, f.jobs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	color := a.colorFor(out)
	pathMode := diagfmt.PathModeAuto
	if f.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	var dumper *driver.Dumper
	if f.dumpDir != "" {
		dumper = driver.NewDumper(f.dumpDir)
	}
	jsonOut := make(map[string]diagfmt.DiagnosticsOutput, len(results))
	failed := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		if f.noWarnings {
			r.Bag.Filter(func(d diag.Diagnostic) bool { return d.Severity != diag.SevWarning })
		}
		r.Bag.Sort()
		if r.Failed() {
			failed++
		}

		if !f.noOutput && r.Output != "" && format != "json" {
			fmt.Fprintf(out, "== %s ==\n%s", r.Path, r.Output)
		}
		switch format {
		case "pretty":
			if err := diagfmt.Pretty(out, r.Bag, fs, diagfmt.PrettyOpts{
				Color:     color,
				PathMode:  pathMode,
				ShowNotes: f.withNotes,
				Context:   true,
			}); err != nil {
				return err
			}
		case "short":
			if s := diag.FormatShort(r.Bag.Items(), fs, f.withNotes); s != "" {
				fmt.Fprintln(out, s)
			}
		case "json":
			jsonOut[r.Path] = diagfmt.BuildDiagnosticsOutput(r.Bag, fs, diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         pathMode,
				IncludeNotes:     f.withNotes,
			})
		}
		if f.snapshot && format != "json" {
			fmt.Fprint(out, diagfmt.RenderSnapshot(r.Snapshot, diagfmt.SnapshotOpts{Color: color, Title: r.Path}))
		}
		if dumper != nil {
			written, err := dumper.Write(r)
			if err != nil {
				return fmt.Errorf("dump %s: %w", r.Path, err)
			}
			a.logger.Info().Str("scenario", r.Path).Str("dump", written).Msg("snapshot written")
		}
		if a.timings {
			fmt.Fprint(cmd.ErrOrStderr(), r.Timing.Summary())
		}
	}

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(jsonOut); err != nil {
			return err
		}
	} else if len(results) > 1 || failed > 0 {
		fmt.Fprintf(out, "%d scenario(s), %d failed\n", len(results), failed)
	}
	if failed > 0 {
		return errFailed
	}
	return nil
}
