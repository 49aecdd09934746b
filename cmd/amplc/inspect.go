package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"amplc/internal/diagfmt"
	"amplc/internal/driver"
)

func newInspectCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "inspect [flags] <dump.mp>...",
		Short: "Render snapshots written by run --dump",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "pretty" && format != "json" {
				return fmt.Errorf("unknown format %q (expected pretty|json)", format)
			}
			out := cmd.OutOrStdout()
			color := a.colorFor(out)
			for i, path := range args {
				payload, err := driver.ReadDump(path)
				if err != nil {
					return err
				}
				a.logger.Debug().Str("dump", path).Uint16("schema", payload.Schema).Msg("dump loaded")
				if format == "json" {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					if err := enc.Encode(payload); err != nil {
						return err
					}
					continue
				}
				if i > 0 {
					fmt.Fprintln(out)
				}
				title := payload.Path
				if payload.Scenario != "" {
					title = fmt.Sprintf("%s (%s)", payload.Scenario, payload.Path)
				}
				fmt.Fprint(out, diagfmt.RenderSnapshot(payload.Snapshot, diagfmt.SnapshotOpts{Color: color, Title: title}))
				if len(payload.Codes) > 0 {
					fmt.Fprintf(out, "diagnostics: %s\n", strings.Join(payload.Codes, ", "))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json)")
	return cmd
}
