package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skosovsky/tutorkit/internal/config"
	"github.com/skosovsky/tutorkit/tools"
)

var toolsJSON bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools offered to the agent",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		// send_view_image only exists with a live conversation; list it anyway.
		wb, err := newWorkbench(cfg, slog.New(slog.DiscardHandler), func() tools.Conversation { return nil })
		if err != nil {
			return err
		}
		defer func() { _ = wb.Close(context.Background()) }()

		defs := wb.registry.Definitions()
		out := cmd.OutOrStdout()
		if toolsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(defs)
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, d := range defs {
			fmt.Fprintf(w, "%s\t%s\n", d.Name, d.Description)
		}
		return w.Flush()
	},
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "print the definitions as sent in session.update")
	rootCmd.AddCommand(toolsCmd)
}
