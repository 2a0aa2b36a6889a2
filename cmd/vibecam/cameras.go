package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/vibecam/pkg/camera"
)

var camerasCmd = &cobra.Command{
	Use:   "cameras",
	Short: "List the camera presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := camera.LoadFile(cfg.CatalogFile)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(catalog)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tASPECT\tLOOK")
		for _, p := range catalog.Presets {
			name := p.Name
			if name == catalog.DefaultName {
				name += " (default)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", name, p.AspectRatio, p.PromptSuffix)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(camerasCmd)
	camerasCmd.Flags().Bool("json", false, "Print the catalog as JSON")
}
