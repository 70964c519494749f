package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spetersoncode/relay/model"
	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List catalogued models and their pricing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Model", "Input $/1M", "Output $/1M"})
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetAutoWrapText(false)

			for _, m := range model.All() {
				p := m.Pricing()
				table.Append([]string{
					m.Ref(),
					fmt.Sprintf("%.3f", p.InputPerMillion),
					fmt.Sprintf("%.3f", p.OutputPerMillion),
				})
			}
			table.Render()
			return nil
		},
	}
}
