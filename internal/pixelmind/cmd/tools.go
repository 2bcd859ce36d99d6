package cmd

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/kiosk404/pixelmind/internal/pixelmind/tools"
)

func newCmdTools(rt *runtime) *cobra.Command {
	var wide bool
	c := &cobra.Command{
		Use:     "tools",
		Aliases: []string{"ls"},
		Short:   "List the MCP tools this server exposes",
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			table := uitable.New()
			table.Wrap = true
			if !wide {
				table.MaxColWidth = 72
			}
			table.AddRow("NAME", "TITLE", "DESCRIPTION")
			for _, tool := range tools.Catalog() {
				table.AddRow(tool.Name, tool.Annotations.Title, tool.Description)
			}
			_, err := fmt.Fprintln(rt.Out, table)
			return err
		},
	}
	c.Flags().BoolVarP(&wide, "wide", "w", false, "Do not wrap descriptions.")
	return c
}
