package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kiosk404/pixelmind/pkg/version"
)

func newCmdVersion(rt *runtime) *cobra.Command {
	var short, asJSON bool
	c := &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			info := version.Get()
			switch {
			case short:
				_, err := fmt.Fprintln(rt.Out, info.String())
				return err
			case asJSON:
				_, err := fmt.Fprintln(rt.Out, info.ToJSON())
				return err
			}
			text, err := info.Text()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(rt.Out, string(text))
			return err
		},
	}
	c.Flags().BoolVar(&short, "short", false, "Print just the version number.")
	c.Flags().BoolVar(&asJSON, "json", false, "Print the version information as JSON.")
	return c
}
