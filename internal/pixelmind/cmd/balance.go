package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kiosk404/pixelmind/internal/pixelmind"
	"github.com/kiosk404/pixelmind/internal/pixelmind/service/pixellab"
)

// newClient is replaced in tests.
var newClient = func(cfg pixellab.Config) (pixellab.Client, error) {
	return pixellab.NewClient(cfg)
}

func newCmdBalance(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Print the remaining PixelLab balance",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := rt.config()
			if err != nil {
				return err
			}
			client, err := newClient(cfg.APIOptions.ClientConfig(pixelmind.UserAgent()))
			if err != nil {
				return err
			}
			bal, err := client.GetBalance(c.Context())
			if err != nil {
				return fmt.Errorf("get balance: %w", err)
			}

			amount := color.New(color.FgGreen, color.Bold).SprintfFunc()
			if bal.USD <= 0 {
				amount = color.New(color.FgRed, color.Bold).SprintfFunc()
			}
			_, err = fmt.Fprintf(rt.Out, "PixelLab balance: %s\n", amount("$%.2f", bal.USD))
			return err
		},
	}
}
