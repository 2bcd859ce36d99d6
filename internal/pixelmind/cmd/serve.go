package cmd

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/kiosk404/pixelmind/internal/pixelmind"
	"github.com/kiosk404/pixelmind/pkg/logger"
)

func newCmdServe(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the PixelLab tools over MCP",
		Long: heredoc.Doc(`
			Serve the PixelLab tools to an MCP host.

			The default stdio transport is what desktop assistants launch. The sse
			and http transports listen on --server.address and can require a bearer
			token with --server.auth-token.
		`),
		Example: heredoc.Doc(`
			# Run under an MCP host over stdio
			PIXELLAB_SECRET=... pixelmind serve

			# Listen for streamable HTTP clients
			pixelmind serve --server.transport http --server.address 0.0.0.0:8087
		`),
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := rt.config()
			if err != nil {
				return err
			}
			logger.Debug("[Server] config: %s", cfg.String())
			if rt.viper.ConfigFileUsed() != "" {
				rt.watchLogLevel()
			}
			return pixelmind.Run(c.Context(), cfg)
		},
	}
}

// watchLogLevel applies log.level edits in the config file while serving.
func (rt *runtime) watchLogLevel() {
	rt.viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level := rt.viper.GetString("log.level")
		if err := logger.SetLevel(level); err != nil {
			logger.Warn("[Server] ignoring config change: %v", err)
			return
		}
		logger.Info("[Server] log level set to %s from %s", level, e.Name)
	})
	rt.viper.WatchConfig()
}
