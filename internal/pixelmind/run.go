// Package pixelmind wires the PixelLab client, the MCP module and the
// selected transport into a running server.
package pixelmind

import (
	"context"

	"github.com/kiosk404/pixelmind/internal/pixelmind/config"
)

// Run creates the server described by cfg and serves until ctx is done.
func Run(ctx context.Context, cfg *config.Config) error {
	server, err := createAPIServer(ctx, cfg)
	if err != nil {
		return err
	}

	return server.PrepareRun().Run(ctx)
}
