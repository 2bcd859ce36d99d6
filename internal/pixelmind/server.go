package pixelmind

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kiosk404/pixelmind/internal/pixelmind/config"
	"github.com/kiosk404/pixelmind/internal/pixelmind/service/mcp"
	"github.com/kiosk404/pixelmind/internal/pixelmind/service/pixellab"
	"github.com/kiosk404/pixelmind/internal/pixelmind/transport"
	"github.com/kiosk404/pixelmind/pkg/logger"
	"github.com/kiosk404/pixelmind/pkg/version"
)

type apiServer struct {
	client    pixellab.Client
	mcpModule *mcp.Module
	transport transport.Transport
}

type preparedAPIServer struct {
	*apiServer
}

// UserAgent identifies this build to the PixelLab API.
func UserAgent() string {
	return fmt.Sprintf("pixelmind/%s", version.Get().GitVersion)
}

func createAPIServer(ctx context.Context, cfg *config.Config) (*apiServer, error) {
	client, err := pixellab.NewClient(cfg.APIOptions.ClientConfig(UserAgent()))
	if err != nil {
		return nil, fmt.Errorf("failed to create PixelLab client: %w", err)
	}
	return createAPIServerWithClient(ctx, cfg, client)
}

func createAPIServerWithClient(ctx context.Context, cfg *config.Config, client pixellab.Client) (*apiServer, error) {
	policy := cfg.RetryOptions.Policy()
	mcpCfg := &mcp.Config{
		Version: version.Get().GitVersion,
		Client:  client,
		Policy:  &policy,
	}
	mcpModule, err := mcpCfg.Complete().New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MCP module: %w", err)
	}

	t, err := transport.New(mcpModule.Server, cfg.ServerOptions)
	if err != nil {
		return nil, err
	}

	return &apiServer{
		client:    client,
		mcpModule: mcpModule,
		transport: t,
	}, nil
}

func (s *apiServer) PrepareRun() preparedAPIServer {
	logger.Info("[Server] using %s transport", s.transport.Name())
	return preparedAPIServer{s}
}

// Run serves until ctx is canceled, SIGINT/SIGTERM arrives or the host
// disconnects.
func (s preparedAPIServer) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("[Server] pixelmind %s serving", version.Get().GitVersion)
	err := s.transport.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("[Server] %s transport stopped: %v", s.transport.Name(), err)
		return err
	}
	logger.Info("[Server] shut down")
	return nil
}
