// Package mcp builds the MCP server that exposes the PixelLab tools.
package mcp

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kiosk404/pixelmind/internal/pixelmind/service/pixellab"
	"github.com/kiosk404/pixelmind/internal/pixelmind/tools"
	"github.com/kiosk404/pixelmind/internal/pkg/retry"
	"github.com/kiosk404/pixelmind/pkg/logger"
)

const (
	DefaultName    = "pixelmind"
	DefaultVersion = "dev"
)

var instructions = heredoc.Doc(`
	Tools for generating and editing pixel art with the PixelLab API.

	Image inputs are paths to PNG files on the machine running this server.
	Pass save_to_file to keep a result on disk; animations are written as
	<name>_frame<N>.png next to the requested path. Every generation call is
	billed, so check get_balance before large batches.
`)

type Config struct {
	Name    string
	Version string
	Client  pixellab.Client
	Policy  *retry.Policy
}

// CompletedConfig is the completed configuration for the MCP module.
type CompletedConfig struct {
	*Config
}

// Complete fills defaults.
func (c *Config) Complete() CompletedConfig {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.Policy == nil {
		p := retry.DefaultPolicy()
		c.Policy = &p
	}
	return CompletedConfig{c}
}

// Module owns the MCP server with every tool registered.
type Module struct {
	Server *server.MCPServer
}

// New creates the MCP server and registers the tools on it.
func (c CompletedConfig) New(ctx context.Context) (*Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Client == nil {
		return nil, fmt.Errorf("mcp: pixellab client is required")
	}

	s := server.NewMCPServer(c.Name, c.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithLogging(),
		server.WithInstructions(instructions),
	)
	if err := tools.Register(s, tools.Deps{Client: c.Client, Policy: *c.Policy}); err != nil {
		return nil, fmt.Errorf("mcp: register tools: %w", err)
	}
	logger.Info("[MCP] module initialized (%s %s, %d tools)", c.Name, c.Version, len(s.ListTools()))

	return &Module{Server: s}, nil
}
