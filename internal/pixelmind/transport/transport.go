// Package transport connects the MCP server to its host over stdio or HTTP.
package transport

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kiosk404/pixelmind/internal/pixelmind/options"
)

// Transport serves an MCP server until its context is canceled or the host
// disconnects.
type Transport interface {
	Name() string
	Serve(ctx context.Context) error
}

// New builds the transport selected by opts.
func New(s *server.MCPServer, opts *options.ServerOptions) (Transport, error) {
	switch opts.Transport {
	case options.TransportStdio, "":
		return NewStdio(s), nil
	case options.TransportSSE, options.TransportHTTP:
		return NewHTTP(s, opts), nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", opts.Transport)
	}
}
