package transport

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kiosk404/pixelmind/pkg/logger"
)

// Stdio serves a single host over standard input and output.
type Stdio struct {
	srv *server.StdioServer
	in  io.Reader
	out io.Writer
}

func NewStdio(s *server.MCPServer) *Stdio {
	return &Stdio{srv: server.NewStdioServer(s), in: os.Stdin, out: os.Stdout}
}

func (t *Stdio) Name() string { return "stdio" }

// Serve returns nil when the host closes stdin or ctx is canceled.
func (t *Stdio) Serve(ctx context.Context) error {
	w := logger.Writer("error")
	defer w.Close()
	t.srv.SetErrorLogger(log.New(w, "[MCP] ", 0))

	logger.Info("[Server] serving MCP over stdio")
	err := t.srv.Listen(ctx, t.in, t.out)
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
