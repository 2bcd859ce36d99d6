package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/kiosk404/pixelmind/internal/pixelmind/options"
	"github.com/kiosk404/pixelmind/pkg/logger"
)

const (
	healthPath      = "/healthz"
	ssePath         = "/sse"
	messagePath     = "/message"
	streamablePath  = "/mcp"
	shutdownTimeout = 5 * time.Second
)

// mcpHandler is implemented by both mcp-go HTTP transports.
type mcpHandler interface {
	http.Handler
	Shutdown(ctx context.Context) error
}

// HTTP serves the MCP server over SSE or streamable HTTP on a gin engine.
type HTTP struct {
	name    string
	addr    string
	engine  *gin.Engine
	handler mcpHandler
}

func NewHTTP(s *server.MCPServer, opts *options.ServerOptions) *HTTP {
	if logger.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logger.Writer("debug")
	gin.DefaultErrorWriter = logger.Writer("error")

	t := &HTTP{name: opts.Transport, addr: opts.Address, engine: gin.New()}
	t.engine.Use(gin.Recovery(), accessLog(), BearerAuth(opts.AuthToken, opts.AllowLocal))
	t.engine.GET(healthPath, healthz(s))
	if opts.EnablePprof {
		pprof.Register(t.engine)
	}

	switch opts.Transport {
	case options.TransportSSE:
		sse := server.NewSSEServer(s, server.WithBaseURL(opts.BaseURL), server.WithKeepAlive(true))
		t.handler = sse
		t.engine.GET(ssePath, gin.WrapH(sse))
		t.engine.POST(messagePath, gin.WrapH(sse))
	default:
		streamable := server.NewStreamableHTTPServer(s, server.WithEndpointPath(streamablePath))
		t.handler = streamable
		t.engine.Any(streamablePath, gin.WrapH(streamable))
	}
	return t
}

func (t *HTTP) Name() string { return t.name }

// Handler exposes the gin engine, mainly for tests.
func (t *HTTP) Handler() http.Handler { return t.engine }

// Serve listens on the configured address until ctx is canceled, then shuts
// down gracefully.
func (t *HTTP) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              t.addr,
		Handler:           t.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("[Server] serving MCP over %s on %s", t.name, t.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("[Server] shutting down %s transport", t.name)
		if err := t.handler.Shutdown(shutdownCtx); err != nil {
			logger.Warn("[Server] mcp %s shutdown: %v", t.name, err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return srv.Close()
		}
		return nil
	})
	return g.Wait()
}

func healthz(s *server.MCPServer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"tools":  len(s.ListTools()),
		})
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("[Server] %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
