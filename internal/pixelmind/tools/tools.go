// Package tools exposes the PixelLab operations as MCP tools.
//
// Every handler follows the same path: bind and validate arguments, read
// input images, call the remote API (through retry.Do for billed
// operations), optionally save the output, and shape the response. Handlers
// never return a Go error to the host; failures become error responses.
package tools

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kiosk404/pixelmind/internal/pixelmind/service/pixellab"
	"github.com/kiosk404/pixelmind/internal/pkg/response"
	"github.com/kiosk404/pixelmind/internal/pkg/retry"
	"github.com/kiosk404/pixelmind/pkg/logger"
)

const logModule = "tools"

// Tool names exposed to the host.
const (
	NameGetBalance          = "get_balance"
	NameGeneratePixflux     = "generate_image_pixflux"
	NameGenerateBitforge    = "generate_image_bitforge"
	NameRotateCharacter     = "rotate_character"
	NameInpaintImage        = "inpaint_image"
	NameEstimateSkeleton    = "estimate_skeleton"
	NameAnimateWithSkeleton = "animate_with_skeleton"
	NameAnimateWithText     = "animate_with_text"
)

// Deps are the collaborators shared by every handler. They must be safe for
// concurrent use.
type Deps struct {
	Client pixellab.Client
	Policy retry.Policy
	// Validator is created with NewValidator when nil.
	Validator *validator.Validate
}

type toolset struct {
	client   pixellab.Client
	policy   retry.Policy
	validate *validator.Validate
}

// Tools returns every tool with its handler wrapped for error conversion,
// panic recovery and call logging.
func Tools(deps Deps) ([]server.ServerTool, error) {
	if deps.Client == nil {
		return nil, fmt.Errorf("tools: pixellab client is required")
	}
	if err := deps.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("tools: %w", err)
	}
	v := deps.Validator
	if v == nil {
		var err error
		if v, err = NewValidator(); err != nil {
			return nil, err
		}
	}

	t := &toolset{client: deps.Client, policy: deps.Policy, validate: v}
	defs := []server.ServerTool{
		t.balanceTool(),
		t.pixfluxTool(),
		t.bitforgeTool(),
		t.rotateTool(),
		t.inpaintTool(),
		t.estimateSkeletonTool(),
		t.animateSkeletonTool(),
		t.animateTextTool(),
	}
	for i := range defs {
		defs[i].Handler = Wrap(defs[i].Tool.Name, defs[i].Handler)
	}
	return defs, nil
}

// Catalog returns the tool definitions without handlers, for listing.
func Catalog() []mcp.Tool {
	t := &toolset{}
	return []mcp.Tool{
		t.balanceTool().Tool,
		t.pixfluxTool().Tool,
		t.bitforgeTool().Tool,
		t.rotateTool().Tool,
		t.inpaintTool().Tool,
		t.estimateSkeletonTool().Tool,
		t.animateSkeletonTool().Tool,
		t.animateTextTool().Tool,
	}
}

// Register adds every tool to s.
func Register(s *server.MCPServer, deps Deps) error {
	defs, err := Tools(deps)
	if err != nil {
		return err
	}
	s.AddTools(defs...)
	logger.Info("[Tool] registered %d tools", len(defs))
	return nil
}

type callIDKey struct{}

// CallID returns the id assigned to the current tool call, or "" outside one.
func CallID(ctx context.Context) string {
	id, _ := ctx.Value(callIDKey{}).(string)
	return id
}

// Wrap turns h into a handler that always yields a result and a nil error.
// Errors and panics from h are rendered with response.Error.
func Wrap(name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (res *mcp.CallToolResult, err error) {
		id := uuid.NewString()
		ctx = context.WithValue(ctx, callIDKey{}, id)
		start := time.Now()

		defer func() {
			if r := recover(); r != nil {
				logger.ErrorX(logModule, "[Tool] %s call=%s panic: %v\n%s", name, id, r, debug.Stack())
				res, err = response.Error(r), nil
			}
		}()

		logger.DebugX(logModule, "[Tool] %s call=%s started", name, id)
		res, err = h(ctx, req)
		if err != nil {
			logger.WarnX(logModule, "[Tool] %s call=%s failed after %s: %v", name, id, time.Since(start), err)
			return response.Error(err), nil
		}
		if res == nil {
			return response.Error(fmt.Sprintf("%s produced no result", name)), nil
		}
		logger.InfoX(logModule, "[Tool] %s call=%s done in %s", name, id, time.Since(start))
		return res, nil
	}
}

// remote runs op under the toolset retry policy, logging each retry with the
// call id.
func remote[T any](ctx context.Context, t *toolset, name string, op func(context.Context) (T, error)) (T, error) {
	p := t.policy
	id := CallID(ctx)
	next := p.Notify
	p.Notify = func(err error, attempt uint, wait time.Duration) {
		logger.WarnX(logModule, "[Retry] %s call=%s attempt %d rate limited, retrying in %s: %v", name, id, attempt+1, wait, err)
		if next != nil {
			next(err, attempt, wait)
		}
	}
	return retry.Do(ctx, p, op)
}

func costText(u pixellab.Usage) string {
	return fmt.Sprintf("Cost: $%.4f", u.USD)
}
