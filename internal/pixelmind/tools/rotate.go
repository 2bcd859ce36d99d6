package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kiosk404/pixelmind/internal/pixelmind/service/imagefs"
	"github.com/kiosk404/pixelmind/internal/pixelmind/service/pixellab"
	"github.com/kiosk404/pixelmind/internal/pkg/response"
)

const (
	rotateMinSize = 16
	rotateMaxSize = 200
)

type rotateArgs struct {
	ImagePath          string  `json:"image_path" validate:"required"`
	FromDirection      string  `json:"from_direction" validate:"required,direction"`
	ToDirection        string  `json:"to_direction" validate:"required,direction"`
	FromView           string  `json:"from_view,omitempty" validate:"omitempty,view"`
	ToView             string  `json:"to_view,omitempty" validate:"omitempty,view"`
	Width              int     `json:"width,omitempty" validate:"omitempty,min=16,max=200"`
	Height             int     `json:"height,omitempty" validate:"omitempty,min=16,max=200"`
	ImageGuidanceScale float64 `json:"image_guidance_scale,omitempty" validate:"omitempty,min=1,max=20"`
	Isometric          bool    `json:"isometric,omitempty"`
	ObliqueProjection  bool    `json:"oblique_projection,omitempty"`
	Seed               *int    `json:"seed,omitempty" validate:"omitempty,min=0"`
	SaveToFile         string  `json:"save_to_file,omitempty"`
}

func (t *toolset) rotateTool() server.ServerTool {
	tool := newTool(NameRotateCharacter,
		"Rotate a pixel art character to face another direction or view. Returns the original and rotated images side by side.",
		"Rotate character",
		[]mcp.ToolOption{
			mcp.WithString("image_path", mcp.Required(), mcp.Description("PNG of the character to rotate")),
			mcp.WithString("from_direction", mcp.Required(), mcp.Description("Direction the character currently faces"), mcp.Enum(pixellab.Directions...)),
			mcp.WithString("to_direction", mcp.Required(), mcp.Description("Direction to rotate to"), mcp.Enum(pixellab.Directions...)),
			mcp.WithString("from_view", mcp.Description("Current camera view"), mcp.Enum(pixellab.Views...), mcp.DefaultString(pixellab.ViewSide)),
			mcp.WithString("to_view", mcp.Description("Target camera view"), mcp.Enum(pixellab.Views...), mcp.DefaultString(pixellab.ViewSide)),
			mcp.WithNumber("width", mcp.Description("Output width; defaults to the input width"), mcp.Min(rotateMinSize), mcp.Max(rotateMaxSize)),
			mcp.WithNumber("height", mcp.Description("Output height; defaults to the input height"), mcp.Min(rotateMinSize), mcp.Max(rotateMaxSize)),
			mcp.WithNumber("image_guidance_scale", mcp.Description("How closely to follow the input image"), mcp.Min(1), mcp.Max(20), mcp.DefaultNumber(3)),
			mcp.WithBoolean("isometric", mcp.Description("Input is isometric"), mcp.DefaultBool(false)),
			mcp.WithBoolean("oblique_projection", mcp.Description("Input uses oblique projection"), mcp.DefaultBool(false)),
			mcp.WithNumber("seed", mcp.Description("Seed for reproducible output"), mcp.Min(0)),
		},
		outputOptions(false),
	)
	return server.ServerTool{Tool: tool, Handler: t.rotateCharacter}
}

func (t *toolset) rotateCharacter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args rotateArgs
	if err := t.bind(req, &args); err != nil {
		return nil, err
	}
	if args.FromView == "" {
		args.FromView = pixellab.ViewSide
	}
	if args.ToView == "" {
		args.ToView = pixellab.ViewSide
	}

	before, err := imagefs.ReadPNG(args.ImagePath)
	if err != nil {
		return nil, err
	}
	size, err := t.sizeFromImage(args.Width, args.Height, before, rotateMinSize, rotateMaxSize)
	if err != nil {
		return nil, err
	}

	apiReq := &pixellab.RotateRequest{ImageSize: size, FromImage: pixellab.NewBase64Image(before)}
	if err := copyArgs(apiReq, &args); err != nil {
		return nil, err
	}

	res, err := remote(ctx, t, NameRotateCharacter, func(ctx context.Context) (*pixellab.ImageResult, error) {
		return t.client.Rotate(ctx, apiReq)
	})
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("Rotated character from %s (%s view) to %s (%s view) at %s. %s",
		args.FromDirection, args.FromView, args.ToDirection, args.ToView, size, costText(res.Usage))
	if args.SaveToFile != "" {
		if err := imagefs.Save(args.SaveToFile, res.Image); err != nil {
			return nil, err
		}
		summary += "\nSaved to " + args.SaveToFile
	}
	meta := map[string]any{
		"from_direction": args.FromDirection,
		"to_direction":   args.ToDirection,
		"from_view":      args.FromView,
		"to_view":        args.ToView,
		"size":           size.String(),
		"usage":          res.Usage,
	}
	if args.SaveToFile != "" {
		meta["saved_to"] = args.SaveToFile
	}
	return response.Comparison(summary, before, res.Image, meta), nil
}
