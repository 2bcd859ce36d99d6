package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/gg/gslice"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kiosk404/pixelmind/internal/pixelmind/service/imagefs"
	"github.com/kiosk404/pixelmind/internal/pixelmind/service/pixellab"
	"github.com/kiosk404/pixelmind/internal/pkg/response"
)

const (
	skeletonMinSize = 16
	skeletonMaxSize = 256
)

type estimateSkeletonArgs struct {
	ImagePath string `json:"image_path" validate:"required"`
}

type keypointArg struct {
	X      float64 `json:"x" validate:"min=0"`
	Y      float64 `json:"y" validate:"min=0"`
	Label  string  `json:"label" validate:"required,skeleton_label"`
	ZIndex float64 `json:"z_index"`
}

func (k keypointArg) keypoint() pixellab.Keypoint {
	return pixellab.Keypoint{X: k.X, Y: k.Y, Label: k.Label, ZIndex: k.ZIndex}
}

type animateSkeletonArgs struct {
	ReferenceImagePath string          `json:"reference_image_path" validate:"required"`
	Poses              [][]keypointArg `json:"skeleton_keypoints" validate:"required,min=1,max=20,dive,min=1,dive"`
	Width              int             `json:"width,omitempty" validate:"omitempty,min=16,max=256"`
	Height             int             `json:"height,omitempty" validate:"omitempty,min=16,max=256"`
	GuidanceScale      float64         `json:"guidance_scale,omitempty" validate:"omitempty,min=1,max=20"`
	View               string          `json:"view,omitempty" validate:"omitempty,view"`
	Direction          string          `json:"direction,omitempty" validate:"omitempty,direction"`
	Isometric          bool            `json:"isometric,omitempty"`
	ObliqueProjection  bool            `json:"oblique_projection,omitempty"`
	Seed               *int            `json:"seed,omitempty" validate:"omitempty,min=0"`
	SaveToFile         string          `json:"save_to_file,omitempty"`
}

func (t *toolset) estimateSkeletonTool() server.ServerTool {
	tool := newTool(NameEstimateSkeleton,
		"Estimate the skeleton keypoints of a pixel art character. The result can be edited and passed to animate_with_skeleton.",
		"Estimate skeleton",
		[]mcp.ToolOption{
			mcp.WithString("image_path", mcp.Required(), mcp.Description("PNG of the character")),
		},
	)
	return server.ServerTool{Tool: tool, Handler: t.estimateSkeleton}
}

func (t *toolset) estimateSkeleton(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args estimateSkeletonArgs
	if err := t.bind(req, &args); err != nil {
		return nil, err
	}
	image, err := imagefs.ReadPNG(args.ImagePath)
	if err != nil {
		return nil, err
	}

	apiReq := &pixellab.EstimateSkeletonRequest{Image: pixellab.NewBase64Image(image)}
	res, err := remote(ctx, t, NameEstimateSkeleton, func(ctx context.Context) (*pixellab.SkeletonResult, error) {
		return t.client.EstimateSkeleton(ctx, apiReq)
	})
	if err != nil {
		return nil, err
	}

	lines := gslice.Map(res.Keypoints, func(k pixellab.Keypoint) string {
		return fmt.Sprintf("- %s: (%.1f, %.1f) z=%g", k.Label, k.X, k.Y, k.ZIndex)
	})
	summary := fmt.Sprintf("Estimated %d skeleton keypoints. %s", len(res.Keypoints), costText(res.Usage))
	if len(lines) > 0 {
		summary += "\n" + strings.Join(lines, "\n")
	}
	meta := map[string]any{
		"keypoints": res.Keypoints,
		"usage":     res.Usage,
	}
	return response.Build(summary, nil, meta), nil
}

func (t *toolset) animateSkeletonTool() server.ServerTool {
	keypoint := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x":       map[string]any{"type": "number"},
			"y":       map[string]any{"type": "number"},
			"label":   map[string]any{"type": "string", "enum": pixellab.SkeletonLabels},
			"z_index": map[string]any{"type": "number"},
		},
		"required": []string{"x", "y", "label"},
	}
	tool := newTool(NameAnimateWithSkeleton,
		"Animate a pixel art character by posing it with one skeleton per frame.",
		"Animate with skeleton",
		[]mcp.ToolOption{
			mcp.WithString("reference_image_path", mcp.Required(), mcp.Description("PNG of the character to animate")),
			mcp.WithArray("skeleton_keypoints", mcp.Required(),
				mcp.Description("One list of keypoints per frame, as returned by estimate_skeleton"),
				mcp.Items(map[string]any{"type": "array", "items": keypoint}),
				mcp.MinItems(1), mcp.MaxItems(20)),
			mcp.WithNumber("width", mcp.Description("Frame width; defaults to the reference width"), mcp.Min(skeletonMinSize), mcp.Max(skeletonMaxSize)),
			mcp.WithNumber("height", mcp.Description("Frame height; defaults to the reference height"), mcp.Min(skeletonMinSize), mcp.Max(skeletonMaxSize)),
			mcp.WithNumber("guidance_scale", mcp.Description("How closely to follow the reference"), mcp.Min(1), mcp.Max(20), mcp.DefaultNumber(4)),
			mcp.WithString("view", mcp.Description("Camera view"), mcp.Enum(pixellab.Views...)),
			mcp.WithString("direction", mcp.Description("Subject direction"), mcp.Enum(pixellab.Directions...)),
			mcp.WithBoolean("isometric", mcp.Description("Generate in isometric view"), mcp.DefaultBool(false)),
			mcp.WithBoolean("oblique_projection", mcp.Description("Generate in oblique projection"), mcp.DefaultBool(false)),
			mcp.WithNumber("seed", mcp.Description("Seed for reproducible output"), mcp.Min(0)),
		},
		framesOutputOptions(),
	)
	return server.ServerTool{Tool: tool, Handler: t.animateWithSkeleton}
}

func (t *toolset) animateWithSkeleton(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args animateSkeletonArgs
	if err := t.bind(req, &args); err != nil {
		return nil, err
	}

	reference, err := imagefs.ReadPNG(args.ReferenceImagePath)
	if err != nil {
		return nil, err
	}
	size, err := t.sizeFromImage(args.Width, args.Height, reference, skeletonMinSize, skeletonMaxSize)
	if err != nil {
		return nil, err
	}

	apiReq := &pixellab.AnimateWithSkeletonRequest{
		ImageSize:      size,
		ReferenceImage: pixellab.NewBase64Image(reference),
		SkeletonKeypoints: gslice.Map(args.Poses, func(frame []keypointArg) []pixellab.Keypoint {
			return gslice.Map(frame, keypointArg.keypoint)
		}),
	}
	if err := copyArgs(apiReq, &args); err != nil {
		return nil, err
	}

	res, err := remote(ctx, t, NameAnimateWithSkeleton, func(ctx context.Context) (*pixellab.AnimationResult, error) {
		return t.client.AnimateWithSkeleton(ctx, apiReq)
	})
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("Animated %d frames at %s from skeleton keypoints. %s", len(res.Frames), size, costText(res.Usage))
	return finishFrames(ctx, summary, size, res, args.SaveToFile)
}
