package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kiosk404/pixelmind/internal/pixelmind/service/imagefs"
	"github.com/kiosk404/pixelmind/internal/pixelmind/service/pixellab"
	"github.com/kiosk404/pixelmind/internal/pkg/response"
	"github.com/kiosk404/pixelmind/pkg/errorx"
)

// Text animation only supports 64x64 frames.
const textAnimationSize = 64

const defaultFrameCount = 4

type animateTextArgs struct {
	Description         string  `json:"description" validate:"required"`
	Action              string  `json:"action" validate:"required"`
	ReferenceImagePath  string  `json:"reference_image_path" validate:"required"`
	NegativeDescription string  `json:"negative_description,omitempty"`
	View                string  `json:"view,omitempty" validate:"omitempty,view"`
	Direction           string  `json:"direction,omitempty" validate:"omitempty,direction"`
	NFrames             int     `json:"n_frames,omitempty" validate:"omitempty,min=2,max=20"`
	StartFrameIndex     int     `json:"start_frame_index,omitempty" validate:"min=0"`
	TextGuidanceScale   float64 `json:"text_guidance_scale,omitempty" validate:"omitempty,min=1,max=20"`
	ImageGuidanceScale  float64 `json:"image_guidance_scale,omitempty" validate:"omitempty,min=1,max=20"`
	Seed                *int    `json:"seed,omitempty" validate:"omitempty,min=0"`
	SaveToFile          string  `json:"save_to_file,omitempty"`
}

func (t *toolset) animateTextTool() server.ServerTool {
	tool := newTool(NameAnimateWithText,
		"Animate a 64x64 pixel art character performing an action described in text.",
		"Animate with text",
		[]mcp.ToolOption{
			mcp.WithString("description", mcp.Required(), mcp.Description("Description of the character")),
			mcp.WithString("action", mcp.Required(), mcp.Description("Action to animate, e.g. walk or attack")),
			mcp.WithString("reference_image_path", mcp.Required(), mcp.Description("64x64 PNG of the character")),
			mcp.WithString("negative_description", mcp.Description("What to avoid in the frames")),
			mcp.WithString("view", mcp.Description("Camera view"), mcp.Enum(pixellab.Views...)),
			mcp.WithString("direction", mcp.Description("Subject direction"), mcp.Enum(pixellab.Directions...)),
			mcp.WithNumber("n_frames", mcp.Description("Number of frames to generate"), mcp.Min(2), mcp.Max(20), mcp.DefaultNumber(defaultFrameCount)),
			mcp.WithNumber("start_frame_index", mcp.Description("Index of the first frame in the action cycle"), mcp.Min(0), mcp.DefaultNumber(0)),
			mcp.WithNumber("text_guidance_scale", mcp.Description("How closely to follow the description"), mcp.Min(1), mcp.Max(20), mcp.DefaultNumber(8)),
			mcp.WithNumber("image_guidance_scale", mcp.Description("How closely to follow the reference"), mcp.Min(1), mcp.Max(20), mcp.DefaultNumber(1.4)),
			mcp.WithNumber("seed", mcp.Description("Seed for reproducible output"), mcp.Min(0)),
		},
		framesOutputOptions(),
	)
	return server.ServerTool{Tool: tool, Handler: t.animateWithText}
}

func (t *toolset) animateWithText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args animateTextArgs
	if err := t.bind(req, &args); err != nil {
		return nil, err
	}
	if args.NFrames == 0 {
		args.NFrames = defaultFrameCount
	}

	reference, err := imagefs.ReadPNG(args.ReferenceImagePath)
	if err != nil {
		return nil, err
	}
	w, h, err := imagefs.Dimensions(reference)
	if err != nil {
		return nil, err
	}
	if w != textAnimationSize || h != textAnimationSize {
		return nil, errorx.Newf(errorx.KindLocal, "arguments",
			"reference image is %dx%d; animate_with_text needs %dx%d", w, h, textAnimationSize, textAnimationSize)
	}

	size := pixellab.ImageSize{Width: textAnimationSize, Height: textAnimationSize}
	apiReq := &pixellab.AnimateWithTextRequest{ImageSize: size, ReferenceImage: pixellab.NewBase64Image(reference)}
	if err := copyArgs(apiReq, &args); err != nil {
		return nil, err
	}

	res, err := remote(ctx, t, NameAnimateWithText, func(ctx context.Context) (*pixellab.AnimationResult, error) {
		return t.client.AnimateWithText(ctx, apiReq)
	})
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("Animated %q (%s) in %d frames at %s. %s", args.Action, args.Description, len(res.Frames), size, costText(res.Usage))
	return finishFrames(ctx, summary, size, res, args.SaveToFile)
}

func framesOutputOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("save_to_file", mcp.Description("Base PNG path; frame N is saved as <name>_frame<N>.png")),
	}
}

type framesMetadata struct {
	Frames  int            `json:"frames"`
	Size    string         `json:"size"`
	Usage   pixellab.Usage `json:"usage"`
	SavedTo []string       `json:"saved_to,omitempty"`
}

// finishFrames saves every frame when asked and shapes the response.
func finishFrames(ctx context.Context, summary string, size pixellab.ImageSize, res *pixellab.AnimationResult, saveTo string) (*mcp.CallToolResult, error) {
	meta := framesMetadata{Frames: len(res.Frames), Size: size.String(), Usage: res.Usage}
	if saveTo != "" {
		paths, err := imagefs.SaveFrames(ctx, saveTo, res.Frames)
		if err != nil {
			return nil, err
		}
		meta.SavedTo = paths
		summary += fmt.Sprintf("\nSaved %d frames to %s", len(paths), imagefs.FramePath(saveTo, 0))
		if len(paths) > 1 {
			summary += " ... " + paths[len(paths)-1]
		}
	}
	return response.Frames(summary, res.Frames, meta), nil
}
