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

// StyleArgs are the look-and-feel options shared by the generation endpoints.
type StyleArgs struct {
	NegativeDescription string  `json:"negative_description,omitempty"`
	TextGuidanceScale   float64 `json:"text_guidance_scale,omitempty" validate:"omitempty,min=1,max=20"`
	Outline             string  `json:"outline,omitempty" validate:"omitempty,outline"`
	Shading             string  `json:"shading,omitempty" validate:"omitempty,shading"`
	Detail              string  `json:"detail,omitempty" validate:"omitempty,detail"`
	View                string  `json:"view,omitempty" validate:"omitempty,view"`
	Direction           string  `json:"direction,omitempty" validate:"omitempty,direction"`
	Isometric           bool    `json:"isometric,omitempty"`
	NoBackground        bool    `json:"no_background,omitempty"`
	Seed                *int    `json:"seed,omitempty" validate:"omitempty,min=0"`
}

type pixfluxArgs struct {
	Description       string `json:"description" validate:"required"`
	Width             int    `json:"width" validate:"required,min=32,max=400"`
	Height            int    `json:"height" validate:"required,min=32,max=400"`
	InitImagePath     string `json:"init_image_path,omitempty"`
	InitImageStrength int    `json:"init_image_strength,omitempty" validate:"omitempty,min=1,max=999"`
	StyleArgs
	OutputArgs
}

type bitforgeArgs struct {
	Description        string  `json:"description" validate:"required"`
	Width              int     `json:"width" validate:"required,min=16,max=200"`
	Height             int     `json:"height" validate:"required,min=16,max=200"`
	StyleImagePath     string  `json:"style_image_path,omitempty"`
	StyleStrength      float64 `json:"style_strength,omitempty" validate:"omitempty,min=0,max=100"`
	ExtraGuidanceScale float64 `json:"extra_guidance_scale,omitempty" validate:"omitempty,min=0,max=20"`
	ObliqueProjection  bool    `json:"oblique_projection,omitempty"`
	InitImagePath      string  `json:"init_image_path,omitempty"`
	InitImageStrength  int     `json:"init_image_strength,omitempty" validate:"omitempty,min=1,max=999"`
	StyleArgs
	OutputArgs
}

// styleOptions declares the schema of StyleArgs.
func styleOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("negative_description", mcp.Description("What to avoid in the image")),
		mcp.WithNumber("text_guidance_scale", mcp.Description("How closely to follow the description"), mcp.Min(1), mcp.Max(20), mcp.DefaultNumber(8)),
		mcp.WithString("outline", mcp.Description("Outline style"), mcp.Enum(pixellab.Outlines...)),
		mcp.WithString("shading", mcp.Description("Shading style"), mcp.Enum(pixellab.Shadings...)),
		mcp.WithString("detail", mcp.Description("Detail level"), mcp.Enum(pixellab.Details...)),
		mcp.WithString("view", mcp.Description("Camera view"), mcp.Enum(pixellab.Views...)),
		mcp.WithString("direction", mcp.Description("Subject direction"), mcp.Enum(pixellab.Directions...)),
		mcp.WithBoolean("isometric", mcp.Description("Generate in isometric view"), mcp.DefaultBool(false)),
		mcp.WithBoolean("no_background", mcp.Description("Generate with a transparent background"), mcp.DefaultBool(false)),
		mcp.WithNumber("seed", mcp.Description("Seed for reproducible output"), mcp.Min(0)),
	}
}

// outputOptions declares the schema of OutputArgs.
func outputOptions(show bool) []mcp.ToolOption {
	opts := []mcp.ToolOption{
		mcp.WithString("save_to_file", mcp.Description("Path to save the generated PNG to")),
	}
	if show {
		opts = append(opts, mcp.WithBoolean("show_image", mcp.Description("Embed the image in the response"), mcp.DefaultBool(true)))
	}
	return opts
}

func generationAnnotations(title string) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithTitleAnnotation(title),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	}
}

func newTool(name, description, title string, groups ...[]mcp.ToolOption) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(description)}
	for _, g := range groups {
		opts = append(opts, g...)
	}
	opts = append(opts, generationAnnotations(title)...)
	return mcp.NewTool(name, opts...)
}

func (t *toolset) pixfluxTool() server.ServerTool {
	tool := newTool(NameGeneratePixflux,
		"Generate a pixel art image from a text description (pixflux model).",
		"Generate pixel art",
		[]mcp.ToolOption{
			mcp.WithString("description", mcp.Required(), mcp.Description("Text description of the image")),
			mcp.WithNumber("width", mcp.Required(), mcp.Description("Image width in pixels"), mcp.Min(32), mcp.Max(400)),
			mcp.WithNumber("height", mcp.Required(), mcp.Description("Image height in pixels"), mcp.Min(32), mcp.Max(400)),
			mcp.WithString("init_image_path", mcp.Description("PNG to start generation from")),
			mcp.WithNumber("init_image_strength", mcp.Description("Influence of the init image"), mcp.Min(1), mcp.Max(999), mcp.DefaultNumber(300)),
		},
		styleOptions(),
		outputOptions(true),
	)
	return server.ServerTool{Tool: tool, Handler: t.generatePixflux}
}

func (t *toolset) generatePixflux(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args pixfluxArgs
	if err := t.bind(req, &args); err != nil {
		return nil, err
	}

	apiReq := &pixellab.PixfluxRequest{ImageSize: pixellab.ImageSize{Width: args.Width, Height: args.Height}}
	if err := copyArgs(apiReq, &args); err != nil {
		return nil, err
	}
	var err error
	if apiReq.InitImage, err = readOptional(args.InitImagePath); err != nil {
		return nil, err
	}

	res, err := remote(ctx, t, NameGeneratePixflux, func(ctx context.Context) (*pixellab.ImageResult, error) {
		return t.client.GenerateImagePixflux(ctx, apiReq)
	})
	if err != nil {
		return nil, err
	}
	return finishImage("pixflux", args.Description, apiReq.ImageSize, res, args.OutputArgs)
}

func (t *toolset) bitforgeTool() server.ServerTool {
	tool := newTool(NameGenerateBitforge,
		"Generate a pixel art image from a text description, optionally matching the style of a reference image (bitforge model).",
		"Generate pixel art with style",
		[]mcp.ToolOption{
			mcp.WithString("description", mcp.Required(), mcp.Description("Text description of the image")),
			mcp.WithNumber("width", mcp.Required(), mcp.Description("Image width in pixels"), mcp.Min(16), mcp.Max(200)),
			mcp.WithNumber("height", mcp.Required(), mcp.Description("Image height in pixels"), mcp.Min(16), mcp.Max(200)),
			mcp.WithString("style_image_path", mcp.Description("PNG whose style should be matched")),
			mcp.WithNumber("style_strength", mcp.Description("Strength of the style transfer"), mcp.Min(0), mcp.Max(100), mcp.DefaultNumber(0)),
			mcp.WithNumber("extra_guidance_scale", mcp.Description("Guidance towards the style image"), mcp.Min(0), mcp.Max(20), mcp.DefaultNumber(3)),
			mcp.WithBoolean("oblique_projection", mcp.Description("Generate in oblique projection"), mcp.DefaultBool(false)),
			mcp.WithString("init_image_path", mcp.Description("PNG to start generation from")),
			mcp.WithNumber("init_image_strength", mcp.Description("Influence of the init image"), mcp.Min(1), mcp.Max(999), mcp.DefaultNumber(300)),
		},
		styleOptions(),
		outputOptions(true),
	)
	return server.ServerTool{Tool: tool, Handler: t.generateBitforge}
}

func (t *toolset) generateBitforge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args bitforgeArgs
	if err := t.bind(req, &args); err != nil {
		return nil, err
	}

	apiReq := &pixellab.BitforgeRequest{ImageSize: pixellab.ImageSize{Width: args.Width, Height: args.Height}}
	if err := copyArgs(apiReq, &args); err != nil {
		return nil, err
	}
	var err error
	if apiReq.StyleImage, err = readOptional(args.StyleImagePath); err != nil {
		return nil, err
	}
	if apiReq.InitImage, err = readOptional(args.InitImagePath); err != nil {
		return nil, err
	}

	res, err := remote(ctx, t, NameGenerateBitforge, func(ctx context.Context) (*pixellab.ImageResult, error) {
		return t.client.GenerateImageBitforge(ctx, apiReq)
	})
	if err != nil {
		return nil, err
	}
	return finishImage("bitforge", args.Description, apiReq.ImageSize, res, args.OutputArgs)
}

type imageMetadata struct {
	Model       string         `json:"model"`
	Description string         `json:"description"`
	Size        string         `json:"size"`
	Usage       pixellab.Usage `json:"usage"`
	SavedTo     string         `json:"saved_to,omitempty"`
}

// finishImage saves the generated image when asked and shapes the response.
func finishImage(model, description string, size pixellab.ImageSize, res *pixellab.ImageResult, out OutputArgs) (*mcp.CallToolResult, error) {
	summary := fmt.Sprintf("Generated %s pixel art with %s: %q. %s", size, model, description, costText(res.Usage))
	if out.SaveToFile != "" {
		if err := imagefs.Save(out.SaveToFile, res.Image); err != nil {
			return nil, err
		}
		summary += "\nSaved to " + out.SaveToFile
	}
	var image []byte
	if out.showImage() {
		image = res.Image
	}
	meta := imageMetadata{
		Model:       model,
		Description: description,
		Size:        size.String(),
		Usage:       res.Usage,
		SavedTo:     out.SaveToFile,
	}
	return response.Build(summary, image, meta), nil
}
