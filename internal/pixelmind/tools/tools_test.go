package tools_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiosk404/pixelmind/internal/pixelmind/service/pixellab"
	"github.com/kiosk404/pixelmind/internal/pixelmind/service/pixellab/fake"
	"github.com/kiosk404/pixelmind/internal/pixelmind/tools"
	"github.com/kiosk404/pixelmind/internal/pkg/retry"
	"github.com/kiosk404/pixelmind/pkg/errorx"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, pngBytes(t, w, h), 0o644))
	return path
}

func testPolicy() retry.Policy {
	return retry.Policy{MaxRetries: 3, BaseDelay: time.Millisecond, Multiplier: 2}
}

type harness struct {
	client *fake.Client
	tools  map[string]server.ServerTool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fc := fake.New()
	defs, err := tools.Tools(tools.Deps{Client: fc, Policy: testPolicy()})
	require.NoError(t, err)
	h := &harness{client: fc, tools: make(map[string]server.ServerTool, len(defs))}
	for _, d := range defs {
		h.tools[d.Tool.Name] = d
	}
	return h
}

func (h *harness) call(t *testing.T, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	def, ok := h.tools[name]
	require.True(t, ok, "tool %s not registered", name)
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := def.Handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, c mcp.Content) string {
	t.Helper()
	tc, ok := mcp.AsTextContent(c)
	require.True(t, ok, "expected text content, got %T", c)
	return tc.Text
}

func requireError(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.True(t, res.IsError)
	require.Len(t, res.Content, 1)
	msg := text(t, res.Content[0])
	require.True(t, strings.HasPrefix(msg, "Error: "), msg)
	return msg
}

func TestTools_Names(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	for _, name := range []string{
		tools.NameGetBalance,
		tools.NameGeneratePixflux,
		tools.NameGenerateBitforge,
		tools.NameRotateCharacter,
		tools.NameInpaintImage,
		tools.NameEstimateSkeleton,
		tools.NameAnimateWithSkeleton,
		tools.NameAnimateWithText,
	} {
		assert.Contains(t, h.tools, name)
	}
	assert.Len(t, h.tools, 8)
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	catalog := tools.Catalog()
	require.Len(t, catalog, len(h.tools))
	for _, tool := range catalog {
		assert.Contains(t, h.tools, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
	}
}

func TestTools_RequiresClientAndValidPolicy(t *testing.T) {
	t.Parallel()

	_, err := tools.Tools(tools.Deps{Policy: testPolicy()})
	require.Error(t, err)

	_, err = tools.Tools(tools.Deps{Client: fake.New(), Policy: retry.Policy{BaseDelay: time.Second, Multiplier: 3}})
	require.Error(t, err)
}

func TestGetBalance(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.client.Balance = &pixellab.Balance{Type: "usd", USD: 12.5}

	res := h.call(t, tools.NameGetBalance, nil)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 2)
	assert.Equal(t, "PixelLab balance: $12.50", text(t, res.Content[0]))
	assert.Contains(t, text(t, res.Content[1]), `"usd": 12.5`)
}

func TestGetBalance_NotRetried(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.client.FailNext("GetBalance", errorx.FromStatus("balance", 429, "slow down"))

	msg := requireError(t, h.call(t, tools.NameGetBalance, nil))
	assert.Equal(t, "Error: slow down", msg)
	assert.Equal(t, 1, h.client.CallCount("GetBalance"))
}

func TestGeneratePixflux(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	img := pngBytes(t, 64, 64)
	h.client.Image = &pixellab.ImageResult{Image: img, Usage: pixellab.Usage{Type: "usd", USD: 0.01}}
	out := filepath.Join(t.TempDir(), "out", "knight.png")

	res := h.call(t, tools.NameGeneratePixflux, map[string]any{
		"description":  "a knight",
		"width":        64,
		"height":       64,
		"outline":      "lineless",
		"seed":         7,
		"save_to_file": out,
	})
	require.False(t, res.IsError, res.Content)
	require.Len(t, res.Content, 3)
	summary := text(t, res.Content[0])
	assert.Contains(t, summary, "64x64")
	assert.Contains(t, summary, "Saved to "+out)

	ic, ok := mcp.AsImageContent(res.Content[1])
	require.True(t, ok)
	assert.Equal(t, "image/png", ic.MIMEType)
	assert.Contains(t, text(t, res.Content[2]), `"model": "pixflux"`)

	saved, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, img, saved)

	calls := h.client.Calls()
	require.Len(t, calls, 1)
	req := calls[0].Request.(*pixellab.PixfluxRequest)
	assert.Equal(t, "a knight", req.Description)
	assert.Equal(t, pixellab.ImageSize{Width: 64, Height: 64}, req.ImageSize)
	assert.Equal(t, "lineless", req.Outline)
	require.NotNil(t, req.Seed)
	assert.Equal(t, 7, *req.Seed)
}

func TestGeneratePixflux_HideImage(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.client.Image = &pixellab.ImageResult{Image: pngBytes(t, 32, 32)}

	res := h.call(t, tools.NameGeneratePixflux, map[string]any{
		"description": "tree", "width": 32, "height": 32, "show_image": false,
	})
	require.False(t, res.IsError)
	require.Len(t, res.Content, 2)
	for _, c := range res.Content {
		_, isImage := mcp.AsImageContent(c)
		assert.False(t, isImage)
	}
}

func TestGeneratePixflux_InvalidArguments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args map[string]any
		want []string
	}{
		{
			name: "too small",
			args: map[string]any{"description": "x", "width": 10, "height": 64},
			want: []string{"width must be at least 32"},
		},
		{
			name: "missing fields",
			args: map[string]any{},
			want: []string{"description is required", "width is required", "height is required"},
		},
		{
			name: "bad enum",
			args: map[string]any{"description": "x", "width": 64, "height": 64, "direction": "up"},
			want: []string{"direction must be one of: south"},
		},
		{
			name: "wrong type",
			args: map[string]any{"description": "x", "width": "wide", "height": 64},
			want: []string{"invalid arguments"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			msg := requireError(t, h.call(t, tools.NameGeneratePixflux, tt.args))
			for _, w := range tt.want {
				assert.Contains(t, msg, w)
			}
			assert.Empty(t, h.client.Calls())
		})
	}
}

func TestGenerate_RetriesRateLimit(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.client.Image = &pixellab.ImageResult{Image: pngBytes(t, 32, 32)}
	h.client.FailNext("GenerateImageBitforge",
		errorx.FromStatus("generate-image-bitforge", 429, ""),
		errorx.FromStatus("generate-image-bitforge", 400, "Please wait longer between generations"),
	)

	res := h.call(t, tools.NameGenerateBitforge, map[string]any{"description": "sword", "width": 32, "height": 32})
	require.False(t, res.IsError)
	assert.Equal(t, 3, h.client.CallCount("GenerateImageBitforge"))
}

func TestGenerate_TerminalErrorNotRetried(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.client.FailNext("GenerateImageBitforge", errorx.FromStatus("generate-image-bitforge", 401, ""))

	msg := requireError(t, h.call(t, tools.NameGenerateBitforge, map[string]any{"description": "sword", "width": 32, "height": 32}))
	assert.Equal(t, "Error: authentication failed: check the API secret", msg)
	assert.Equal(t, 1, h.client.CallCount("GenerateImageBitforge"))
}

func TestGenerateBitforge_StyleImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	style := writePNG(t, dir, "style.png", 16, 16)
	h := newHarness(t)
	h.client.Image = &pixellab.ImageResult{Image: pngBytes(t, 32, 32)}

	res := h.call(t, tools.NameGenerateBitforge, map[string]any{
		"description": "sword", "width": 32, "height": 32,
		"style_image_path": style, "style_strength": 40,
	})
	require.False(t, res.IsError)

	req := h.client.Calls()[0].Request.(*pixellab.BitforgeRequest)
	require.NotNil(t, req.StyleImage)
	assert.Equal(t, "base64", req.StyleImage.Type)
	assert.Equal(t, 40.0, req.StyleStrength)
	assert.Nil(t, req.InitImage)

	missing := h.call(t, tools.NameGenerateBitforge, map[string]any{
		"description": "sword", "width": 32, "height": 32,
		"style_image_path": filepath.Join(dir, "nope.png"),
	})
	assert.Contains(t, requireError(t, missing), "image file not found")
}

func TestRotateCharacter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writePNG(t, dir, "hero.png", 32, 48)
	h := newHarness(t)
	h.client.Image = &pixellab.ImageResult{Image: pngBytes(t, 32, 48)}

	res := h.call(t, tools.NameRotateCharacter, map[string]any{
		"image_path":     input,
		"from_direction": "south",
		"to_direction":   "east",
	})
	require.False(t, res.IsError)
	require.Len(t, res.Content, 6)

	summary := text(t, res.Content[0])
	assert.Contains(t, summary, "south")
	assert.Contains(t, summary, "east")
	assert.Equal(t, "Before:", text(t, res.Content[1]))
	assert.Equal(t, "After:", text(t, res.Content[3]))
	for _, i := range []int{2, 4} {
		_, ok := mcp.AsImageContent(res.Content[i])
		assert.True(t, ok)
	}

	req := h.client.Calls()[0].Request.(*pixellab.RotateRequest)
	assert.Equal(t, pixellab.ImageSize{Width: 32, Height: 48}, req.ImageSize)
	assert.Equal(t, "south", req.FromDirection)
	assert.Equal(t, "east", req.ToDirection)
	assert.Equal(t, pixellab.ViewSide, req.FromView)
}

func TestRotateCharacter_InputTooLarge(t *testing.T) {
	t.Parallel()

	input := writePNG(t, t.TempDir(), "big.png", 300, 300)
	h := newHarness(t)

	msg := requireError(t, h.call(t, tools.NameRotateCharacter, map[string]any{
		"image_path": input, "from_direction": "south", "to_direction": "west",
	}))
	assert.Contains(t, msg, "300x300")
	assert.Empty(t, h.client.Calls())
}

func TestInpaintImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writePNG(t, dir, "in.png", 40, 40)
	mask := writePNG(t, dir, "mask.png", 40, 40)
	out := filepath.Join(dir, "edited.png")
	h := newHarness(t)
	h.client.Image = &pixellab.ImageResult{Image: pngBytes(t, 40, 40)}

	res := h.call(t, tools.NameInpaintImage, map[string]any{
		"description":           "a red hat",
		"inpainting_image_path": input,
		"mask_image_path":       mask,
		"save_to_file":          out,
	})
	require.False(t, res.IsError)
	require.Len(t, res.Content, 6)
	assert.FileExists(t, out)

	req := h.client.Calls()[0].Request.(*pixellab.InpaintRequest)
	assert.Equal(t, pixellab.ImageSize{Width: 40, Height: 40}, req.ImageSize)
	assert.NotNil(t, req.MaskImage)
	assert.Equal(t, "a red hat", req.Description)
}

func TestInpaintImage_MaskNotPNG(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writePNG(t, dir, "in.png", 40, 40)
	mask := filepath.Join(dir, "mask.txt")
	require.NoError(t, os.WriteFile(mask, []byte("hello"), 0o644))
	h := newHarness(t)

	msg := requireError(t, h.call(t, tools.NameInpaintImage, map[string]any{
		"description": "x", "inpainting_image_path": input, "mask_image_path": mask,
	}))
	assert.Contains(t, msg, "not a PNG image")
}

func TestEstimateSkeleton(t *testing.T) {
	t.Parallel()

	input := writePNG(t, t.TempDir(), "hero.png", 64, 64)
	h := newHarness(t)
	h.client.Skeleton = &pixellab.SkeletonResult{Keypoints: []pixellab.Keypoint{
		{X: 32, Y: 10, Label: "NOSE"},
		{X: 32, Y: 20, Label: "NECK", ZIndex: 1},
	}}

	res := h.call(t, tools.NameEstimateSkeleton, map[string]any{"image_path": input})
	require.False(t, res.IsError)
	require.Len(t, res.Content, 2)
	summary := text(t, res.Content[0])
	assert.Contains(t, summary, "Estimated 2 skeleton keypoints")
	assert.Contains(t, summary, "- NOSE: (32.0, 10.0)")
	assert.Contains(t, text(t, res.Content[1]), `"label": "NECK"`)
}

func TestAnimateWithSkeleton(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ref := writePNG(t, dir, "hero.png", 64, 64)
	h := newHarness(t)
	h.client.Animation = &pixellab.AnimationResult{Frames: [][]byte{pngBytes(t, 64, 64), pngBytes(t, 64, 64)}}

	pose := []map[string]any{{"x": 32, "y": 10, "label": "NOSE"}, {"x": 32, "y": 20, "label": "NECK"}}
	res := h.call(t, tools.NameAnimateWithSkeleton, map[string]any{
		"reference_image_path": ref,
		"skeleton_keypoints":   []any{pose, pose},
	})
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1+2*2+1)
	assert.Equal(t, "Frame 1:", text(t, res.Content[3]))

	req := h.client.Calls()[0].Request.(*pixellab.AnimateWithSkeletonRequest)
	require.Len(t, req.SkeletonKeypoints, 2)
	assert.Equal(t, pixellab.Keypoint{X: 32, Y: 20, Label: "NECK"}, req.SkeletonKeypoints[1][1])
	assert.Equal(t, pixellab.ImageSize{Width: 64, Height: 64}, req.ImageSize)
}

func TestAnimateWithSkeleton_InvalidKeypoint(t *testing.T) {
	t.Parallel()

	ref := writePNG(t, t.TempDir(), "hero.png", 64, 64)
	h := newHarness(t)

	msg := requireError(t, h.call(t, tools.NameAnimateWithSkeleton, map[string]any{
		"reference_image_path": ref,
		"skeleton_keypoints":   []any{[]map[string]any{{"x": 1, "y": 1, "label": "TAIL"}}},
	}))
	assert.Contains(t, msg, "skeleton_keypoints[0][0].label must be one of")
	assert.Empty(t, h.client.Calls())
}

func TestAnimateWithText_SavesFrames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ref := writePNG(t, dir, "hero.png", 64, 64)
	out := filepath.Join(dir, "out.png")
	frames := [][]byte{pngBytes(t, 64, 64), pngBytes(t, 64, 64), pngBytes(t, 64, 64)}
	h := newHarness(t)
	h.client.Animation = &pixellab.AnimationResult{Frames: frames}

	res := h.call(t, tools.NameAnimateWithText, map[string]any{
		"description":          "knight",
		"action":               "walk",
		"reference_image_path": ref,
		"n_frames":             3,
		"save_to_file":         out,
	})
	require.False(t, res.IsError, res.Content)
	require.Len(t, res.Content, 1+2*3+1)

	for i, name := range []string{"out_frame0.png", "out_frame1.png", "out_frame2.png"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, frames[i], data)
	}

	req := h.client.Calls()[0].Request.(*pixellab.AnimateWithTextRequest)
	assert.Equal(t, 3, req.NFrames)
	assert.Equal(t, "walk", req.Action)
	assert.Equal(t, pixellab.ImageSize{Width: 64, Height: 64}, req.ImageSize)
}

func TestAnimateWithText_Arguments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ref := writePNG(t, dir, "hero.png", 64, 64)
	small := writePNG(t, dir, "small.png", 32, 32)

	h := newHarness(t)
	msg := requireError(t, h.call(t, tools.NameAnimateWithText, map[string]any{
		"description": "k", "action": "walk", "reference_image_path": small,
	}))
	assert.Contains(t, msg, "needs 64x64")

	msg = requireError(t, h.call(t, tools.NameAnimateWithText, map[string]any{
		"description": "k", "action": "walk", "reference_image_path": ref, "n_frames": 30,
	}))
	assert.Contains(t, msg, "n_frames must be at most 20")

	h.client.Animation = &pixellab.AnimationResult{}
	res := h.call(t, tools.NameAnimateWithText, map[string]any{
		"description": "k", "action": "walk", "reference_image_path": ref,
	})
	require.False(t, res.IsError)
	assert.Equal(t, 4, h.client.Calls()[0].Request.(*pixellab.AnimateWithTextRequest).NFrames)
}

func TestWrap(t *testing.T) {
	t.Parallel()

	var seen string
	panicky := tools.Wrap("boom", func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		seen = tools.CallID(ctx)
		panic("kaboom")
	})
	res, err := panicky(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Error: kaboom", requireError(t, res))
	assert.NotEmpty(t, seen)

	empty := tools.Wrap("empty", func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, nil
	})
	res, err = empty(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.Contains(t, requireError(t, res), "empty produced no result")
}

func TestRegister_InProcessClient(t *testing.T) {
	t.Parallel()

	fc := fake.New()
	fc.Balance = &pixellab.Balance{Type: "usd", USD: 3}
	s := server.NewMCPServer("pixelmind-test", "0.0.0", server.WithToolCapabilities(false))
	require.NoError(t, tools.Register(s, tools.Deps{Client: fc, Policy: testPolicy()}))

	ctx := context.Background()
	c, err := client.NewInProcessClient(s)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Start(ctx))

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "test", Version: "1.0.0"}
	_, err = c.Initialize(ctx, initReq)
	require.NoError(t, err)

	list, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Tools, 8)

	callReq := mcp.CallToolRequest{}
	callReq.Params.Name = tools.NameGetBalance
	res, err := c.CallTool(ctx, callReq)
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "PixelLab balance: $3.00", text(t, res.Content[0]))
}
