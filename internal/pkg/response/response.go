// Package response turns tool outcomes into MCP content lists.
//
// All constructors are pure and never panic. Item order is fixed:
//
//	Build:      summary, [image], [metadata]
//	Comparison: summary, "Before:", before, "After:", after, [metadata]
//	Frames:     summary, ("Frame i:", frame i)..., [metadata]
//	Error:      "Error: <message>"
package response

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/kiosk404/pixelmind/pkg/utils/json"
	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultImageMIME is used when the payload is not recognisable as an image.
// The remote API only produces PNG.
const DefaultImageMIME = "image/png"

// Build returns the summary, then the image when image is non-nil, then the
// metadata as indented JSON when metadata is non-nil.
func Build(summary string, image []byte, metadata any) *mcp.CallToolResult {
	content := []mcp.Content{mcp.NewTextContent(summary)}
	if image != nil {
		content = append(content, Image(image))
	}
	if metadata != nil {
		content = append(content, Metadata(metadata))
	}
	return &mcp.CallToolResult{Content: content}
}

// Comparison presents an input image and the transformed output together.
func Comparison(summary string, before, after []byte, metadata any) *mcp.CallToolResult {
	content := []mcp.Content{
		mcp.NewTextContent(summary),
		mcp.NewTextContent("Before:"),
		Image(before),
		mcp.NewTextContent("After:"),
		Image(after),
	}
	if metadata != nil {
		content = append(content, Metadata(metadata))
	}
	return &mcp.CallToolResult{Content: content}
}

// Frames presents an animation as one labelled image per frame.
func Frames(summary string, frames [][]byte, metadata any) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, 1+2*len(frames)+1)
	content = append(content, mcp.NewTextContent(summary))
	for i, f := range frames {
		content = append(content, mcp.NewTextContent(fmt.Sprintf("Frame %d:", i)), Image(f))
	}
	if metadata != nil {
		content = append(content, Metadata(metadata))
	}
	return &mcp.CallToolResult{Content: content}
}

// Image embeds raw image bytes with the mime type of their actual encoding.
func Image(data []byte) mcp.ImageContent {
	return mcp.NewImageContent(base64.StdEncoding.EncodeToString(data), DetectMIME(data))
}

// DetectMIME sniffs data and falls back to DefaultImageMIME for anything
// that is not an image.
func DetectMIME(data []byte) string {
	m := mimetype.Detect(data)
	if m != nil && strings.HasPrefix(m.String(), "image/") {
		return m.String()
	}
	return DefaultImageMIME
}

// Metadata renders v as indented JSON. Values that cannot be encoded are
// reported in text rather than failing the whole response.
func Metadata(v any) mcp.TextContent {
	text, err := prettyJSON(v)
	if err != nil {
		return mcp.NewTextContent(fmt.Sprintf("(metadata unavailable: %v)", err))
	}
	return mcp.NewTextContent(text)
}

func prettyJSON(v any) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("encode metadata: %v", r)
		}
	}()
	if hasCycle(v) {
		return "", errCyclic
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
