// Package pixellab is the HTTP client for the PixelLab pixel-art API.
package pixellab

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kiosk404/pixelmind/pkg/errorx"
	"github.com/kiosk404/pixelmind/pkg/logger"
	"github.com/kiosk404/pixelmind/pkg/utils/json"
)

const (
	DefaultBaseURL = "https://api.pixellab.ai/v1"
	DefaultTimeout = 180 * time.Second

	maxErrorBody = 64 << 10
)

// Client is the set of remote operations the tools consume.
type Client interface {
	GenerateImagePixflux(ctx context.Context, req *PixfluxRequest) (*ImageResult, error)
	GenerateImageBitforge(ctx context.Context, req *BitforgeRequest) (*ImageResult, error)
	Rotate(ctx context.Context, req *RotateRequest) (*ImageResult, error)
	Inpaint(ctx context.Context, req *InpaintRequest) (*ImageResult, error)
	EstimateSkeleton(ctx context.Context, req *EstimateSkeletonRequest) (*SkeletonResult, error)
	AnimateWithSkeleton(ctx context.Context, req *AnimateWithSkeletonRequest) (*AnimationResult, error)
	AnimateWithText(ctx context.Context, req *AnimateWithTextRequest) (*AnimationResult, error)
	GetBalance(ctx context.Context) (*Balance, error)
}

// Config configures HTTPClient.
type Config struct {
	BaseURL    string
	Secret     string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// HTTPClient talks to the API over HTTPS with bearer authentication.
type HTTPClient struct {
	baseURL   string
	secret    string
	userAgent string
	http      *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewClient creates a client. The secret is required.
func NewClient(cfg Config) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("pixellab: API secret is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secret:    cfg.Secret,
		userAgent: cfg.UserAgent,
		http:      httpClient,
	}, nil
}

func (c *HTTPClient) GenerateImagePixflux(ctx context.Context, req *PixfluxRequest) (*ImageResult, error) {
	return c.image(ctx, "generate-image-pixflux", "/generate-image-pixflux", req)
}

func (c *HTTPClient) GenerateImageBitforge(ctx context.Context, req *BitforgeRequest) (*ImageResult, error) {
	return c.image(ctx, "generate-image-bitforge", "/generate-image-bitforge", req)
}

func (c *HTTPClient) Rotate(ctx context.Context, req *RotateRequest) (*ImageResult, error) {
	return c.image(ctx, "rotate", "/rotate", req)
}

func (c *HTTPClient) Inpaint(ctx context.Context, req *InpaintRequest) (*ImageResult, error) {
	return c.image(ctx, "inpaint", "/inpaint", req)
}

func (c *HTTPClient) EstimateSkeleton(ctx context.Context, req *EstimateSkeletonRequest) (*SkeletonResult, error) {
	var out skeletonResponse
	if err := c.do(ctx, "estimate-skeleton", http.MethodPost, "/estimate-skeleton", req, &out); err != nil {
		return nil, err
	}
	return &SkeletonResult{Keypoints: out.Keypoints, Usage: out.Usage}, nil
}

func (c *HTTPClient) AnimateWithSkeleton(ctx context.Context, req *AnimateWithSkeletonRequest) (*AnimationResult, error) {
	return c.animation(ctx, "animate-with-skeleton", "/animate-with-skeleton", req)
}

func (c *HTTPClient) AnimateWithText(ctx context.Context, req *AnimateWithTextRequest) (*AnimationResult, error) {
	return c.animation(ctx, "animate-with-text", "/animate-with-text", req)
}

func (c *HTTPClient) GetBalance(ctx context.Context) (*Balance, error) {
	var out Balance
	if err := c.do(ctx, "balance", http.MethodGet, "/balance", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) image(ctx context.Context, op, path string, body any) (*ImageResult, error) {
	var out imageResponse
	if err := c.do(ctx, op, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	data, err := out.Image.Decode()
	if err != nil {
		return nil, errorx.Wrap(errorx.KindTerminal, op, err, "decode image")
	}
	return &ImageResult{Image: data, Usage: out.Usage}, nil
}

func (c *HTTPClient) animation(ctx context.Context, op, path string, body any) (*AnimationResult, error) {
	var out imagesResponse
	if err := c.do(ctx, op, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	frames := make([][]byte, 0, len(out.Images))
	for i, img := range out.Images {
		data, err := img.Decode()
		if err != nil {
			return nil, errorx.Wrap(errorx.KindTerminal, op, err, fmt.Sprintf("decode frame %d", i))
		}
		frames = append(frames, data)
	}
	return &AnimationResult{Frames: frames, Usage: out.Usage}, nil
}

// do sends one request and decodes a 2xx JSON body into out. Every failure
// is returned as an *errorx.Error.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errorx.Wrap(errorx.KindLocal, op, err, "marshal request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errorx.Wrap(errorx.KindLocal, op, err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("[PixelLab] %s %s failed after %s: %v", method, path, time.Since(start), err)
		return errorx.Wrap(errorx.KindTerminal, op, err, "request failed")
	}
	defer resp.Body.Close()
	logger.Debug("[PixelLab] %s %s -> %d (%s)", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errorx.FromStatus(op, resp.StatusCode, errorDetail(raw))
	}

	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorx.Wrap(errorx.KindTerminal, op, err, "read response")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errorx.Wrap(errorx.KindTerminal, op, err, "decode response")
	}
	return nil
}

// errorDetail extracts the human-readable part of an API error body. The API
// returns {"detail": "..."} or a list of validation issues under "detail".
func errorDetail(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Detail == nil {
		return strings.TrimSpace(string(raw))
	}
	switch d := body.Detail.(type) {
	case string:
		return d
	case []any:
		parts := make([]string, 0, len(d))
		for _, item := range d {
			parts = append(parts, validationIssue(item))
		}
		return strings.Join(parts, "; ")
	default:
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Sprint(d)
		}
		return string(data)
	}
}

func validationIssue(item any) string {
	m, ok := item.(map[string]any)
	if !ok {
		return fmt.Sprint(item)
	}
	msg, _ := m["msg"].(string)
	loc, ok := m["loc"].([]any)
	if !ok || len(loc) == 0 {
		return msg
	}
	fields := make([]string, 0, len(loc))
	for _, l := range loc {
		if s := fmt.Sprint(l); s != "body" {
			fields = append(fields, s)
		}
	}
	if len(fields) == 0 {
		return msg
	}
	return strings.Join(fields, ".") + ": " + msg
}
