// Package fake provides an in-memory pixellab.Client for tests.
package fake

import (
	"context"
	"sync"

	"github.com/kiosk404/pixelmind/internal/pixelmind/service/pixellab"
)

// Call records one invocation of the fake.
type Call struct {
	Method  string
	Request any
}

// Client is a scriptable pixellab.Client. Errors queued with FailNext are
// returned before any canned result. Zero-value canned results are returned
// when none are set.
type Client struct {
	mu    sync.Mutex
	calls []Call
	errs  map[string][]error

	Image     *pixellab.ImageResult
	Skeleton  *pixellab.SkeletonResult
	Animation *pixellab.AnimationResult
	Balance   *pixellab.Balance
}

var _ pixellab.Client = (*Client)(nil)

func New() *Client {
	return &Client{errs: make(map[string][]error)}
}

// FailNext queues errs for method, one per call.
func (c *Client) FailNext(method string, errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs[method] = append(c.errs[method], errs...)
}

// Calls returns a copy of the recorded calls.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// CallCount returns how many times method was invoked.
func (c *Client) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.Method == method {
			n++
		}
	}
	return n
}

func (c *Client) record(ctx context.Context, method string, req any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Method: method, Request: req})
	if err := ctx.Err(); err != nil {
		return err
	}
	if q := c.errs[method]; len(q) > 0 {
		c.errs[method] = q[1:]
		return q[0]
	}
	return nil
}

func (c *Client) image() *pixellab.ImageResult {
	if c.Image != nil {
		return c.Image
	}
	return &pixellab.ImageResult{}
}

func (c *Client) animation() *pixellab.AnimationResult {
	if c.Animation != nil {
		return c.Animation
	}
	return &pixellab.AnimationResult{}
}

func (c *Client) GenerateImagePixflux(ctx context.Context, req *pixellab.PixfluxRequest) (*pixellab.ImageResult, error) {
	if err := c.record(ctx, "GenerateImagePixflux", req); err != nil {
		return nil, err
	}
	return c.image(), nil
}

func (c *Client) GenerateImageBitforge(ctx context.Context, req *pixellab.BitforgeRequest) (*pixellab.ImageResult, error) {
	if err := c.record(ctx, "GenerateImageBitforge", req); err != nil {
		return nil, err
	}
	return c.image(), nil
}

func (c *Client) Rotate(ctx context.Context, req *pixellab.RotateRequest) (*pixellab.ImageResult, error) {
	if err := c.record(ctx, "Rotate", req); err != nil {
		return nil, err
	}
	return c.image(), nil
}

func (c *Client) Inpaint(ctx context.Context, req *pixellab.InpaintRequest) (*pixellab.ImageResult, error) {
	if err := c.record(ctx, "Inpaint", req); err != nil {
		return nil, err
	}
	return c.image(), nil
}

func (c *Client) EstimateSkeleton(ctx context.Context, req *pixellab.EstimateSkeletonRequest) (*pixellab.SkeletonResult, error) {
	if err := c.record(ctx, "EstimateSkeleton", req); err != nil {
		return nil, err
	}
	if c.Skeleton != nil {
		return c.Skeleton, nil
	}
	return &pixellab.SkeletonResult{}, nil
}

func (c *Client) AnimateWithSkeleton(ctx context.Context, req *pixellab.AnimateWithSkeletonRequest) (*pixellab.AnimationResult, error) {
	if err := c.record(ctx, "AnimateWithSkeleton", req); err != nil {
		return nil, err
	}
	return c.animation(), nil
}

func (c *Client) AnimateWithText(ctx context.Context, req *pixellab.AnimateWithTextRequest) (*pixellab.AnimationResult, error) {
	if err := c.record(ctx, "AnimateWithText", req); err != nil {
		return nil, err
	}
	return c.animation(), nil
}

func (c *Client) GetBalance(ctx context.Context) (*pixellab.Balance, error) {
	if err := c.record(ctx, "GetBalance", nil); err != nil {
		return nil, err
	}
	if c.Balance != nil {
		return c.Balance, nil
	}
	return &pixellab.Balance{Type: "usd"}, nil
}
