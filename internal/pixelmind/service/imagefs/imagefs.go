// Package imagefs reads tool input images from disk and saves results.
package imagefs

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/kiosk404/pixelmind/pkg/errorx"
)

const (
	pngMIME  = "image/png"
	fileMode = 0o644
	dirMode  = 0o755
)

// ReadPNG loads path and checks that it holds PNG data.
func ReadPNG(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errorx.New(errorx.KindLocal, "read", "image path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errorx.Newf(errorx.KindLocal, "read", "image file not found: %s", path)
		}
		return nil, errorx.Local("read", err, "read image "+path)
	}
	if mt := mimetype.Detect(data); !mt.Is(pngMIME) {
		return nil, errorx.Newf(errorx.KindLocal, "read", "%s is not a PNG image (detected %s)", path, mt.String())
	}
	return data, nil
}

// Dimensions returns the pixel size recorded in a PNG header.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, errorx.Local("decode", err, "read PNG dimensions")
	}
	return cfg.Width, cfg.Height, nil
}

// Save writes data to path, creating parent directories.
func Save(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return errorx.Local("save", err, "create directory "+dir)
		}
	}
	if err := os.WriteFile(path, data, fileMode); err != nil {
		return errorx.Local("save", err, "write "+path)
	}
	return nil
}

// FramePath derives the file name of frame i: "out.png" becomes
// "out_frame0.png" and "out" becomes "out_frame0".
func FramePath(path string, i int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_frame%d%s", strings.TrimSuffix(path, ext), i, ext)
}

// SaveFrames writes every frame next to path and returns the written paths in
// frame order.
func SaveFrames(ctx context.Context, path string, frames [][]byte) ([]string, error) {
	paths := make([]string, len(frames))
	g, ctx := errgroup.WithContext(ctx)
	for i, frame := range frames {
		paths[i] = FramePath(path, i)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errorx.Local("save", err, "save frames")
			}
			return Save(paths[i], frame)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
