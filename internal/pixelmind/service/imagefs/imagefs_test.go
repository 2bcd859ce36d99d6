package imagefs

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiosk404/pixelmind/pkg/errorx"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestReadPNG(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	good := filepath.Join(dir, "good.png")
	require.NoError(t, os.WriteFile(good, pngBytes(t, 4, 4), 0o644))
	text := filepath.Join(dir, "notes.png")
	require.NoError(t, os.WriteFile(text, []byte("just some text"), 0o644))

	data, err := ReadPNG(good)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	tests := []struct {
		name string
		path string
		msg  string
	}{
		{"missing", filepath.Join(dir, "nope.png"), "image file not found"},
		{"not png", text, "is not a PNG image"},
		{"empty path", "", "image path is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPNG(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
			assert.True(t, errorx.IsLocal(err))
		})
	}
}

func TestDimensions(t *testing.T) {
	t.Parallel()

	w, h, err := Dimensions(pngBytes(t, 48, 32))
	require.NoError(t, err)
	assert.Equal(t, 48, w)
	assert.Equal(t, 32, h)

	_, _, err = Dimensions([]byte("garbage"))
	require.Error(t, err)
	assert.True(t, errorx.IsLocal(err))
}

func TestSave_CreatesParents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a", "b", "out.png")
	require.NoError(t, Save(path, []byte("data")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}

func TestSave_Failure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := Save(filepath.Join(blocker, "out.png"), []byte("x"))
	require.Error(t, err)
	assert.True(t, errorx.IsLocal(err))
}

func TestFramePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "out_frame0.png", FramePath("out.png", 0))
	assert.Equal(t, "dir/walk_frame12.png", FramePath("dir/walk.png", 12))
	assert.Equal(t, "out_frame3", FramePath("out", 3))
}

func TestSaveFrames(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "anim.png")
	frames := [][]byte{[]byte("f0"), []byte("f1"), []byte("f2")}

	paths, err := SaveFrames(context.Background(), base, frames)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for i, p := range paths {
		assert.Equal(t, FramePath(base, i), p)
		got, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, frames[i], got)
	}
}

func TestSaveFrames_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := SaveFrames(ctx, filepath.Join(t.TempDir(), "anim.png"), [][]byte{[]byte("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
