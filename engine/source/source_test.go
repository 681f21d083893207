package source

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestStatic(t *testing.T) {
	frames := []Frame{
		{Width: 2, Height: 1, Pix: make([]byte, 8)},
		{Width: 4, Height: 2, Pix: make([]byte, 32)},
	}
	src := NewStatic(frames)
	ctx := context.Background()

	f, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, common.Dims(2, 1), f.Size())
	f, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, common.Dims(4, 2), f.Size())
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, DefaultFrameRate, src.FrameRate())

	require.NoError(t, src.Close())
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStaticLoop(t *testing.T) {
	src := NewStatic([]Frame{{Width: 1, Height: 1, Pix: make([]byte, 4)}}, WithLoop(true), WithFrameRate(24))
	for i := 0; i < 5; i++ {
		_, err := src.Next(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 24.0, src.FrameRate())

	_, err := NewStatic(nil, WithLoop(true)).Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestNextHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStatic([]Frame{{Width: 1, Height: 1, Pix: make([]byte, 4)}}).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImageSequence(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "0002.png"), 4, 2, color.RGBA{0, 255, 0, 255})
	writePNG(t, filepath.Join(dir, "0001.png"), 4, 2, color.RGBA{255, 0, 0, 255})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	src, err := NewImageSequence(dir)
	require.NoError(t, err)
	defer src.Close()

	ctx := context.Background()
	f, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, common.Dims(4, 2), f.Size())
	assert.Len(t, f.Pix, 4*2*4)
	assert.Equal(t, []byte{255, 0, 0, 255}, f.Pix[:4])

	f, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 255, 0, 255}, f.Pix[:4])

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestImageSequenceOrderWithWorkers(t *testing.T) {
	dir := t.TempDir()
	const n = 9
	for i := 0; i < n; i++ {
		writePNG(t, filepath.Join(dir, fmt.Sprintf("%04d.png", i)), 2, 2, color.RGBA{uint8(i * 10), 0, 0, 255})
	}

	src, err := NewImageSequence(dir, WithDecodeWorkers(3), WithLoop(true))
	require.NoError(t, err)
	defer src.Close()

	ctx := context.Background()
	for i := 0; i < 2*n; i++ {
		f, err := src.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint8((i%n)*10), f.Pix[0], "frame %d", i)
	}
}

func TestImageSequenceClose(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 2, 2, color.RGBA{255, 255, 255, 255})

	src, err := NewImageSequence(dir)
	require.NoError(t, err)
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())

	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestImageSequenceEmpty(t *testing.T) {
	_, err := NewImageSequence(t.TempDir())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "still.png")
	writePNG(t, img, 8, 8, color.RGBA{1, 2, 3, 255})

	src, err := Open(img, WithMaxSize(common.Dims(4, 4)))
	require.NoError(t, err)
	f, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, common.Dims(4, 4), f.Size())

	src, err = Open(dir)
	require.NoError(t, err)
	_, err = src.Next(context.Background())
	require.NoError(t, err)

	other := filepath.Join(dir, "clip.xyz")
	require.NoError(t, os.WriteFile(other, nil, 0o644))
	_, err = Open(other)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Open(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 110, 60))
	f := FromImage(src, common.Dimensions{})
	assert.Equal(t, common.Dims(100, 50), f.Size())
	assert.Len(t, f.Pix, 100*50*4)

	f = FromImage(src, common.Dims(40, 40))
	assert.Equal(t, common.Dims(40, 20), f.Size())
	assert.Len(t, f.Pix, 40*20*4)
	assert.Equal(t, f.Pix, f.Image().Pix)
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		size, bound, want common.Dimensions
	}{
		{common.Dims(1920, 1080), common.Dims(1280, 720), common.Dims(1280, 720)},
		{common.Dims(640, 360), common.Dims(1280, 720), common.Dims(640, 360)},
		{common.Dims(1000, 100), common.Dims(100, 100), common.Dims(100, 10)},
		{common.Dims(640, 360), common.Dimensions{}, common.Dims(640, 360)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fitWithin(tt.size, tt.bound), "%s in %s", tt.size, tt.bound)
	}
}

func TestFrameEmpty(t *testing.T) {
	assert.True(t, Frame{}.Empty())
	assert.True(t, Frame{Width: 3}.Empty())
	assert.False(t, Frame{Width: 1, Height: 1}.Empty())
}
