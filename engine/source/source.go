// Package source supplies decoded RGBA8 frames to the engine from image sequences, video files, or memory.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"golang.org/x/image/draw"
)

var (
	// ErrUnsupportedFormat is returned when Open cannot pick a backend for a path.
	ErrUnsupportedFormat = errors.New("unsupported source format")
	// ErrClosed is returned by Next after Close.
	ErrClosed = errors.New("source closed")
)

// DefaultFrameRate is the rate reported by sources that carry no timing of their own.
const DefaultFrameRate = 30.0

// DefaultDecodeWorkers is the image sequence decode pool size.
const DefaultDecodeWorkers = 2

// Frame is one decoded picture. Pix holds Width*Height RGBA8 texels in row-major order.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// Size returns the frame dimensions.
func (f Frame) Size() common.Dimensions {
	return common.Dims(f.Width, f.Height)
}

// Empty reports whether the frame has a zero dimension.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0
}

// FrameSource produces frames in presentation order.
type FrameSource interface {
	// Next returns the next frame. It returns io.EOF once the source is exhausted.
	//
	// Parameters:
	//   - ctx: cancels a blocking decode
	//
	// Returns:
	//   - Frame: the decoded frame
	//   - error: io.EOF at the end of the stream, ctx.Err() on cancellation, or a decode error
	Next(ctx context.Context) (Frame, error)

	// FrameRate returns the nominal frames per second of the source.
	//
	// Returns:
	//   - float64: frames per second, always positive
	FrameRate() float64

	// Close releases decoder state. Next returns ErrClosed afterwards.
	//
	// Returns:
	//   - error: an error from the underlying decoder
	Close() error
}

// sourceConfig holds the options shared by every backend.
type sourceConfig struct {
	frameRate float64
	loop      bool
	maxSize   common.Dimensions
	// decodeWorkers is the size of the image sequence decode pool.
	decodeWorkers int
}

func newSourceConfig(opts []SourceBuilderOption) sourceConfig {
	cfg := sourceConfig{decodeWorkers: DefaultDecodeWorkers}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c sourceConfig) rate(native float64) float64 {
	return common.Coalesce(c.frameRate, native, DefaultFrameRate)
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".webm": true, ".mov": true, ".avi": true, ".m4v": true,
}

// Open picks a backend for path. Directories become image sequences, video extensions are decoded with
// reisen, and single images become a one-frame sequence.
//
// Parameters:
//   - path: a directory, video file, or image file
//   - opts: options applied to the chosen backend
//
// Returns:
//   - FrameSource: the opened source
//   - error: ErrUnsupportedFormat or an open error
func Open(path string, opts ...SourceBuilderOption) (FrameSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	if info.IsDir() {
		return NewImageSequence(path, opts...)
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case videoExtensions[ext]:
		return NewVideo(path, opts...)
	case imageExtensions[ext]:
		return newImageFiles([]string{path}, opts...)
	default:
		return nil, fmt.Errorf("open source %q: %w", path, ErrUnsupportedFormat)
	}
}

// FromImage converts img into an RGBA8 frame. Images larger than maxSize in either dimension are scaled down
// to fit it with bilinear filtering, keeping the aspect ratio. An empty maxSize disables scaling.
//
// Parameters:
//   - img: the decoded image
//   - maxSize: the bound, or an empty Dimensions
//
// Returns:
//   - Frame: the converted frame
func FromImage(img image.Image, maxSize common.Dimensions) Frame {
	b := img.Bounds()
	size := fitWithin(common.Dims(b.Dx(), b.Dy()), maxSize)

	var rgba *image.RGBA
	if size.Width == b.Dx() && size.Height == b.Dy() {
		if r, ok := img.(*image.RGBA); ok && r.Stride == 4*b.Dx() && b.Min == (image.Point{}) {
			rgba = r
		} else {
			rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
			draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
		}
	} else {
		rgba = image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
		draw.BiLinear.Scale(rgba, rgba.Bounds(), img, b, draw.Src, nil)
	}
	return Frame{Width: rgba.Rect.Dx(), Height: rgba.Rect.Dy(), Pix: rgba.Pix}
}

// Image wraps the frame's pixels in an *image.RGBA without copying.
func (f Frame) Image() *image.RGBA {
	return &image.RGBA{Pix: f.Pix, Stride: 4 * f.Width, Rect: image.Rect(0, 0, f.Width, f.Height)}
}

func fitWithin(size, bound common.Dimensions) common.Dimensions {
	if bound.Empty() || size.Empty() || (size.Width <= bound.Width && size.Height <= bound.Height) {
		return size
	}
	sx := float64(bound.Width) / float64(size.Width)
	sy := float64(bound.Height) / float64(size.Height)
	s := min(sx, sy)
	return common.Dims(max(1, int(float64(size.Width)*s)), max(1, int(float64(size.Height)*s)))
}
