package source

import "github.com/Carmen-Shannon/oxy-neural/common"

// SourceBuilderOption is a functional option for configuring a FrameSource.
type SourceBuilderOption func(*sourceConfig)

// WithFrameRate overrides the rate the source reports.
//
// Parameters:
//   - fps: frames per second; non-positive values keep the source's own rate
//
// Returns:
//   - SourceBuilderOption: a function that applies the frame rate option
func WithFrameRate(fps float64) SourceBuilderOption {
	return func(c *sourceConfig) {
		if fps > 0 {
			c.frameRate = fps
		}
	}
}

// WithLoop makes image sequences and static sources restart instead of returning io.EOF.
//
// Parameters:
//   - loop: true to loop
//
// Returns:
//   - SourceBuilderOption: a function that applies the loop option
func WithLoop(loop bool) SourceBuilderOption {
	return func(c *sourceConfig) {
		c.loop = loop
	}
}

// WithMaxSize scales decoded frames down to fit within size.
//
// Parameters:
//   - size: the bounding size; an empty size disables scaling
//
// Returns:
//   - SourceBuilderOption: a function that applies the size option
func WithMaxSize(size common.Dimensions) SourceBuilderOption {
	return func(c *sourceConfig) {
		c.maxSize = size
	}
}

// WithDecodeWorkers sets how many image files decode in parallel ahead of playback.
//
// Parameters:
//   - n: the worker count; non-positive values keep DefaultDecodeWorkers
//
// Returns:
//   - SourceBuilderOption: a function that applies the worker option
func WithDecodeWorkers(n int) SourceBuilderOption {
	return func(c *sourceConfig) {
		if n > 0 {
			c.decodeWorkers = n
		}
	}
}
