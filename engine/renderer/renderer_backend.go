package renderer

import (
	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
)

// PresenterBackendType identifies the backend a Presenter draws with.
type PresenterBackendType int

const (
	// BackendTypeWGPU draws onto the surface of a *device.WGPU.
	BackendTypeWGPU PresenterBackendType = iota

	// BackendTypeHeadless records presents without drawing. Benchmarks and tests use it.
	BackendTypeHeadless
)

// PresentMode controls how presented frames reach the display.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping the frame rate
	// to the monitor's refresh rate.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents immediately. May tear.
	PresentModeUncapped
)

// presenterBackend is the backend-specific half of a presenter. The presenter serializes calls.
type presenterBackend interface {
	// Configure (re)configures the drawing target for size.
	Configure(size common.Dimensions, mode PresentMode) error

	// WriteUniforms uploads the compare flag and split ratio.
	WriteUniforms(compare bool, split float32) error

	// Encode records the draw of output and original into enc.
	Encode(enc device.CommandEncoder, output, original device.Texture) error

	// Flip shows the frame drawn by the last Encode, once its encoder has been submitted.
	Flip()

	// Discard drops the frame drawn by the last Encode without showing it.
	Discard()

	// Release frees the backend's resources.
	Release()
}
