package kernel

import (
	_ "embed"
	"fmt"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/shader"
)

//go:embed shaders/overlay.wgsl
var overlayWGSL string

var overlayShader = shader.MustShader("overlay", shader.ShaderTypeCompute, overlayWGSL)

// Overlay adds an enhancement texture onto a bilinearly resampled copy of the original. It closes every
// restore and upscale network.
type Overlay struct {
	*primitive
}

// NewOverlay builds the residual combination at an explicit output size.
//
// Parameters:
//   - dev: the device to allocate on
//   - original: the network's source texture
//   - enhanced: the residual or depth-to-space output
//   - size: the output size
//   - options: builder options
//
// Returns:
//   - *Overlay: the constructed stage
//   - error: an error for an empty size or a device error
func NewOverlay(dev device.Device, original, enhanced device.Texture, size common.Dimensions, options ...KernelBuilderOption) (*Overlay, error) {
	if size.Empty() {
		return nil, fmt.Errorf("kernel: overlay size %s is empty", size)
	}
	if original == nil || enhanced == nil {
		return nil, ErrNoInputs
	}
	p, err := newPrimitive(dev, overlayShader, []device.Texture{original, enhanced}, size, newKernelConfig(options))
	if err != nil {
		return nil, err
	}
	return &Overlay{primitive: p}, nil
}
