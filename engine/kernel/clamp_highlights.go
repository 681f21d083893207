package kernel

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/shader"
)

//go:embed shaders/clamp_highlights.wgsl
var clampHighlightsWGSL string

var clampHighlightsShader = shader.MustShader("clamp_highlights", shader.ShaderTypeCompute, clampHighlightsWGSL)

// ClampHighlights limits the luma of each pixel to the brightest luma among its 5x5 neighbors, which
// removes isolated highlights before they are amplified by later networks.
type ClampHighlights struct {
	*primitive
}

// NewClampHighlights builds the pre-conditioning stage at the input's resolution.
//
// Parameters:
//   - dev: the device to allocate on
//   - input: the texture to condition
//   - options: builder options
//
// Returns:
//   - *ClampHighlights: the constructed stage
//   - error: a device error
func NewClampHighlights(dev device.Device, input device.Texture, options ...KernelBuilderOption) (*ClampHighlights, error) {
	if input == nil {
		return nil, ErrNoInputs
	}
	p, err := newPrimitive(dev, clampHighlightsShader, []device.Texture{input}, input.Size(), newKernelConfig(options))
	if err != nil {
		return nil, err
	}
	return &ClampHighlights{primitive: p}, nil
}
