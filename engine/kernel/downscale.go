package kernel

import (
	_ "embed"
	"fmt"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/shader"
)

//go:embed shaders/downscale.wgsl
var downscaleWGSL string

var downscaleShader = shader.MustShader("downscale", shader.ShaderTypeCompute, downscaleWGSL)

// Downscale resamples its input to an explicit target size with an area-weighted filter.
type Downscale struct {
	*primitive
}

// NewDownscale builds a resampler writing exactly target.
//
// Parameters:
//   - dev: the device to allocate on
//   - input: the texture to resample
//   - target: the output size; must be non-empty and no larger than the input
//   - options: builder options
//
// Returns:
//   - *Downscale: the constructed stage
//   - error: ErrNoInputs, an error for an empty or enlarging target, or a device error
func NewDownscale(dev device.Device, input device.Texture, target common.Dimensions, options ...KernelBuilderOption) (*Downscale, error) {
	if input == nil {
		return nil, ErrNoInputs
	}
	if target.Empty() {
		return nil, fmt.Errorf("kernel: downscale target %s is empty", target)
	}
	if in := input.Size(); target.Width > in.Width || target.Height > in.Height {
		return nil, fmt.Errorf("kernel: downscale target %s exceeds input %s", target, in)
	}
	p, err := newPrimitive(dev, downscaleShader, []device.Texture{input}, target, newKernelConfig(options))
	if err != nil {
		return nil, err
	}
	return &Downscale{primitive: p}, nil
}
