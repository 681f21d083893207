package kernel

import (
	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/shader"
)

// Conv2d is one learned convolution layer. Its weights are baked into the WGSL it is built from, so the
// primitive only wires N same-sized inputs into one same-sized output.
type Conv2d struct {
	*primitive
}

// NewConv2d builds a convolution over inputs using src, typically loaded from a Library.
//
// Parameters:
//   - dev: the device to allocate on
//   - inputs: the textures read by the layer, in binding order; all must share one size
//   - src: a compute shader declaring len(inputs) sampled textures and one rgba16float storage texture
//   - options: builder options
//
// Returns:
//   - *Conv2d: the constructed layer
//   - error: ErrSizeMismatch, ErrBindingMismatch or a device error
func NewConv2d(dev device.Device, inputs []device.Texture, src shader.Shader, options ...KernelBuilderOption) (*Conv2d, error) {
	cfg := newKernelConfig(options)
	size, err := sameSize(common.Coalesce(cfg.label, src.Key()), inputs)
	if err != nil {
		return nil, err
	}
	p, err := newPrimitive(dev, src, inputs, size, cfg)
	if err != nil {
		return nil, err
	}
	return &Conv2d{primitive: p}, nil
}
