package kernel

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/shader"
)

// DepthToSpace rearranges the channels of N four-channel inputs into an RGB image S times larger in each
// dimension, where S is the largest factor with 3*S*S <= 4*N. Channel c*S*S + k of the stacked inputs
// becomes color c of sub-pixel k, with k enumerated row-major inside each S*S block.
type DepthToSpace struct {
	*primitive
	factor int
}

// DepthToSpaceFactor returns the spatial factor produced from n four-channel inputs, or 0 if n < 1.
//
// Parameters:
//   - n: the number of input textures
//
// Returns:
//   - int: the largest S with 3*S*S <= 4*n
func DepthToSpaceFactor(n int) int {
	s := 0
	for 3*(s+1)*(s+1) <= 4*n {
		s++
	}
	return s
}

// NewDepthToSpace builds the rearrangement over inputs.
//
// Parameters:
//   - dev: the device to allocate on
//   - inputs: the head textures, in channel order; all must share one size
//   - options: builder options
//
// Returns:
//   - *DepthToSpace: the constructed stage, whose output is S times the input size
//   - error: ErrSizeMismatch, ErrNoInputs, ErrBindingMismatch when four or more input channels would be
//     left unused, or a device error
func NewDepthToSpace(dev device.Device, inputs []device.Texture, options ...KernelBuilderOption) (*DepthToSpace, error) {
	cfg := newKernelConfig(options)
	key := fmt.Sprintf("depth_to_space_%d", len(inputs))
	size, err := sameSize(common.Coalesce(cfg.label, key), inputs)
	if err != nil {
		return nil, err
	}
	factor := DepthToSpaceFactor(len(inputs))
	if spare := 4*len(inputs) - 3*factor*factor; spare >= 4 {
		return nil, fmt.Errorf("%w: %d inputs leave %d channels unused at factor %d", ErrBindingMismatch, len(inputs), spare, factor)
	}
	src, err := shader.NewShader(key, shader.ShaderTypeCompute, depthToSpaceSource(len(inputs), factor))
	if err != nil {
		return nil, err
	}
	p, err := newPrimitive(dev, src, inputs, size.Scaled(factor), cfg)
	if err != nil {
		return nil, err
	}
	return &DepthToSpace{primitive: p, factor: factor}, nil
}

// Factor returns the spatial upscale factor.
func (d *DepthToSpace) Factor() int {
	return d.factor
}

// depthToSpaceSource generates the WGSL for n inputs and factor s. Separate texture bindings cannot be
// indexed dynamically, so channel fetches go through a generated switch.
func depthToSpaceSource(n, s int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "@group(0) @binding(%d) var tex%d: texture_2d<f32>;\n", i, i)
	}
	fmt.Fprintf(&sb, "@group(0) @binding(%d) var out_tex: texture_storage_2d<rgba16float, write>;\n\n", n)
	fmt.Fprintf(&sb, "const FACTOR: u32 = %du;\n\n", s)

	sb.WriteString("fn fetch(t: u32, p: vec2<i32>) -> vec4<f32> {\n    switch t {\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "        case %du: { return textureLoad(tex%d, p, 0); }\n", i, i)
	}
	sb.WriteString("        default: { return vec4<f32>(0.0); }\n    }\n}\n\n")

	sb.WriteString(`fn channel(c: u32, p: vec2<i32>) -> f32 {
    let v = fetch(c / 4u, p);
    return v[c % 4u];
}

@compute @workgroup_size(8, 8)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    let dims = textureDimensions(out_tex);
    if (id.x >= dims.x || id.y >= dims.y) {
        return;
    }
    let src = vec2<i32>(id.xy / FACTOR);
    let sub = (id.y % FACTOR) * FACTOR + (id.x % FACTOR);
    var rgb = vec3<f32>(0.0);
    for (var c = 0u; c < 3u; c++) {
        rgb[c] = channel(c * FACTOR * FACTOR + sub, src);
    }
    textureStore(out_tex, vec2<i32>(id.xy), vec4<f32>(rgb, 1.0));
}
`)
	return sb.String()
}
