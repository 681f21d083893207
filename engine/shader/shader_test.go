package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const convSource = `
// two-input convolution layer
struct Params {
    strength: f32,
    bias: vec3<f32>,
}

@group(0) @binding(0) var tex0: texture_2d<f32>;
@group(0) @binding(1) var tex1: texture_2d<f32>;
@group(0) @binding(2) var out_tex: texture_storage_2d<rgba16float, write>;
@group(0) @binding(3) var<uniform> params: Params;
/* @group(0) @binding(9) var ignored: texture_2d<f32>; */

@compute @workgroup_size(8, 8)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    let p = vec2<i32>(id.xy);
    textureStore(out_tex, p, textureLoad(tex0, p, 0) + textureLoad(tex1, p, 0));
}
`

func TestNewShaderParsesComputeMetadata(t *testing.T) {
	s, err := NewShader("conv", ShaderTypeCompute, convSource)
	require.NoError(t, err)

	assert.Equal(t, "conv", s.Key())
	assert.Equal(t, "main", s.EntryPoint())
	assert.Equal(t, [3]uint32{8, 8, 1}, s.WorkgroupSize())
	assert.Len(t, s.Bindings(), 4, "commented declarations are ignored")

	sampled := s.BindingsOfKind(BindingSampledTexture)
	require.Len(t, sampled, 2)
	assert.Equal(t, "tex0", sampled[0].Name)
	assert.Equal(t, "2d", sampled[0].ViewDimension)
	assert.Equal(t, "f32", sampled[0].SampleType)

	storage := s.BindingsOfKind(BindingStorageTexture)
	require.Len(t, storage, 1)
	assert.Equal(t, "rgba16float", storage[0].TexelFormat)
	assert.Equal(t, "write", storage[0].Access)

	params, ok := s.BindingByName("params")
	require.True(t, ok)
	assert.Equal(t, BindingUniform, params.Kind)
	assert.Equal(t, uint64(32), params.MinSize, "vec3 aligns to 16 bytes")

	b, ok := s.BindingAt(0, 2)
	require.True(t, ok)
	assert.Equal(t, "out_tex", b.Name)
	_, ok = s.BindingAt(0, 9)
	assert.False(t, ok)
}

func TestNewShaderErrors(t *testing.T) {
	_, err := NewShader("empty", ShaderTypeCompute, "")
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = NewShader("frag", ShaderTypeCompute, "@fragment fn fs() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }")
	assert.ErrorIs(t, err, ErrMissingEntryPoint)
}

func TestWorkgroupSizeDefaults(t *testing.T) {
	assert.Equal(t, [3]uint32{1, 1, 1}, parseWorkgroupSize("@compute fn main() {}"))
	assert.Equal(t, [3]uint32{64, 1, 1}, parseWorkgroupSize("@compute @workgroup_size(64) fn main() {}"))
	assert.Equal(t, [3]uint32{4, 4, 2}, parseWorkgroupSize("@compute @workgroup_size(4, 4, 2) fn main() {}"))
}

func TestRenderEntryPoints(t *testing.T) {
	src := `
@group(0) @binding(0) var frame: texture_2d<f32>;
@group(0) @binding(1) var frame_sampler: sampler;
@vertex fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }
@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
`
	vs, err := NewShader("blit", ShaderTypeVertex, src)
	require.NoError(t, err)
	fs, err := NewShader("blit", ShaderTypeFragment, src)
	require.NoError(t, err)

	assert.Equal(t, "vs_main", vs.EntryPoint())
	assert.Equal(t, "fs_main", fs.EntryPoint())
	assert.Equal(t, [3]uint32{0, 0, 0}, fs.WorkgroupSize())
	assert.Len(t, fs.BindingsOfKind(BindingSampler), 1)
}

func TestResolveTypeLayout(t *testing.T) {
	known := computeStructSizes(parseStructBlocks("struct A { x: f32, y: vec4<f32>, }"))

	layout, ok := known.resolve("A")
	require.True(t, ok)
	assert.Equal(t, uint64(32), layout.size)

	layout, ok = known.resolve("array<vec4<f32>, 4>")
	require.True(t, ok)
	assert.Equal(t, uint64(64), layout.size)

	_, ok = known.resolve("Unknown")
	assert.False(t, ok)
}

func TestLayoutTable(t *testing.T) {
	tests := []struct {
		typeName string
		want     wgslTypeLayout
	}{
		{"f32", wgslTypeLayout{4, 4}},
		{"vec3<f32>", wgslTypeLayout{12, 16}},
		{"vec3f", wgslTypeLayout{12, 16}},
		{"vec2h", wgslTypeLayout{4, 4}},
		{"vec3<f16>", wgslTypeLayout{6, 8}},
		{"mat4x4<f32>", wgslTypeLayout{64, 16}},
		{"mat3x3f", wgslTypeLayout{48, 16}},
		{"mat2x3<f32>", wgslTypeLayout{32, 16}},
		{"atomic<u32>", wgslTypeLayout{4, 4}},
		{"array<f32>", wgslTypeLayout{4, 4}},
		{"array<vec3<f32>, 2>", wgslTypeLayout{32, 16}},
		{"array<array<f32, 4>, 2>", wgslTypeLayout{32, 4}},
	}
	table := layoutTable{}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			got, ok := table.resolve(tt.typeName)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"vec5<f32>", "mat1x4<f32>", "vec4<f64>", "array<f32, n>"} {
		_, ok := table.resolve(bad)
		assert.False(t, ok, bad)
	}
}

func TestStructLayoutOrderIndependent(t *testing.T) {
	src := `
struct Outer { inner: Inner, scale: f32, }
struct Inner { a: vec3<f32>, b: f32, }
`
	known := computeStructSizes(parseStructBlocks(src))
	assert.Equal(t, wgslTypeLayout{16, 16}, known["Inner"])
	assert.Equal(t, wgslTypeLayout{32, 16}, known["Outer"])
}

func TestStripComments(t *testing.T) {
	src := "a // line\nb /* x /* nested */ still */ c\n/* multi\nline */d"
	assert.Equal(t, "a \nb  c\n\nd", stripComments(src))
}
