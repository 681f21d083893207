package device_test

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/device/devicetest"
	"github.com/Carmen-Shannon/oxy-neural/engine/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoInputShader = `
@group(0) @binding(0) var a: texture_2d<f32>;
@group(0) @binding(1) var b: texture_2d<f32>;
@group(0) @binding(2) var smp: sampler;
@group(0) @binding(3) var out_tex: texture_storage_2d<rgba16float, write>;
@compute @workgroup_size(8, 8) fn main() {}
`

func TestCheckBindGroupEntries(t *testing.T) {
	s := shader.MustShader("two", shader.ShaderTypeCompute, twoInputShader)
	dev := devicetest.New()
	tex := func(label string) device.Texture {
		tx, err := dev.CreateTexture(device.TextureDescriptor{Label: label, Size: common.Dims(4, 4), Format: device.TextureFormatRGBA16Float})
		require.NoError(t, err)
		return tx
	}
	a, b, out := tex("a"), tex("b"), tex("out")

	ok := []device.BindGroupEntry{
		{Binding: 0, Texture: a},
		{Binding: 1, Texture: b},
		{Binding: 2, Sampler: true},
		{Binding: 3, Texture: out},
	}
	assert.NoError(t, device.CheckBindGroupEntries(s, ok))

	assert.ErrorIs(t, device.CheckBindGroupEntries(s, ok[:3]), device.ErrInvalidBinding, "missing binding")
	assert.ErrorIs(t, device.CheckBindGroupEntries(s, append(ok, device.BindGroupEntry{Binding: 7, Texture: a})), device.ErrInvalidBinding, "undeclared binding")
	assert.ErrorIs(t, device.CheckBindGroupEntries(s, []device.BindGroupEntry{
		{Binding: 0, Texture: a}, {Binding: 1, Texture: b}, {Binding: 2, Texture: a}, {Binding: 3, Texture: out},
	}), device.ErrInvalidBinding, "texture bound to sampler")

	rgba8, err := dev.CreateTexture(device.TextureDescriptor{Label: "rgba8", Size: common.Dims(4, 4), Format: device.TextureFormatRGBA8Unorm})
	require.NoError(t, err)
	assert.ErrorIs(t, device.CheckBindGroupEntries(s, []device.BindGroupEntry{
		{Binding: 0, Texture: a}, {Binding: 1, Texture: b}, {Binding: 2, Sampler: true}, {Binding: 3, Texture: rgba8},
	}), device.ErrInvalidBinding, "storage texel format mismatch")
}

func TestCheckTextureData(t *testing.T) {
	dev := devicetest.New()
	tx, err := dev.CreateTexture(device.TextureDescriptor{Label: "frame", Size: common.Dims(2, 3), Format: device.TextureFormatRGBA16Float})
	require.NoError(t, err)

	assert.NoError(t, device.CheckTextureData(tx, make([]byte, 2*3*8)))
	assert.Error(t, device.CheckTextureData(tx, make([]byte, 2*3*4)))
}

func TestTextureFormat(t *testing.T) {
	assert.Equal(t, 8, device.TextureFormatRGBA16Float.BytesPerTexel())
	assert.Equal(t, 4, device.TextureFormatBGRA8Unorm.BytesPerTexel())
	assert.Equal(t, "rgba16float", device.TextureFormatRGBA16Float.String())
	assert.True(t, (device.TextureUsageSampled | device.TextureUsageStorage).Has(device.TextureUsageStorage))
}

func TestLayoutDescriptorMergesStages(t *testing.T) {
	src := `
@group(0) @binding(0) var frame: texture_2d<f32>;
@group(0) @binding(1) var smp: sampler;
@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }
@fragment fn fs_main() -> @location(0) vec4<f32> { return textureSample(frame, smp, vec2<f32>(0.0)); }
`
	vs := shader.MustShader("blit", shader.ShaderTypeVertex, src)
	fs := shader.MustShader("blit", shader.ShaderTypeFragment, src)

	desc, err := device.LayoutDescriptor("blit", vs, fs)
	require.NoError(t, err)
	assert.Len(t, desc.Entries, 2)
}
