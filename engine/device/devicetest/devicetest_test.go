package devicetest

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailAfter(t *testing.T) {
	d := New(WithFailAfter(1))
	desc := device.TextureDescriptor{Label: "t", Size: common.Dims(2, 2)}

	_, err := d.CreateTexture(desc)
	require.NoError(t, err)
	_, err = d.CreateTexture(desc)
	assert.ErrorIs(t, err, device.ErrResourceExhausted)
	assert.Equal(t, 1, d.Allocations())

	d.SetFailAfter(-1)
	_, err = d.CreateTexture(desc)
	assert.NoError(t, err)
}

func TestRecordsDispatches(t *testing.T) {
	d := New()
	s, err := shader.NewShader("conv", shader.ShaderTypeCompute, ConvSource(2))
	require.NoError(t, err)

	in0, _ := d.CreateTexture(device.TextureDescriptor{Label: "in0", Size: common.Dims(16, 8)})
	in1, _ := d.CreateTexture(device.TextureDescriptor{Label: "in1", Size: common.Dims(16, 8)})
	out, _ := d.CreateTexture(device.TextureDescriptor{Label: "out", Size: common.Dims(16, 8)})
	k, err := d.CreateKernel(s)
	require.NoError(t, err)
	bg, err := d.CreateBindGroup("conv", k, []device.BindGroupEntry{
		{Binding: 0, Texture: in0},
		{Binding: 1, Texture: in1},
		{Binding: 2, Texture: out},
	})
	require.NoError(t, err)

	enc, err := d.BeginFrame()
	require.NoError(t, err)
	require.NoError(t, enc.Dispatch(k, bg, [3]uint32{2, 1, 1}))
	require.NoError(t, d.Submit(enc))
	assert.Error(t, d.Submit(enc))

	frames := d.Submitted()
	require.Len(t, frames, 1)
	assert.Equal(t, []Dispatch{{Kernel: "conv", Inputs: []string{"in0", "in1"}, Output: "out", Workgroups: [3]uint32{2, 1, 1}}}, frames[0])

	assert.Equal(t, 5, d.Live())
	bg.Release()
	k.Release()
	assert.Equal(t, 3, d.Live())
	assert.ElementsMatch(t, []string{"in0", "in1", "out"}, d.LiveTextures())
}

func TestWriteBuffer(t *testing.T) {
	d := New()
	b, err := d.CreateBuffer("params", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), b.Size())

	require.NoError(t, d.WriteBuffer(b, 4, []byte{1, 2, 3, 4}))
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4}, d.BufferData("params")[:8])
	assert.Error(t, d.WriteBuffer(b, 14, []byte{1, 2, 3, 4}))
}
