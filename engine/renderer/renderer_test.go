package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/device/devicetest"
	"github.com/Carmen-Shannon/oxy-neural/engine/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeadless(t *testing.T, opts ...PresenterBuilderOption) (*presenter, *headlessPresenterBackend) {
	t.Helper()
	p, err := NewPresenter(BackendTypeHeadless, devicetest.New(), opts...)
	require.NoError(t, err)
	impl := p.(*presenter)
	return impl, impl.backend.(*headlessPresenterBackend)
}

func textures(t *testing.T, dev device.Device) (device.Texture, device.Texture) {
	t.Helper()
	out, err := dev.CreateTexture(device.TextureDescriptor{Label: "output", Size: common.Dims(4, 4)})
	require.NoError(t, err)
	orig, err := dev.CreateTexture(device.TextureDescriptor{Label: "original", Size: common.Dims(2, 2)})
	require.NoError(t, err)
	return out, orig
}

func TestPresentThenFlip(t *testing.T) {
	dev := devicetest.New()
	p, backend := newHeadless(t)
	out, orig := textures(t, dev)
	enc, err := dev.BeginFrame()
	require.NoError(t, err)

	p.Flip()
	assert.Equal(t, 0, p.Presents(), "flip without a pending frame")

	require.NoError(t, p.Present(enc, out, orig))
	assert.Equal(t, "output", backend.output)
	assert.Equal(t, "original", backend.original)
	assert.Equal(t, DefaultSplitRatio, backend.split)
	assert.False(t, backend.compare)

	p.Flip()
	p.Flip()
	assert.Equal(t, 1, p.Presents())
}

func TestDiscardDropsPendingFrame(t *testing.T) {
	dev := devicetest.New()
	p, _ := newHeadless(t)
	out, orig := textures(t, dev)

	p.Discard()
	enc, err := dev.BeginFrame()
	require.NoError(t, err)
	require.NoError(t, p.Present(enc, out, orig))
	p.Discard()
	p.Flip()
	assert.Equal(t, 0, p.Presents(), "a discarded frame is never shown")

	enc, err = dev.BeginFrame()
	require.NoError(t, err)
	require.NoError(t, p.Present(enc, out, orig))
	require.NoError(t, dev.Submit(enc))
	p.Flip()
	assert.Equal(t, 1, p.Presents())
}

func TestCompareAndSplitReachUniforms(t *testing.T) {
	dev := devicetest.New()
	p, backend := newHeadless(t, WithCompare(true), WithSplitRatio(0.25))
	assert.True(t, p.Compare())
	assert.Equal(t, float32(0.25), p.SplitRatio())

	out, orig := textures(t, dev)
	enc, err := dev.BeginFrame()
	require.NoError(t, err)
	require.NoError(t, p.Present(enc, out, orig))
	assert.True(t, backend.compare)
	assert.Equal(t, float32(0.25), backend.split)

	p.SetCompare(false)
	p.SetSplitRatio(0.75)
	assert.True(t, p.uniformDirty)
	require.NoError(t, p.Present(enc, out, orig))
	assert.False(t, backend.compare)
	assert.Equal(t, float32(0.75), backend.split)
	assert.False(t, p.uniformDirty)
}

func TestSplitRatioClamped(t *testing.T) {
	p, _ := newHeadless(t)
	p.SetSplitRatio(-1)
	assert.Equal(t, float32(0), p.SplitRatio())
	p.SetSplitRatio(3)
	assert.Equal(t, float32(1), p.SplitRatio())
	nan := float32(0)
	nan = nan / nan
	p.SetSplitRatio(nan)
	assert.Equal(t, float32(0), p.SplitRatio())
}

func TestResize(t *testing.T) {
	p, backend := newHeadless(t, WithSize(common.Dims(640, 360)))
	assert.Equal(t, common.Dims(640, 360), backend.size)

	require.NoError(t, p.Resize(1920, 1080))
	assert.Equal(t, common.Dims(1920, 1080), p.Size())
	assert.Equal(t, common.Dims(1920, 1080), backend.size)

	require.NoError(t, p.Resize(0, 0))
	assert.Equal(t, common.Dims(1920, 1080), p.Size(), "minimized windows keep the last size")
}

func TestPresentAfterRelease(t *testing.T) {
	dev := devicetest.New()
	p, _ := newHeadless(t)
	out, orig := textures(t, dev)
	enc, err := dev.BeginFrame()
	require.NoError(t, err)

	p.Release()
	p.Release()
	assert.ErrorIs(t, p.Present(enc, out, orig), ErrReleased)
	assert.Error(t, (&presenter{backend: newHeadlessPresenterBackend()}).Present(enc, nil, orig))
}

func TestWGPUNeedsSurface(t *testing.T) {
	_, err := NewPresenter(BackendTypeWGPU, devicetest.New())
	assert.ErrorIs(t, err, ErrUnsupportedDevice)
}

func TestBlitShader(t *testing.T) {
	assert.Equal(t, "vs_main", blitVertexShader.EntryPoint())
	assert.Equal(t, "fs_main", blitFragmentShader.EntryPoint())

	textures := blitFragmentShader.BindingsOfKind(shader.BindingSampledTexture)
	require.Len(t, textures, 2)
	assert.Equal(t, "output_tex", textures[0].Name)
	assert.Equal(t, "original_tex", textures[1].Name)

	params, ok := blitFragmentShader.BindingByName("params")
	require.True(t, ok)
	assert.Equal(t, shader.BindingUniform, params.Kind)
	assert.Equal(t, uint64(paramsSize), params.MinSize)
}
