package preset_test

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/architecture/architecturetest"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/device/devicetest"
	"github.com/Carmen-Shannon/oxy-neural/engine/kernel"
	"github.com/Carmen-Shannon/oxy-neural/engine/preset"
	"github.com/Carmen-Shannon/oxy-neural/engine/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input(t *testing.T, dev device.Device, size common.Dimensions) device.Texture {
	t.Helper()
	tx, err := dev.CreateTexture(device.TextureDescriptor{Label: "source", Size: size, Format: device.TextureFormatRGBA16Float})
	require.NoError(t, err)
	return tx
}

func TestNewMatchesPlan(t *testing.T) {
	lib := architecturetest.Library()
	native := common.Dims(640, 360)
	targets := []common.Dimensions{
		native,
		common.Dims(960, 540),
		common.Dims(1280, 720),
		common.Dims(1920, 1080),
		common.Dims(2560, 1440),
	}
	for _, mode := range []preset.Mode{preset.ModeB, preset.ModeC} {
		for _, target := range targets {
			dev := devicetest.New()
			in := input(t, dev, native)

			p, err := preset.New(dev, in, target, mode, lib)
			require.NoError(t, err, "%s %s", mode.Name, target)

			steps := p.Steps()
			assert.Equal(t, preset.Plan(native, target, mode), steps)
			assert.Equal(t, steps.Output(native), p.OutputTexture().Size())
			assert.Equal(t, p.OutputDimensions(), p.OutputTexture().Size())
			assert.Equal(t, len(steps), p.Len())

			p.Release()
			assert.Equal(t, []string{"source"}, dev.LiveTextures())
		}
	}
}

func TestNewSameResolutionModeC(t *testing.T) {
	dev := devicetest.New()
	native := common.Dims(640, 360)
	in := input(t, dev, native)

	p, err := preset.New(dev, in, native, preset.ModeC, architecturetest.Library())
	require.NoError(t, err)
	assert.Equal(t, native, p.OutputTexture().Size())
	assert.Equal(t, "Preset-ModeC", p.Label())

	enc, err := dev.BeginFrame()
	require.NoError(t, err)
	require.NoError(t, p.Pass(enc))
	require.NoError(t, dev.Submit(enc))
	dispatches := dev.Submitted()[0]
	assert.Equal(t, "clamp_highlights", dispatches[0].Kernel)
	assert.Equal(t, []string{"source"}, dispatches[0].Inputs)
	assert.Equal(t, "overlay", dispatches[len(dispatches)-1].Kernel)

	assert.ErrorIs(t, p.UpdateParam("strength", 0.5), stage.ErrUnsupportedParam)
}

func TestNewReleasesOnFailure(t *testing.T) {
	dev := devicetest.New()
	in := input(t, dev, common.Dims(640, 360))
	live := dev.Live()

	_, err := preset.New(dev, in, common.Dims(1920, 1080), preset.ModeB, architecturetest.Library("CNNx2M/conv2d_3_tf"))
	assert.ErrorIs(t, err, kernel.ErrKernelNotFound)
	assert.Equal(t, live, dev.Live())
}
