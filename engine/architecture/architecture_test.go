package architecture_test

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/architecture"
	"github.com/Carmen-Shannon/oxy-neural/engine/architecture/architecturetest"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/device/devicetest"
	"github.com/Carmen-Shannon/oxy-neural/engine/kernel"
	"github.com/Carmen-Shannon/oxy-neural/engine/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func source(t *testing.T, dev device.Device, size common.Dimensions) device.Texture {
	t.Helper()
	tx, err := dev.CreateTexture(device.TextureDescriptor{Label: "source", Size: size, Format: device.TextureFormatRGBA16Float})
	require.NoError(t, err)
	return tx
}

func TestCatalogGraphsAreValid(t *testing.T) {
	for _, name := range architecture.Names() {
		t.Run(name, func(t *testing.T) {
			info, ok := architecture.Lookup(name)
			require.True(t, ok)
			g, err := architecture.Graph(name)
			require.NoError(t, err)
			if info.Kind == architecture.KindPassthrough {
				assert.Nil(t, g)
				return
			}
			require.NoError(t, g.Validate(16))
			assert.LessOrEqual(t, info.Taps(), 16)
			if info.Kind == architecture.KindUpscale {
				assert.Equal(t, info.Scale, kernel.DepthToSpaceFactor(info.Heads))
			}
		})
	}
}

func TestCNNULWiring(t *testing.T) {
	g, err := architecture.Graph("CNNUL")
	require.NoError(t, err)

	byName := map[string]int{}
	for i, n := range g.Nodes {
		byName[n.Name] = i
	}
	require.Contains(t, byName, "conv2d_tf2")
	require.Contains(t, byName, "conv2d_7_tf2")

	head := g.Nodes[byName["conv2d_last_tf"]]
	var read []string
	for _, r := range head.Inputs {
		read = append(read, g.Nodes[r].Name)
	}
	assert.Equal(t, []string{
		"conv2d_3_tf", "conv2d_3_tf1", "conv2d_3_tf2",
		"conv2d_4_tf", "conv2d_4_tf1", "conv2d_4_tf2",
		"conv2d_5_tf", "conv2d_5_tf1", "conv2d_5_tf2",
		"conv2d_6_tf", "conv2d_6_tf1", "conv2d_6_tf2",
		"conv2d_7_tf", "conv2d_7_tf1", "conv2d_7_tf2",
	}, read)

	second := g.Nodes[byName["conv2d_1_tf1"]]
	assert.Equal(t, []stage.Ref{0, 1, 2}, second.Inputs)

	out := g.Nodes[g.Output()]
	assert.Equal(t, stage.NodeOverlay, out.Kind)
	assert.Equal(t, []stage.Ref{stage.Source, stage.Ref(byName["conv2d_last_tf"])}, out.Inputs)
}

func TestCNNx2LWiring(t *testing.T) {
	g, err := architecture.Graph("CNNx2L")
	require.NoError(t, err)

	// 7 layers, 3 heads, depth to space, overlay
	require.Len(t, g.Nodes, 12)
	for h, name := range []string{"conv2d_last_tf", "conv2d_last_tf1", "conv2d_last_tf2"} {
		head := g.Nodes[7+h]
		assert.Equal(t, name, head.Name)
		assert.Equal(t, []stage.Ref{0, 1, 2, 3, 4, 5, 6}, head.Inputs)
	}
	assert.Equal(t, stage.NodeDepthToSpace, g.Nodes[10].Kind)
	assert.Equal(t, []stage.Ref{7, 8, 9}, g.Nodes[10].Inputs)
	assert.Equal(t, 2, g.Nodes[11].Scale)
}

func TestNewBuildsEveryArchitecture(t *testing.T) {
	lib := architecturetest.Library()
	for _, name := range architecture.Names() {
		t.Run(name, func(t *testing.T) {
			dev := devicetest.New()
			in := source(t, dev, common.Dims(64, 36))

			a, err := architecture.New(name, dev, in, lib)
			require.NoError(t, err)
			info := a.Info()
			assert.Equal(t, name, info.Name)
			assert.Equal(t, in.Size().Scaled(info.Scale), a.OutputTexture().Size())

			enc, err := dev.BeginFrame()
			require.NoError(t, err)
			require.NoError(t, a.Pass(enc))
			require.NoError(t, dev.Submit(enc))
			dispatches := dev.Submitted()[0]

			if info.Kind == architecture.KindPassthrough {
				assert.Same(t, in, a.OutputTexture())
				assert.Empty(t, dispatches)
				return
			}
			g, _ := architecture.Graph(name)
			require.Len(t, dispatches, len(g.Nodes))
			assert.Equal(t, []string{"source"}, dispatches[0].Inputs)
			assert.Equal(t, []string{"source", name + "/" + g.Nodes[len(g.Nodes)-2].Name}, dispatches[len(dispatches)-1].Inputs)

			assert.ErrorIs(t, a.UpdateParam("strength", 1.0), stage.ErrUnsupportedParam)
			a.Release()
			assert.Equal(t, []string{"source"}, dev.LiveTextures())
		})
	}
}

func TestNewUnknownAllocatesNothing(t *testing.T) {
	dev := devicetest.New()
	in := source(t, dev, common.Dims(64, 36))
	allocs := dev.Allocations()

	_, err := architecture.New("CNNx9", dev, in, architecturetest.Library())
	assert.ErrorIs(t, err, architecture.ErrUnknownArchitecture)
	assert.Equal(t, allocs, dev.Allocations())

	_, ok := architecture.Lookup("CNNx9")
	assert.False(t, ok)
}

func TestNewMissingKernelReleasesPartialWork(t *testing.T) {
	dev := devicetest.New()
	in := source(t, dev, common.Dims(64, 36))
	live := dev.Live()

	_, err := architecture.New("CNNx2M", dev, in, architecturetest.Library("CNNx2M/conv2d_last_tf2"))
	assert.ErrorIs(t, err, kernel.ErrKernelNotFound)
	assert.Equal(t, live, dev.Live())
}

func TestNewResourceExhaustion(t *testing.T) {
	dev := devicetest.New()
	in := source(t, dev, common.Dims(64, 36))
	live := dev.Live()
	dev.SetFailAfter(10)

	_, err := architecture.New("CNNUL", dev, in, architecturetest.Library())
	assert.ErrorIs(t, err, device.ErrResourceExhausted)
	assert.Equal(t, live, dev.Live())
}
