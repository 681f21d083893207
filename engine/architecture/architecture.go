package architecture

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/kernel"
	"github.com/Carmen-Shannon/oxy-neural/engine/stage"
)

// Architecture is a built catalog entry. It records its nodes as one sequence and exposes no parameters.
type Architecture struct {
	stage.Stage
	info Info
}

// New builds the named architecture over input.
//
// Parameters:
//   - name: the catalog name
//   - dev: the device to allocate on
//   - input: the source texture, borrowed for the lifetime of the result
//   - lib: the library supplying convolution kernels
//
// Returns:
//   - *Architecture: the built network; its output is input.Size() scaled by Info().Scale
//   - error: ErrUnknownArchitecture before any allocation, or a build error after releasing partial work
func New(name string, dev device.Device, input device.Texture, lib kernel.Library) (*Architecture, error) {
	info, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownArchitecture, name)
	}
	if info.Kind == KindPassthrough {
		return &Architecture{Stage: stage.NewPassthrough(name, input), info: info}, nil
	}

	g, err := Graph(name)
	if err != nil {
		return nil, err
	}
	b := &builder{info: info, dev: dev, lib: lib}
	seq, err := g.Build(input, dev.Limits().MaxSampledTexturesPerStage, b.node)
	if err != nil {
		return nil, err
	}
	common.Logger().Debug("architecture: built", "name", name, "stages", seq.Len(), "input", input.Size(), "output", seq.OutputTexture().Size())
	return &Architecture{Stage: seq, info: info}, nil
}

// Info returns the catalog entry the architecture was built from.
func (a *Architecture) Info() Info {
	return a.info
}

// UpdateParam rejects every name; catalog networks have their weights baked into their kernels.
func (a *Architecture) UpdateParam(name string, _ any) error {
	return stage.Unsupported(a.info.Name, name)
}

type builder struct {
	info Info
	dev  device.Device
	lib  kernel.Library
}

func (b *builder) node(n stage.Node, inputs []device.Texture) (stage.Stage, error) {
	label := kernel.WithLabel(b.info.Name + "/" + n.Name)
	switch n.Kind {
	case stage.NodeConv:
		src, err := b.lib.Kernel(b.info.Name, n.Name)
		if err != nil {
			return nil, err
		}
		return kernel.NewConv2d(b.dev, inputs, src, label)
	case stage.NodeDepthToSpace:
		d2s, err := kernel.NewDepthToSpace(b.dev, inputs, label)
		if err != nil {
			return nil, err
		}
		if d2s.Factor() != b.info.Scale {
			d2s.Release()
			return nil, fmt.Errorf("%s: %d heads give factor %d, want %d", b.info.Name, len(inputs), d2s.Factor(), b.info.Scale)
		}
		return d2s, nil
	case stage.NodeOverlay:
		return kernel.NewOverlay(b.dev, inputs[0], inputs[1], inputs[0].Size().Scaled(n.Scale), label)
	default:
		return nil, fmt.Errorf("%s: unsupported node kind %s", b.info.Name, n.Kind)
	}
}
