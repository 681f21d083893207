// Package preset composes catalog networks into resolution-aware chains that take a source to a display
// resolution.
package preset

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/architecture"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/kernel"
	"github.com/Carmen-Shannon/oxy-neural/engine/stage"
)

// Preset is a built plan. It is a Stage whose output is the last step's output.
type Preset struct {
	*stage.Sequence
	mode   Mode
	native common.Dimensions
	target common.Dimensions
	steps  Steps
}

var _ stage.Stage = &Preset{}

// New plans and builds a preset over input. If any step fails, the steps already built are released.
//
// Parameters:
//   - dev: the device to allocate on
//   - input: the source texture at native resolution, borrowed for the lifetime of the preset
//   - target: the display resolution
//   - mode: the networks to use
//   - lib: the library supplying convolution kernels
//
// Returns:
//   - *Preset: the built chain
//   - error: a build error
func New(dev device.Device, input device.Texture, target common.Dimensions, mode Mode, lib kernel.Library) (*Preset, error) {
	native := input.Size()
	p := &Preset{
		Sequence: stage.NewSequence("Preset-" + mode.Name),
		mode:     mode,
		native:   native,
		target:   target,
		steps:    Plan(native, target, mode),
	}

	cur := input
	for i, step := range p.steps {
		st, err := p.build(dev, cur, step, i, lib)
		if err != nil {
			p.Release()
			return nil, fmt.Errorf("preset %s step %d %s: %w", mode.Name, i, step.Kind, err)
		}
		if got := st.OutputTexture().Size(); got != step.Output {
			st.Release()
			p.Release()
			return nil, fmt.Errorf("preset %s step %d %s: produced %s, planned %s", mode.Name, i, step.Kind, got, step.Output)
		}
		p.Append(st)
		cur = st.OutputTexture()
	}

	common.Logger().Debug("preset: built", "mode", mode.Name, "native", native, "target", target, "output", p.OutputDimensions(), "steps", len(p.steps))
	return p, nil
}

func (p *Preset) build(dev device.Device, in device.Texture, step Step, i int, lib kernel.Library) (stage.Stage, error) {
	label := kernel.WithLabel(fmt.Sprintf("%s/%d/%s", p.Label(), i, step.Kind))
	switch step.Kind {
	case StepClamp:
		return kernel.NewClampHighlights(dev, in, label)
	case StepDownscale:
		return kernel.NewDownscale(dev, in, step.Target, label)
	case StepRestore, StepUpscale:
		return architecture.New(step.Architecture, dev, in, lib)
	default:
		return nil, fmt.Errorf("unsupported step kind %s", step.Kind)
	}
}

// UpdateParam rejects every name.
func (p *Preset) UpdateParam(name string, _ any) error {
	return stage.Unsupported(p.Label(), name)
}

// Mode returns the mode the preset was built with.
func (p *Preset) Mode() Mode {
	return p.mode
}

// Steps returns the plan the preset was built from.
func (p *Preset) Steps() Steps {
	out := make(Steps, len(p.steps))
	copy(out, p.steps)
	return out
}

// OutputDimensions returns the resolution of the preset's output.
func (p *Preset) OutputDimensions() common.Dimensions {
	return p.steps.Output(p.native)
}
