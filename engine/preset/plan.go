package preset

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-neural/common"
)

// StepKind is the kind of work one plan step performs.
type StepKind int

const (
	// StepClamp pre-conditions highlights.
	StepClamp StepKind = iota
	// StepRestore runs a restore network at the current resolution.
	StepRestore
	// StepUpscale runs a 2x upscale network.
	StepUpscale
	// StepDownscale resamples to Step.Target.
	StepDownscale
)

// String returns the step kind name.
func (k StepKind) String() string {
	switch k {
	case StepClamp:
		return "Clamp"
	case StepRestore:
		return "Restore"
	case StepUpscale:
		return "Upscale"
	case StepDownscale:
		return "Downscale"
	default:
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
}

// Step is one stage of a preset plan.
type Step struct {
	// Kind is the work performed.
	Kind StepKind
	// Architecture is the catalog network for restore and upscale steps.
	Architecture string
	// Target is the requested size for downscale steps.
	Target common.Dimensions
	// Output is the resolution after the step.
	Output common.Dimensions
}

// String renders the step for logs and the CLI.
func (s Step) String() string {
	switch s.Kind {
	case StepRestore, StepUpscale:
		return fmt.Sprintf("%s(%s) -> %s", s.Kind, s.Architecture, s.Output)
	default:
		return fmt.Sprintf("%s -> %s", s.Kind, s.Output)
	}
}

// Steps is an ordered preset plan.
type Steps []Step

// Output returns the resolution the plan produces from native.
func (s Steps) Output(native common.Dimensions) common.Dimensions {
	if len(s) == 0 {
		return native
	}
	return s[len(s)-1].Output
}

const (
	upscaleRatio = 1.2

	fitLow  = 1.2
	fitHigh = 2.0

	halfLow  = 2.4
	halfHigh = 4.0

	// upscaleFactor is the scale of every upscale network a mode may name.
	upscaleFactor = 2
)

// Plan decides the sequence of steps that brings native towards target with the networks of mode.
// It is pure and allocates no GPU resources.
//
// The plan always starts with a clamp and an optional restoration. It upscales once when target exceeds
// 1.2x the current size in both dimensions, then resamples to target when target lies strictly between
// 1.2x and 2x native, or to half of target when it lies strictly between 2.4x and 4x native. A second
// restoration follows, then a second upscale when target still exceeds 1.2x the current size. Targets in
// the gaps between those bands are left to the presenter to scale.
//
// Parameters:
//   - native: the source resolution
//   - target: the display resolution
//   - mode: the networks to use
//
// Returns:
//   - Steps: the plan
func Plan(native, target common.Dimensions, mode Mode) Steps {
	cur := native
	steps := Steps{{Kind: StepClamp, Output: cur}}

	if mode.Restore != "" {
		steps = append(steps, Step{Kind: StepRestore, Architecture: mode.Restore, Output: cur})
	}
	if target.Exceeds(cur, upscaleRatio) {
		cur = cur.Scaled(upscaleFactor)
		steps = append(steps, Step{Kind: StepUpscale, Architecture: mode.Upscale, Output: cur})
	}
	if target.Within(native, fitLow, fitHigh) {
		cur = target
		steps = append(steps, Step{Kind: StepDownscale, Target: cur, Output: cur})
	}
	if target.Within(native, halfLow, halfHigh) {
		cur = target.CeilHalf()
		steps = append(steps, Step{Kind: StepDownscale, Target: cur, Output: cur})
	}
	steps = append(steps, Step{Kind: StepRestore, Architecture: mode.SecondRestore, Output: cur})
	if target.Exceeds(cur, upscaleRatio) {
		cur = cur.Scaled(upscaleFactor)
		steps = append(steps, Step{Kind: StepUpscale, Architecture: mode.SecondUpscale, Output: cur})
	}
	return steps
}
