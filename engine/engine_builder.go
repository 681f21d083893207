package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/profiler"
	"github.com/Carmen-Shannon/oxy-neural/engine/renderer"
	"github.com/Carmen-Shannon/oxy-neural/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//   - interval: how often stats are logged; non-positive means one second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool, interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
		e.profiler = profiler.NewProfiler(interval)
	}
}

// WithSelection sets the pipeline built for the first frame. An unknown name is logged and ignored.
//
// Parameters:
//   - name: an entry of Selections()
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSelection(name string) EngineBuilderOption {
	return func(e *engine) {
		if !validSelection(name) {
			common.Logger().Warn("engine: invalid selection", "selection", name, "active", e.selection)
			return
		}
		e.selection = name
	}
}

// WithTarget sets the display resolution presets plan towards.
//
// Parameters:
//   - d: the display resolution; empty means the source resolution
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTarget(d common.Dimensions) EngineBuilderOption {
	return func(e *engine) {
		e.target = d
	}
}

// WithPresenter sets the presenter every frame is drawn with. Without one, frames are computed but not
// shown.
//
// Parameters:
//   - p: the presenter
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPresenter(p renderer.Presenter) EngineBuilderOption {
	return func(e *engine) {
		e.presenter = p
	}
}

// WithWindow attaches a window. Its resize events retarget the engine and resize the presenter, and its
// keys control compare, split and selection.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithFrameRate overrides the source's frame rate in Run.
//
// Parameters:
//   - fps: frames per second; non-positive keeps the source's rate
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps > 0 {
			e.frameRate = fps
		}
	}
}

// WithUncapped makes Run submit frames as fast as the source decodes them.
//
// Parameters:
//   - uncapped: true to disable pacing
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithUncapped(uncapped bool) EngineBuilderOption {
	return func(e *engine) {
		e.uncapped = uncapped
	}
}

// WithFrameCallback registers a function Run calls after every submitted frame.
//
// Parameters:
//   - callback: receives the engine stats after the frame
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameCallback(callback func(Stats)) EngineBuilderOption {
	return func(e *engine) {
		e.frameCallback = callback
	}
}
