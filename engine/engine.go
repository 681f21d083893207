// Package engine runs frames through the selected restoration or upscaling pipeline and hands the result
// to a presenter.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/architecture"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/kernel"
	"github.com/Carmen-Shannon/oxy-neural/engine/profiler"
	"github.com/Carmen-Shannon/oxy-neural/engine/renderer"
	"github.com/Carmen-Shannon/oxy-neural/engine/source"
	"github.com/Carmen-Shannon/oxy-neural/engine/stage"
	"github.com/Carmen-Shannon/oxy-neural/engine/window"
)

var (
	// ErrUnknownSelection is returned by Select for a name that is neither an architecture nor a preset.
	ErrUnknownSelection = errors.New("invalid selection")
	// ErrInvalidFrame is returned for frames whose pixel data does not match their size.
	ErrInvalidFrame = errors.New("invalid frame")
	// ErrPipelineBuild wraps the error that stopped a pipeline from being built. It is returned by every
	// frame until something triggers a rebuild.
	ErrPipelineBuild = errors.New("pipeline build failed")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("engine closed")
)

// Stats summarizes what the engine has done so far.
type Stats struct {
	Selection string
	Native    common.Dimensions
	Target    common.Dimensions
	Output    common.Dimensions
	Frames    int
	Skipped   int
	Redraws   int
	Rebuilds  int
	// LastError is the sticky pipeline build error, if any.
	LastError error
}

// engine implements the Engine interface.
type engine struct {
	mu sync.Mutex

	dev       device.Device
	lib       kernel.Library
	presenter renderer.Presenter
	window    window.Window

	profiler         *profiler.Profiler
	profilingEnabled bool

	selection string
	target    common.Dimensions
	native    common.Dimensions

	input    device.Texture
	pipeline stage.Stage
	scratch  []byte
	hasFrame bool
	buildErr error

	frameRate     float64
	uncapped      bool
	frameCallback func(Stats)

	stats Stats

	quitChannel chan struct{}
	quitOnce    sync.Once
	closed      bool
}

// Engine is the execution harness. It owns the frame texture and the active pipeline and rebuilds the
// pipeline when the selection, the target or the source resolution changes.
type Engine interface {
	// Select switches the active pipeline. Accepted names are those of Selections(). An unknown name is
	// logged and rejected, and the previous pipeline stays active.
	//
	// Parameters:
	//   - name: an architecture name, "Original", or "Preset-<mode>"
	//
	// Returns:
	//   - error: ErrUnknownSelection, or ErrPipelineBuild if the new pipeline could not be built
	Select(name string) error

	// Selection returns the current selection name.
	//
	// Returns:
	//   - string: the selection
	Selection() string

	// SetTarget sets the display resolution presets plan towards. An empty target means the source
	// resolution.
	//
	// Parameters:
	//   - d: the display resolution
	//
	// Returns:
	//   - error: ErrPipelineBuild if a preset had to be rebuilt and failed
	SetTarget(d common.Dimensions) error

	// SubmitFrame uploads f and runs one full frame: pipeline pass, present, submit. Frames with a zero
	// dimension are skipped without touching the pipeline.
	//
	// Parameters:
	//   - f: the decoded frame
	//
	// Returns:
	//   - error: ErrInvalidFrame, ErrPipelineBuild, or a device error
	SubmitFrame(f source.Frame) error

	// Redraw re-runs the last frame without uploading. It does nothing before the first frame.
	//
	// Returns:
	//   - error: a device or pipeline error
	Redraw() error

	// SetCompare toggles comparison against the original frame and redraws.
	//
	// Parameters:
	//   - on: true to compare
	//
	// Returns:
	//   - error: an error from the redraw
	SetCompare(on bool) error

	// SetSplitRatio moves the compare split line and redraws.
	//
	// Parameters:
	//   - r: the split position in [0, 1]
	//
	// Returns:
	//   - error: an error from the redraw
	SetSplitRatio(r float32) error

	// Output returns the active pipeline's output texture, or nil when no pipeline is active.
	//
	// Returns:
	//   - device.Texture: the output texture
	Output() device.Texture

	// Pipeline returns the active pipeline, or nil.
	//
	// Returns:
	//   - stage.Stage: the pipeline
	Pipeline() stage.Stage

	// Stats returns a snapshot of the engine's counters.
	//
	// Returns:
	//   - Stats: the counters
	Stats() Stats

	// Run pulls frames from src at its frame rate and submits them until the source ends, ctx is done,
	// or Quit is called. With a window attached, Run drives the window's message loop on the calling
	// goroutine and returns once the window closes.
	//
	// Parameters:
	//   - ctx: cancels the run
	//   - src: the frame source
	//
	// Returns:
	//   - error: the first frame error, or nil when the source is exhausted
	Run(ctx context.Context, src source.FrameSource) error

	// Quit stops Run. Safe to call multiple times.
	Quit()

	// Close releases the pipeline and the frame texture. The device, presenter and library belong to the
	// caller.
	Close()
}

var _ Engine = &engine{}

// NewEngine creates an Engine over dev. No GPU resources are allocated until the first frame.
//
// Parameters:
//   - dev: the device pipelines run on
//   - lib: the library supplying convolution kernels
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(dev device.Device, lib kernel.Library, options ...EngineBuilderOption) Engine {
	e := &engine{
		dev:         dev,
		lib:         lib,
		selection:   architecture.Original,
		profiler:    profiler.NewProfiler(time.Second),
		quitChannel: make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(e.resizeWindow)
		e.window.SetKeyDownCallback(e.handleKey)
	}
	return e
}

func (e *engine) Select(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if !validSelection(name) {
		common.Logger().Warn("engine: invalid selection", "selection", name, "active", e.selection)
		return unknownSelection(name)
	}
	e.selection = name
	if e.input == nil {
		// the next frame allocates the frame texture and builds
		e.buildErr = nil
		return nil
	}
	if err := e.rebuild(); err != nil {
		return err
	}
	return e.redraw()
}

func (e *engine) Selection() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection
}

func (e *engine) SetTarget(d common.Dimensions) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return e.retarget(d)
}

// resizeWindow follows a window size change. The presenter and the target change under e.mu, so a
// frame in flight on the loop goroutine always sees them together.
func (e *engine) resizeWindow(width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if e.presenter != nil {
		if err := e.presenter.Resize(width, height); err != nil {
			common.Logger().Error("engine: resize presenter", "error", err)
		}
	}
	if err := e.retarget(common.Dims(width, height)); err != nil {
		common.Logger().Error("engine: retarget", "error", err)
	}
}

// retarget must be called with e.mu held.
func (e *engine) retarget(d common.Dimensions) error {
	if d == e.target {
		return nil
	}
	e.target = d
	// only presets depend on the target
	if _, ok := lookupPreset(e.selection); !ok || e.input == nil {
		return nil
	}
	if err := e.rebuild(); err != nil {
		return err
	}
	return e.redraw()
}

func (e *engine) SubmitFrame(f source.Frame) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if f.Empty() {
		common.Logger().Warn("engine: found invalid frame, skipping", "width", f.Width, "height", f.Height)
		e.stats.Skipped++
		e.profiler.Skip()
		return nil
	}
	if len(f.Pix) != f.Width*f.Height*4 {
		return fmt.Errorf("%w: %dx%d frame carries %d bytes", ErrInvalidFrame, f.Width, f.Height, len(f.Pix))
	}

	switch {
	case f.Size() != e.native || (e.input == nil && e.buildErr == nil):
		if err := e.resize(f.Size()); err != nil {
			return err
		}
	case e.pipeline == nil && e.buildErr != nil:
		return e.buildErr
	}

	rgba8ToHalf(e.scratch, f.Pix)
	if err := e.dev.WriteTexture(e.input, e.scratch); err != nil {
		return fmt.Errorf("upload frame: %w", err)
	}
	e.hasFrame = true

	if err := e.frame(); err != nil {
		return err
	}
	e.stats.Frames++
	if e.profilingEnabled {
		e.profiler.Tick()
	}
	return nil
}

func (e *engine) Redraw() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return e.redraw()
}

func (e *engine) SetCompare(on bool) error {
	if e.presenter == nil {
		return nil
	}
	e.presenter.SetCompare(on)
	return e.Redraw()
}

func (e *engine) SetSplitRatio(r float32) error {
	if e.presenter == nil {
		return nil
	}
	e.presenter.SetSplitRatio(r)
	return e.Redraw()
}

func (e *engine) Output() device.Texture {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pipeline == nil {
		return nil
	}
	return e.pipeline.OutputTexture()
}

func (e *engine) Pipeline() stage.Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pipeline
}

func (e *engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.stats
	s.Selection = e.selection
	s.Native = e.native
	s.Target = e.targetFor()
	if e.pipeline != nil {
		s.Output = e.pipeline.OutputTexture().Size()
	}
	s.LastError = e.buildErr
	return s
}

// Quit signals Run to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Close() {
	e.Quit()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.releasePipeline()
	if e.input != nil {
		e.input.Release()
		e.input = nil
	}
	common.Logger().Info("engine: closed", "frames", e.stats.Frames, "skipped", e.stats.Skipped, "rebuilds", e.stats.Rebuilds)
}

// targetFor returns the display target, falling back to the source resolution.
func (e *engine) targetFor() common.Dimensions {
	if e.target.Empty() {
		return e.native
	}
	return e.target
}

// resize reallocates the frame texture for a new source resolution and rebuilds the pipeline.
func (e *engine) resize(size common.Dimensions) error {
	common.Logger().Info("engine: resolution updated", "from", e.native, "to", size)
	e.releasePipeline()
	if e.input != nil {
		e.input.Release()
		e.input = nil
	}
	e.native = size
	e.hasFrame = false

	input, err := e.dev.CreateTexture(device.TextureDescriptor{
		Label:  "frame",
		Size:   size,
		Format: device.TextureFormatRGBA16Float,
		Usage:  device.TextureUsageSampled | device.TextureUsageCopyDst,
	})
	if err != nil {
		e.buildErr = fmt.Errorf("%w: frame texture: %w", ErrPipelineBuild, err)
		return e.buildErr
	}
	e.input = input
	if n := size.Area() * 8; cap(e.scratch) < n {
		e.scratch = make([]byte, n)
	} else {
		e.scratch = e.scratch[:n]
	}
	return e.rebuild()
}

// rebuild replaces the active pipeline. The old pipeline is released first; if the new one fails no
// pipeline is left active and the error sticks until the next rebuild.
func (e *engine) rebuild() error {
	e.releasePipeline()
	p, err := buildSelection(e.selection, e.dev, e.input, e.targetFor(), e.lib)
	if err != nil {
		e.buildErr = fmt.Errorf("%w: %s: %w", ErrPipelineBuild, e.selection, err)
		common.Logger().Error("engine: pipeline build failed", "selection", e.selection, "error", err)
		return e.buildErr
	}
	e.pipeline = p
	e.buildErr = nil
	e.stats.Rebuilds++
	e.profiler.Rebuild()
	common.Logger().Info("engine: pipeline built", "selection", e.selection, "input", e.native, "output", p.OutputTexture().Size())
	return nil
}

func (e *engine) releasePipeline() {
	if e.pipeline != nil {
		e.pipeline.Release()
		e.pipeline = nil
	}
}

// redraw replays the last uploaded frame.
func (e *engine) redraw() error {
	if !e.hasFrame || e.pipeline == nil {
		return nil
	}
	if err := e.frame(); err != nil {
		return err
	}
	e.stats.Redraws++
	return nil
}

// frame records the pipeline and the present into one encoder and submits it once.
func (e *engine) frame() error {
	if e.pipeline == nil {
		return e.buildErr
	}
	enc, err := e.dev.BeginFrame()
	if err != nil {
		return err
	}
	if err := e.record(enc); err != nil {
		// neither call does anything once the encoder was submitted or nothing was presented
		enc.Discard()
		if e.presenter != nil {
			e.presenter.Discard()
		}
		return err
	}
	if e.presenter != nil {
		e.presenter.Flip()
	}
	return nil
}

func (e *engine) record(enc device.CommandEncoder) error {
	if err := e.pipeline.Pass(enc); err != nil {
		return fmt.Errorf("pass %s: %w", e.selection, err)
	}
	if e.presenter != nil {
		if err := e.presenter.Present(enc, e.pipeline.OutputTexture(), e.input); err != nil {
			return fmt.Errorf("present: %w", err)
		}
	}
	return e.dev.Submit(enc)
}

func (e *engine) Run(ctx context.Context, src source.FrameSource) error {
	if e.window == nil {
		return e.loop(ctx, src)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		errc <- e.loop(runCtx, src)
		close(done)
	}()

	title := ""
	e.window.SetUpdateCallback(func() {
		if sel := e.Selection(); sel != title {
			title = sel
			e.window.SetTitle("neuralplay - " + sel)
		}
		select {
		case <-ctx.Done():
		case <-e.quitChannel:
		case <-done:
		default:
			return
		}
		if err := e.window.Close(); err != nil {
			common.Logger().Warn("engine: close window", "error", err)
		}
	})
	e.window.ProcessMessages()
	cancel()

	if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// loop paces frames from src with a ticker at the source's frame rate.
func (e *engine) loop(ctx context.Context, src source.FrameSource) error {
	fps := common.Coalesce(e.frameRate, src.FrameRate())
	if fps <= 0 {
		fps = source.DefaultFrameRate
	}
	var tick <-chan time.Time
	if !e.uncapped {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.quitChannel:
			return nil
		default:
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-e.quitChannel:
				return nil
			case <-tick:
			}
		}

		f, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			common.Logger().Info("engine: source exhausted", "frames", e.Stats().Frames)
			return nil
		}
		if err != nil {
			return fmt.Errorf("next frame: %w", err)
		}
		if err := e.SubmitFrame(f); err != nil {
			return err
		}
		if e.frameCallback != nil {
			e.frameCallback(e.Stats())
		}
	}
}

// splitStep is how far one arrow key press moves the compare split line.
const splitStep = 0.05

// handleKey maps window keys onto engine controls: C toggles compare, Left/Right move the split line,
// Tab cycles selections and the digit keys pick one directly.
func (e *engine) handleKey(k window.Key) {
	var err error
	switch k {
	case window.KeyC:
		if e.presenter != nil {
			err = e.SetCompare(!e.presenter.Compare())
		}
	case window.KeyLeft, window.KeyRight:
		if e.presenter != nil {
			step := float32(splitStep)
			if k == window.KeyLeft {
				step = -step
			}
			err = e.SetSplitRatio(e.presenter.SplitRatio() + step)
		}
	case window.KeyTab:
		err = e.Select(nextSelection(e.Selection(), 1))
	default:
		if k >= window.Key0 && k <= window.Key9 {
			names := Selections()
			if i := int(k - window.Key0); i < len(names) {
				err = e.Select(names[i])
			}
		}
	}
	if err != nil {
		common.Logger().Error("engine: key", "key", int(k), "error", err)
	}
}

// nextSelection returns the selection step places after current, wrapping around.
func nextSelection(current string, step int) string {
	names := Selections()
	for i, n := range names {
		if n == current {
			return names[((i+step)%len(names)+len(names))%len(names)]
		}
	}
	return names[0]
}
