// Package renderer presents pipeline output. It draws the enhanced frame, optionally split against the
// original, onto a window surface.
package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
)

// DefaultSplitRatio places the compare split line in the middle of the frame.
const DefaultSplitRatio float32 = 0.5

var (
	// ErrReleased is returned by Present after Release.
	ErrReleased = errors.New("presenter released")
	// ErrUnsupportedDevice is returned when a backend cannot draw with the given device.
	ErrUnsupportedDevice = errors.New("device not supported by presenter backend")
)

// presenter is the implementation of the Presenter interface.
type presenter struct {
	mu sync.Mutex

	backend     presenterBackend
	presentMode PresentMode
	size        common.Dimensions

	compare      bool
	split        float32
	uniformDirty bool

	presents int
	pending  bool
	released bool
}

// Presenter draws a pipeline's output texture to the screen. It is the last stage of every frame and
// sits outside the pipeline itself.
type Presenter interface {
	// Present records the draw of output into enc. When compare is on, original is shown to the left of the
	// split line. Flip must be called after enc has been submitted.
	//
	// Parameters:
	//   - enc: the frame's command encoder
	//   - output: the pipeline output texture
	//   - original: the source frame texture
	//
	// Returns:
	//   - error: an error if the draw could not be recorded
	Present(enc device.CommandEncoder, output, original device.Texture) error

	// Flip shows the most recently presented frame. It does nothing when no frame is pending.
	Flip()

	// Discard drops the pending frame without showing it, for when its encoder was never submitted. It
	// does nothing when no frame is pending.
	Discard()

	// SetCompare toggles the side-by-side comparison against the original frame.
	//
	// Parameters:
	//   - on: true to show the original left of the split line
	SetCompare(on bool)

	// Compare reports whether comparison is on.
	//
	// Returns:
	//   - bool: the compare state
	Compare() bool

	// SetSplitRatio moves the split line. The ratio is clamped to [0, 1], where 0 is the left edge.
	//
	// Parameters:
	//   - r: the horizontal position of the split line as a fraction of the width
	SetSplitRatio(r float32)

	// SplitRatio returns the split line position.
	//
	// Returns:
	//   - float32: the ratio in [0, 1]
	SplitRatio() float32

	// Resize reconfigures the drawing target after the window size changes.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: an error if the target could not be reconfigured
	Resize(width, height int) error

	// Size returns the current size of the drawing target.
	//
	// Returns:
	//   - common.Dimensions: the size in pixels
	Size() common.Dimensions

	// Presents returns the number of frames flipped so far.
	//
	// Returns:
	//   - int: the count
	Presents() int

	// Release frees the presenter's GPU resources. The textures passed to Present are not released.
	Release()
}

var _ Presenter = &presenter{}

// NewPresenter creates a Presenter with the specified backend.
// BackendTypeWGPU requires dev to be a *device.WGPU created with a surface.
//
// Parameters:
//   - backendType: the backend to draw with
//   - dev: the device the pipeline runs on
//   - options: functional options applied before the target is configured
//
// Returns:
//   - Presenter: the configured presenter
//   - error: ErrUnsupportedDevice or a configuration error
func NewPresenter(backendType PresenterBackendType, dev device.Device, options ...PresenterBuilderOption) (Presenter, error) {
	p := &presenter{
		split:        DefaultSplitRatio,
		size:         common.Dims(1280, 720),
		uniformDirty: true,
	}
	for _, opt := range options {
		opt(p)
	}

	switch backendType {
	case BackendTypeWGPU:
		w, ok := dev.(*device.WGPU)
		if !ok || w.Surface() == nil {
			return nil, fmt.Errorf("%w: wgpu presenter needs a wgpu device with a surface", ErrUnsupportedDevice)
		}
		p.backend = newWGPUPresenterBackend(w)
	case BackendTypeHeadless:
		p.backend = newHeadlessPresenterBackend()
	default:
		return nil, fmt.Errorf("%w: backend type %d", ErrUnsupportedDevice, backendType)
	}

	if err := p.backend.Configure(p.size, p.presentMode); err != nil {
		p.backend.Release()
		return nil, err
	}
	return p, nil
}

func (p *presenter) Present(enc device.CommandEncoder, output, original device.Texture) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return ErrReleased
	}
	if output == nil || original == nil {
		return fmt.Errorf("present: missing texture")
	}
	if p.uniformDirty {
		if err := p.backend.WriteUniforms(p.compare, p.split); err != nil {
			return err
		}
		p.uniformDirty = false
	}
	if err := p.backend.Encode(enc, output, original); err != nil {
		return err
	}
	p.pending = true
	return nil
}

func (p *presenter) Flip() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.pending || p.released {
		return
	}
	p.backend.Flip()
	p.pending = false
	p.presents++
}

func (p *presenter) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.pending || p.released {
		return
	}
	p.backend.Discard()
	p.pending = false
}

func (p *presenter) SetCompare(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.compare != on {
		p.compare = on
		p.uniformDirty = true
	}
}

func (p *presenter) Compare() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.compare
}

func (p *presenter) SetSplitRatio(r float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r = clampRatio(r)
	if p.split != r {
		p.split = r
		p.uniformDirty = true
	}
}

func (p *presenter) SplitRatio() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.split
}

func (p *presenter) Resize(width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	size := common.Dims(width, height)
	if size.Empty() || size == p.size || p.released {
		return nil
	}
	if err := p.backend.Configure(size, p.presentMode); err != nil {
		return fmt.Errorf("resize presenter to %s: %w", size, err)
	}
	p.size = size
	return nil
}

func (p *presenter) Size() common.Dimensions {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

func (p *presenter) Presents() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.presents
}

func (p *presenter) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return
	}
	p.released = true
	p.backend.Release()
}

func clampRatio(r float32) float32 {
	if r != r || r < 0 {
		return 0
	}
	return min(r, 1)
}
