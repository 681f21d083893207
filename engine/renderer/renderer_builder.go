package renderer

import "github.com/Carmen-Shannon/oxy-neural/common"

// PresenterBuilderOption is a functional option applied to a presenter during construction via NewPresenter.
type PresenterBuilderOption func(*presenter)

// WithPresentMode sets how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - PresenterBuilderOption: a function that applies the present mode option to a presenter
func WithPresentMode(mode PresentMode) PresenterBuilderOption {
	return func(p *presenter) {
		p.presentMode = mode
	}
}

// WithSize sets the initial size of the drawing target.
//
// Parameters:
//   - size: the surface size in pixels
//
// Returns:
//   - PresenterBuilderOption: a function that applies the size option to a presenter
func WithSize(size common.Dimensions) PresenterBuilderOption {
	return func(p *presenter) {
		p.size = size
	}
}

// WithCompare sets the initial compare state.
func WithCompare(on bool) PresenterBuilderOption {
	return func(p *presenter) {
		p.compare = on
	}
}

// WithSplitRatio sets the initial split position, clamped to [0, 1].
func WithSplitRatio(r float32) PresenterBuilderOption {
	return func(p *presenter) {
		p.split = clampRatio(r)
	}
}
