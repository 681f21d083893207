package renderer

import (
	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
)

// headlessPresenterBackend keeps what would have been drawn without touching a surface.
type headlessPresenterBackend struct {
	size     common.Dimensions
	compare  bool
	split    float32
	output   string
	original string
}

var _ presenterBackend = &headlessPresenterBackend{}

func newHeadlessPresenterBackend() *headlessPresenterBackend {
	return &headlessPresenterBackend{}
}

func (b *headlessPresenterBackend) Configure(size common.Dimensions, _ PresentMode) error {
	b.size = size
	return nil
}

func (b *headlessPresenterBackend) WriteUniforms(compare bool, split float32) error {
	b.compare = compare
	b.split = split
	return nil
}

func (b *headlessPresenterBackend) Encode(_ device.CommandEncoder, output, original device.Texture) error {
	b.output = output.Label()
	b.original = original.Label()
	return nil
}

func (b *headlessPresenterBackend) Flip()    {}
func (b *headlessPresenterBackend) Discard() {}
func (b *headlessPresenterBackend) Release() {}
