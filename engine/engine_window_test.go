package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/source"
	"github.com/Carmen-Shannon/oxy-neural/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindow runs the message loop on the calling goroutine like the desktop window does.
type fakeWindow struct {
	running  bool
	title    string
	width    int
	height   int
	onUpdate func()
	onResize func(int, int)
	onKey    func(window.Key)

	// resizes are delivered one per message loop iteration.
	resizes   []common.Dimensions
	delivered atomic.Int32
}

var _ window.Window = &fakeWindow{}

func (f *fakeWindow) SetUpdateCallback(cb func())                { f.onUpdate = cb }
func (f *fakeWindow) SetResizeCallback(cb func(int, int))        { f.onResize = cb }
func (f *fakeWindow) SetKeyDownCallback(cb func(window.Key))     { f.onKey = cb }
func (f *fakeWindow) SetTitle(title string)                      { f.title = title }
func (f *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (f *fakeWindow) IsRunning() bool                            { return f.running }
func (f *fakeWindow) Width() int                                 { return f.width }
func (f *fakeWindow) Height() int                                { return f.height }

func (f *fakeWindow) Close() error {
	f.running = false
	return nil
}

func (f *fakeWindow) ProcessMessages() {
	for f.running {
		if n := int(f.delivered.Load()); n < len(f.resizes) && f.onResize != nil {
			f.onResize(f.resizes[n].Width, f.resizes[n].Height)
			f.delivered.Add(1)
		}
		if f.onUpdate != nil {
			f.onUpdate()
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWindowKeys(t *testing.T) {
	win := &fakeWindow{running: true}
	e, _, p := newTestEngine(t, WithWindow(win))

	win.onKey(window.KeyC)
	assert.True(t, p.Compare())
	win.onKey(window.KeyC)
	assert.False(t, p.Compare())

	win.onKey(window.KeyRight)
	assert.InDelta(t, 0.55, p.SplitRatio(), 1e-6)
	win.onKey(window.KeyLeft)
	win.onKey(window.KeyLeft)
	assert.InDelta(t, 0.45, p.SplitRatio(), 1e-6)

	names := Selections()
	win.onKey(window.Key0)
	assert.Equal(t, names[0], e.Selection())
	win.onKey(window.KeyTab)
	assert.Equal(t, names[1], e.Selection())
	win.onKey(window.Key2)
	assert.Equal(t, names[2], e.Selection())

	win.onKey(window.KeySpace)
	assert.Equal(t, names[2], e.Selection())
}

func TestWindowResizeRetargets(t *testing.T) {
	win := &fakeWindow{running: true}
	e, _, p := newTestEngine(t, WithWindow(win), WithSelection("Preset-ModeC"))
	require.NoError(t, e.SubmitFrame(frame(8, 4, 1)))

	win.onResize(32, 16)
	assert.Equal(t, common.Dims(32, 16), p.Size())
	s := e.Stats()
	assert.Equal(t, common.Dims(32, 16), s.Target)
	assert.Equal(t, 2, s.Rebuilds)
}

func TestRunWithWindow(t *testing.T) {
	win := &fakeWindow{running: true}
	e, dev, _ := newTestEngine(t, WithWindow(win), WithSelection("CNNM"), WithUncapped(true))
	src := source.NewStatic([]source.Frame{frame(8, 4, 1), frame(8, 4, 2)})

	require.NoError(t, e.Run(context.Background(), src))
	assert.False(t, win.running)
	assert.Equal(t, "neuralplay - CNNM", win.title)
	assert.Len(t, dev.Submitted(), 2)
}

func TestRunWithWindowQuit(t *testing.T) {
	win := &fakeWindow{running: true}
	e, _, _ := newTestEngine(t, WithWindow(win), WithFrameRate(1000))
	src := source.NewStatic([]source.Frame{frame(2, 2, 1)}, source.WithLoop(true))
	e.frameCallback = func(s Stats) {
		if s.Frames == 2 {
			e.Quit()
		}
	}

	require.NoError(t, e.Run(context.Background(), src))
	assert.False(t, win.running)
}

func TestWindowResizeDuringRun(t *testing.T) {
	sizes := make([]common.Dimensions, 0, 32)
	for i := 0; i < 8; i++ {
		sizes = append(sizes, common.Dims(12, 6), common.Dims(24, 12), common.Dims(8, 4), common.Dims(32+i, 16+i))
	}
	win := &fakeWindow{running: true, resizes: sizes}
	e, dev, p := newTestEngine(t, WithWindow(win), WithSelection("Preset-ModeC"), WithFrameRate(1000))
	src := source.NewStatic([]source.Frame{frame(8, 4, 1)}, source.WithLoop(true))
	e.frameCallback = func(s Stats) {
		if s.Frames >= 3 && int(win.delivered.Load()) == len(sizes) {
			e.Quit()
		}
	}

	require.NoError(t, e.Run(context.Background(), src))
	last := sizes[len(sizes)-1]
	assert.Equal(t, last, p.Size())
	assert.Equal(t, last, e.Stats().Target)
	assert.NotEmpty(t, dev.Submitted())
	assert.Zero(t, dev.Discarded())
}
