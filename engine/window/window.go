// Package window opens the player window and forwards its keyboard and resize events.
package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Key identifies a keyboard key independently of the windowing library.
type Key int

const (
	KeyUnknown Key = iota
	KeySpace
	KeyC
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyTab
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
)

// Window defines the public-facing interface for the player window.
type Window interface {
	// SetUpdateCallback sets the function invoked once per iteration of the message loop.
	//
	// Parameters:
	//   - callback: the update function
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function invoked when the framebuffer size changes.
	//
	// Parameters:
	//   - callback: receives the new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the function invoked on key press and repeat.
	//
	// Parameters:
	//   - callback: receives the pressed key
	SetKeyDownCallback(callback func(key Key))

	// SetTitle replaces the title bar text.
	//
	// Parameters:
	//   - title: the new title
	SetTitle(title string)

	// SurfaceDescriptor returns the descriptor a WebGPU surface is created from.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil if the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	//
	// Returns:
	//   - bool: true while open
	IsRunning() bool

	// Close destroys the window.
	//
	// Returns:
	//   - error: an error if the window was never opened
	Close() error

	// ProcessMessages runs the message loop until the window closes, calling the update callback each
	// iteration. It must run on the thread that created the window.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// platform is the windowing system behind an engineWindow.
type platform interface {
	surfaceDescriptor() *wgpu.SurfaceDescriptor
	setTitle(title string)
	// poll drains pending events and reports whether the window is still open.
	poll() bool
	open() bool
	close() error
}

// openPlatform creates the platform window. Tests replace it.
var openPlatform = openGLFW

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title  string
	width  int
	height int

	platform platform

	onUpdate  func()
	onResize  func(width, height int)
	onKeyDown func(key Key)
}

var _ Window = &engineWindow{}

// NewWindow creates the platform window.
//
// Parameters:
//   - options: functional options applied before the window is created
//
// Returns:
//   - Window: the opened window
//   - error: an error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:  "neuralplay",
		width:  1280,
		height: 720,
	}
	for _, opt := range options {
		opt(w)
	}
	p, err := openPlatform(w)
	if err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	w.platform = p
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(key Key)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetTitle(title string) {
	w.title = title
	if w.platform != nil {
		w.platform.setTitle(title)
	}
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *engineWindow) IsRunning() bool {
	return w.platform != nil && w.platform.open()
}

func (w *engineWindow) Close() error {
	if w.platform == nil {
		return errors.New("window is not open")
	}
	err := w.platform.close()
	w.platform = nil
	return err
}

func (w *engineWindow) ProcessMessages() {
	for w.platform != nil && w.platform.poll() {
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// keyDown forwards a translated key press to the callback.
func (w *engineWindow) keyDown(k Key) {
	if k == KeyUnknown || w.onKeyDown == nil {
		return
	}
	w.onKeyDown(k)
}

// resized records the framebuffer size and forwards it to the callback.
func (w *engineWindow) resized(width, height int) {
	w.width = width
	w.height = height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
