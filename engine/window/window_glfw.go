package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var glfwKeys = map[glfw.Key]Key{
	glfw.KeySpace: KeySpace,
	glfw.KeyC:     KeyC,
	glfw.KeyLeft:  KeyLeft,
	glfw.KeyRight: KeyRight,
	glfw.KeyUp:    KeyUp,
	glfw.KeyDown:  KeyDown,
	glfw.KeyTab:   KeyTab,
}

func init() {
	for i := 0; i < 10; i++ {
		glfwKeys[glfw.Key0+glfw.Key(i)] = Key0 + Key(i)
	}
}

// glfwPlatform is the desktop platform. GLFW calls must stay on the thread that created the window.
type glfwPlatform struct {
	win     *glfw.Window
	closing bool
}

var _ platform = &glfwPlatform{}

// openGLFW creates a window without a client API, since WebGPU owns presentation, and routes its key
// and framebuffer events into w.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func openGLFW(w *engineWindow) (platform, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("glfw create window: %w", err)
	}
	p := &glfwPlatform{win: win}

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		switch {
		case key == glfw.KeyEscape && action == glfw.Press:
			p.closing = true
		case action != glfw.Release:
			w.keyDown(glfwKeys[key])
		}
	})
	// High-DPI displays report a framebuffer larger than the window.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})
	w.width, w.height = win.GetFramebufferSize()
	return p, nil
}

func (p *glfwPlatform) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(p.win)
}

func (p *glfwPlatform) setTitle(title string) {
	p.win.SetTitle(title)
}

func (p *glfwPlatform) poll() bool {
	glfw.PollEvents()
	return p.open()
}

func (p *glfwPlatform) open() bool {
	return !p.closing && !p.win.ShouldClose()
}

func (p *glfwPlatform) close() error {
	if p.win == nil {
		return errors.New("glfw window already destroyed")
	}
	p.closing = true
	p.win.Destroy()
	p.win = nil
	glfw.Terminate()
	return nil
}
