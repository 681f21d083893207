package renderer

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed shaders/blit.wgsl
var blitWGSL string

var (
	blitVertexShader   = shader.MustShader("blit", shader.ShaderTypeVertex, blitWGSL)
	blitFragmentShader = shader.MustShader("blit", shader.ShaderTypeFragment, blitWGSL)
)

// paramsSize is the byte size of the blit Params uniform.
const paramsSize = 16

// wgpuPresenterBackend draws with a full-screen triangle onto the device surface.
type wgpuPresenterBackend struct {
	dev *device.WGPU

	format      wgpu.TextureFormat
	module      *wgpu.ShaderModule
	layout      *wgpu.BindGroupLayout
	pipeLayout  *wgpu.PipelineLayout
	pipeline    *wgpu.RenderPipeline
	params      *wgpu.Buffer
	bindGroup   *wgpu.BindGroup
	boundOutput device.Texture
	boundOrig   device.Texture

	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ presenterBackend = &wgpuPresenterBackend{}

func newWGPUPresenterBackend(dev *device.WGPU) *wgpuPresenterBackend {
	return &wgpuPresenterBackend{dev: dev}
}

func (b *wgpuPresenterBackend) Configure(size common.Dimensions, mode PresentMode) error {
	surface := b.dev.Surface()
	capabilities := surface.GetCapabilities(b.dev.Adapter())
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		return fmt.Errorf("%w: surface reports no formats", ErrUnsupportedDevice)
	}
	b.format = capabilities.Formats[0]

	presentMode := wgpu.PresentModeImmediate
	if mode == PresentModeVSync {
		presentMode = wgpu.PresentModeFifo
	}
	surface.Configure(b.dev.Adapter(), b.dev.Raw(), &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.format,
		Width:       uint32(size.Width),
		Height:      uint32(size.Height),
		PresentMode: presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if b.pipeline != nil {
		return nil
	}
	return b.createPipeline()
}

func (b *wgpuPresenterBackend) createPipeline() error {
	d := b.dev.Raw()
	var err error
	b.module, err = d.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: blitVertexShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: blitWGSL,
		},
	})
	if err != nil {
		return fmt.Errorf("blit shader module: %w", err)
	}

	desc, err := device.LayoutDescriptor("blit", blitVertexShader, blitFragmentShader)
	if err != nil {
		return err
	}
	b.layout, err = d.CreateBindGroupLayout(&desc)
	if err != nil {
		return fmt.Errorf("blit bind group layout: %w", err)
	}
	b.pipeLayout, err = d.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "blit",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.layout},
	})
	if err != nil {
		return fmt.Errorf("blit pipeline layout: %w", err)
	}

	b.pipeline, err = d.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "blit Render Pipeline",
		Layout: b.pipeLayout,
		Vertex: wgpu.VertexState{
			Module:     b.module,
			EntryPoint: blitVertexShader.EntryPoint(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     b.module,
			EntryPoint: blitFragmentShader.EntryPoint(),
			Targets: []wgpu.ColorTargetState{
				{
					Format:    b.format,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("blit render pipeline: %w", err)
	}

	b.params, err = d.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "blit params",
		Size:  paramsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("blit params buffer: %w", err)
	}
	return nil
}

func (b *wgpuPresenterBackend) WriteUniforms(compare bool, split float32) error {
	if b.params == nil {
		return errors.New("blit params buffer not created")
	}
	var data [paramsSize]byte
	if compare {
		binary.LittleEndian.PutUint32(data[0:], 1)
	}
	binary.LittleEndian.PutUint32(data[4:], math.Float32bits(split))
	b.dev.Queue().WriteBuffer(b.params, 0, data[:])
	return nil
}

// bind rebuilds the bind group when the pipeline hands over different textures, which happens after a
// rebuild or a resolution change.
func (b *wgpuPresenterBackend) bind(output, original device.Texture) error {
	if b.bindGroup != nil && output == b.boundOutput && original == b.boundOrig {
		return nil
	}
	out, ok := output.(device.WGPUTexture)
	if !ok {
		return fmt.Errorf("%w: output texture %q is not a wgpu texture", ErrUnsupportedDevice, output.Label())
	}
	orig, ok := original.(device.WGPUTexture)
	if !ok {
		return fmt.Errorf("%w: original texture %q is not a wgpu texture", ErrUnsupportedDevice, original.Label())
	}

	bg, err := b.dev.Raw().CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "blit",
		Layout: b.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: out.View()},
			{Binding: 1, TextureView: orig.View()},
			{Binding: 2, Sampler: b.dev.Sampler()},
			{Binding: 3, Buffer: b.params, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: blit bind group: %v", device.ErrResourceExhausted, err)
	}
	if b.bindGroup != nil {
		b.bindGroup.Release()
	}
	b.bindGroup = bg
	b.boundOutput = output
	b.boundOrig = original
	return nil
}

func (b *wgpuPresenterBackend) Encode(enc device.CommandEncoder, output, original device.Texture) error {
	raw, ok := enc.(device.WGPUEncoder)
	if !ok {
		return fmt.Errorf("%w: encoder was not created by a wgpu device", ErrUnsupportedDevice)
	}
	if b.frameSurface != nil {
		return errors.New("previous frame surface not yet flipped")
	}
	if err := b.bind(output, original); err != nil {
		return err
	}

	surfaceTexture, err := b.dev.Surface().GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("surface view: %w", err)
	}

	pass := raw.Raw().BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	pass.SetPipeline(b.pipeline)
	pass.SetBindGroup(0, b.bindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()

	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuPresenterBackend) Flip() {
	if b.frameSurface == nil {
		return
	}
	b.dev.Surface().Present()
	b.releaseFrame()
}

func (b *wgpuPresenterBackend) Discard() {
	b.releaseFrame()
}

func (b *wgpuPresenterBackend) releaseFrame() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuPresenterBackend) Release() {
	b.releaseFrame()
	if b.bindGroup != nil {
		b.bindGroup.Release()
		b.bindGroup = nil
	}
	if b.params != nil {
		b.params.Release()
		b.params = nil
	}
	if b.pipeline != nil {
		b.pipeline.Release()
		b.pipeline = nil
	}
	if b.pipeLayout != nil {
		b.pipeLayout.Release()
		b.pipeLayout = nil
	}
	if b.layout != nil {
		b.layout.Release()
		b.layout = nil
	}
	if b.module != nil {
		b.module.Release()
		b.module = nil
	}
}
