package device

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// WGPUTexture is implemented by textures created by a WGPU device. Render code that needs the underlying
// view asserts to it.
type WGPUTexture interface {
	Texture
	View() *wgpu.TextureView
}

// WGPUEncoder is implemented by command encoders created by a WGPU device.
type WGPUEncoder interface {
	CommandEncoder
	Raw() *wgpu.CommandEncoder
}

// WGPU is the cogentcore/webgpu implementation of Device.
type WGPU struct {
	mu       sync.Mutex
	label    string
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface
	sampler  *wgpu.Sampler
	limits   Limits

	forceFallbackAdapter bool
	surfaceDescriptor    *wgpu.SurfaceDescriptor
	released             bool
}

var _ Device = &WGPU{}

type wgpuTexture struct {
	label    string
	size     common.Dimensions
	format   TextureFormat
	texture  *wgpu.Texture
	view     *wgpu.TextureView
	released bool
}

type wgpuBuffer struct {
	label    string
	size     uint64
	buffer   *wgpu.Buffer
	released bool
}

type wgpuKernel struct {
	label    string
	src      shader.Shader
	module   *wgpu.ShaderModule
	layout   *wgpu.BindGroupLayout
	pipeline *wgpu.PipelineLayout
	compute  *wgpu.ComputePipeline
	released bool
}

type wgpuBindGroup struct {
	group    *wgpu.BindGroup
	released bool
}

type wgpuEncoder struct {
	encoder   *wgpu.CommandEncoder
	submitted bool
}

var (
	_ WGPUTexture = &wgpuTexture{}
	_ Buffer      = &wgpuBuffer{}
	_ Kernel      = &wgpuKernel{}
	_ BindGroup   = &wgpuBindGroup{}
	_ WGPUEncoder = &wgpuEncoder{}
)

// NewWGPU requests an adapter and device from the native WebGPU implementation.
//
// Parameters:
//   - options: functional options applied before the adapter is requested
//
// Returns:
//   - *WGPU: the initialized device
//   - error: an error if no adapter or device could be obtained
func NewWGPU(options ...WGPUBuilderOption) (*WGPU, error) {
	w := &WGPU{
		label:  "wgpu",
		limits: DefaultLimits(),
	}
	for _, opt := range options {
		opt(w)
	}

	w.instance = wgpu.CreateInstance(nil)
	if w.surfaceDescriptor != nil {
		w.surface = w.instance.CreateSurface(w.surfaceDescriptor)
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: w.forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("device: request adapter: %w", err)
	}
	w.adapter = a

	limits := wgpu.DefaultLimits()
	limits.MaxSampledTexturesPerShaderStage = uint32(w.limits.MaxSampledTexturesPerStage)
	w.limits.MaxTextureDimension2D = int(limits.MaxTextureDimension2D)

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: w.label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("device: request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	w.sampler, err = d.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         w.label + " linear sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("device: create sampler: %w", err)
	}

	common.Logger().Info("device: adapter acquired", "label", w.label, "fallback", w.forceFallbackAdapter, "surface", w.surface != nil)
	return w, nil
}

// Instance returns the underlying wgpu instance.
func (w *WGPU) Instance() *wgpu.Instance { return w.instance }

// Adapter returns the underlying wgpu adapter.
func (w *WGPU) Adapter() *wgpu.Adapter { return w.adapter }

// Raw returns the underlying wgpu device.
func (w *WGPU) Raw() *wgpu.Device { return w.device }

// Queue returns the device queue.
func (w *WGPU) Queue() *wgpu.Queue { return w.queue }

// Surface returns the surface created from WithSurfaceDescriptor, or nil for a headless device.
func (w *WGPU) Surface() *wgpu.Surface { return w.surface }

// Sampler returns the shared linear clamp-to-edge sampler.
func (w *WGPU) Sampler() *wgpu.Sampler { return w.sampler }

func (w *WGPU) Label() string {
	return w.label
}

func (w *WGPU) Limits() Limits {
	return w.limits
}

func (w *WGPU) CreateTexture(desc TextureDescriptor) (Texture, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return nil, ErrReleased
	}
	if desc.Size.Empty() {
		return nil, fmt.Errorf("device: texture %q has empty size %s", desc.Label, desc.Size)
	}
	if desc.Size.Width > w.limits.MaxTextureDimension2D || desc.Size.Height > w.limits.MaxTextureDimension2D {
		return nil, fmt.Errorf("%w: texture %q size %s exceeds %d", ErrResourceExhausted, desc.Label, desc.Size, w.limits.MaxTextureDimension2D)
	}

	tex, err := w.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     desc.Label,
		Usage:     wgpuTextureUsage(desc.Usage),
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Size.Width),
			Height:             uint32(desc.Size.Height),
			DepthOrArrayLayers: 1,
		},
		Format:        wgpuTextureFormat(desc.Format),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: texture %q: %v", ErrResourceExhausted, desc.Label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("%w: texture view %q: %v", ErrResourceExhausted, desc.Label, err)
	}
	return &wgpuTexture{
		label:   desc.Label,
		size:    desc.Size,
		format:  desc.Format,
		texture: tex,
		view:    view,
	}, nil
}

func (w *WGPU) CreateBuffer(label string, size uint64) (Buffer, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return nil, ErrReleased
	}
	// uniform buffers must be a multiple of 16 bytes
	size = (size + 15) &^ 15
	buf, err := w.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: buffer %q: %v", ErrResourceExhausted, label, err)
	}
	return &wgpuBuffer{label: label, size: size, buffer: buf}, nil
}

func (w *WGPU) CreateKernel(s shader.Shader) (Kernel, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return nil, ErrReleased
	}
	if s.ShaderType() != shader.ShaderTypeCompute {
		return nil, fmt.Errorf("device: kernel %s must be a compute shader, got %s", s.Key(), s.ShaderType())
	}

	k := &wgpuKernel{label: s.Key(), src: s}
	var err error
	k.module, err = w.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: s.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.Source(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("device: shader module %s: %w", s.Key(), err)
	}

	desc, err := LayoutDescriptor(s.Key(), s)
	if err != nil {
		k.Release()
		return nil, err
	}
	k.layout, err = w.device.CreateBindGroupLayout(&desc)
	if err != nil {
		k.Release()
		return nil, fmt.Errorf("device: bind group layout %s: %w", s.Key(), err)
	}
	k.pipeline, err = w.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            s.Key(),
		BindGroupLayouts: []*wgpu.BindGroupLayout{k.layout},
	})
	if err != nil {
		k.Release()
		return nil, fmt.Errorf("device: pipeline layout %s: %w", s.Key(), err)
	}
	k.compute, err = w.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  s.Key(),
		Layout: k.pipeline,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     k.module,
			EntryPoint: s.EntryPoint(),
		},
	})
	if err != nil {
		k.Release()
		return nil, fmt.Errorf("%w: compute pipeline %s: %v", ErrResourceExhausted, s.Key(), err)
	}
	return k, nil
}

func (w *WGPU) CreateBindGroup(label string, k Kernel, entries []BindGroupEntry) (BindGroup, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return nil, ErrReleased
	}
	wk, ok := k.(*wgpuKernel)
	if !ok {
		return nil, fmt.Errorf("%w: kernel %s was not created by this device", ErrInvalidBinding, k.Label())
	}
	if err := CheckBindGroupEntries(wk.src, entries); err != nil {
		return nil, err
	}

	wgpuEntries := make([]wgpu.BindGroupEntry, 0, len(entries))
	for _, e := range entries {
		entry := wgpu.BindGroupEntry{Binding: uint32(e.Binding)}
		switch {
		case e.Texture != nil:
			t, ok := e.Texture.(*wgpuTexture)
			if !ok {
				return nil, fmt.Errorf("%w: texture %q was not created by this device", ErrInvalidBinding, e.Texture.Label())
			}
			entry.TextureView = t.view
		case e.Buffer != nil:
			b, ok := e.Buffer.(*wgpuBuffer)
			if !ok {
				return nil, fmt.Errorf("%w: buffer %q was not created by this device", ErrInvalidBinding, e.Buffer.Label())
			}
			entry.Buffer = b.buffer
			entry.Size = wgpu.WholeSize
		case e.Sampler:
			entry.Sampler = w.sampler
		}
		wgpuEntries = append(wgpuEntries, entry)
	}

	bg, err := w.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label,
		Layout:  wk.layout,
		Entries: wgpuEntries,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: bind group %q: %v", ErrResourceExhausted, label, err)
	}
	return &wgpuBindGroup{group: bg}, nil
}

func (w *WGPU) WriteTexture(t Texture, data []byte) error {
	wt, ok := t.(*wgpuTexture)
	if !ok {
		return fmt.Errorf("device: texture %q was not created by this device", t.Label())
	}
	if wt.released {
		return ErrReleased
	}
	if err := CheckTextureData(t, data); err != nil {
		return err
	}
	w.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  wt.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(wt.size.Width * wt.format.BytesPerTexel()),
			RowsPerImage: uint32(wt.size.Height),
		},
		&wgpu.Extent3D{
			Width:              uint32(wt.size.Width),
			Height:             uint32(wt.size.Height),
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (w *WGPU) WriteBuffer(b Buffer, offset uint64, data []byte) error {
	wb, ok := b.(*wgpuBuffer)
	if !ok {
		return fmt.Errorf("device: buffer %q was not created by this device", b.Label())
	}
	if wb.released {
		return ErrReleased
	}
	if offset+uint64(len(data)) > wb.size {
		return fmt.Errorf("device: write of %d bytes at %d overflows buffer %q of %d bytes", len(data), offset, wb.label, wb.size)
	}
	w.queue.WriteBuffer(wb.buffer, offset, data)
	return nil
}

func (w *WGPU) BeginFrame() (CommandEncoder, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return nil, ErrReleased
	}
	enc, err := w.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("device: command encoder: %w", err)
	}
	return &wgpuEncoder{encoder: enc}, nil
}

func (w *WGPU) Submit(enc CommandEncoder) error {
	we, ok := enc.(*wgpuEncoder)
	if !ok {
		return fmt.Errorf("device: encoder was not created by this device")
	}
	if we.submitted {
		return fmt.Errorf("device: encoder already submitted")
	}
	we.submitted = true
	defer we.encoder.Release()

	cb, err := we.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("device: finish encoder: %w", err)
	}
	defer cb.Release()
	w.queue.Submit(cb)
	return nil
}

func (w *WGPU) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return
	}
	w.released = true
	if w.sampler != nil {
		w.sampler.Release()
	}
	if w.queue != nil {
		w.queue.Release()
	}
	if w.device != nil {
		w.device.Release()
	}
	if w.adapter != nil {
		w.adapter.Release()
	}
	if w.surface != nil {
		w.surface.Release()
	}
	if w.instance != nil {
		w.instance.Release()
	}
}

func (t *wgpuTexture) Label() string           { return t.label }
func (t *wgpuTexture) Size() common.Dimensions { return t.size }
func (t *wgpuTexture) Format() TextureFormat   { return t.format }
func (t *wgpuTexture) View() *wgpu.TextureView { return t.view }

func (t *wgpuTexture) Release() {
	if t.released {
		return
	}
	t.released = true
	t.view.Release()
	t.texture.Release()
}

func (b *wgpuBuffer) Label() string { return b.label }
func (b *wgpuBuffer) Size() uint64  { return b.size }

func (b *wgpuBuffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.buffer.Release()
}

func (k *wgpuKernel) Label() string         { return k.label }
func (k *wgpuKernel) Shader() shader.Shader { return k.src }

func (k *wgpuKernel) Release() {
	if k.released {
		return
	}
	k.released = true
	if k.compute != nil {
		k.compute.Release()
	}
	if k.pipeline != nil {
		k.pipeline.Release()
	}
	if k.layout != nil {
		k.layout.Release()
	}
	if k.module != nil {
		k.module.Release()
	}
}

func (g *wgpuBindGroup) Release() {
	if g.released {
		return
	}
	g.released = true
	g.group.Release()
}

func (e *wgpuEncoder) Raw() *wgpu.CommandEncoder { return e.encoder }

func (e *wgpuEncoder) Discard() {
	if e.submitted {
		return
	}
	e.submitted = true
	e.encoder.Release()
}

func (e *wgpuEncoder) Dispatch(k Kernel, bg BindGroup, workgroups [3]uint32) error {
	if e.submitted {
		return fmt.Errorf("device: dispatch on submitted encoder")
	}
	wk, ok := k.(*wgpuKernel)
	if !ok || wk.released {
		return fmt.Errorf("device: kernel %s is not usable", k.Label())
	}
	wg, ok := bg.(*wgpuBindGroup)
	if !ok || wg.released {
		return fmt.Errorf("device: bind group for %s is not usable", k.Label())
	}
	pass := e.encoder.BeginComputePass(nil)
	pass.SetPipeline(wk.compute)
	pass.SetBindGroup(0, wg.group, nil)
	pass.DispatchWorkgroups(workgroups[0], workgroups[1], workgroups[2])
	pass.End()
	return nil
}
