// Package devicetest provides a recording device.Device for exercising pipeline construction and frame
// recording without a GPU.
package devicetest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/shader"
)

// Dispatch is one recorded compute dispatch.
type Dispatch struct {
	// Kernel is the label of the dispatched kernel.
	Kernel string
	// Inputs are the labels of the textures bound to sampled texture bindings, in binding order.
	Inputs []string
	// Output is the label of the texture bound to the storage texture binding.
	Output string
	// Workgroups is the dispatch size.
	Workgroups [3]uint32
}

// Device records every call made against it. It is safe for concurrent use.
type Device struct {
	mu          sync.Mutex
	limits      device.Limits
	failAfter   int
	allocations int
	resources   []resource
	submitted   [][]Dispatch
	submitErr   error
	discarded   int
	writes      map[string][]byte
	bufferData  map[string][]byte
	released    bool
}

var _ device.Device = &Device{}

type resource interface {
	isReleased() bool
}

// Texture is the fake texture type.
type Texture struct {
	label    string
	size     common.Dimensions
	format   device.TextureFormat
	usage    device.TextureUsage
	released bool
}

// Buffer is the fake buffer type.
type Buffer struct {
	label    string
	size     uint64
	released bool
}

// Kernel is the fake kernel type.
type Kernel struct {
	src      shader.Shader
	released bool
}

// BindGroup is the fake bind group type.
type BindGroup struct {
	label    string
	inputs   []string
	output   string
	released bool
}

// Encoder is the fake command encoder type.
type Encoder struct {
	dev        *Device
	dispatches []Dispatch
	submitted  bool
}

// Option configures a fake Device.
type Option func(*Device)

// WithFailAfter makes every allocation after the first n fail with device.ErrResourceExhausted.
func WithFailAfter(n int) Option {
	return func(d *Device) {
		d.failAfter = n
	}
}

// WithLimits overrides the reported device limits.
func WithLimits(l device.Limits) Option {
	return func(d *Device) {
		d.limits = l
	}
}

// New creates a fake device.
func New(opts ...Option) *Device {
	d := &Device{
		limits:     device.DefaultLimits(),
		failAfter:  -1,
		writes:     make(map[string][]byte),
		bufferData: make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetFailAfter makes allocations fail once n more have succeeded. A negative value disables failures.
func (d *Device) SetFailAfter(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failAfter = n
	d.allocations = 0
}

// Allocations returns the number of successful allocations (textures, buffers, kernels and bind groups).
func (d *Device) Allocations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.resources)
}

// Live returns the number of allocated resources that have not been released.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, r := range d.resources {
		if !r.isReleased() {
			n++
		}
	}
	return n
}

// LiveTextures returns the labels of textures that have not been released.
func (d *Device) LiveTextures() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, r := range d.resources {
		if t, ok := r.(*Texture); ok && !t.released {
			out = append(out, t.label)
		}
	}
	return out
}

// Submitted returns the dispatches of every submitted encoder, one slice per submit.
func (d *Device) Submitted() [][]Dispatch {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]Dispatch, len(d.submitted))
	copy(out, d.submitted)
	return out
}

// LastTextureWrite returns the most recent data uploaded to the texture with the given label.
func (d *Device) LastTextureWrite(label string) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes[label]
}

// BufferData returns the current contents of the buffer with the given label.
func (d *Device) BufferData(label string) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bufferData[label]
}

// allocate must be called with mu held.
func (d *Device) allocate(what string) error {
	if d.released {
		return device.ErrReleased
	}
	if d.failAfter >= 0 && d.allocations >= d.failAfter {
		return fmt.Errorf("devicetest: %s: %w", what, device.ErrResourceExhausted)
	}
	d.allocations++
	return nil
}

func (d *Device) Label() string         { return "devicetest" }
func (d *Device) Limits() device.Limits { return d.limits }

func (d *Device) CreateTexture(desc device.TextureDescriptor) (device.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if desc.Size.Empty() {
		return nil, fmt.Errorf("devicetest: texture %q has empty size %s", desc.Label, desc.Size)
	}
	if err := d.allocate("texture " + desc.Label); err != nil {
		return nil, err
	}
	t := &Texture{label: desc.Label, size: desc.Size, format: desc.Format, usage: desc.Usage}
	d.resources = append(d.resources, t)
	return t, nil
}

func (d *Device) CreateBuffer(label string, size uint64) (device.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.allocate("buffer " + label); err != nil {
		return nil, err
	}
	size = (size + 15) &^ 15
	b := &Buffer{label: label, size: size}
	d.resources = append(d.resources, b)
	d.bufferData[label] = make([]byte, size)
	return b, nil
}

func (d *Device) CreateKernel(s shader.Shader) (device.Kernel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s.ShaderType() != shader.ShaderTypeCompute {
		return nil, fmt.Errorf("devicetest: kernel %s must be a compute shader", s.Key())
	}
	if err := d.allocate("kernel " + s.Key()); err != nil {
		return nil, err
	}
	k := &Kernel{src: s}
	d.resources = append(d.resources, k)
	return k, nil
}

func (d *Device) CreateBindGroup(label string, k device.Kernel, entries []device.BindGroupEntry) (device.BindGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := device.CheckBindGroupEntries(k.Shader(), entries); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if t, ok := e.Texture.(*Texture); ok && t.released {
			return nil, fmt.Errorf("devicetest: bind group %q references released texture %q", label, t.label)
		}
	}
	if err := d.allocate("bind group " + label); err != nil {
		return nil, err
	}

	bg := &BindGroup{label: label}
	for _, b := range k.Shader().Bindings() {
		for _, e := range entries {
			if e.Binding != b.Binding || e.Texture == nil {
				continue
			}
			if b.Kind == shader.BindingStorageTexture {
				bg.output = e.Texture.Label()
			} else {
				bg.inputs = append(bg.inputs, e.Texture.Label())
			}
		}
	}
	d.resources = append(d.resources, bg)
	return bg, nil
}

func (d *Device) WriteTexture(t device.Texture, data []byte) error {
	if err := device.CheckTextureData(t, data); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if ft, ok := t.(*Texture); ok && ft.released {
		return device.ErrReleased
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	d.writes[t.Label()] = cp
	return nil
}

func (d *Device) WriteBuffer(b device.Buffer, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf := d.bufferData[b.Label()]
	if offset+uint64(len(data)) > uint64(len(buf)) {
		return fmt.Errorf("devicetest: write of %d bytes at %d overflows buffer %q", len(data), offset, b.Label())
	}
	copy(buf[offset:], data)
	return nil
}

func (d *Device) BeginFrame() (device.CommandEncoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil, device.ErrReleased
	}
	return &Encoder{dev: d}, nil
}

func (d *Device) Submit(enc device.CommandEncoder) error {
	e, ok := enc.(*Encoder)
	if !ok {
		return fmt.Errorf("devicetest: foreign encoder")
	}
	if e.submitted {
		return fmt.Errorf("devicetest: encoder already submitted")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.submitErr; err != nil {
		d.submitErr = nil
		return err
	}
	e.submitted = true
	d.submitted = append(d.submitted, e.dispatches)
	return nil
}

// FailNextSubmit makes the next Submit return err without submitting the encoder.
func (d *Device) FailNextSubmit(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitErr = err
}

// Discarded returns the number of encoders dropped without being submitted.
func (d *Device) Discarded() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.discarded
}

func (d *Device) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
}

// Dispatch records the kernel and the resources bound by bg.
func (e *Encoder) Dispatch(k device.Kernel, bg device.BindGroup, workgroups [3]uint32) error {
	if e.submitted {
		return fmt.Errorf("devicetest: dispatch on submitted encoder")
	}
	fk, ok := k.(*Kernel)
	if !ok || fk.released {
		return fmt.Errorf("devicetest: kernel %s is not usable", k.Label())
	}
	fb, ok := bg.(*BindGroup)
	if !ok || fb.released {
		return fmt.Errorf("devicetest: bind group for %s is not usable", k.Label())
	}
	e.dispatches = append(e.dispatches, Dispatch{
		Kernel:     k.Label(),
		Inputs:     fb.inputs,
		Output:     fb.output,
		Workgroups: workgroups,
	})
	return nil
}

func (e *Encoder) Discard() {
	if e.submitted {
		return
	}
	e.submitted = true
	if e.dev != nil {
		e.dev.mu.Lock()
		e.dev.discarded++
		e.dev.mu.Unlock()
	}
}

// Dispatches returns the dispatches recorded so far.
func (e *Encoder) Dispatches() []Dispatch { return e.dispatches }

func (t *Texture) Label() string                { return t.label }
func (t *Texture) Size() common.Dimensions      { return t.size }
func (t *Texture) Format() device.TextureFormat { return t.format }
func (t *Texture) Usage() device.TextureUsage   { return t.usage }
func (t *Texture) Release()                     { t.released = true }
func (t *Texture) isReleased() bool             { return t.released }

func (b *Buffer) Label() string    { return b.label }
func (b *Buffer) Size() uint64     { return b.size }
func (b *Buffer) Release()         { b.released = true }
func (b *Buffer) isReleased() bool { return b.released }

func (k *Kernel) Label() string         { return k.src.Key() }
func (k *Kernel) Shader() shader.Shader { return k.src }
func (k *Kernel) Release()              { k.released = true }
func (k *Kernel) isReleased() bool      { return k.released }

func (g *BindGroup) Release()         { g.released = true }
func (g *BindGroup) isReleased() bool { return g.released }

// ConvSource returns WGSL for a convolution-shaped kernel reading the given number of textures and writing
// one rgba16float storage texture. It averages its inputs, which is enough to exercise wiring.
func ConvSource(inputs int) string {
	var sb strings.Builder
	for i := 0; i < inputs; i++ {
		fmt.Fprintf(&sb, "@group(0) @binding(%d) var tex%d: texture_2d<f32>;\n", i, i)
	}
	fmt.Fprintf(&sb, "@group(0) @binding(%d) var out_tex: texture_storage_2d<rgba16float, write>;\n\n", inputs)
	sb.WriteString("@compute @workgroup_size(8, 8)\n")
	sb.WriteString("fn main(@builtin(global_invocation_id) id: vec3<u32>) {\n")
	sb.WriteString("    let dims = textureDimensions(out_tex);\n")
	sb.WriteString("    if (id.x >= dims.x || id.y >= dims.y) { return; }\n")
	sb.WriteString("    let p = vec2<i32>(id.xy);\n")
	sb.WriteString("    var acc = vec4<f32>(0.0);\n")
	for i := 0; i < inputs; i++ {
		fmt.Fprintf(&sb, "    acc += textureLoad(tex%d, p, 0);\n", i)
	}
	fmt.Fprintf(&sb, "    textureStore(out_tex, p, acc / %d.0);\n", inputs)
	sb.WriteString("}\n")
	return sb.String()
}
