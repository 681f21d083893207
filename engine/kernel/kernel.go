// Package kernel implements the primitive compute stages neural pipelines are assembled from. Each
// primitive owns one output texture, one compiled kernel and one bind group, all created at construction.
package kernel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/shader"
	"github.com/Carmen-Shannon/oxy-neural/engine/stage"
)

var (
	// ErrBindingMismatch is returned when a shader's declared bindings do not match the resources a
	// primitive provides.
	ErrBindingMismatch = errors.New("kernel: binding mismatch")

	// ErrSizeMismatch is returned when inputs that must share a resolution do not.
	ErrSizeMismatch = errors.New("kernel: input size mismatch")

	// ErrNoInputs is returned when a primitive is constructed without input textures.
	ErrNoInputs = errors.New("kernel: no inputs")
)

// outputUsage is the usage of every primitive output: written as storage, read by later stages and the presenter.
const outputUsage = device.TextureUsageStorage | device.TextureUsageSampled | device.TextureUsageCopySrc

// primitive is the shared implementation of every kernel stage.
type primitive struct {
	label       string
	src         shader.Shader
	dev         device.Device
	inputs      []device.Texture
	output      device.Texture
	kernel      device.Kernel
	bindGroup   device.BindGroup
	paramBuffer device.Buffer
	params      map[string]*param
	workgroups  [3]uint32
	released    bool
}

var _ stage.Stage = &primitive{}

type param struct {
	index int
	value float32
}

// newPrimitive validates src against the provided resources and allocates the output texture, kernel,
// parameter buffer and bind group. On failure every resource allocated so far is released.
//
// Sampled texture bindings receive inputs in binding order, the single storage texture binding receives
// the output, sampler bindings receive the device's linear sampler and the single uniform binding, if any,
// receives the parameter buffer.
func newPrimitive(dev device.Device, src shader.Shader, inputs []device.Texture, outSize common.Dimensions, cfg *kernelConfig) (p *primitive, err error) {
	label := common.Coalesce(cfg.label, src.Key())
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInputs, label)
	}
	for i, in := range inputs {
		if in == nil {
			return nil, fmt.Errorf("%w: %s input %d is nil", ErrNoInputs, label, i)
		}
	}
	if src.ShaderType() != shader.ShaderTypeCompute {
		return nil, fmt.Errorf("%w: %s is a %s shader", ErrBindingMismatch, label, src.ShaderType())
	}
	if limit := dev.Limits().MaxSampledTexturesPerStage; len(inputs) > limit {
		return nil, fmt.Errorf("%w: %s reads %d textures, device allows %d", ErrBindingMismatch, label, len(inputs), limit)
	}

	sampled := src.BindingsOfKind(shader.BindingSampledTexture)
	if len(sampled) != len(inputs) {
		return nil, fmt.Errorf("%w: %s declares %d sampled textures for %d inputs", ErrBindingMismatch, label, len(sampled), len(inputs))
	}
	storage := src.BindingsOfKind(shader.BindingStorageTexture)
	if len(storage) != 1 {
		return nil, fmt.Errorf("%w: %s declares %d storage textures, want 1", ErrBindingMismatch, label, len(storage))
	}
	if storage[0].TexelFormat != device.TextureFormatRGBA16Float.String() {
		return nil, fmt.Errorf("%w: %s writes %s, want %s", ErrBindingMismatch, label, storage[0].TexelFormat, device.TextureFormatRGBA16Float)
	}
	uniforms := src.BindingsOfKind(shader.BindingUniform)
	switch {
	case len(cfg.params) > 0 && len(uniforms) != 1:
		return nil, fmt.Errorf("%w: %s exposes parameters but declares %d uniform bindings", ErrBindingMismatch, label, len(uniforms))
	case len(cfg.params) == 0 && len(uniforms) > 0:
		return nil, fmt.Errorf("%w: %s declares a uniform binding but exposes no parameters", ErrBindingMismatch, label)
	}
	for _, b := range src.Bindings() {
		switch {
		case b.Group != 0:
			return nil, fmt.Errorf("%w: %s uses bind group %d", ErrBindingMismatch, label, b.Group)
		case b.Kind == shader.BindingSampledTexture, b.Kind == shader.BindingStorageTexture,
			b.Kind == shader.BindingUniform, b.Kind == shader.BindingSampler:
		default:
			return nil, fmt.Errorf("%w: %s binding %s is an unsupported %s", ErrBindingMismatch, label, b.Name, b.Kind)
		}
	}

	p = &primitive{
		label:  label,
		src:    src,
		dev:    dev,
		inputs: inputs,
		params: make(map[string]*param, len(cfg.params)),
	}
	defer func() {
		if err != nil {
			p.Release()
			p = nil
		}
	}()

	p.output, err = dev.CreateTexture(device.TextureDescriptor{
		Label:  label,
		Size:   outSize,
		Format: device.TextureFormatRGBA16Float,
		Usage:  outputUsage,
	})
	if err != nil {
		return p, fmt.Errorf("%s: output texture: %w", label, err)
	}
	p.kernel, err = dev.CreateKernel(src)
	if err != nil {
		return p, fmt.Errorf("%s: kernel: %w", label, err)
	}

	entries := make([]device.BindGroupEntry, 0, len(src.Bindings()))
	for i, b := range sampled {
		entries = append(entries, device.BindGroupEntry{Binding: b.Binding, Texture: inputs[i]})
	}
	entries = append(entries, device.BindGroupEntry{Binding: storage[0].Binding, Texture: p.output})
	for _, b := range src.BindingsOfKind(shader.BindingSampler) {
		entries = append(entries, device.BindGroupEntry{Binding: b.Binding, Sampler: true})
	}
	if len(cfg.params) > 0 {
		if err = p.initParams(uniforms[0], cfg.params); err != nil {
			return p, err
		}
		entries = append(entries, device.BindGroupEntry{Binding: uniforms[0].Binding, Buffer: p.paramBuffer})
	}

	p.bindGroup, err = dev.CreateBindGroup(label, p.kernel, entries)
	if err != nil {
		return p, fmt.Errorf("%s: bind group: %w", label, err)
	}

	wg := src.WorkgroupSize()
	p.workgroups = [3]uint32{
		uint32(common.CeilDiv(outSize.Width, int(wg[0]))),
		uint32(common.CeilDiv(outSize.Height, int(wg[1]))),
		1,
	}
	return p, nil
}

// initParams allocates the uniform buffer backing the declared parameters and writes their defaults.
func (p *primitive) initParams(b shader.Binding, specs []paramSpec) error {
	size := b.MinSize
	for _, s := range specs {
		if s.index < 0 {
			return fmt.Errorf("%w: %s parameter %q has negative slot %d", ErrBindingMismatch, p.label, s.name, s.index)
		}
		if end := uint64(s.index+1) * 4; end > size {
			size = end
		}
		p.params[s.name] = &param{index: s.index, value: s.value}
	}

	var err error
	p.paramBuffer, err = p.dev.CreateBuffer(p.label+" params", size)
	if err != nil {
		return fmt.Errorf("%s: parameter buffer: %w", p.label, err)
	}
	for _, prm := range p.params {
		if err := p.writeParam(prm); err != nil {
			return err
		}
	}
	return nil
}

func (p *primitive) writeParam(prm *param) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(prm.value))
	return p.dev.WriteBuffer(p.paramBuffer, uint64(prm.index)*4, buf[:])
}

// Label returns the stage label.
func (p *primitive) Label() string {
	return p.label
}

// Inputs returns the borrowed input textures in binding order.
func (p *primitive) Inputs() []device.Texture {
	out := make([]device.Texture, len(p.inputs))
	copy(out, p.inputs)
	return out
}

// Workgroups returns the dispatch size recorded by Pass.
func (p *primitive) Workgroups() [3]uint32 {
	return p.workgroups
}

// Param returns the current value of a parameter.
func (p *primitive) Param(name string) (float32, bool) {
	prm, ok := p.params[name]
	if !ok {
		return 0, false
	}
	return prm.value, true
}

func (p *primitive) UpdateParam(name string, value any) error {
	prm, ok := p.params[name]
	if !ok {
		return stage.Unsupported(p.label, name)
	}
	v, err := toFloat32(value)
	if err != nil {
		return fmt.Errorf("%s: %q: %w", p.label, name, err)
	}
	prm.value = v
	return p.writeParam(prm)
}

func (p *primitive) Pass(enc device.CommandEncoder) error {
	if p.released {
		return stage.ErrReleased
	}
	return enc.Dispatch(p.kernel, p.bindGroup, p.workgroups)
}

func (p *primitive) OutputTexture() device.Texture {
	return p.output
}

func (p *primitive) Release() {
	if p.released {
		return
	}
	p.released = true
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	if p.paramBuffer != nil {
		p.paramBuffer.Release()
	}
	if p.kernel != nil {
		p.kernel.Release()
	}
	if p.output != nil {
		p.output.Release()
	}
}

func toFloat32(value any) (float32, error) {
	var f float64
	switch v := value.(type) {
	case float32:
		f = float64(v)
	case float64:
		f = v
	case int:
		f = float64(v)
	case bool:
		if v {
			f = 1
		}
	default:
		return 0, fmt.Errorf("%w: %T", stage.ErrInvalidParamValue, value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", stage.ErrInvalidParamValue, f)
	}
	return float32(f), nil
}

// sameSize returns the common size of all inputs.
func sameSize(label string, inputs []device.Texture) (common.Dimensions, error) {
	if len(inputs) == 0 {
		return common.Dimensions{}, fmt.Errorf("%w: %s", ErrNoInputs, label)
	}
	for i, in := range inputs {
		if in == nil {
			return common.Dimensions{}, fmt.Errorf("%w: %s input %d is nil", ErrNoInputs, label, i)
		}
	}
	size := inputs[0].Size()
	for _, in := range inputs[1:] {
		if in.Size() != size {
			return common.Dimensions{}, fmt.Errorf("%w: %s has %s and %s (%s)", ErrSizeMismatch, label, size, in.Size(), in.Label())
		}
	}
	return size, nil
}
