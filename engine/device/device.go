// Package device abstracts the GPU operations the neural pipeline needs: texture and buffer allocation,
// compute kernel creation, bind group wiring and command recording. Pipelines are written against this
// package only, which lets the whole construction and recording path run against a recording fake in tests.
package device

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/shader"
)

var (
	// ErrResourceExhausted is returned when the device cannot allocate a texture, buffer or pipeline.
	// It is fatal to the pipeline instance being constructed.
	ErrResourceExhausted = errors.New("device: resource exhausted")

	// ErrReleased is returned when an operation is attempted on a released device or resource.
	ErrReleased = errors.New("device: released")

	// ErrInvalidBinding is returned when a bind group entry does not match the kernel's declared layout.
	ErrInvalidBinding = errors.New("device: invalid binding")
)

// TextureFormat is the texel format of a texture.
type TextureFormat int

const (
	// TextureFormatRGBA16Float is four half-precision floats per texel. Every pipeline texture uses it.
	TextureFormatRGBA16Float TextureFormat = iota
	// TextureFormatRGBA8Unorm is four normalized bytes per texel.
	TextureFormatRGBA8Unorm
	// TextureFormatBGRA8Unorm is the common surface format on desktop platforms.
	TextureFormatBGRA8Unorm
)

// BytesPerTexel returns the byte size of a single texel.
func (f TextureFormat) BytesPerTexel() int {
	switch f {
	case TextureFormatRGBA16Float:
		return 8
	default:
		return 4
	}
}

// String returns the WGSL texel format name.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA16Float:
		return "rgba16float"
	case TextureFormatRGBA8Unorm:
		return "rgba8unorm"
	case TextureFormatBGRA8Unorm:
		return "bgra8unorm"
	default:
		return fmt.Sprintf("TextureFormat(%d)", int(f))
	}
}

// TextureUsage is a bitmask of the ways a texture may be used.
type TextureUsage uint32

const (
	// TextureUsageSampled allows binding the texture as a texture_2d input.
	TextureUsageSampled TextureUsage = 1 << iota
	// TextureUsageStorage allows binding the texture as a texture_storage_2d output.
	TextureUsageStorage
	// TextureUsageCopyDst allows uploading data with WriteTexture.
	TextureUsageCopyDst
	// TextureUsageCopySrc allows copying the texture out.
	TextureUsageCopySrc
)

// Has reports whether every bit of o is set in u.
func (u TextureUsage) Has(o TextureUsage) bool {
	return u&o == o
}

// TextureDescriptor describes a 2D texture to allocate.
type TextureDescriptor struct {
	// Label is a debug label attached to the texture.
	Label string
	// Size is the texture extent in pixels.
	Size common.Dimensions
	// Format is the texel format.
	Format TextureFormat
	// Usage is the allowed usage bitmask.
	Usage TextureUsage
}

// Limits are the device capabilities the pipeline validates against.
type Limits struct {
	// MaxSampledTexturesPerStage bounds the fan-in of a single kernel.
	MaxSampledTexturesPerStage int
	// MaxTextureDimension2D bounds texture width and height.
	MaxTextureDimension2D int
}

// DefaultLimits mirror the WebGPU baseline limits.
func DefaultLimits() Limits {
	return Limits{
		MaxSampledTexturesPerStage: 16,
		MaxTextureDimension2D:      8192,
	}
}

// Texture is an opaque GPU-resident 2D image.
type Texture interface {
	// Label returns the debug label of the texture.
	Label() string

	// Size returns the texture extent in pixels.
	//
	// Returns:
	//   - common.Dimensions: the width and height
	Size() common.Dimensions

	// Format returns the texel format.
	Format() TextureFormat

	// Release frees the GPU memory backing the texture. Releasing twice is a no-op.
	Release()
}

// Buffer is an opaque GPU buffer used for kernel uniforms.
type Buffer interface {
	// Label returns the debug label of the buffer.
	Label() string

	// Size returns the buffer size in bytes.
	Size() uint64

	// Release frees the buffer. Releasing twice is a no-op.
	Release()
}

// Kernel is a compiled compute pipeline together with its bind group layout.
type Kernel interface {
	// Label returns the debug label of the kernel.
	Label() string

	// Shader returns the parsed shader the kernel was compiled from.
	Shader() shader.Shader

	// Release frees the pipeline and its layouts.
	Release()
}

// BindGroup binds concrete resources to a kernel's group 0 layout.
type BindGroup interface {
	// Release frees the bind group.
	Release()
}

// BindGroupEntry wires one resource to one binding index. Exactly one of Texture, Buffer or Sampler must be set.
type BindGroupEntry struct {
	// Binding is the @binding index within group 0.
	Binding int
	// Texture is bound to sampled and storage texture bindings.
	Texture Texture
	// Buffer is bound to uniform and storage buffer bindings.
	Buffer Buffer
	// Sampler binds the device's shared linear clamp-to-edge sampler.
	Sampler bool
}

// CommandEncoder records compute dispatches for a single frame. Nothing executes until the encoder is submitted.
type CommandEncoder interface {
	// Dispatch records one compute dispatch.
	//
	// Parameters:
	//   - k: the kernel to run
	//   - bg: the bind group holding the kernel's resources
	//   - workgroups: the number of workgroups in x, y and z
	//
	// Returns:
	//   - error: an error if the encoder has already been submitted or released
	Dispatch(k Kernel, bg BindGroup, workgroups [3]uint32) error

	// Discard drops the recorded work without submitting it. It does nothing once the encoder has been
	// submitted or discarded.
	Discard()
}

// Device creates GPU resources and submits recorded work. All pipeline construction goes through it.
type Device interface {
	// Label returns a description of the device, typically the adapter name.
	Label() string

	// Limits returns the capabilities used to validate pipelines.
	Limits() Limits

	// CreateTexture allocates a 2D texture.
	//
	// Parameters:
	//   - desc: the texture description
	//
	// Returns:
	//   - Texture: the allocated texture
	//   - error: an error wrapping ErrResourceExhausted if allocation fails
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// CreateBuffer allocates a uniform buffer that can be written with WriteBuffer.
	//
	// Parameters:
	//   - label: a debug label
	//   - size: the buffer size in bytes
	//
	// Returns:
	//   - Buffer: the allocated buffer
	//   - error: an error wrapping ErrResourceExhausted if allocation fails
	CreateBuffer(label string, size uint64) (Buffer, error)

	// CreateKernel compiles a compute shader into a pipeline. The bind group layout is derived from the
	// shader's parsed bindings.
	//
	// Parameters:
	//   - s: a compute shader
	//
	// Returns:
	//   - Kernel: the compiled kernel
	//   - error: an error if the shader is not a compute shader or compilation fails
	CreateKernel(s shader.Shader) (Kernel, error)

	// CreateBindGroup binds resources to a kernel. Every entry must match a binding the kernel declares.
	//
	// Parameters:
	//   - label: a debug label
	//   - k: the kernel whose layout the group follows
	//   - entries: the resources to bind
	//
	// Returns:
	//   - BindGroup: the bind group
	//   - error: an error wrapping ErrInvalidBinding on a layout mismatch
	CreateBindGroup(label string, k Kernel, entries []BindGroupEntry) (BindGroup, error)

	// WriteTexture uploads tightly packed texel data covering the whole texture.
	//
	// Parameters:
	//   - t: the destination texture
	//   - data: width*height*BytesPerTexel bytes
	//
	// Returns:
	//   - error: an error if the data length does not match the texture
	WriteTexture(t Texture, data []byte) error

	// WriteBuffer uploads data into a buffer at the given offset.
	WriteBuffer(b Buffer, offset uint64, data []byte) error

	// BeginFrame creates a command encoder for one frame.
	BeginFrame() (CommandEncoder, error)

	// Submit finishes the encoder and queues its work. The encoder cannot be used afterwards.
	Submit(enc CommandEncoder) error

	// Release frees the device and everything it owns.
	Release()
}

// CheckTextureData verifies that data covers the full texture extent for its format.
//
// Parameters:
//   - t: the destination texture
//   - data: the texel data to upload
//
// Returns:
//   - error: nil when len(data) matches width*height*BytesPerTexel
func CheckTextureData(t Texture, data []byte) error {
	size := t.Size()
	want := size.Area() * t.Format().BytesPerTexel()
	if len(data) != want {
		return fmt.Errorf("device: texture %q expects %d bytes for %s %s, got %d", t.Label(), want, size, t.Format(), len(data))
	}
	return nil
}

// CheckBindGroupEntries verifies that entries match the bindings declared in group 0 of s. Every declared
// binding must be provided exactly once, with a resource of the matching kind.
//
// Parameters:
//   - s: the kernel's shader
//   - entries: the resources to bind
//
// Returns:
//   - error: an error wrapping ErrInvalidBinding on the first mismatch
func CheckBindGroupEntries(s shader.Shader, entries []BindGroupEntry) error {
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		b, ok := s.BindingAt(0, e.Binding)
		if !ok {
			return fmt.Errorf("%w: %s declares no binding %d", ErrInvalidBinding, s.Key(), e.Binding)
		}
		if seen[e.Binding] {
			return fmt.Errorf("%w: %s binding %d provided twice", ErrInvalidBinding, s.Key(), e.Binding)
		}
		seen[e.Binding] = true
		switch {
		case b.IsTexture() && e.Texture == nil,
			b.IsBuffer() && e.Buffer == nil,
			b.IsSampler() && !e.Sampler:
			return fmt.Errorf("%w: %s binding %d (%s) expects a %s", ErrInvalidBinding, s.Key(), e.Binding, b.Name, b.Kind)
		}
		if b.Kind == shader.BindingStorageTexture && b.TexelFormat != e.Texture.Format().String() {
			return fmt.Errorf("%w: %s binding %d is %s, texture %q is %s", ErrInvalidBinding, s.Key(), e.Binding, b.TexelFormat, e.Texture.Label(), e.Texture.Format())
		}
	}
	for _, b := range s.Bindings() {
		if b.Group == 0 && !seen[b.Binding] {
			return fmt.Errorf("%w: %s binding %d (%s) not provided", ErrInvalidBinding, s.Key(), b.Binding, b.Name)
		}
	}
	return nil
}
