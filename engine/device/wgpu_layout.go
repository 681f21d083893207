package device

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-neural/engine/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgslViewDimensionMap maps parsed view dimensions to their wgpu equivalents
var wgslViewDimensionMap = map[string]wgpu.TextureViewDimension{
	"1d":         wgpu.TextureViewDimension1D,
	"2d":         wgpu.TextureViewDimension2D,
	"2d_array":   wgpu.TextureViewDimension2DArray,
	"3d":         wgpu.TextureViewDimension3D,
	"cube":       wgpu.TextureViewDimensionCube,
	"cube_array": wgpu.TextureViewDimensionCubeArray,
}

// wgslSampleTypeMap maps WGSL scalar type parameters to their wgpu texture sample type
var wgslSampleTypeMap = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

// wgslStorageAccessMap maps WGSL access mode keywords to their wgpu storage texture access
var wgslStorageAccessMap = map[string]wgpu.StorageTextureAccess{
	"write":      wgpu.StorageTextureAccessWriteOnly,
	"read":       wgpu.StorageTextureAccessReadOnly,
	"read_write": wgpu.StorageTextureAccessReadWrite,
}

// wgslTexelFormatMap maps WGSL texel format strings to their corresponding wgpu texture formats.
var wgslTexelFormatMap = map[string]wgpu.TextureFormat{
	"rgba8unorm":  wgpu.TextureFormatRGBA8Unorm,
	"rgba8snorm":  wgpu.TextureFormatRGBA8Snorm,
	"rgba16float": wgpu.TextureFormatRGBA16Float,
	"r32float":    wgpu.TextureFormatR32Float,
	"rgba32float": wgpu.TextureFormatRGBA32Float,
	"bgra8unorm":  wgpu.TextureFormatBGRA8Unorm,
}

// wgpuTextureFormat converts a TextureFormat to the wgpu enum.
func wgpuTextureFormat(f TextureFormat) wgpu.TextureFormat {
	switch f {
	case TextureFormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	case TextureFormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm
	default:
		return wgpu.TextureFormatRGBA16Float
	}
}

// wgpuTextureUsage converts a TextureUsage bitmask to the wgpu bitmask.
func wgpuTextureUsage(u TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if u.Has(TextureUsageSampled) {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u.Has(TextureUsageStorage) {
		out |= wgpu.TextureUsageStorageBinding
	}
	if u.Has(TextureUsageCopyDst) {
		out |= wgpu.TextureUsageCopyDst
	}
	if u.Has(TextureUsageCopySrc) {
		out |= wgpu.TextureUsageCopySrc
	}
	return out
}

// layoutEntry converts a parsed binding into a wgpu.BindGroupLayoutEntry visible to the given stage.
//
// Parameters:
//   - b: the parsed binding
//   - visibility: the shader stage that declared the binding
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the populated layout entry
//   - error: an error if the binding kind or texel format is unsupported
func layoutEntry(b shader.Binding, visibility wgpu.ShaderStage) (wgpu.BindGroupLayoutEntry, error) {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    uint32(b.Binding),
		Visibility: visibility,
	}

	switch b.Kind {
	case shader.BindingUniform:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = b.MinSize
	case shader.BindingStorage:
		entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		entry.Buffer.MinBindingSize = b.MinSize
	case shader.BindingReadOnlyStorage:
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		entry.Buffer.MinBindingSize = b.MinSize
	case shader.BindingSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case shader.BindingComparisonSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case shader.BindingSampledTexture:
		entry.Texture.ViewDimension = wgslViewDimensionMap[b.ViewDimension]
		entry.Texture.Multisampled = b.Multisampled
		entry.Texture.SampleType = wgslSampleTypeMap[b.SampleType]
	case shader.BindingDepthTexture:
		entry.Texture.ViewDimension = wgslViewDimensionMap[b.ViewDimension]
		entry.Texture.Multisampled = b.Multisampled
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
	case shader.BindingStorageTexture:
		format, ok := wgslTexelFormatMap[b.TexelFormat]
		if !ok {
			return entry, fmt.Errorf("%w: unsupported storage texel format %q on %s", ErrInvalidBinding, b.TexelFormat, b.Name)
		}
		entry.StorageTexture.Format = format
		entry.StorageTexture.ViewDimension = wgslViewDimensionMap[b.ViewDimension]
		entry.StorageTexture.Access = wgslStorageAccessMap[b.Access]
	default:
		return entry, fmt.Errorf("%w: cannot classify %s: %s", ErrInvalidBinding, b.Name, b.TypeName)
	}
	return entry, nil
}

// LayoutDescriptor builds the group 0 bind group layout descriptor for one or more shaders of a pipeline.
// Bindings declared by several stages are merged and their visibility combined.
//
// Parameters:
//   - label: a debug label
//   - shaders: the shaders of the pipeline
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the merged descriptor
//   - error: an error if a binding cannot be mapped
func LayoutDescriptor(label string, shaders ...shader.Shader) (wgpu.BindGroupLayoutDescriptor, error) {
	var entries []wgpu.BindGroupLayoutEntry
	index := make(map[int]int)
	for _, s := range shaders {
		visibility := shaderStage(s.ShaderType())
		for _, b := range s.Bindings() {
			if b.Group != 0 {
				return wgpu.BindGroupLayoutDescriptor{}, fmt.Errorf("%w: %s uses group %d, only group 0 is supported", ErrInvalidBinding, s.Key(), b.Group)
			}
			if i, ok := index[b.Binding]; ok {
				entries[i].Visibility |= visibility
				continue
			}
			entry, err := layoutEntry(b, visibility)
			if err != nil {
				return wgpu.BindGroupLayoutDescriptor{}, err
			}
			index[b.Binding] = len(entries)
			entries = append(entries, entry)
		}
	}
	return wgpu.BindGroupLayoutDescriptor{Label: label, Entries: entries}, nil
}

func shaderStage(t shader.ShaderType) wgpu.ShaderStage {
	switch t {
	case shader.ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case shader.ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	case shader.ShaderTypeCompute:
		return wgpu.ShaderStageCompute
	default:
		return wgpu.ShaderStageNone
	}
}
