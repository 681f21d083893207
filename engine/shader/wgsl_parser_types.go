package shader

// BindingKind classifies a WGSL resource declaration.
type BindingKind int

const (
	// BindingUnknown is a declaration the parser could not classify.
	BindingUnknown BindingKind = iota
	// BindingUniform is a var<uniform> buffer.
	BindingUniform
	// BindingStorage is a read_write var<storage> buffer.
	BindingStorage
	// BindingReadOnlyStorage is a read-only var<storage> buffer.
	BindingReadOnlyStorage
	// BindingSampler is a filtering sampler.
	BindingSampler
	// BindingComparisonSampler is a sampler_comparison.
	BindingComparisonSampler
	// BindingSampledTexture is a texture_* handle read with textureLoad or textureSample.
	BindingSampledTexture
	// BindingDepthTexture is a texture_depth_* handle.
	BindingDepthTexture
	// BindingStorageTexture is a texture_storage_* handle.
	BindingStorageTexture
)

// String returns a human readable name for the kind.
func (k BindingKind) String() string {
	switch k {
	case BindingUniform:
		return "uniform"
	case BindingStorage:
		return "storage"
	case BindingReadOnlyStorage:
		return "read-only storage"
	case BindingSampler:
		return "sampler"
	case BindingComparisonSampler:
		return "comparison sampler"
	case BindingSampledTexture:
		return "sampled texture"
	case BindingDepthTexture:
		return "depth texture"
	case BindingStorageTexture:
		return "storage texture"
	default:
		return "unknown"
	}
}

// Binding is one @group(G) @binding(B) declaration parsed from WGSL.
type Binding struct {
	// Group is the bind group index.
	Group int
	// Binding is the binding index inside the group.
	Binding int
	// Name is the WGSL variable name.
	Name string
	// Kind is the resource classification.
	Kind BindingKind
	// TypeName is the declared WGSL type, e.g. "texture_2d<f32>".
	TypeName string
	// ViewDimension is the texture view dimension ("1d", "2d", "2d_array", "3d", "cube", "cube_array") for texture kinds.
	ViewDimension string
	// SampleType is the scalar sample type ("f32", "i32", "u32") for sampled textures.
	SampleType string
	// Multisampled is set for texture_multisampled_2d and texture_depth_multisampled_2d.
	Multisampled bool
	// TexelFormat is the storage texel format, e.g. "rgba16float", for storage textures.
	TexelFormat string
	// Access is the storage texture access mode ("write", "read", "read_write").
	Access string
	// MinSize is the minimum binding size in bytes for buffer kinds, 0 when unknown.
	MinSize uint64
}

// IsBuffer reports whether the binding is backed by a buffer.
func (b Binding) IsBuffer() bool {
	return b.Kind == BindingUniform || b.Kind == BindingStorage || b.Kind == BindingReadOnlyStorage
}

// IsTexture reports whether the binding is backed by a texture view.
func (b Binding) IsTexture() bool {
	return b.Kind == BindingSampledTexture || b.Kind == BindingDepthTexture || b.Kind == BindingStorageTexture
}

// IsSampler reports whether the binding is a sampler.
func (b Binding) IsSampler() bool {
	return b.Kind == BindingSampler || b.Kind == BindingComparisonSampler
}

// sampledTextureInfo holds the view dimension and multisampled flag for a sampled texture type
type sampledTextureInfo struct {
	viewDimension string
	multisampled  bool
}

// wgslTypeLayout holds the byte size and alignment for a WGSL type.
// Used to compute MinSize for buffer bindings.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField represents a single field extracted from a WGSL struct during parsing
type parsedField struct {
	name      string
	typeName  string
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}
