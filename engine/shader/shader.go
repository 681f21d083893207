package shader

import (
	"errors"
	"fmt"
	"sort"
)

// ShaderType identifies whether a shader is a render shader or a compute shader.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// String returns the WGSL attribute name for the shader type.
func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

var (
	// ErrEmptySource is returned when a shader is constructed without any WGSL source.
	ErrEmptySource = errors.New("shader: empty source")

	// ErrMissingEntryPoint is returned when the source has no entry point for the requested shader type.
	ErrMissingEntryPoint = errors.New("shader: missing entry point")
)

// shader is the implementation of the Shader interface.
// It holds the parsed metadata required to create a GPU pipeline and wire its resources.
type shader struct {
	key           string
	source        string
	shaderType    ShaderType
	bindings      []Binding
	workGroupSize [3]uint32
	entryPoint    string
}

// Shader defines the interface for a loaded and parsed WGSL shader. It exposes the shader's
// unique key, source code, entry point, resource bindings and workgroup size. The metadata is
// backend neutral so the kernel layer can validate wiring without a GPU.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the type of the shader (vertex, fragment, or compute).
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex, ShaderTypeFragment, or ShaderTypeCompute
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name (e.g. "main")
	EntryPoint() string

	// WorkgroupSize returns the workgroup size dimensions for compute shaders.
	// Returns [0, 0, 0] for non-compute shaders and [1, 1, 1] as the default when
	// @workgroup_size is not specified.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// Bindings returns every @group/@binding declaration of the shader, ordered by group then binding.
	//
	// Returns:
	//   - []Binding: the parsed resource bindings
	Bindings() []Binding

	// BindingsOfKind returns the bindings of group 0 with the given kind, ordered by binding index.
	//
	// Parameters:
	//   - kind: the resource kind to filter on
	//
	// Returns:
	//   - []Binding: the matching bindings
	BindingsOfKind(kind BindingKind) []Binding

	// BindingAt looks up a declaration by group and binding index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - Binding: the declaration, if found
	//   - bool: true if the declaration exists
	BindingAt(group, binding int) (Binding, bool)

	// BindingByName looks up a declaration by its variable name.
	//
	// Parameters:
	//   - name: the WGSL variable name
	//
	// Returns:
	//   - Binding: the declaration, if found
	//   - bool: true if the declaration exists
	BindingByName(name string) (Binding, bool)
}

var _ Shader = &shader{}

// NewShader parses WGSL source into a Shader. The entry point matching shaderType must be present.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching, labels and error messages
//   - shaderType: the type of shader (vertex, fragment or compute)
//   - source: the WGSL source code
//
// Returns:
//   - Shader: the parsed shader
//   - error: ErrEmptySource or ErrMissingEntryPoint when the source is unusable
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, key)
	}
	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
	}
	s.entryPoint = parseEntryPoint(source, shaderType)
	if s.entryPoint == "" {
		return nil, fmt.Errorf("%w: %s has no @%s function", ErrMissingEntryPoint, key, shaderType)
	}
	if shaderType == ShaderTypeCompute {
		s.workGroupSize = parseWorkgroupSize(source)
	}
	s.bindings = parseBindings(source)
	return s, nil
}

// MustShader is like NewShader but panics on error. It is intended for sources embedded in the binary.
func MustShader(key string, shaderType ShaderType, source string) Shader {
	s, err := NewShader(key, shaderType, source)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) Bindings() []Binding {
	out := make([]Binding, len(s.bindings))
	copy(out, s.bindings)
	return out
}

func (s *shader) BindingsOfKind(kind BindingKind) []Binding {
	var out []Binding
	for _, b := range s.bindings {
		if b.Group == 0 && b.Kind == kind {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Binding < out[j].Binding })
	return out
}

func (s *shader) BindingAt(group, binding int) (Binding, bool) {
	for _, b := range s.bindings {
		if b.Group == group && b.Binding == binding {
			return b, true
		}
	}
	return Binding{}, false
}

func (s *shader) BindingByName(name string) (Binding, bool) {
	for _, b := range s.bindings {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}
