package shader

import (
	"strconv"
	"strings"
)

// scalarSizes holds the byte size of each host-shareable scalar. A scalar is aligned to its size.
var scalarSizes = map[string]uint64{
	"f32":  4,
	"i32":  4,
	"u32":  4,
	"f16":  2,
	"bool": 4,
}

// vectorSuffixes maps the shorthand suffix of vec2f, vec3i, vec4h and friends to the scalar type.
var vectorSuffixes = map[byte]string{
	'f': "f32",
	'i': "i32",
	'u': "u32",
	'h': "f16",
}

func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// layoutTable resolves WGSL type names to their host-shareable layout. Struct layouts are added as
// they are computed so later structs can embed earlier ones.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
type layoutTable map[string]wgslTypeLayout

// resolve returns the layout of typeName. A runtime-sized array resolves to one element stride, the
// smallest binding that can hold it.
func (t layoutTable) resolve(typeName string) (wgslTypeLayout, bool) {
	typeName = strings.TrimSpace(typeName)
	if size, ok := scalarSizes[typeName]; ok {
		return wgslTypeLayout{size, size}, true
	}
	if l, ok := t[typeName]; ok {
		return l, true
	}

	base, params := splitTypeParams(typeName)
	switch {
	case base == "atomic":
		return t.resolve(params)

	case base == "array":
		parts := splitAtTopLevelCommas(params)
		el, ok := t.resolve(parts[0])
		if !ok {
			return wgslTypeLayout{}, false
		}
		stride := roundUpAlign(el.align, el.size)
		if len(parts) == 1 {
			return wgslTypeLayout{stride, el.align}, true
		}
		n, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return wgslTypeLayout{}, false
		}
		return wgslTypeLayout{n * stride, el.align}, true

	case strings.HasPrefix(base, "vec"):
		n, scalar, ok := vectorShape(base, params)
		if !ok {
			return wgslTypeLayout{}, false
		}
		return vectorLayout(n, scalarSizes[scalar]), true

	case strings.HasPrefix(base, "mat"):
		// matCxR is C columns of vecR.
		shape := strings.TrimPrefix(base, "mat")
		scalar := params
		if len(shape) == 4 {
			scalar = vectorSuffixes[shape[3]]
			shape = shape[:3]
		}
		size, ok := scalarSizes[scalar]
		if len(shape) != 3 || shape[1] != 'x' || !ok {
			return wgslTypeLayout{}, false
		}
		cols, rows := int(shape[0]-'0'), int(shape[2]-'0')
		if cols < 2 || cols > 4 || rows < 2 || rows > 4 {
			return wgslTypeLayout{}, false
		}
		col := vectorLayout(rows, size)
		stride := roundUpAlign(col.align, col.size)
		return wgslTypeLayout{uint64(cols) * stride, col.align}, true
	}
	return wgslTypeLayout{}, false
}

// vectorShape parses vec4<f32> style and vec4f style names into a component count and scalar type.
func vectorShape(base, params string) (int, string, bool) {
	shape := strings.TrimPrefix(base, "vec")
	scalar := params
	if len(shape) == 2 {
		scalar = vectorSuffixes[shape[1]]
		shape = shape[:1]
	}
	if len(shape) != 1 || shape[0] < '2' || shape[0] > '4' {
		return 0, "", false
	}
	if _, ok := scalarSizes[scalar]; !ok {
		return 0, "", false
	}
	return int(shape[0] - '0'), scalar, true
}

func vectorLayout(n int, scalar uint64) wgslTypeLayout {
	if n == 3 {
		return wgslTypeLayout{3 * scalar, 4 * scalar}
	}
	return wgslTypeLayout{uint64(n) * scalar, uint64(n) * scalar}
}

// structLayout places each field at its next aligned offset and rounds the total up to the widest
// field alignment. Builtin fields are not part of a buffer and are skipped. A trailing runtime-sized
// array contributes one element.
func (t layoutTable) structLayout(ps parsedStruct) (wgslTypeLayout, bool) {
	var offset uint64
	align := uint64(1)
	for _, f := range ps.fields {
		if f.isBuiltin {
			continue
		}
		fl, ok := t.resolve(f.typeName)
		if !ok {
			return wgslTypeLayout{}, false
		}
		offset = roundUpAlign(fl.align, offset) + fl.size
		align = max(align, fl.align)
	}
	return wgslTypeLayout{roundUpAlign(align, offset), align}, true
}

// computeStructSizes resolves every struct, repeating until no more can be resolved so declaration
// order does not matter.
func computeStructSizes(structs []parsedStruct) layoutTable {
	table := make(layoutTable, len(structs))
	remaining := append([]parsedStruct(nil), structs...)
	for len(remaining) > 0 {
		var unresolved []parsedStruct
		for _, ps := range remaining {
			if l, ok := table.structLayout(ps); ok {
				table[ps.name] = l
			} else {
				unresolved = append(unresolved, ps)
			}
		}
		if len(unresolved) == len(remaining) {
			break
		}
		remaining = unresolved
	}
	return table
}

// classifyResource creates a Binding from a declaration's address space and type. Handle types such as
// textures and samplers have no address space.
//
// Parameters:
//   - addressSpace: the var<...> qualifier, e.g. "uniform" or "storage, read_write"
//   - typeName: the WGSL type, e.g. "Params", "texture_2d<f32>" or "sampler"
//
// Returns:
//   - Binding: the classified binding, without group, index or name
func classifyResource(addressSpace, typeName string) Binding {
	var b Binding
	switch {
	case addressSpace == "uniform":
		b.Kind = BindingUniform
	case strings.HasPrefix(addressSpace, "storage"):
		b.Kind = BindingReadOnlyStorage
		if strings.Contains(addressSpace, "read_write") {
			b.Kind = BindingStorage
		}
	case addressSpace != "":
	case typeName == "sampler":
		b.Kind = BindingSampler
	case typeName == "sampler_comparison":
		b.Kind = BindingComparisonSampler
	case strings.HasPrefix(typeName, "texture_storage_"):
		base, params := splitTypeParams(typeName)
		format, access, _ := strings.Cut(params, ",")
		b.Kind = BindingStorageTexture
		b.ViewDimension = wgslStorageTextureDimMap[base]
		b.TexelFormat = strings.TrimSpace(format)
		b.Access = strings.TrimSpace(access)
	case strings.HasPrefix(typeName, "texture_"):
		base, params := splitTypeParams(typeName)
		b.Kind = BindingSampledTexture
		if strings.HasPrefix(base, "texture_depth_") {
			b.Kind = BindingDepthTexture
		} else {
			b.SampleType = params
		}
		if info, ok := wgslSampledTextureMap[base]; ok {
			b.ViewDimension = info.viewDimension
			b.Multisampled = info.multisampled
		}
	}
	return b
}

// splitTypeParams splits "texture_2d<f32>" into ("texture_2d", "f32"). Types without parameters return
// an empty params string.
func splitTypeParams(typeName string) (base, params string) {
	base, rest, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	return strings.TrimSpace(base), strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), ">"))
}

// stripComments removes line comments and nestable block comments in one pass. Newlines are kept so
// line structure survives.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		c := source[i]
		var next byte
		if i+1 < len(source) {
			next = source[i+1]
		}
		switch {
		case c == '/' && next == '*':
			depth++
			i++
		case depth > 0 && c == '*' && next == '/':
			depth--
			i++
		case depth > 0:
			if c == '\n' {
				sb.WriteByte(c)
			}
		case c == '/' && next == '/':
			for i < len(source) && source[i] != '\n' {
				i++
			}
			if i < len(source) {
				sb.WriteByte('\n')
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
