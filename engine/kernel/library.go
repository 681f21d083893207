package kernel

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sync"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/shader"
	"github.com/gogpu/naga"
)

var (
	// ErrKernelNotFound is returned when a library has no source for an architecture node.
	ErrKernelNotFound = errors.New("kernel: not found")

	// ErrInvalidKernel is returned when a kernel source fails WGSL validation.
	ErrInvalidKernel = errors.New("kernel: invalid source")
)

// Library supplies the WGSL of learned convolution layers. Weights are baked into the source, so a
// library is the only place a network's parameters come from.
type Library interface {
	// Kernel returns the compute shader for one node of an architecture.
	//
	// Parameters:
	//   - arch: the architecture name, e.g. "CNNx2M"
	//   - node: the node name, e.g. "conv2d_3_tf"
	//
	// Returns:
	//   - shader.Shader: the parsed compute shader
	//   - error: an error wrapping ErrKernelNotFound or ErrInvalidKernel
	Kernel(arch, node string) (shader.Shader, error)
}

// FSLibrary loads kernels from <arch>/<node>.wgsl files of a file system and caches the parsed result.
type FSLibrary struct {
	fsys     fs.FS
	validate bool
	mu       sync.Mutex
	cache    map[string]shader.Shader
}

var _ Library = &FSLibrary{}

// LibraryBuilderOption is a functional option applied to an FSLibrary.
type LibraryBuilderOption func(*FSLibrary)

// WithValidation compiles every loaded source with naga before accepting it, so malformed kernels are
// reported at pipeline construction with a WGSL diagnostic instead of failing inside the driver.
//
// Parameters:
//   - validate: true to validate sources
//
// Returns:
//   - LibraryBuilderOption: a function that applies the validation option to a library
func WithValidation(validate bool) LibraryBuilderOption {
	return func(l *FSLibrary) {
		l.validate = validate
	}
}

// NewFSLibrary creates a library over fsys.
//
// Parameters:
//   - fsys: the file system holding <arch>/<node>.wgsl files
//   - options: builder options
//
// Returns:
//   - *FSLibrary: the library
func NewFSLibrary(fsys fs.FS, options ...LibraryBuilderOption) *FSLibrary {
	l := &FSLibrary{
		fsys:  fsys,
		cache: make(map[string]shader.Shader),
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// NewDirLibrary creates a library over a directory on disk.
func NewDirLibrary(dir string, options ...LibraryBuilderOption) *FSLibrary {
	return NewFSLibrary(os.DirFS(dir), options...)
}

func (l *FSLibrary) Kernel(arch, node string) (shader.Shader, error) {
	key := path.Join(arch, node)

	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.cache[key]; ok {
		return s, nil
	}

	data, err := fs.ReadFile(l.fsys, key+".wgsl")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrKernelNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("kernel: read %s: %w", key, err)
	}
	source := string(data)

	if l.validate {
		if _, err := naga.Compile(source); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidKernel, key, err)
		}
	}
	s, err := shader.NewShader(key, shader.ShaderTypeCompute, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidKernel, key, err)
	}

	common.Logger().Debug("kernel: loaded", "key", key, "bindings", len(s.Bindings()), "workgroup", s.WorkgroupSize())
	l.cache[key] = s
	return s, nil
}
