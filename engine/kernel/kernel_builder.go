package kernel

// KernelBuilderOption is a functional option applied to a primitive during construction.
type KernelBuilderOption func(*kernelConfig)

type kernelConfig struct {
	label  string
	params []paramSpec
}

type paramSpec struct {
	name  string
	index int
	value float32
}

func newKernelConfig(options []KernelBuilderOption) *kernelConfig {
	cfg := &kernelConfig{}
	for _, opt := range options {
		opt(cfg)
	}
	return cfg
}

// WithLabel sets the label used for the primitive's output texture, kernel and log lines.
// When not specified, the shader key is used.
//
// Parameters:
//   - label: the label to use
//
// Returns:
//   - KernelBuilderOption: a function that applies the label option to a primitive
func WithLabel(label string) KernelBuilderOption {
	return func(c *kernelConfig) {
		c.label = label
	}
}

// WithParam exposes a tunable f32 through UpdateParam. Parameters live in the shader's single uniform
// binding; slot is the index of the f32 within it.
//
// Parameters:
//   - name: the parameter name accepted by UpdateParam
//   - slot: the f32 index within the uniform binding
//   - value: the initial value
//
// Returns:
//   - KernelBuilderOption: a function that applies the parameter option to a primitive
func WithParam(name string, slot int, value float32) KernelBuilderOption {
	return func(c *kernelConfig) {
		c.params = append(c.params, paramSpec{name: name, index: slot, value: value})
	}
}
