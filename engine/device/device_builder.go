package device

import "github.com/cogentcore/webgpu/wgpu"

// WGPUBuilderOption is a functional option applied to a WGPU device during construction via NewWGPU.
type WGPUBuilderOption func(*WGPU)

// WithLabel sets the debug label of the device.
//
// Parameters:
//   - label: the label attached to the device and its shared resources
//
// Returns:
//   - WGPUBuilderOption: a function that applies the label option to a device
func WithLabel(label string) WGPUBuilderOption {
	return func(w *WGPU) {
		w.label = label
	}
}

// WithSurfaceDescriptor creates a presentation surface alongside the device and requests an adapter
// compatible with it. Headless devices omit this option.
//
// Parameters:
//   - desc: the platform surface descriptor, typically obtained from the window
//
// Returns:
//   - WGPUBuilderOption: a function that applies the surface option to a device
func WithSurfaceDescriptor(desc *wgpu.SurfaceDescriptor) WGPUBuilderOption {
	return func(w *WGPU) {
		w.surfaceDescriptor = desc
	}
}

// WithForceFallbackAdapter forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - WGPUBuilderOption: a function that applies the fallback option to a device
func WithForceFallbackAdapter(force bool) WGPUBuilderOption {
	return func(w *WGPU) {
		w.forceFallbackAdapter = force
	}
}

// WithMaxSampledTextures overrides the number of sampled textures a single kernel may bind.
// The default of 16 matches the widest architecture in the catalog.
//
// Parameters:
//   - n: the requested per-stage sampled texture limit
//
// Returns:
//   - WGPUBuilderOption: a function that applies the limit option to a device
func WithMaxSampledTextures(n int) WGPUBuilderOption {
	return func(w *WGPU) {
		if n > 0 {
			w.limits.MaxSampledTexturesPerStage = n
		}
	}
}
