package kernel

import (
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-neural/engine/device/devicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSLibrary(t *testing.T) {
	fsys := fstest.MapFS{
		"CNNM/conv2d_tf.wgsl":   {Data: []byte(devicetest.ConvSource(1))},
		"CNNM/broken.wgsl":      {Data: []byte("// no entry point\n")},
		"CNNM/conv2d_1_tf.wgsl": {Data: []byte(devicetest.ConvSource(1))},
	}
	lib := NewFSLibrary(fsys)

	s, err := lib.Kernel("CNNM", "conv2d_tf")
	require.NoError(t, err)
	assert.Equal(t, "CNNM/conv2d_tf", s.Key())

	again, err := lib.Kernel("CNNM", "conv2d_tf")
	require.NoError(t, err)
	assert.Same(t, s, again, "parsed kernels are cached")

	_, err = lib.Kernel("CNNM", "conv2d_last_tf")
	assert.ErrorIs(t, err, ErrKernelNotFound)

	_, err = lib.Kernel("CNNM", "broken")
	assert.ErrorIs(t, err, ErrInvalidKernel)
}

func TestFSLibraryValidation(t *testing.T) {
	fsys := fstest.MapFS{
		"X/garbage.wgsl": {Data: []byte("@compute @workgroup_size(8) fn main() { let x: f32 = ; }")},
	}

	_, err := NewFSLibrary(fsys).Kernel("X", "garbage")
	assert.NoError(t, err, "without validation only metadata is parsed")

	_, err = NewFSLibrary(fsys, WithValidation(true)).Kernel("X", "garbage")
	assert.ErrorIs(t, err, ErrInvalidKernel)
}
