package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDimensionsHelpers(t *testing.T) {
	d := Dims(640, 360)

	assert.Equal(t, "640x360", d.String())
	assert.Equal(t, Dims(1280, 720), d.Scaled(2))
	assert.Equal(t, Dims(320, 180), d.CeilHalf())
	assert.Equal(t, Dims(3, 2), Dims(5, 3).CeilHalf())
	assert.Equal(t, 640*360, d.Area())
	assert.False(t, d.Empty())
	assert.True(t, Dims(0, 360).Empty())
}

func TestDimensionsRatios(t *testing.T) {
	native := Dims(640, 360)

	assert.True(t, Dims(1920, 1080).Exceeds(native, 1.2))
	assert.False(t, Dims(768, 432).Exceeds(native, 1.2), "equal to the ratio is not strictly greater")
	assert.False(t, Dims(1920, 360).Exceeds(native, 1.2), "both extents must exceed")

	assert.True(t, Dims(960, 540).Within(native, 1.2, 2.0))
	assert.False(t, Dims(1280, 720).Within(native, 1.2, 2.0))
	assert.False(t, Dims(640, 360).Within(native, 1.2, 2.0))
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, 0, CeilDiv(0, 8))
	assert.Equal(t, 1, CeilDiv(1, 8))
	assert.Equal(t, 1, CeilDiv(8, 8))
	assert.Equal(t, 2, CeilDiv(9, 8))
	assert.Equal(t, 0, CeilDiv(9, 0))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
}
