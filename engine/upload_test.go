package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/x448/float16"
)

func TestRGBA8ToHalf(t *testing.T) {
	src := []byte{0, 128, 255, 1}
	dst := make([]byte, 8)
	rgba8ToHalf(dst, src)
	for i, v := range src {
		got := float16.Frombits(uint16(dst[2*i]) | uint16(dst[2*i+1])<<8).Float32()
		assert.InDelta(t, float32(v)/255, got, 1e-3, "channel %d", i)
	}
}
