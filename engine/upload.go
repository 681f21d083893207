package engine

import (
	"encoding/binary"

	"github.com/x448/float16"
)

// halfLUT maps each 8-bit channel value to its normalized half-float bits.
var halfLUT = func() [256]uint16 {
	var lut [256]uint16
	for i := range lut {
		lut[i] = float16.Fromfloat32(float32(i) / 255).Bits()
	}
	return lut
}()

// rgba8ToHalf converts RGBA8 texels into rgba16float texels in dst, which must hold 2*len(src) bytes.
func rgba8ToHalf(dst, src []byte) {
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[2*i:], halfLUT[v])
	}
}
