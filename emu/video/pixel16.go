//go:build pixel16

package video

// Pixel is a host color in RGB565.
type Pixel = uint16

// BytesPerPixel is the size of Pixel.
const BytesPerPixel = 2

// RGB packs 8-bit components, dropping the low bits.
func RGB(r, g, b uint8) Pixel {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// Components unpacks p to 8-bit components, replicating the high bits
// into the low ones so white stays white.
func Components(p Pixel) (r, g, b uint8) {
	r5 := uint8(p >> 11 & 0x1F)
	g6 := uint8(p >> 5 & 0x3F)
	b5 := uint8(p & 0x1F)
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}
