//go:build !pixel16

package video

// Pixel is a host color in XRGB8888.
type Pixel = uint32

// BytesPerPixel is the size of Pixel.
const BytesPerPixel = 4

// RGB packs 8-bit components.
func RGB(r, g, b uint8) Pixel {
	return 0xFF000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Components unpacks p to 8-bit components.
func Components(p Pixel) (r, g, b uint8) {
	return uint8(p >> 16), uint8(p >> 8), uint8(p)
}
