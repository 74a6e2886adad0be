package vdp

const (
	tileCount   = 512
	tileBytes   = 32
	orientFlipH = 1
	orientFlipV = 2
)

// patternCache holds Mode 4 tiles decoded to one color index per pixel in
// all four flip orientations. A tile is re-decoded lazily the first time
// it is used after any of its 32 bytes change.
type patternCache struct {
	pix   [tileCount][4][64]byte
	dirty [tileCount]bool
}

func (c *patternCache) invalidate(addr uint16) {
	c.dirty[(addr&0x3FFF)/tileBytes] = true
}

func (c *patternCache) invalidateAll() {
	for i := range c.dirty {
		c.dirty[i] = true
	}
}

// tile returns the 8x8 pixels of tile n in orientation o (bit 0 horizontal
// flip, bit 1 vertical flip).
func (c *patternCache) tile(vram []byte, n int, o int) *[64]byte {
	n &= tileCount - 1
	if c.dirty[n] {
		c.decode(vram, n)
	}
	return &c.pix[n][o&3]
}

func (c *patternCache) decode(vram []byte, n int) {
	base := n * tileBytes
	for r := 0; r < 8; r++ {
		p0 := vram[base+r*4]
		p1 := vram[base+r*4+1]
		p2 := vram[base+r*4+2]
		p3 := vram[base+r*4+3]
		for col := 0; col < 8; col++ {
			bit := byte(7 - col)
			idx := (p0>>bit)&1 | ((p1>>bit)&1)<<1 | ((p2>>bit)&1)<<2 | ((p3>>bit)&1)<<3
			fr, fc := 7-r, 7-col
			c.pix[n][0][r*8+col] = idx
			c.pix[n][orientFlipH][r*8+fc] = idx
			c.pix[n][orientFlipV][fr*8+col] = idx
			c.pix[n][orientFlipH|orientFlipV][fr*8+fc] = idx
		}
	}
	c.dirty[n] = false
}
