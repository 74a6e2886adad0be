package vdp

import "github.com/user-none/em8bit/emu/video"

const (
	spritesPerLine     = 8
	mode4SpriteEnd     = 0xD0
	mode4SpriteEntries = 64
)

func (v *VDP) nameTableBase() int {
	if v.ActiveHeight() == 192 {
		return int(v.regs[2]&0x0E) << 10
	}
	return int(v.regs[2]&0x0C)<<10 | 0x0700
}

func (v *VDP) renderMode4(line int, skip bool) {
	if skip {
		v.mode4Sprites(line, nil)
		return
	}

	row := v.frame.Row(line)
	base := v.nameTableBase()

	scrollRows := 28 * 8
	if v.ActiveHeight() != 192 {
		scrollRows = 32 * 8
	}

	hs := int(v.regs[8])
	if v.regs[0]&0x40 != 0 && line < 16 {
		hs = 0
	}

	for x := 0; x < FrameWidth; x++ {
		vs := int(v.vscroll)
		if v.regs[0]&0x80 != 0 && x >= 192 {
			vs = 0
		}
		sx := (x - hs) & 0xFF
		ry := (line + vs) % scrollRows

		entry := base + (ry>>3)*64 + (sx>>3)*2
		lo := v.vram[entry&0x3FFF]
		hi := v.vram[(entry+1)&0x3FFF]
		tile := int(hi&1)<<8 | int(lo)
		orient := int(hi>>1) & 3

		idx := v.cache.tile(v.vram[:], tile, orient)[(ry&7)*8+sx&7]
		pal := 0
		if hi&0x08 != 0 {
			pal = 16
		}
		row[x] = v.palette[pal+int(idx)]
		v.bgPriority[x] = hi&0x10 != 0 && idx != 0
	}

	v.mode4Sprites(line, row)

	if v.regs[0]&0x20 != 0 {
		bd := v.backdrop()
		for x := 0; x < 8; x++ {
			row[x] = bd
		}
	}
}

// mode4Sprites evaluates the sprites on line and draws them into row when
// it is non-nil. Overflow and collision are reported either way.
func (v *VDP) mode4Sprites(line int, row []video.Pixel) {
	sat := int(v.regs[5]&0x7E) << 7
	height := 8
	if v.regs[1]&0x02 != 0 {
		height = 16
	}
	zoom := 1
	if v.regs[1]&0x01 != 0 {
		zoom = 2
	}
	tileBase := 0
	if v.regs[6]&0x04 != 0 {
		tileBase = 256
	}
	shift := 0
	if v.regs[0]&0x08 != 0 {
		shift = 8
	}
	terminate := v.ActiveHeight() == 192

	n := 0
	for i := 0; i < mode4SpriteEntries; i++ {
		y := v.vram[sat+i]
		if terminate && y == mode4SpriteEnd {
			break
		}
		top := int(y) + 1
		if top > 0xF0 {
			top -= 256
		}
		if line < top || line >= top+height*zoom {
			continue
		}
		if n == spritesPerLine {
			v.status |= statusOverflow
			if v.spriteLimit {
				break
			}
		}
		v.selected[n] = i
		n++
	}

	for x := range v.spriteHit {
		v.spriteHit[x] = false
	}
	for s := 0; s < n; s++ {
		i := v.selected[s]
		top := int(v.vram[sat+i]) + 1
		if top > 0xF0 {
			top -= 256
		}
		x0 := int(v.vram[sat+0x80+i*2]) - shift
		pattern := int(v.vram[sat+0x80+i*2+1])
		if height == 16 {
			pattern &^= 1
		}
		r := (line - top) / zoom
		if r >= 8 {
			pattern++
			r -= 8
		}
		pix := v.cache.tile(v.vram[:], tileBase+pattern, 0)
		for c := 0; c < 8*zoom; c++ {
			x := x0 + c
			if x < 0 || x >= FrameWidth {
				continue
			}
			idx := pix[r*8+c/zoom]
			if idx == 0 {
				continue
			}
			if v.spriteHit[x] {
				v.status |= statusCollision
				continue
			}
			v.spriteHit[x] = true
			if row != nil && !v.bgPriority[x] {
				row[x] = v.palette[16+int(idx)]
			}
		}
	}
}
