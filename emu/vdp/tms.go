package vdp

import "github.com/user-none/em8bit/emu/video"

const (
	tmsSpritesPerLine = 4
	tmsSpriteEnd      = 0xD0
	tmsSpriteEntries  = 32
)

// tmsMode decodes the M1-M3 bits.
type tmsMode int

const (
	tmsGraphics1 tmsMode = iota
	tmsGraphics2
	tmsText
	tmsMulticolor
)

func (v *VDP) tmsMode() tmsMode {
	switch {
	case v.regs[1]&0x10 != 0:
		return tmsText
	case v.regs[0]&0x02 != 0:
		return tmsGraphics2
	case v.regs[1]&0x08 != 0:
		return tmsMulticolor
	}
	return tmsGraphics1
}

func (v *VDP) renderTMS(line int, skip bool) {
	mode := v.tmsMode()
	if skip {
		if mode != tmsText {
			v.tmsSprites(line, nil)
		}
		return
	}

	row := v.frame.Row(line)
	switch mode {
	case tmsGraphics1:
		v.tmsGraphics1(line, row)
	case tmsGraphics2:
		v.tmsGraphics2(line, row)
	case tmsText:
		v.tmsText(line, row)
		return
	case tmsMulticolor:
		v.tmsMulticolor(line, row)
	}
	v.tmsSprites(line, row)
}

func (v *VDP) tmsPatternRow(row []video.Pixel, x int, pat, color byte) {
	fg := v.tmsColor(color >> 4)
	bg := v.tmsColor(color)
	for b := 0; b < 8; b++ {
		if pat&(0x80>>b) != 0 {
			row[x+b] = fg
		} else {
			row[x+b] = bg
		}
	}
}

func (v *VDP) tmsGraphics1(line int, row []video.Pixel) {
	nt := int(v.regs[2]&0x0F) << 10
	ct := int(v.regs[3]) << 6
	pg := int(v.regs[4]&0x07) << 11
	for col := 0; col < 32; col++ {
		name := int(v.vram[nt+(line>>3)*32+col])
		pat := v.vram[pg+name*8+line&7]
		color := v.vram[ct+name>>3]
		v.tmsPatternRow(row, col*8, pat, color)
	}
}

func (v *VDP) tmsGraphics2(line int, row []video.Pixel) {
	nt := int(v.regs[2]&0x0F) << 10
	pg := int(v.regs[4]&0x04) << 11
	ct := int(v.regs[3]&0x80) << 6
	pgMask := int(v.regs[4]&0x03)<<8 | 0xFF
	ctMask := int(v.regs[3]&0x7F)<<3 | 0x07
	third := (line >> 6) << 8
	for col := 0; col < 32; col++ {
		name := int(v.vram[nt+(line>>3)*32+col]) + third
		pat := v.vram[(pg+(name&pgMask)*8+line&7)&0x3FFF]
		color := v.vram[(ct+(name&ctMask)*8+line&7)&0x3FFF]
		v.tmsPatternRow(row, col*8, pat, color)
	}
}

func (v *VDP) tmsText(line int, row []video.Pixel) {
	nt := int(v.regs[2]&0x0F) << 10
	pg := int(v.regs[4]&0x07) << 11
	fg := v.tmsColor(v.regs[7] >> 4)
	bg := v.tmsColor(v.regs[7])
	for x := 0; x < 8; x++ {
		row[x] = bg
		row[FrameWidth-1-x] = bg
	}
	for col := 0; col < 40; col++ {
		name := int(v.vram[nt+(line>>3)*40+col])
		pat := v.vram[pg+name*8+line&7]
		for b := 0; b < 6; b++ {
			if pat&(0x80>>b) != 0 {
				row[8+col*6+b] = fg
			} else {
				row[8+col*6+b] = bg
			}
		}
	}
}

func (v *VDP) tmsMulticolor(line int, row []video.Pixel) {
	nt := int(v.regs[2]&0x0F) << 10
	pg := int(v.regs[4]&0x07) << 11
	for col := 0; col < 32; col++ {
		name := int(v.vram[nt+(line>>3)*32+col])
		c := v.vram[pg+name*8+(line>>3)&3*2+(line>>2)&1]
		left, right := v.tmsColor(c>>4), v.tmsColor(c)
		for b := 0; b < 4; b++ {
			row[col*8+b] = left
			row[col*8+4+b] = right
		}
	}
}

// tmsSprites evaluates and draws the TMS sprite layer. Only four sprites
// appear on a line; the index of the fifth is latched in the status low
// bits together with the overflow flag.
func (v *VDP) tmsSprites(line int, row []video.Pixel) {
	sat := int(v.regs[5]&0x7F) << 7
	spg := int(v.regs[6]&0x07) << 11
	size := 8
	if v.regs[1]&0x02 != 0 {
		size = 16
	}
	mag := 1
	if v.regs[1]&0x01 != 0 {
		mag = 2
	}

	n := 0
	last := 0
	for i := 0; i < tmsSpriteEntries; i++ {
		last = i
		y := v.vram[sat+i*4]
		if y == tmsSpriteEnd {
			break
		}
		top := int(y) + 1
		if top > 0xE0 {
			top -= 256
		}
		if line < top || line >= top+size*mag {
			continue
		}
		if n == tmsSpritesPerLine {
			if v.status&statusOverflow == 0 {
				v.status = v.status&^statusFifthMask | statusOverflow | byte(i)
			}
			if v.spriteLimit {
				break
			}
		}
		v.selected[n] = i
		n++
	}
	if v.status&statusOverflow == 0 {
		v.status = v.status&^statusFifthMask | byte(last)
	}

	for x := range v.spriteHit {
		v.spriteHit[x] = false
	}
	for s := 0; s < n; s++ {
		e := sat + v.selected[s]*4
		top := int(v.vram[e]) + 1
		if top > 0xE0 {
			top -= 256
		}
		x0 := int(v.vram[e+1])
		name := int(v.vram[e+2])
		attr := v.vram[e+3]
		if attr&0x80 != 0 {
			x0 -= 32
		}
		if size == 16 {
			name &= 0xFC
		}
		r := (line - top) / mag
		for c := 0; c < size*mag; c++ {
			x := x0 + c
			if x < 0 || x >= FrameWidth {
				continue
			}
			col := c / mag
			addr := spg + name*8 + r
			if col >= 8 {
				addr += 16
			}
			if v.vram[addr&0x3FFF]&(0x80>>(col&7)) == 0 {
				continue
			}
			if v.spriteHit[x] {
				v.status |= statusCollision
				continue
			}
			v.spriteHit[x] = true
			if row != nil && attr&0x0F != 0 {
				row[x] = tmsPalette[attr&0x0F]
			}
		}
	}
}
