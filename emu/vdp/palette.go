package vdp

import "github.com/user-none/em8bit/emu/video"

// tmsPalette is the fixed TMS9918A palette. Entry 0 is transparent and
// shows the backdrop.
var tmsPalette = [16]video.Pixel{
	video.RGB(0x00, 0x00, 0x00),
	video.RGB(0x00, 0x00, 0x00),
	video.RGB(0x21, 0xC8, 0x42),
	video.RGB(0x5E, 0xDC, 0x78),
	video.RGB(0x54, 0x55, 0xED),
	video.RGB(0x7D, 0x76, 0xFC),
	video.RGB(0xD4, 0x52, 0x4D),
	video.RGB(0x42, 0xEB, 0xF5),
	video.RGB(0xFC, 0x55, 0x54),
	video.RGB(0xFF, 0x79, 0x78),
	video.RGB(0xD4, 0xC1, 0x54),
	video.RGB(0xE6, 0xCE, 0x80),
	video.RGB(0x21, 0xB0, 0x3B),
	video.RGB(0xC9, 0x5B, 0xBA),
	video.RGB(0xCC, 0xCC, 0xCC),
	video.RGB(0xFF, 0xFF, 0xFF),
}

var level2 = [4]uint8{0, 85, 170, 255}

func (v *VDP) updateColor(i int) {
	if v.model == ModelGG {
		lo, hi := v.cram[i*2], v.cram[i*2+1]
		v.palette[i] = video.RGB((lo&0x0F)*17, (lo>>4)*17, (hi&0x0F)*17)
		return
	}
	c := v.cram[i]
	v.palette[i] = video.RGB(level2[c&3], level2[c>>2&3], level2[c>>4&3])
}

func (v *VDP) refreshPalette() {
	for i := range v.palette {
		v.updateColor(i)
	}
}

// backdrop returns the border color selected by register 7.
func (v *VDP) backdrop() video.Pixel {
	if v.mode4() {
		return v.palette[16+int(v.regs[7]&0x0F)]
	}
	return tmsPalette[v.regs[7]&0x0F]
}

func (v *VDP) tmsColor(c byte) video.Pixel {
	if c&0x0F == 0 {
		return tmsPalette[v.regs[7]&0x0F]
	}
	return tmsPalette[c&0x0F]
}
