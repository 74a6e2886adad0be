package ppu

import "github.com/user-none/em8bit/emu/savestate"

// StateVersion is the payload version written by SaveState.
const StateVersion = 1

// SaveState writes the PPU payload.
func (p *PPU) SaveState(w *savestate.Writer) {
	w.Raw(p.palette[:])
	w.Raw(p.oam[:])
	w.U8(p.oamAddr)
	w.U8(p.ctrl)
	w.U8(p.mask)
	w.U8(p.status)
	w.U16(p.v)
	w.U16(p.t)
	w.U8(p.x)
	w.Bool(p.w)
	w.U8(p.readBuf)
	w.U8(p.openBus)
	w.Bool(p.nmiPending)
	w.Bool(p.oddFrame)
}

// LoadState restores a payload written by SaveState.
func (p *PPU) LoadState(d *savestate.Decoder) error {
	d.Raw(p.palette[:])
	d.Raw(p.oam[:])
	p.oamAddr = d.U8()
	p.ctrl = d.U8()
	p.mask = d.U8()
	p.status = d.U8()
	p.v = d.U16() & 0x7FFF
	p.t = d.U16() & 0x7FFF
	p.x = d.U8() & 7
	p.w = d.Bool()
	p.readBuf = d.U8()
	p.openBus = d.U8()
	p.nmiPending = d.Bool()
	p.oddFrame = d.Bool()
	return d.Err()
}
