package vdp

import (
	"github.com/pkg/errors"

	"github.com/user-none/em8bit/emu/savestate"
)

// StateVersion is the payload version written by SaveState.
const StateVersion = 1

// SaveState writes the VDP payload. The pattern cache is derived data and
// is rebuilt on load.
func (v *VDP) SaveState(w *savestate.Writer) {
	w.U8(byte(v.model))
	w.Raw(v.vram[:])
	w.Raw(v.cram[:])
	w.Raw(v.regs[:])
	w.Bool(v.latch)
	w.U8(v.code)
	w.U16(v.addr)
	w.U8(v.readBuf)
	w.U8(v.cramLatch)
	w.U8(v.status)
	w.Bool(v.lineIntPending)
	w.U8(v.lineCounter)
	w.U8(v.vscroll)
	w.U8(v.hcounter)
	w.U16(uint16(v.line))
}

// LoadState restores a payload written by SaveState.
func (v *VDP) LoadState(d *savestate.Decoder) error {
	if m := Model(d.U8()); m != v.model && d.Err() == nil {
		return errors.Wrapf(savestate.ErrMalformed, "vdp: state is for model %d, have %d", m, v.model)
	}
	d.Raw(v.vram[:])
	d.Raw(v.cram[:])
	d.Raw(v.regs[:])
	v.latch = d.Bool()
	v.code = d.U8()
	v.addr = d.U16() & 0x3FFF
	v.readBuf = d.U8()
	v.cramLatch = d.U8()
	v.status = d.U8()
	v.lineIntPending = d.Bool()
	v.lineCounter = d.U8()
	v.vscroll = d.U8()
	v.hcounter = d.U8()
	v.line = int(d.U16())
	if err := d.Err(); err != nil {
		return err
	}
	v.cache.invalidateAll()
	v.refreshPalette()
	v.updateActive()
	return nil
}
