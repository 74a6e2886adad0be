package mapper

import (
	"github.com/user-none/em8bit/emu/memory"
	"github.com/user-none/em8bit/emu/savestate"
)

// romOnlyMapper is the plain SG-1000/SC-3000 cartridge: up to 48 KB of ROM
// at $0000-$BFFF, mirrored if smaller, and work RAM mirrored through
// $C000-$FFFF. RAM expansion carts add 8 KB or less at $2000-$3FFF or a
// larger block at $8000-$BFFF.
type romOnlyMapper struct {
	base
}

func newROMOnly(cfg Config) *romOnlyMapper {
	return &romOnlyMapper{base: newBase("rom", cfg)}
}

func (m *romOnlyMapper) Init(space *memory.AddressSpace) {
	m.space = space
	m.Reset()
}

func (m *romOnlyMapper) Reset() {
	m.mapROM(0x00, 0xC0, 0)
	if m.cartRAM != nil {
		if m.cartRAM.Len() <= bank8K {
			m.space.Map(0x20, pages8K, m.cartRAM, 0)
		} else {
			m.space.Map(0x80, pages16, m.cartRAM, 0)
		}
	}
	m.mapRAM(0xC0, pages16)
}

func (m *romOnlyMapper) Write(addr uint16, v byte) { m.space.Write(addr, v) }

func (m *romOnlyMapper) SaveState(w *savestate.Writer)        {}
func (m *romOnlyMapper) LoadState(d *savestate.Decoder) error { return d.Err() }

// colecoMapper is the ColecoVision memory map: the 8 KB BIOS at $0000,
// nothing over the expansion range $2000-$5FFF, 1 KB of work RAM mirrored
// through $6000-$7FFF and the cartridge at $8000-$FFFF.
type colecoMapper struct {
	base
	bios *memory.Region
}

func newColeco(cfg Config) *colecoMapper {
	m := &colecoMapper{base: newBase("coleco", cfg)}
	m.bios = memory.NewRegionFrom("coleco.bios", cfg.BIOS)
	return m
}

func (m *colecoMapper) Init(space *memory.AddressSpace) {
	m.space = space
	m.Reset()
}

func (m *colecoMapper) Reset() {
	m.space.MapRead(0x00, pages8K, m.bios, 0)
	m.space.UnmapWrite(0x00, pages8K)
	m.space.UnmapRead(0x20, 0x40)
	m.space.UnmapWrite(0x20, 0x40)
	m.mapRAM(0x60, pages8K)
	m.mapROM(0x80, 0x80, 0)
}

func (m *colecoMapper) Write(addr uint16, v byte) { m.space.Write(addr, v) }

func (m *colecoMapper) SaveState(w *savestate.Writer)        {}
func (m *colecoMapper) LoadState(d *savestate.Decoder) error { return d.Err() }
