package mapper

import (
	"github.com/user-none/em8bit/emu/memory"
	"github.com/user-none/em8bit/emu/savestate"
)

const (
	bank16K = 0x4000
	bank8K  = 0x2000
	pages1K = 0x400 / memory.PageSize
	pages8K = bank8K / memory.PageSize
	pages16 = bank16K / memory.PageSize
)

// segaMapper is the Sega 315-5235 board. $FFFC controls cartridge RAM and
// $FFFD-$FFFF select the 16 KB banks in slots 0-2. The first 1 KB of slot 0
// always shows bank 0 so the interrupt vectors survive paging.
//
// The registers sit on top of work RAM: a write to $FFFC-$FFFF also lands
// in the RAM mirror at $DFFC-$DFFF.
type segaMapper struct {
	base
	banks   int
	control byte
	slot    [3]byte
}

func newSega(cfg Config) *segaMapper {
	m := &segaMapper{base: newBase("sega", cfg)}
	m.banks = bankCount(len(cfg.ROM), bank16K)
	if m.cartRAM == nil {
		// 315-5235 boards carry up to 32 KB that games may enable at will.
		m.cartRAM = memory.NewRegion("sega.cartram", 0x8000)
	}
	return m
}

func (m *segaMapper) Init(space *memory.AddressSpace) {
	m.space = space
	m.Reset()
}

func (m *segaMapper) Reset() {
	m.control = 0
	m.slot = [3]byte{0, 1, 2}
	m.rebuild()
}

func (m *segaMapper) rebuild() {
	m.mapROM(0, pages1K, 0)
	m.mapROM(pages1K, pages16-pages1K, bankIndex(int(m.slot[0]), m.banks)*bank16K+0x400)
	m.mapROM(0x40, pages16, bankIndex(int(m.slot[1]), m.banks)*bank16K)

	if m.control&0x08 != 0 {
		off := int(m.control>>2&1) * bank16K
		m.space.Map(0x80, pages16, m.cartRAM, off)
	} else {
		m.mapROM(0x80, pages16, bankIndex(int(m.slot[2]), m.banks)*bank16K)
	}

	if m.control&0x10 != 0 {
		m.space.Map(0xC0, pages16, m.cartRAM, 0)
	} else {
		m.mapRAM(0xC0, pages16)
	}
}

func (m *segaMapper) Write(addr uint16, v byte) {
	m.space.Write(addr, v)
	if addr < 0xFFFC {
		return
	}
	switch addr {
	case 0xFFFC:
		m.control = v
	case 0xFFFD:
		m.slot[0] = v
	case 0xFFFE:
		m.slot[1] = v
	case 0xFFFF:
		m.slot[2] = v
	}
	m.rebuild()
}

// HasBattery reports a battery only when the header or database said so;
// the RAM itself is always present.
func (m *segaMapper) HasBattery() bool { return m.battery }

func (m *segaMapper) SaveState(w *savestate.Writer) {
	w.U8(m.control)
	w.Raw(m.slot[:])
}

func (m *segaMapper) LoadState(d *savestate.Decoder) error {
	m.control = d.U8()
	d.Raw(m.slot[:])
	if err := d.Err(); err != nil {
		return err
	}
	m.rebuild()
	return nil
}

// codemastersMapper selects slot banks by writing to $0000, $4000 and
// $8000. Slot 2 starts at bank 0. Boards with on-cart RAM map 8 KB at
// $A000-$BFFF while bit 7 of the last $4000 write is set.
type codemastersMapper struct {
	base
	banks int
	slot  [3]byte
}

func newCodemasters(cfg Config) *codemastersMapper {
	m := &codemastersMapper{base: newBase("codemasters", cfg)}
	m.banks = bankCount(len(cfg.ROM), bank16K)
	return m
}

func (m *codemastersMapper) Init(space *memory.AddressSpace) {
	m.space = space
	m.Reset()
}

func (m *codemastersMapper) Reset() {
	m.slot = [3]byte{0, 1, 0}
	m.rebuild()
}

func (m *codemastersMapper) rebuild() {
	for i, s := range m.slot {
		m.mapROM(i*pages16, pages16, bankIndex(int(s&0x7F), m.banks)*bank16K)
	}
	if m.cartRAM != nil && m.slot[1]&0x80 != 0 {
		m.space.Map(0xA0, pages8K, m.cartRAM, 0)
	}
	m.mapRAM(0xC0, pages16)
}

func (m *codemastersMapper) Write(addr uint16, v byte) {
	m.space.Write(addr, v)
	switch addr {
	case 0x0000:
		m.slot[0] = v
	case 0x4000:
		m.slot[1] = v
	case 0x8000:
		m.slot[2] = v
	default:
		return
	}
	m.rebuild()
}

func (m *codemastersMapper) SaveState(w *savestate.Writer) { w.Raw(m.slot[:]) }

func (m *codemastersMapper) LoadState(d *savestate.Decoder) error {
	d.Raw(m.slot[:])
	if err := d.Err(); err != nil {
		return err
	}
	m.rebuild()
	return nil
}

// koreanMapper fixes slots 0 and 1 to banks 0 and 1 and selects slot 2
// with a write to $A000.
type koreanMapper struct {
	base
	banks int
	slot2 byte
}

func newKorean(cfg Config) *koreanMapper {
	m := &koreanMapper{base: newBase("korean", cfg)}
	m.banks = bankCount(len(cfg.ROM), bank16K)
	return m
}

func (m *koreanMapper) Init(space *memory.AddressSpace) {
	m.space = space
	m.Reset()
}

func (m *koreanMapper) Reset() {
	m.slot2 = 2
	m.rebuild()
}

func (m *koreanMapper) rebuild() {
	m.mapROM(0x00, pages16, 0)
	m.mapROM(0x40, pages16, bankIndex(1, m.banks)*bank16K)
	m.mapROM(0x80, pages16, bankIndex(int(m.slot2), m.banks)*bank16K)
	m.mapRAM(0xC0, pages16)
}

func (m *koreanMapper) Write(addr uint16, v byte) {
	m.space.Write(addr, v)
	if addr == 0xA000 {
		m.slot2 = v
		m.rebuild()
	}
}

func (m *koreanMapper) SaveState(w *savestate.Writer) { w.U8(m.slot2) }

func (m *koreanMapper) LoadState(d *savestate.Decoder) error {
	m.slot2 = d.U8()
	if err := d.Err(); err != nil {
		return err
	}
	m.rebuild()
	return nil
}

// msx8kMapper is the Korean MSX-style board with four 8 KB windows. Writes
// to $0000-$0003 select the banks shown at $8000, $A000, $4000 and $6000.
// $0000-$3FFF always shows the first 16 KB.
type msx8kMapper struct {
	base
	banks int
	sel   [4]byte
}

var msx8kWindow = [4]int{0x80, 0xA0, 0x40, 0x60}

func newMSX8K(cfg Config) *msx8kMapper {
	m := &msx8kMapper{base: newBase("msx8k", cfg)}
	m.banks = bankCount(len(cfg.ROM), bank8K)
	return m
}

func (m *msx8kMapper) Init(space *memory.AddressSpace) {
	m.space = space
	m.Reset()
}

func (m *msx8kMapper) Reset() {
	m.sel = [4]byte{}
	m.rebuild()
}

func (m *msx8kMapper) rebuild() {
	m.mapROM(0x00, pages16, 0)
	for i, s := range m.sel {
		m.mapROM(msx8kWindow[i], pages8K, bankIndex(int(s), m.banks)*bank8K)
	}
	m.mapRAM(0xC0, pages16)
}

func (m *msx8kMapper) Write(addr uint16, v byte) {
	m.space.Write(addr, v)
	if addr > 3 {
		return
	}
	m.sel[addr] = v
	m.rebuild()
}

func (m *msx8kMapper) SaveState(w *savestate.Writer) { w.Raw(m.sel[:]) }

func (m *msx8kMapper) LoadState(d *savestate.Decoder) error {
	d.Raw(m.sel[:])
	if err := d.Err(); err != nil {
		return err
	}
	m.rebuild()
	return nil
}
