package mapper

import (
	"github.com/user-none/em8bit/emu/memory"
	"github.com/user-none/em8bit/emu/savestate"
)

// mmc1 loads its registers one bit at a time through a 5-bit shift
// register. Writing a byte with bit 7 set resets the shift register and
// forces PRG mode 3.
type mmc1 struct {
	nesBase
	shift   byte
	count   byte
	control byte
	chr0    byte
	chr1    byte
	prg     byte
}

func (m *mmc1) Init(space *memory.AddressSpace) {
	m.space = space
	m.Reset()
}

func (m *mmc1) Reset() {
	m.shift, m.count = 0, 0
	m.control = 0x0C
	m.chr0, m.chr1, m.prg = 0, 0, 0
	m.rebuild()
}

func (m *mmc1) rebuild() {
	switch m.control & 0x03 {
	case 0:
		m.setMirroring(MirrorSingleLow)
	case 1:
		m.setMirroring(MirrorSingleHigh)
	case 2:
		m.setMirroring(MirrorVertical)
	case 3:
		m.setMirroring(MirrorHorizontal)
	}

	bank := int(m.prg & 0x0F)
	switch m.control >> 2 & 0x03 {
	case 0, 1:
		m.mapPRG16(0, bank&^1)
		m.mapPRG16(1, bank|1)
	case 2:
		m.mapPRG16(0, 0)
		m.mapPRG16(1, bank)
	case 3:
		m.mapPRG16(0, bank)
		m.mapPRG16(1, m.prg16-1)
	}

	if m.control&0x10 == 0 {
		m.mapCHR(0, chr8K, int(m.chr0>>1))
	} else {
		m.mapCHR(0, chr4K, int(m.chr0))
		m.mapCHR(chr4K, chr4K, int(m.chr1))
	}
	m.mapPRGRAM(m.prg&0x10 == 0)
}

func (m *mmc1) Write(addr uint16, v byte) {
	m.space.Write(addr, v)
	if addr < 0x8000 {
		return
	}
	if v&0x80 != 0 {
		m.shift, m.count = 0, 0
		m.control |= 0x0C
		m.rebuild()
		return
	}
	m.shift |= (v & 1) << m.count
	m.count++
	if m.count < 5 {
		return
	}
	switch addr >> 13 & 0x03 {
	case 0:
		m.control = m.shift
	case 1:
		m.chr0 = m.shift
	case 2:
		m.chr1 = m.shift
	case 3:
		m.prg = m.shift
	}
	m.shift, m.count = 0, 0
	m.rebuild()
}

func (m *mmc1) SaveState(w *savestate.Writer) {
	w.U8(m.shift)
	w.U8(m.count)
	w.U8(m.control)
	w.U8(m.chr0)
	w.U8(m.chr1)
	w.U8(m.prg)
	m.saveCHR(w)
}

func (m *mmc1) LoadState(d *savestate.Decoder) error {
	m.shift = d.U8()
	m.count = d.U8()
	m.control = d.U8()
	m.chr0 = d.U8()
	m.chr1 = d.U8()
	m.prg = d.U8()
	m.loadCHR(d)
	if err := d.Err(); err != nil {
		return err
	}
	m.rebuild()
	return nil
}

// mmc3 has eight bank registers loaded through a select/data pair at
// $8000/$8001 and a scanline counter that raises IRQ when it reaches zero.
type mmc3 struct {
	nesBase
	sel     byte
	regs    [8]byte
	mirror  byte
	protect byte

	irqLatch   byte
	irqCounter byte
	irqReload  bool
	irqEnable  bool
	irqPending bool
}

func (m *mmc3) Init(space *memory.AddressSpace) {
	m.space = space
	m.Reset()
}

func (m *mmc3) Reset() {
	m.sel = 0
	m.regs = [8]byte{0, 2, 4, 5, 6, 7, 0, 1}
	m.mirror = 0
	m.protect = 0x80
	m.irqLatch, m.irqCounter = 0, 0
	m.irqReload, m.irqEnable, m.irqPending = false, false, false
	if m.header == MirrorHorizontal {
		m.mirror = 1
	}
	m.mapPRGRAM(true)
	m.rebuild()
}

func (m *mmc3) rebuild() {
	switch {
	case m.header == MirrorFourScreen:
		m.setMirroring(MirrorFourScreen)
	case m.mirror&1 == 0:
		m.setMirroring(MirrorVertical)
	default:
		m.setMirroring(MirrorHorizontal)
	}

	if m.sel&0x40 == 0 {
		m.mapPRG8(0, int(m.regs[6]))
		m.mapPRG8(2, m.prg8-2)
	} else {
		m.mapPRG8(0, m.prg8-2)
		m.mapPRG8(2, int(m.regs[6]))
	}
	m.mapPRG8(1, int(m.regs[7]))
	m.mapPRG8(3, m.prg8-1)

	// Bit 7 swaps the 2 KB and 1 KB halves of the pattern space.
	var flip int
	if m.sel&0x80 != 0 {
		flip = chr4K
	}
	m.mapCHR(flip^0x0000, 2*chr1K, int(m.regs[0]>>1))
	m.mapCHR(flip^0x0800, 2*chr1K, int(m.regs[1]>>1))
	m.mapCHR(flip^0x1000, chr1K, int(m.regs[2]))
	m.mapCHR(flip^0x1400, chr1K, int(m.regs[3]))
	m.mapCHR(flip^0x1800, chr1K, int(m.regs[4]))
	m.mapCHR(flip^0x1C00, chr1K, int(m.regs[5]))
}

func (m *mmc3) Write(addr uint16, v byte) {
	m.space.Write(addr, v)
	if addr < 0x8000 {
		return
	}
	even := addr&1 == 0
	switch addr >> 13 & 0x03 {
	case 0:
		if even {
			m.sel = v
		} else {
			m.regs[m.sel&0x07] = v
		}
		m.rebuild()
	case 1:
		if even {
			m.mirror = v
			m.rebuild()
		} else {
			m.protect = v
		}
	case 2:
		if even {
			m.irqLatch = v
		} else {
			m.irqCounter = 0
			m.irqReload = true
		}
	case 3:
		if even {
			m.irqEnable = false
			m.irqPending = false
		} else {
			m.irqEnable = true
		}
	}
}

func (m *mmc3) IRQ() bool { return m.irqPending }

func (m *mmc3) ClockScanline() {
	if m.irqCounter == 0 || m.irqReload {
		m.irqCounter = m.irqLatch
		m.irqReload = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnable {
		m.irqPending = true
	}
}

func (m *mmc3) SaveState(w *savestate.Writer) {
	w.U8(m.sel)
	w.Raw(m.regs[:])
	w.U8(m.mirror)
	w.U8(m.protect)
	w.U8(m.irqLatch)
	w.U8(m.irqCounter)
	w.Bool(m.irqReload)
	w.Bool(m.irqEnable)
	w.Bool(m.irqPending)
	m.saveCHR(w)
}

func (m *mmc3) LoadState(d *savestate.Decoder) error {
	m.sel = d.U8()
	d.Raw(m.regs[:])
	m.mirror = d.U8()
	m.protect = d.U8()
	m.irqLatch = d.U8()
	m.irqCounter = d.U8()
	m.irqReload = d.Bool()
	m.irqEnable = d.Bool()
	m.irqPending = d.Bool()
	m.loadCHR(d)
	if err := d.Err(); err != nil {
		return err
	}
	m.rebuild()
	return nil
}
