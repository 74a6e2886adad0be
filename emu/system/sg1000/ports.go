package sg1000

import "github.com/user-none/em8bit/emu/system"

const (
	keyboardRows = 7
	keyboardCols = 12
	padRow       = 7
)

type bus struct{ e *Emulator }

func (b *bus) Read(addr uint16) byte      { return b.e.space.Read(addr) }
func (b *bus) Write(addr uint16, v byte)  { b.e.mapper.Write(addr, v) }
func (b *bus) FetchPage(page byte) []byte { return b.e.space.FetchPage(page) }
func (b *bus) Generation() uint32         { return b.e.space.Generation() }
func (b *bus) In(port uint16) byte        { return b.e.in(byte(port)) }
func (b *bus) Out(port uint16, v byte)    { b.e.out(byte(port), v) }

// ppi is the SC-3000 8255. Port C bits 0-2 select the keyboard row read
// back on ports A and B. Row 7 is the joypads.
type ppi struct {
	portC   byte
	control byte
	keys    [keyboardRows]uint16
}

func (p *ppi) reset() {
	p.portC = 0x07
	p.control = 0x92
}

func (p *ppi) row() int { return int(p.portC & 0x07) }

// writeControl handles $DF. With bit 7 clear it sets or resets one bit of
// port C.
func (p *ppi) writeControl(v byte) {
	if v&0x80 != 0 {
		p.control = v
		return
	}
	bit := byte(1) << ((v >> 1) & 0x07)
	if v&0x01 != 0 {
		p.portC |= bit
	} else {
		p.portC &^= bit
	}
}

func (p *ppi) portA(pad1, pad2 uint32) byte {
	if p.row() == padRow {
		dc, _ := system.SegaPads(pad1, pad2)
		return dc
	}
	return ^byte(p.keys[p.row()])
}

func (p *ppi) portB(pad1, pad2 uint32) byte {
	if p.row() == padRow {
		_, dd := system.SegaPads(pad1, pad2)
		return dd
	}
	return 0xF0 | ^byte(p.keys[p.row()]>>8)&0x0F
}

// Ports decode on A7 and A6, with A0 picking data or control for the VDP
// and A1-A0 picking the PPI register on the SC-3000.
func (e *Emulator) in(port byte) byte {
	switch port & 0xC0 {
	case 0x80:
		if port&0x01 == 0 {
			return e.vdp.ReadData()
		}
		v := e.vdp.ReadControl()
		e.updateIRQ()
		return v
	case 0xC0:
		if !e.sc3000 {
			dc, dd := system.SegaPads(e.pad[0], e.pad[1])
			if port&0x01 == 0 {
				return dc
			}
			return dd
		}
		switch port & 0x03 {
		case 0:
			return e.ppi.portA(e.pad[0], e.pad[1])
		case 1:
			return e.ppi.portB(e.pad[0], e.pad[1])
		case 2:
			return e.ppi.portC
		}
	}
	return 0xFF
}

func (e *Emulator) out(port byte, v byte) {
	switch port & 0xC0 {
	case 0x40:
		e.psg.Write(v)
	case 0x80:
		if port&0x01 == 0 {
			e.vdp.WriteData(v)
		} else {
			e.vdp.WriteControl(v)
			e.updateIRQ()
		}
	case 0xC0:
		if !e.sc3000 {
			return
		}
		switch port & 0x03 {
		case 2:
			e.ppi.portC = v
		case 3:
			e.ppi.writeControl(v)
		}
	}
}
