package sms

import (
	"github.com/user-none/em8bit/emu/savestate"
	"github.com/user-none/em8bit/emu/system"
)

// bus is the Z80's view of the console. Memory goes through the page
// tables with writes routed to the mapper. Ports decode on A7, A6 and A0
// only, so every port in $00-$FF mirrors one of eight functions.
type bus struct{ e *Emulator }

func (b *bus) Read(addr uint16) byte      { return b.e.space.Read(addr) }
func (b *bus) Write(addr uint16, v byte)  { b.e.mapper.Write(addr, v) }
func (b *bus) FetchPage(page byte) []byte { return b.e.space.FetchPage(page) }
func (b *bus) Generation() uint32         { return b.e.space.Generation() }
func (b *bus) In(port uint16) byte        { return b.e.in(byte(port)) }
func (b *bus) Out(port uint16, v byte)    { b.e.out(byte(port), v) }

// ioPorts is the I/O chip and Game Gear register state.
type ioPorts struct {
	memControl byte // $3E
	ioControl  byte // $3F

	pad       [2]uint32
	pausePrev bool
	export    bool

	// Game Gear ports $00-$06. Port 0 is assembled on read.
	gg [7]byte
}

func (p *ioPorts) reset() {
	p.memControl = 0xAB
	p.ioControl = 0xFF
	p.gg = [7]byte{0xC0, 0x7F, 0xFF, 0x00, 0xFF, 0x00, 0xFF}
}

// TH pins are bits 5 and 7 of $3F with direction bits 1 and 3. An output
// TH reads back its level, inverted on Japanese consoles.
func (p *ioPorts) th(n int) (level bool, output bool) {
	dir := byte(0x02) << uint(n*2)
	out := byte(0x20) << uint(n*2)
	if p.ioControl&dir != 0 {
		return true, false
	}
	level = p.ioControl&out != 0
	if !p.export {
		level = !level
	}
	return level, true
}

// portDD adds the TH inputs to the second pad port.
func (p *ioPorts) portDD(dd byte) byte {
	if level, out := p.th(0); out && !level {
		dd &^= 0x40
	}
	if level, out := p.th(1); out && !level {
		dd &^= 0x80
	}
	return dd
}

// portGG0 is the Game Gear start button and nationality.
func (p *ioPorts) portGG0() byte {
	v := byte(0x80)
	if system.Pressed(p.pad[0], system.ButtonStart) {
		v = 0
	}
	if p.export {
		v |= 0x40
	}
	return v | p.gg[0]&0x3F
}

func (e *Emulator) in(port byte) byte {
	if e.gg && port < 7 {
		if port == 0 {
			return e.io.portGG0()
		}
		return e.io.gg[port]
	}
	switch port & 0xC1 {
	case 0x00, 0x01:
		return 0xFF
	case 0x40:
		return e.vdp.VCounter()
	case 0x41:
		return e.vdp.HCounter()
	case 0x80:
		return e.vdp.ReadData()
	case 0x81:
		v := e.vdp.ReadControl()
		e.updateIRQ()
		return v
	case 0xC0:
		if e.io.memControl&0x04 != 0 {
			return 0xFF
		}
		dc, _ := system.SegaPads(e.io.pad[0], e.io.pad[1])
		return dc
	default:
		if e.io.memControl&0x04 != 0 {
			return 0xFF
		}
		_, dd := system.SegaPads(e.io.pad[0], e.io.pad[1])
		return e.io.portDD(dd)
	}
}

func (e *Emulator) out(port byte, v byte) {
	if e.gg && port < 7 {
		if port > 0 {
			e.io.gg[port] = v
		}
		return
	}
	switch port & 0xC1 {
	case 0x00:
		e.io.memControl = v
	case 0x01:
		e.writeIOControl(v)
	case 0x40, 0x41:
		e.psg.Write(v)
	case 0x80:
		e.vdp.WriteData(v)
	case 0x81:
		e.vdp.WriteControl(v)
		e.updateIRQ()
	}
}

// writeIOControl latches the H counter when either TH goes from low to
// high, which light guns rely on.
func (e *Emulator) writeIOControl(v byte) {
	before := [2]bool{}
	for i := range before {
		before[i], _ = e.io.th(i)
	}
	e.io.ioControl = v
	for i := range before {
		if now, _ := e.io.th(i); now && !before[i] {
			e.vdp.LatchHCounter(e.lineCycle())
		}
	}
}

func (p *ioPorts) save(w *savestate.Writer) {
	w.U8(p.memControl)
	w.U8(p.ioControl)
	w.Bool(p.pausePrev)
	w.Bool(p.export)
	w.Raw(p.gg[:])
}

func (p *ioPorts) load(d *savestate.Decoder) error {
	p.memControl = d.U8()
	p.ioControl = d.U8()
	p.pausePrev = d.Bool()
	p.export = d.Bool()
	d.Raw(p.gg[:])
	return d.Err()
}
