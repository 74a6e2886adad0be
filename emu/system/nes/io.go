package nes

import "github.com/user-none/em8bit/emu/savestate"

// CPU cycles between frame counter IRQs in 4-step mode.
const (
	frameIRQNTSC = 29830
	frameIRQPAL  = 33254
)

type bus struct{ e *Emulator }

func (b *bus) Read(addr uint16) byte      { return b.e.read(addr) }
func (b *bus) Write(addr uint16, v byte)  { b.e.write(addr, v) }
func (b *bus) FetchPage(page byte) []byte { return b.e.space.FetchPage(page) }
func (b *bus) Generation() uint32         { return b.e.space.Generation() }

func (e *Emulator) read(addr uint16) byte {
	switch {
	case addr < 0x2000:
		return e.space.Read(addr)
	case addr < 0x4000:
		return e.ppu.ReadRegister(addr)
	case addr == 0x4015:
		return e.io.readStatus()
	case addr == 0x4016, addr == 0x4017:
		return e.io.readPad(int(addr - 0x4016))
	case addr < 0x4020:
		return 0x40 // open bus, high byte of the address
	}
	return e.space.Read(addr)
}

func (e *Emulator) write(addr uint16, v byte) {
	switch {
	case addr < 0x2000:
		e.space.Write(addr, v)
	case addr < 0x4000:
		e.ppu.WriteRegister(addr, v)
		if e.ppu.TakeNMI() {
			e.cpu.PulseNMI()
		}
	case addr == 0x4014:
		e.oamDMA(v)
	case addr == 0x4016:
		e.io.writeStrobe(v, e.pads)
	case addr < 0x4020:
		e.io.writeAPU(addr, v)
		e.updateIRQ()
	default:
		e.mapper.Write(addr, v)
		e.updateIRQ()
	}
}

// ioState is the 2A03 register file: APU registers, the frame counter
// and the controller shift registers.
type ioState struct {
	apu [0x18]byte

	frameCycles int
	frameIRQ    bool

	strobe bool
	shift  [2]byte
	reads  [2]int
}

func (s *ioState) reset() {
	s.apu = [0x18]byte{}
	s.frameCycles = 0
	s.frameIRQ = false
	s.strobe = false
	s.shift = [2]byte{}
	s.reads = [2]int{}
}

func (s *ioState) writeAPU(addr uint16, v byte) {
	if int(addr-0x4000) >= len(s.apu) {
		return
	}
	s.apu[addr-0x4000] = v
	if addr == 0x4017 {
		s.frameCycles = 0
		if v&0x40 != 0 {
			s.frameIRQ = false
		}
	}
}

// clockFrameCounter raises the frame IRQ every period CPU cycles unless
// the counter is in 5-step mode or the IRQ is inhibited.
func (s *ioState) clockFrameCounter(cycles, period int) {
	s.frameCycles += cycles
	for s.frameCycles >= period {
		s.frameCycles -= period
		if s.apu[0x17]&0xC0 == 0 {
			s.frameIRQ = true
		}
	}
}

// readStatus is $4015. Reading acknowledges the frame IRQ.
func (s *ioState) readStatus() byte {
	var v byte
	if s.frameIRQ {
		v |= 0x40
	}
	s.frameIRQ = false
	return v
}

// Standard controller report order, from the first bit shifted out.
var padOrder = [8]int{ButtonA, ButtonB, 7, 6, 0, 1, 2, 3}

func (s *ioState) latch(player int, buttons uint32) {
	var v byte
	for i, bit := range padOrder {
		if buttons&(1<<uint(bit)) != 0 {
			v |= 1 << uint(i)
		}
	}
	s.shift[player] = v
	s.reads[player] = 0
}

func (s *ioState) writeStrobe(v byte, pads [2]uint32) {
	s.strobe = v&0x01 != 0
	if s.strobe {
		s.latch(0, pads[0])
		s.latch(1, pads[1])
	}
}

// readPad shifts out one report bit. After eight reads an official pad
// returns 1.
func (s *ioState) readPad(player int) byte {
	if s.reads[player] >= 8 {
		return 0x41
	}
	v := s.shift[player] & 0x01
	if !s.strobe {
		s.shift[player] >>= 1
		s.reads[player]++
	}
	return 0x40 | v
}

func (s *ioState) save(w *savestate.Writer) {
	w.Raw(s.apu[:])
	w.Int(s.frameCycles)
	w.Bool(s.frameIRQ)
	w.Bool(s.strobe)
	w.Raw(s.shift[:])
	w.U8(uint8(s.reads[0]))
	w.U8(uint8(s.reads[1]))
}

func (s *ioState) load(d *savestate.Decoder) error {
	d.Raw(s.apu[:])
	s.frameCycles = d.Int()
	s.frameIRQ = d.Bool()
	s.strobe = d.Bool()
	d.Raw(s.shift[:])
	s.reads[0] = int(d.U8())
	s.reads[1] = int(d.U8())
	return d.Err()
}
