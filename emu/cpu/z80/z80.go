// Package z80 is a Zilog Z80 interpreter covering the documented and the
// commonly relied upon undocumented behaviour (IXH/IXL, SLL, X/Y flags,
// DDCB register copies).
package z80

import (
	"github.com/user-none/em8bit/emu/cpu"
	"github.com/user-none/em8bit/emu/savestate"
)

// StateVersion is the payload version written by SaveState.
const StateVersion = 1

var _ cpu.Core = (*CPU)(nil)

const (
	nmiVector = 0x0066
	im1Vector = 0x0038
)

// CPU holds Z80 architectural state. Register fields are exported for
// debuggers and tests.
type CPU struct {
	A, F, B, C, D, E, H, L         byte
	A2, F2, B2, C2, D2, E2, H2, L2 byte

	IX, IY, SP, PC, WZ uint16
	I, R, IM           byte
	IFF1, IFF2         bool
	Halted             bool

	irqLine    bool
	nmiPending bool
	eiDelay    bool
	dataBus    byte

	// idx selects HL (0), IX (1) or IY (2) for the current instruction.
	idx int

	cycles int
	total  uint64

	bus   cpu.IOBus
	fetch cpu.FetchCache
}

// New creates a Z80 attached to bus and resets it.
func New(bus cpu.IOBus) *CPU {
	c := &CPU{bus: bus}
	c.fetch.Attach(bus)
	c.Reset()
	return c
}

// Reset loads power-on values. PC starts at 0 with interrupts disabled and
// mode 0 selected.
func (c *CPU) Reset() {
	c.A, c.F = 0xFF, 0xFF
	c.B, c.C, c.D, c.E, c.H, c.L = 0, 0, 0, 0, 0, 0
	c.A2, c.F2, c.B2, c.C2, c.D2, c.E2, c.H2, c.L2 = 0, 0, 0, 0, 0, 0, 0, 0
	c.IX, c.IY = 0xFFFF, 0xFFFF
	c.SP = 0xFFFF
	c.PC = 0
	c.WZ = 0
	c.I, c.R, c.IM = 0, 0, 0
	c.IFF1, c.IFF2 = false, false
	c.Halted = false
	c.irqLine = false
	c.nmiPending = false
	c.eiDelay = false
	c.dataBus = 0xFF
	c.idx = 0
	c.fetch.Invalidate()
}

// Execute runs whole instructions until at least cycles T-states have
// elapsed and returns the number consumed.
func (c *CPU) Execute(cycles int) int {
	c.cycles = 0
	for c.cycles < cycles {
		c.step()
	}
	c.total += uint64(c.cycles)
	return c.cycles
}

// Step executes one instruction, or services one interrupt, and returns the
// T-states it took.
func (c *CPU) Step() int {
	c.cycles = 0
	c.step()
	c.total += uint64(c.cycles)
	return c.cycles
}

// Cycles returns the total T-states executed since creation.
func (c *CPU) Cycles() uint64 { return c.total }

// ProgramCounter returns PC.
func (c *CPU) ProgramCounter() uint16 { return c.PC }

// AssertIRQ raises the maskable interrupt line.
func (c *CPU) AssertIRQ() { c.irqLine = true }

// ClearIRQ lowers the maskable interrupt line.
func (c *CPU) ClearIRQ() { c.irqLine = false }

// IRQ reports the state of the maskable interrupt line.
func (c *CPU) IRQ() bool { return c.irqLine }

// PulseNMI latches a falling edge on /NMI. It is serviced once.
func (c *CPU) PulseNMI() { c.nmiPending = true }

// SetDataBus sets the byte a device places on the bus during interrupt
// acknowledge. Mode 0 executes it and mode 2 uses it as the vector low byte.
func (c *CPU) SetDataBus(v byte) { c.dataBus = v }

func (c *CPU) step() {
	if c.nmiPending {
		c.nmiPending = false
		c.serviceNMI()
		return
	}
	if c.irqLine && c.IFF1 && !c.eiDelay {
		c.serviceIRQ()
		return
	}
	c.eiDelay = false
	if c.Halted {
		c.incR()
		c.cycles += 4
		return
	}
	c.idx = 0
	c.execute(c.fetchOpcode())
}

func (c *CPU) serviceNMI() {
	c.Halted = false
	c.incR()
	c.IFF1 = false
	c.push(c.PC)
	c.PC = nmiVector
	c.WZ = c.PC
	c.cycles += 11
}

func (c *CPU) serviceIRQ() {
	c.Halted = false
	c.incR()
	c.IFF1, c.IFF2 = false, false
	switch c.IM {
	case 2:
		c.push(c.PC)
		c.PC = c.read16(uint16(c.I)<<8 | uint16(c.dataBus))
		c.cycles += 19
	case 1:
		c.push(c.PC)
		c.PC = im1Vector
		c.cycles += 13
	default:
		op := c.dataBus
		if op&0xC7 == 0xC7 {
			c.push(c.PC)
			c.PC = uint16(op & 0x38)
			c.cycles += 13
		} else {
			c.idx = 0
			c.cycles += 2
			c.execute(op)
		}
	}
	c.WZ = c.PC
}

func (c *CPU) incR() {
	c.R = c.R&0x80 | (c.R+1)&0x7F
}

func (c *CPU) fetchOpcode() byte {
	c.incR()
	return c.fetchByte()
}

func (c *CPU) fetchByte() byte {
	pc := c.PC
	c.PC++
	if v, ok := c.fetch.Lookup(pc); ok {
		return v
	}
	return c.bus.Read(pc)
}

func (c *CPU) fetchWord() uint16 {
	lo := c.fetchByte()
	hi := c.fetchByte()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) read(addr uint16) byte     { return c.bus.Read(addr) }
func (c *CPU) write(addr uint16, v byte) { c.bus.Write(addr, v) }

func (c *CPU) read16(addr uint16) uint16 {
	return uint16(c.read(addr)) | uint16(c.read(addr+1))<<8
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.write(addr, byte(v))
	c.write(addr+1, byte(v>>8))
}

func (c *CPU) push(v uint16) {
	c.SP--
	c.write(c.SP, byte(v>>8))
	c.SP--
	c.write(c.SP, byte(v))
}

func (c *CPU) pop() uint16 {
	lo := c.read(c.SP)
	c.SP++
	hi := c.read(c.SP)
	c.SP++
	return uint16(hi)<<8 | uint16(lo)
}

// Register pair accessors.

func (c *CPU) AF() uint16 { return uint16(c.A)<<8 | uint16(c.F) }
func (c *CPU) BC() uint16 { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) DE() uint16 { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) HL() uint16 { return uint16(c.H)<<8 | uint16(c.L) }

func (c *CPU) SetAF(v uint16) { c.A, c.F = byte(v>>8), byte(v) }
func (c *CPU) SetBC(v uint16) { c.B, c.C = byte(v>>8), byte(v) }
func (c *CPU) SetDE(v uint16) { c.D, c.E = byte(v>>8), byte(v) }
func (c *CPU) SetHL(v uint16) { c.H, c.L = byte(v>>8), byte(v) }

// hl returns HL, IX or IY depending on the active prefix.
func (c *CPU) hl() uint16 {
	switch c.idx {
	case 1:
		return c.IX
	case 2:
		return c.IY
	}
	return c.HL()
}

func (c *CPU) setHL(v uint16) {
	switch c.idx {
	case 1:
		c.IX = v
	case 2:
		c.IY = v
	default:
		c.SetHL(v)
	}
}

// SaveState writes the CPU payload.
func (c *CPU) SaveState(w *savestate.Writer) {
	for _, r := range [...]byte{c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L,
		c.A2, c.F2, c.B2, c.C2, c.D2, c.E2, c.H2, c.L2, c.I, c.R, c.IM, c.dataBus} {
		w.U8(r)
	}
	for _, r := range [...]uint16{c.IX, c.IY, c.SP, c.PC, c.WZ} {
		w.U16(r)
	}
	w.Bool(c.IFF1)
	w.Bool(c.IFF2)
	w.Bool(c.Halted)
	w.Bool(c.irqLine)
	w.Bool(c.nmiPending)
	w.Bool(c.eiDelay)
	w.U64(c.total)
}

// LoadState restores a payload written by SaveState.
func (c *CPU) LoadState(d *savestate.Decoder) error {
	for _, r := range [...]*byte{&c.A, &c.F, &c.B, &c.C, &c.D, &c.E, &c.H, &c.L,
		&c.A2, &c.F2, &c.B2, &c.C2, &c.D2, &c.E2, &c.H2, &c.L2, &c.I, &c.R, &c.IM, &c.dataBus} {
		*r = d.U8()
	}
	for _, r := range [...]*uint16{&c.IX, &c.IY, &c.SP, &c.PC, &c.WZ} {
		*r = d.U16()
	}
	c.IFF1 = d.Bool()
	c.IFF2 = d.Bool()
	c.Halted = d.Bool()
	c.irqLine = d.Bool()
	c.nmiPending = d.Bool()
	c.eiDelay = d.Bool()
	c.total = d.U64()
	c.fetch.Invalidate()
	return d.Err()
}
