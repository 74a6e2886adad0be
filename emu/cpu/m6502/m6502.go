// Package m6502 is an NMOS 6502 interpreter, including the stable
// undocumented opcodes. The Ricoh 2A03 variant is selected by leaving
// Decimal false, which makes the D flag inert.
package m6502

import (
	"github.com/user-none/em8bit/emu/cpu"
	"github.com/user-none/em8bit/emu/savestate"
)

// StateVersion is the payload version written by SaveState.
const StateVersion = 2

var _ cpu.Core = (*CPU)(nil)

const (
	flagC = 0x01
	flagZ = 0x02
	flagI = 0x04
	flagD = 0x08
	flagB = 0x10
	flagU = 0x20
	flagV = 0x40
	flagN = 0x80
)

const (
	VectorNMI   = 0xFFFA
	VectorReset = 0xFFFC
	VectorIRQ   = 0xFFFE
)

const resetCost = 7

// CPU holds 6502 state.
type CPU struct {
	A, X, Y, S, P byte
	PC            uint16

	// Decimal enables BCD arithmetic when the D flag is set.
	Decimal bool

	irqLine    bool
	nmiPending bool
	// pollI is the I flag as seen by the interrupt poll at the end of the
	// previous instruction. CLI, SEI and PLP change I after the poll.
	pollI       bool
	jammed      bool
	stall       int
	resetCycles int // reset sequence still to be charged

	cycles int
	total  uint64

	bus   cpu.Bus
	fetch cpu.FetchCache
}

// New creates a CPU attached to bus and performs a reset.
func New(bus cpu.Bus) *CPU {
	c := &CPU{bus: bus}
	c.fetch.Attach(bus)
	c.Reset()
	return c
}

// Reset loads PC from the reset vector. The 7 cycle reset sequence is
// charged by the next step on its own, apart from any DMA stall.
func (c *CPU) Reset() {
	c.A, c.X, c.Y = 0, 0, 0
	c.S = 0xFD
	c.P = flagI | flagU
	c.pollI = true
	c.irqLine = false
	c.nmiPending = false
	c.jammed = false
	c.fetch.Invalidate()
	c.PC = c.read16(VectorReset)
	c.stall = 0
	c.resetCycles = resetCost
}

// Execute runs whole instructions until at least cycles have elapsed.
func (c *CPU) Execute(cycles int) int {
	c.cycles = 0
	for c.cycles < cycles {
		c.step()
	}
	c.total += uint64(c.cycles)
	return c.cycles
}

// Step runs one instruction, interrupt entry or stall and returns its cost.
func (c *CPU) Step() int {
	c.cycles = 0
	c.step()
	c.total += uint64(c.cycles)
	return c.cycles
}

// Cycles returns the total cycles executed since creation.
func (c *CPU) Cycles() uint64 { return c.total }

// ProgramCounter returns PC.
func (c *CPU) ProgramCounter() uint16 { return c.PC }

func (c *CPU) AssertIRQ() { c.irqLine = true }
func (c *CPU) ClearIRQ()  { c.irqLine = false }
func (c *CPU) PulseNMI()  { c.nmiPending = true }

// Stall suspends the CPU for n cycles, as during OAM DMA.
func (c *CPU) Stall(n int) { c.stall += n }

// Jammed reports whether a KIL opcode has locked the CPU.
func (c *CPU) Jammed() bool { return c.jammed }

func (c *CPU) step() {
	if c.resetCycles > 0 {
		c.cycles += c.resetCycles
		c.resetCycles = 0
		return
	}
	if c.stall > 0 {
		c.cycles += c.stall
		c.stall = 0
		return
	}
	if c.jammed {
		c.cycles += 2
		return
	}
	if c.nmiPending {
		c.nmiPending = false
		c.interrupt(VectorNMI, false)
		return
	}
	if c.irqLine && !c.pollI {
		c.interrupt(VectorIRQ, false)
		return
	}

	op := c.fetchByte()
	info := &opTable[op]
	c.cycles += int(info.cycles)
	c.exec(info)

	switch info.op {
	case opCLI, opSEI, opPLP:
		// poll already sampled before the flag changed
	default:
		c.pollI = c.P&flagI != 0
	}
}

func (c *CPU) interrupt(vector uint16, brk bool) {
	c.push16(c.PC)
	p := c.P | flagU
	if brk {
		p |= flagB
	} else {
		p &^= flagB
	}
	c.push(p)
	c.P |= flagI
	c.pollI = true
	if brk && c.nmiPending {
		// NMI arriving during BRK hijacks the vector
		c.nmiPending = false
		vector = VectorNMI
	}
	c.PC = c.read16(vector)
	if !brk {
		c.cycles += 7
	}
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

func (c *CPU) push(v byte) {
	c.write(0x0100|uint16(c.S), v)
	c.S--
}

func (c *CPU) pop() byte {
	c.S++
	return c.read(0x0100 | uint16(c.S))
}

func (c *CPU) push16(v uint16) {
	c.push(byte(v >> 8))
	c.push(byte(v))
}

func (c *CPU) pop16() uint16 {
	lo := c.pop()
	hi := c.pop()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) setFlag(f byte, on bool) {
	if on {
		c.P |= f
	} else {
		c.P &^= f
	}
}

func (c *CPU) setNZ(v byte) {
	c.P = c.P&^(flagN|flagZ) | v&flagN
	if v == 0 {
		c.P |= flagZ
	}
}

// SaveState writes the CPU payload.
func (c *CPU) SaveState(w *savestate.Writer) {
	w.U8(c.A)
	w.U8(c.X)
	w.U8(c.Y)
	w.U8(c.S)
	w.U8(c.P)
	w.U16(c.PC)
	w.Bool(c.irqLine)
	w.Bool(c.nmiPending)
	w.Bool(c.pollI)
	w.Bool(c.jammed)
	w.U32(uint32(c.stall))
	w.U8(uint8(c.resetCycles))
	w.U64(c.total)
}

// LoadState restores a payload written by SaveState.
func (c *CPU) LoadState(d *savestate.Decoder) error {
	c.A = d.U8()
	c.X = d.U8()
	c.Y = d.U8()
	c.S = d.U8()
	c.P = d.U8()
	c.PC = d.U16()
	c.irqLine = d.Bool()
	c.nmiPending = d.Bool()
	c.pollI = d.Bool()
	c.jammed = d.Bool()
	c.stall = int(d.U32())
	c.resetCycles = int(d.U8())
	c.total = d.U64()
	c.fetch.Invalidate()
	return d.Err()
}
