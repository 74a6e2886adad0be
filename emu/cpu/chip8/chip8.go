// Package chip8 interprets the CHIP-8 virtual machine. Each instruction
// costs one cycle; the host decides how many run per frame.
package chip8

import (
	"github.com/user-none/em8bit/emu/cpu"
	"github.com/user-none/em8bit/emu/savestate"
)

// StateVersion is the payload version written by SaveState.
const StateVersion = 1

var _ cpu.Core = (*CPU)(nil)

const (
	// ProgramStart is where programs are loaded and execution begins.
	ProgramStart = 0x200
	// FontAddr is where the built-in hex font lives.
	FontAddr = 0x050
	// MemorySize is the addressable memory.
	MemorySize = 0x1000

	DisplayWidth  = 64
	DisplayHeight = 32
)

// Font is the 4x5 hexadecimal glyph set, five bytes per digit.
var Font = [80]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, 0x20, 0x60, 0x20, 0x20, 0x70,
	0xF0, 0x10, 0xF0, 0x80, 0xF0, 0xF0, 0x10, 0xF0, 0x10, 0xF0,
	0x90, 0x90, 0xF0, 0x10, 0x10, 0xF0, 0x80, 0xF0, 0x10, 0xF0,
	0xF0, 0x80, 0xF0, 0x90, 0xF0, 0xF0, 0x10, 0x20, 0x40, 0x40,
	0xF0, 0x90, 0xF0, 0x90, 0xF0, 0xF0, 0x90, 0xF0, 0x10, 0xF0,
	0xF0, 0x90, 0xF0, 0x90, 0x90, 0xE0, 0x90, 0xE0, 0x90, 0xE0,
	0xF0, 0x80, 0x80, 0x80, 0xF0, 0xE0, 0x90, 0x90, 0x90, 0xE0,
	0xF0, 0x80, 0xF0, 0x80, 0xF0, 0xF0, 0x80, 0xF0, 0x80, 0x80,
}

// Quirks selects between the behaviours of the interpreters that
// programs were written against.
type Quirks struct {
	ShiftUsesVY   bool // 8XY6/8XYE shift VY into VX
	LoadStoreIncI bool // FX55/FX65 leave I past the last register
	JumpUsesVX    bool // BNNN jumps to XNN+VX
	LogicResetsVF bool // 8XY1/8XY2/8XY3 clear VF
	ClipSprites   bool // sprites clip at the screen edge instead of wrapping
}

// QuirksCOSMAC matches the original COSMAC VIP interpreter.
var QuirksCOSMAC = Quirks{ShiftUsesVY: true, LoadStoreIncI: true, LogicResetsVF: true, ClipSprites: true}

// QuirksModern matches most interpreters written since the 1990s.
var QuirksModern = Quirks{ClipSprites: true}

// CPU is the CHIP-8 machine state, including the display and keypad.
type CPU struct {
	V      [16]byte
	I, PC  uint16
	SP     byte
	Stack  [16]uint16
	DT, ST byte

	Quirks Quirks

	display [DisplayHeight]uint64
	dirty   bool

	keys     uint16
	waiting  bool
	waitReg  byte
	waitDown int8

	rng uint32

	cycles int
	total  uint64

	bus cpu.Bus
}

// New creates a machine over bus with the given quirks.
func New(bus cpu.Bus, q Quirks) *CPU {
	c := &CPU{bus: bus, Quirks: q}
	c.Reset()
	return c
}

// Reset clears registers and the display and loads the font.
func (c *CPU) Reset() {
	c.V = [16]byte{}
	c.I = 0
	c.PC = ProgramStart
	c.SP = 0
	c.Stack = [16]uint16{}
	c.DT, c.ST = 0, 0
	c.display = [DisplayHeight]uint64{}
	c.dirty = true
	c.waiting = false
	c.waitDown = -1
	c.rng = 0x2545F491
	for i, b := range Font {
		c.bus.Write(FontAddr+uint16(i), b)
	}
}

// Execute runs cycles instructions.
func (c *CPU) Execute(cycles int) int {
	c.cycles = 0
	for c.cycles < cycles {
		c.step()
	}
	c.total += uint64(c.cycles)
	return c.cycles
}

// Step runs one instruction.
func (c *CPU) Step() int { return c.Execute(1) }

// ProgramCounter returns PC.
func (c *CPU) ProgramCounter() uint16 { return c.PC }

// CHIP-8 has no interrupt lines.
func (c *CPU) AssertIRQ() {}
func (c *CPU) ClearIRQ()  {}
func (c *CPU) PulseNMI()  {}

// TickTimers decrements DT and ST. Called at 60 Hz.
func (c *CPU) TickTimers() {
	if c.DT > 0 {
		c.DT--
	}
	if c.ST > 0 {
		c.ST--
	}
}

// Sounding reports whether the beeper is on.
func (c *CPU) Sounding() bool { return c.ST > 0 }

// SetKeys sets the 16-key keypad state, bit n for key n.
func (c *CPU) SetKeys(keys uint16) { c.keys = keys }

// Pixel reports whether the display pixel at x,y is lit.
func (c *CPU) Pixel(x, y int) bool {
	return c.display[y]&(1<<uint(DisplayWidth-1-x)) != 0
}

// TakeDirty reports whether the display changed since the last call.
func (c *CPU) TakeDirty() bool {
	d := c.dirty
	c.dirty = false
	return d
}

// Waiting reports whether FX0A is blocking for a key.
func (c *CPU) Waiting() bool { return c.waiting }

func (c *CPU) random() byte {
	x := c.rng
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	c.rng = x
	return byte(x >> 8)
}

func (c *CPU) step() {
	c.cycles++
	hi := c.bus.Read(c.PC)
	lo := c.bus.Read(c.PC + 1)
	c.PC += 2
	op := uint16(hi)<<8 | uint16(lo)

	x := (op >> 8) & 0x0F
	y := (op >> 4) & 0x0F
	n := op & 0x0F
	nn := byte(op)
	nnn := op & 0x0FFF

	switch op >> 12 {
	case 0x0:
		switch op {
		case 0x00E0:
			c.display = [DisplayHeight]uint64{}
			c.dirty = true
		case 0x00EE:
			c.SP = (c.SP - 1) & 0x0F
			c.PC = c.Stack[c.SP]
		}
	case 0x1:
		c.PC = nnn
	case 0x2:
		c.Stack[c.SP&0x0F] = c.PC
		c.SP = (c.SP + 1) & 0x0F
		c.PC = nnn
	case 0x3:
		if c.V[x] == nn {
			c.PC += 2
		}
	case 0x4:
		if c.V[x] != nn {
			c.PC += 2
		}
	case 0x5:
		if n == 0 && c.V[x] == c.V[y] {
			c.PC += 2
		}
	case 0x6:
		c.V[x] = nn
	case 0x7:
		c.V[x] += nn
	case 0x8:
		c.arith(x, y, n)
	case 0x9:
		if n == 0 && c.V[x] != c.V[y] {
			c.PC += 2
		}
	case 0xA:
		c.I = nnn
	case 0xB:
		if c.Quirks.JumpUsesVX {
			c.PC = nnn + uint16(c.V[x])
		} else {
			c.PC = nnn + uint16(c.V[0])
		}
	case 0xC:
		c.V[x] = c.random() & nn
	case 0xD:
		c.draw(c.V[x], c.V[y], int(n))
	case 0xE:
		pressed := c.keys&(1<<(c.V[x]&0x0F)) != 0
		switch nn {
		case 0x9E:
			if pressed {
				c.PC += 2
			}
		case 0xA1:
			if !pressed {
				c.PC += 2
			}
		}
	case 0xF:
		c.misc(x, nn)
	}
	c.PC &= MemorySize - 1
}

func (c *CPU) arith(x, y, n uint16) {
	vx, vy := c.V[x], c.V[y]
	switch n {
	case 0x0:
		c.V[x] = vy
	case 0x1, 0x2, 0x3:
		switch n {
		case 0x1:
			c.V[x] = vx | vy
		case 0x2:
			c.V[x] = vx & vy
		case 0x3:
			c.V[x] = vx ^ vy
		}
		if c.Quirks.LogicResetsVF {
			c.V[0xF] = 0
		}
	case 0x4:
		sum := uint16(vx) + uint16(vy)
		c.V[x] = byte(sum)
		c.V[0xF] = byte(sum >> 8)
	case 0x5:
		c.V[x] = vx - vy
		c.V[0xF] = boolByte(vx >= vy)
	case 0x7:
		c.V[x] = vy - vx
		c.V[0xF] = boolByte(vy >= vx)
	case 0x6:
		src := vx
		if c.Quirks.ShiftUsesVY {
			src = vy
		}
		c.V[x] = src >> 1
		c.V[0xF] = src & 1
	case 0xE:
		src := vx
		if c.Quirks.ShiftUsesVY {
			src = vy
		}
		c.V[x] = src << 1
		c.V[0xF] = src >> 7
	}
}

func (c *CPU) draw(vx, vy byte, rows int) {
	x0 := int(vx) % DisplayWidth
	y0 := int(vy) % DisplayHeight
	var hit byte
	for r := 0; r < rows; r++ {
		py := y0 + r
		if py >= DisplayHeight {
			if c.Quirks.ClipSprites {
				break
			}
			py %= DisplayHeight
		}
		bits := c.bus.Read(c.I + uint16(r))
		for col := 0; col < 8; col++ {
			if bits&(0x80>>uint(col)) == 0 {
				continue
			}
			px := x0 + col
			if px >= DisplayWidth {
				if c.Quirks.ClipSprites {
					continue
				}
				px %= DisplayWidth
			}
			mask := uint64(1) << uint(DisplayWidth-1-px)
			if c.display[py]&mask != 0 {
				hit = 1
			}
			c.display[py] ^= mask
		}
	}
	c.V[0xF] = hit
	c.dirty = true
}

func (c *CPU) misc(x uint16, nn byte) {
	switch nn {
	case 0x07:
		c.V[x] = c.DT
	case 0x0A:
		c.waitForKey(byte(x))
	case 0x15:
		c.DT = c.V[x]
	case 0x18:
		c.ST = c.V[x]
	case 0x1E:
		c.I = (c.I + uint16(c.V[x])) & 0x0FFF
	case 0x29:
		c.I = FontAddr + uint16(c.V[x]&0x0F)*5
	case 0x33:
		v := c.V[x]
		c.bus.Write(c.I, v/100)
		c.bus.Write(c.I+1, v/10%10)
		c.bus.Write(c.I+2, v%10)
	case 0x55:
		for i := uint16(0); i <= x; i++ {
			c.bus.Write(c.I+i, c.V[i])
		}
		if c.Quirks.LoadStoreIncI {
			c.I += x + 1
		}
	case 0x65:
		for i := uint16(0); i <= x; i++ {
			c.V[i] = c.bus.Read(c.I + i)
		}
		if c.Quirks.LoadStoreIncI {
			c.I += x + 1
		}
	}
}

// waitForKey blocks by re-executing FX0A until a key is pressed and then
// released, as the COSMAC VIP does.
func (c *CPU) waitForKey(reg byte) {
	if !c.waiting {
		c.waiting = true
		c.waitReg = reg
		c.waitDown = -1
	}
	if c.waitDown < 0 {
		for k := 0; k < 16; k++ {
			if c.keys&(1<<uint(k)) != 0 {
				c.waitDown = int8(k)
				break
			}
		}
	} else if c.keys&(1<<uint(c.waitDown)) == 0 {
		c.V[c.waitReg] = byte(c.waitDown)
		c.waiting = false
		c.waitDown = -1
		return
	}
	c.PC -= 2
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// SaveState writes the machine payload, display included.
func (c *CPU) SaveState(w *savestate.Writer) {
	w.Raw(c.V[:])
	w.U16(c.I)
	w.U16(c.PC)
	w.U8(c.SP)
	for _, s := range c.Stack {
		w.U16(s)
	}
	w.U8(c.DT)
	w.U8(c.ST)
	for _, row := range c.display {
		w.U64(row)
	}
	w.U16(c.keys)
	w.Bool(c.waiting)
	w.U8(c.waitReg)
	w.U8(byte(c.waitDown))
	w.U32(c.rng)
	w.U64(c.total)
}

// LoadState restores a payload written by SaveState.
func (c *CPU) LoadState(d *savestate.Decoder) error {
	d.Raw(c.V[:])
	c.I = d.U16()
	c.PC = d.U16()
	c.SP = d.U8()
	for i := range c.Stack {
		c.Stack[i] = d.U16()
	}
	c.DT = d.U8()
	c.ST = d.U8()
	for i := range c.display {
		c.display[i] = d.U64()
	}
	c.keys = d.U16()
	c.waiting = d.Bool()
	c.waitReg = d.U8()
	c.waitDown = int8(d.U8())
	c.rng = d.U32()
	c.total = d.U64()
	c.dirty = true
	return d.Err()
}
