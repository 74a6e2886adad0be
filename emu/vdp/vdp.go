// Package vdp emulates the Sega Master System and Game Gear video display
// processor, including its TMS9918 compatibility modes, and the TMS9918A
// itself as used by the SG-1000, SC-3000 and ColecoVision.
package vdp

import (
	"image"

	"github.com/user-none/em8bit/emu/video"
)

// Model selects the chip revision.
type Model int

const (
	ModelSMS  Model = iota // 315-5124, 192 lines only
	ModelSMS2              // 315-5246, adds 224 and 240 line modes
	ModelGG                // Game Gear, 12-bit CRAM and a 160x144 window
	ModelTMS               // TMS9918A, no Mode 4
)

// Events are the edges ExecuteLine reports to the scheduler.
type Events uint8

const (
	EventVBlank Events = 1 << iota
	EventLineInterrupt
)

const (
	FrameWidth  = 256
	FrameHeight = 240

	vramSize = 0x4000
)

const (
	statusVBlank    = 0x80
	statusOverflow  = 0x40
	statusCollision = 0x20
	statusFifthMask = 0x1F
)

// VDP is one video chip. All state lives here; nothing is shared between
// instances.
type VDP struct {
	model Model
	pal   bool

	vram [vramSize]byte
	cram [64]byte
	regs [16]byte

	// Control port.
	latch     bool
	code      byte
	addr      uint16
	readBuf   byte
	cramLatch byte

	status         byte
	lineIntPending bool
	lineCounter    byte
	vscroll        byte
	hcounter       byte
	line           int

	cache   patternCache
	palette [32]video.Pixel

	spriteLimit bool

	frame *video.Frame

	// Per-line scratch.
	bgPriority [FrameWidth]bool
	spriteHit  [FrameWidth]bool
	selected   [64]int
}

// New creates a VDP for the given model and region.
func New(model Model, pal bool) *VDP {
	v := &VDP{
		model:       model,
		pal:         pal,
		spriteLimit: true,
		frame:       video.NewFrame(FrameWidth, FrameHeight),
	}
	v.Reset()
	return v
}

// Reset restores power-on register values.
func (v *VDP) Reset() {
	v.vram = [vramSize]byte{}
	v.cram = [64]byte{}
	v.regs = [16]byte{}
	if v.model != ModelTMS {
		// Values left by the BIOS; games without one rely on them.
		v.regs[0] = 0x36
		v.regs[1] = 0x80
		v.regs[2] = 0xFF
		v.regs[3] = 0xFF
		v.regs[4] = 0xFF
		v.regs[5] = 0xFF
		v.regs[6] = 0xFB
		v.regs[10] = 0xFF
	}
	v.latch = false
	v.code = 0
	v.addr = 0
	v.readBuf = 0
	v.cramLatch = 0
	v.status = 0
	v.lineIntPending = false
	v.lineCounter = 0xFF
	v.vscroll = 0
	v.line = 0
	v.cache.invalidateAll()
	v.refreshPalette()
	v.frame.Fill(v.backdrop())
	v.updateActive()
}

// SetSpriteLimit enables or disables the per-line sprite limit. Overflow
// is still reported when disabled.
func (v *VDP) SetSpriteLimit(on bool) { v.spriteLimit = on }

// SetPAL switches the line counter layout.
func (v *VDP) SetPAL(pal bool) { v.pal = pal }

// Model returns the chip revision.
func (v *VDP) Model() Model { return v.model }

// Frame returns the frame buffer.
func (v *VDP) Frame() *video.Frame { return v.frame }

// ActiveRect returns the visible area of the frame for the current mode.
func (v *VDP) ActiveRect() image.Rectangle { return v.frame.ActiveRect() }

// Register returns register n.
func (v *VDP) Register(n int) byte { return v.regs[n&0x0F] }

// VRAM exposes video memory for inspection.
func (v *VDP) VRAM() []byte { return v.vram[:] }

// CRAM exposes palette memory for inspection.
func (v *VDP) CRAM() []byte { return v.cram[:v.cramSize()] }

// Address returns the current VRAM address.
func (v *VDP) Address() uint16 { return v.addr }

// Line returns the last line passed to ExecuteLine.
func (v *VDP) Line() int { return v.line }

func (v *VDP) cramSize() int {
	if v.model == ModelGG {
		return 64
	}
	return 32
}

func (v *VDP) mode4() bool {
	return v.model != ModelTMS && v.regs[0]&0x04 != 0
}

func (v *VDP) displayEnabled() bool { return v.regs[1]&0x40 != 0 }

// ActiveHeight returns 192, 224 or 240 depending on the mode bits.
func (v *VDP) ActiveHeight() int {
	if !v.mode4() || v.model == ModelSMS || v.regs[0]&0x02 == 0 {
		return 192
	}
	switch {
	case v.regs[1]&0x10 != 0:
		return 224
	case v.regs[1]&0x08 != 0 && v.pal:
		return 240
	}
	return 192
}

func (v *VDP) updateActive() {
	if v.model == ModelGG {
		v.frame.SetActive(image.Rect(48, 24, 48+160, 24+144))
		return
	}
	v.frame.SetActive(image.Rect(0, 0, FrameWidth, v.ActiveHeight()))
}

// WriteControl handles a write to the control port. The first byte is
// latched as the low address; the second sets the code and the high
// address, or loads a register.
func (v *VDP) WriteControl(b byte) {
	if !v.latch {
		v.addr = v.addr&0x3F00 | uint16(b)
		v.latch = true
		return
	}
	v.latch = false
	v.addr = uint16(b&0x3F)<<8 | v.addr&0x00FF
	v.code = b >> 6

	if v.model == ModelTMS {
		if b&0x80 != 0 {
			v.writeRegister(int(b&0x07), byte(v.addr))
			return
		}
		if b&0x40 == 0 {
			v.prefetch()
		}
		return
	}

	switch v.code {
	case 0:
		v.prefetch()
	case 2:
		v.writeRegister(int(b&0x0F), byte(v.addr))
	}
}

func (v *VDP) prefetch() {
	v.readBuf = v.vram[v.addr&0x3FFF]
	v.addr = (v.addr + 1) & 0x3FFF
}

// WriteRegister sets a register directly.
func (v *VDP) WriteRegister(n int, val byte) { v.writeRegister(n, val) }

func (v *VDP) writeRegister(n int, val byte) {
	if v.model == ModelTMS {
		n &= 0x07
	}
	if n > 10 {
		return
	}
	v.regs[n] = val
	if n == 0 || n == 1 {
		v.updateActive()
	}
}

// ReadControl returns the status byte and clears the flags it reports.
func (v *VDP) ReadControl() byte {
	s := v.status
	v.latch = false
	v.status &= statusFifthMask
	v.lineIntPending = false
	return s
}

// WriteData stores through the current address. Writes pass through the
// read-ahead buffer on every model, so a following read returns the
// written byte.
func (v *VDP) WriteData(b byte) {
	v.latch = false
	if v.code == 3 && v.model != ModelTMS {
		v.writeCRAM(b)
	} else {
		a := v.addr & 0x3FFF
		v.vram[a] = b
		v.cache.invalidate(a)
	}
	v.readBuf = b
	v.addr = (v.addr + 1) & 0x3FFF
}

// ReadData returns the read-ahead buffer and refills it from the next
// address, so a read returns the byte fetched by the previous access.
func (v *VDP) ReadData() byte {
	v.latch = false
	r := v.readBuf
	v.prefetch()
	return r
}

func (v *VDP) writeCRAM(b byte) {
	if v.model == ModelGG {
		a := v.addr & 0x3F
		if a&1 == 0 {
			v.cramLatch = b
			return
		}
		v.cram[a-1] = v.cramLatch
		v.cram[a] = b
		v.updateColor(int(a >> 1))
		return
	}
	a := v.addr & 0x1F
	v.cram[a] = b
	v.updateColor(int(a))
}

// IRQ reports the level of the INT output.
func (v *VDP) IRQ() bool {
	if v.status&statusVBlank != 0 && v.regs[1]&0x20 != 0 {
		return true
	}
	return v.mode4() && v.lineIntPending && v.regs[0]&0x10 != 0
}

// ExecuteLine runs one scanline. Active lines are rendered unless skip is
// set, in which case sprites are still evaluated so collision and
// overflow flags match a rendered frame.
func (v *VDP) ExecuteLine(line int, skip bool) Events {
	var ev Events
	v.line = line
	active := v.ActiveHeight()
	if line == 0 {
		v.vscroll = v.regs[9]
		v.updateActive()
	}

	if line < active {
		switch {
		case !v.displayEnabled():
			if !skip {
				row := v.frame.Row(line)
				bd := v.backdrop()
				for x := range row {
					row[x] = bd
				}
			}
		case v.mode4():
			v.renderMode4(line, skip)
		default:
			v.renderTMS(line, skip)
		}
	}

	if v.model != ModelTMS {
		if line <= active {
			if v.lineCounter == 0 {
				v.lineCounter = v.regs[10]
				v.lineIntPending = true
				ev |= EventLineInterrupt
			} else {
				v.lineCounter--
			}
		} else {
			v.lineCounter = v.regs[10]
		}
	}

	if line == active {
		v.status |= statusVBlank
		ev |= EventVBlank
	}
	return ev
}

// VCounter returns the value of the V counter port for the current line.
// The counter is 8 bits and jumps back part way through the blanking
// period so that it never reads a value equal to an active line twice.
func (v *VDP) VCounter() byte {
	l := v.line
	h := v.ActiveHeight()
	if !v.pal {
		switch h {
		case 192:
			if l > 0xDA {
				return byte(l - 6)
			}
		case 224:
			if l > 0xEA {
				return byte(l - 6)
			}
		case 240:
			return byte(l)
		}
		return byte(l)
	}
	switch h {
	case 192:
		if l > 0xF2 {
			return byte(l - 57)
		}
	case 224:
		if l > 0x102 {
			return byte(l - 57)
		}
	case 240:
		if l > 0x10A {
			return byte(l - 57)
		}
	}
	return byte(l)
}

// LatchHCounter captures the H counter for a CPU cycle within the line
// (0-227), as happens when TH changes on the I/O port.
func (v *VDP) LatchHCounter(cycle int) {
	dot := cycle * 3 / 2
	h := dot / 2
	if h > 0x93 {
		h += 0xE9 - 0x94
	}
	v.hcounter = byte(h)
}

// HCounter returns the last latched H counter.
func (v *VDP) HCounter() byte { return v.hcounter }
