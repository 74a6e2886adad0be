// Package ppu emulates the NES 2C02 picture processing unit at scanline
// granularity. Pattern tables and nametables are read through a PPU
// address space whose layout the cartridge mapper owns; palette RAM and
// OAM live inside the chip.
package ppu

import (
	"image"

	"github.com/user-none/em8bit/emu/memory"
	"github.com/user-none/em8bit/emu/video"
)

// Events are the edges ExecuteLine reports to the scheduler.
type Events uint8

const (
	EventVBlank Events = 1 << iota
	EventNMI
)

const (
	FrameWidth  = 256
	FrameHeight = 240

	VBlankLine = 241
	LinesNTSC  = 262
	LinesPAL   = 312
)

const (
	ctrlNametable   = 0x03
	ctrlIncrement32 = 0x04
	ctrlSpriteTable = 0x08
	ctrlBGTable     = 0x10
	ctrlSprite16    = 0x20
	ctrlNMI         = 0x80

	maskGrayscale  = 0x01
	maskBGLeft     = 0x02
	maskSpriteLeft = 0x04
	maskBG         = 0x08
	maskSprites    = 0x10

	statusOverflow   = 0x20
	statusSpriteZero = 0x40
	statusVBlank     = 0x80
)

// PPU is one 2C02.
type PPU struct {
	bus *memory.AddressSpace

	palette [32]byte
	oam     [256]byte
	oamAddr byte

	ctrl   byte
	mask   byte
	status byte

	// Loopy scroll registers.
	v uint16
	t uint16
	x byte
	w bool

	readBuf byte
	openBus byte

	nmiPending bool
	oddFrame   bool
	lines      int

	frame *video.Frame

	scratch  [FrameWidth]video.Pixel
	bgColor  [FrameWidth]byte
	claimed  [FrameWidth]bool
	selected [8]int
}

// New creates a PPU reading pattern and nametable data from bus. lines is
// the frame length: LinesNTSC or LinesPAL.
func New(bus *memory.AddressSpace, lines int) *PPU {
	p := &PPU{
		bus:   bus,
		lines: lines,
		frame: video.NewFrame(FrameWidth, FrameHeight),
	}
	p.frame.SetActive(image.Rect(0, 0, FrameWidth, FrameHeight))
	p.Reset()
	return p
}

// Reset restores power-on state. OAM and palette contents are kept, as on
// hardware they are undefined.
func (p *PPU) Reset() {
	p.ctrl, p.mask, p.status = 0, 0, 0
	p.oamAddr = 0
	p.v, p.t, p.x, p.w = 0, 0, 0, false
	p.readBuf = 0
	p.nmiPending = false
	p.oddFrame = false
}

// Frame returns the frame buffer.
func (p *PPU) Frame() *video.Frame { return p.frame }

// SetLines changes the frame length for a region switch.
func (p *PPU) SetLines(lines int) { p.lines = lines }

// PreRenderLine returns the index of the last line of the frame.
func (p *PPU) PreRenderLine() int { return p.lines - 1 }

// RenderingEnabled reports whether either layer is on, which is when the
// PPU walks the address space and mappers see A12 activity.
func (p *PPU) RenderingEnabled() bool { return p.mask&(maskBG|maskSprites) != 0 }

// TakeNMI returns and clears a pending NMI edge. Writing $2000 with the
// NMI bit set during vblank raises one outside ExecuteLine.
func (p *PPU) TakeNMI() bool {
	n := p.nmiPending
	p.nmiPending = false
	return n
}

// OAM exposes sprite memory for inspection.
func (p *PPU) OAM() []byte { return p.oam[:] }

// Palette exposes palette RAM for inspection.
func (p *PPU) Palette() []byte { return p.palette[:] }

func paletteIndex(addr uint16) uint16 {
	i := addr & 0x1F
	if i&0x13 == 0x10 {
		i &^= 0x10
	}
	return i
}

func (p *PPU) write(addr uint16, b byte) {
	addr &= 0x3FFF
	if addr >= 0x3F00 {
		p.palette[paletteIndex(addr)] = b & 0x3F
		return
	}
	p.bus.Write(addr, b)
}

func (p *PPU) increment() {
	if p.ctrl&ctrlIncrement32 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x7FFF
}

// WriteRegister handles a CPU write to $2000-$3FFF.
func (p *PPU) WriteRegister(addr uint16, b byte) {
	p.openBus = b
	switch addr & 7 {
	case 0:
		old := p.ctrl
		p.ctrl = b
		p.t = p.t&^0x0C00 | uint16(b&ctrlNametable)<<10
		if b&ctrlNMI != 0 && old&ctrlNMI == 0 && p.status&statusVBlank != 0 {
			p.nmiPending = true
		}
	case 1:
		p.mask = b
	case 3:
		p.oamAddr = b
	case 4:
		p.oam[p.oamAddr] = b
		p.oamAddr++
	case 5:
		if !p.w {
			p.t = p.t&^0x001F | uint16(b>>3)
			p.x = b & 7
		} else {
			p.t = p.t&^0x73E0 | uint16(b&7)<<12 | uint16(b&0xF8)<<2
		}
		p.w = !p.w
	case 6:
		if !p.w {
			p.t = p.t&0x00FF | uint16(b&0x3F)<<8
		} else {
			p.t = p.t&0xFF00 | uint16(b)
			p.v = p.t
		}
		p.w = !p.w
	case 7:
		p.write(p.v, b)
		p.increment()
	}
}

// ReadRegister handles a CPU read from $2000-$3FFF.
func (p *PPU) ReadRegister(addr uint16) byte {
	switch addr & 7 {
	case 2:
		r := p.status&0xE0 | p.openBus&0x1F
		p.status &^= statusVBlank
		p.w = false
		p.openBus = r
		return r
	case 4:
		p.openBus = p.oam[p.oamAddr]
		return p.openBus
	case 7:
		a := p.v & 0x3FFF
		var r byte
		if a >= 0x3F00 {
			// Palette reads bypass the buffer, which picks up the
			// nametable byte underneath instead.
			r = p.palette[paletteIndex(a)] | p.openBus&0xC0
			p.readBuf = p.bus.Read(a - 0x1000)
		} else {
			r = p.readBuf
			p.readBuf = p.bus.Read(a)
		}
		p.increment()
		p.openBus = r
		return r
	}
	return p.openBus
}

// WriteOAM copies a 256-byte DMA page into OAM starting at OAMADDR.
func (p *PPU) WriteOAM(page []byte) {
	for _, b := range page[:256] {
		p.oam[p.oamAddr] = b
		p.oamAddr++
	}
}

// ExecuteLine runs one scanline.
func (p *PPU) ExecuteLine(line int, skip bool) Events {
	var ev Events
	switch {
	case line < FrameHeight:
		p.renderLine(line, skip)
	case line == VBlankLine:
		p.status |= statusVBlank
		ev |= EventVBlank
		if p.ctrl&ctrlNMI != 0 {
			ev |= EventNMI
		}
	case line == p.lines-1:
		p.status &^= statusVBlank | statusSpriteZero | statusOverflow
		p.nmiPending = false
		if p.RenderingEnabled() {
			p.copyX()
			p.v = p.v&^0x7BE0 | p.t&0x7BE0
		}
		p.oddFrame = !p.oddFrame
	}
	return ev
}

// coarseX advances the tile column of a loopy address, wrapping into the
// horizontally adjacent nametable.
func coarseX(v uint16) uint16 {
	if v&0x001F == 31 {
		return v&^0x001F ^ 0x0400
	}
	return v + 1
}

func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := p.v & 0x03E0 >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = p.v&^0x03E0 | y<<5
}

func (p *PPU) copyX() {
	p.v = p.v&^0x041F | p.t&0x041F
}

func (p *PPU) color(c byte) video.Pixel {
	if p.mask&maskGrayscale != 0 {
		c &= 0x30
	}
	return hostPalette[c&0x3F]
}

func (p *PPU) renderLine(line int, skip bool) {
	row := p.scratch[:]
	if !skip {
		row = p.frame.Row(line)
	}

	if !p.RenderingEnabled() {
		bd := p.color(p.palette[0])
		if p.v&0x3F00 == 0x3F00 {
			bd = p.color(p.palette[paletteIndex(p.v)])
		}
		for x := range row {
			row[x] = bd
		}
		return
	}

	p.renderBackground(row)
	p.renderSprites(line, row)

	p.incrementY()
	p.copyX()
}

func (p *PPU) renderBackground(row []video.Pixel) {
	for i := range p.bgColor {
		p.bgColor[i] = 0
	}
	if p.mask&maskBG != 0 {
		var patBase uint16
		if p.ctrl&ctrlBGTable != 0 {
			patBase = 0x1000
		}
		v := p.v
		for tile := 0; tile < 33; tile++ {
			name := uint16(p.bus.Read(0x2000 | v&0x0FFF))
			at := p.bus.Read(0x23C0 | v&0x0C00 | v>>4&0x38 | v>>2&0x07)
			shift := v>>4&4 | v&2
			hi := (at >> shift & 3) << 2
			fineY := v >> 12 & 7
			lo := p.bus.Read(patBase + name*16 + fineY)
			hb := p.bus.Read(patBase + name*16 + fineY + 8)
			for b := 0; b < 8; b++ {
				x := tile*8 + b - int(p.x)
				if x < 0 || x >= FrameWidth {
					continue
				}
				bit := 7 - b
				c := lo>>bit&1 | (hb>>bit&1)<<1
				if c != 0 {
					p.bgColor[x] = hi | c
				}
			}
			v = coarseX(v)
		}
		if p.mask&maskBGLeft == 0 {
			for x := 0; x < 8; x++ {
				p.bgColor[x] = 0
			}
		}
	}
	for x := range row {
		c := p.bgColor[x]
		if c&3 == 0 {
			row[x] = p.color(p.palette[0])
		} else {
			row[x] = p.color(p.palette[c])
		}
	}
}

func (p *PPU) spriteHeight() int {
	if p.ctrl&ctrlSprite16 != 0 {
		return 16
	}
	return 8
}

func (p *PPU) renderSprites(line int, row []video.Pixel) {
	h := p.spriteHeight()
	n := 0
	for i := 0; i < 64; i++ {
		r := line - int(p.oam[i*4]) - 1
		if r < 0 || r >= h {
			continue
		}
		if n == len(p.selected) {
			p.status |= statusOverflow
			break
		}
		p.selected[n] = i
		n++
	}
	if p.mask&maskSprites == 0 {
		return
	}

	for x := range p.claimed {
		p.claimed[x] = false
	}
	// The first opaque sprite pixel at a column wins, even when it is
	// behind the background.
	for s := 0; s < n; s++ {
		i := p.selected[s]
		y := int(p.oam[i*4])
		tile := uint16(p.oam[i*4+1])
		attr := p.oam[i*4+2]
		x0 := int(p.oam[i*4+3])

		r := line - y - 1
		if attr&0x80 != 0 {
			r = h - 1 - r
		}
		var addr uint16
		if h == 16 {
			addr = (tile&1)*0x1000 + (tile&0xFE)*16
			if r >= 8 {
				addr += 16
				r -= 8
			}
		} else {
			if p.ctrl&ctrlSpriteTable != 0 {
				addr = 0x1000
			}
			addr += tile * 16
		}
		lo := p.bus.Read(addr + uint16(r))
		hb := p.bus.Read(addr + uint16(r) + 8)
		pal := 0x10 | (attr&3)<<2

		for b := 0; b < 8; b++ {
			x := x0 + b
			if x >= FrameWidth {
				break
			}
			if x < 8 && p.mask&maskSpriteLeft == 0 {
				continue
			}
			bit := 7 - b
			if attr&0x40 != 0 {
				bit = b
			}
			c := lo>>bit&1 | (hb>>bit&1)<<1
			if c == 0 || p.claimed[x] {
				continue
			}
			p.claimed[x] = true
			bgOpaque := p.bgColor[x]&3 != 0
			if i == 0 && bgOpaque && x != 255 {
				p.status |= statusSpriteZero
			}
			if attr&0x20 != 0 && bgOpaque {
				continue
			}
			row[x] = p.color(p.palette[pal|c])
		}
	}
}
