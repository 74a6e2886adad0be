// Package mapper implements cartridge bank switching. A mapper owns the
// layout of its CPU address space above whatever the console board maps
// itself, and rebuilds page table entries when control addresses are
// written.
package mapper

import (
	"github.com/pkg/errors"

	"github.com/user-none/em8bit/emu/memory"
	"github.com/user-none/em8bit/emu/savestate"
)

// StateVersion is the payload version written by every mapper.
const StateVersion = 1

// ErrUnsupportedMapper is returned for mapper numbers with no implementation.
var ErrUnsupportedMapper = errors.New("mapper: unsupported mapper")

// Mapper is one cartridge design.
//
// Write always stores v through the write page table first, exactly as a
// plain bus write would, and then applies any control side effect. Some
// boards decode their registers on top of RAM so the order is observable.
type Mapper interface {
	Init(space *memory.AddressSpace)
	Reset()
	Read(addr uint16) byte
	Write(addr uint16, v byte)
	SaveState(w *savestate.Writer)
	LoadState(d *savestate.Decoder) error
	Name() string
	CartRAM() []byte
	HasBattery() bool
}

// Z80 machine mapper numbers. These are not standardized by any header
// and exist so the cartridge layer and the core options can name a board.
const (
	Sega = iota
	Codemasters
	Korean
	MSX8K
	ROMOnly
	Coleco
)

var z80Names = map[int]string{
	Sega:        "sega",
	Codemasters: "codemasters",
	Korean:      "korean",
	MSX8K:       "msx8k",
	ROMOnly:     "rom",
	Coleco:      "coleco",
}

// NumberByName resolves a mapper option value such as "codemasters".
func NumberByName(name string) (int, bool) {
	for n, s := range z80Names {
		if s == name {
			return n, true
		}
	}
	return 0, false
}

// Config carries what a mapper needs from the loaded cartridge and the
// console board.
type Config struct {
	ROM  []byte
	BIOS []byte

	// RAM is the console work RAM. Mappers that place it map it; its
	// length sets the mirroring.
	RAM *memory.Region

	// CartRAMSize is the on-cartridge RAM in bytes, 0 for none.
	CartRAMSize int
	Battery     bool

	// NES only.
	CHR       []byte
	Mirroring Mirroring
	VRAM      *memory.Region
}

// New creates the Z80 machine mapper with the given number.
func New(number int, cfg Config) (Mapper, error) {
	switch number {
	case Sega:
		return newSega(cfg), nil
	case Codemasters:
		return newCodemasters(cfg), nil
	case Korean:
		return newKorean(cfg), nil
	case MSX8K:
		return newMSX8K(cfg), nil
	case ROMOnly:
		return newROMOnly(cfg), nil
	case Coleco:
		return newColeco(cfg), nil
	}
	return nil, errors.Wrapf(ErrUnsupportedMapper, "number %d", number)
}

// bankIndex reduces a selector to a valid bank. Boards decode only the
// address lines they need, so the mask is the next power of two; the
// modulo then covers images that are not a power of two in size.
func bankIndex(v, banks int) int {
	if banks <= 1 {
		return 0
	}
	v &= nextPow2(banks) - 1
	return v % banks
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// bankCount returns the number of size-byte banks in n bytes, at least one.
func bankCount(n, size int) int {
	b := (n + size - 1) / size
	if b < 1 {
		b = 1
	}
	return b
}

// base holds what every mapper shares.
type base struct {
	name    string
	space   *memory.AddressSpace
	rom     *memory.Region
	ram     *memory.Region
	cartRAM *memory.Region
	battery bool
}

func newBase(name string, cfg Config) base {
	b := base{
		name:    name,
		rom:     memory.NewRegionFrom(name+".rom", cfg.ROM),
		ram:     cfg.RAM,
		battery: cfg.Battery,
	}
	if cfg.CartRAMSize > 0 {
		b.cartRAM = memory.NewRegion(name+".cartram", cfg.CartRAMSize)
	}
	return b
}

func (b *base) Name() string     { return b.name }
func (b *base) HasBattery() bool { return b.battery && b.cartRAM != nil }

func (b *base) CartRAM() []byte {
	if b.cartRAM == nil {
		return nil
	}
	return b.cartRAM.Bytes()
}

func (b *base) Read(addr uint16) byte { return b.space.Read(addr) }

// mapRAM places work RAM over pages [page, page+count), mirrored.
func (b *base) mapRAM(page, count int) {
	if b.ram == nil {
		b.space.UnmapRead(page, count)
		b.space.UnmapWrite(page, count)
		return
	}
	b.space.Map(page, count, b.ram, 0)
}

// mapROM maps a read-only window of rom starting at byte offset off.
func (b *base) mapROM(page, count int, off int) {
	b.space.MapRead(page, count, b.rom, off)
	b.space.UnmapWrite(page, count)
}
