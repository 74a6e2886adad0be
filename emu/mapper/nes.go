package mapper

import (
	"github.com/pkg/errors"

	"github.com/user-none/em8bit/emu/memory"
	"github.com/user-none/em8bit/emu/savestate"
)

// Mirroring selects how the four logical nametables map onto CIRAM.
type Mirroring uint8

const (
	MirrorHorizontal Mirroring = iota
	MirrorVertical
	MirrorSingleLow
	MirrorSingleHigh
	MirrorFourScreen
)

var nametableLayout = [...][4]int{
	MirrorHorizontal: {0, 0, 1, 1},
	MirrorVertical:   {0, 1, 0, 1},
	MirrorSingleLow:  {0, 0, 0, 0},
	MirrorSingleHigh: {1, 1, 1, 1},
	MirrorFourScreen: {0, 1, 2, 3},
}

// NESMapper is a mapper on the NES, which also owns the PPU pattern and
// nametable layout and may raise an IRQ.
type NESMapper interface {
	Mapper
	AttachPPU(ppu *memory.AddressSpace)
	Mirroring() Mirroring
	IRQ() bool
	// ClockScanline is called once per rendered line, standing in for the
	// PPU A12 rising edge MMC3 counts.
	ClockScanline()
}

// InitNES attaches both address spaces and resets the mapper.
func InitNES(m NESMapper, cpu, ppu *memory.AddressSpace) {
	m.AttachPPU(ppu)
	m.Init(cpu)
}

const (
	prgPage = 0x80
	chr1K   = 0x400
	chr4K   = 0x1000
	chr8K   = 0x2000
)

// NewNES creates the mapper for an iNES mapper number.
func NewNES(number int, cfg Config) (NESMapper, error) {
	switch number {
	case 0:
		return &nrom{nesBase: newNESBase("nrom", cfg)}, nil
	case 1:
		return &mmc1{nesBase: newNESBase("mmc1", cfg)}, nil
	case 2:
		return &uxrom{nesBase: newNESBase("uxrom", cfg)}, nil
	case 3:
		return &cnrom{nesBase: newNESBase("cnrom", cfg)}, nil
	case 4:
		return &mmc3{nesBase: newNESBase("mmc3", cfg)}, nil
	case 7:
		return &axrom{nesBase: newNESBase("axrom", cfg)}, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedMapper, "iNES mapper %d", number)
}

type nesBase struct {
	base
	ppu       *memory.AddressSpace
	chr       *memory.Region
	chrRAM    bool
	vram      *memory.Region
	header    Mirroring
	mirroring Mirroring
	prg16     int
	prg8      int
}

func newNESBase(name string, cfg Config) nesBase {
	if cfg.CartRAMSize == 0 {
		cfg.CartRAMSize = bank8K
	}
	b := nesBase{base: newBase(name, cfg), header: cfg.Mirroring, vram: cfg.VRAM}
	if len(cfg.CHR) == 0 {
		b.chr = memory.NewRegion(name+".chrram", chr8K)
		b.chrRAM = true
	} else {
		b.chr = memory.NewRegionFrom(name+".chr", cfg.CHR)
	}
	if b.vram == nil {
		b.vram = memory.NewRegion(name+".ciram", 0x800)
	}
	b.prg16 = bankCount(len(cfg.ROM), bank16K)
	b.prg8 = bankCount(len(cfg.ROM), bank8K)
	return b
}

func (b *nesBase) AttachPPU(ppu *memory.AddressSpace) { b.ppu = ppu }
func (b *nesBase) Mirroring() Mirroring               { return b.mirroring }
func (b *nesBase) IRQ() bool                          { return false }
func (b *nesBase) ClockScanline()                     {}

func (b *nesBase) mapPRGRAM(enabled bool) {
	if enabled {
		b.space.Map(0x60, 0x20, b.cartRAM, 0)
		return
	}
	b.space.UnmapRead(0x60, 0x20)
	b.space.UnmapWrite(0x60, 0x20)
}

// mapPRG16 shows 16 KB bank n at $8000 (slot 0) or $C000 (slot 1).
func (b *nesBase) mapPRG16(slot, n int) {
	b.mapROM(prgPage+slot*pages16, pages16, bankIndex(n, b.prg16)*bank16K)
}

// mapPRG8 shows 8 KB bank n in slot 0-3 of $8000-$FFFF.
func (b *nesBase) mapPRG8(slot, n int) {
	b.mapROM(prgPage+slot*pages8K, pages8K, bankIndex(n, b.prg8)*bank8K)
}

// mapCHR shows size bytes of CHR bank n (in size units) at PPU address at.
func (b *nesBase) mapCHR(at, size, n int) {
	if b.ppu == nil {
		return
	}
	banks := bankCount(b.chr.Len(), size)
	page := at / memory.PageSize
	count := size / memory.PageSize
	off := bankIndex(n, banks) * size
	if b.chrRAM {
		b.ppu.Map(page, count, b.chr, off)
		return
	}
	b.ppu.MapRead(page, count, b.chr, off)
	b.ppu.UnmapWrite(page, count)
}

// setMirroring maps $2000-$2FFF and its $3000 mirror onto CIRAM.
func (b *nesBase) setMirroring(m Mirroring) {
	if m == MirrorFourScreen && b.vram.Len() < 0x1000 {
		m = MirrorVertical
	}
	b.mirroring = m
	if b.ppu == nil {
		return
	}
	for q, nt := range nametableLayout[m] {
		b.ppu.Map(0x20+q*4, 4, b.vram, nt*chr1K)
		b.ppu.Map(0x30+q*4, 4, b.vram, nt*chr1K)
	}
}

func (b *nesBase) saveCHR(w *savestate.Writer) {
	if b.chrRAM {
		w.Bytes32(b.chr.Bytes())
	}
}

func (b *nesBase) loadCHR(d *savestate.Decoder) {
	if b.chrRAM {
		d.Bytes32(b.chr.Bytes())
	}
}

// nrom has no paging. 16 KB images mirror into $C000.
type nrom struct {
	nesBase
}

func (m *nrom) Init(space *memory.AddressSpace) {
	m.space = space
	m.Reset()
}

func (m *nrom) Reset() {
	m.mapPRGRAM(true)
	m.mapROM(prgPage, 0x80, 0)
	m.mapCHR(0, chr8K, 0)
	m.setMirroring(m.header)
}

func (m *nrom) Write(addr uint16, v byte)     { m.space.Write(addr, v) }
func (m *nrom) SaveState(w *savestate.Writer) { m.saveCHR(w) }

func (m *nrom) LoadState(d *savestate.Decoder) error {
	m.loadCHR(d)
	return d.Err()
}

// uxrom switches 16 KB at $8000 and fixes the last bank at $C000.
type uxrom struct {
	nesBase
	sel byte
}

func (m *uxrom) Init(space *memory.AddressSpace) {
	m.space = space
	m.Reset()
}

func (m *uxrom) Reset() {
	m.sel = 0
	m.mapPRGRAM(true)
	m.mapCHR(0, chr8K, 0)
	m.setMirroring(m.header)
	m.rebuild()
}

func (m *uxrom) rebuild() {
	m.mapPRG16(0, int(m.sel))
	m.mapPRG16(1, m.prg16-1)
}

func (m *uxrom) Write(addr uint16, v byte) {
	m.space.Write(addr, v)
	if addr >= 0x8000 {
		m.sel = v
		m.rebuild()
	}
}

func (m *uxrom) SaveState(w *savestate.Writer) {
	w.U8(m.sel)
	m.saveCHR(w)
}

func (m *uxrom) LoadState(d *savestate.Decoder) error {
	m.sel = d.U8()
	m.loadCHR(d)
	if err := d.Err(); err != nil {
		return err
	}
	m.rebuild()
	return nil
}

// cnrom switches the whole 8 KB of CHR.
type cnrom struct {
	nesBase
	sel byte
}

func (m *cnrom) Init(space *memory.AddressSpace) {
	m.space = space
	m.Reset()
}

func (m *cnrom) Reset() {
	m.sel = 0
	m.mapPRGRAM(true)
	m.mapROM(prgPage, 0x80, 0)
	m.setMirroring(m.header)
	m.mapCHR(0, chr8K, 0)
}

func (m *cnrom) Write(addr uint16, v byte) {
	m.space.Write(addr, v)
	if addr >= 0x8000 {
		m.sel = v
		m.mapCHR(0, chr8K, int(v))
	}
}

func (m *cnrom) SaveState(w *savestate.Writer) {
	w.U8(m.sel)
	m.saveCHR(w)
}

func (m *cnrom) LoadState(d *savestate.Decoder) error {
	m.sel = d.U8()
	m.loadCHR(d)
	if err := d.Err(); err != nil {
		return err
	}
	m.mapCHR(0, chr8K, int(m.sel))
	return nil
}

// axrom switches 32 KB of PRG and selects a single-screen nametable.
type axrom struct {
	nesBase
	sel byte
}

func (m *axrom) Init(space *memory.AddressSpace) {
	m.space = space
	m.Reset()
}

func (m *axrom) Reset() {
	m.sel = 0
	m.mapPRGRAM(true)
	m.mapCHR(0, chr8K, 0)
	m.rebuild()
}

func (m *axrom) rebuild() {
	banks := bankCount(m.rom.Len(), 0x8000)
	m.mapROM(prgPage, 0x80, bankIndex(int(m.sel&0x07), banks)*0x8000)
	if m.sel&0x10 != 0 {
		m.setMirroring(MirrorSingleHigh)
	} else {
		m.setMirroring(MirrorSingleLow)
	}
}

func (m *axrom) Write(addr uint16, v byte) {
	m.space.Write(addr, v)
	if addr >= 0x8000 {
		m.sel = v
		m.rebuild()
	}
}

func (m *axrom) SaveState(w *savestate.Writer) {
	w.U8(m.sel)
	m.saveCHR(w)
}

func (m *axrom) LoadState(d *savestate.Decoder) error {
	m.sel = d.U8()
	m.loadCHR(d)
	if err := d.Err(); err != nil {
		return err
	}
	m.rebuild()
	return nil
}
