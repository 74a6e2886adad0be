package ppu

import (
	"testing"

	"github.com/user-none/em8bit/emu/memory"
	"github.com/user-none/em8bit/emu/savestate"
)

type testBus struct {
	space *memory.AddressSpace
	chr   *memory.Region
	nt    *memory.Region
}

// makeTestPPU builds a PPU over 8 KB of CHR RAM and 2 KB of nametable RAM
// in vertical mirroring.
func makeTestPPU() (*PPU, *testBus) {
	b := &testBus{
		space: memory.New("ppu"),
		chr:   memory.NewRegion("chr", 0x2000),
		nt:    memory.NewRegion("ciram", 0x800),
	}
	b.space.Map(0x00, 0x20, b.chr, 0)
	b.space.Map(0x20, 0x20, b.nt, 0)
	return New(b.space, LinesNTSC), b
}

func setVRAMAddr(p *PPU, addr uint16) {
	p.WriteRegister(0x2006, byte(addr>>8))
	p.WriteRegister(0x2006, byte(addr))
}

func TestPPU_DataReadBuffer(t *testing.T) {
	p, _ := makeTestPPU()
	setVRAMAddr(p, 0x2100)
	p.WriteRegister(0x2007, 0xAB)
	p.WriteRegister(0x2007, 0xCD)

	setVRAMAddr(p, 0x2100)
	p.ReadRegister(0x2007) // stale buffer
	if got := p.ReadRegister(0x2007); got != 0xAB {
		t.Errorf("expected 0xAB, got 0x%02X", got)
	}
	if got := p.ReadRegister(0x2007); got != 0xCD {
		t.Errorf("expected 0xCD, got 0x%02X", got)
	}
}

func TestPPU_NametableMirroring(t *testing.T) {
	p, b := makeTestPPU()
	setVRAMAddr(p, 0x2805)
	p.WriteRegister(0x2007, 0x42)
	if b.nt.Bytes()[0x005] != 0x42 {
		t.Error("$2805 should mirror $2005 in vertical mirroring")
	}
	setVRAMAddr(p, 0x3005)
	p.ReadRegister(0x2007)
	if got := p.ReadRegister(0x2007); got != 0x42 {
		t.Errorf("$3005 should mirror $2005, got 0x%02X", got)
	}
}

func TestPPU_PaletteAccess(t *testing.T) {
	p, _ := makeTestPPU()
	setVRAMAddr(p, 0x3F10)
	p.WriteRegister(0x2007, 0x2C)
	if p.palette[0] != 0x2C {
		t.Errorf("$3F10 should mirror $3F00, got 0x%02X", p.palette[0])
	}
	setVRAMAddr(p, 0x3F00)
	if got := p.ReadRegister(0x2007); got&0x3F != 0x2C {
		t.Errorf("palette read should not be buffered, got 0x%02X", got)
	}
}

func TestPPU_ScrollRegisters(t *testing.T) {
	p, _ := makeTestPPU()
	p.WriteRegister(0x2000, 0x00)
	p.WriteRegister(0x2005, 0x7D)
	if p.x != 5 || p.t != 0x000F || !p.w {
		t.Errorf("after first $2005: t=0x%04X x=%d w=%v", p.t, p.x, p.w)
	}
	p.WriteRegister(0x2005, 0x5E)
	if p.t != 0x616F || p.w {
		t.Errorf("after second $2005: t=0x%04X w=%v", p.t, p.w)
	}
	p.WriteRegister(0x2006, 0x3D)
	p.WriteRegister(0x2006, 0xF0)
	if p.v != 0x3DF0 || p.v != p.t {
		t.Errorf("after $2006 pair: v=0x%04X t=0x%04X", p.v, p.t)
	}
}

func TestPPU_StatusRead(t *testing.T) {
	p, _ := makeTestPPU()
	p.WriteRegister(0x2005, 0x10) // leaves w set
	p.ExecuteLine(VBlankLine, false)
	if s := p.ReadRegister(0x2002); s&statusVBlank == 0 {
		t.Error("vblank should be set at line 241")
	}
	if p.w {
		t.Error("status read should clear w")
	}
	if s := p.ReadRegister(0x2002); s&statusVBlank != 0 {
		t.Error("status read should clear vblank")
	}
}

func TestPPU_NMI(t *testing.T) {
	p, _ := makeTestPPU()
	if ev := p.ExecuteLine(VBlankLine, false); ev&EventNMI != 0 {
		t.Error("NMI should not fire while disabled")
	}
	// Enabling NMI during vblank raises an edge immediately.
	p.WriteRegister(0x2000, 0x80)
	if !p.TakeNMI() {
		t.Error("expected NMI edge from $2000 write")
	}
	if p.TakeNMI() {
		t.Error("TakeNMI should clear the edge")
	}
	p.ExecuteLine(p.PreRenderLine(), false)
	if ev := p.ExecuteLine(VBlankLine, false); ev&(EventVBlank|EventNMI) != EventVBlank|EventNMI {
		t.Errorf("expected vblank and NMI, got %b", ev)
	}
}

func fillTestScene(p *PPU, b *testBus) {
	chr := b.chr.Bytes()
	for r := 0; r < 8; r++ {
		chr[16+r] = 0xFF // tile 1, low plane
	}
	b.nt.Fill(0x01)
	p.palette[0] = 0x0F
	p.palette[5] = 0x30
	p.palette[0x11] = 0x16
}

func TestPPU_BackgroundRender(t *testing.T) {
	p, b := makeTestPPU()
	fillTestScene(p, b)
	p.WriteRegister(0x2001, maskBG|maskBGLeft)
	p.ExecuteLine(0, false)
	row := p.Frame().Row(0)
	// Attribute byte 1 selects palette 1 for the top-left quadrant.
	if row[0] != hostPalette[0x30] {
		t.Errorf("pixel 0: got %08X, expected %08X", row[0], hostPalette[0x30])
	}

	p.WriteRegister(0x2001, maskBG)
	p.ExecuteLine(1, false)
	if row := p.Frame().Row(1); row[0] != hostPalette[0x0F] {
		t.Error("left column should be clipped")
	}
}

func TestPPU_SpriteZeroHit(t *testing.T) {
	p, b := makeTestPPU()
	fillTestScene(p, b)
	p.oam[0], p.oam[1], p.oam[2], p.oam[3] = 9, 1, 0, 20
	for i := 1; i < 64; i++ {
		p.oam[i*4] = 0xEF
	}
	p.WriteRegister(0x2001, maskBG|maskSprites|maskBGLeft|maskSpriteLeft)

	p.ExecuteLine(9, false)
	if p.status&statusSpriteZero != 0 {
		t.Error("sprite 0 hit before the sprite's first line")
	}
	p.ExecuteLine(10, false)
	if p.status&statusSpriteZero == 0 {
		t.Error("expected sprite 0 hit on line 10")
	}
	if row := p.Frame().Row(10); row[20] != hostPalette[0x16] {
		t.Errorf("sprite pixel: got %08X", row[20])
	}
	p.ExecuteLine(p.PreRenderLine(), false)
	if p.status&statusSpriteZero != 0 {
		t.Error("pre-render line should clear sprite 0 hit")
	}
}

func TestPPU_SpriteOverflow(t *testing.T) {
	p, b := makeTestPPU()
	fillTestScene(p, b)
	for i := 0; i < 64; i++ {
		p.oam[i*4] = 0xEF
	}
	for i := 0; i < 9; i++ {
		p.oam[i*4] = 30
		p.oam[i*4+3] = byte(i * 10)
	}
	p.WriteRegister(0x2001, maskSprites)
	p.ExecuteLine(31, true)
	if p.status&statusOverflow == 0 {
		t.Error("expected overflow with nine sprites on a line")
	}
}

func TestPPU_OAMDMA(t *testing.T) {
	p, _ := makeTestPPU()
	page := make([]byte, 256)
	for i := range page {
		page[i] = byte(i)
	}
	p.WriteRegister(0x2003, 0x10)
	p.WriteOAM(page)
	if p.oam[0x10] != 0 || p.oam[0x0F] != 0xFF {
		t.Errorf("DMA should start at OAMADDR, got %02X %02X", p.oam[0x10], p.oam[0x0F])
	}
}

func TestPPU_StateRoundTrip(t *testing.T) {
	p, _ := makeTestPPU()
	p.WriteRegister(0x2000, 0x90)
	p.WriteRegister(0x2005, 0x12)
	p.palette[3] = 0x21
	p.oam[7] = 0x77

	w := savestate.NewWriter()
	w.Begin("PPU ", StateVersion, 0)
	p.SaveState(w)
	w.End()
	rec, err := savestate.Parse(w.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	r, _ := makeTestPPU()
	d := rec.Decoder()
	if err := r.LoadState(d); err != nil {
		t.Fatal(err)
	}
	if err := d.Finish(); err != nil {
		t.Fatal(err)
	}
	if r.ctrl != 0x90 || r.t != p.t || r.x != p.x || !r.w || r.palette[3] != 0x21 || r.oam[7] != 0x77 {
		t.Error("state not restored")
	}
}
