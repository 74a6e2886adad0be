package nes

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"

	"github.com/user-none/em8bit/emu/cart"
	"github.com/user-none/em8bit/emu/savestate"
	"github.com/user-none/em8bit/emu/system"
)

// The reset code enables vblank NMI and spins. The NMI handler counts at
// $0010 and acknowledges through $2002.
var resetCode = []byte{
	0x78,             // SEI
	0xA2, 0xFF,       // LDX #$FF
	0x9A,             // TXS
	0xA9, 0x80,       // LDA #$80
	0x8D, 0x00, 0x20, // STA $2000
	0x4C, 0x09, 0x80, // JMP $8009
}

var nmiCode = []byte{
	0xE6, 0x10,       // INC $10
	0xAD, 0x02, 0x20, // LDA $2002
	0x40,             // RTI
}

func makeINES(mapperNumber byte, flags6 byte, prgBanks int) []byte {
	prg := make([]byte, prgBanks*0x4000)
	copy(prg, resetCode)
	copy(prg[0x100:], nmiCode)
	last := len(prg) - 0x4000
	// Vectors in the last bank: NMI $8100, reset $8000, IRQ $8000.
	copy(prg[last+0x3FFA:], []byte{0x00, 0x81, 0x00, 0x80, 0x00, 0x80})
	if last != 0 {
		copy(prg[last:], resetCode)
		copy(prg[last+0x100:], nmiCode)
	}

	hdr := []byte{'N', 'E', 'S', 0x1A, byte(prgBanks), 1, flags6 | mapperNumber<<4, mapperNumber & 0xF0, 0, 0, 0, 0, 0, 0, 0, 0}
	data := append(hdr, prg...)
	return append(data, make([]byte, 0x2000)...)
}

func makeTestEmulator(t *testing.T, data []byte) *Emulator {
	t.Helper()
	c, err := cart.Load(cart.NES, data, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	e, err := New(c, system.RegionNTSC)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return e
}

func TestNES_RejectsUnknownMapper(t *testing.T) {
	c, err := cart.Load(cart.NES, makeINES(0x0F, 0x01, 1), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(c, system.RegionNTSC); err == nil {
		t.Error("expected an error for an unsupported mapper")
	}
}

func TestNES_ResetVector(t *testing.T) {
	e := makeTestEmulator(t, makeINES(0, 0x01, 1))
	if e.cpu.PC != 0x8000 {
		t.Errorf("reset vector: expected $8000, got $%04X", e.cpu.PC)
	}
}

func TestNES_VBlankNMI(t *testing.T) {
	e := makeTestEmulator(t, makeINES(0, 0x01, 1))
	for i := 0; i < 5; i++ {
		e.RunFrame()
	}
	if got := e.ram.Bytes()[0x10]; got < 4 || got > 5 {
		t.Errorf("expected 4-5 NMIs, got %d", got)
	}
	if got := e.GetActiveHeight(); got != 240 {
		t.Errorf("active height: expected 240, got %d", got)
	}
}

func TestNES_RAMMirror(t *testing.T) {
	e := makeTestEmulator(t, makeINES(0, 0x01, 1))
	e.write(0x0005, 0x42)
	for _, addr := range []uint16{0x0805, 0x1005, 0x1805} {
		if got := e.read(addr); got != 0x42 {
			t.Errorf("$%04X: expected 0x42, got 0x%02X", addr, got)
		}
	}
}

func TestNES_Controller(t *testing.T) {
	e := makeTestEmulator(t, makeINES(0, 0x01, 1))
	e.SetInput(0, 1<<ButtonA|1<<system.ButtonStart|1<<3)
	e.write(0x4016, 1)
	e.write(0x4016, 0)

	want := []byte{1, 0, 0, 1, 0, 0, 0, 1, 1, 1}
	for i, w := range want {
		if got := e.read(0x4016) & 0x01; got != w {
			t.Errorf("read %d: expected %d, got %d", i, w, got)
		}
	}
	// Player 2 is idle.
	if got := e.read(0x4017) & 0x01; got != 0 {
		t.Errorf("player 2 first bit: expected 0, got %d", got)
	}
}

func TestNES_ControllerStrobeHeld(t *testing.T) {
	e := makeTestEmulator(t, makeINES(0, 0x01, 1))
	e.write(0x4016, 1)
	e.SetInput(0, 1<<ButtonA)
	for i := 0; i < 3; i++ {
		if got := e.read(0x4016) & 0x01; got != 1 {
			t.Errorf("strobe high should keep returning A, read %d got %d", i, got)
		}
	}
}

func TestNES_OAMDMA(t *testing.T) {
	e := makeTestEmulator(t, makeINES(0, 0x01, 1))
	// The reset sequence is charged on its own.
	if got := e.cpu.Step(); got != 7 {
		t.Fatalf("reset sequence: expected 7 cycles, got %d", got)
	}
	for i := 0; i < 256; i++ {
		e.write(0x0200+uint16(i), byte(i))
	}
	e.write(0x2003, 0)
	e.write(0x4014, 0x02)
	oam := e.ppu.OAM()
	for i := 0; i < 256; i++ {
		if oam[i] != byte(i) {
			t.Fatalf("OAM[%d]: expected 0x%02X, got 0x%02X", i, i, oam[i])
		}
	}
	if got := e.cpu.Step(); got != 513 && got != 514 {
		t.Errorf("DMA stall: expected 513 or 514 cycles, got %d", got)
	}
}

func TestNES_FrameCounterIRQ(t *testing.T) {
	e := makeTestEmulator(t, makeINES(0, 0x01, 1))
	e.write(0x4017, 0x00)
	e.EndLine(0, frameIRQNTSC-1)
	if e.io.frameIRQ {
		t.Fatal("frame IRQ raised early")
	}
	e.EndLine(1, 1)
	if !e.io.frameIRQ {
		t.Fatal("frame IRQ not raised")
	}
	if got := e.read(0x4015); got&0x40 == 0 {
		t.Errorf("$4015 should report the frame IRQ, got 0x%02X", got)
	}
	if e.io.frameIRQ {
		t.Error("reading $4015 should acknowledge the frame IRQ")
	}

	e.write(0x4017, 0x40)
	e.EndLine(2, frameIRQNTSC*2)
	if e.io.frameIRQ {
		t.Error("inhibited frame counter raised an IRQ")
	}
}

func TestNES_MMC3ScanlineIRQ(t *testing.T) {
	e := makeTestEmulator(t, makeINES(4, 0x00, 2))
	e.write(0xC000, 2) // latch
	e.write(0xC001, 0) // reload
	e.write(0xE001, 0) // enable
	e.write(0x2001, 0x18)

	e.ExecuteLine(0, true)
	e.ExecuteLine(1, true)
	if e.mapper.IRQ() {
		t.Fatal("IRQ raised before the counter reached zero")
	}
	e.ExecuteLine(2, true)
	if !e.mapper.IRQ() {
		t.Error("IRQ not raised after the counter reached zero")
	}
}

func TestNES_AudioIsSilent(t *testing.T) {
	e := makeTestEmulator(t, makeINES(0, 0x01, 1))
	e.RunFrame()
	samples := e.GetAudioSamples()
	if len(samples) != system.SamplesPerFrame(60)*2 {
		t.Fatalf("expected %d samples, got %d", system.SamplesPerFrame(60)*2, len(samples))
	}
	for i, s := range samples {
		if s != 0 {
			t.Fatalf("sample %d: expected silence, got %d", i, s)
		}
	}
}

func TestNES_BatterySRAM(t *testing.T) {
	e := makeTestEmulator(t, makeINES(0, 0x03, 1))
	if !e.HasSRAM() {
		t.Fatal("battery flag should expose SRAM")
	}
	e.write(0x6000, 0x99)
	if got := e.GetSRAM()[0]; got != 0x99 {
		t.Errorf("PRG RAM: expected 0x99, got 0x%02X", got)
	}

	plain := makeTestEmulator(t, makeINES(0, 0x01, 1))
	if plain.HasSRAM() {
		t.Error("cart without battery should not report SRAM")
	}
}

func TestNES_SetRegion(t *testing.T) {
	e := makeTestEmulator(t, makeINES(0, 0x01, 1))
	e.SetRegion(system.RegionPAL)
	if got := e.GetTiming(); got.FPS != 50 || got.Scanlines != 312 {
		t.Errorf("PAL timing: %+v", got)
	}
	if got := e.ppu.PreRenderLine(); got != 311 {
		t.Errorf("PAL pre-render line: expected 311, got %d", got)
	}
}

func TestNES_SaveStateRoundTrip(t *testing.T) {
	e := makeTestEmulator(t, makeINES(0, 0x01, 1))
	e.RunFrame()
	e.RunFrame()
	state, err := e.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	e.RunFrame()
	if err := e.Deserialize(state); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	again, _ := e.Serialize()
	if !bytes.Equal(state, again) {
		t.Error("state after load differs from the saved state")
	}
}


// A state saved part way through a frame, loaded into a new session,
// runs on in step with the original.
func TestNES_SaveStateMidFrameIntoFreshSession(t *testing.T) {
	a := makeTestEmulator(t, makeINES(0, 0x01, 1))
	// White backdrop while rendering is off.
	a.write(0x2006, 0x3F)
	a.write(0x2006, 0x00)
	a.write(0x2007, 0x30)
	a.write(0x2006, 0x00)
	a.write(0x2006, 0x00)
	a.RunFrame()
	for i := 0; i < 90; i++ {
		a.StepLine()
	}
	a.StepInstruction()
	state, err := a.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	b := makeTestEmulator(t, makeINES(0, 0x01, 1))
	if err := b.Deserialize(state); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if !bytes.Equal(a.GetFramebuffer(), b.GetFramebuffer()) {
		t.Fatal("frame buffer not restored")
	}
	for i := 0; i < 10; i++ {
		a.StepLine()
		b.StepLine()
		sa, _ := a.Serialize()
		sb, _ := b.Serialize()
		if !bytes.Equal(sa, sb) {
			t.Fatalf("line %d: state diverged", i)
		}
		if !bytes.Equal(a.GetFramebuffer(), b.GetFramebuffer()) {
			t.Fatalf("line %d: frame buffer diverged", i)
		}
		if a.cpu.PC != b.cpu.PC {
			t.Fatalf("line %d: PC 0x%04X vs 0x%04X", i, a.cpu.PC, b.cpu.PC)
		}
	}
	a.RunFrame()
	b.RunFrame()
	if !bytes.Equal(a.GetFramebuffer(), b.GetFramebuffer()) {
		t.Error("frame diverged")
	}
	if a.ReadRegion(1)[0x10] != b.ReadRegion(1)[0x10] {
		t.Error("NMI count diverged")
	}
}

func TestNES_SaveStateWrongROM(t *testing.T) {
	e := makeTestEmulator(t, makeINES(0, 0x01, 1))
	state, _ := e.Serialize()
	data := makeINES(0, 0x01, 1)
	data[16+0x2000] = 0xEA
	other := makeTestEmulator(t, data)
	if err := other.Deserialize(state); !errors.Is(err, savestate.ErrWrongROM) {
		t.Errorf("expected ErrWrongROM, got %v", err)
	}
}
