package sms

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"

	"github.com/user-none/em8bit/emu/cart"
	"github.com/user-none/em8bit/emu/savestate"
	"github.com/user-none/em8bit/emu/system"
)

// spinProgram sets up IM 1, enables the display and frame interrupt and
// then counts in a loop. The IM 1 handler acknowledges the VDP and
// increments $C000.
var spinProgram = []byte{
	0xF3,             // DI
	0xED, 0x56,       // IM 1
	0x31, 0xF0, 0xDF, // LD SP,DFF0h
	0x3E, 0xE0,       // LD A,E0h
	0xD3, 0xBF,       // OUT (BFh),A
	0x3E, 0x81,       // LD A,81h
	0xD3, 0xBF,       // OUT (BFh),A
	0xFB,             // EI
	0x04,             // loop: INC B
	0x18, 0xFD,       // JR loop
}

var irqHandler = []byte{
	0xF5,             // PUSH AF
	0xDB, 0xBF,       // IN A,(BFh)
	0x3A, 0x00, 0xC0, // LD A,(C000h)
	0x3C,             // INC A
	0x32, 0x00, 0xC0, // LD (C000h),A
	0xF1,             // POP AF
	0xFB,             // EI
	0xC9,             // RET
}

func makeTestROM(size int) []byte {
	rom := make([]byte, size)
	for bank := 0; bank < size/0x4000; bank++ {
		rom[bank*0x4000+0x100] = byte(bank)
	}
	copy(rom, spinProgram)
	copy(rom[0x38:], irqHandler)
	return rom
}

func makeTestEmulator(t *testing.T, s cart.System, rom []byte) *Emulator {
	t.Helper()
	c, err := cart.Load(s, rom, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	e, err := New(c, system.RegionNTSC)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return e
}

func TestSMS_RejectsOtherSystems(t *testing.T) {
	c, err := cart.Load(cart.SG1000, make([]byte, 0x8000), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(c, system.RegionNTSC); !errors.Is(err, cart.ErrUnsupportedSystem) {
		t.Errorf("expected ErrUnsupportedSystem, got %v", err)
	}
}

func TestSMS_FrameInterrupts(t *testing.T) {
	e := makeTestEmulator(t, cart.SMS, makeTestROM(0x8000))
	for i := 0; i < 5; i++ {
		e.RunFrame()
	}
	// The first frame may or may not catch the vblank depending on how
	// far the setup got, so allow one short.
	if got := e.ram.Bytes()[0]; got < 4 || got > 5 {
		t.Errorf("expected 4-5 frame interrupts, got %d", got)
	}
	if e.Scheduler().Frames() != 5 {
		t.Errorf("expected 5 frames, got %d", e.Scheduler().Frames())
	}
}

func TestSMS_Framebuffer(t *testing.T) {
	e := makeTestEmulator(t, cart.SMS, makeTestROM(0x8000))
	e.RunFrame()
	if got := e.GetActiveHeight(); got != 192 {
		t.Errorf("active height: expected 192, got %d", got)
	}
	if got := e.GetFramebufferStride(); got != 256*4 {
		t.Errorf("stride: expected %d, got %d", 256*4, got)
	}
	if got := len(e.GetFramebuffer()); got != 256*4*192 {
		t.Errorf("framebuffer: expected %d bytes, got %d", 256*4*192, got)
	}
}

func TestSMS_AudioPerFrame(t *testing.T) {
	e := makeTestEmulator(t, cart.SMS, makeTestROM(0x8000))
	e.RunFrame()
	samples := e.GetAudioSamples()
	want := system.SamplesPerFrame(60) * 2
	if len(samples)%2 != 0 {
		t.Fatalf("samples not stereo: %d", len(samples))
	}
	if len(samples) < want-4 || len(samples) > want+4 {
		t.Errorf("expected about %d samples, got %d", want, len(samples))
	}
}

func TestSMS_GameGearViewport(t *testing.T) {
	e := makeTestEmulator(t, cart.GameGear, makeTestROM(0x8000))
	e.RunFrame()
	if got := e.GetActiveHeight(); got != 144 {
		t.Errorf("active height: expected 144, got %d", got)
	}
	if got := e.GetFramebufferStride(); got != 160*4 {
		t.Errorf("stride: expected %d, got %d", 160*4, got)
	}
}

func TestSMS_MapperPaging(t *testing.T) {
	e := makeTestEmulator(t, cart.SMS, makeTestROM(0x10000))
	b := &bus{e}
	if got := b.Read(0x8100); got != 2 {
		t.Fatalf("slot 2 at reset: expected bank 2, got %d", got)
	}
	b.Write(0xFFFF, 3)
	if got := b.Read(0x8100); got != 3 {
		t.Errorf("slot 2 after select: expected bank 3, got %d", got)
	}
	// The register write also lands in the RAM mirror.
	if got := b.Read(0xDFFF); got != 3 {
		t.Errorf("RAM mirror of $FFFF: expected 3, got %d", got)
	}
}

func TestSMS_PortMirrors(t *testing.T) {
	e := makeTestEmulator(t, cart.SMS, makeTestROM(0x8000))
	// $BD mirrors the VDP control port.
	e.out(0xBD, 0x12)
	e.out(0xBD, 0x87)
	if got := e.vdp.Register(7); got != 0x12 {
		t.Errorf("register 7 via $BD: expected 0x12, got 0x%02X", got)
	}
	// $7F mirrors the PSG and must not touch the VDP.
	e.out(0x7F, 0x9F)
	if got := e.vdp.Register(7); got != 0x12 {
		t.Errorf("PSG write disturbed the VDP: 0x%02X", got)
	}
}

func TestSMS_ControllerPorts(t *testing.T) {
	e := makeTestEmulator(t, cart.SMS, makeTestROM(0x8000))
	if got := e.in(0xDC); got != 0xFF {
		t.Errorf("idle $DC: expected 0xFF, got 0x%02X", got)
	}
	e.SetInput(0, 1<<0|1<<system.Button1)
	e.SetInput(1, 1<<2|1<<system.Button2)
	if got := e.in(0xDC); got != 0xEE {
		t.Errorf("$DC: expected 0xEE, got 0x%02X", got)
	}
	if got := e.in(0xDD) & 0x0F; got != 0x06 {
		t.Errorf("$DD low nibble: expected 0x06, got 0x%02X", got)
	}
	// I/O disabled through $3E reads back open bus.
	e.out(0x3E, 0xAF)
	if got := e.in(0xDC); got != 0xFF {
		t.Errorf("$DC with I/O disabled: expected 0xFF, got 0x%02X", got)
	}
}

func TestSMS_Nationality(t *testing.T) {
	e := makeTestEmulator(t, cart.SMS, makeTestROM(0x8000))
	// Both TH pins as outputs driven low, then high.
	e.out(0x3F, 0x55)
	if got := e.in(0xDD) & 0xC0; got != 0x00 {
		t.Errorf("export TH low: expected 0x00, got 0x%02X", got)
	}
	e.out(0x3F, 0xF5)
	if got := e.in(0xDD) & 0xC0; got != 0xC0 {
		t.Errorf("export TH high: expected 0xC0, got 0x%02X", got)
	}

	e.io.export = false
	if got := e.in(0xDD) & 0xC0; got != 0x00 {
		t.Errorf("Japanese TH high reads inverted: expected 0x00, got 0x%02X", got)
	}
}

func TestSMS_THLatchesHCounter(t *testing.T) {
	e := makeTestEmulator(t, cart.SMS, makeTestROM(0x8000))
	e.out(0x3F, 0x55)
	e.lineStart = e.cpu.Cycles() - 100
	e.out(0x3F, 0xF5)
	first := e.vdp.HCounter()
	e.lineStart = e.cpu.Cycles() - 200
	e.out(0x3F, 0xF5) // no edge
	if got := e.vdp.HCounter(); got != first {
		t.Errorf("H counter changed without a TH edge: 0x%02X -> 0x%02X", first, got)
	}
	e.out(0x3F, 0x55)
	e.out(0x3F, 0xF5)
	if got := e.vdp.HCounter(); got == first {
		t.Error("H counter should latch a new position on the second edge")
	}
}

func TestSMS_PauseIsEdgeTriggered(t *testing.T) {
	e := makeTestEmulator(t, cart.SMS, makeTestROM(0x8000))
	e.cpu.Step()
	e.SetInput(0, 1<<system.ButtonStart)
	e.cpu.Step()
	if e.cpu.PC != 0x0066 {
		t.Fatalf("pause: expected NMI vector, PC=%04X", e.cpu.PC)
	}
	e.cpu.PC = 0x0010
	e.SetInput(0, 1<<system.ButtonStart)
	e.cpu.Step()
	if e.cpu.PC == 0x0066 {
		t.Error("holding pause should not retrigger the NMI")
	}
}

func TestSMS_GameGearStartPort(t *testing.T) {
	e := makeTestEmulator(t, cart.GameGear, makeTestROM(0x8000))
	if got := e.in(0x00) & 0x80; got != 0x80 {
		t.Errorf("start released: expected bit 7 set, got 0x%02X", got)
	}
	e.SetInput(0, 1<<system.ButtonStart)
	if got := e.in(0x00) & 0x80; got != 0 {
		t.Errorf("start pressed: expected bit 7 clear, got 0x%02X", got)
	}
	e.cpu.Step()
	if e.cpu.PC == 0x0066 {
		t.Error("Game Gear start must not raise NMI")
	}
	e.out(0x06, 0x5A)
	if got := e.in(0x06); got != 0x5A {
		t.Errorf("stereo register: expected 0x5A, got 0x%02X", got)
	}
}

func TestSMS_SaveStateRoundTrip(t *testing.T) {
	e := makeTestEmulator(t, cart.SMS, makeTestROM(0x8000))
	for i := 0; i < 3; i++ {
		e.RunFrame()
	}
	state, err := e.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	for i := 0; i < 3; i++ {
		e.RunFrame()
	}
	if err := e.Deserialize(state); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	again, err := e.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(state, again) {
		t.Error("state after load differs from the saved state")
	}

	// Running on from the restored point matches running on from the
	// original.
	e.RunFrame()
	a := append([]byte(nil), e.GetFramebuffer()...)
	ram := e.ReadRegion(1)
	if err := e.Deserialize(state); err != nil {
		t.Fatal(err)
	}
	e.RunFrame()
	if !bytes.Equal(a, e.GetFramebuffer()) || !bytes.Equal(ram, e.ReadRegion(1)) {
		t.Error("emulation diverged after restoring state")
	}
}


// A state saved part way through a frame, loaded into a new session,
// runs on in step with the original.
func TestSMS_SaveStateMidFrameIntoFreshSession(t *testing.T) {
	a := makeTestEmulator(t, cart.SMS, makeTestROM(0x8000))
	// White background so the rows already drawn differ from a new frame.
	a.out(0xBF, 0x00)
	a.out(0xBF, 0xC0)
	a.out(0xBE, 0x3F)
	a.RunFrame()
	a.RunFrame()
	for i := 0; i < 100; i++ {
		a.StepLine()
	}
	for i := 0; i < 5; i++ {
		a.StepInstruction()
	}
	state, err := a.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	b := makeTestEmulator(t, cart.SMS, makeTestROM(0x8000))
	if err := b.Deserialize(state); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if !bytes.Equal(a.GetFramebuffer(), b.GetFramebuffer()) {
		t.Fatal("frame buffer not restored")
	}
	if b.lineStart != a.lineStart {
		t.Errorf("line start: expected %d, got %d", a.lineStart, b.lineStart)
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
	if !equalSamples(a.GetAudioSamples(), b.GetAudioSamples()) {
		t.Errorf("audio diverged: %d vs %d samples", len(a.GetAudioSamples()), len(b.GetAudioSamples()))
	}
	if !bytes.Equal(a.GetFramebuffer(), b.GetFramebuffer()) {
		t.Error("frame diverged")
	}
}

func equalSamples(a, b []int16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSMS_SaveStateWrongROM(t *testing.T) {
	e := makeTestEmulator(t, cart.SMS, makeTestROM(0x8000))
	state, err := e.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	rom := makeTestROM(0x8000)
	rom[0x7000] = 0x55
	other := makeTestEmulator(t, cart.SMS, rom)
	if err := other.Deserialize(state); !errors.Is(err, savestate.ErrWrongROM) {
		t.Errorf("expected ErrWrongROM, got %v", err)
	}
}

func TestSMS_SaveStateCorruptLeavesMachine(t *testing.T) {
	e := makeTestEmulator(t, cart.SMS, makeTestROM(0x8000))
	e.RunFrame()
	before, _ := e.Serialize()
	if err := e.Deserialize(before[:len(before)/2]); err == nil {
		t.Fatal("truncated state should fail")
	}
	after, _ := e.Serialize()
	if !bytes.Equal(before, after) {
		t.Error("failed load modified the machine")
	}
}

func TestSMS_SRAM(t *testing.T) {
	e := makeTestEmulator(t, cart.SMS, makeTestROM(0x8000))
	if !e.HasSRAM() {
		t.Fatal("Sega mapper carts should expose SRAM")
	}
	data := []byte{1, 2, 3, 4}
	e.SetSRAM(data)
	got := e.GetSRAM()
	if !bytes.Equal(got[:4], data) {
		t.Errorf("SRAM: expected %v, got %v", data, got[:4])
	}
	buf := make([]byte, 4)
	if n := e.ReadMemory(0x10000, buf); n != 4 || !bytes.Equal(buf, data) {
		t.Errorf("ReadMemory save RAM: n=%d %v", n, buf)
	}
}

func TestSMS_MapperOption(t *testing.T) {
	e := makeTestEmulator(t, cart.SMS, makeTestROM(0x10000))
	e.SetOption("mapper", "codemasters")
	if got := e.mapper.Name(); got != "codemasters" {
		t.Fatalf("mapper option: expected codemasters, got %s", got)
	}
	e.SetOption("mapper", "auto")
	if got := e.mapper.Name(); got != "sega" {
		t.Errorf("mapper auto: expected sega, got %s", got)
	}
	e.SetOption("mapper", "nonsense")
	if got := e.mapper.Name(); got != "sega" {
		t.Errorf("unknown mapper should be ignored, got %s", got)
	}
}

func TestSMS_SetRegion(t *testing.T) {
	e := makeTestEmulator(t, cart.SMS, makeTestROM(0x8000))
	e.SetRegion(system.RegionPAL)
	if got := e.GetTiming(); got.FPS != 50 || got.Scanlines != 313 {
		t.Errorf("PAL timing: %+v", got)
	}
	e.RunFrame()
	// The PSG is clocked per CPU cycle, so a 313 line PAL frame runs at
	// about 49.7 Hz and yields a few more samples than 48000/50.
	pal := system.SegaPAL
	frameCycles := pal.Line.LineCycles * pal.Line.LinesPerFrame
	want := frameCycles * system.SampleRate / pal.CPUClockHz * 2
	if got := len(e.GetAudioSamples()); got < want-4 || got > want+4 {
		t.Errorf("PAL audio: expected about %d, got %d", want, got)
	}
}
