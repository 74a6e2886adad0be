package chip8

import (
	"testing"

	"github.com/user-none/em8bit/emu/savestate"
)

type testBus struct {
	mem [MemorySize]byte
}

func (b *testBus) Read(addr uint16) byte     { return b.mem[addr&(MemorySize-1)] }
func (b *testBus) Write(addr uint16, v byte) { b.mem[addr&(MemorySize-1)] = v }

func makeTestCPU(q Quirks, prog ...uint16) (*CPU, *testBus) {
	bus := &testBus{}
	for i, op := range prog {
		bus.mem[ProgramStart+2*i] = byte(op >> 8)
		bus.mem[ProgramStart+2*i+1] = byte(op)
	}
	return New(bus, q), bus
}

func TestChip8_ResetLoadsFont(t *testing.T) {
	c, bus := makeTestCPU(QuirksModern)
	if c.PC != ProgramStart {
		t.Errorf("expected PC=%03X, got %03X", ProgramStart, c.PC)
	}
	for i, b := range Font {
		if bus.mem[FontAddr+i] != b {
			t.Fatalf("font byte %d: expected %02X, got %02X", i, b, bus.mem[FontAddr+i])
		}
	}
}

func TestChip8_OneCyclePerInstruction(t *testing.T) {
	c, _ := makeTestCPU(QuirksModern, 0x6001, 0x7001, 0x7001)
	if got := c.Execute(3); got != 3 {
		t.Errorf("expected 3 cycles, got %d", got)
	}
	if c.V[0] != 3 {
		t.Errorf("expected V0=3, got %d", c.V[0])
	}
}

func TestChip8_CallReturn(t *testing.T) {
	c, _ := makeTestCPU(QuirksModern, 0x2206, 0x0000, 0x0000, 0x00EE)
	c.Step()
	if c.PC != 0x206 || c.SP != 1 {
		t.Fatalf("CALL: PC=%03X SP=%d", c.PC, c.SP)
	}
	c.Step()
	if c.PC != 0x202 || c.SP != 0 {
		t.Errorf("RET: PC=%03X SP=%d", c.PC, c.SP)
	}
}

func TestChip8_SkipInstructions(t *testing.T) {
	c, _ := makeTestCPU(QuirksModern, 0x3005, 0x0000, 0x4005, 0x0000)
	c.V[0] = 5
	c.Step()
	if c.PC != 0x204 {
		t.Errorf("SE Vx,NN: expected skip to 204, got %03X", c.PC)
	}
	c.Step()
	if c.PC != 0x206 {
		t.Errorf("SNE Vx,NN: expected no skip, got %03X", c.PC)
	}
}

func TestChip8_ArithmeticFlags(t *testing.T) {
	tests := []struct {
		name     string
		op       uint16
		x, y     byte
		want, vf byte
	}{
		{"ADD carry", 0x8014, 0xFF, 0x02, 0x01, 1},
		{"ADD no carry", 0x8014, 0x10, 0x02, 0x12, 0},
		{"SUB no borrow", 0x8015, 0x05, 0x03, 0x02, 1},
		{"SUB borrow", 0x8015, 0x03, 0x05, 0xFE, 0},
		{"SUBN", 0x8017, 0x03, 0x05, 0x02, 1},
		{"SHR", 0x8016, 0x05, 0x00, 0x02, 1},
		{"SHL", 0x801E, 0x81, 0x00, 0x02, 1},
	}
	for _, tt := range tests {
		c, _ := makeTestCPU(QuirksModern, tt.op)
		c.V[0], c.V[1] = tt.x, tt.y
		c.Step()
		if c.V[0] != tt.want || c.V[0xF] != tt.vf {
			t.Errorf("%s: expected V0=%02X VF=%d, got V0=%02X VF=%d", tt.name, tt.want, tt.vf, c.V[0], c.V[0xF])
		}
	}
}

func TestChip8_ShiftQuirk(t *testing.T) {
	c, _ := makeTestCPU(QuirksCOSMAC, 0x8016)
	c.V[0], c.V[1] = 0xFF, 0x04
	c.Step()
	if c.V[0] != 0x02 || c.V[0xF] != 0 {
		t.Errorf("COSMAC shift must use VY: V0=%02X VF=%d", c.V[0], c.V[0xF])
	}
}

func TestChip8_LogicResetsVF(t *testing.T) {
	c, _ := makeTestCPU(QuirksCOSMAC, 0x8011)
	c.V[0xF] = 1
	c.Step()
	if c.V[0xF] != 0 {
		t.Errorf("expected VF cleared by OR, got %d", c.V[0xF])
	}
	c, _ = makeTestCPU(QuirksModern, 0x8011)
	c.V[0xF] = 1
	c.Step()
	if c.V[0xF] != 1 {
		t.Errorf("modern OR must keep VF, got %d", c.V[0xF])
	}
}

func TestChip8_LoadStoreIncrementsI(t *testing.T) {
	c, bus := makeTestCPU(QuirksCOSMAC, 0xA300, 0xF255)
	c.V[0], c.V[1], c.V[2] = 1, 2, 3
	c.Execute(2)
	if bus.mem[0x300] != 1 || bus.mem[0x302] != 3 {
		t.Errorf("FX55 stored %v", bus.mem[0x300:0x303])
	}
	if c.I != 0x303 {
		t.Errorf("expected I=303, got %03X", c.I)
	}
	c, _ = makeTestCPU(QuirksModern, 0xA300, 0xF255)
	c.Execute(2)
	if c.I != 0x300 {
		t.Errorf("modern FX55 must leave I, got %03X", c.I)
	}
}

func TestChip8_JumpQuirk(t *testing.T) {
	c, _ := makeTestCPU(QuirksModern, 0xB300)
	c.V[0], c.V[3] = 0x10, 0x20
	c.Step()
	if c.PC != 0x310 {
		t.Errorf("BNNN: expected 310, got %03X", c.PC)
	}
	c, _ = makeTestCPU(Quirks{JumpUsesVX: true}, 0xB300)
	c.V[0], c.V[3] = 0x10, 0x20
	c.Step()
	if c.PC != 0x320 {
		t.Errorf("BXNN: expected 320, got %03X", c.PC)
	}
}

func TestChip8_BCD(t *testing.T) {
	c, bus := makeTestCPU(QuirksModern, 0xA400, 0xF033)
	c.V[0] = 234
	c.Execute(2)
	if bus.mem[0x400] != 2 || bus.mem[0x401] != 3 || bus.mem[0x402] != 4 {
		t.Errorf("BCD: got %v", bus.mem[0x400:0x403])
	}
}

func TestChip8_DrawCollision(t *testing.T) {
	// Draw the "0" glyph twice at the same position.
	c, _ := makeTestCPU(QuirksModern, 0xF029, 0xD015, 0xD015)
	c.Step()
	c.Step()
	if !c.Pixel(0, 0) || c.Pixel(4, 0) {
		t.Fatalf("glyph not drawn as expected")
	}
	if c.V[0xF] != 0 {
		t.Errorf("first draw must not collide")
	}
	c.Step()
	if c.Pixel(0, 0) || c.V[0xF] != 1 {
		t.Errorf("second draw must erase and report collision, VF=%d", c.V[0xF])
	}
	if !c.TakeDirty() {
		t.Error("expected dirty display")
	}
}

func TestChip8_DrawClipAndWrap(t *testing.T) {
	c, _ := makeTestCPU(QuirksModern, 0xF229, 0xD015)
	c.V[0], c.V[1] = 62, 0
	c.Execute(2)
	if c.Pixel(0, 0) {
		t.Error("clipped sprite wrapped around")
	}
	if !c.Pixel(62, 0) || !c.Pixel(63, 0) {
		t.Error("visible part of sprite missing")
	}

	c, _ = makeTestCPU(Quirks{}, 0xF229, 0xD015)
	c.V[0], c.V[1] = 62, 0
	c.Execute(2)
	if !c.Pixel(0, 0) {
		t.Error("wrapping sprite did not wrap")
	}
}

func TestChip8_WaitForKey(t *testing.T) {
	c, _ := makeTestCPU(QuirksModern, 0xF30A, 0x0000)
	c.Execute(5)
	if c.PC != 0x200 || !c.Waiting() {
		t.Fatalf("expected key wait to block, PC=%03X", c.PC)
	}
	c.SetKeys(1 << 7)
	c.Execute(2)
	if c.PC != 0x200 {
		t.Fatalf("wait must hold until release, PC=%03X", c.PC)
	}
	c.SetKeys(0)
	c.Step()
	if c.V[3] != 7 || c.PC != 0x202 || c.Waiting() {
		t.Errorf("expected V3=7 PC=202, got V3=%d PC=%03X", c.V[3], c.PC)
	}
}

func TestChip8_Timers(t *testing.T) {
	c, _ := makeTestCPU(QuirksModern, 0xF015, 0xF118, 0xF207)
	c.V[0], c.V[1] = 2, 1
	c.Execute(2)
	if !c.Sounding() {
		t.Error("expected beeper on")
	}
	c.TickTimers()
	if c.Sounding() || c.DT != 1 {
		t.Errorf("after tick: ST=%d DT=%d", c.ST, c.DT)
	}
	c.Step()
	if c.V[2] != 1 {
		t.Errorf("FX07: expected 1, got %d", c.V[2])
	}
}

func TestChip8_UnknownOpcodeIsNoOp(t *testing.T) {
	c, _ := makeTestCPU(QuirksModern, 0xE0FF, 0xF0FF, 0x5121)
	c.Execute(3)
	if c.PC != 0x206 {
		t.Errorf("expected unknown opcodes to advance, PC=%03X", c.PC)
	}
}

func TestChip8_SaveStateRoundTrip(t *testing.T) {
	c, bus := makeTestCPU(QuirksModern, 0xC0FF, 0xC1FF, 0xF029, 0xD015, 0x1208)
	c.Execute(3)

	w := savestate.NewWriter()
	w.Begin("CPU", StateVersion, 0)
	c.SaveState(w)
	w.End()
	rec, err := savestate.Parse(w.Bytes())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	other := New(bus, QuirksModern)
	d := rec.Decoder()
	if err := other.LoadState(d); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := d.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}

	c.Execute(10)
	other.Execute(10)
	if c.V != other.V || c.PC != other.PC || c.I != other.I || c.display != other.display {
		t.Errorf("state diverged after restore")
	}
}
