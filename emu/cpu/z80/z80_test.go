package z80

import "testing"

// testBus is a flat 64KB RAM with a 256-port IO map.
type testBus struct {
	mem   [0x10000]byte
	ports [0x100]byte
	outs  []uint16
}

func (b *testBus) Fetch(addr uint16) uint8        { return b.mem[addr] }
func (b *testBus) Read(addr uint16) uint8         { return b.mem[addr] }
func (b *testBus) Write(addr uint16, v uint8)     { b.mem[addr] = v }
func (b *testBus) In(port uint16) uint8           { return b.ports[port&0xFF] }
func (b *testBus) Out(port uint16, v uint8)       { b.ports[port&0xFF] = v; b.outs = append(b.outs, port) }
func (b *testBus) load(addr uint16, code ...byte) { copy(b.mem[addr:], code) }

func makeTestCPU(code ...byte) (*CPU, *testBus) {
	bus := &testBus{}
	bus.load(0, code...)
	c := New(bus)
	c.SP = 0xF000
	return c, bus
}

func TestZ80_PowerOn(t *testing.T) {
	c, _ := makeTestCPU()
	if c.PC != 0 || c.IFF1 || c.IM != 0 {
		t.Errorf("unexpected power-on state PC=%04X IFF1=%v IM=%d", c.PC, c.IFF1, c.IM)
	}
}

func TestZ80_BasicTimings(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want int
	}{
		{"NOP", []byte{0x00}, 4},
		{"LD A,n", []byte{0x3E, 0x12}, 7},
		{"LD HL,nn", []byte{0x21, 0x34, 0x12}, 10},
		{"LD (HL),n", []byte{0x36, 0x55}, 10},
		{"INC (HL)", []byte{0x34}, 11},
		{"CALL nn", []byte{0xCD, 0x00, 0x10}, 17},
		{"JR e", []byte{0x18, 0x00}, 12},
		{"LD IX,nn", []byte{0xDD, 0x21, 0x00, 0x40}, 14},
		{"LD A,(IX+d)", []byte{0xDD, 0x7E, 0x05}, 19},
		{"LD (IX+d),n", []byte{0xDD, 0x36, 0x05, 0x99}, 19},
		{"INC (IY+d)", []byte{0xFD, 0x34, 0x01}, 23},
		{"BIT 0,(HL)", []byte{0xCB, 0x46}, 12},
		{"RLC B", []byte{0xCB, 0x00}, 8},
		{"SET 1,(IX+d)", []byte{0xDD, 0xCB, 0x02, 0xCE}, 23},
		{"BIT 1,(IX+d)", []byte{0xDD, 0xCB, 0x02, 0x4E}, 20},
		{"SBC HL,DE", []byte{0xED, 0x52}, 15},
		{"NEG", []byte{0xED, 0x44}, 8},
		{"ED undefined", []byte{0xED, 0x00}, 8},
		{"DD before non-index op", []byte{0xDD, 0x00}, 8},
		{"EX (SP),HL", []byte{0xE3}, 19},
	}
	for _, tt := range tests {
		c, _ := makeTestCPU(tt.code...)
		c.SetHL(0x8000)
		if got := c.Step(); got != tt.want {
			t.Errorf("%s: expected %d T-states, got %d", tt.name, tt.want, got)
		}
	}
}

func TestZ80_ConditionalTimings(t *testing.T) {
	c, _ := makeTestCPU(0x20, 0x00) // JR NZ,0
	c.F = 0
	if got := c.Step(); got != 12 {
		t.Errorf("JR NZ taken: expected 12, got %d", got)
	}
	c, _ = makeTestCPU(0x20, 0x00)
	c.F = flagZ
	if got := c.Step(); got != 7 {
		t.Errorf("JR NZ not taken: expected 7, got %d", got)
	}
	c, _ = makeTestCPU(0xC0) // RET NZ
	c.F = flagZ
	if got := c.Step(); got != 5 {
		t.Errorf("RET NZ not taken: expected 5, got %d", got)
	}
	c, _ = makeTestCPU(0x10, 0xFE) // DJNZ -2
	c.B = 2
	if got := c.Step(); got != 13 {
		t.Errorf("DJNZ taken: expected 13, got %d", got)
	}
	if got := c.Step(); got != 8 {
		t.Errorf("DJNZ fallthrough: expected 8, got %d", got)
	}
}

func TestZ80_ExecuteOvershoot(t *testing.T) {
	// CALL nn is 17 T-states; asking for 1 still runs the whole instruction.
	c, _ := makeTestCPU(0xCD, 0x00, 0x10)
	if got := c.Execute(1); got != 17 {
		t.Errorf("expected 17, got %d", got)
	}
	if c.PC != 0x1000 {
		t.Errorf("expected PC=1000, got %04X", c.PC)
	}
}

func loopProgram() []byte {
	return []byte{
		0x21, 0x00, 0x80, // LD HL,8000
		0x3E, 0x01, // LD A,1
		0x86,             // ADD A,(HL)
		0x77,             // LD (HL),A
		0x23,             // INC HL
		0xDD, 0x21, 0, 0, // LD IX,0
		0xCB, 0x27, // SLA A
		0x10, 0xF5, // DJNZ -11
		0xC3, 0x00, 0x00, // JP 0
	}
}

func TestZ80_BurstConservation(t *testing.T) {
	single, _ := makeTestCPU(loopProgram()...)
	total := single.Execute(10000)

	split, _ := makeTestCPU(loopProgram()...)
	sum := 0
	carry := 0
	for i := 0; i < 100; i++ {
		budget := 100 - carry
		n := split.Execute(budget)
		carry = n - budget
		sum += n
	}
	diff := total - sum
	if diff < 0 {
		diff = -diff
	}
	if diff > 23 {
		t.Errorf("burst totals diverged: single=%d split=%d", total, sum)
	}
	if single.PC != split.PC && diff == 0 {
		t.Errorf("equal cycles but different PC: %04X vs %04X", single.PC, split.PC)
	}
}

func TestZ80_NMIServicedOnce(t *testing.T) {
	c, bus := makeTestCPU(0x18, 0xFE) // JR -2
	bus.load(nmiVector, 0x3C, 0xED, 0x45) // INC A; RETN
	c.A = 0
	c.PulseNMI()
	for i := 0; i < 10; i++ {
		c.Execute(100)
	}
	if c.A != 1 {
		t.Errorf("expected NMI handler to run once, A=%d", c.A)
	}
	if c.PC > 1 {
		t.Errorf("expected to be back in main loop, PC=%04X", c.PC)
	}
}

func TestZ80_NMICost(t *testing.T) {
	c, _ := makeTestCPU(0x00)
	c.PulseNMI()
	if got := c.Step(); got != 11 {
		t.Errorf("expected 11 T-states for NMI, got %d", got)
	}
	if c.PC != nmiVector {
		t.Errorf("expected PC=0066, got %04X", c.PC)
	}
}

func TestZ80_IRQLevelTriggered(t *testing.T) {
	// IM 1; EI; loop: JR loop
	c, bus := makeTestCPU(0xED, 0x56, 0xFB, 0x18, 0xFE)
	bus.load(im1Vector, 0x04, 0xFB, 0xED, 0x4D) // INC B; EI; RETI
	c.AssertIRQ()
	c.Execute(1000)
	if c.B < 2 {
		t.Errorf("expected repeated IRQ service while asserted, B=%d", c.B)
	}
	c.ClearIRQ()
	before := c.B
	c.Execute(1000)
	if c.B != before {
		t.Errorf("IRQ serviced after clear: %d -> %d", before, c.B)
	}
}

func TestZ80_IRQMasked(t *testing.T) {
	c, _ := makeTestCPU(0xF3, 0x18, 0xFE) // DI; JR -2
	c.IM = 1
	c.AssertIRQ()
	c.Execute(500)
	if c.PC == im1Vector || c.IFF1 {
		t.Errorf("IRQ taken while disabled")
	}
}

func TestZ80_EIDelay(t *testing.T) {
	c, _ := makeTestCPU(0xFB, 0x00, 0x00) // EI; NOP; NOP
	c.IM = 1
	c.AssertIRQ()
	c.Step() // EI
	c.Step() // NOP runs before the interrupt is accepted
	if c.PC != 2 {
		t.Fatalf("expected NOP after EI to execute, PC=%04X", c.PC)
	}
	if got := c.Step(); got != 13 || c.PC != im1Vector {
		t.Errorf("expected IM1 service (13 T-states) got %d PC=%04X", got, c.PC)
	}
}

func TestZ80_IM2Vector(t *testing.T) {
	c, bus := makeTestCPU(0x00)
	c.IM = 2
	c.I = 0x40
	c.IFF1 = true
	bus.load(0x40FE, 0x34, 0x12)
	c.SetDataBus(0xFE)
	c.AssertIRQ()
	if got := c.Step(); got != 19 {
		t.Errorf("expected 19 T-states, got %d", got)
	}
	if c.PC != 0x1234 {
		t.Errorf("expected PC=1234, got %04X", c.PC)
	}
}

func TestZ80_HaltWakesOnInterrupt(t *testing.T) {
	c, _ := makeTestCPU(0x76, 0x00)
	c.IM = 1
	c.IFF1 = true
	c.Step()
	if !c.Halted {
		t.Fatal("expected halted")
	}
	c.Execute(40)
	if c.PC != 1 {
		t.Errorf("PC moved while halted: %04X", c.PC)
	}
	c.AssertIRQ()
	c.Step()
	if c.Halted || c.PC != im1Vector {
		t.Errorf("expected wake to 0038, PC=%04X halted=%v", c.PC, c.Halted)
	}
	if ret := c.read16(c.SP); ret != 1 {
		t.Errorf("expected return address 0001, got %04X", ret)
	}
}

func TestZ80_ALUFlags(t *testing.T) {
	c, _ := makeTestCPU(0xC6, 0x01) // ADD A,1
	c.A = 0x7F
	c.Step()
	if c.A != 0x80 || c.F&flagPV == 0 || c.F&flagS == 0 || c.F&flagH == 0 {
		t.Errorf("ADD 7F+1: A=%02X F=%02X", c.A, c.F)
	}

	c, _ = makeTestCPU(0xD6, 0x01) // SUB 1
	c.A = 0x00
	c.Step()
	if c.A != 0xFF || c.F&flagC == 0 || c.F&flagN == 0 {
		t.Errorf("SUB 0-1: A=%02X F=%02X", c.A, c.F)
	}

	c, _ = makeTestCPU(0xFE, 0x28) // CP 28h
	c.A = 0x10
	c.Step()
	if c.F&flagXY != 0x28&flagXY {
		t.Errorf("CP should take X/Y from operand, F=%02X", c.F)
	}
	if c.A != 0x10 {
		t.Errorf("CP modified A")
	}
}

func TestZ80_DAA(t *testing.T) {
	c, _ := makeTestCPU(0xC6, 0x27, 0x27) // ADD A,27h; DAA
	c.A = 0x15
	c.Step()
	c.Step()
	if c.A != 0x42 {
		t.Errorf("BCD 15+27: expected 42, got %02X", c.A)
	}
}

func TestZ80_IndexedCBCopiesToRegister(t *testing.T) {
	c, bus := makeTestCPU(0xDD, 0xCB, 0x01, 0xC0) // SET 0,(IX+1),B
	c.IX = 0x9000
	bus.mem[0x9001] = 0x10
	c.Step()
	if bus.mem[0x9001] != 0x11 || c.B != 0x11 {
		t.Errorf("expected memory and B = 11, got mem=%02X B=%02X", bus.mem[0x9001], c.B)
	}
}

func TestZ80_IndexedUsesRealHL(t *testing.T) {
	c, bus := makeTestCPU(0xDD, 0x66, 0x00, 0xDD, 0x65) // LD H,(IX+0); LD IXH,IXL
	c.IX = 0x9034
	bus.mem[0x9034] = 0xAB
	c.Step()
	if c.H != 0xAB || c.IX != 0x9034 {
		t.Errorf("LD H,(IX+0): H=%02X IX=%04X", c.H, c.IX)
	}
	c.Step()
	if c.IX != 0x3434 {
		t.Errorf("LD IXH,IXL: IX=%04X", c.IX)
	}
}

func TestZ80_LDIR(t *testing.T) {
	c, bus := makeTestCPU(0xED, 0xB0)
	c.SetHL(0x8000)
	c.SetDE(0x9000)
	c.SetBC(3)
	copy(bus.mem[0x8000:], []byte{1, 2, 3})
	total := 0
	for c.PC == 0 {
		total += c.Step()
	}
	if bus.mem[0x9002] != 3 || c.BC() != 0 {
		t.Errorf("LDIR did not copy block")
	}
	if total != 21+21+16 {
		t.Errorf("LDIR timing: expected 58, got %d", total)
	}
	if c.F&flagPV != 0 {
		t.Errorf("P/V should be clear after BC reaches 0")
	}
}

func TestZ80_OTIR(t *testing.T) {
	c, bus := makeTestCPU(0xED, 0xB3)
	c.SetHL(0x8000)
	c.B = 2
	c.C = 0xBE
	copy(bus.mem[0x8000:], []byte{0x11, 0x22})
	for c.PC == 0 {
		c.Step()
	}
	if bus.ports[0xBE] != 0x22 || len(bus.outs) != 2 {
		t.Errorf("OTIR: port=%02X writes=%d", bus.ports[0xBE], len(bus.outs))
	}
	if c.F&flagZ == 0 {
		t.Error("Z should be set when B reaches 0")
	}
}

func TestZ80_InOut(t *testing.T) {
	c, bus := makeTestCPU(0xDB, 0x7E, 0xD3, 0xBF) // IN A,(7E); OUT (BF),A
	bus.ports[0x7E] = 0x5A
	c.Step()
	c.Step()
	if c.A != 0x5A || bus.ports[0xBF] != 0x5A {
		t.Errorf("IN/OUT: A=%02X port=%02X", c.A, bus.ports[0xBF])
	}
}

func TestZ80_RRegister(t *testing.T) {
	c, _ := makeTestCPU(0x00, 0xCB, 0x00, 0xDD, 0x00)
	c.R = 0x7F | 0x80
	c.Step()
	if c.R != 0x80 {
		t.Errorf("R bit 7 must be preserved, got %02X", c.R)
	}
	c.Step()
	c.Step()
	if c.R != 0x84 {
		t.Errorf("expected R=84 after NOP, CB, DD prefixed ops, got %02X", c.R)
	}
}
