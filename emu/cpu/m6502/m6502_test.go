package m6502

import "testing"

type testBus struct {
	mem [0x10000]byte
}

func (b *testBus) Read(addr uint16) byte     { return b.mem[addr] }
func (b *testBus) Write(addr uint16, v byte) { b.mem[addr] = v }

// makeTestCPU loads code at $8000, points the reset vector at it and runs
// off the reset sequence.
func makeTestCPU(code ...byte) (*CPU, *testBus) {
	bus := &testBus{}
	copy(bus.mem[0x8000:], code)
	bus.mem[VectorReset] = 0x00
	bus.mem[VectorReset+1] = 0x80
	c := New(bus)
	c.Step()
	return c, bus
}

func TestM6502_Reset(t *testing.T) {
	bus := &testBus{}
	bus.mem[VectorReset] = 0x34
	bus.mem[VectorReset+1] = 0x12
	c := New(bus)
	if c.PC != 0x1234 {
		t.Errorf("expected PC=1234, got %04X", c.PC)
	}
	if c.S != 0xFD || c.P&flagI == 0 {
		t.Errorf("unexpected S=%02X P=%02X", c.S, c.P)
	}
	if got := c.Step(); got != 7 {
		t.Errorf("expected reset sequence to cost 7 cycles, got %d", got)
	}
}

func TestM6502_Timings(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		x, y byte
		want int
	}{
		{"LDA #", []byte{0xA9, 0x01}, 0, 0, 2},
		{"LDA abs", []byte{0xAD, 0x00, 0x02}, 0, 0, 4},
		{"LDA abs,X same page", []byte{0xBD, 0x00, 0x02}, 0x10, 0, 4},
		{"LDA abs,X cross", []byte{0xBD, 0xFF, 0x02}, 0x01, 0, 5},
		{"STA abs,X cross", []byte{0x9D, 0xFF, 0x02}, 0x01, 0, 5},
		{"LDA (zp),Y cross", []byte{0xB1, 0x10}, 0, 0xFF, 6},
		{"INC abs,X", []byte{0xFE, 0x00, 0x02}, 0, 0, 7},
		{"JSR", []byte{0x20, 0x00, 0x90}, 0, 0, 6},
		{"DCP (zp),Y", []byte{0xD3, 0x10}, 0, 0, 8},
		{"NOP abs,X cross", []byte{0x1C, 0xFF, 0x02}, 1, 0, 5},
	}
	for _, tt := range tests {
		c, bus := makeTestCPU(tt.code...)
		bus.mem[0x10] = 0x01
		bus.mem[0x11] = 0x02
		c.X, c.Y = tt.x, tt.y
		if got := c.Step(); got != tt.want {
			t.Errorf("%s: expected %d cycles, got %d", tt.name, tt.want, got)
		}
	}
}

func TestM6502_BranchTiming(t *testing.T) {
	c, _ := makeTestCPU(0xD0, 0x02) // BNE +2
	c.P &^= flagZ
	if got := c.Step(); got != 3 {
		t.Errorf("taken branch: expected 3, got %d", got)
	}
	c, _ = makeTestCPU(0xD0, 0x02)
	c.P |= flagZ
	if got := c.Step(); got != 2 {
		t.Errorf("untaken branch: expected 2, got %d", got)
	}
	c, _ = makeTestCPU(0xD0, 0x80) // BNE -128 crosses into $7F
	c.P &^= flagZ
	if got := c.Step(); got != 4 {
		t.Errorf("page-crossing branch: expected 4, got %d", got)
	}
}

func TestM6502_JMPIndirectBug(t *testing.T) {
	c, bus := makeTestCPU(0x6C, 0xFF, 0x02)
	bus.mem[0x02FF] = 0x34
	bus.mem[0x0200] = 0x12
	bus.mem[0x0300] = 0x56
	c.Step()
	if c.PC != 0x1234 {
		t.Errorf("expected page-wrapped vector 1234, got %04X", c.PC)
	}
}

func TestM6502_ADCOverflow(t *testing.T) {
	c, _ := makeTestCPU(0x69, 0x01)
	c.A = 0x7F
	c.P &^= flagC
	c.Step()
	if c.A != 0x80 || c.P&flagV == 0 || c.P&flagN == 0 || c.P&flagC != 0 {
		t.Errorf("7F+1: A=%02X P=%02X", c.A, c.P)
	}
}

func TestM6502_DecimalMode(t *testing.T) {
	c, _ := makeTestCPU(0xF8, 0x69, 0x27) // SED; ADC #$27
	c.A = 0x15
	c.P &^= flagC
	c.Step()
	c.Step()
	if c.A != 0x3C {
		t.Errorf("2A03 variant must ignore D: expected 3C, got %02X", c.A)
	}

	c, _ = makeTestCPU(0xF8, 0x69, 0x27)
	c.Decimal = true
	c.A = 0x15
	c.P &^= flagC
	c.Step()
	c.Step()
	if c.A != 0x42 {
		t.Errorf("decimal 15+27: expected 42, got %02X", c.A)
	}

	c, _ = makeTestCPU(0xF8, 0x38, 0xE9, 0x01) // SED; SEC; SBC #1
	c.Decimal = true
	c.A = 0x10
	c.Step()
	c.Step()
	c.Step()
	if c.A != 0x09 {
		t.Errorf("decimal 10-1: expected 09, got %02X", c.A)
	}
}

func TestM6502_NMIServicedOnce(t *testing.T) {
	c, bus := makeTestCPU(0x4C, 0x00, 0x80) // JMP $8000
	bus.mem[VectorNMI] = 0x00
	bus.mem[VectorNMI+1] = 0x90
	copy(bus.mem[0x9000:], []byte{0xE8, 0x40}) // INX; RTI
	c.PulseNMI()
	for i := 0; i < 10; i++ {
		c.Execute(100)
	}
	if c.X != 1 {
		t.Errorf("expected NMI handler exactly once, X=%d", c.X)
	}
}

func TestM6502_IRQLevel(t *testing.T) {
	c, bus := makeTestCPU(0x58, 0x4C, 0x01, 0x80) // CLI; JMP $8001
	bus.mem[VectorIRQ] = 0x00
	bus.mem[VectorIRQ+1] = 0x90
	copy(bus.mem[0x9000:], []byte{0xC8, 0x40}) // INY; RTI
	c.AssertIRQ()
	c.Execute(300)
	if c.Y < 2 {
		t.Errorf("expected repeated IRQ service, Y=%d", c.Y)
	}
	c.ClearIRQ()
	y := c.Y
	c.Execute(300)
	if c.Y != y {
		t.Errorf("IRQ serviced after clear")
	}
}

func TestM6502_CLIDelay(t *testing.T) {
	c, bus := makeTestCPU(0x58, 0xEA, 0xEA) // CLI; NOP; NOP
	bus.mem[VectorIRQ+1] = 0x90
	c.AssertIRQ()
	c.Step() // CLI
	c.Step() // the poll during CLI still saw I set, so NOP runs
	if c.PC != 0x8002 {
		t.Fatalf("expected NOP after CLI to execute, PC=%04X", c.PC)
	}
	if got := c.Step(); got != 7 || c.PC != 0x9000 {
		t.Errorf("expected IRQ entry, cycles=%d PC=%04X", got, c.PC)
	}
	if p := bus.mem[0x0100|uint16(c.S+1)]; p&flagB != 0 {
		t.Errorf("hardware IRQ must push B clear, got %02X", p)
	}
}

func TestM6502_BRK(t *testing.T) {
	c, bus := makeTestCPU(0x00, 0xFF)
	bus.mem[VectorIRQ+1] = 0x90
	c.Step()
	if c.PC != 0x9000 {
		t.Fatalf("expected BRK to vector, PC=%04X", c.PC)
	}
	if p := bus.mem[0x0100|uint16(c.S+1)]; p&flagB == 0 {
		t.Errorf("BRK must push B set, got %02X", p)
	}
	ret := uint16(bus.mem[0x0100|uint16(c.S+2)]) | uint16(bus.mem[0x0100|uint16(c.S+3)])<<8
	if ret != 0x8002 {
		t.Errorf("BRK return address: expected 8002, got %04X", ret)
	}
}

func TestM6502_Undocumented(t *testing.T) {
	c, bus := makeTestCPU(0xA7, 0x20, 0x87, 0x21, 0xC7, 0x22) // LAX zp; SAX zp; DCP zp
	bus.mem[0x20] = 0x5A
	bus.mem[0x22] = 0x5B
	c.Step()
	if c.A != 0x5A || c.X != 0x5A {
		t.Errorf("LAX: A=%02X X=%02X", c.A, c.X)
	}
	c.X = 0x0F
	c.Step()
	if bus.mem[0x21] != 0x0A {
		t.Errorf("SAX: expected 0A, got %02X", bus.mem[0x21])
	}
	c.Step()
	if bus.mem[0x22] != 0x5A || c.P&flagZ == 0 || c.P&flagC == 0 {
		t.Errorf("DCP: mem=%02X P=%02X", bus.mem[0x22], c.P)
	}
}

func TestM6502_JamKeepsBurstProgressing(t *testing.T) {
	c, _ := makeTestCPU(0x02)
	c.Step()
	if !c.Jammed() {
		t.Fatal("expected jammed CPU")
	}
	if got := c.Execute(100); got < 100 {
		t.Errorf("jammed CPU must still consume the budget, got %d", got)
	}
	if c.PC != 0x8000 {
		t.Errorf("PC moved while jammed: %04X", c.PC)
	}
	c.Reset()
	if c.Jammed() {
		t.Error("reset must clear jam")
	}
}

func TestM6502_Stall(t *testing.T) {
	c, _ := makeTestCPU(0xEA)
	c.Stall(513)
	if got := c.Execute(1); got != 513 {
		t.Errorf("expected stall of 513, got %d", got)
	}
}

func TestM6502_StallAfterResetIsSeparate(t *testing.T) {
	c, _ := makeTestCPU(0xEA)
	c.Reset()
	c.Stall(513)
	if got := c.Step(); got != 7 {
		t.Errorf("expected the reset sequence first, got %d cycles", got)
	}
	if got := c.Step(); got != 513 {
		t.Errorf("expected stall of 513, got %d", got)
	}
}

func TestM6502_BurstConservation(t *testing.T) {
	prog := []byte{0xA2, 0x00, 0xE8, 0xBD, 0xF0, 0x02, 0x9D, 0x00, 0x03, 0xD0, 0xF7, 0x4C, 0x00, 0x80}
	a, _ := makeTestCPU(prog...)
	total := a.Execute(5000)

	b, _ := makeTestCPU(prog...)
	sum, carry := 0, 0
	for i := 0; i < 50; i++ {
		budget := 100 - carry
		n := b.Execute(budget)
		carry = n - budget
		sum += n
	}
	if d := total - sum; d > 7 || d < -7 {
		t.Errorf("burst totals diverged: %d vs %d", total, sum)
	}
}
